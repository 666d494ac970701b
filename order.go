package paperledger

import (
	"fmt"
	"time"
)

// Side identifies the direction of an order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// ParseSide parses a string into a Side.
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case Buy, Sell:
		return Side(s), nil
	default:
		return "", fmt.Errorf("unknown side: %q", s)
	}
}

// OrderType identifies how the execution price of an order is determined.
type OrderType string

const (
	// Market orders execute at the best currently available price.
	Market OrderType = "MARKET"
	// Limit orders execute only at their stated price or better.
	Limit OrderType = "LIMIT"
)

// ParseOrderType parses a string into an OrderType.
func ParseOrderType(s string) (OrderType, error) {
	switch OrderType(s) {
	case Market, Limit:
		return OrderType(s), nil
	default:
		return "", fmt.Errorf("unknown order type: %q", s)
	}
}

// OrderStatus is the lifecycle state of an order.
//
// Orders start transiently as StatusNew and are persisted in one of the other
// states. StatusPending may later move to StatusFilled (by the matcher) or
// StatusCancelled (by the user); StatusFilled, StatusRejected and
// StatusCancelled are terminal.
type OrderStatus string

const (
	StatusNew       OrderStatus = "NEW"
	StatusPending   OrderStatus = "PENDING"
	StatusFilled    OrderStatus = "FILLED"
	StatusRejected  OrderStatus = "REJECTED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// Terminal reports whether no further transition is possible from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusFilled || s == StatusRejected || s == StatusCancelled
}

// PriceSource records where the execution price of a fill came from.
type PriceSource string

const (
	// SourceOracle marks a price resolved from the live price oracle.
	SourceOracle PriceSource = "oracle"
	// SourceClient marks a client-asserted fallback price, kept for audit:
	// such fills must never be mistaken for oracle-priced ones.
	SourceClient PriceSource = "client"
	// SourceLimit marks a fill executed at the order's own limit price.
	SourceLimit PriceSource = "limit"
)

// Order is an immutable, append-only record of a trade attempt and its
// outcome. Once recorded, only Status, ExecutionPrice, TotalValue,
// RealizedPnL and FilledAt may change, and only through the permitted
// status transitions.
type Order struct {
	ID       string
	UserID   string
	Symbol   string
	Side     Side
	Type     OrderType
	Quantity Quantity

	// LimitPrice is set only for LIMIT orders.
	LimitPrice Money

	// ExecutionPrice and TotalValue are set once the order is filled.
	ExecutionPrice Money
	TotalValue     Money

	Status      OrderStatus
	PriceSource PriceSource

	// RealizedPnL is set only on filled SELL orders.
	RealizedPnL Money
	HasPnL      bool

	CreatedAt time.Time
	FilledAt  time.Time
}

// Filled reports whether the order has been executed.
func (o *Order) Filled() bool { return o.Status == StatusFilled }

// eligible reports whether a limit order may fill against the given market
// price: a LIMIT BUY fills when the buyer is willing to pay at least the
// market price, a LIMIT SELL when the market pays at least the ask.
func (o *Order) eligible(market Money) bool {
	switch o.Side {
	case Buy:
		return o.LimitPrice.GreaterThanOrEqual(market)
	case Sell:
		return o.LimitPrice.LessThanOrEqual(market)
	}
	return false
}
