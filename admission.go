package paperledger

import "fmt"

// OrderRequest is a trade attempt as submitted by a client, before
// admission. The acting user comes from the authentication context and is
// trusted as-is.
type OrderRequest struct {
	UserID   string
	Symbol   string
	Side     Side
	Type     OrderType
	Quantity Quantity

	// LimitPrice is required for LIMIT orders.
	LimitPrice Money

	// ClientPrice is an optional client-asserted price. For MARKET orders
	// it is only a fallback for when the oracle has no quote; it never
	// overrides a live price.
	ClientPrice Money
}

// Validate checks the request for well-formedness. It is pure: it reads
// nothing from the ledger store and has no side effects, so a failure here
// leaves no order record behind.
func (r *OrderRequest) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("%w: user is missing", ErrInvalidInput)
	}
	if r.Symbol == "" {
		return fmt.Errorf("%w: symbol is missing", ErrInvalidInput)
	}
	if _, err := ParseSide(string(r.Side)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := ParseOrderType(string(r.Type)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !r.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive, got %s", ErrInvalidInput, r.Quantity)
	}
	if !r.Quantity.IsInteger() {
		return fmt.Errorf("%w: quantity must be a whole number, got %s", ErrInvalidInput, r.Quantity)
	}
	if r.Type == Limit && !r.LimitPrice.IsPositive() {
		return fmt.Errorf("%w: limit price must be positive", ErrInvalidInput)
	}
	if r.ClientPrice.IsNegative() {
		return fmt.Errorf("%w: client price must not be negative", ErrInvalidInput)
	}
	return nil
}
