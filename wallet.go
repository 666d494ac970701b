package paperledger

import "time"

// Wallet is the virtual cash account of a user. There is exactly one wallet
// per user; its balance never goes negative.
type Wallet struct {
	UserID    string
	Balance   Money
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Holding is the position of a user in a single instrument, keyed by
// (user, symbol). A holding only exists while its quantity is strictly
// positive; full liquidation removes the row rather than keeping a zero.
type Holding struct {
	UserID   string
	Symbol   string
	Quantity Quantity
	// AveragePrice is the weighted-average cost basis per unit. Buys
	// re-weight it, sells leave it unchanged.
	AveragePrice Money
	UpdatedAt    time.Time
}

// CostValue returns the invested value of the holding at cost basis.
func (h *Holding) CostValue() Money { return h.AveragePrice.Mul(h.Quantity) }
