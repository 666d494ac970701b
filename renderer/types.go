package renderer

import (
	"time"

	"github.com/vikramn/paperledger"
)

// OrdersReport is the view model of the order log report.
type OrdersReport struct {
	User   string
	Orders []OrderRow
}

// OrderRow is one line of the order log report.
type OrderRow struct {
	ID        string
	Symbol    string
	Side      string
	Type      string
	Quantity  string
	Limit     string
	Price     string
	Total     string
	Status    string
	Source    string
	PnL       string
	CreatedAt string
}

// NewOrdersReport builds the view model from ledger orders (already sorted
// most recent first).
func NewOrdersReport(user string, orders []paperledger.Order) *OrdersReport {
	r := &OrdersReport{User: user}
	for _, o := range orders {
		row := OrderRow{
			ID:        shortID(o.ID),
			Symbol:    o.Symbol,
			Side:      string(o.Side),
			Type:      string(o.Type),
			Quantity:  o.Quantity.String(),
			Limit:     "-",
			Price:     "-",
			Total:     "-",
			Status:    string(o.Status),
			Source:    string(o.PriceSource),
			PnL:       "-",
			CreatedAt: o.CreatedAt.Format(time.DateTime),
		}
		if o.Type == paperledger.Limit {
			row.Limit = o.LimitPrice.String()
		}
		if o.Filled() {
			row.Price = o.ExecutionPrice.String()
			row.Total = o.TotalValue.String()
		}
		if o.HasPnL {
			row.PnL = o.RealizedPnL.SignedString()
		}
		r.Orders = append(r.Orders, row)
	}
	return r
}

// PortfolioReport is the view model of the holdings-and-wallet report.
type PortfolioReport struct {
	User     string
	Holdings []HoldingRow
	// Invested is the total cost-basis value of all holdings.
	Invested string
	Balance  string
	// Total is wallet balance plus invested value. Unrealized P&L is
	// deliberately absent: it needs a live price and belongs to the
	// consumer, not the ledger.
	Total string
}

// HoldingRow is one open position.
type HoldingRow struct {
	Symbol       string
	Quantity     string
	AveragePrice string
	CostValue    string
}

// NewPortfolioReport builds the view model from the user's wallet and holdings.
func NewPortfolioReport(user string, w *paperledger.Wallet, holdings []paperledger.Holding) *PortfolioReport {
	r := &PortfolioReport{User: user, Balance: w.Balance.String()}

	invested := paperledger.M(0, w.Balance.Currency())
	for _, h := range holdings {
		cost := h.CostValue()
		invested = invested.Add(cost)
		r.Holdings = append(r.Holdings, HoldingRow{
			Symbol:       h.Symbol,
			Quantity:     h.Quantity.String(),
			AveragePrice: h.AveragePrice.String(),
			CostValue:    cost.String(),
		})
	}
	r.Invested = invested.String()
	r.Total = w.Balance.Add(invested).String()
	return r
}

// WalletReport is the view model of the wallet summary.
type WalletReport struct {
	User      string
	Balance   string
	Currency  string
	CreatedAt string
	UpdatedAt string
}

// NewWalletReport builds the view model from a wallet.
func NewWalletReport(w *paperledger.Wallet) *WalletReport {
	return &WalletReport{
		User:      w.UserID,
		Balance:   w.Balance.String(),
		Currency:  w.Balance.Currency(),
		CreatedAt: w.CreatedAt.Format(time.DateTime),
		UpdatedAt: w.UpdatedAt.Format(time.DateTime),
	}
}

// shortID keeps the first uuid group, enough to disambiguate in a report.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
