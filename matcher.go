package paperledger

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// SweepPending re-evaluates every PENDING limit order against a freshly
// resolved market price and fills the eligible ones at their limit price,
// through the same atomic commit path as immediate executions.
//
// Each order is evaluated independently: a price-oracle failure or a
// rejection of one order never aborts the sweep for the others. It returns
// the number of orders filled.
func (l *Ledger) SweepPending(ctx context.Context) (filled int, err error) {
	users, err := l.store.pendingUsers(ctx)
	if err != nil {
		return 0, err
	}

	for _, userID := range users {
		filled += l.sweepUser(ctx, userID)
	}
	return filled, nil
}

func (l *Ledger) sweepUser(ctx context.Context, userID string) (filled int) {
	orders, err := l.store.pendingOrders(ctx, l.store.db, userID)
	if err != nil {
		l.log.Warn("sweep: listing pending orders failed",
			zap.String("user", userID), zap.Error(err))
		return 0
	}

	// Resolve prices before taking the user lock; the oracle is external
	// I/O and must not be called while holding it.
	prices := make(map[string]Money)
	for _, o := range orders {
		if _, ok := prices[o.Symbol]; ok {
			continue
		}
		price, err := l.oracle.Price(ctx, o.Symbol)
		if err != nil {
			// no usable price this cycle; the order stays pending
			l.log.Debug("sweep: no price",
				zap.String("symbol", o.Symbol), zap.Error(err))
			continue
		}
		prices[o.Symbol] = price
	}

	unlock := l.locks.lock(userID)
	defer unlock()

	for i := range orders {
		o := &orders[i]
		market, ok := prices[o.Symbol]
		if !ok || !o.eligible(market) {
			continue
		}
		if err := l.fillPending(ctx, o); err != nil {
			l.log.Warn("sweep: fill failed",
				zap.String("order", o.ID),
				zap.String("user", userID),
				zap.Error(err))
			continue
		}
		filled++
		l.log.Info("pending order filled",
			zap.String("order", o.ID),
			zap.String("user", userID),
			zap.String("symbol", o.Symbol),
			zap.String("price", o.ExecutionPrice.Amount()))
	}
	return filled
}

// fillPending executes a now-eligible pending order at its limit price.
// The caller must hold the user lock. A commit-time check failure (for
// instance the wallet can no longer afford the buy) leaves the order
// pending; it may become fillable again after other trades.
func (l *Ledger) fillPending(ctx context.Context, o *Order) error {
	o.ExecutionPrice = o.LimitPrice
	o.PriceSource = SourceLimit

	return l.store.execTx(ctx, func(tx *sql.Tx) error {
		rejection, err := l.fill(ctx, tx, o)
		if err != nil {
			return err
		}
		if rejection != nil {
			return rejection
		}
		// the status guard catches a concurrent cancel between the
		// pending-order listing and this transaction
		return l.store.markFilled(ctx, tx, o)
	})
}

// Matcher periodically sweeps pending orders. It is the long-running
// counterpart of Ledger.SweepPending for deployments where prices refresh
// on a schedule.
type Matcher struct {
	Ledger   *Ledger
	Interval time.Duration
}

// Run sweeps on every tick until ctx is cancelled.
func (m *Matcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := m.Ledger.SweepPending(ctx); err != nil {
				m.Ledger.log.Warn("sweep failed", zap.Error(err))
			}
		}
	}
}
