package paperledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ledger is the virtual trading ledger: it turns admitted order requests
// and market prices into durable, consistent mutations of wallet balance,
// position size and weighted-average cost.
//
// All mutations of one user are serialized behind a per-user lock and
// committed in a single store transaction, so the money-conservation
// invariant holds after every operation:
//
//	balance + Σ(quantity · average price) = funding + Σ(realized P&L)
type Ledger struct {
	store   *Store
	oracle  PriceOracle
	locks   *userLocks
	log     *zap.Logger
	funding Money

	now func() time.Time // injectable clock for tests
}

// NewLedger creates a ledger over the given store and price oracle.
// funding is the amount a wallet is created with on first use.
// A nil logger disables logging.
func NewLedger(store *Store, oracle PriceOracle, funding Money, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{
		store:   store,
		oracle:  oracle,
		locks:   newUserLocks(),
		log:     log,
		funding: funding,
		now:     time.Now,
	}
}

// Currency returns the ledger currency.
func (l *Ledger) Currency() string { return l.store.Currency() }

// PlaceOrder admits, prices and executes a trade request, returning the
// resulting order record. MARKET orders fill (or reject) immediately;
// LIMIT orders fill immediately only when eligible against the current
// market price and otherwise rest as PENDING.
//
// On ErrInsufficientFunds and ErrInsufficientPosition the returned order
// is non-nil and recorded as REJECTED for audit. ErrInvalidInput and
// ErrPriceUnavailable leave no order record.
func (l *Ledger) PlaceOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// The oracle call is external I/O; it happens before the user lock so
	// the lock is only ever held for the store mutation itself.
	quote, quoteErr := l.oracle.Price(ctx, req.Symbol)

	order := &Order{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		Symbol:     req.Symbol,
		Side:       req.Side,
		Type:       req.Type,
		Quantity:   req.Quantity,
		LimitPrice: req.LimitPrice,
		Status:     StatusNew,
		CreatedAt:  l.now(),
	}

	pending := false
	switch req.Type {
	case Market:
		price, source, err := resolveMarketPrice(quote, quoteErr, req.ClientPrice)
		if err != nil {
			return nil, fmt.Errorf("pricing %s: %w", req.Symbol, err)
		}
		order.ExecutionPrice = price
		order.PriceSource = source
	case Limit:
		// Eligibility needs a market reference. Without one the order
		// simply rests; the matcher re-evaluates it on the next sweep.
		if quoteErr != nil || !order.eligible(quote) {
			pending = true
		} else {
			order.ExecutionPrice = order.LimitPrice
			order.PriceSource = SourceLimit
		}
	}

	unlock := l.locks.lock(req.UserID)
	defer unlock()

	var domainErr error
	err := l.store.execTx(ctx, func(tx *sql.Tx) error {
		if err := l.ensureWallet(ctx, tx, req.UserID); err != nil {
			return err
		}

		if pending {
			// A resting order still gets an admission check so it cannot
			// rest unfillable forever: a BUY must afford its limit price
			// (funds are not reserved), a SELL must be covered by the
			// current position.
			switch req.Side {
			case Buy:
				w, err := l.store.wallet(ctx, tx, req.UserID)
				if err != nil {
					return err
				}
				if w.Balance.LessThan(order.LimitPrice.Mul(order.Quantity)) {
					order.Status = StatusRejected
					domainErr = fmt.Errorf("%w: order %s", ErrInsufficientFunds, order.ID)
					return l.store.insertOrder(ctx, tx, order)
				}
			case Sell:
				h, err := l.store.holding(ctx, tx, req.UserID, req.Symbol)
				if err != nil {
					return err
				}
				if h == nil || h.Quantity.LessThan(order.Quantity) {
					order.Status = StatusRejected
					domainErr = fmt.Errorf("%w: order %s", ErrInsufficientPosition, order.ID)
					return l.store.insertOrder(ctx, tx, order)
				}
			}
			order.Status = StatusPending
			return l.store.insertOrder(ctx, tx, order)
		}

		rejected, err := l.fill(ctx, tx, order)
		if err != nil {
			return err
		}
		if rejected != nil {
			order.Status = StatusRejected
			domainErr = fmt.Errorf("%w: order %s", rejected, order.ID)
			return l.store.insertOrder(ctx, tx, order)
		}
		return l.store.insertOrder(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}
	if domainErr != nil {
		l.log.Info("order rejected",
			zap.String("order", order.ID),
			zap.String("user", req.UserID),
			zap.String("symbol", req.Symbol),
			zap.Error(domainErr))
		return order, domainErr
	}

	l.log.Info("order placed",
		zap.String("order", order.ID),
		zap.String("user", req.UserID),
		zap.String("symbol", req.Symbol),
		zap.String("side", string(order.Side)),
		zap.String("status", string(order.Status)))
	return order, nil
}

// resolveMarketPrice applies the price resolution policy for MARKET orders:
// a live oracle price always wins; a client-asserted price is accepted only
// when the oracle positively reports no quote, and is flagged as such.
func resolveMarketPrice(quote Money, quoteErr error, clientPrice Money) (Money, PriceSource, error) {
	switch {
	case quoteErr == nil:
		return quote, SourceOracle, nil
	case errors.Is(quoteErr, ErrNoQuote):
		if clientPrice.IsPositive() {
			return clientPrice, SourceClient, nil
		}
		return Money{}, "", ErrPriceUnavailable
	default:
		// A failing oracle is not a fallback trigger: a garbage or
		// unreachable feed must not let the client set its own price.
		return Money{}, "", fmt.Errorf("%w: %v", ErrPriceUnavailable, quoteErr)
	}
}

// fill applies the execution of order o (execution price already resolved)
// to the wallet and holding inside tx. It returns a non-nil rejection
// (ErrInsufficientFunds or ErrInsufficientPosition) when the commit-time
// check fails, in which case tx has not been written to.
//
// This is the single commit path for both immediate fills and
// matcher-driven fills of pending orders.
func (l *Ledger) fill(ctx context.Context, tx *sql.Tx, o *Order) (rejection error, err error) {
	now := l.now()
	wallet, err := l.store.wallet(ctx, tx, o.UserID)
	if err != nil {
		return nil, err
	}
	holding, err := l.store.holding(ctx, tx, o.UserID, o.Symbol)
	if err != nil {
		return nil, err
	}

	total := o.ExecutionPrice.Mul(o.Quantity)

	switch o.Side {
	case Buy:
		if wallet.Balance.LessThan(total) {
			return ErrInsufficientFunds, nil
		}
		if holding == nil {
			holding = &Holding{
				UserID:       o.UserID,
				Symbol:       o.Symbol,
				Quantity:     o.Quantity,
				AveragePrice: o.ExecutionPrice,
			}
		} else {
			// weighted-average cost basis over the old position and the
			// new units
			oldCost := holding.AveragePrice.Mul(holding.Quantity)
			newQty := holding.Quantity.Add(o.Quantity)
			holding.AveragePrice = oldCost.Add(total).Div(newQty)
			holding.Quantity = newQty
		}
		if err := l.store.upsertHolding(ctx, tx, holding, now); err != nil {
			return nil, err
		}
		if err := l.store.updateBalance(ctx, tx, o.UserID, wallet.Balance.Sub(total), now); err != nil {
			return nil, err
		}

	case Sell:
		if holding == nil || holding.Quantity.LessThan(o.Quantity) {
			return ErrInsufficientPosition, nil
		}
		// selling books P&L against the cost basis and leaves the
		// average price of the remainder unchanged
		pnl := o.ExecutionPrice.Sub(holding.AveragePrice).Mul(o.Quantity)
		o.RealizedPnL = pnl
		o.HasPnL = true
		holding.Quantity = holding.Quantity.Sub(o.Quantity)
		if err := l.store.upsertHolding(ctx, tx, holding, now); err != nil {
			return nil, err
		}
		if err := l.store.updateBalance(ctx, tx, o.UserID, wallet.Balance.Add(total), now); err != nil {
			return nil, err
		}
	}

	o.TotalValue = total
	o.Status = StatusFilled
	o.FilledAt = now
	return nil, nil
}

// ensureWallet creates the user's wallet with the default funding amount on
// first use.
func (l *Ledger) ensureWallet(ctx context.Context, tx *sql.Tx, userID string) error {
	_, err := l.store.wallet(ctx, tx, userID)
	if errors.Is(err, ErrWalletNotFound) {
		l.log.Info("funding new wallet",
			zap.String("user", userID),
			zap.String("amount", l.funding.Amount()))
		return l.store.createWallet(ctx, tx, userID, l.funding, l.now())
	}
	return err
}

// Fund creates the user's wallet if needed and credits amount to it.
// A zero amount just ensures the wallet exists (with the default funding).
func (l *Ledger) Fund(ctx context.Context, userID string, amount Money) (*Wallet, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user is missing", ErrInvalidInput)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: funding amount must not be negative", ErrInvalidInput)
	}

	unlock := l.locks.lock(userID)
	defer unlock()

	var wallet *Wallet
	err := l.store.execTx(ctx, func(tx *sql.Tx) error {
		if err := l.ensureWallet(ctx, tx, userID); err != nil {
			return err
		}
		w, err := l.store.wallet(ctx, tx, userID)
		if err != nil {
			return err
		}
		if amount.IsPositive() {
			w.Balance = w.Balance.Add(amount)
			if err := l.store.updateBalance(ctx, tx, userID, w.Balance, l.now()); err != nil {
				return err
			}
		}
		wallet = w
		return nil
	})
	return wallet, err
}

// CancelOrder cancels one of the user's PENDING orders. Cancellation is
// terminal and touches neither wallet nor holdings.
func (l *Ledger) CancelOrder(ctx context.Context, userID, orderID string) error {
	unlock := l.locks.lock(userID)
	defer unlock()

	err := l.store.execTx(ctx, func(tx *sql.Tx) error {
		return l.store.markCancelled(ctx, tx, userID, orderID)
	})
	if err == nil {
		l.log.Info("order cancelled",
			zap.String("order", orderID),
			zap.String("user", userID))
	}
	return err
}

// GetOrder returns one order of the user.
func (l *Ledger) GetOrder(ctx context.Context, userID, orderID string) (*Order, error) {
	return l.store.order(ctx, l.store.db, userID, orderID)
}

// ListOrders returns the user's order log, most recent first, reflecting
// the latest committed state including matcher-driven fills.
func (l *Ledger) ListOrders(ctx context.Context, userID string) ([]Order, error) {
	return l.store.orders(ctx, l.store.db, userID)
}

// ListHoldings returns the user's open positions.
func (l *Ledger) ListHoldings(ctx context.Context, userID string) ([]Holding, error) {
	return l.store.holdings(ctx, l.store.db, userID)
}

// GetWallet returns the user's wallet.
func (l *Ledger) GetWallet(ctx context.Context, userID string) (*Wallet, error) {
	return l.store.wallet(ctx, l.store.db, userID)
}
