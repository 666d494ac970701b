package paperledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store is the durable ledger state: one wallet per user, one holding per
// (user, symbol) while the position is open, and an append-only order log.
// The store is owned exclusively by the Ledger; nothing else mutates it.
type Store struct {
	db  *sql.DB
	cur string
}

const schema = `
CREATE TABLE IF NOT EXISTS wallets (
    user_id    TEXT PRIMARY KEY,
    balance    TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS holdings (
    user_id       TEXT NOT NULL,
    symbol        TEXT NOT NULL,
    quantity      INTEGER NOT NULL CHECK (quantity > 0),
    average_price TEXT NOT NULL,
    updated_at    DATETIME NOT NULL,
    PRIMARY KEY (user_id, symbol)
);

CREATE TABLE IF NOT EXISTS orders (
    id              TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL,
    symbol          TEXT NOT NULL,
    side            TEXT NOT NULL,
    order_type      TEXT NOT NULL,
    quantity        INTEGER NOT NULL,
    limit_price     TEXT,
    execution_price TEXT,
    total_value     TEXT,
    status          TEXT NOT NULL,
    price_source    TEXT,
    realized_pnl    TEXT,
    created_at      DATETIME NOT NULL,
    filled_at       DATETIME
);

CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
`

// OpenStore opens (creating if needed) the ledger database at path.
// Use ":memory:" for an ephemeral store. currency is the ledger currency
// all persisted amounts are denominated in.
func OpenStore(path, currency string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger db %q: %w", path, err)
	}
	// sqlite allows a single writer; funneling every connection through
	// one avoids SQLITE_BUSY and keeps :memory: stores coherent.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing ledger schema: %w", err)
	}
	return &Store{db: db, cur: currency}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Currency returns the ledger currency.
func (s *Store) Currency() string { return s.cur }

// execTx runs fn inside a transaction, committing on success and rolling
// back on any error. This is the single atomicity boundary of the ledger:
// wallet, holding and order mutations of one execution all go through the
// same transaction.
func (s *Store) execTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning ledger tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (after: %w)", rbErr, err)
		}
		return err
	}
	return tx.Commit()
}

// querier is satisfied by both *sql.DB and *sql.Tx so row helpers can be
// used inside and outside transactions.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// --- wallets ---

func (s *Store) wallet(ctx context.Context, q querier, userID string) (*Wallet, error) {
	var w Wallet
	var balance string
	err := q.QueryRowContext(ctx,
		`SELECT user_id, balance, created_at, updated_at FROM wallets WHERE user_id = ?`,
		userID,
	).Scan(&w.UserID, &balance, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %q", ErrWalletNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("reading wallet of %q: %w", userID, err)
	}
	if w.Balance, err = ParseMoney(balance, s.cur); err != nil {
		return nil, fmt.Errorf("corrupt wallet balance for %q: %w", userID, err)
	}
	return &w, nil
}

func (s *Store) createWallet(ctx context.Context, q querier, userID string, funding Money, now time.Time) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO wallets (user_id, balance, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		userID, funding.Amount(), now, now)
	if err != nil {
		return fmt.Errorf("creating wallet for %q: %w", userID, err)
	}
	return nil
}

func (s *Store) updateBalance(ctx context.Context, q querier, userID string, balance Money, now time.Time) error {
	res, err := q.ExecContext(ctx,
		`UPDATE wallets SET balance = ?, updated_at = ? WHERE user_id = ?`,
		balance.Amount(), now, userID)
	if err != nil {
		return fmt.Errorf("updating wallet of %q: %w", userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: user %q", ErrWalletNotFound, userID)
	}
	return nil
}

// --- holdings ---

func (s *Store) holding(ctx context.Context, q querier, userID, symbol string) (*Holding, error) {
	var h Holding
	var qty int64
	var avg string
	err := q.QueryRowContext(ctx,
		`SELECT user_id, symbol, quantity, average_price, updated_at
		   FROM holdings WHERE user_id = ? AND symbol = ?`,
		userID, symbol,
	).Scan(&h.UserID, &h.Symbol, &qty, &avg, &h.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // no position is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("reading holding %q of %q: %w", symbol, userID, err)
	}
	h.Quantity = Q(qty)
	if h.AveragePrice, err = ParseMoney(avg, s.cur); err != nil {
		return nil, fmt.Errorf("corrupt average price for %q/%q: %w", userID, symbol, err)
	}
	return &h, nil
}

func (s *Store) holdings(ctx context.Context, q querier, userID string) ([]Holding, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT user_id, symbol, quantity, average_price, updated_at
		   FROM holdings WHERE user_id = ? ORDER BY symbol`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("listing holdings of %q: %w", userID, err)
	}
	defer rows.Close()

	out := make([]Holding, 0)
	for rows.Next() {
		var h Holding
		var qty int64
		var avg string
		if err := rows.Scan(&h.UserID, &h.Symbol, &qty, &avg, &h.UpdatedAt); err != nil {
			return nil, err
		}
		h.Quantity = Q(qty)
		if h.AveragePrice, err = ParseMoney(avg, s.cur); err != nil {
			return nil, fmt.Errorf("corrupt average price for %q/%q: %w", userID, h.Symbol, err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// upsertHolding writes the position. A zero quantity deletes the row: a
// holding with quantity 0 must not exist.
func (s *Store) upsertHolding(ctx context.Context, q querier, h *Holding, now time.Time) error {
	if h.Quantity.IsZero() {
		_, err := q.ExecContext(ctx,
			`DELETE FROM holdings WHERE user_id = ? AND symbol = ?`, h.UserID, h.Symbol)
		if err != nil {
			return fmt.Errorf("removing holding %q of %q: %w", h.Symbol, h.UserID, err)
		}
		return nil
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO holdings (user_id, symbol, quantity, average_price, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, symbol)
		 DO UPDATE SET quantity = excluded.quantity,
		               average_price = excluded.average_price,
		               updated_at = excluded.updated_at`,
		h.UserID, h.Symbol, h.Quantity.Int64(), h.AveragePrice.Amount(), now)
	if err != nil {
		return fmt.Errorf("writing holding %q of %q: %w", h.Symbol, h.UserID, err)
	}
	return nil
}

// --- orders ---

func (s *Store) insertOrder(ctx context.Context, q querier, o *Order) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, symbol, side, order_type, quantity,
		                     limit_price, execution_price, total_value,
		                     status, price_source, realized_pnl, created_at, filled_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.UserID, o.Symbol, string(o.Side), string(o.Type), o.Quantity.Int64(),
		nullAmount(o.LimitPrice), nullAmount(o.ExecutionPrice), nullAmount(o.TotalValue),
		string(o.Status), nullString(string(o.PriceSource)), nullPnL(o), o.CreatedAt, nullTime(o.FilledAt))
	if err != nil {
		return fmt.Errorf("appending order %s: %w", o.ID, err)
	}
	return nil
}

// markFilled transitions a PENDING order to FILLED with its execution
// outcome. The guard on status makes the transition safe to race.
func (s *Store) markFilled(ctx context.Context, q querier, o *Order) error {
	res, err := q.ExecContext(ctx,
		`UPDATE orders
		    SET status = ?, execution_price = ?, total_value = ?,
		        price_source = ?, realized_pnl = ?, filled_at = ?
		  WHERE id = ? AND status = ?`,
		string(StatusFilled), nullAmount(o.ExecutionPrice), nullAmount(o.TotalValue),
		nullString(string(o.PriceSource)), nullPnL(o), nullTime(o.FilledAt),
		o.ID, string(StatusPending))
	if err != nil {
		return fmt.Errorf("filling order %s: %w", o.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: order %s", ErrNotPending, o.ID)
	}
	return nil
}

func (s *Store) markCancelled(ctx context.Context, q querier, userID, orderID string) error {
	res, err := q.ExecContext(ctx,
		`UPDATE orders SET status = ? WHERE id = ? AND user_id = ? AND status = ?`,
		string(StatusCancelled), orderID, userID, string(StatusPending))
	if err != nil {
		return fmt.Errorf("cancelling order %s: %w", orderID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// distinguish unknown order from non-cancellable state
		var status string
		err := q.QueryRowContext(ctx,
			`SELECT status FROM orders WHERE id = ? AND user_id = ?`, orderID, userID,
		).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		if err != nil {
			return fmt.Errorf("checking order %s: %w", orderID, err)
		}
		return fmt.Errorf("%w: order %s is %s", ErrNotCancellable, orderID, status)
	}
	return nil
}

const orderColumns = `id, user_id, symbol, side, order_type, quantity,
       limit_price, execution_price, total_value,
       status, price_source, realized_pnl, created_at, filled_at`

func (s *Store) order(ctx context.Context, q querier, userID, orderID string) (*Order, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ? AND user_id = ?`, orderID, userID)
	o, err := s.scanOrder(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	return o, err
}

// orders returns the user's full order log, most recent first.
func (s *Store) orders(ctx context.Context, q querier, userID string) ([]Order, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders of %q: %w", userID, err)
	}
	defer rows.Close()

	out := make([]Order, 0)
	for rows.Next() {
		o, err := s.scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// pendingUsers returns the ids of every user with at least one PENDING
// order, for the matcher sweep.
func (s *Store) pendingUsers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM orders WHERE status = ? ORDER BY user_id`,
		string(StatusPending))
	if err != nil {
		return nil, fmt.Errorf("listing users with pending orders: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) pendingOrders(ctx context.Context, q querier, userID string) ([]Order, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = ? AND status = ? ORDER BY created_at, id`,
		userID, string(StatusPending))
	if err != nil {
		return nil, fmt.Errorf("listing pending orders of %q: %w", userID, err)
	}
	defer rows.Close()

	out := make([]Order, 0)
	for rows.Next() {
		o, err := s.scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (s *Store) scanOrder(scan func(dest ...any) error) (*Order, error) {
	var o Order
	var side, otype, status string
	var qty int64
	var limitPrice, execPrice, totalValue, priceSource, pnl sql.NullString
	var filledAt sql.NullTime

	err := scan(&o.ID, &o.UserID, &o.Symbol, &side, &otype, &qty,
		&limitPrice, &execPrice, &totalValue,
		&status, &priceSource, &pnl, &o.CreatedAt, &filledAt)
	if err != nil {
		return nil, err
	}

	o.Side = Side(side)
	o.Type = OrderType(otype)
	o.Status = OrderStatus(status)
	o.Quantity = Q(qty)
	if o.LimitPrice, err = s.nullMoney(limitPrice); err != nil {
		return nil, fmt.Errorf("corrupt limit price on order %s: %w", o.ID, err)
	}
	if o.ExecutionPrice, err = s.nullMoney(execPrice); err != nil {
		return nil, fmt.Errorf("corrupt execution price on order %s: %w", o.ID, err)
	}
	if o.TotalValue, err = s.nullMoney(totalValue); err != nil {
		return nil, fmt.Errorf("corrupt total value on order %s: %w", o.ID, err)
	}
	if priceSource.Valid {
		o.PriceSource = PriceSource(priceSource.String)
	}
	if pnl.Valid {
		if o.RealizedPnL, err = ParseMoney(pnl.String, s.cur); err != nil {
			return nil, fmt.Errorf("corrupt realized pnl on order %s: %w", o.ID, err)
		}
		o.HasPnL = true
	}
	if filledAt.Valid {
		o.FilledAt = filledAt.Time
	}
	return &o, nil
}

func (s *Store) nullMoney(ns sql.NullString) (Money, error) {
	if !ns.Valid {
		return Money{}, nil
	}
	return ParseMoney(ns.String, s.cur)
}

func nullAmount(m Money) any {
	if m.cur == "" && m.value.IsZero() {
		return nil
	}
	return m.Amount()
}

func nullPnL(o *Order) any {
	if !o.HasPnL {
		return nil
	}
	return o.RealizedPnL.Amount()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
