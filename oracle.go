package paperledger

import (
	"context"
	"errors"
)

// ErrNoQuote is returned by a PriceOracle that has no live price for a
// symbol. It is distinct from a transport or parse failure: only ErrNoQuote
// allows the engine to fall back to a client-asserted price.
var ErrNoQuote = errors.New("no quote for symbol")

// PriceOracle supplies the current tradable price for a symbol.
//
// The ledger consults it for every MARKET execution and for LIMIT
// eligibility checks; a client-supplied price is only ever used when the
// oracle answers ErrNoQuote.
type PriceOracle interface {
	Price(ctx context.Context, symbol string) (Money, error)
}

// QuoteFunc adapts a plain function to the PriceOracle interface.
type QuoteFunc func(ctx context.Context, symbol string) (Money, error)

func (f QuoteFunc) Price(ctx context.Context, symbol string) (Money, error) {
	return f(ctx, symbol)
}
