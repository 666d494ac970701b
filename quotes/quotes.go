// Package quotes provides price-oracle implementations for the ledger.
//
// It does not fetch market data itself: the FileSource reads an
// already-exported JSON quote snapshot (whatever broker or feed produced
// it) and extracts last prices with a jsonpath expression, so the ledger
// stays decoupled from any acquisition pipeline.
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/PaesslerAG/jsonpath"
	"github.com/vikramn/paperledger"
)

// DefaultExpr locates the last price of a symbol in a snapshot shaped like
//
//	{"quotes": {"RELIANCE": {"last": 1385.5}, ...}}
const DefaultExpr = `$["quotes"]["%s"]["last"]`

// FileSource resolves prices from a JSON quote snapshot on disk. The file
// is re-read on every query, so an external refresher may overwrite it at
// any time.
type FileSource struct {
	Path     string
	Currency string
	// Expr is the jsonpath locating the price, with a single %s verb for
	// the symbol. Empty means DefaultExpr.
	Expr string
}

// NewFileSource creates a snapshot-backed price source.
func NewFileSource(path, currency string) *FileSource {
	return &FileSource{Path: path, Currency: currency, Expr: DefaultExpr}
}

// Price implements paperledger.PriceOracle.
func (s *FileSource) Price(_ context.Context, symbol string) (paperledger.Money, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return paperledger.Money{}, fmt.Errorf("reading quote snapshot %q: %w", s.Path, err)
	}

	var jobj any
	if err := json.Unmarshal(data, &jobj); err != nil {
		return paperledger.Money{}, fmt.Errorf("parsing quote snapshot %q: %w", s.Path, err)
	}

	expr := s.Expr
	if expr == "" {
		expr = DefaultExpr
	}
	path := fmt.Sprintf(expr, symbol)
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		// the snapshot simply has no entry for this symbol
		return paperledger.Money{}, fmt.Errorf("%w: %s", paperledger.ErrNoQuote, symbol)
	}
	// because jsonpath is never clear about whether it returns a list of
	// one answer, or a single answer: keep the first one if any
	if jlist, ok := jval.([]any); ok {
		if len(jlist) == 0 {
			return paperledger.Money{}, fmt.Errorf("%w: %s", paperledger.ErrNoQuote, symbol)
		}
		jval = jlist[0]
	}

	price, err := toPrice(jval, s.Currency)
	if err != nil {
		return paperledger.Money{}, fmt.Errorf("quote for %s: %w", symbol, err)
	}
	if !price.IsPositive() {
		// a zero or negative entry is garbage, not a fallback trigger
		return paperledger.Money{}, fmt.Errorf("non-positive quote for %s: %s", symbol, price.Amount())
	}
	return price, nil
}

func toPrice(v any, currency string) (paperledger.Money, error) {
	switch x := v.(type) {
	case float64:
		return paperledger.M(x, currency), nil
	case string:
		return paperledger.ParseMoney(x, currency)
	case json.Number:
		return paperledger.ParseMoney(x.String(), currency)
	default:
		return paperledger.Money{}, fmt.Errorf("unsupported price value %v (%T)", v, v)
	}
}

// Static is an in-memory price source, useful in tests and for seeding a
// simulation from the command line.
type Static struct {
	mu     sync.RWMutex
	prices map[string]paperledger.Money
}

// NewStatic creates a Static source with the given prices.
func NewStatic(prices map[string]paperledger.Money) *Static {
	cp := make(map[string]paperledger.Money, len(prices))
	for k, v := range prices {
		cp[k] = v
	}
	return &Static{prices: cp}
}

// Set updates the price of one symbol.
func (s *Static) Set(symbol string, price paperledger.Money) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[symbol] = price
}

// Price implements paperledger.PriceOracle.
func (s *Static) Price(_ context.Context, symbol string) (paperledger.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prices[symbol]
	if !ok {
		return paperledger.Money{}, fmt.Errorf("%w: %s", paperledger.ErrNoQuote, symbol)
	}
	return p, nil
}

// ParsePairs parses "SYMBOL=PRICE" command-line pairs into a price map.
func ParsePairs(pairs []string, currency string) (map[string]paperledger.Money, error) {
	prices := make(map[string]paperledger.Money, len(pairs))
	for _, pair := range pairs {
		sym, val, ok := strings.Cut(pair, "=")
		if !ok || sym == "" || val == "" {
			return nil, fmt.Errorf("invalid quote %q, want SYMBOL=PRICE", pair)
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 {
			return nil, fmt.Errorf("invalid price in %q", pair)
		}
		prices[sym] = paperledger.M(f, currency)
	}
	return prices, nil
}
