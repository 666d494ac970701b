package quotes

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vikramn/paperledger"
)

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quotes.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing snapshot: %v", err)
	}
	return path
}

func TestFileSource_Price(t *testing.T) {
	path := writeSnapshot(t, `{
		"quotes": {
			"RELIANCE": {"last": 1385.5, "open": 1370},
			"TCS":      {"last": "3120.75"},
			"JUNK":     {"last": 0},
			"WORSE":    {"last": -12},
			"WEIRD":    {"last": {"nested": true}}
		}
	}`)
	src := NewFileSource(path, "INR")
	ctx := context.Background()

	price, err := src.Price(ctx, "RELIANCE")
	if err != nil {
		t.Fatalf("Price(RELIANCE) error = %v", err)
	}
	if !price.Equal(paperledger.M(1385.5, "INR")) {
		t.Errorf("Price(RELIANCE) = %s, want 1385.5", price.Amount())
	}

	// string-typed prices are accepted
	price, err = src.Price(ctx, "TCS")
	if err != nil {
		t.Fatalf("Price(TCS) error = %v", err)
	}
	if price.Amount() != "3120.75" {
		t.Errorf("Price(TCS) = %s, want 3120.75", price.Amount())
	}

	// a missing symbol is ErrNoQuote: the caller may fall back
	if _, err := src.Price(ctx, "UNLISTED"); !errors.Is(err, paperledger.ErrNoQuote) {
		t.Errorf("Price(UNLISTED) error = %v, want ErrNoQuote", err)
	}

	// garbage entries are hard errors, never fallback triggers
	for _, sym := range []string{"JUNK", "WORSE", "WEIRD"} {
		_, err := src.Price(ctx, sym)
		if err == nil {
			t.Errorf("Price(%s) accepted a garbage quote", sym)
		}
		if errors.Is(err, paperledger.ErrNoQuote) {
			t.Errorf("Price(%s) error = %v, must not be ErrNoQuote", sym, err)
		}
	}
}

func TestFileSource_RereadsSnapshot(t *testing.T) {
	path := writeSnapshot(t, `{"quotes": {"TCS": {"last": 100}}}`)
	src := NewFileSource(path, "INR")
	ctx := context.Background()

	price, err := src.Price(ctx, "TCS")
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	if !price.Equal(paperledger.M(100, "INR")) {
		t.Fatalf("Price() = %s, want 100", price.Amount())
	}

	// an external refresher overwrote the file
	if err := os.WriteFile(path, []byte(`{"quotes": {"TCS": {"last": 95}}}`), 0644); err != nil {
		t.Fatalf("rewriting snapshot: %v", err)
	}
	price, err = src.Price(ctx, "TCS")
	if err != nil {
		t.Fatalf("Price() after refresh error = %v", err)
	}
	if !price.Equal(paperledger.M(95, "INR")) {
		t.Errorf("Price() after refresh = %s, want 95", price.Amount())
	}
}

func TestFileSource_Errors(t *testing.T) {
	ctx := context.Background()

	// a missing file is a transport error, not ErrNoQuote
	src := NewFileSource(filepath.Join(t.TempDir(), "absent.json"), "INR")
	if _, err := src.Price(ctx, "TCS"); err == nil || errors.Is(err, paperledger.ErrNoQuote) {
		t.Errorf("missing file error = %v, want a non-ErrNoQuote failure", err)
	}

	// so is an unparsable snapshot
	src = NewFileSource(writeSnapshot(t, `{broken`), "INR")
	if _, err := src.Price(ctx, "TCS"); err == nil || errors.Is(err, paperledger.ErrNoQuote) {
		t.Errorf("broken snapshot error = %v, want a non-ErrNoQuote failure", err)
	}
}

func TestFileSource_CustomExpr(t *testing.T) {
	path := writeSnapshot(t, `{"data": {"INFY": 1550.25}}`)
	src := &FileSource{Path: path, Currency: "INR", Expr: `$["data"]["%s"]`}

	price, err := src.Price(context.Background(), "INFY")
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	if price.Amount() != "1550.25" {
		t.Errorf("Price() = %s, want 1550.25", price.Amount())
	}
}

func TestStatic(t *testing.T) {
	ctx := context.Background()
	src := NewStatic(map[string]paperledger.Money{
		"TCS": paperledger.M(100, "INR"),
	})

	price, err := src.Price(ctx, "TCS")
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	if !price.Equal(paperledger.M(100, "INR")) {
		t.Errorf("Price() = %s, want 100", price.Amount())
	}

	if _, err := src.Price(ctx, "INFY"); !errors.Is(err, paperledger.ErrNoQuote) {
		t.Errorf("error = %v, want ErrNoQuote", err)
	}

	src.Set("TCS", paperledger.M(110, "INR"))
	price, _ = src.Price(ctx, "TCS")
	if !price.Equal(paperledger.M(110, "INR")) {
		t.Errorf("Price() after Set = %s, want 110", price.Amount())
	}
}

func TestParsePairs(t *testing.T) {
	prices, err := ParsePairs([]string{"RELIANCE=1385.5", "TCS=3120"}, "INR")
	if err != nil {
		t.Fatalf("ParsePairs() error = %v", err)
	}
	if len(prices) != 2 {
		t.Fatalf("got %d prices, want 2", len(prices))
	}
	if !prices["RELIANCE"].Equal(paperledger.M(1385.5, "INR")) {
		t.Errorf("RELIANCE = %s, want 1385.5", prices["RELIANCE"].Amount())
	}

	for _, bad := range []string{"RELIANCE", "=100", "TCS=", "TCS=zero", "TCS=-5", "TCS=0"} {
		if _, err := ParsePairs([]string{bad}, "INR"); err == nil {
			t.Errorf("ParsePairs(%q) accepted an invalid pair", bad)
		}
	}
}
