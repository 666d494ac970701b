// Package cmd implements the CLI application to manage the paper trading
// ledger.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/vikramn/paperledger"
	"github.com/vikramn/paperledger/quotes"
)

// Commands lists every subcommand of the application. A main package
// registers them all and executes the user-selected one.
var Commands = []subcommands.Command{
	&fundCmd{},
	&buyCmd{},
	&sellCmd{},
	&cancelCmd{},
	&ordersCmd{},
	&holdingsCmd{},
	&walletCmd{},
	&sweepCmd{},
	&topicCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	dbPath     = flag.String("db", "", "Path to the ledger database (defaults to $PLG_DB)")
	quotesPath = flag.String("quotes", "", "Path to the JSON quote snapshot (defaults to $PLG_QUOTES)")
	quotePins  pins
)

func init() {
	flag.Var(&quotePins, "quote", "Pin a price as SYMBOL=PRICE (repeatable); overrides the snapshot")
}

// pins collects repeated -quote flags.
type pins []string

func (p *pins) String() string     { return strings.Join(*p, ",") }
func (p *pins) Set(v string) error { *p = append(*p, v); return nil }

// openLedger builds the ledger from environment configuration and flag
// overrides. The returned close function must be called before exit.
func openLedger() (*paperledger.Ledger, func() error, error) {
	cfg, err := paperledger.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *quotesPath != "" {
		cfg.QuotesPath = *quotesPath
	}

	funding, err := cfg.FundingMoney()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid funding amount: %w", err)
	}

	store, err := paperledger.OpenStore(cfg.DBPath, cfg.Currency)
	if err != nil {
		return nil, nil, err
	}

	oracle, err := buildOracle(cfg)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	ledger := paperledger.NewLedger(store, oracle, funding, logger())
	return ledger, store.Close, nil
}

// buildOracle picks the price source: pinned quotes win over the snapshot
// file; with neither, every symbol reports no quote and only
// client-supplied prices can fill MARKET orders.
func buildOracle(cfg paperledger.Config) (paperledger.PriceOracle, error) {
	if len(quotePins) > 0 {
		prices, err := quotes.ParsePairs(quotePins, cfg.Currency)
		if err != nil {
			return nil, err
		}
		return quotes.NewStatic(prices), nil
	}
	if cfg.QuotesPath != "" {
		return quotes.NewFileSource(cfg.QuotesPath, cfg.Currency), nil
	}
	return quotes.NewStatic(nil), nil
}

// logger returns a structured logger for the ledger engine. The CLI keeps
// it quiet unless PLG_DEBUG is set.
func logger() *zap.Logger {
	if os.Getenv("PLG_DEBUG") == "" {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// printMarkdown renders markdown to the terminal.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		// fall back to the raw markdown
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}
