package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/vikramn/paperledger/renderer"
)

// --- Orders Command ---

type ordersCmd struct {
	user    string
	noSweep bool
}

func (*ordersCmd) Name() string     { return "orders" }
func (*ordersCmd) Synopsis() string { return "list the order log, most recent first" }
func (*ordersCmd) Usage() string {
	return `ptb orders -u <user> [-no-sweep]

  Lists all orders of the user, most recent first. Pending orders are
  re-evaluated against current prices before listing, so matcher-driven
  fills show up; -no-sweep skips that.
`
}

func (c *ordersCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "u", "", "User id")
	f.BoolVar(&c.noSweep, "no-sweep", false, "Do not sweep pending orders before listing")
}

func (c *ordersCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	ledger, closeStore, err := openLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer closeStore()

	if !c.noSweep {
		if _, err := ledger.SweepPending(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: sweep failed: %v\n", err)
		}
	}

	orders, err := ledger.ListOrders(ctx, c.user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing orders: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.Orders(renderer.NewOrdersReport(c.user, orders)))
	return subcommands.ExitSuccess
}

// --- Holdings Command ---

type holdingsCmd struct {
	user string
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "show open positions and cash" }
func (*holdingsCmd) Usage() string {
	return `ptb holdings -u <user>

  Shows the user's open positions with their average cost, plus the
  wallet balance.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "u", "", "User id")
}

func (c *holdingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	ledger, closeStore, err := openLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer closeStore()

	wallet, err := ledger.GetWallet(ctx, c.user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading wallet: %v\n", err)
		return subcommands.ExitFailure
	}
	holdings, err := ledger.ListHoldings(ctx, c.user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing holdings: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.Portfolio(renderer.NewPortfolioReport(c.user, wallet, holdings)))
	return subcommands.ExitSuccess
}

// --- Wallet Command ---

type walletCmd struct {
	user string
}

func (*walletCmd) Name() string     { return "wallet" }
func (*walletCmd) Synopsis() string { return "show the wallet balance" }
func (*walletCmd) Usage() string {
	return `ptb wallet -u <user>

  Shows the user's virtual cash wallet.
`
}

func (c *walletCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "u", "", "User id")
}

func (c *walletCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	ledger, closeStore, err := openLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer closeStore()

	wallet, err := ledger.GetWallet(ctx, c.user)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading wallet: %v\n", err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.Wallet(renderer.NewWalletReport(wallet)))
	return subcommands.ExitSuccess
}
