package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/vikramn/paperledger"
)

type sweepCmd struct {
	follow   bool
	interval time.Duration
}

func (*sweepCmd) Name() string     { return "sweep" }
func (*sweepCmd) Synopsis() string { return "re-evaluate pending orders against current prices" }
func (*sweepCmd) Usage() string {
	return `ptb sweep [-f [-i <interval>]]

  Re-evaluates every PENDING order against a freshly resolved price and
  fills the eligible ones at their limit price. With -f, keeps sweeping
  on an interval until interrupted.
`
}

func (c *sweepCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.follow, "f", false, "Keep sweeping on an interval")
	f.DurationVar(&c.interval, "i", 0, "Sweep interval (defaults to $PLG_SWEEP_INTERVAL)")
}

func (c *sweepCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, closeStore, err := openLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer closeStore()

	filled, err := ledger.SweepPending(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sweeping pending orders: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Swept pending orders: %d filled\n", filled)

	if !c.follow {
		return subcommands.ExitSuccess
	}

	interval := c.interval
	if interval <= 0 {
		cfg, err := paperledger.LoadConfig()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		interval = cfg.SweepInterval
	}

	matcher := &paperledger.Matcher{Ledger: ledger, Interval: interval}
	if err := matcher.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Matcher stopped: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
