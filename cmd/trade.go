package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/vikramn/paperledger"
)

// --- Fund Command ---

type fundCmd struct {
	user   string
	amount float64
}

func (*fundCmd) Name() string     { return "fund" }
func (*fundCmd) Synopsis() string { return "create the user's wallet and optionally top it up" }
func (*fundCmd) Usage() string {
	return `ptb fund -u <user> [-a <amount>]

  Creates the wallet with the default funding amount on first use, and
  credits an optional extra amount to it.
`
}

func (c *fundCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "u", "", "User id")
	f.Float64Var(&c.amount, "a", 0, "Extra amount to credit")
}

func (c *fundCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" || c.amount < 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	ledger, closeStore, err := openLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer closeStore()

	wallet, err := ledger.Fund(ctx, c.user, paperledger.M(c.amount, ledger.Currency()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error funding wallet: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Wallet of %s: %s\n", wallet.UserID, wallet.Balance)
	return subcommands.ExitSuccess
}

// --- Buy Command ---

type buyCmd struct {
	user     string
	symbol   string
	quantity int64
	limit    float64
	price    float64
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "purchase units to open or add to a position" }
func (*buyCmd) Usage() string {
	return `ptb buy -u <user> -s <symbol> -q <quantity> [-l <limit_price>] [-p <price>]

  Places a BUY order. Without -l it is a MARKET order executed at the
  oracle price (-p is only a fallback when no quote exists). With -l it
  is a LIMIT order that fills at the limit price when marketable, and
  rests as PENDING otherwise.
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "u", "", "User id")
	f.StringVar(&c.symbol, "s", "", "Instrument symbol")
	f.Int64Var(&c.quantity, "q", 0, "Number of units")
	f.Float64Var(&c.limit, "l", 0, "Limit price (makes this a LIMIT order)")
	f.Float64Var(&c.price, "p", 0, "Client price, used only when the oracle has no quote")
}

func (c *buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return placeOrder(ctx, f, paperledger.Buy, c.user, c.symbol, c.quantity, c.limit, c.price)
}

// --- Sell Command ---

type sellCmd struct {
	user     string
	symbol   string
	quantity int64
	limit    float64
	price    float64
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell units to trim or close a position" }
func (*sellCmd) Usage() string {
	return `ptb sell -u <user> -s <symbol> -q <quantity> [-l <limit_price>] [-p <price>]

  Places a SELL order. Proceeds are credited to the wallet and realized
  P&L is booked against the position's average cost.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "u", "", "User id")
	f.StringVar(&c.symbol, "s", "", "Instrument symbol")
	f.Int64Var(&c.quantity, "q", 0, "Number of units")
	f.Float64Var(&c.limit, "l", 0, "Limit price (makes this a LIMIT order)")
	f.Float64Var(&c.price, "p", 0, "Client price, used only when the oracle has no quote")
}

func (c *sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return placeOrder(ctx, f, paperledger.Sell, c.user, c.symbol, c.quantity, c.limit, c.price)
}

// placeOrder is the shared execution of the buy and sell commands.
func placeOrder(ctx context.Context, f *flag.FlagSet, side paperledger.Side, user, symbol string, quantity int64, limit, price float64) subcommands.ExitStatus {
	if user == "" || symbol == "" || quantity <= 0 || limit < 0 || price < 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	ledger, closeStore, err := openLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer closeStore()

	req := paperledger.OrderRequest{
		UserID:   user,
		Symbol:   symbol,
		Side:     side,
		Type:     paperledger.Market,
		Quantity: paperledger.Q(quantity),
	}
	if limit > 0 {
		req.Type = paperledger.Limit
		req.LimitPrice = paperledger.M(limit, ledger.Currency())
	}
	if price > 0 {
		req.ClientPrice = paperledger.M(price, ledger.Currency())
	}

	order, err := ledger.PlaceOrder(ctx, req)
	if err != nil {
		if order != nil {
			fmt.Fprintf(os.Stderr, "Order %s REJECTED: %v\n", order.ID, err)
		} else {
			fmt.Fprintf(os.Stderr, "Error placing order: %v\n", err)
		}
		return subcommands.ExitFailure
	}

	switch order.Status {
	case paperledger.StatusFilled:
		fmt.Printf("Order %s FILLED: %s %s %s @ %s (total %s)\n",
			order.ID, order.Side, order.Quantity, order.Symbol,
			order.ExecutionPrice, order.TotalValue)
		if order.HasPnL {
			fmt.Printf("Realized P&L: %s\n", order.RealizedPnL.SignedString())
		}
	case paperledger.StatusPending:
		fmt.Printf("Order %s PENDING: %s %s %s, limit %s\n",
			order.ID, order.Side, order.Quantity, order.Symbol, order.LimitPrice)
	}
	return subcommands.ExitSuccess
}

// --- Cancel Command ---

type cancelCmd struct {
	user  string
	order string
}

func (*cancelCmd) Name() string     { return "cancel" }
func (*cancelCmd) Synopsis() string { return "cancel a pending order" }
func (*cancelCmd) Usage() string {
	return `ptb cancel -u <user> -o <order_id>

  Cancels a PENDING order. Filled, rejected and already cancelled orders
  cannot be cancelled.
`
}

func (c *cancelCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "u", "", "User id")
	f.StringVar(&c.order, "o", "", "Order id")
}

func (c *cancelCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.user == "" || c.order == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	ledger, closeStore, err := openLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer closeStore()

	if err := ledger.CancelOrder(ctx, c.user, c.order); err != nil {
		fmt.Fprintf(os.Stderr, "Error cancelling order: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Order %s CANCELLED\n", c.order)
	return subcommands.ExitSuccess
}
