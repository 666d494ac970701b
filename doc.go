// Package paperledger implements a virtual trading ledger: a paper-trading
// simulator that executes buy and sell orders against real market prices
// while keeping every rupee purely virtual.
//
// The core functionalities include:
//   - Wallets: a virtual cash balance per user, created with a default
//     funding amount on first use, that can never go negative.
//   - Holdings: one open position per (user, symbol) carrying a
//     weighted-average cost basis, recomputed on every buy and left
//     untouched by sells.
//   - Order Log: an append-only record of every trade attempt and its
//     outcome, including rejections, so the full history stays auditable.
//   - Execution: MARKET orders fill at a price resolved through a
//     pluggable oracle; LIMIT orders fill at their limit price when
//     marketable, and otherwise rest as PENDING.
//   - Matching: a sweep re-evaluates resting orders against fresh prices
//     and fills the eligible ones through the same atomic commit path as
//     immediate executions.
//
// All monetary arithmetic is exact decimal arithmetic, and every mutation
// of a user's state commits atomically under a per-user lock, so balances,
// positions and realized gains always reconcile.
//
// This package serves as the foundational logic for the `ptb` command-line
// tool.
package paperledger
