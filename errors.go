package paperledger

import "errors"

// Domain errors returned by the ledger. They are sentinel values so callers
// can match them with errors.Is even when wrapped with request context.
var (
	// ErrInvalidInput marks a malformed request (non-positive quantity,
	// missing symbol, bad limit price). No order record is created.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientFunds marks a BUY whose cost exceeds the wallet
	// balance at commit time. The order is recorded as REJECTED.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientPosition marks a SELL for more units than currently
	// held. The order is recorded as REJECTED.
	ErrInsufficientPosition = errors.New("insufficient position")

	// ErrPriceUnavailable marks a MARKET order for which neither the
	// oracle nor the client supplied a usable price.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrOrderNotFound is returned when an order id does not exist for
	// the acting user.
	ErrOrderNotFound = errors.New("order not found")

	// ErrNotCancellable is returned when cancelling an order that is not
	// in the PENDING state.
	ErrNotCancellable = errors.New("order is not cancellable")

	// ErrNotPending marks a state transition attempted on an order that
	// has already left the PENDING state, for instance a sweep fill racing
	// a cancellation.
	ErrNotPending = errors.New("order is not pending")

	// ErrWalletNotFound is returned by reads for a user that was never
	// funded.
	ErrWalletNotFound = errors.New("wallet not found")
)
