package token

import "errors"

var (
	// ErrInsufficientBalance indicates a debit larger than the account holds.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientAllowance indicates a spend exceeding the granted allowance.
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// ErrWhaleLimit indicates a transfer violating the anti-whale caps.
	ErrWhaleLimit = errors.New("whale limit exceeded")

	// ErrArithmetic indicates integer overflow, underflow, or a degenerate
	// reflected state (zero divisor). Always fatal to the transaction.
	ErrArithmetic = errors.New("arithmetic error")

	// ErrInvalidConfig indicates malformed tax or anti-whale configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoTokenInfo indicates the singleton token info entry is missing.
	ErrNoTokenInfo = errors.New("token info not initialized")
)
