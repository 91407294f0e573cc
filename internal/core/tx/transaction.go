package tx

import (
	"errors"
	"fmt"

	"github.com/trueeth/cw20-reflection/internal/types"
)

// Validation errors. The engine maps these to tem result codes in preflight.
var (
	ErrBadAddress   = errors.New("invalid address")
	ErrBadAmount    = errors.New("invalid amount")
	ErrBadRates     = errors.New("invalid tax rates")
	ErrBadCaps      = errors.New("invalid anti-whale caps")
	ErrSelfTransfer = errors.New("recipient may not be the sender")
)

// Message is the interface all ledger messages implement.
type Message interface {
	// MsgType returns the wire name of the message ("transfer", "mint", ...).
	MsgType() string

	// GetCommon returns the common message fields.
	GetCommon() *Common

	// Validate performs stateless validation of the message fields.
	Validate() error
}

// Appliable is implemented by messages that apply themselves to staged
// ledger state. Every message type implements it; the interface keeps the
// engine free of a central type switch.
type Appliable interface {
	Apply(ctx *ApplyContext) Result
}

// Common contains fields shared by all message types.
type Common struct {
	// Sender is the address the message acts on behalf of.
	Sender string `json:"sender"`
}

// Validate checks the common fields.
func (c *Common) Validate() error {
	if err := types.ValidateAddress(c.Sender); err != nil {
		return fmt.Errorf("%w: sender: %v", ErrBadAddress, err)
	}
	return nil
}

// GetCommon returns the common fields.
func (c *Common) GetCommon() *Common {
	return c
}

// validateRecipient checks a recipient address and rejects self-sends.
func validateRecipient(sender, recipient string) error {
	if err := types.ValidateAddress(recipient); err != nil {
		return fmt.Errorf("%w: recipient: %v", ErrBadAddress, err)
	}
	if recipient == sender {
		return ErrSelfTransfer
	}
	return nil
}
