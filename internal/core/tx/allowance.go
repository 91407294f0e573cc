package tx

import (
	"fmt"
	"strconv"

	"github.com/trueeth/cw20-reflection/internal/core/token"
	"github.com/trueeth/cw20-reflection/internal/types"
)

// IncreaseAllowance raises the spend allowance the sender grants a spender.
type IncreaseAllowance struct {
	Common
	Spender string `json:"spender"`
	Amount  uint64 `json:"amount,string"`
}

// MsgType returns the wire name of the message.
func (m *IncreaseAllowance) MsgType() string { return TypeIncreaseAllowance }

// Validate performs stateless validation.
func (m *IncreaseAllowance) Validate() error {
	return validateSpender(m.Sender, m.Spender)
}

// Apply raises the allowance.
func (m *IncreaseAllowance) Apply(ctx *ApplyContext) Result {
	allowance, err := token.ReadAllowance(ctx.View, ctx.Sender, types.Address(m.Spender))
	if err != nil {
		return TecINTERNAL
	}
	if allowance.Amount+m.Amount < allowance.Amount {
		return TecARITHMETIC
	}
	allowance.Amount += m.Amount
	if err := token.WriteAllowance(ctx.View, ctx.Sender, types.Address(m.Spender), allowance); err != nil {
		return TecINTERNAL
	}

	emitAllowance(ctx, "increase", ctx.Sender, m.Spender, allowance.Amount)
	return TesSUCCESS
}

// DecreaseAllowance lowers the spend allowance the sender grants a spender.
// Lowering past zero clamps to zero and removes the entry.
type DecreaseAllowance struct {
	Common
	Spender string `json:"spender"`
	Amount  uint64 `json:"amount,string"`
}

// MsgType returns the wire name of the message.
func (m *DecreaseAllowance) MsgType() string { return TypeDecreaseAllowance }

// Validate performs stateless validation.
func (m *DecreaseAllowance) Validate() error {
	return validateSpender(m.Sender, m.Spender)
}

// Apply lowers the allowance.
func (m *DecreaseAllowance) Apply(ctx *ApplyContext) Result {
	allowance, err := token.ReadAllowance(ctx.View, ctx.Sender, types.Address(m.Spender))
	if err != nil {
		return TecINTERNAL
	}
	if m.Amount >= allowance.Amount {
		allowance.Amount = 0
	} else {
		allowance.Amount -= m.Amount
	}
	if err := token.WriteAllowance(ctx.View, ctx.Sender, types.Address(m.Spender), allowance); err != nil {
		return TecINTERNAL
	}

	emitAllowance(ctx, "decrease", ctx.Sender, m.Spender, allowance.Amount)
	return TesSUCCESS
}

func validateSpender(sender, spender string) error {
	if err := types.ValidateAddress(spender); err != nil {
		return fmt.Errorf("%w: spender: %v", ErrBadAddress, err)
	}
	if spender == sender {
		return ErrSelfTransfer
	}
	return nil
}

func emitAllowance(ctx *ApplyContext, action string, owner types.Address, spender string, remaining uint64) {
	ctx.Emit(NewEvent("allowance",
		Attr("action", action),
		Attr("owner", string(owner)),
		Attr("spender", spender),
		Attr("allowance", strconv.FormatUint(remaining, 10)),
	))
}
