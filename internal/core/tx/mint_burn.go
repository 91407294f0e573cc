package tx

import (
	"strconv"

	"github.com/trueeth/cw20-reflection/internal/core/token"
	"github.com/trueeth/cw20-reflection/internal/types"
)

// Burn destroys tokens held by the sender. Burns are untaxed.
type Burn struct {
	Common
	Amount uint64 `json:"amount,string"`
}

// MsgType returns the wire name of the message.
func (m *Burn) MsgType() string { return TypeBurn }

// Validate performs stateless validation.
func (m *Burn) Validate() error { return nil }

// Apply executes the burn.
func (m *Burn) Apply(ctx *ApplyContext) Result {
	return applyBurn(ctx, ctx.Sender, m.Amount)
}

// BurnFrom destroys tokens held by an owner, spending the sender's
// allowance.
type BurnFrom struct {
	Common
	Owner  string `json:"owner"`
	Amount uint64 `json:"amount,string"`
}

// MsgType returns the wire name of the message.
func (m *BurnFrom) MsgType() string { return TypeBurnFrom }

// Validate performs stateless validation.
func (m *BurnFrom) Validate() error {
	if err := types.ValidateAddress(m.Owner); err != nil {
		return ErrBadAddress
	}
	return nil
}

// Apply spends the allowance, then burns as the owner.
func (m *BurnFrom) Apply(ctx *ApplyContext) Result {
	if result := spendAllowance(ctx, types.Address(m.Owner), ctx.Sender, m.Amount); !result.IsSuccess() {
		return result
	}
	return applyBurn(ctx, types.Address(m.Owner), m.Amount)
}

func applyBurn(ctx *ApplyContext, from types.Address, amount uint64) Result {
	if amount > 0 {
		ledger := token.NewReflectionLedger(ctx.View)
		if err := ledger.Debit(from, amount); err != nil {
			return resultFromLedger(err)
		}
		if err := ledger.Burn(amount); err != nil {
			return resultFromLedger(err)
		}
	}

	ctx.Emit(NewEvent(TypeBurn,
		Attr("from", string(from)),
		Attr("amount", strconv.FormatUint(amount, 10)),
	))
	return TesSUCCESS
}

// Mint creates new tokens for a recipient. Only the configured minter may
// mint, and only up to the supply cap.
type Mint struct {
	Common
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount,string"`
}

// MsgType returns the wire name of the message.
func (m *Mint) MsgType() string { return TypeMint }

// Validate performs stateless validation.
func (m *Mint) Validate() error {
	if err := types.ValidateAddress(m.Recipient); err != nil {
		return ErrBadAddress
	}
	return nil
}

// Apply executes the mint.
func (m *Mint) Apply(ctx *ApplyContext) Result {
	info, err := token.ReadTokenInfo(ctx.View)
	if err != nil {
		return resultFromLedger(err)
	}
	if info.Minter == "" || info.Minter != string(ctx.Sender) {
		return TecNO_PERMISSION
	}
	if info.Cap > 0 && info.TotalSupply+m.Amount > info.Cap {
		return TecMINT_CAP
	}

	if err := token.NewReflectionLedger(ctx.View).Mint(types.Address(m.Recipient), m.Amount); err != nil {
		return resultFromLedger(err)
	}

	ctx.Emit(NewEvent(TypeMint,
		Attr("to", m.Recipient),
		Attr("amount", strconv.FormatUint(m.Amount, 10)),
	))
	return TesSUCCESS
}
