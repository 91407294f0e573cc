package tx

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/trueeth/cw20-reflection/internal/core/token"
	"github.com/trueeth/cw20-reflection/internal/types"
)

// Transfer moves tokens from the sender to a recipient, subject to tax and
// anti-whale policy.
type Transfer struct {
	Common
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount,string"`
}

// MsgType returns the wire name of the message.
func (m *Transfer) MsgType() string { return TypeTransfer }

// Validate performs stateless validation.
func (m *Transfer) Validate() error {
	return validateRecipient(m.Sender, m.Recipient)
}

// Apply executes the transfer.
func (m *Transfer) Apply(ctx *ApplyContext) Result {
	return applyTransfer(ctx, TypeTransfer, ctx.Sender, types.Address(m.Recipient), m.Amount, nil)
}

// Send is a transfer that carries an opaque payload for the recipient. The
// payload is delivered through the transfer event; this node does not
// execute recipient code.
type Send struct {
	Common
	Recipient string          `json:"recipient"`
	Amount    uint64          `json:"amount,string"`
	Msg       json.RawMessage `json:"msg,omitempty"`
}

// MsgType returns the wire name of the message.
func (m *Send) MsgType() string { return TypeSend }

// Validate performs stateless validation.
func (m *Send) Validate() error {
	return validateRecipient(m.Sender, m.Recipient)
}

// Apply executes the transfer and attaches the payload to the event.
func (m *Send) Apply(ctx *ApplyContext) Result {
	return applyTransfer(ctx, TypeSend, ctx.Sender, types.Address(m.Recipient), m.Amount, m.Msg)
}

// TransferFrom moves tokens from an owner to a recipient, spending the
// sender's allowance. The owner pays the tax the same way a direct transfer
// would.
type TransferFrom struct {
	Common
	Owner     string `json:"owner"`
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount,string"`
}

// MsgType returns the wire name of the message.
func (m *TransferFrom) MsgType() string { return TypeTransferFrom }

// Validate performs stateless validation.
func (m *TransferFrom) Validate() error {
	if err := types.ValidateAddress(m.Owner); err != nil {
		return fmt.Errorf("%w: owner: %v", ErrBadAddress, err)
	}
	return validateRecipient(m.Owner, m.Recipient)
}

// Apply spends the allowance, then executes the transfer as the owner.
func (m *TransferFrom) Apply(ctx *ApplyContext) Result {
	if result := spendAllowance(ctx, types.Address(m.Owner), ctx.Sender, m.Amount); !result.IsSuccess() {
		return result
	}
	return applyTransfer(ctx, TypeTransferFrom, types.Address(m.Owner), types.Address(m.Recipient), m.Amount, nil)
}

// SendFrom is TransferFrom with an opaque payload for the recipient.
type SendFrom struct {
	Common
	Owner     string          `json:"owner"`
	Recipient string          `json:"recipient"`
	Amount    uint64          `json:"amount,string"`
	Msg       json.RawMessage `json:"msg,omitempty"`
}

// MsgType returns the wire name of the message.
func (m *SendFrom) MsgType() string { return TypeSendFrom }

// Validate performs stateless validation.
func (m *SendFrom) Validate() error {
	if err := types.ValidateAddress(m.Owner); err != nil {
		return fmt.Errorf("%w: owner: %v", ErrBadAddress, err)
	}
	return validateRecipient(m.Owner, m.Recipient)
}

// Apply spends the allowance, then executes the transfer as the owner.
func (m *SendFrom) Apply(ctx *ApplyContext) Result {
	if result := spendAllowance(ctx, types.Address(m.Owner), ctx.Sender, m.Amount); !result.IsSuccess() {
		return result
	}
	return applyTransfer(ctx, TypeSendFrom, types.Address(m.Owner), types.Address(m.Recipient), m.Amount, m.Msg)
}

// spendAllowance consumes amount from the allowance owner has granted
// spender.
func spendAllowance(ctx *ApplyContext, owner, spender types.Address, amount uint64) Result {
	if amount == 0 {
		return TesSUCCESS
	}
	allowance, err := token.ReadAllowance(ctx.View, owner, spender)
	if err != nil {
		return TecINTERNAL
	}
	if allowance.Amount < amount {
		return TecINSUFFICIENT_ALLOWANCE
	}
	allowance.Amount -= amount
	if err := token.WriteAllowance(ctx.View, owner, spender, allowance); err != nil {
		return TecINTERNAL
	}
	return TesSUCCESS
}

// applyTransfer is the taxed-transfer core shared by all transfer variants.
// Steps: exemption lookup, tax split, anti-whale check against the
// pre-transfer state, then debit, net credit, treasury forward, burn and
// reflection. All state goes through the staging table, so a failure at any
// step leaves the ledger untouched.
func applyTransfer(ctx *ApplyContext, eventType string, from, to types.Address, amount uint64, payload json.RawMessage) Result {
	policy := token.NewTaxPolicy(ctx.View)
	exempt, err := policy.Exempt(from, to)
	if err != nil {
		return TecINTERNAL
	}
	split, err := policy.Split(amount, exempt)
	if err != nil {
		return resultFromLedger(err)
	}

	guard := token.NewAntiWhaleGuard(ctx.View)
	if err := guard.CheckTransfer(to, amount, split.Net, exempt); err != nil {
		return resultFromLedger(err)
	}

	if amount > 0 {
		ledger := token.NewReflectionLedger(ctx.View)
		if err := ledger.Debit(from, amount); err != nil {
			return resultFromLedger(err)
		}
		if err := ledger.Credit(to, split.Net); err != nil {
			return resultFromLedger(err)
		}
		if split.Treasury > 0 {
			if err := ctx.Treasury.Deposit(ledger, split.Treasury); err != nil {
				return TecTREASURY_FORWARD
			}
		}
		if err := ledger.Burn(split.Burn); err != nil {
			return resultFromLedger(err)
		}
		if err := ledger.Reflect(split.Reflect); err != nil {
			return resultFromLedger(err)
		}
	}

	ctx.Metadata.Split = &split

	attrs := []Attribute{
		Attr("from", string(from)),
		Attr("to", string(to)),
		Attr("amount", strconv.FormatUint(split.Gross, 10)),
		Attr("net", strconv.FormatUint(split.Net, 10)),
		Attr("burn", strconv.FormatUint(split.Burn, 10)),
		Attr("reflect", strconv.FormatUint(split.Reflect, 10)),
		Attr("treasury", strconv.FormatUint(split.Treasury, 10)),
	}
	if len(payload) > 0 {
		attrs = append(attrs, Attr("msg", string(payload)))
	}
	ctx.Emit(NewEvent(eventType, attrs...))

	return TesSUCCESS
}
