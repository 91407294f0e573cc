package tx

import (
	"fmt"
	"strconv"

	"github.com/trueeth/cw20-reflection/internal/core/token"
	"github.com/trueeth/cw20-reflection/internal/types"
)

// requireAdmin checks that the sender is the configured admin. With no
// admin configured (renounced), every admin message is refused.
func requireAdmin(ctx *ApplyContext) Result {
	cfg, err := token.ReadContractConfig(ctx.View)
	if err != nil {
		return TecINTERNAL
	}
	if cfg.Admin == "" || cfg.Admin != string(ctx.Sender) {
		return TecNO_PERMISSION
	}
	return TesSUCCESS
}

// SetTaxRates replaces the tax split configuration. Admin only.
type SetTaxRates struct {
	Common
	BurnBps     uint32 `json:"burn_bps"`
	ReflectBps  uint32 `json:"reflect_bps"`
	TreasuryBps uint32 `json:"treasury_bps"`
}

// MsgType returns the wire name of the message.
func (m *SetTaxRates) MsgType() string { return TypeSetTaxRates }

// Validate performs stateless validation.
func (m *SetTaxRates) Validate() error {
	if err := token.ValidateRates(m.BurnBps, m.ReflectBps, m.TreasuryBps); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRates, err)
	}
	return nil
}

// Apply replaces the tax configuration. A nonzero treasury rate requires a
// configured treasury address.
func (m *SetTaxRates) Apply(ctx *ApplyContext) Result {
	if result := requireAdmin(ctx); !result.IsSuccess() {
		return result
	}
	if m.TreasuryBps > 0 {
		cfg, err := token.ReadContractConfig(ctx.View)
		if err != nil {
			return TecINTERNAL
		}
		if cfg.Treasury == "" {
			return TecNO_TREASURY
		}
	}
	if err := token.WriteTaxConfig(ctx.View, &token.TaxConfigEntry{
		BurnBps:     m.BurnBps,
		ReflectBps:  m.ReflectBps,
		TreasuryBps: m.TreasuryBps,
	}); err != nil {
		return TecINTERNAL
	}

	ctx.Emit(NewEvent(TypeSetTaxRates,
		Attr("burn_bps", strconv.FormatUint(uint64(m.BurnBps), 10)),
		Attr("reflect_bps", strconv.FormatUint(uint64(m.ReflectBps), 10)),
		Attr("treasury_bps", strconv.FormatUint(uint64(m.TreasuryBps), 10)),
	))
	return TesSUCCESS
}

// SetAntiWhale replaces the anti-whale caps. Admin only.
type SetAntiWhale struct {
	Common
	MaxTxBps     uint32 `json:"max_tx_bps"`
	MaxWalletBps uint32 `json:"max_wallet_bps"`
}

// MsgType returns the wire name of the message.
func (m *SetAntiWhale) MsgType() string { return TypeSetAntiWhale }

// Validate performs stateless validation.
func (m *SetAntiWhale) Validate() error {
	if err := token.ValidateCaps(m.MaxTxBps, m.MaxWalletBps); err != nil {
		return fmt.Errorf("%w: %v", ErrBadCaps, err)
	}
	return nil
}

// Apply replaces the anti-whale configuration.
func (m *SetAntiWhale) Apply(ctx *ApplyContext) Result {
	if result := requireAdmin(ctx); !result.IsSuccess() {
		return result
	}
	if err := token.WriteAntiWhale(ctx.View, &token.AntiWhaleEntry{
		MaxTxBps:     m.MaxTxBps,
		MaxWalletBps: m.MaxWalletBps,
	}); err != nil {
		return TecINTERNAL
	}

	ctx.Emit(NewEvent(TypeSetAntiWhale,
		Attr("max_tx_bps", strconv.FormatUint(uint64(m.MaxTxBps), 10)),
		Attr("max_wallet_bps", strconv.FormatUint(uint64(m.MaxWalletBps), 10)),
	))
	return TesSUCCESS
}

// SetExempt sets the tax exemption flag for an account. Admin only.
type SetExempt struct {
	Common
	Account string `json:"account"`
	Exempt  bool   `json:"exempt"`
}

// MsgType returns the wire name of the message.
func (m *SetExempt) MsgType() string { return TypeSetExempt }

// Validate performs stateless validation.
func (m *SetExempt) Validate() error {
	if err := types.ValidateAddress(m.Account); err != nil {
		return ErrBadAddress
	}
	return nil
}

// Apply sets the exemption flag.
func (m *SetExempt) Apply(ctx *ApplyContext) Result {
	if result := requireAdmin(ctx); !result.IsSuccess() {
		return result
	}
	registry := token.NewExemptionRegistry(ctx.View)
	if err := registry.SetTaxExempt(types.Address(m.Account), m.Exempt); err != nil {
		return TecINTERNAL
	}

	ctx.Emit(NewEvent(TypeSetExempt,
		Attr("account", m.Account),
		Attr("exempt", strconv.FormatBool(m.Exempt)),
	))
	return TesSUCCESS
}

// SetExcluded switches an account between reflected and excluded balance
// representation. Admin only.
type SetExcluded struct {
	Common
	Account  string `json:"account"`
	Excluded bool   `json:"excluded"`
}

// MsgType returns the wire name of the message.
func (m *SetExcluded) MsgType() string { return TypeSetExcluded }

// Validate performs stateless validation.
func (m *SetExcluded) Validate() error {
	if err := types.ValidateAddress(m.Account); err != nil {
		return ErrBadAddress
	}
	return nil
}

// Apply migrates the account representation.
func (m *SetExcluded) Apply(ctx *ApplyContext) Result {
	if result := requireAdmin(ctx); !result.IsSuccess() {
		return result
	}
	registry := token.NewExemptionRegistry(ctx.View)
	if err := registry.SetReflectionExcluded(types.Address(m.Account), m.Excluded); err != nil {
		return resultFromLedger(err)
	}

	ctx.Emit(NewEvent(TypeSetExcluded,
		Attr("account", m.Account),
		Attr("excluded", strconv.FormatBool(m.Excluded)),
	))
	return TesSUCCESS
}

// SetTreasury replaces the treasury address. Admin only.
type SetTreasury struct {
	Common
	Treasury string `json:"treasury"`
}

// MsgType returns the wire name of the message.
func (m *SetTreasury) MsgType() string { return TypeSetTreasury }

// Validate performs stateless validation.
func (m *SetTreasury) Validate() error {
	if err := types.ValidateAddress(m.Treasury); err != nil {
		return ErrBadAddress
	}
	return nil
}

// Apply replaces the treasury address.
func (m *SetTreasury) Apply(ctx *ApplyContext) Result {
	if result := requireAdmin(ctx); !result.IsSuccess() {
		return result
	}
	cfg, err := token.ReadContractConfig(ctx.View)
	if err != nil {
		return TecINTERNAL
	}
	cfg.Treasury = m.Treasury
	if err := token.WriteContractConfig(ctx.View, cfg); err != nil {
		return TecINTERNAL
	}

	ctx.Emit(NewEvent(TypeSetTreasury, Attr("treasury", m.Treasury)))
	return TesSUCCESS
}

// SetAdmin transfers admin rights, or renounces them when the new admin is
// empty. Admin only.
type SetAdmin struct {
	Common
	Admin string `json:"admin"`
}

// MsgType returns the wire name of the message.
func (m *SetAdmin) MsgType() string { return TypeSetAdmin }

// Validate performs stateless validation. An empty admin renounces.
func (m *SetAdmin) Validate() error {
	if m.Admin == "" {
		return nil
	}
	if err := types.ValidateAddress(m.Admin); err != nil {
		return ErrBadAddress
	}
	return nil
}

// Apply replaces the admin address.
func (m *SetAdmin) Apply(ctx *ApplyContext) Result {
	if result := requireAdmin(ctx); !result.IsSuccess() {
		return result
	}
	cfg, err := token.ReadContractConfig(ctx.View)
	if err != nil {
		return TecINTERNAL
	}
	cfg.Admin = m.Admin
	if err := token.WriteContractConfig(ctx.View, cfg); err != nil {
		return TecINTERNAL
	}

	ctx.Emit(NewEvent(TypeSetAdmin, Attr("admin", m.Admin)))
	return TesSUCCESS
}
