// Package genesis builds the initial ledger state from a genesis document.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/trueeth/cw20-reflection/internal/core/ledger"
	"github.com/trueeth/cw20-reflection/internal/core/token"
	"github.com/trueeth/cw20-reflection/internal/types"
)

// Balance is one initial account holding.
type Balance struct {
	Address types.Address `json:"address"`
	Amount  uint64        `json:"amount,string"`
}

// ExemptionFlags are the per-account policy flags set at genesis.
type ExemptionFlags struct {
	Address            types.Address `json:"address"`
	TaxExempt          bool          `json:"tax_exempt"`
	ReflectionExcluded bool          `json:"reflection_excluded"`
}

// Config is the genesis document.
type Config struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`

	Balances []Balance `json:"balances"`

	BurnBps     uint32 `json:"burn_bps"`
	ReflectBps  uint32 `json:"reflect_bps"`
	TreasuryBps uint32 `json:"treasury_bps"`

	MaxTxBps     uint32 `json:"max_tx_bps"`
	MaxWalletBps uint32 `json:"max_wallet_bps"`

	Admin    types.Address `json:"admin,omitempty"`
	Treasury types.Address `json:"treasury,omitempty"`
	Minter   types.Address `json:"minter,omitempty"`
	Cap      uint64        `json:"cap,string,omitempty"`

	Exemptions []ExemptionFlags `json:"exemptions,omitempty"`
}

// DefaultConfig returns a single-holder development genesis.
func DefaultConfig() Config {
	return Config{
		Name:     "Reflection Token",
		Symbol:   "RFT",
		Decimals: 6,
		Balances: []Balance{
			{Address: "genesis", Amount: 1_000_000_000_000},
		},
		BurnBps:     200,
		ReflectBps:  500,
		TreasuryBps: 300,
		Admin:       "genesis",
		Treasury:    "treasury",
	}
}

// Load reads a genesis document from a JSON file.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read genesis: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse genesis: %w", err)
	}
	return cfg, nil
}

// Validate checks the genesis document for internal consistency.
func (c *Config) Validate() error {
	if c.Name == "" || c.Symbol == "" {
		return errors.New("genesis: name and symbol are required")
	}
	if len(c.Balances) == 0 {
		return errors.New("genesis: at least one balance is required")
	}

	var supply uint64
	seen := make(map[types.Address]bool)
	for _, b := range c.Balances {
		if err := types.ValidateAddress(b.Address); err != nil {
			return fmt.Errorf("genesis balance %q: %w", b.Address, err)
		}
		if seen[b.Address] {
			return fmt.Errorf("genesis: duplicate balance for %q", b.Address)
		}
		seen[b.Address] = true
		if b.Amount == 0 {
			return fmt.Errorf("genesis: zero balance for %q", b.Address)
		}
		next := supply + b.Amount
		if next < supply {
			return errors.New("genesis: total supply overflows uint64")
		}
		supply = next
	}

	if err := token.ValidateRates(c.BurnBps, c.ReflectBps, c.TreasuryBps); err != nil {
		return err
	}
	if err := token.ValidateCaps(c.MaxTxBps, c.MaxWalletBps); err != nil {
		return err
	}
	if c.TreasuryBps > 0 && c.Treasury == "" {
		return errors.New("genesis: treasury_bps requires a treasury address")
	}
	if c.Cap > 0 && c.Cap < supply {
		return errors.New("genesis: cap below initial supply")
	}

	for _, addr := range []types.Address{c.Admin, c.Treasury, c.Minter} {
		if addr == "" {
			continue
		}
		if err := types.ValidateAddress(addr); err != nil {
			return fmt.Errorf("genesis address %q: %w", addr, err)
		}
	}
	for _, e := range c.Exemptions {
		if err := types.ValidateAddress(e.Address); err != nil {
			return fmt.Errorf("genesis exemption %q: %w", e.Address, err)
		}
	}
	return nil
}

// Create builds the genesis state and closes it as ledger 1.
func Create(cfg Config) (*ledger.Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	state := ledger.NewState()

	info := &token.TokenInfoEntry{
		Name:     cfg.Name,
		Symbol:   cfg.Symbol,
		Decimals: cfg.Decimals,
		Minter:   cfg.Minter,
		Cap:      cfg.Cap,
	}
	if err := token.WriteTokenInfo(state, info); err != nil {
		return nil, err
	}

	if err := token.WriteTaxConfig(state, &token.TaxConfigEntry{
		BurnBps:     cfg.BurnBps,
		ReflectBps:  cfg.ReflectBps,
		TreasuryBps: cfg.TreasuryBps,
	}); err != nil {
		return nil, err
	}
	if err := token.WriteAntiWhale(state, &token.AntiWhaleEntry{
		MaxTxBps:     cfg.MaxTxBps,
		MaxWalletBps: cfg.MaxWalletBps,
	}); err != nil {
		return nil, err
	}
	if err := token.WriteContractConfig(state, &token.ContractConfigEntry{
		Admin:    cfg.Admin,
		Treasury: cfg.Treasury,
	}); err != nil {
		return nil, err
	}

	// Exemption flags go in before balances so excluded holders are
	// created in true representation.
	registry := token.NewExemptionRegistry(state)
	for _, e := range cfg.Exemptions {
		if err := registry.SetTaxExempt(e.Address, e.TaxExempt); err != nil {
			return nil, err
		}
		if e.ReflectionExcluded {
			if err := registry.SetReflectionExcluded(e.Address, true); err != nil {
				return nil, err
			}
		}
	}

	for _, b := range cfg.Balances {
		// A fresh ledger per holding keeps each mint priced at the
		// rate in force when it lands.
		if err := token.NewReflectionLedger(state).Mint(b.Address, b.Amount); err != nil {
			return nil, fmt.Errorf("genesis mint to %q: %w", b.Address, err)
		}
	}

	return ledger.Close(nil, state, nil, time.Now())
}
