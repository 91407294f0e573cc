package token

import (
	"fmt"

	"github.com/trueeth/cw20-reflection/internal/types"
)

// maxTotalBps caps the combined tax rate at 100% of the gross amount.
const maxTotalBps = 10000

// TaxSplit is the decomposition of a gross transfer amount. The components
// always sum exactly to the gross amount; division remainders fold into the
// treasury share.
type TaxSplit struct {
	Gross    uint64
	Net      uint64
	Burn     uint64
	Reflect  uint64
	Treasury uint64
}

// TotalTax returns the taxed portion of the gross amount.
func (s TaxSplit) TotalTax() uint64 {
	return s.Gross - s.Net
}

// TaxPolicy computes tax splits from the configured rates and the
// exemption registry.
type TaxPolicy struct {
	view StateView
}

// NewTaxPolicy wraps a state view.
func NewTaxPolicy(view StateView) *TaxPolicy {
	return &TaxPolicy{view: view}
}

// Exempt reports whether a transfer between sender and recipient is
// tax-free. Either side being exempt suffices.
func (p *TaxPolicy) Exempt(sender, recipient types.Address) (bool, error) {
	se, err := ReadExemption(p.view, sender)
	if err != nil {
		return false, err
	}
	if se.TaxExempt {
		return true, nil
	}
	re, err := ReadExemption(p.view, recipient)
	if err != nil {
		return false, err
	}
	return re.TaxExempt, nil
}

// Split decomposes a gross amount under the current tax configuration.
// An exempt transfer yields a pure split with the full amount as net.
func (p *TaxPolicy) Split(gross uint64, exempt bool) (TaxSplit, error) {
	s := TaxSplit{Gross: gross, Net: gross}
	if exempt || gross == 0 {
		return s, nil
	}
	cfg, err := ReadTaxConfig(p.view)
	if err != nil {
		return s, err
	}
	sum := cfg.BurnBps + cfg.ReflectBps + cfg.TreasuryBps
	if sum == 0 {
		return s, nil
	}
	s.Burn = bpsOf(gross, cfg.BurnBps)
	s.Reflect = bpsOf(gross, cfg.ReflectBps)
	total := bpsOf(gross, sum)
	s.Net = gross - total
	s.Treasury = total - s.Burn - s.Reflect
	return s, nil
}

// ValidateRates rejects a configuration whose combined rate exceeds 100%.
func ValidateRates(burnBps, reflectBps, treasuryBps uint32) error {
	sum := uint64(burnBps) + uint64(reflectBps) + uint64(treasuryBps)
	if sum > maxTotalBps {
		return fmt.Errorf("%w: combined tax rate %d bps exceeds %d", ErrInvalidConfig, sum, maxTotalBps)
	}
	return nil
}
