package token

import (
	"github.com/trueeth/cw20-reflection/internal/types"
)

// ExemptionRegistry manages the per-account exemption flags. Tax exemption
// is a plain flag; reflection exclusion also migrates the account's balance
// representation through the ledger.
type ExemptionRegistry struct {
	view StateView
}

// NewExemptionRegistry wraps a state view.
func NewExemptionRegistry(view StateView) *ExemptionRegistry {
	return &ExemptionRegistry{view: view}
}

// SetTaxExempt sets the tax exemption flag for addr.
func (r *ExemptionRegistry) SetTaxExempt(addr types.Address, exempt bool) error {
	ex, err := ReadExemption(r.view, addr)
	if err != nil {
		return err
	}
	if ex.TaxExempt == exempt {
		return nil
	}
	ex.TaxExempt = exempt
	return WriteExemption(r.view, addr, ex)
}

// SetReflectionExcluded sets the reflection exclusion flag for addr and
// migrates the account's balance representation.
func (r *ExemptionRegistry) SetReflectionExcluded(addr types.Address, excluded bool) error {
	return NewReflectionLedger(r.view).SetExcluded(addr, excluded)
}

// Flags returns the exemption flags for addr.
func (r *ExemptionRegistry) Flags(addr types.Address) (*ExemptionEntry, error) {
	return ReadExemption(r.view, addr)
}
