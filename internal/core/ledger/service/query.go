package service

import (
	"context"

	"github.com/trueeth/cw20-reflection/internal/core/token"
	"github.com/trueeth/cw20-reflection/internal/storage/txindex"
	"github.com/trueeth/cw20-reflection/internal/types"
)

// Queries run against committed state only; an open transaction being
// applied never leaks into a query response.

// BalanceOf returns the derived balance of an account.
func (s *Service) BalanceOf(addr types.Address) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return 0, ErrNotStarted
	}
	return token.NewReflectionLedger(s.state).BalanceOf(addr)
}

// TokenInfo returns the token metadata and supply counters.
func (s *Service) TokenInfo() (*token.TokenInfoEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, ErrNotStarted
	}
	return token.ReadTokenInfo(s.state)
}

// Allowance returns the remaining spend allowance.
func (s *Service) Allowance(owner, spender types.Address) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return 0, ErrNotStarted
	}
	entry, err := token.ReadAllowance(s.state, owner, spender)
	if err != nil {
		return 0, err
	}
	if entry == nil {
		return 0, nil
	}
	return entry.Amount, nil
}

// QueryTax previews the tax decomposition of a transfer without applying it.
func (s *Service) QueryTax(sender, recipient types.Address, amount uint64) (token.TaxSplit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return token.TaxSplit{}, ErrNotStarted
	}

	policy := token.NewTaxPolicy(s.state)
	exempt, err := policy.Exempt(sender, recipient)
	if err != nil {
		return token.TaxSplit{}, err
	}
	return policy.Split(amount, exempt)
}

// Rates returns the configured tax rates.
func (s *Service) Rates() (*token.TaxConfigEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, ErrNotStarted
	}
	rates, err := token.ReadTaxConfig(s.state)
	if err != nil {
		return nil, err
	}
	if rates == nil {
		rates = &token.TaxConfigEntry{}
	}
	return rates, nil
}

// Exemption returns the policy flags of an account.
func (s *Service) Exemption(addr types.Address) (*token.ExemptionEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, ErrNotStarted
	}
	entry, err := token.ReadExemption(s.state, addr)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		entry = &token.ExemptionEntry{}
	}
	return entry, nil
}

// WhaleConfig returns the anti-whale caps.
func (s *Service) WhaleConfig() (*token.AntiWhaleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, ErrNotStarted
	}
	entry, err := token.ReadAntiWhale(s.state)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		entry = &token.AntiWhaleEntry{}
	}
	return entry, nil
}

// ContractConfig returns the admin and treasury addresses.
func (s *Service) ContractConfig() (*token.ContractConfigEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == nil {
		return nil, ErrNotStarted
	}
	cfg, err := token.ReadContractConfig(s.state)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &token.ContractConfigEntry{}
	}
	return cfg, nil
}

// TxHistory returns indexed transactions for an account, newest first. An
// empty account returns global history.
func (s *Service) TxHistory(ctx context.Context, account types.Address, limit, offset int) ([]*txindex.Record, error) {
	if s.txIndex == nil {
		return nil, txindex.ErrClosed
	}
	return s.txIndex.History(ctx, account, limit, offset)
}

// TxByHash returns one indexed transaction.
func (s *Service) TxByHash(ctx context.Context, hash types.Hash256) (*txindex.Record, error) {
	if s.txIndex == nil {
		return nil, txindex.ErrClosed
	}
	return s.txIndex.ByHash(ctx, hash)
}
