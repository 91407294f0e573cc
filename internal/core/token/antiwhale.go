package token

import (
	"fmt"

	"github.com/trueeth/cw20-reflection/internal/types"
)

// AntiWhaleGuard enforces the per-transfer and per-wallet caps. Caps are
// expressed in basis points of the current total supply, so they track
// burns and mints automatically.
type AntiWhaleGuard struct {
	view StateView
}

// NewAntiWhaleGuard wraps a state view.
func NewAntiWhaleGuard(view StateView) *AntiWhaleGuard {
	return &AntiWhaleGuard{view: view}
}

// CheckTransfer validates a transfer of gross amount to recipient against
// both caps. recipientNet is the net amount the recipient will receive.
// Exempt parties bypass the guard entirely.
func (g *AntiWhaleGuard) CheckTransfer(recipient types.Address, gross, recipientNet uint64, exempt bool) error {
	if exempt {
		return nil
	}
	cfg, err := ReadAntiWhale(g.view)
	if err != nil {
		return err
	}
	if cfg.MaxTxBps == 0 && cfg.MaxWalletBps == 0 {
		return nil
	}
	info, err := ReadTokenInfo(g.view)
	if err != nil {
		return err
	}
	if cfg.MaxTxBps != 0 {
		limit := bpsOf(info.TotalSupply, cfg.MaxTxBps)
		if gross > limit {
			return fmt.Errorf("%w: transfer %d exceeds tx limit %d", ErrWhaleLimit, gross, limit)
		}
	}
	if cfg.MaxWalletBps != 0 {
		limit := bpsOf(info.TotalSupply, cfg.MaxWalletBps)
		ledger := NewReflectionLedger(g.view)
		balance, err := ledger.BalanceOf(recipient)
		if err != nil {
			return err
		}
		if balance+recipientNet > limit {
			return fmt.Errorf("%w: wallet would hold %d, limit %d",
				ErrWhaleLimit, balance+recipientNet, limit)
		}
	}
	return nil
}

// ValidateCaps rejects caps above 100% of supply.
func ValidateCaps(maxTxBps, maxWalletBps uint32) error {
	if maxTxBps > maxTotalBps {
		return fmt.Errorf("%w: max tx %d bps exceeds %d", ErrInvalidConfig, maxTxBps, maxTotalBps)
	}
	if maxWalletBps > maxTotalBps {
		return fmt.Errorf("%w: max wallet %d bps exceeds %d", ErrInvalidConfig, maxWalletBps, maxTotalBps)
	}
	return nil
}
