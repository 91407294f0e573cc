package tx

import (
	"errors"
	"fmt"

	"github.com/trueeth/cw20-reflection/internal/core/token"
)

// ErrNoTreasury is returned when the treasury share of a transfer cannot be
// delivered because no treasury address is configured.
var ErrNoTreasury = errors.New("no treasury address configured")

// TreasuryKeeper receives the treasury share of taxed transfers. The ledger
// argument is the same instance that debited the sender, so the deposit is
// valued at the transfer's rate. A returned error rolls back the entire
// transfer.
type TreasuryKeeper interface {
	Deposit(ledger *token.ReflectionLedger, amount uint64) error
}

// LedgerTreasury credits the configured treasury token account.
type LedgerTreasury struct{}

// NewLedgerTreasury returns the in-ledger treasury keeper.
func NewLedgerTreasury() *LedgerTreasury {
	return &LedgerTreasury{}
}

// Deposit credits the treasury account held in the contract configuration.
func (t *LedgerTreasury) Deposit(ledger *token.ReflectionLedger, amount uint64) error {
	cfg, err := token.ReadContractConfig(ledger.View())
	if err != nil {
		return err
	}
	if cfg.Treasury == "" {
		return ErrNoTreasury
	}
	if err := ledger.Credit(cfg.Treasury, amount); err != nil {
		return fmt.Errorf("treasury deposit: %w", err)
	}
	return nil
}
