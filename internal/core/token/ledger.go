package token

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/trueeth/cw20-reflection/internal/types"
)

// ReflectionLedger exposes the balance operations of the reflection token
// over a StateView. Every method is a pure state transition; atomicity and
// rollback are the caller's concern (the engine stages all writes and
// discards them when an operation fails).
//
// A ledger instance is scoped to one transaction: every unit conversion it
// performs uses the reflected rate observed at the first conversion. All
// debits and credits of a transfer must be valued at the same rate, or the
// intermediate rate shifts would misprice later legs of the transfer.
type ReflectionLedger struct {
	view StateView

	rate *rateSnapshot
}

// rateSnapshot freezes the reflected rate rTotal/denom for the duration of
// one transaction.
type rateSnapshot struct {
	rTotal *uint256.Int
	denom  uint64
}

// NewReflectionLedger wraps a state view. Use one ledger per transaction.
func NewReflectionLedger(view StateView) *ReflectionLedger {
	return &ReflectionLedger{view: view}
}

// View returns the underlying state view.
func (l *ReflectionLedger) View() StateView {
	return l.view
}

func (l *ReflectionLedger) rateSnap() (*rateSnapshot, error) {
	if l.rate != nil {
		return l.rate, nil
	}
	info, err := ReadTokenInfo(l.view)
	if err != nil {
		return nil, err
	}
	denom, err := info.IncludedSupply()
	if err != nil {
		return nil, err
	}
	l.rate = &rateSnapshot{rTotal: info.TotalReflectedAmount(), denom: denom}
	return l.rate, nil
}

// BalanceOf returns the true balance of addr. Excluded accounts hold a true
// balance directly; included accounts derive it from the reflected rate.
// Unknown accounts have a zero balance.
func (l *ReflectionLedger) BalanceOf(addr types.Address) (uint64, error) {
	acct, err := ReadAccount(l.view, addr)
	if err != nil {
		return 0, err
	}
	if acct == nil {
		return 0, nil
	}
	return l.balanceOf(acct)
}

func (l *ReflectionLedger) balanceOf(acct *AccountEntry) (uint64, error) {
	if acct.Excluded {
		return acct.True, nil
	}
	info, err := ReadTokenInfo(l.view)
	if err != nil {
		return 0, err
	}
	denom, err := info.IncludedSupply()
	if err != nil {
		return 0, err
	}
	if denom == 0 || info.TotalReflectedAmount().IsZero() {
		return 0, nil
	}
	return toTrue(acct.ReflectedAmount(), info.TotalReflectedAmount(), denom)
}

// Debit removes amount true units from addr. For included accounts the
// reflected delta rounds up; when the debit spends the account's full
// derived balance the delta is clamped to the account's entire reflected
// balance so no dust remains.
func (l *ReflectionLedger) Debit(addr types.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	acct, err := ReadAccount(l.view, addr)
	if err != nil {
		return err
	}
	if acct == nil {
		return fmt.Errorf("%w: account %s has no balance", ErrInsufficientBalance, addr)
	}
	balance, err := l.balanceOf(acct)
	if err != nil {
		return err
	}
	if balance < amount {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, balance, amount)
	}

	info, err := ReadTokenInfo(l.view)
	if err != nil {
		return err
	}

	if acct.Excluded {
		acct.True -= amount
		info.TotalExcluded -= amount
		if err := WriteTokenInfo(l.view, info); err != nil {
			return err
		}
		return WriteAccount(l.view, addr, acct)
	}

	rate, err := l.rateSnap()
	if err != nil {
		return err
	}
	rDelta, err := toReflected(amount, rate.rTotal, rate.denom, true)
	if err != nil {
		return err
	}
	rAcct := acct.ReflectedAmount()
	if rDelta.Gt(rAcct) || balance == amount {
		rDelta = rAcct
	}
	rAcct = new(uint256.Int).Sub(rAcct, rDelta)
	acct.SetReflected(rAcct)
	rTotal := info.TotalReflectedAmount()
	if rDelta.Gt(rTotal) {
		return fmt.Errorf("%w: reflected debit exceeds reflected supply", ErrArithmetic)
	}
	rTotal.Sub(rTotal, rDelta)
	info.SetTotalReflected(rTotal)
	if err := WriteTokenInfo(l.view, info); err != nil {
		return err
	}
	return WriteAccount(l.view, addr, acct)
}

// Credit adds amount true units to addr, creating the account if needed.
// New accounts take their representation from the reflection-excluded flag
// in the exemption registry. The reflected delta rounds down.
func (l *ReflectionLedger) Credit(addr types.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	acct, err := ReadAccount(l.view, addr)
	if err != nil {
		return err
	}
	if acct == nil {
		ex, err := ReadExemption(l.view, addr)
		if err != nil {
			return err
		}
		acct = &AccountEntry{Excluded: ex.ReflectionExcluded}
	}

	info, err := ReadTokenInfo(l.view)
	if err != nil {
		return err
	}

	if acct.Excluded {
		acct.True += amount
		info.TotalExcluded += amount
		if err := WriteTokenInfo(l.view, info); err != nil {
			return err
		}
		return WriteAccount(l.view, addr, acct)
	}

	rate, err := l.rateSnap()
	if err != nil {
		return err
	}
	var rDelta *uint256.Int
	if rate.rTotal.IsZero() {
		// No reflected supply exists: establish the rate from the genesis
		// seed over the current included supply.
		denom, derr := info.IncludedSupply()
		if derr != nil {
			return derr
		}
		if denom < amount {
			return fmt.Errorf("%w: credit %d exceeds included supply %d",
				ErrArithmetic, amount, denom)
		}
		rDelta, err = toReflected(amount, seedReflected(denom), denom, false)
	} else {
		rDelta, err = toReflected(amount, rate.rTotal, rate.denom, false)
	}
	if err != nil {
		return err
	}
	rAcct := acct.ReflectedAmount()
	rAcct = new(uint256.Int).Add(rAcct, rDelta)
	acct.SetReflected(rAcct)
	rTotal := info.TotalReflectedAmount()
	rTotal.Add(rTotal, rDelta)
	info.SetTotalReflected(rTotal)
	if err := WriteTokenInfo(l.view, info); err != nil {
		return err
	}
	return WriteAccount(l.view, addr, acct)
}

// Burn destroys amount true units that have already been debited from an
// account. Only the total supply shrinks; the reflected side was settled by
// the debit.
func (l *ReflectionLedger) Burn(amount uint64) error {
	if amount == 0 {
		return nil
	}
	info, err := ReadTokenInfo(l.view)
	if err != nil {
		return err
	}
	if info.TotalSupply < amount {
		return fmt.Errorf("%w: burn %d exceeds supply %d", ErrArithmetic, amount, info.TotalSupply)
	}
	if info.TotalSupply-amount < info.TotalExcluded {
		return fmt.Errorf("%w: burn %d would leave supply below excluded holdings %d",
			ErrArithmetic, amount, info.TotalExcluded)
	}
	info.TotalSupply -= amount
	return WriteTokenInfo(l.view, info)
}

// Reflect distributes amount true units that have already been debited from
// the sender across all included holders. The debit left those units
// unmatched on the reflected side, so the rate drops and every included
// holder's derived balance rises pro-rata with no per-holder writes.
// Reflect validates that the ledger can absorb the distribution and records
// it in the cumulative fee counter.
func (l *ReflectionLedger) Reflect(amount uint64) error {
	if amount == 0 {
		return nil
	}
	info, err := ReadTokenInfo(l.view)
	if err != nil {
		return err
	}
	denom, err := info.IncludedSupply()
	if err != nil {
		return err
	}
	if denom == 0 {
		return fmt.Errorf("%w: no included holders to receive reflection", ErrArithmetic)
	}
	if info.TotalReflectedAmount().IsZero() {
		return fmt.Errorf("%w: reflected supply exhausted", ErrArithmetic)
	}
	info.ReflectedFees += amount
	return WriteTokenInfo(l.view, info)
}

// Mint creates amount new true units for addr. The credit is valued at the
// pre-mint rate, then the supply rises, so existing holders keep their
// exact balances.
func (l *ReflectionLedger) Mint(addr types.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	info, err := ReadTokenInfo(l.view)
	if err != nil {
		return err
	}
	if info.TotalSupply+amount < info.TotalSupply {
		return fmt.Errorf("%w: mint %d overflows supply", ErrArithmetic, amount)
	}

	if info.TotalReflectedAmount().IsZero() && info.TotalSupply == info.TotalExcluded {
		// Genesis path: no reflected supply exists yet. Raise the supply
		// first so the seed rate is established over the full amount.
		info.TotalSupply += amount
		if err := WriteTokenInfo(l.view, info); err != nil {
			return err
		}
		return l.Credit(addr, amount)
	}

	if err := l.Credit(addr, amount); err != nil {
		return err
	}
	info, err = ReadTokenInfo(l.view)
	if err != nil {
		return err
	}
	info.TotalSupply += amount
	return WriteTokenInfo(l.view, info)
}

// SetExcluded switches addr between reflected and excluded representation.
// Excluding freezes the account's current derived balance as a true
// balance; including converts the true balance back to reflected units at
// the rate before the account rejoins the denominator. Round-trips may
// shift the balance by at most one unit of rounding.
func (l *ReflectionLedger) SetExcluded(addr types.Address, excluded bool) error {
	acct, err := ReadAccount(l.view, addr)
	if err != nil {
		return err
	}
	ex, err := ReadExemption(l.view, addr)
	if err != nil {
		return err
	}
	ex.ReflectionExcluded = excluded
	if err := WriteExemption(l.view, addr, ex); err != nil {
		return err
	}
	if acct == nil || acct.Excluded == excluded {
		return nil
	}

	info, err := ReadTokenInfo(l.view)
	if err != nil {
		return err
	}

	if excluded {
		balance, err := l.balanceOf(acct)
		if err != nil {
			return err
		}
		rTotal := info.TotalReflectedAmount()
		rTotal.Sub(rTotal, acct.ReflectedAmount())
		info.SetTotalReflected(rTotal)
		info.TotalExcluded += balance
		acct.Excluded = true
		acct.True = balance
		acct.Reflected = nil
		if err := WriteTokenInfo(l.view, info); err != nil {
			return err
		}
		return WriteAccount(l.view, addr, acct)
	}

	// Re-inclusion: value the true balance at the rate over the denominator
	// that still excludes this account, then fold it back in.
	amount := acct.True
	denomOld, err := info.IncludedSupply()
	if err != nil {
		return err
	}
	rTotal := info.TotalReflectedAmount()
	var rDelta *uint256.Int
	if denomOld == 0 || rTotal.IsZero() {
		if amount > 0 {
			rDelta = seedReflected(amount)
		} else {
			rDelta = new(uint256.Int)
		}
	} else {
		rDelta, err = toReflected(amount, rTotal, denomOld, false)
		if err != nil {
			return err
		}
	}
	rTotal.Add(rTotal, rDelta)
	info.SetTotalReflected(rTotal)
	info.TotalExcluded -= amount
	acct.Excluded = false
	acct.True = 0
	acct.SetReflected(rDelta)
	if err := WriteTokenInfo(l.view, info); err != nil {
		return err
	}
	return WriteAccount(l.view, addr, acct)
}
