// Package token implements the reflection token ledger: the balance store in
// reflected units, the tax split policy, the anti-whale guard, and the
// exemption registry. All state lives in entries addressed by keylets and
// accessed through a StateView, so the same code runs against committed
// state and against the transaction engine's staging table.
package token

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/ugorji/go/codec"

	"github.com/trueeth/cw20-reflection/internal/core/ledger/keylet"
	"github.com/trueeth/cw20-reflection/internal/types"
)

// StateView provides read/write access to ledger state entries.
// Implemented by the committed state and by the engine's staging table.
type StateView interface {
	// Read returns the entry data, or nil if the entry does not exist.
	Read(k keylet.Keylet) ([]byte, error)

	// Exists checks if an entry exists.
	Exists(k keylet.Keylet) (bool, error)

	// Insert adds a new entry.
	Insert(k keylet.Keylet, data []byte) error

	// Update modifies an existing entry.
	Update(k keylet.Keylet, data []byte) error

	// Erase removes an entry.
	Erase(k keylet.Keylet) error
}

// cborHandle is the shared codec configuration for state entries.
// Canonical encoding keeps entry bytes (and therefore state hashes)
// deterministic across validators.
var cborHandle = func() *codec.CborHandle {
	h := new(codec.CborHandle)
	h.Canonical = true
	return h
}()

// EncodeEntry serializes a state entry to canonical CBOR.
func EncodeEntry(v interface{}) ([]byte, error) {
	var out []byte
	if err := codec.NewEncoderBytes(&out, cborHandle).Encode(v); err != nil {
		return nil, fmt.Errorf("encode entry: %w", err)
	}
	return out, nil
}

// DecodeEntry deserializes a state entry from CBOR.
func DecodeEntry(data []byte, v interface{}) error {
	if err := codec.NewDecoderBytes(data, cborHandle).Decode(v); err != nil {
		return fmt.Errorf("decode entry: %w", err)
	}
	return nil
}

// AccountEntry is the balance record for one address. It is a tagged
// variant: an excluded account stores its true balance directly, an
// included account stores only a reflected balance and derives its true
// balance from the global rate.
type AccountEntry struct {
	Excluded  bool   `codec:"excluded"`
	True      uint64 `codec:"true_balance"`
	Reflected []byte `codec:"reflected"`
}

// ReflectedAmount returns the account's reflected balance as a uint256.
func (a *AccountEntry) ReflectedAmount() *uint256.Int {
	return new(uint256.Int).SetBytes(a.Reflected)
}

// SetReflected stores a reflected balance.
func (a *AccountEntry) SetReflected(r *uint256.Int) {
	a.Reflected = r.Bytes()
}

// TokenInfoEntry is the singleton global ledger state.
type TokenInfoEntry struct {
	Name     string `codec:"name"`
	Symbol   string `codec:"symbol"`
	Decimals uint8  `codec:"decimals"`

	// TotalSupply is the circulating true supply. Decreases only on burn,
	// increases only on mint.
	TotalSupply uint64 `codec:"total_supply"`

	// TotalReflected is the sum of reflected balances of included accounts.
	TotalReflected []byte `codec:"total_reflected"`

	// TotalExcluded is the sum of true balances held by excluded accounts.
	TotalExcluded uint64 `codec:"total_excluded"`

	// ReflectedFees is the cumulative true amount distributed to holders
	// through the reflection mechanism.
	ReflectedFees uint64 `codec:"reflected_fees"`

	// Minter may mint new supply up to Cap (0 = no cap). Empty disables mint.
	Minter string `codec:"minter"`
	Cap    uint64 `codec:"cap"`
}

// TotalReflectedAmount returns the reflected-unit supply as a uint256.
func (t *TokenInfoEntry) TotalReflectedAmount() *uint256.Int {
	return new(uint256.Int).SetBytes(t.TotalReflected)
}

// SetTotalReflected stores the reflected-unit supply.
func (t *TokenInfoEntry) SetTotalReflected(r *uint256.Int) {
	t.TotalReflected = r.Bytes()
}

// IncludedSupply returns the true supply held by included accounts, the
// denominator of the reflected rate.
func (t *TokenInfoEntry) IncludedSupply() (uint64, error) {
	if t.TotalExcluded > t.TotalSupply {
		return 0, fmt.Errorf("%w: excluded supply %d exceeds total %d",
			ErrArithmetic, t.TotalExcluded, t.TotalSupply)
	}
	return t.TotalSupply - t.TotalExcluded, nil
}

// TaxConfigEntry holds the tax split in basis points of the gross amount.
type TaxConfigEntry struct {
	BurnBps     uint32 `codec:"burn_bps"`
	ReflectBps  uint32 `codec:"reflect_bps"`
	TreasuryBps uint32 `codec:"treasury_bps"`
}

// AntiWhaleEntry holds the transfer caps in basis points of total supply.
// A zero value means the corresponding cap is disabled.
type AntiWhaleEntry struct {
	MaxTxBps     uint32 `codec:"max_tx_bps"`
	MaxWalletBps uint32 `codec:"max_wallet_bps"`
}

// ExemptionEntry holds per-account exemption flags.
type ExemptionEntry struct {
	TaxExempt          bool `codec:"tax_exempt"`
	ReflectionExcluded bool `codec:"reflection_excluded"`
}

// AllowanceEntry holds the spend allowance granted by an owner to a spender.
type AllowanceEntry struct {
	Amount uint64 `codec:"amount"`
}

// ContractConfigEntry holds the administrative addresses.
type ContractConfigEntry struct {
	Admin    string `codec:"admin"`
	Treasury string `codec:"treasury"`
}

// putEntry writes an entry, inserting or updating as needed.
func putEntry(view StateView, k keylet.Keylet, v interface{}) error {
	data, err := EncodeEntry(v)
	if err != nil {
		return err
	}
	exists, err := view.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return view.Update(k, data)
	}
	return view.Insert(k, data)
}

// readEntry reads and decodes an entry. Returns (false, nil) when absent.
func readEntry(view StateView, k keylet.Keylet, v interface{}) (bool, error) {
	data, err := view.Read(k)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	return true, DecodeEntry(data, v)
}

// ReadAccount returns the account entry for addr, or nil if none exists.
func ReadAccount(view StateView, addr types.Address) (*AccountEntry, error) {
	var e AccountEntry
	ok, err := readEntry(view, keylet.Account(addr), &e)
	if err != nil || !ok {
		return nil, err
	}
	return &e, nil
}

// WriteAccount stores the account entry for addr.
func WriteAccount(view StateView, addr types.Address, e *AccountEntry) error {
	return putEntry(view, keylet.Account(addr), e)
}

// ReadTokenInfo returns the singleton token info entry.
func ReadTokenInfo(view StateView) (*TokenInfoEntry, error) {
	var e TokenInfoEntry
	ok, err := readEntry(view, keylet.TokenInfo(), &e)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoTokenInfo
	}
	return &e, nil
}

// WriteTokenInfo stores the singleton token info entry.
func WriteTokenInfo(view StateView, e *TokenInfoEntry) error {
	return putEntry(view, keylet.TokenInfo(), e)
}

// ReadTaxConfig returns the tax configuration, zero-valued if unset.
func ReadTaxConfig(view StateView) (*TaxConfigEntry, error) {
	var e TaxConfigEntry
	if _, err := readEntry(view, keylet.TaxConfig(), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// WriteTaxConfig stores the tax configuration.
func WriteTaxConfig(view StateView, e *TaxConfigEntry) error {
	return putEntry(view, keylet.TaxConfig(), e)
}

// ReadAntiWhale returns the anti-whale configuration, zero-valued if unset.
func ReadAntiWhale(view StateView) (*AntiWhaleEntry, error) {
	var e AntiWhaleEntry
	if _, err := readEntry(view, keylet.AntiWhale(), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// WriteAntiWhale stores the anti-whale configuration.
func WriteAntiWhale(view StateView, e *AntiWhaleEntry) error {
	return putEntry(view, keylet.AntiWhale(), e)
}

// ReadExemption returns the exemption flags for addr, zero-valued if unset.
func ReadExemption(view StateView, addr types.Address) (*ExemptionEntry, error) {
	var e ExemptionEntry
	if _, err := readEntry(view, keylet.Exemption(addr), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// WriteExemption stores the exemption flags for addr.
func WriteExemption(view StateView, addr types.Address, e *ExemptionEntry) error {
	return putEntry(view, keylet.Exemption(addr), e)
}

// ReadAllowance returns the allowance owner has granted spender, zero if unset.
func ReadAllowance(view StateView, owner, spender types.Address) (*AllowanceEntry, error) {
	var e AllowanceEntry
	if _, err := readEntry(view, keylet.Allowance(owner, spender), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// WriteAllowance stores the allowance owner grants spender. A zero allowance
// erases the entry.
func WriteAllowance(view StateView, owner, spender types.Address, e *AllowanceEntry) error {
	k := keylet.Allowance(owner, spender)
	if e.Amount == 0 {
		exists, err := view.Exists(k)
		if err != nil {
			return err
		}
		if exists {
			return view.Erase(k)
		}
		return nil
	}
	return putEntry(view, k, e)
}

// ReadContractConfig returns the contract configuration, zero-valued if unset.
func ReadContractConfig(view StateView) (*ContractConfigEntry, error) {
	var e ContractConfigEntry
	if _, err := readEntry(view, keylet.ContractConfig(), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// WriteContractConfig stores the contract configuration.
func WriteContractConfig(view StateView, e *ContractConfigEntry) error {
	return putEntry(view, keylet.ContractConfig(), e)
}
