// Package keylet computes the addressable locations of token ledger state
// entries. Each entry lives at a 256-bit key derived from a space identifier
// and the entry's natural identifiers, so independent validators derive
// identical state layouts.
package keylet

import (
	"encoding/binary"

	"github.com/trueeth/cw20-reflection/internal/types"
)

// Space identifiers for keylet generation.
const (
	spaceAccount   uint16 = 'a' // Account balance record
	spaceAllowance uint16 = 'l' // Spend allowance (owner, spender)
	spaceToken     uint16 = 'i' // Token info (singleton)
	spaceTax       uint16 = 't' // Tax configuration (singleton)
	spaceWhale     uint16 = 'w' // Anti-whale configuration (singleton)
	spaceExemption uint16 = 'x' // Exemption flags per account
	spaceContract  uint16 = 'c' // Contract config: admin, treasury (singleton)
)

// EntryType identifies the kind of state entry stored at a keylet.
type EntryType uint8

const (
	TypeAccount EntryType = iota + 1
	TypeAllowance
	TypeTokenInfo
	TypeTaxConfig
	TypeAntiWhale
	TypeExemption
	TypeContractConfig
)

// String returns the entry type name.
func (t EntryType) String() string {
	switch t {
	case TypeAccount:
		return "Account"
	case TypeAllowance:
		return "Allowance"
	case TypeTokenInfo:
		return "TokenInfo"
	case TypeTaxConfig:
		return "TaxConfig"
	case TypeAntiWhale:
		return "AntiWhale"
	case TypeExemption:
		return "Exemption"
	case TypeContractConfig:
		return "ContractConfig"
	default:
		return "Unknown"
	}
}

// Keylet represents an addressable location in the ledger state.
// It combines a type identifier with a 256-bit key.
type Keylet struct {
	Type EntryType
	Key  [32]byte
}

// indexHash computes a keylet key by hashing the space and provided data.
func indexHash(space uint16, data ...[]byte) [32]byte {
	spaceBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(spaceBytes, space)

	buf := make([]byte, 0, 64)
	buf = append(buf, spaceBytes...)
	for _, d := range data {
		buf = append(buf, d...)
	}

	return types.Hash256FromData(buf)
}

// Account returns the keylet for an account balance record.
func Account(addr types.Address) Keylet {
	return Keylet{
		Type: TypeAccount,
		Key:  indexHash(spaceAccount, []byte(addr)),
	}
}

// Allowance returns the keylet for the allowance granted by owner to spender.
func Allowance(owner, spender types.Address) Keylet {
	// Zero byte separates the two addresses so (ab, c) and (a, bc) differ.
	return Keylet{
		Type: TypeAllowance,
		Key:  indexHash(spaceAllowance, []byte(owner), []byte{0}, []byte(spender)),
	}
}

// TokenInfo returns the keylet for the singleton token info entry.
func TokenInfo() Keylet {
	return Keylet{
		Type: TypeTokenInfo,
		Key:  indexHash(spaceToken),
	}
}

// TaxConfig returns the keylet for the singleton tax configuration entry.
func TaxConfig() Keylet {
	return Keylet{
		Type: TypeTaxConfig,
		Key:  indexHash(spaceTax),
	}
}

// AntiWhale returns the keylet for the singleton anti-whale configuration.
func AntiWhale() Keylet {
	return Keylet{
		Type: TypeAntiWhale,
		Key:  indexHash(spaceWhale),
	}
}

// Exemption returns the keylet for an account's exemption flags.
func Exemption(addr types.Address) Keylet {
	return Keylet{
		Type: TypeExemption,
		Key:  indexHash(spaceExemption, []byte(addr)),
	}
}

// ContractConfig returns the keylet for the singleton contract configuration.
func ContractConfig() Keylet {
	return Keylet{
		Type: TypeContractConfig,
		Key:  indexHash(spaceContract),
	}
}
