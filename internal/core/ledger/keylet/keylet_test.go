package keylet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccountKeyletDeterministic(t *testing.T) {
	a := Account("alice")
	b := Account("alice")
	c := Account("bob")

	assert.Equal(t, a, b, "same address must derive the same keylet")
	assert.NotEqual(t, a.Key, c.Key, "different addresses must derive different keys")
	assert.Equal(t, TypeAccount, a.Type)
}

func TestAllowanceKeyletSeparator(t *testing.T) {
	// The separator byte prevents (owner+spender) concatenation collisions.
	a := Allowance("ab", "c")
	b := Allowance("a", "bc")
	assert.NotEqual(t, a.Key, b.Key)
}

func TestSingletonsDistinct(t *testing.T) {
	keys := map[[32]byte]string{}
	for _, k := range []Keylet{TokenInfo(), TaxConfig(), AntiWhale(), ContractConfig()} {
		if prev, dup := keys[k.Key]; dup {
			t.Fatalf("keylet collision between %s and %s", prev, k.Type)
		}
		keys[k.Key] = k.Type.String()
	}
}

func TestExemptionDiffersFromAccount(t *testing.T) {
	assert.NotEqual(t, Account("alice").Key, Exemption("alice").Key)
}
