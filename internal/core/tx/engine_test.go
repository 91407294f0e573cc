package tx

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trueeth/cw20-reflection/internal/core/ledger/keylet"
	"github.com/trueeth/cw20-reflection/internal/core/token"
	"github.com/trueeth/cw20-reflection/internal/types"
)

// testView is an in-memory base view with strict semantics.
type testView struct {
	entries map[keylet.Keylet][]byte
}

func newTestView() *testView {
	return &testView{entries: make(map[keylet.Keylet][]byte)}
}

func (v *testView) Read(k keylet.Keylet) ([]byte, error) {
	data, ok := v.entries[k]
	if !ok {
		return nil, nil
	}
	return data, nil
}

func (v *testView) Exists(k keylet.Keylet) (bool, error) {
	_, ok := v.entries[k]
	return ok, nil
}

func (v *testView) Insert(k keylet.Keylet, data []byte) error {
	if _, ok := v.entries[k]; ok {
		return fmt.Errorf("insert: entry already exists")
	}
	v.entries[k] = data
	return nil
}

func (v *testView) Update(k keylet.Keylet, data []byte) error {
	if _, ok := v.entries[k]; !ok {
		return fmt.Errorf("update: entry does not exist")
	}
	v.entries[k] = data
	return nil
}

func (v *testView) Erase(k keylet.Keylet) error {
	if _, ok := v.entries[k]; !ok {
		return fmt.Errorf("erase: entry does not exist")
	}
	delete(v.entries, k)
	return nil
}

// setupState seeds a 1,000,000 supply held by alice, a 2%/5%/3% tax split,
// an admin and a treasury.
func setupState(t *testing.T) *testView {
	t.Helper()
	v := newTestView()
	require.NoError(t, token.WriteTokenInfo(v, &token.TokenInfoEntry{
		Name:     "Reflect Test",
		Symbol:   "RFT",
		Decimals: 6,
		Minter:   "minter",
	}))
	require.NoError(t, token.NewReflectionLedger(v).Mint("alice", 1_000_000))
	require.NoError(t, token.WriteContractConfig(v, &token.ContractConfigEntry{
		Admin:    "admin",
		Treasury: "treasury",
	}))
	require.NoError(t, token.WriteTaxConfig(v, &token.TaxConfigEntry{
		BurnBps:     200,
		ReflectBps:  500,
		TreasuryBps: 300,
	}))
	return v
}

func engineBalance(t *testing.T, v token.StateView, addr types.Address) uint64 {
	t.Helper()
	b, err := token.NewReflectionLedger(v).BalanceOf(addr)
	require.NoError(t, err)
	return b
}

func TestEngineTaxedTransfer(t *testing.T) {
	v := setupState(t)
	engine := NewEngine(v, EngineConfig{})

	result := engine.Apply(&Transfer{
		Common:    Common{Sender: "alice"},
		Recipient: "bob",
		Amount:    1000,
	})
	require.Equal(t, TesSUCCESS, result.Result, result.Message)
	require.True(t, result.Applied)
	require.NotNil(t, result.Metadata)
	require.Equal(t, &token.TaxSplit{
		Gross: 1000, Net: 900, Burn: 20, Reflect: 50, Treasury: 30,
	}, result.Metadata.Split)
	require.False(t, result.TxHash.IsZero())
	require.NotEmpty(t, result.Metadata.AffectedNodes)

	require.Equal(t, uint64(900), engineBalance(t, v, "bob"))
	require.Equal(t, uint64(30), engineBalance(t, v, "treasury"))
	require.Equal(t, uint64(999049), engineBalance(t, v, "alice"))

	info, err := token.ReadTokenInfo(v)
	require.NoError(t, err)
	require.Equal(t, uint64(999980), info.TotalSupply)
	require.Equal(t, uint64(50), info.ReflectedFees)

	sum := engineBalance(t, v, "alice") + engineBalance(t, v, "bob") + engineBalance(t, v, "treasury")
	require.LessOrEqual(t, sum, info.TotalSupply)
	require.LessOrEqual(t, info.TotalSupply-sum, uint64(3))
}

func TestEngineZeroAmountTransferIsNoOp(t *testing.T) {
	v := setupState(t)
	engine := NewEngine(v, EngineConfig{})

	result := engine.Apply(&Transfer{
		Common:    Common{Sender: "alice"},
		Recipient: "bob",
		Amount:    0,
	})
	require.Equal(t, TesSUCCESS, result.Result)
	require.Equal(t, uint64(1_000_000), engineBalance(t, v, "alice"))
	require.Equal(t, uint64(0), engineBalance(t, v, "bob"))

	info, err := token.ReadTokenInfo(v)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000), info.TotalSupply)
}

func TestEngineInsufficientFundsLeavesStateUntouched(t *testing.T) {
	v := setupState(t)
	engine := NewEngine(v, EngineConfig{})

	result := engine.Apply(&Transfer{
		Common:    Common{Sender: "alice"},
		Recipient: "bob",
		Amount:    2_000_000,
	})
	require.Equal(t, TecINSUFFICIENT_FUNDS, result.Result)
	require.False(t, result.Applied)

	require.Equal(t, uint64(1_000_000), engineBalance(t, v, "alice"))
	require.Equal(t, uint64(0), engineBalance(t, v, "bob"))
	require.Equal(t, uint64(0), engineBalance(t, v, "treasury"))
}

func TestEngineExemptTransferUntaxed(t *testing.T) {
	v := setupState(t)
	require.NoError(t, token.WriteExemption(v, "alice", &token.ExemptionEntry{TaxExempt: true}))
	engine := NewEngine(v, EngineConfig{})

	result := engine.Apply(&Transfer{
		Common:    Common{Sender: "alice"},
		Recipient: "bob",
		Amount:    1000,
	})
	require.Equal(t, TesSUCCESS, result.Result)
	require.Equal(t, uint64(1000), engineBalance(t, v, "bob"))
	require.Equal(t, uint64(999_000), engineBalance(t, v, "alice"))
	require.Equal(t, uint64(0), engineBalance(t, v, "treasury"))

	info, err := token.ReadTokenInfo(v)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000), info.TotalSupply)
}

func TestEngineAntiWhaleRejectionZeroMutation(t *testing.T) {
	v := setupState(t)
	require.NoError(t, token.WriteAntiWhale(v, &token.AntiWhaleEntry{MaxTxBps: 100}))
	engine := NewEngine(v, EngineConfig{})

	result := engine.Apply(&Transfer{
		Common:    Common{Sender: "alice"},
		Recipient: "bob",
		Amount:    20_000,
	})
	require.Equal(t, TecWHALE_LIMIT, result.Result)
	require.False(t, result.Applied)
	require.Equal(t, uint64(1_000_000), engineBalance(t, v, "alice"))
	require.Equal(t, uint64(0), engineBalance(t, v, "bob"))
}

// failingTreasury refuses every deposit.
type failingTreasury struct{}

func (failingTreasury) Deposit(*token.ReflectionLedger, uint64) error {
	return fmt.Errorf("treasury unavailable")
}

func TestEngineTreasuryFailureRollsBackTransfer(t *testing.T) {
	v := setupState(t)
	engine := NewEngine(v, EngineConfig{})
	engine.SetTreasury(failingTreasury{})

	result := engine.Apply(&Transfer{
		Common:    Common{Sender: "alice"},
		Recipient: "bob",
		Amount:    1000,
	})
	require.Equal(t, TecTREASURY_FORWARD, result.Result)
	require.False(t, result.Applied)

	// The debit and net credit happened inside the staging table and must
	// be gone with it.
	require.Equal(t, uint64(1_000_000), engineBalance(t, v, "alice"))
	require.Equal(t, uint64(0), engineBalance(t, v, "bob"))

	info, err := token.ReadTokenInfo(v)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000), info.TotalSupply)
	require.Equal(t, uint64(0), info.ReflectedFees)
}

func TestEngineSelfTransferRejected(t *testing.T) {
	v := setupState(t)
	engine := NewEngine(v, EngineConfig{})

	result := engine.Apply(&Transfer{
		Common:    Common{Sender: "alice"},
		Recipient: "alice",
		Amount:    10,
	})
	require.Equal(t, TemDST_IS_SRC, result.Result)
}

func TestEngineBadAddressRejected(t *testing.T) {
	v := setupState(t)
	engine := NewEngine(v, EngineConfig{})

	result := engine.Apply(&Transfer{
		Common:    Common{Sender: "alice"},
		Recipient: "NO UPPER CASE",
		Amount:    10,
	})
	require.Equal(t, TemBAD_ADDRESS, result.Result)

	result = engine.Apply(&Transfer{
		Common:    Common{Sender: "x"},
		Recipient: "bob",
		Amount:    10,
	})
	require.Equal(t, TemBAD_ADDRESS, result.Result)
}

func TestEngineNoTokenInfo(t *testing.T) {
	engine := NewEngine(newTestView(), EngineConfig{})

	result := engine.Apply(&Transfer{
		Common:    Common{Sender: "alice"},
		Recipient: "bob",
		Amount:    10,
	})
	require.Equal(t, TefNO_TOKEN, result.Result)
}

func TestEngineSendCarriesPayload(t *testing.T) {
	v := setupState(t)
	engine := NewEngine(v, EngineConfig{})

	result := engine.Apply(&Send{
		Common:    Common{Sender: "alice"},
		Recipient: "pool",
		Amount:    1000,
		Msg:       []byte(`{"deposit":{}}`),
	})
	require.Equal(t, TesSUCCESS, result.Result)
	require.Len(t, result.Metadata.Events, 1)

	event := result.Metadata.Events[0]
	require.Equal(t, TypeSend, event.Type)
	var payload string
	for _, attr := range event.Attributes {
		if attr.Key == "msg" {
			payload = attr.Value
		}
	}
	require.Equal(t, `{"deposit":{}}`, payload)
}
