package tx

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trueeth/cw20-reflection/internal/core/token"
)

func allowanceOf(t *testing.T, v token.StateView, owner, spender string) uint64 {
	t.Helper()
	a, err := token.ReadAllowance(v, owner, spender)
	require.NoError(t, err)
	return a.Amount
}

func TestAllowanceLifecycle(t *testing.T) {
	v := setupState(t)
	engine := NewEngine(v, EngineConfig{})

	result := engine.Apply(&IncreaseAllowance{
		Common:  Common{Sender: "alice"},
		Spender: "carol",
		Amount:  5000,
	})
	require.Equal(t, TesSUCCESS, result.Result)
	require.Equal(t, uint64(5000), allowanceOf(t, v, "alice", "carol"))

	result = engine.Apply(&TransferFrom{
		Common:    Common{Sender: "carol"},
		Owner:     "alice",
		Recipient: "bob",
		Amount:    1000,
	})
	require.Equal(t, TesSUCCESS, result.Result, result.Message)
	require.Equal(t, uint64(4000), allowanceOf(t, v, "alice", "carol"))
	require.Equal(t, uint64(900), engineBalance(t, v, "bob"))

	result = engine.Apply(&DecreaseAllowance{
		Common:  Common{Sender: "alice"},
		Spender: "carol",
		Amount:  9999,
	})
	require.Equal(t, TesSUCCESS, result.Result)
	require.Equal(t, uint64(0), allowanceOf(t, v, "alice", "carol"))
}

func TestTransferFromInsufficientAllowance(t *testing.T) {
	v := setupState(t)
	engine := NewEngine(v, EngineConfig{})

	result := engine.Apply(&TransferFrom{
		Common:    Common{Sender: "carol"},
		Owner:     "alice",
		Recipient: "bob",
		Amount:    1000,
	})
	require.Equal(t, TecINSUFFICIENT_ALLOWANCE, result.Result)
	require.Equal(t, uint64(1_000_000), engineBalance(t, v, "alice"))
	require.Equal(t, uint64(0), engineBalance(t, v, "bob"))
}

func TestBurnReducesSupply(t *testing.T) {
	v := setupState(t)
	engine := NewEngine(v, EngineConfig{})

	result := engine.Apply(&Burn{
		Common: Common{Sender: "alice"},
		Amount: 10_000,
	})
	require.Equal(t, TesSUCCESS, result.Result, result.Message)
	require.Equal(t, uint64(990_000), engineBalance(t, v, "alice"))

	info, err := token.ReadTokenInfo(v)
	require.NoError(t, err)
	require.Equal(t, uint64(990_000), info.TotalSupply)
}

func TestBurnFromSpendsAllowance(t *testing.T) {
	v := setupState(t)
	engine := NewEngine(v, EngineConfig{})

	result := engine.Apply(&IncreaseAllowance{
		Common:  Common{Sender: "alice"},
		Spender: "carol",
		Amount:  500,
	})
	require.Equal(t, TesSUCCESS, result.Result)

	result = engine.Apply(&BurnFrom{
		Common: Common{Sender: "carol"},
		Owner:  "alice",
		Amount: 500,
	})
	require.Equal(t, TesSUCCESS, result.Result, result.Message)
	require.Equal(t, uint64(999_500), engineBalance(t, v, "alice"))
	require.Equal(t, uint64(0), allowanceOf(t, v, "alice", "carol"))

	result = engine.Apply(&BurnFrom{
		Common: Common{Sender: "carol"},
		Owner:  "alice",
		Amount: 1,
	})
	require.Equal(t, TecINSUFFICIENT_ALLOWANCE, result.Result)
}

func TestMintAuthorization(t *testing.T) {
	v := setupState(t)
	engine := NewEngine(v, EngineConfig{})

	result := engine.Apply(&Mint{
		Common:    Common{Sender: "mallory"},
		Recipient: "mallory",
		Amount:    1000,
	})
	require.Equal(t, TecNO_PERMISSION, result.Result)

	result = engine.Apply(&Mint{
		Common:    Common{Sender: "minter"},
		Recipient: "bob",
		Amount:    1000,
	})
	require.Equal(t, TesSUCCESS, result.Result, result.Message)
	require.Equal(t, uint64(1000), engineBalance(t, v, "bob"))
}

func TestMintCap(t *testing.T) {
	v := newTestView()
	require.NoError(t, token.WriteTokenInfo(v, &token.TokenInfoEntry{
		Name: "Capped", Symbol: "CAP", Decimals: 0,
		Minter: "minter", Cap: 1_000_500,
	}))
	require.NoError(t, token.NewReflectionLedger(v).Mint("alice", 1_000_000))
	engine := NewEngine(v, EngineConfig{})

	result := engine.Apply(&Mint{
		Common:    Common{Sender: "minter"},
		Recipient: "bob",
		Amount:    501,
	})
	require.Equal(t, TecMINT_CAP, result.Result)

	result = engine.Apply(&Mint{
		Common:    Common{Sender: "minter"},
		Recipient: "bob",
		Amount:    500,
	})
	require.Equal(t, TesSUCCESS, result.Result, result.Message)
}

func TestAdminGuard(t *testing.T) {
	v := setupState(t)
	engine := NewEngine(v, EngineConfig{})

	for _, msg := range []Message{
		&SetTaxRates{Common: Common{Sender: "mallory"}, BurnBps: 100},
		&SetAntiWhale{Common: Common{Sender: "mallory"}, MaxTxBps: 100},
		&SetExempt{Common: Common{Sender: "mallory"}, Account: "bob", Exempt: true},
		&SetExcluded{Common: Common{Sender: "mallory"}, Account: "bob", Excluded: true},
		&SetTreasury{Common: Common{Sender: "mallory"}, Treasury: "mallory"},
		&SetAdmin{Common: Common{Sender: "mallory"}, Admin: "mallory"},
	} {
		result := engine.Apply(msg)
		require.Equal(t, TecNO_PERMISSION, result.Result, "message %s", msg.MsgType())
	}
}

func TestSetTaxRatesValidation(t *testing.T) {
	v := setupState(t)
	engine := NewEngine(v, EngineConfig{})

	result := engine.Apply(&SetTaxRates{
		Common:  Common{Sender: "admin"},
		BurnBps: 6000, ReflectBps: 6000,
	})
	require.Equal(t, TemBAD_RATES, result.Result)

	result = engine.Apply(&SetTaxRates{
		Common:  Common{Sender: "admin"},
		BurnBps: 100, ReflectBps: 100, TreasuryBps: 100,
	})
	require.Equal(t, TesSUCCESS, result.Result, result.Message)

	cfg, err := token.ReadTaxConfig(v)
	require.NoError(t, err)
	require.Equal(t, uint32(100), cfg.BurnBps)
}

func TestSetTaxRatesRequiresTreasuryForTreasuryShare(t *testing.T) {
	v := setupState(t)
	require.NoError(t, token.WriteContractConfig(v, &token.ContractConfigEntry{Admin: "admin"}))
	engine := NewEngine(v, EngineConfig{})

	result := engine.Apply(&SetTaxRates{
		Common:      Common{Sender: "admin"},
		TreasuryBps: 100,
	})
	require.Equal(t, TecNO_TREASURY, result.Result)
}

func TestSetExcludedThroughEngine(t *testing.T) {
	v := setupState(t)
	engine := NewEngine(v, EngineConfig{})

	result := engine.Apply(&SetExcluded{
		Common:  Common{Sender: "admin"},
		Account: "alice", Excluded: true,
	})
	require.Equal(t, TesSUCCESS, result.Result, result.Message)
	require.Equal(t, uint64(1_000_000), engineBalance(t, v, "alice"))

	info, err := token.ReadTokenInfo(v)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000), info.TotalExcluded)
}

func TestAdminHandover(t *testing.T) {
	v := setupState(t)
	engine := NewEngine(v, EngineConfig{})

	result := engine.Apply(&SetAdmin{Common: Common{Sender: "admin"}, Admin: "admin2"})
	require.Equal(t, TesSUCCESS, result.Result)

	result = engine.Apply(&SetAntiWhale{Common: Common{Sender: "admin"}, MaxTxBps: 100})
	require.Equal(t, TecNO_PERMISSION, result.Result)

	result = engine.Apply(&SetAntiWhale{Common: Common{Sender: "admin2"}, MaxTxBps: 100})
	require.Equal(t, TesSUCCESS, result.Result)

	// Renouncing disables all admin messages.
	result = engine.Apply(&SetAdmin{Common: Common{Sender: "admin2"}, Admin: ""})
	require.Equal(t, TesSUCCESS, result.Result)
	result = engine.Apply(&SetAntiWhale{Common: Common{Sender: "admin2"}, MaxTxBps: 200})
	require.Equal(t, TecNO_PERMISSION, result.Result)
}

func TestFromJSON(t *testing.T) {
	msg, err := FromJSON([]byte(`{"type":"transfer","sender":"alice","recipient":"bob","amount":"1000"}`))
	require.NoError(t, err)

	transfer, ok := msg.(*Transfer)
	require.True(t, ok)
	require.Equal(t, "alice", transfer.Sender)
	require.Equal(t, "bob", transfer.Recipient)
	require.Equal(t, uint64(1000), transfer.Amount)

	_, err = FromJSON([]byte(`{"type":"liquify"}`))
	require.ErrorIs(t, err, ErrUnknownMessageType)
}

func TestMessageHashDeterministic(t *testing.T) {
	a := &Transfer{Common: Common{Sender: "alice"}, Recipient: "bob", Amount: 1000}
	b := &Transfer{Common: Common{Sender: "alice"}, Recipient: "bob", Amount: 1000}
	c := &Transfer{Common: Common{Sender: "alice"}, Recipient: "bob", Amount: 1001}

	ha, err := MessageHash(a)
	require.NoError(t, err)
	hb, err := MessageHash(b)
	require.NoError(t, err)
	hc, err := MessageHash(c)
	require.NoError(t, err)

	require.Equal(t, ha, hb)
	require.NotEqual(t, ha, hc)
}
