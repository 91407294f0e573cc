package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trueeth/cw20-reflection/internal/core/ledger/keylet"
	"github.com/trueeth/cw20-reflection/internal/types"
)

func testState(t *testing.T) *State {
	t.Helper()
	state := NewState()
	require.NoError(t, state.Insert(keylet.Account("alice"), []byte("alice-account")))
	require.NoError(t, state.Insert(keylet.Account("bob"), []byte("bob-account")))
	require.NoError(t, state.Insert(keylet.TokenInfo(), []byte("token-info")))
	return state
}

func TestCloseGenesisLedger(t *testing.T) {
	state := testState(t)

	l, err := Close(nil, state, nil, time.Unix(1700000000, 0))
	require.NoError(t, err)

	require.Equal(t, uint32(1), l.Sequence())
	require.True(t, l.Header().ParentHash.IsZero())
	require.False(t, l.Hash().IsZero())
	require.False(t, l.StateHash().IsZero())
	require.Equal(t, uint32(0), l.Header().TxCount)
	require.Len(t, l.Entries(), 3)
}

func TestCloseChainsParent(t *testing.T) {
	state := testState(t)

	genesis, err := Close(nil, state, nil, time.Unix(1700000000, 0))
	require.NoError(t, err)

	txHash := types.Hash256FromData([]byte("some tx"))
	next, err := Close(genesis, state, []types.Hash256{txHash}, time.Unix(1700000005, 0))
	require.NoError(t, err)

	require.Equal(t, uint32(2), next.Sequence())
	require.Equal(t, genesis.Hash(), next.Header().ParentHash)
	require.Equal(t, uint32(1), next.Header().TxCount)
	require.Equal(t, []types.Hash256{txHash}, next.TxHashes())

	// Same entries close to the same state hash.
	require.Equal(t, genesis.StateHash(), next.StateHash())
	// But the headers differ, so the ledger hashes differ.
	require.NotEqual(t, genesis.Hash(), next.Hash())
}

func TestStateHashTracksEntries(t *testing.T) {
	state := testState(t)
	before, err := Close(nil, state, nil, time.Unix(1700000000, 0))
	require.NoError(t, err)

	require.NoError(t, state.Update(keylet.Account("bob"), []byte("bob-richer")))
	after, err := Close(before, state, nil, time.Unix(1700000000, 0))
	require.NoError(t, err)

	require.NotEqual(t, before.StateHash(), after.StateHash())
}

func TestSnapshotRoundTrip(t *testing.T) {
	state := testState(t)
	l, err := Close(nil, state, nil, time.Unix(1700000000, 0))
	require.NoError(t, err)

	headerData, err := l.EncodeHeader()
	require.NoError(t, err)
	snapshotData, err := l.EncodeSnapshot()
	require.NoError(t, err)

	restored, err := FromSnapshot(headerData, snapshotData, nil)
	require.NoError(t, err)
	require.Equal(t, l.Hash(), restored.Hash())
	require.Equal(t, l.Sequence(), restored.Sequence())
	require.Equal(t, l.Entries(), restored.Entries())

	rebuilt := restored.StateAt()
	data, err := rebuilt.Read(keylet.Account("alice"))
	require.NoError(t, err)
	require.Equal(t, []byte("alice-account"), data)
}

func TestFromSnapshotRejectsTamperedState(t *testing.T) {
	state := testState(t)
	l, err := Close(nil, state, nil, time.Unix(1700000000, 0))
	require.NoError(t, err)

	headerData, err := l.EncodeHeader()
	require.NoError(t, err)
	snapshotData, err := l.EncodeSnapshot()
	require.NoError(t, err)
	snapshotData[len(snapshotData)-1] ^= 0xFF

	_, err = FromSnapshot(headerData, snapshotData, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "state hash mismatch")
}

func TestStateCloneIsolation(t *testing.T) {
	state := testState(t)
	clone := state.Clone()

	require.NoError(t, clone.Update(keylet.TokenInfo(), []byte("changed")))

	original, err := state.Read(keylet.TokenInfo())
	require.NoError(t, err)
	require.Equal(t, []byte("token-info"), original)
}

func TestEntriesSortedByKey(t *testing.T) {
	state := testState(t)
	entries := state.Entries()
	for i := 1; i < len(entries); i++ {
		require.Less(t, string(entries[i-1].Key), string(entries[i].Key))
	}
}
