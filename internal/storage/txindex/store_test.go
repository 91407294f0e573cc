package txindex

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trueeth/cw20-reflection/internal/types"
)

func openMemoryStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), &Config{
		Driver: "sqlite",
		DSN:    ":memory:",
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func transferRecord(seq uint32, sender, recipient string) *Record {
	return &Record{
		Hash:        types.Hash256FromData([]byte(sender + recipient + string(rune(seq)))),
		LedgerSeq:   seq,
		TxType:      "transfer",
		Sender:      sender,
		Recipient:   recipient,
		Result:      "tesSUCCESS",
		Amount:      1000,
		Net:         900,
		BurnFee:     20,
		ReflectFee:  50,
		TreasuryFee: 30,
		CloseTime:   time.Unix(1700000000+int64(seq), 0),
	}
}

func TestInsertAndFetchByHash(t *testing.T) {
	store := openMemoryStore(t)
	ctx := context.Background()

	rec := transferRecord(2, "alice", "bob")
	rec.Raw = []byte(`{"type":"transfer"}`)
	require.NoError(t, store.Insert(ctx, rec))

	got, err := store.ByHash(ctx, rec.Hash)
	require.NoError(t, err)
	require.Equal(t, rec.Hash, got.Hash)
	require.Equal(t, uint32(2), got.LedgerSeq)
	require.Equal(t, "transfer", got.TxType)
	require.Equal(t, uint64(900), got.Net)
	require.Equal(t, uint64(50), got.ReflectFee)
	require.Equal(t, rec.CloseTime.UTC(), got.CloseTime)
	require.Equal(t, rec.Raw, got.Raw)
}

func TestByHashNotFound(t *testing.T) {
	store := openMemoryStore(t)

	_, err := store.ByHash(context.Background(), types.Hash256FromData([]byte("missing")))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHistoryByAccount(t *testing.T) {
	store := openMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, transferRecord(2, "alice", "bob")))
	require.NoError(t, store.Insert(ctx, transferRecord(3, "bob", "carol")))
	require.NoError(t, store.Insert(ctx, transferRecord(4, "carol", "dave")))

	// bob appears as recipient in ledger 2 and sender in ledger 3.
	records, err := store.History(ctx, "bob", 10, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, uint32(3), records[0].LedgerSeq)
	require.Equal(t, uint32(2), records[1].LedgerSeq)

	all, err := store.History(ctx, "", 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	paged, err := store.History(ctx, "", 2, 1)
	require.NoError(t, err)
	require.Len(t, paged, 2)
	require.Equal(t, uint32(3), paged[0].LedgerSeq)
}

func TestCount(t *testing.T) {
	store := openMemoryStore(t)
	ctx := context.Background()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	require.NoError(t, store.Insert(ctx, transferRecord(2, "alice", "bob")))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{Driver: "sqlite3", DSN: ":memory:"}
	require.NoError(t, cfg.Validate())
	require.Equal(t, "sqlite", cfg.Driver)
	require.Equal(t, 1, cfg.MaxOpenConns)

	cfg = &Config{Driver: "postgresql", DSN: "postgres://localhost/tokens"}
	require.NoError(t, cfg.Validate())
	require.Equal(t, "postgres", cfg.Driver)

	cfg = &Config{Driver: "mysql", DSN: "whatever"}
	require.ErrorIs(t, cfg.Validate(), ErrInvalidDriver)

	cfg = &Config{Driver: "sqlite"}
	require.Error(t, cfg.Validate())
}

func TestRebindForPostgres(t *testing.T) {
	s := &Store{config: &Config{Driver: "postgres"}}
	require.Equal(t, "INSERT INTO t VALUES ($1, $2, $3)",
		s.rebind("INSERT INTO t VALUES (?, ?, ?)"))

	s = &Store{config: &Config{Driver: "sqlite"}}
	require.Equal(t, "raw_tx BLOB", s.rebind("raw_tx BYTEA"))
}

func TestOperationsAfterClose(t *testing.T) {
	store := openMemoryStore(t)
	require.NoError(t, store.Close())

	require.ErrorIs(t, store.Insert(context.Background(), transferRecord(2, "a", "b")), ErrClosed)
	_, err := store.History(context.Background(), "", 10, 0)
	require.ErrorIs(t, err, ErrClosed)
}
