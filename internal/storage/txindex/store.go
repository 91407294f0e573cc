// Package txindex keeps the queryable transaction history in SQL. The node
// writes one row per recorded transaction at commit time; tx_history reads
// it back by account or hash. Sqlite backs single-node deployments,
// postgres is available for shared setups.
package txindex

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/trueeth/cw20-reflection/internal/types"
)

// Record is one indexed transaction.
type Record struct {
	Hash        types.Hash256
	LedgerSeq   uint32
	TxType      string
	Sender      types.Address
	Recipient   types.Address
	Result      string
	Amount      uint64
	Net         uint64
	BurnFee     uint64
	ReflectFee  uint64
	TreasuryFee uint64
	CloseTime   time.Time
	Raw         []byte
}

// Store is the SQL-backed transaction index.
type Store struct {
	db     *sql.DB
	config *Config
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS transactions (
		hash TEXT PRIMARY KEY,
		ledger_seq BIGINT NOT NULL,
		tx_type TEXT NOT NULL,
		sender TEXT NOT NULL,
		recipient TEXT NOT NULL DEFAULT '',
		result TEXT NOT NULL,
		amount BIGINT NOT NULL DEFAULT 0,
		net BIGINT NOT NULL DEFAULT 0,
		burn_fee BIGINT NOT NULL DEFAULT 0,
		reflect_fee BIGINT NOT NULL DEFAULT 0,
		treasury_fee BIGINT NOT NULL DEFAULT 0,
		close_time BIGINT NOT NULL,
		raw_tx BYTEA
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_ledger_seq ON transactions(ledger_seq)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_sender ON transactions(sender, ledger_seq)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_recipient ON transactions(recipient, ledger_seq)`,
}

// Open connects to the configured database and ensures the schema exists.
func Open(ctx context.Context, config *Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open(config.driverName(), config.DSN)
	if err != nil {
		return nil, fmt.Errorf("open tx index: %w", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &Store{db: db, config: config}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, s.rebind(stmt)); err != nil {
			db.Close()
			return nil, fmt.Errorf("init tx index schema: %w", err)
		}
	}
	return s, nil
}

// rebind rewrites ? placeholders to $n for postgres. Sqlite statements pass
// through unchanged.
func (s *Store) rebind(query string) string {
	if s.config.Driver != "postgres" {
		// sqlite has no BYTEA; BLOB is the equivalent affinity.
		return strings.ReplaceAll(query, "BYTEA", "BLOB")
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Insert records one transaction.
func (s *Store) Insert(ctx context.Context, rec *Record) error {
	if s.db == nil {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()

	query := s.rebind(`INSERT INTO transactions
		(hash, ledger_seq, tx_type, sender, recipient, result,
		 amount, net, burn_fee, reflect_fee, treasury_fee, close_time, raw_tx)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		rec.Hash.String(),
		int64(rec.LedgerSeq),
		rec.TxType,
		string(rec.Sender),
		string(rec.Recipient),
		rec.Result,
		int64(rec.Amount),
		int64(rec.Net),
		int64(rec.BurnFee),
		int64(rec.ReflectFee),
		int64(rec.TreasuryFee),
		rec.CloseTime.UTC().Unix(),
		rec.Raw,
	)
	if err != nil {
		return fmt.Errorf("index transaction %s: %w", rec.Hash, err)
	}
	return nil
}

const recordColumns = `hash, ledger_seq, tx_type, sender, recipient, result,
	amount, net, burn_fee, reflect_fee, treasury_fee, close_time, raw_tx`

func scanRecord(rows interface{ Scan(...interface{}) error }) (*Record, error) {
	var (
		rec       Record
		hashHex   string
		ledgerSeq int64
		amount    int64
		net       int64
		burnFee   int64
		reflect   int64
		treasury  int64
		closeTime int64
	)
	err := rows.Scan(&hashHex, &ledgerSeq, &rec.TxType, &rec.Sender,
		&rec.Recipient, &rec.Result, &amount, &net, &burnFee, &reflect,
		&treasury, &closeTime, &rec.Raw)
	if err != nil {
		return nil, err
	}

	hash, err := types.Hash256FromHex(hashHex)
	if err != nil {
		return nil, fmt.Errorf("corrupt hash in tx index: %w", err)
	}
	rec.Hash = hash
	rec.LedgerSeq = uint32(ledgerSeq)
	rec.Amount = uint64(amount)
	rec.Net = uint64(net)
	rec.BurnFee = uint64(burnFee)
	rec.ReflectFee = uint64(reflect)
	rec.TreasuryFee = uint64(treasury)
	rec.CloseTime = time.Unix(closeTime, 0).UTC()
	return &rec, nil
}

// ByHash looks up one transaction.
func (s *Store) ByHash(ctx context.Context, hash types.Hash256) (*Record, error) {
	if s.db == nil {
		return nil, ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()

	query := s.rebind(`SELECT ` + recordColumns + ` FROM transactions WHERE hash = ?`)
	row := s.db.QueryRowContext(ctx, query, hash.String())

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch transaction %s: %w", hash, err)
	}
	return rec, nil
}

// History returns transactions touching the account as sender or recipient,
// newest ledger first. An empty account returns global history.
func (s *Store) History(ctx context.Context, account types.Address, limit, offset int) ([]*Record, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.DefaultTimeout)
	defer cancel()

	var (
		rows *sql.Rows
		err  error
	)
	if account == "" {
		query := s.rebind(`SELECT ` + recordColumns + ` FROM transactions
			ORDER BY ledger_seq DESC LIMIT ? OFFSET ?`)
		rows, err = s.db.QueryContext(ctx, query, limit, offset)
	} else {
		query := s.rebind(`SELECT ` + recordColumns + ` FROM transactions
			WHERE sender = ? OR recipient = ?
			ORDER BY ledger_seq DESC LIMIT ? OFFSET ?`)
		rows, err = s.db.QueryContext(ctx, query, string(account), string(account), limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("query tx history: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tx history: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tx history: %w", err)
	}
	return records, nil
}

// Count returns the number of indexed transactions.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, ErrClosed
	}

	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return count, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
