// Package service runs the node's ledger lifecycle: it holds the committed
// state, applies submitted messages through the transaction engine, closes
// one ledger per recorded transaction, and fans the results out to the
// snapshot store, the SQL index, and event subscribers.
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/trueeth/cw20-reflection/internal/core/ledger"
	"github.com/trueeth/cw20-reflection/internal/core/ledger/genesis"
	"github.com/trueeth/cw20-reflection/internal/core/token"
	"github.com/trueeth/cw20-reflection/internal/core/tx"
	"github.com/trueeth/cw20-reflection/internal/storage/nodestore"
	"github.com/trueeth/cw20-reflection/internal/storage/txindex"
	"github.com/trueeth/cw20-reflection/internal/types"
)

var (
	// ErrNotStarted is returned when the service has no ledger yet.
	ErrNotStarted = errors.New("ledger service not started")

	// ErrLedgerNotFound is returned for unknown ledger sequences or hashes.
	ErrLedgerNotFound = errors.New("ledger not found")
)

// Config wires the service's collaborators. NodeStore, TxIndex, and
// Publisher are optional; a nil value disables that leg of the pipeline.
type Config struct {
	Genesis   genesis.Config
	NodeStore nodestore.Database
	TxIndex   *txindex.Store
	Publisher Publisher

	// CacheSize bounds the closed-ledger LRU.
	CacheSize int
}

// Service owns the committed token ledger state.
type Service struct {
	mu sync.RWMutex

	config Config

	state         *ledger.State  // committed state, snapshot of the last closed ledger
	closedLedger  *ledger.Ledger // last closed
	genesisLedger *ledger.Ledger

	cache     *LedgerCache
	nodeStore nodestore.Database
	txIndex   *txindex.Store
	publisher Publisher
}

// SubmitResult is the outcome of a submitted message.
type SubmitResult struct {
	tx.ApplyResult

	// LedgerSeq and LedgerHash identify the ledger the transaction was
	// recorded in; zero when the message was rejected outright.
	LedgerSeq  uint32
	LedgerHash types.Hash256
}

// New creates an unstarted service.
func New(cfg Config) (*Service, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}
	cache, err := NewLedgerCache(cfg.CacheSize)
	if err != nil {
		return nil, err
	}

	return &Service{
		config:    cfg,
		cache:     cache,
		nodeStore: cfg.NodeStore,
		txIndex:   cfg.TxIndex,
		publisher: cfg.Publisher,
	}, nil
}

// Start builds and commits the genesis ledger.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	genesisLedger, err := genesis.Create(s.config.Genesis)
	if err != nil {
		return err
	}

	if err := s.persistLedger(ctx, genesisLedger, nil); err != nil {
		return err
	}

	s.genesisLedger = genesisLedger
	s.closedLedger = genesisLedger
	s.state = genesisLedger.StateAt()
	s.cache.Put(genesisLedger)
	return nil
}

// Submit applies a message against the committed state. Recorded messages
// (applied, or claimed with a tec code) close a new ledger; rejected ones
// leave the chain untouched. The returned result always carries the engine
// outcome, err reports pipeline failures only.
func (s *Service) Submit(ctx context.Context, msg tx.Message) (*SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == nil {
		return nil, ErrNotStarted
	}

	// The engine works on a throwaway copy so a persistence failure after
	// a successful apply cannot leave committed state ahead of storage.
	staging := s.state.Clone()
	engine := tx.NewEngine(staging, tx.EngineConfig{
		LedgerSequence: s.closedLedger.Sequence() + 1,
	})

	result := engine.Apply(msg)
	submit := &SubmitResult{ApplyResult: result}
	if !result.Result.IsRecorded() {
		return submit, nil
	}

	closed, err := ledger.Close(s.closedLedger, staging, []types.Hash256{result.TxHash}, time.Now())
	if err != nil {
		return submit, err
	}

	raw, err := tx.MarshalMessage(msg)
	if err != nil {
		return submit, err
	}
	if err := s.persistLedger(ctx, closed, raw); err != nil {
		return submit, err
	}
	if err := s.indexTransaction(ctx, msg, result, closed, raw); err != nil {
		return submit, err
	}

	s.state = staging
	s.closedLedger = closed
	s.cache.Put(closed)

	submit.LedgerSeq = closed.Sequence()
	submit.LedgerHash = closed.Hash()

	s.publishTransfer(msg, result, closed)
	return submit, nil
}

// indexTransaction writes one history row for a recorded transaction.
func (s *Service) indexTransaction(ctx context.Context, msg tx.Message, result tx.ApplyResult, closed *ledger.Ledger, raw []byte) error {
	if s.txIndex == nil {
		return nil
	}

	rec := &txindex.Record{
		Hash:      result.TxHash,
		LedgerSeq: closed.Sequence(),
		TxType:    msg.MsgType(),
		Sender:    types.Address(msg.GetCommon().Sender),
		Recipient: recipientOf(result.Metadata),
		Result:    result.Result.String(),
		CloseTime: closed.CloseTime(),
		Raw:       raw,
	}
	if split := splitOf(result.Metadata); split != nil {
		rec.Amount = split.Gross
		rec.Net = split.Net
		rec.BurnFee = split.Burn
		rec.ReflectFee = split.Reflect
		rec.TreasuryFee = split.Treasury
	}
	return s.txIndex.Insert(ctx, rec)
}

// publishTransfer emits a transfer event for applied transfer messages.
func (s *Service) publishTransfer(msg tx.Message, result tx.ApplyResult, closed *ledger.Ledger) {
	if s.publisher == nil || !result.Applied {
		return
	}
	split := splitOf(result.Metadata)
	if split == nil {
		return
	}

	event := TransferEvent{
		TxHash:     result.TxHash,
		LedgerSeq:  closed.Sequence(),
		LedgerHash: closed.Hash(),
		TxType:     msg.MsgType(),
		From:       types.Address(msg.GetCommon().Sender),
		To:         recipientOf(result.Metadata),
		Amount:     split.Gross,
		Net:        split.Net,
		Burn:       split.Burn,
		Reflect:    split.Reflect,
		Treasury:   split.Treasury,
		CloseTime:  closed.CloseTime(),
	}
	go s.publisher.PublishTransfer(event)
}

func splitOf(meta *tx.Metadata) *token.TaxSplit {
	if meta == nil {
		return nil
	}
	return meta.Split
}

// recipientOf pulls the recipient address out of the emitted events.
func recipientOf(meta *tx.Metadata) types.Address {
	if meta == nil {
		return ""
	}
	for _, event := range meta.Events {
		for _, attr := range event.Attributes {
			if attr.Key == "to" {
				return types.Address(attr.Value)
			}
		}
	}
	return ""
}

// ClosedLedger returns the last closed ledger.
func (s *Service) ClosedLedger() (*ledger.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closedLedger == nil {
		return nil, ErrNotStarted
	}
	return s.closedLedger, nil
}

// GenesisLedger returns the genesis ledger.
func (s *Service) GenesisLedger() (*ledger.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.genesisLedger == nil {
		return nil, ErrNotStarted
	}
	return s.genesisLedger, nil
}

// LedgerBySequence returns a recent closed ledger by sequence.
func (s *Service) LedgerBySequence(seq uint32) (*ledger.Ledger, error) {
	if l, ok := s.cache.BySequence(seq); ok {
		return l, nil
	}
	return nil, ErrLedgerNotFound
}

// LedgerByHash returns a recent closed ledger by hash.
func (s *Service) LedgerByHash(hash types.Hash256) (*ledger.Ledger, error) {
	if l, ok := s.cache.ByHash(hash); ok {
		return l, nil
	}
	return nil, ErrLedgerNotFound
}

// CacheStats reports closed-ledger cache activity.
func (s *Service) CacheStats() CacheStats {
	return s.cache.Stats()
}
