package service

import (
	"context"
	"fmt"

	"github.com/trueeth/cw20-reflection/internal/core/ledger"
	"github.com/trueeth/cw20-reflection/internal/storage/nodestore"
)

// persistLedger writes the ledger header, its full state snapshot, and the
// raw transaction (when present) to the node store in one batch, then syncs.
func (s *Service) persistLedger(ctx context.Context, l *ledger.Ledger, rawTx []byte) error {
	if s.nodeStore == nil {
		return nil
	}

	headerData, err := l.EncodeHeader()
	if err != nil {
		return err
	}
	snapshotData, err := l.EncodeSnapshot()
	if err != nil {
		return err
	}

	seq := l.Sequence()
	nodes := []*nodestore.Node{
		nodestore.NewNode(nodestore.NodeLedgerHeader, headerData, seq),
		nodestore.NewNode(nodestore.NodeStateSnapshot, snapshotData, seq),
	}
	if rawTx != nil {
		nodes = append(nodes, nodestore.NewNode(nodestore.NodeTransaction, rawTx, seq))
	}

	if err := s.nodeStore.StoreBatch(ctx, nodes); err != nil {
		return fmt.Errorf("persist ledger %d: %w", seq, err)
	}
	if err := s.nodeStore.Sync(); err != nil {
		return fmt.Errorf("sync ledger %d: %w", seq, err)
	}
	return nil
}
