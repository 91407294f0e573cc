// Package ledger defines the closed-ledger model: an immutable header plus
// the full state snapshot taken when the ledger closed. Headers chain by
// parent hash; the state hash commits to the canonical snapshot encoding, so
// two nodes holding the same entries produce identical ledger hashes.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/ugorji/go/codec"

	"github.com/trueeth/cw20-reflection/internal/core/ledger/keylet"
	"github.com/trueeth/cw20-reflection/internal/types"
)

var cborHandle = func() *codec.CborHandle {
	h := &codec.CborHandle{}
	h.Canonical = true
	return h
}()

// Header identifies a closed ledger and commits to its contents.
type Header struct {
	Sequence   uint32        `codec:"sequence"`
	ParentHash types.Hash256 `codec:"parent_hash"`
	StateHash  types.Hash256 `codec:"state_hash"`
	CloseTime  int64         `codec:"close_time"` // unix seconds, UTC
	TxCount    uint32        `codec:"tx_count"`
}

// SnapshotEntry is one state entry in canonical snapshot form.
type SnapshotEntry struct {
	Type uint8  `codec:"type"`
	Key  []byte `codec:"key"`
	Data []byte `codec:"data"`
}

// Ledger is a closed, immutable ledger.
type Ledger struct {
	header   Header
	hash     types.Hash256
	entries  []SnapshotEntry
	txHashes []types.Hash256
}

// Close seals the given state into a new ledger following parent. A nil
// parent closes the genesis ledger at sequence 1.
func Close(parent *Ledger, state *State, txHashes []types.Hash256, closeTime time.Time) (*Ledger, error) {
	if state == nil {
		return nil, errors.New("cannot close nil state")
	}

	entries := state.Entries()
	snapshot, err := encodeSnapshot(entries)
	if err != nil {
		return nil, err
	}

	header := Header{
		Sequence:  1,
		StateHash: types.Hash256FromData(snapshot),
		CloseTime: closeTime.UTC().Unix(),
		TxCount:   uint32(len(txHashes)),
	}
	if parent != nil {
		header.Sequence = parent.Sequence() + 1
		header.ParentHash = parent.Hash()
	}

	headerBytes, err := encodeHeader(&header)
	if err != nil {
		return nil, err
	}

	hashes := make([]types.Hash256, len(txHashes))
	copy(hashes, txHashes)

	return &Ledger{
		header:   header,
		hash:     types.Hash256FromData(headerBytes),
		entries:  entries,
		txHashes: hashes,
	}, nil
}

// Sequence returns the ledger sequence number.
func (l *Ledger) Sequence() uint32 { return l.header.Sequence }

// Hash returns the ledger hash, the SHA-256 of the canonical header.
func (l *Ledger) Hash() types.Hash256 { return l.hash }

// Header returns a copy of the header.
func (l *Ledger) Header() Header { return l.header }

// StateHash returns the hash of the canonical state snapshot.
func (l *Ledger) StateHash() types.Hash256 { return l.header.StateHash }

// CloseTime returns when the ledger closed.
func (l *Ledger) CloseTime() time.Time { return time.Unix(l.header.CloseTime, 0).UTC() }

// TxHashes returns the hashes of the transactions in this ledger.
func (l *Ledger) TxHashes() []types.Hash256 {
	out := make([]types.Hash256, len(l.txHashes))
	copy(out, l.txHashes)
	return out
}

// Entries returns the snapshot entries in canonical order.
func (l *Ledger) Entries() []SnapshotEntry {
	return l.entries
}

// StateAt rebuilds a mutable state from the snapshot.
func (l *Ledger) StateAt() *State {
	state := NewState()
	for _, e := range l.entries {
		var k keylet.Keylet
		k.Type = keylet.EntryType(e.Type)
		copy(k.Key[:], e.Key)
		state.entries[k] = cloneBytes(e.Data)
	}
	return state
}

// EncodeHeader returns the canonical CBOR encoding of the header.
func (l *Ledger) EncodeHeader() ([]byte, error) {
	return encodeHeader(&l.header)
}

// EncodeSnapshot returns the canonical CBOR encoding of the state snapshot.
func (l *Ledger) EncodeSnapshot() ([]byte, error) {
	return encodeSnapshot(l.entries)
}

func encodeHeader(h *Header) ([]byte, error) {
	var buf []byte
	if err := codec.NewEncoderBytes(&buf, cborHandle).Encode(h); err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	return buf, nil
}

// DecodeHeader parses a canonical CBOR header.
func DecodeHeader(data []byte) (*Header, error) {
	var h Header
	if err := codec.NewDecoderBytes(data, cborHandle).Decode(&h); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	return &h, nil
}

func encodeSnapshot(entries []SnapshotEntry) ([]byte, error) {
	var buf []byte
	if err := codec.NewEncoderBytes(&buf, cborHandle).Encode(entries); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf, nil
}

// DecodeSnapshot parses a canonical CBOR snapshot.
func DecodeSnapshot(data []byte) ([]SnapshotEntry, error) {
	var entries []SnapshotEntry
	if err := codec.NewDecoderBytes(data, cborHandle).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return entries, nil
}

// FromSnapshot reconstructs a closed ledger from its persisted header and
// snapshot encodings, verifying the state hash.
func FromSnapshot(headerData, snapshotData []byte, txHashes []types.Hash256) (*Ledger, error) {
	header, err := DecodeHeader(headerData)
	if err != nil {
		return nil, err
	}

	if got := types.Hash256FromData(snapshotData); got != header.StateHash {
		return nil, fmt.Errorf("state hash mismatch: header %s snapshot %s", header.StateHash, got)
	}

	entries, err := DecodeSnapshot(snapshotData)
	if err != nil {
		return nil, err
	}

	hashes := make([]types.Hash256, len(txHashes))
	copy(hashes, txHashes)

	return &Ledger{
		header:   *header,
		hash:     types.Hash256FromData(headerData),
		entries:  entries,
		txHashes: hashes,
	}, nil
}
