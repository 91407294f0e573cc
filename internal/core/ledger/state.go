package ledger

import (
	"fmt"
	"sort"

	"github.com/trueeth/cw20-reflection/internal/core/ledger/keylet"
)

// State is the mutable entry map behind an open ledger. It implements
// token.StateView. It is not synchronized; the owning service serializes
// access.
type State struct {
	entries map[keylet.Keylet][]byte
}

// NewState creates an empty state.
func NewState() *State {
	return &State{entries: make(map[keylet.Keylet][]byte)}
}

// Read returns the entry stored at k, or nil when absent.
func (s *State) Read(k keylet.Keylet) ([]byte, error) {
	data, ok := s.entries[k]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Exists reports whether an entry is stored at k.
func (s *State) Exists(k keylet.Keylet) (bool, error) {
	_, ok := s.entries[k]
	return ok, nil
}

// Insert stores a new entry at k.
func (s *State) Insert(k keylet.Keylet, data []byte) error {
	if _, ok := s.entries[k]; ok {
		return fmt.Errorf("entry already exists at %x", k.Key)
	}
	s.entries[k] = cloneBytes(data)
	return nil
}

// Update replaces the entry at k.
func (s *State) Update(k keylet.Keylet, data []byte) error {
	if _, ok := s.entries[k]; !ok {
		return fmt.Errorf("no entry to update at %x", k.Key)
	}
	s.entries[k] = cloneBytes(data)
	return nil
}

// Erase removes the entry at k.
func (s *State) Erase(k keylet.Keylet) error {
	if _, ok := s.entries[k]; !ok {
		return fmt.Errorf("no entry to erase at %x", k.Key)
	}
	delete(s.entries, k)
	return nil
}

// Len returns the number of entries.
func (s *State) Len() int {
	return len(s.entries)
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	out := NewState()
	for k, v := range s.entries {
		out.entries[k] = cloneBytes(v)
	}
	return out
}

// Entries returns all entries sorted by key bytes. The canonical snapshot
// encoding and the state hash both derive from this ordering.
func (s *State) Entries() []SnapshotEntry {
	out := make([]SnapshotEntry, 0, len(s.entries))
	for k, v := range s.entries {
		out = append(out, SnapshotEntry{
			Type: uint8(k.Type),
			Key:  k.Key[:],
			Data: cloneBytes(v),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return string(out[i].Key) < string(out[j].Key)
	})
	return out
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
