package tx

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/trueeth/cw20-reflection/internal/core/ledger/keylet"
	"github.com/trueeth/cw20-reflection/internal/core/token"
)

// Action represents the type of modification to a ledger entry.
type Action int

const (
	// ActionCache means the entry was read but not modified.
	ActionCache Action = iota
	// ActionInsert means a new entry was created.
	ActionInsert
	// ActionModify means an existing entry was modified.
	ActionModify
	// ActionErase means an entry was deleted.
	ActionErase
)

// trackedEntry is a ledger entry staged for changes.
type trackedEntry struct {
	action   Action
	original []byte // state in the base view (nil for inserts)
	current  []byte // staged state (meaningful for insert/modify)
}

// StateTable wraps a base StateView and stages all modifications. Nothing
// touches the base until Apply; discarding the table discards every staged
// write, which is what makes a failing message atomic.
type StateTable struct {
	base  token.StateView
	items map[keylet.Keylet]*trackedEntry
}

// NewStateTable creates a staging table over the given base view.
func NewStateTable(base token.StateView) *StateTable {
	return &StateTable{
		base:  base,
		items: make(map[keylet.Keylet]*trackedEntry),
	}
}

// Read returns the staged entry state, falling back to the base view.
func (t *StateTable) Read(k keylet.Keylet) ([]byte, error) {
	if entry, ok := t.items[k]; ok {
		if entry.action == ActionErase {
			return nil, nil
		}
		return entry.current, nil
	}

	data, err := t.base.Read(k)
	if err != nil {
		return nil, err
	}
	if data != nil {
		t.items[k] = &trackedEntry{
			action:   ActionCache,
			original: data,
			current:  data,
		}
	}
	return data, nil
}

// Exists checks if an entry exists in the staged state.
func (t *StateTable) Exists(k keylet.Keylet) (bool, error) {
	if entry, ok := t.items[k]; ok {
		return entry.action != ActionErase, nil
	}
	return t.base.Exists(k)
}

// Insert stages a new entry.
func (t *StateTable) Insert(k keylet.Keylet, data []byte) error {
	if entry, ok := t.items[k]; ok {
		if entry.action != ActionErase {
			return fmt.Errorf("insert %s: entry already exists", k.Type)
		}
		// Re-inserting a deleted entry becomes a modify.
		entry.action = ActionModify
		entry.current = data
		return nil
	}

	exists, err := t.base.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("insert %s: entry already exists", k.Type)
	}

	t.items[k] = &trackedEntry{
		action:  ActionInsert,
		current: data,
	}
	return nil
}

// Update stages a modification of an existing entry.
func (t *StateTable) Update(k keylet.Keylet, data []byte) error {
	if entry, ok := t.items[k]; ok {
		if entry.action == ActionErase {
			return fmt.Errorf("update %s: entry deleted", k.Type)
		}
		if entry.action == ActionCache {
			entry.action = ActionModify
		}
		// An insert being updated stays an insert with new data.
		entry.current = data
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("update %s: entry not found", k.Type)
	}

	t.items[k] = &trackedEntry{
		action:   ActionModify,
		original: original,
		current:  data,
	}
	return nil
}

// Erase stages the deletion of an entry.
func (t *StateTable) Erase(k keylet.Keylet) error {
	if entry, ok := t.items[k]; ok {
		if entry.action == ActionErase {
			return fmt.Errorf("erase %s: entry already deleted", k.Type)
		}
		if entry.action == ActionInsert {
			// Insert then delete nets out to no change.
			delete(t.items, k)
			return nil
		}
		entry.action = ActionErase
		return nil
	}

	original, err := t.base.Read(k)
	if err != nil {
		return err
	}
	if original == nil {
		return fmt.Errorf("erase %s: entry not found", k.Type)
	}

	t.items[k] = &trackedEntry{
		action:   ActionErase,
		original: original,
		current:  original,
	}
	return nil
}

// Apply flushes all staged changes to the base view and returns the list of
// affected nodes. Entries are processed in key order so metadata and base
// writes are deterministic.
func (t *StateTable) Apply() ([]AffectedNode, error) {
	keys := make([]keylet.Keylet, 0, len(t.items))
	for k := range t.items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i].Key[:], keys[j].Key[:]) < 0
	})

	nodes := make([]AffectedNode, 0, len(keys))
	for _, k := range keys {
		entry := t.items[k]
		switch entry.action {
		case ActionCache:
			continue

		case ActionInsert:
			nodes = append(nodes, newAffectedNode(NodeCreated, k))
			if err := t.base.Insert(k, entry.current); err != nil {
				return nil, err
			}

		case ActionModify:
			if bytes.Equal(entry.original, entry.current) {
				continue
			}
			nodes = append(nodes, newAffectedNode(NodeModified, k))
			if err := t.base.Update(k, entry.current); err != nil {
				return nil, err
			}

		case ActionErase:
			nodes = append(nodes, newAffectedNode(NodeDeleted, k))
			if err := t.base.Erase(k); err != nil {
				return nil, err
			}
		}
	}

	return nodes, nil
}
