package token

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trueeth/cw20-reflection/internal/core/ledger/keylet"
	"github.com/trueeth/cw20-reflection/internal/types"
)

// mapView is an in-memory StateView with strict insert/update/erase
// semantics matching the engine's staging table.
type mapView struct {
	entries map[keylet.Keylet][]byte
}

func newMapView() *mapView {
	return &mapView{entries: make(map[keylet.Keylet][]byte)}
}

func (v *mapView) Read(k keylet.Keylet) ([]byte, error) {
	data, ok := v.entries[k]
	if !ok {
		return nil, nil
	}
	return data, nil
}

func (v *mapView) Exists(k keylet.Keylet) (bool, error) {
	_, ok := v.entries[k]
	return ok, nil
}

func (v *mapView) Insert(k keylet.Keylet, data []byte) error {
	if _, ok := v.entries[k]; ok {
		return fmt.Errorf("insert: entry already exists")
	}
	v.entries[k] = data
	return nil
}

func (v *mapView) Update(k keylet.Keylet, data []byte) error {
	if _, ok := v.entries[k]; !ok {
		return fmt.Errorf("update: entry does not exist")
	}
	v.entries[k] = data
	return nil
}

func (v *mapView) Erase(k keylet.Keylet) error {
	if _, ok := v.entries[k]; !ok {
		return fmt.Errorf("erase: entry does not exist")
	}
	delete(v.entries, k)
	return nil
}

// setupToken initializes token info and mints the full supply to holder.
func setupToken(t *testing.T, view StateView, supply uint64, holder types.Address) {
	t.Helper()
	info := &TokenInfoEntry{
		Name:     "Reflect Test",
		Symbol:   "RFT",
		Decimals: 6,
		Minter:   "minter",
	}
	require.NoError(t, WriteTokenInfo(view, info))
	require.NoError(t, NewReflectionLedger(view).Mint(holder, supply))
}
