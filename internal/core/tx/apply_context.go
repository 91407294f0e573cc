package tx

import (
	"github.com/trueeth/cw20-reflection/internal/core/token"
	"github.com/trueeth/cw20-reflection/internal/types"
)

// ApplyContext provides the state and helpers needed to apply a message.
// It is passed to Appliable.Apply instead of individual parameters.
type ApplyContext struct {
	// View is the staging table all state access goes through.
	View token.StateView

	// Sender is the validated message sender.
	Sender types.Address

	// Config holds engine configuration.
	Config EngineConfig

	// TxHash is the hash of the message being applied.
	TxHash types.Hash256

	// Metadata collects the tax split and events for this message.
	Metadata *Metadata

	// Treasury receives the treasury share of taxed transfers.
	Treasury TreasuryKeeper
}

// EngineConfig holds configuration for the transfer engine.
type EngineConfig struct {
	// LedgerSequence is the sequence of the ledger being built.
	LedgerSequence uint32
}

// Emit appends an event to the message metadata.
func (ctx *ApplyContext) Emit(e Event) {
	ctx.Metadata.Events = append(ctx.Metadata.Events, e)
}
