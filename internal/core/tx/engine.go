package tx

import (
	"errors"

	"github.com/trueeth/cw20-reflection/internal/core/token"
	"github.com/trueeth/cw20-reflection/internal/types"
)

// Engine processes messages against ledger state. All message effects are
// staged through a StateTable; a failing message leaves the base view
// untouched.
type Engine struct {
	view     token.StateView
	config   EngineConfig
	treasury TreasuryKeeper
}

// NewEngine creates an engine over the given base view. The treasury share
// of taxed transfers is credited to the configured treasury account.
func NewEngine(view token.StateView, config EngineConfig) *Engine {
	return &Engine{
		view:     view,
		config:   config,
		treasury: NewLedgerTreasury(),
	}
}

// SetTreasury overrides the treasury keeper.
func (e *Engine) SetTreasury(keeper TreasuryKeeper) {
	e.treasury = keeper
}

// ApplyResult contains the result of applying a message.
type ApplyResult struct {
	// Result is the message result code.
	Result Result

	// Applied indicates if the message changed ledger state.
	Applied bool

	// TxHash identifies the message.
	TxHash types.Hash256

	// Metadata describes the changes made by the message, nil when the
	// message was rejected before apply.
	Metadata *Metadata

	// Message is a human-readable result description.
	Message string
}

// Apply processes a message. The pipeline is preflight (stateless
// validation), preclaim (cheap checks against committed state), then apply
// through a staging table that commits only on success.
func (e *Engine) Apply(msg Message) ApplyResult {
	result := e.preflight(msg)
	if !result.IsSuccess() {
		return ApplyResult{
			Result:  result,
			Message: result.Message(),
		}
	}

	txHash, err := MessageHash(msg)
	if err != nil {
		return ApplyResult{
			Result:  TefINTERNAL,
			Message: "failed to compute message hash: " + err.Error(),
		}
	}

	result = e.preclaim(msg)
	if !result.IsSuccess() {
		return ApplyResult{
			Result:  result,
			TxHash:  txHash,
			Message: result.Message(),
		}
	}

	metadata := &Metadata{
		AffectedNodes: make([]AffectedNode, 0),
	}

	table := NewStateTable(e.view)
	ctx := &ApplyContext{
		View:     table,
		Sender:   types.Address(msg.GetCommon().Sender),
		Config:   e.config,
		TxHash:   txHash,
		Metadata: metadata,
		Treasury: e.treasury,
	}

	appliable, ok := msg.(Appliable)
	if !ok {
		return ApplyResult{
			Result:  TemUNKNOWN,
			TxHash:  txHash,
			Message: TemUNKNOWN.Message(),
		}
	}
	result = appliable.Apply(ctx)
	metadata.Result = result

	if result.IsSuccess() {
		nodes, err := table.Apply()
		if err != nil {
			return ApplyResult{
				Result:  TefINTERNAL,
				TxHash:  txHash,
				Message: "failed to commit state changes: " + err.Error(),
			}
		}
		metadata.AffectedNodes = nodes
	}

	return ApplyResult{
		Result:   result,
		Applied:  result.IsApplied(),
		TxHash:   txHash,
		Metadata: metadata,
		Message:  result.Message(),
	}
}

// preflight performs stateless validation of the message.
func (e *Engine) preflight(msg Message) Result {
	common := msg.GetCommon()
	if common == nil || common.Sender == "" {
		return TemMALFORMED
	}
	if err := common.Validate(); err != nil {
		return resultFromValidation(err)
	}
	if err := msg.Validate(); err != nil {
		return resultFromValidation(err)
	}
	return TesSUCCESS
}

// preclaim performs cheap checks against committed state before anything is
// staged.
func (e *Engine) preclaim(msg Message) Result {
	if _, err := token.ReadTokenInfo(e.view); err != nil {
		if errors.Is(err, token.ErrNoTokenInfo) {
			return TefNO_TOKEN
		}
		return TefINTERNAL
	}
	return TesSUCCESS
}

// resultFromValidation maps a stateless validation error to a tem code.
func resultFromValidation(err error) Result {
	switch {
	case errors.Is(err, ErrBadAddress):
		return TemBAD_ADDRESS
	case errors.Is(err, ErrSelfTransfer):
		return TemDST_IS_SRC
	case errors.Is(err, ErrBadAmount):
		return TemBAD_AMOUNT
	case errors.Is(err, ErrBadRates):
		return TemBAD_RATES
	case errors.Is(err, ErrBadCaps):
		return TemBAD_CAPS
	default:
		return TemMALFORMED
	}
}

// resultFromLedger maps a token ledger error to a result code.
func resultFromLedger(err error) Result {
	switch {
	case errors.Is(err, token.ErrInsufficientBalance):
		return TecINSUFFICIENT_FUNDS
	case errors.Is(err, token.ErrInsufficientAllowance):
		return TecINSUFFICIENT_ALLOWANCE
	case errors.Is(err, token.ErrWhaleLimit):
		return TecWHALE_LIMIT
	case errors.Is(err, token.ErrArithmetic):
		return TecARITHMETIC
	case errors.Is(err, token.ErrNoTokenInfo):
		return TefNO_TOKEN
	default:
		return TecINTERNAL
	}
}
