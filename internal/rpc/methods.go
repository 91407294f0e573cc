package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/trueeth/cw20-reflection/internal/core/ledger"
	"github.com/trueeth/cw20-reflection/internal/core/ledger/service"
	"github.com/trueeth/cw20-reflection/internal/core/tx"
	"github.com/trueeth/cw20-reflection/internal/storage/txindex"
	"github.com/trueeth/cw20-reflection/internal/types"
)

// methods binds the RPC surface to the ledger service.
type methods struct {
	svc *service.Service
}

func registerMethods(registry *MethodRegistry, svc *service.Service) {
	m := &methods{svc: svc}

	registry.Register("ping", HandlerFunc(m.ping))
	registry.Register("submit", HandlerFunc(m.submit))
	registry.Register("balance_of", HandlerFunc(m.balanceOf))
	registry.Register("token_info", HandlerFunc(m.tokenInfo))
	registry.Register("allowance", HandlerFunc(m.allowance))
	registry.Register("query_tax", HandlerFunc(m.queryTax))
	registry.Register("query_rates", HandlerFunc(m.queryRates))
	registry.Register("exemption", HandlerFunc(m.exemption))
	registry.Register("whale_config", HandlerFunc(m.whaleConfig))
	registry.Register("ledger_info", HandlerFunc(m.ledgerInfo))
	registry.Register("tx_history", HandlerFunc(m.txHistory))
}

func decodeParams(params json.RawMessage, v interface{}) *Error {
	if len(params) == 0 {
		return invalidParams("missing params")
	}
	if err := json.Unmarshal(params, v); err != nil {
		return invalidParams("invalid params: " + err.Error())
	}
	return nil
}

func (m *methods) ping(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	return map[string]string{"status": "ok"}, nil
}

// SubmitParams wraps the raw message for the submit method.
type SubmitParams struct {
	Tx json.RawMessage `json:"tx"`
}

// SubmitResponse reports the engine outcome and where the transaction
// landed.
type SubmitResponse struct {
	EngineResult  string        `json:"engine_result"`
	EngineMessage string        `json:"engine_result_message"`
	Applied       bool          `json:"applied"`
	TxHash        types.Hash256 `json:"tx_hash,omitempty"`
	LedgerSeq     uint32        `json:"ledger_seq,omitempty"`
	LedgerHash    string        `json:"ledger_hash,omitempty"`
	Metadata      *tx.Metadata  `json:"metadata,omitempty"`
}

func (m *methods) submit(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	var p SubmitParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	if len(p.Tx) == 0 {
		return nil, invalidParams("missing tx")
	}

	msg, err := tx.FromJSON(p.Tx)
	if err != nil {
		return nil, invalidParams("invalid tx: " + err.Error())
	}

	result, err := m.svc.Submit(ctx, msg)
	if err != nil {
		return nil, internalError(err)
	}

	resp := SubmitResponse{
		EngineResult:  result.Result.String(),
		EngineMessage: result.Message,
		Applied:       result.Applied,
		TxHash:        result.TxHash,
		LedgerSeq:     result.LedgerSeq,
		Metadata:      result.Metadata,
	}
	if !result.LedgerHash.IsZero() {
		resp.LedgerHash = result.LedgerHash.String()
	}
	return resp, nil
}

type addressParams struct {
	Address types.Address `json:"address"`
}

func (m *methods) balanceOf(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	var p addressParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	balance, err := m.svc.BalanceOf(p.Address)
	if err != nil {
		return nil, internalError(err)
	}
	return map[string]interface{}{
		"address": p.Address,
		"balance": formatAmount(balance),
	}, nil
}

func (m *methods) tokenInfo(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	info, err := m.svc.TokenInfo()
	if err != nil {
		return nil, internalError(err)
	}
	resp := map[string]interface{}{
		"name":           info.Name,
		"symbol":         info.Symbol,
		"decimals":       info.Decimals,
		"total_supply":   formatAmount(info.TotalSupply),
		"total_excluded": formatAmount(info.TotalExcluded),
		"reflected_fees": formatAmount(info.ReflectedFees),
	}
	if info.Minter != "" {
		resp["minter"] = info.Minter
	}
	if info.Cap > 0 {
		resp["cap"] = formatAmount(info.Cap)
	}
	return resp, nil
}

type allowanceParams struct {
	Owner   types.Address `json:"owner"`
	Spender types.Address `json:"spender"`
}

func (m *methods) allowance(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	var p allowanceParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	amount, err := m.svc.Allowance(p.Owner, p.Spender)
	if err != nil {
		return nil, internalError(err)
	}
	return map[string]interface{}{
		"owner":     p.Owner,
		"spender":   p.Spender,
		"allowance": formatAmount(amount),
	}, nil
}

type taxParams struct {
	Sender    types.Address `json:"sender"`
	Recipient types.Address `json:"recipient"`
	Amount    uint64        `json:"amount,string"`
}

func (m *methods) queryTax(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	var p taxParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	split, err := m.svc.QueryTax(p.Sender, p.Recipient, p.Amount)
	if err != nil {
		return nil, internalError(err)
	}
	return map[string]interface{}{
		"gross":    formatAmount(split.Gross),
		"net":      formatAmount(split.Net),
		"burn":     formatAmount(split.Burn),
		"reflect":  formatAmount(split.Reflect),
		"treasury": formatAmount(split.Treasury),
	}, nil
}

func (m *methods) queryRates(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	rates, err := m.svc.Rates()
	if err != nil {
		return nil, internalError(err)
	}
	return map[string]uint32{
		"burn_bps":     rates.BurnBps,
		"reflect_bps":  rates.ReflectBps,
		"treasury_bps": rates.TreasuryBps,
	}, nil
}

func (m *methods) exemption(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	var p addressParams
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	flags, err := m.svc.Exemption(p.Address)
	if err != nil {
		return nil, internalError(err)
	}
	return map[string]interface{}{
		"address":             p.Address,
		"tax_exempt":          flags.TaxExempt,
		"reflection_excluded": flags.ReflectionExcluded,
	}, nil
}

func (m *methods) whaleConfig(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	caps, err := m.svc.WhaleConfig()
	if err != nil {
		return nil, internalError(err)
	}
	return map[string]uint32{
		"max_tx_bps":     caps.MaxTxBps,
		"max_wallet_bps": caps.MaxWalletBps,
	}, nil
}

type ledgerInfoParams struct {
	Sequence uint32 `json:"sequence,omitempty"`
	Hash     string `json:"hash,omitempty"`
}

func (m *methods) ledgerInfo(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	var p ledgerInfoParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, invalidParams("invalid params: " + err.Error())
		}
	}

	var (
		l   *ledger.Ledger
		err error
	)
	switch {
	case p.Hash != "":
		hash, hashErr := types.Hash256FromHex(p.Hash)
		if hashErr != nil {
			return nil, invalidParams("invalid ledger hash")
		}
		l, err = m.svc.LedgerByHash(hash)
	case p.Sequence != 0:
		l, err = m.svc.LedgerBySequence(p.Sequence)
	default:
		l, err = m.svc.ClosedLedger()
	}
	if err != nil {
		if errors.Is(err, service.ErrLedgerNotFound) {
			return nil, invalidParams("ledger not found")
		}
		return nil, internalError(err)
	}

	header := l.Header()
	return map[string]interface{}{
		"sequence":    header.Sequence,
		"hash":        l.Hash().String(),
		"parent_hash": header.ParentHash.String(),
		"state_hash":  header.StateHash.String(),
		"close_time":  l.CloseTime(),
		"tx_count":    header.TxCount,
		"entry_count": len(l.Entries()),
	}, nil
}

type txHistoryParams struct {
	Account types.Address `json:"account,omitempty"`
	Limit   int           `json:"limit,omitempty"`
	Offset  int           `json:"offset,omitempty"`
}

// TxHistoryEntry is one row of the tx_history response.
type TxHistoryEntry struct {
	Hash      types.Hash256 `json:"hash"`
	LedgerSeq uint32        `json:"ledger_seq"`
	TxType    string        `json:"tx_type"`
	Sender    types.Address `json:"sender"`
	Recipient types.Address `json:"recipient,omitempty"`
	Result    string        `json:"result"`
	Amount    uint64        `json:"amount,string"`
	Net       uint64        `json:"net,string"`
	Burn      uint64        `json:"burn,string"`
	Reflect   uint64        `json:"reflect,string"`
	Treasury  uint64        `json:"treasury,string"`
}

func (m *methods) txHistory(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	var p txHistoryParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, invalidParams("invalid params: " + err.Error())
		}
	}

	records, err := m.svc.TxHistory(ctx, p.Account, p.Limit, p.Offset)
	if err != nil {
		if errors.Is(err, txindex.ErrClosed) {
			return nil, NewError(CodeInternalError, "transaction history not available")
		}
		return nil, internalError(err)
	}

	entries := make([]TxHistoryEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, TxHistoryEntry{
			Hash:      rec.Hash,
			LedgerSeq: rec.LedgerSeq,
			TxType:    rec.TxType,
			Sender:    rec.Sender,
			Recipient: rec.Recipient,
			Result:    rec.Result,
			Amount:    rec.Amount,
			Net:       rec.Net,
			Burn:      rec.BurnFee,
			Reflect:   rec.ReflectFee,
			Treasury:  rec.TreasuryFee,
		})
	}
	return map[string]interface{}{
		"transactions": entries,
		"count":        len(entries),
	}, nil
}

// formatAmount renders token amounts as decimal strings, matching the
// string-encoded amounts accepted in messages.
func formatAmount(amount uint64) string {
	return strconv.FormatUint(amount, 10)
}
