package service

import (
	"time"

	"github.com/trueeth/cw20-reflection/internal/types"
)

// TransferEvent describes one settled taxed transfer for subscribers.
type TransferEvent struct {
	TxHash     types.Hash256 `json:"tx_hash"`
	LedgerSeq  uint32        `json:"ledger_seq"`
	LedgerHash types.Hash256 `json:"ledger_hash"`
	TxType     string        `json:"tx_type"`
	From       types.Address `json:"from"`
	To         types.Address `json:"to"`
	Amount     uint64        `json:"amount,string"`
	Net        uint64        `json:"net,string"`
	Burn       uint64        `json:"burn,string"`
	Reflect    uint64        `json:"reflect,string"`
	Treasury   uint64        `json:"treasury,string"`
	CloseTime  time.Time     `json:"close_time"`
}

// Publisher receives transfer events as ledgers close. Implementations must
// not block; the service calls them on the commit path in a goroutine.
type Publisher interface {
	PublishTransfer(event TransferEvent)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(event TransferEvent)

func (f PublisherFunc) PublishTransfer(event TransferEvent) { f(event) }
