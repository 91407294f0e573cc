package tx

import (
	"encoding/hex"
	"strings"

	"github.com/trueeth/cw20-reflection/internal/core/ledger/keylet"
	"github.com/trueeth/cw20-reflection/internal/core/token"
)

// Node types for affected-node metadata.
const (
	NodeCreated  = "CreatedNode"
	NodeModified = "ModifiedNode"
	NodeDeleted  = "DeletedNode"
)

// AffectedNode describes one ledger entry touched by a message.
type AffectedNode struct {
	NodeType    string `json:"node_type"`
	EntryType   string `json:"entry_type"`
	LedgerIndex string `json:"ledger_index"`
}

func newAffectedNode(nodeType string, k keylet.Keylet) AffectedNode {
	return AffectedNode{
		NodeType:    nodeType,
		EntryType:   k.Type.String(),
		LedgerIndex: strings.ToUpper(hex.EncodeToString(k.Key[:])),
	}
}

// Metadata records the changes made by a message.
type Metadata struct {
	// AffectedNodes lists all entries created, modified, or deleted,
	// in key order.
	AffectedNodes []AffectedNode `json:"affected_nodes"`

	// TransactionIndex is the position within the closed ledger.
	TransactionIndex uint32 `json:"transaction_index"`

	// Result is the message result code.
	Result Result `json:"result"`

	// Split is the tax decomposition of a transfer, nil for other messages.
	Split *token.TaxSplit `json:"split,omitempty"`

	// Events are the events emitted while applying the message.
	Events []Event `json:"events,omitempty"`
}

// Attribute is one key/value pair of an event.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is emitted by a message apply and delivered to subscribers once the
// ledger containing the message closes.
type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

// Attr builds an event attribute.
func Attr(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// NewEvent builds an event.
func NewEvent(eventType string, attrs ...Attribute) Event {
	return Event{Type: eventType, Attributes: attrs}
}
