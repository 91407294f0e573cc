package tx

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/trueeth/cw20-reflection/internal/types"
)

// ErrUnknownMessageType is returned when a message type is unknown.
var ErrUnknownMessageType = errors.New("unknown message type")

// Message type names on the wire.
const (
	TypeTransfer          = "transfer"
	TypeSend              = "send"
	TypeTransferFrom      = "transfer_from"
	TypeSendFrom          = "send_from"
	TypeBurn              = "burn"
	TypeBurnFrom          = "burn_from"
	TypeMint              = "mint"
	TypeIncreaseAllowance = "increase_allowance"
	TypeDecreaseAllowance = "decrease_allowance"
	TypeSetTaxRates       = "set_tax_rates"
	TypeSetAntiWhale      = "set_anti_whale"
	TypeSetExempt         = "set_exempt"
	TypeSetExcluded       = "set_excluded"
	TypeSetTreasury       = "set_treasury"
	TypeSetAdmin          = "set_admin"
)

// NewFromType creates an empty message of the given wire type.
func NewFromType(msgType string) (Message, error) {
	switch msgType {
	case TypeTransfer:
		return &Transfer{}, nil
	case TypeSend:
		return &Send{}, nil
	case TypeTransferFrom:
		return &TransferFrom{}, nil
	case TypeSendFrom:
		return &SendFrom{}, nil
	case TypeBurn:
		return &Burn{}, nil
	case TypeBurnFrom:
		return &BurnFrom{}, nil
	case TypeMint:
		return &Mint{}, nil
	case TypeIncreaseAllowance:
		return &IncreaseAllowance{}, nil
	case TypeDecreaseAllowance:
		return &DecreaseAllowance{}, nil
	case TypeSetTaxRates:
		return &SetTaxRates{}, nil
	case TypeSetAntiWhale:
		return &SetAntiWhale{}, nil
	case TypeSetExempt:
		return &SetExempt{}, nil
	case TypeSetExcluded:
		return &SetExcluded{}, nil
	case TypeSetTreasury:
		return &SetTreasury{}, nil
	case TypeSetAdmin:
		return &SetAdmin{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, msgType)
	}
}

// FromJSON creates a Message from its wire form: a JSON object carrying a
// "type" discriminator next to the message fields.
func FromJSON(data []byte) (Message, error) {
	var raw struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	msg, err := NewFromType(raw.Type)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// MarshalMessage serializes a message to its wire form. Field order is the
// lexicographic key order of the flattened object, so the encoding is
// canonical and usable for hashing.
func MarshalMessage(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, err
	}
	flat["type"] = msg.MsgType()
	return json.Marshal(flat)
}

// txHashPrefix namespaces message hashes.
var txHashPrefix = []byte("TXN\x00")

// MessageHash returns the canonical hash identifying a message.
func MessageHash(msg Message) (types.Hash256, error) {
	data, err := MarshalMessage(msg)
	if err != nil {
		return types.Hash256{}, err
	}
	payload := make([]byte, 0, len(txHashPrefix)+len(data))
	payload = append(payload, txHashPrefix...)
	payload = append(payload, data...)
	return types.Hash256FromData(payload), nil
}
