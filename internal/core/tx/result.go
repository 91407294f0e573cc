package tx

// Result represents a transaction result code.
type Result int

// Result codes are organized by category:
//
//	tes (0)            success, state changes committed
//	tec (100-199)      valid message that failed against ledger state;
//	                   recorded in history, no state changes
//	tef (-199 to -100) node-side failure, message not recorded
//	tem (-299 to -200) malformed message, rejected outright
//	ter (-99 to -1)    not currently applicable, may succeed later
const (
	TesSUCCESS Result = 0

	TecINSUFFICIENT_FUNDS     Result = 101
	TecINSUFFICIENT_ALLOWANCE Result = 102
	TecWHALE_LIMIT            Result = 103
	TecNO_PERMISSION          Result = 104
	TecNO_TREASURY            Result = 105
	TecTREASURY_FORWARD       Result = 106
	TecMINT_CAP               Result = 107
	TecARITHMETIC             Result = 108
	TecINTERNAL               Result = 109

	TefINTERNAL Result = -192
	TefNO_TOKEN Result = -191

	TemMALFORMED   Result = -299
	TemBAD_AMOUNT  Result = -298
	TemBAD_ADDRESS Result = -297
	TemBAD_RATES   Result = -296
	TemBAD_CAPS    Result = -295
	TemDST_IS_SRC  Result = -294
	TemUNKNOWN     Result = -293

	TerNO_ACCOUNT Result = -96
)

// String returns the canonical name of the result code.
func (r Result) String() string {
	switch r {
	case TesSUCCESS:
		return "tesSUCCESS"
	case TecINSUFFICIENT_FUNDS:
		return "tecINSUFFICIENT_FUNDS"
	case TecINSUFFICIENT_ALLOWANCE:
		return "tecINSUFFICIENT_ALLOWANCE"
	case TecWHALE_LIMIT:
		return "tecWHALE_LIMIT"
	case TecNO_PERMISSION:
		return "tecNO_PERMISSION"
	case TecNO_TREASURY:
		return "tecNO_TREASURY"
	case TecTREASURY_FORWARD:
		return "tecTREASURY_FORWARD"
	case TecMINT_CAP:
		return "tecMINT_CAP"
	case TecARITHMETIC:
		return "tecARITHMETIC"
	case TecINTERNAL:
		return "tecINTERNAL"
	case TefINTERNAL:
		return "tefINTERNAL"
	case TefNO_TOKEN:
		return "tefNO_TOKEN"
	case TemMALFORMED:
		return "temMALFORMED"
	case TemBAD_AMOUNT:
		return "temBAD_AMOUNT"
	case TemBAD_ADDRESS:
		return "temBAD_ADDRESS"
	case TemBAD_RATES:
		return "temBAD_RATES"
	case TemBAD_CAPS:
		return "temBAD_CAPS"
	case TemDST_IS_SRC:
		return "temDST_IS_SRC"
	case TemUNKNOWN:
		return "temUNKNOWN"
	case TerNO_ACCOUNT:
		return "terNO_ACCOUNT"
	default:
		return "unknown"
	}
}

// IsSuccess returns true for tesSUCCESS.
func (r Result) IsSuccess() bool {
	return r == TesSUCCESS
}

// IsTec returns true for tec codes: the message was valid and is recorded
// in history, but no state changes were applied.
func (r Result) IsTec() bool {
	return r >= 100 && r < 200
}

// IsTem returns true for tem codes: the message is malformed.
func (r Result) IsTem() bool {
	return r >= -299 && r < -200
}

// IsApplied returns true if the message changed ledger state.
func (r Result) IsApplied() bool {
	return r.IsSuccess()
}

// IsRecorded returns true if the message enters transaction history.
// Successful and tec results are recorded; everything else is rejected
// before it reaches the ledger.
func (r Result) IsRecorded() bool {
	return r.IsSuccess() || r.IsTec()
}

// Message returns a human-readable description of the result.
func (r Result) Message() string {
	switch r {
	case TesSUCCESS:
		return "The message was applied."
	case TecINSUFFICIENT_FUNDS:
		return "Insufficient balance to cover the gross amount."
	case TecINSUFFICIENT_ALLOWANCE:
		return "Spender allowance does not cover the amount."
	case TecWHALE_LIMIT:
		return "Transfer exceeds an anti-whale limit."
	case TecNO_PERMISSION:
		return "Sender is not authorized for this operation."
	case TecNO_TREASURY:
		return "No treasury address is configured."
	case TecTREASURY_FORWARD:
		return "Treasury forwarding failed; transfer rolled back."
	case TecMINT_CAP:
		return "Mint would exceed the supply cap."
	case TecARITHMETIC:
		return "Arithmetic overflow or degenerate ledger state."
	case TecINTERNAL:
		return "Internal error during apply."
	case TefINTERNAL:
		return "Internal node error."
	case TefNO_TOKEN:
		return "Token is not initialized on this ledger."
	case TemMALFORMED:
		return "The message is ill-formed."
	case TemBAD_AMOUNT:
		return "Invalid amount."
	case TemBAD_ADDRESS:
		return "Invalid address."
	case TemBAD_RATES:
		return "Tax rates are invalid or exceed 100%."
	case TemBAD_CAPS:
		return "Anti-whale caps are invalid."
	case TemDST_IS_SRC:
		return "Recipient may not be the sender."
	case TemUNKNOWN:
		return "Unknown message type."
	case TerNO_ACCOUNT:
		return "The sender account does not exist."
	default:
		return r.String()
	}
}
