package constants

// Outcome is the terminal classification of a single upload.
type Outcome string

// Stable values (store these exact strings in the readings collection).
const (
	OutcomeSuccess Outcome = "success" // both cope and drag extracted
	OutcomeEmpty   Outcome = "empty"   // no mould on the belt (gate negative or model-reported empty)
	OutcomeError   Outcome = "error"   // decode, transport, or validation failure
)

// Canonical outcome messages. The dashboard groups on these; keep them stable.
// Both empty paths (gate negative, model-reported null) answer with
// MsgNothingOnBelt; MsgModelSawNoText is log detail only.
const (
	MsgMouldDetected  = "Mould detected successfully"
	MsgNothingOnBelt  = "Nothing detected, mould missing"
	MsgModelSawNoText = "Model returned null, no digits found"
)
