package state

// Decline reason codes. A declined command leaves state untouched and
// surfaces one of these plus a user-facing reason; nothing in the core ever
// escapes as a fault.
const (
	DeclineNoCredit    = "D_NO_CREDIT"
	DeclineNoActionPts = "D_NO_ACTION_POINTS"
	DeclineDuplicate   = "D_DUPLICATE_ACTION"
	DeclineLoanLimit   = "D_LOAN_LIMIT"
	DeclineNoSession   = "D_NO_SESSION"
	DeclineTerminal    = "D_TERMINAL_PHASE"
)

// Decline reports a business-rule rejection: the command was not applied
// and Reason explains why in user-facing terms.
type Decline struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

func declined(code, reason string) *Decline {
	return &Decline{Code: code, Reason: reason}
}
