package session

import (
	"encoding/json"
	"time"
)

// #region mode
// Mode is the engagement mode for a conversation. Ordered: a session's
// mode never moves backwards under MaxMode.
type Mode int

const (
	ModeNone Mode = iota
	ModeCautious
	ModeAggressive
)

// String returns the persisted form of the mode.
func (m Mode) String() string {
	switch m {
	case ModeCautious:
		return "cautious"
	case ModeAggressive:
		return "aggressive"
	default:
		return "none"
	}
}

// MarshalJSON emits the persisted string form.
func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts the persisted string form.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*m = ParseMode(s)
	return nil
}

// ParseMode converts a persisted mode string back to a Mode.
// Unknown strings parse as ModeNone.
func ParseMode(s string) Mode {
	switch s {
	case "cautious":
		return ModeCautious
	case "aggressive":
		return ModeAggressive
	default:
		return ModeNone
	}
}

// #endregion mode

// #region category
// Category is one of the fixed intelligence categories.
type Category string

const (
	CategoryPaymentHandle Category = "payment-handle"
	CategoryAccountNumber Category = "account-number"
	CategoryPhone         Category = "phone"
	CategoryContactHandle Category = "contact-handle"
	CategoryURL           Category = "url"
	CategoryEmail         Category = "email"
	CategoryReferenceCode Category = "reference-code"
	CategoryIdentityName  Category = "identity-name"
)

// Categories lists every category in a stable order.
var Categories = []Category{
	CategoryPaymentHandle,
	CategoryAccountNumber,
	CategoryPhone,
	CategoryContactHandle,
	CategoryURL,
	CategoryEmail,
	CategoryReferenceCode,
	CategoryIdentityName,
}

// #endregion category

// #region intelligence
// Intelligence maps a category to its accumulated set of normalized
// values. Slices are kept sorted and duplicate-free; mutation goes
// through UnionIntelligence only.
type Intelligence map[Category][]string

// #endregion intelligence

// #region session
// Session is the durable per-conversation record. Mutated only through
// Store.ApplyTurn and Store.Finalize.
type Session struct {
	ID             string       `json:"session_id"`
	CreatedAt      time.Time    `json:"created_at"`
	TurnCount      int          `json:"turn_count"`
	LastConfidence float64      `json:"last_confidence"`
	LastMode       Mode         `json:"last_mode"`
	LastCategory   string       `json:"last_category,omitempty"`
	Intelligence   Intelligence `json:"intelligence,omitempty"`
	LastIntelTurn  int          `json:"last_intel_turn"` // turn number when the accumulated set last grew
	ExitReason     string       `json:"exit_reason,omitempty"`
	Terminal       bool         `json:"terminal"`
}

// #endregion session

// #region turn-update
// TurnUpdate carries one processed turn's contribution to a session.
// All fields are merged, never assigned: confidence and mode via max,
// intelligence via set union.
type TurnUpdate struct {
	Confidence   float64
	Mode         Mode
	Category     string
	Intelligence Intelligence
}

// #endregion turn-update
