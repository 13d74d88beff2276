// Package logging persists the per-turn transcript log alongside the
// session store. Each processed turn leaves one row recording what came
// in, what the pipeline decided, and what went out; fixture export
// rebuilds replay fixtures from these rows.
package logging

import "time"

// #region turn-entry

// TurnEntry is one row of the turn log.
type TurnEntry struct {
	SessionID  string    `json:"session_id"`
	TurnNumber int       `json:"turn_number"`
	Sender     string    `json:"sender"`
	Text       string    `json:"text"`
	Source     string    `json:"source"`
	Confidence float64   `json:"confidence"`
	Category   string    `json:"category,omitempty"`
	Mode       string    `json:"mode"`
	Reply      string    `json:"reply,omitempty"`
	ExitReason string    `json:"exit_reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// #endregion turn-entry
