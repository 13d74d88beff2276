package orchestrator

// #region imports
import (
	"time"

	"baitline/internal/detect"
	"baitline/internal/session"
)

// #endregion

// #region message

// Sender identifies who produced a message.
type Sender string

const (
	// SenderCounterpart is the remote party under observation.
	SenderCounterpart Sender = "counterpart"
	// SenderSubject is the protected party whose outgoing messages are
	// recorded for history but never classified.
	SenderSubject Sender = "subject"
	// SenderControl carries operator signals such as end-of-conversation.
	SenderControl Sender = "control"
)

// Message is one conversation message entering the pipeline.
type Message struct {
	SessionID string    `json:"session_id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// EndSignal is the control-message text that finalizes a session.
const EndSignal = "end-of-conversation"

// #endregion

// #region outputs

// TurnOutput is the pipeline result for a single counterpart message.
type TurnOutput struct {
	SessionID  string               `json:"session_id"`
	TurnCount  int                  `json:"turn_count"`
	Signal     detect.Signal        `json:"signal"`
	Mode       session.Mode         `json:"mode"`
	Continue   bool                 `json:"continue"`
	ExitReason string               `json:"exit_reason,omitempty"`
	Reply      string               `json:"reply,omitempty"`
	NewIntel   int                  `json:"new_intel"`
	Intel      session.Intelligence `json:"intelligence,omitempty"`
}

// #endregion
