// Package report delivers final session summaries to an external
// endpoint. Delivery is fire-and-forget: failures are logged and never
// propagated into turn processing.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"baitline/internal/session"
)

// #region summary

// Summary is the frozen final record for a terminated session.
type Summary struct {
	ReportID       string                `json:"report_id"`
	SessionID      string                `json:"session_id"`
	TurnCount      int                   `json:"turn_count"`
	Confidence     float64               `json:"confidence"`
	Mode           string                `json:"mode"`
	Category       string                `json:"category,omitempty"`
	ExitReason     string                `json:"exit_reason,omitempty"`
	Intelligence   session.Intelligence  `json:"intelligence"`
	SessionStarted time.Time             `json:"session_started"`
	EndedAt        time.Time             `json:"ended_at"`
}

// FromSession builds a summary from a terminal session.
func FromSession(sess session.Session, endedAt time.Time) Summary {
	return Summary{
		ReportID:       uuid.New().String(),
		SessionID:      sess.ID,
		TurnCount:      sess.TurnCount,
		Confidence:     sess.LastConfidence,
		Mode:           sess.LastMode.String(),
		Category:       sess.LastCategory,
		ExitReason:     sess.ExitReason,
		Intelligence:   sess.Intelligence,
		SessionStarted: sess.CreatedAt,
		EndedAt:        endedAt.UTC(),
	}
}

// #endregion summary

// #region reporter

// Reporter delivers a final summary. Implementations must never block
// turn processing on failure.
type Reporter interface {
	Report(summary Summary)
}

// Nop discards summaries. Used when no report endpoint is configured.
type Nop struct{}

// Report discards the summary.
func (Nop) Report(Summary) {}

// #endregion reporter

// #region webhook

// Webhook POSTs summaries as JSON to a configured URL.
type Webhook struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

// NewWebhook creates a webhook reporter.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	return &Webhook{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Report delivers the summary in the background. Failures are logged,
// never returned.
func (w *Webhook) Report(summary Summary) {
	go func() {
		body, err := json.Marshal(summary)
		if err != nil {
			log.Printf("[REPORT] marshal summary %s: %v", summary.SessionID, err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
		if err != nil {
			log.Printf("[REPORT] build request %s: %v", summary.SessionID, err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := w.client.Do(req)
		if err != nil {
			log.Printf("[REPORT] deliver %s: %v", summary.SessionID, err)
			return
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			log.Printf("[REPORT] deliver %s: status %d", summary.SessionID, resp.StatusCode)
			return
		}
		log.Printf("[REPORT] delivered summary for session %s (%d turns)", summary.SessionID, summary.TurnCount)
	}()
}

// #endregion webhook
