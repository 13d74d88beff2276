// Package replay re-runs recorded conversations through the full turn
// pipeline with scripted collaborator outputs, so detection and policy
// changes can be validated against known transcripts without any
// external service.
package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"baitline/internal/detect"
	"baitline/internal/extract"
	"baitline/internal/session"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string        `json:"description"`
	SessionID   string        `json:"session_id"`
	Turns       []FixtureTurn `json:"turns"`
}

// FixtureTurn is one recorded message plus the collaborator outputs
// captured when it was first processed, and the expected pipeline
// outcome.
type FixtureTurn struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`

	// Classification is the scripted collaborator verdict for this
	// turn; nil means the collaborator was unavailable.
	Classification *FixtureClassification `json:"classification,omitempty"`

	// Reply is the scripted engagement output; nil means unavailable
	// (the fallback reply is used instead).
	Reply *FixtureReply `json:"reply,omitempty"`

	Expect *FixtureExpectation `json:"expect,omitempty"`
}

// FixtureClassification mirrors classify.Result with JSON tags.
type FixtureClassification struct {
	IsScam     bool    `json:"is_scam"`
	Confidence float64 `json:"confidence"`
	Category   string  `json:"category"`
	Hostile    bool    `json:"hostile"`
}

// FixtureReply mirrors engage.Reply with JSON tags.
type FixtureReply struct {
	Text     string            `json:"text"`
	Entities []FixtureCandidate `json:"entities,omitempty"`
}

// FixtureCandidate mirrors extract.Candidate with JSON tags.
type FixtureCandidate struct {
	Category string `json:"category"`
	Value    string `json:"value"`
}

// FixtureExpectation is the asserted outcome for one turn.
type FixtureExpectation struct {
	Confidence *float64 `json:"confidence,omitempty"`
	Mode       string   `json:"mode,omitempty"`
	Continue   *bool    `json:"continue,omitempty"`
	ExitReason string   `json:"exit_reason,omitempty"`
	Source     string   `json:"source,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	return ParseFixture(data)
}

// ParseFixture parses fixture JSON and checks structural sanity.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if f.SessionID == "" {
		return nil, fmt.Errorf("fixture has no session_id")
	}
	if len(f.Turns) == 0 {
		return nil, fmt.Errorf("fixture has no turns")
	}
	return &f, nil
}

// ToSignal converts a scripted classification to a detect signal.
func (c *FixtureClassification) ToSignal() detect.Signal {
	return detect.Signal{
		Source:     detect.SourceClassifier,
		IsScam:     c.IsScam,
		Confidence: c.Confidence,
		Category:   c.Category,
	}
}

// ToCandidates converts scripted entities to extraction candidates.
func (r *FixtureReply) ToCandidates() []extract.Candidate {
	out := make([]extract.Candidate, 0, len(r.Entities))
	for _, e := range r.Entities {
		out = append(out, extract.Candidate{
			Category: session.Category(e.Category),
			Value:    e.Value,
		})
	}
	return out
}

// #endregion fixture-loader
