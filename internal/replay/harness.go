package replay

// #region imports
import (
	"context"
	"fmt"
	"time"

	"baitline/internal/classify"
	"baitline/internal/detect"
	"baitline/internal/engage"
	"baitline/internal/orchestrator"
	"baitline/internal/policy"
	"baitline/internal/report"
	"baitline/internal/session"
)

// #endregion

// #region scripted-collaborators

// script points both collaborators at the fixture turn currently being
// replayed. The pipeline may skip either collaborator on a given turn
// (pattern hit, exiting turn), so the cursor is advanced by the runner,
// not by the collaborators themselves.
type script struct {
	turns  []FixtureTurn
	cursor int
}

func (s *script) current() *FixtureTurn {
	if s.cursor < 0 || s.cursor >= len(s.turns) {
		return nil
	}
	return &s.turns[s.cursor]
}

// scriptedClassifier serves the current turn's recorded classification.
// A nil entry means unavailable for that turn.
type scriptedClassifier struct {
	script *script
}

func (s *scriptedClassifier) Classify(_ context.Context, _ classify.Input) (classify.Result, bool) {
	turn := s.script.current()
	if turn == nil || turn.Classification == nil {
		return classify.Result{}, false
	}
	return classify.Result{Signal: turn.Classification.ToSignal(), Hostile: turn.Classification.Hostile}, true
}

// scriptedResponder serves the current turn's recorded reply.
type scriptedResponder struct {
	script *script
}

func (s *scriptedResponder) GenerateReply(_ context.Context, _ engage.Input) (engage.Reply, bool) {
	turn := s.script.current()
	if turn == nil || turn.Reply == nil {
		return engage.Reply{}, false
	}
	return engage.Reply{Text: turn.Reply.Text, Candidates: turn.Reply.ToCandidates()}, true
}

// #endregion scripted-collaborators

// #region results

// TurnResult is the replayed outcome for one turn with its
// expectation check.
type TurnResult struct {
	Index    int
	Output   orchestrator.TurnOutput
	Mismatch string // empty when the expectation held
}

// Summary aggregates a replay run.
type Summary struct {
	Description string
	TotalTurns  int
	Mismatches  int
	Final       session.Session
	Results     []TurnResult
}

// #endregion results

// #region run

// Run replays a fixture through a fresh in-memory pipeline and checks
// each turn's expectation. Collaborator outputs come from the fixture
// script, never from the network.
func Run(f *Fixture, combinerConfig detect.CombinerConfig, policyConfig policy.Config) (Summary, error) {
	sc := &script{turns: f.Turns}
	store := session.NewMemoryStore()
	orch := orchestrator.New(combinerConfig, policyConfig,
		&scriptedClassifier{script: sc}, &scriptedResponder{script: sc},
		store, report.Nop{})

	summary := Summary{Description: f.Description}
	base := time.Now()
	for i, turn := range f.Turns {
		sc.cursor = i
		msg := orchestrator.Message{
			SessionID: f.SessionID,
			Sender:    orchestrator.Sender(turn.Sender),
			Text:      turn.Text,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
		out, err := orch.ProcessTurn(context.Background(), msg)
		if err != nil {
			return Summary{}, fmt.Errorf("turn %d: %w", i, err)
		}

		result := TurnResult{Index: i, Output: out}
		if turn.Expect != nil {
			result.Mismatch = checkExpectation(*turn.Expect, out)
		}
		if result.Mismatch != "" {
			summary.Mismatches++
		}
		summary.Results = append(summary.Results, result)
		summary.TotalTurns++
	}

	if final, found, err := store.Get(f.SessionID); err == nil && found {
		summary.Final = final
	}
	return summary, nil
}

func checkExpectation(want FixtureExpectation, got orchestrator.TurnOutput) string {
	if want.Confidence != nil && !closeEnough(*want.Confidence, got.Signal.Confidence) {
		return fmt.Sprintf("confidence %.2f, want %.2f", got.Signal.Confidence, *want.Confidence)
	}
	if want.Mode != "" && got.Mode.String() != want.Mode {
		return fmt.Sprintf("mode %s, want %s", got.Mode, want.Mode)
	}
	if want.Continue != nil && got.Continue != *want.Continue {
		return fmt.Sprintf("continue %v, want %v", got.Continue, *want.Continue)
	}
	if want.ExitReason != "" && got.ExitReason != want.ExitReason {
		return fmt.Sprintf("exit reason %q, want %q", got.ExitReason, want.ExitReason)
	}
	if want.Source != "" && string(got.Signal.Source) != want.Source {
		return fmt.Sprintf("source %s, want %s", got.Signal.Source, want.Source)
	}
	return ""
}

func closeEnough(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-6
}

// #endregion run
