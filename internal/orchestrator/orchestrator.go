package orchestrator

// #region imports
import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"baitline/internal/classify"
	"baitline/internal/detect"
	"baitline/internal/engage"
	"baitline/internal/extract"
	"baitline/internal/logging"
	"baitline/internal/policy"
	"baitline/internal/report"
	"baitline/internal/session"
)

// #endregion

// #region orchestrator-struct

// Orchestrator is the top-level coordinator for one conversation turn:
// pattern matching, collaborator classification, confidence combining,
// policy evaluation, engagement reply, and intelligence extraction.
type Orchestrator struct {
	matcher    *detect.Matcher
	combiner   *detect.Combiner
	classifier classify.Adapter
	responder  engage.Responder
	extractor  *extract.Extractor
	policy     *policy.Policy
	store      session.Store
	reporter   report.Reporter
	turnLog    TurnLogger
	now        func() time.Time

	mu      sync.Mutex
	history map[string][]string // recent transcript lines per session
}

// historyLimit caps the transcript window handed to collaborators.
const historyLimit = 16

// TurnLogger records processed turns for later fixture export. A nil
// logger disables transcript recording.
type TurnLogger interface {
	LogTurn(entry logging.TurnEntry) error
}

// #endregion

// #region constructor

// New creates a fully wired orchestrator. classifier, responder, and
// reporter may be classify.Disabled{}, engage.Disabled{}, and
// report.Nop{} when no collaborator is configured. The store is
// wrapped so a storage failure mid-turn degrades to an ephemeral
// in-memory record instead of failing the turn.
func New(
	combinerConfig detect.CombinerConfig,
	policyConfig policy.Config,
	classifier classify.Adapter,
	responder engage.Responder,
	store session.Store,
	reporter report.Reporter,
) *Orchestrator {
	return &Orchestrator{
		matcher:    detect.NewMatcher(),
		combiner:   detect.NewCombiner(combinerConfig),
		classifier: classifier,
		responder:  responder,
		extractor:  extract.NewExtractor(),
		policy:     policy.New(policyConfig),
		store:      newStoreGuard(store),
		reporter:   reporter,
		now:        time.Now,
		history:    make(map[string][]string),
	}
}

// SetTurnLog enables transcript recording.
func (o *Orchestrator) SetTurnLog(l TurnLogger) {
	o.turnLog = l
}

// OpenStore opens the SQLite session store at path, falling back to an
// ephemeral in-memory store when the database cannot be opened. State
// in the fallback does not survive a restart.
func OpenStore(path string) session.Store {
	st, err := session.NewSQLiteStore(path)
	if err != nil {
		log.Printf("[ORCH] sqlite store unavailable (%v), using ephemeral memory store", err)
		return session.NewMemoryStore()
	}
	return st
}

// #endregion

// #region process-turn

// ProcessTurn runs the full pipeline for one message. Subject messages
// only extend the transcript; control messages carrying the end signal
// finalize the session.
func (o *Orchestrator) ProcessTurn(ctx context.Context, msg Message) (TurnOutput, error) {
	if msg.SessionID == "" {
		return TurnOutput{}, fmt.Errorf("message has no session id")
	}

	switch msg.Sender {
	case SenderControl:
		return o.handleControl(msg)
	case SenderSubject:
		return o.handleSubject(msg)
	case SenderCounterpart:
		// handled below
	default:
		return TurnOutput{}, fmt.Errorf("unknown sender %q", msg.Sender)
	}

	ts := msg.Timestamp
	if ts.IsZero() {
		ts = o.now()
	}

	sess, err := o.store.InitIfAbsent(msg.SessionID, ts)
	if err != nil {
		return TurnOutput{}, fmt.Errorf("init session: %w", err)
	}
	if sess.Terminal {
		return TurnOutput{
			SessionID:  sess.ID,
			TurnCount:  sess.TurnCount,
			Mode:       sess.LastMode,
			ExitReason: sess.ExitReason,
			Intel:      sess.Intelligence,
		}, nil
	}

	history := o.appendHistory(msg.SessionID, "counterpart: "+msg.Text)

	// Layer 1: deterministic patterns. Inconclusive is not safe; it
	// only means this layer has no verdict.
	var patternSig, classifierSig *detect.Signal
	var hostile bool
	if sig, ok := o.matcher.Match(msg.Text); ok {
		patternSig = &sig
	} else {
		var prev *detect.Signal
		if sess.TurnCount > 0 {
			prev = &detect.Signal{
				IsScam:     sess.LastConfidence >= o.combiner.Floor(),
				Confidence: sess.LastConfidence,
				Category:   sess.LastCategory,
			}
		}
		result, ok := o.classifier.Classify(ctx, classify.Input{
			Text:     msg.Text,
			History:  history,
			Previous: prev,
		})
		if ok {
			sig := result.Signal
			classifierSig = &sig
			hostile = result.Hostile
		}
	}

	combined := o.combiner.Combine(patternSig, classifierSig, sess.LastConfidence, sess.LastCategory)

	// Deterministic extraction from the counterpart's own text.
	intel := o.extractor.Extract(msg.Text, nil)

	// Policy sees the intelligence as it will stand after this turn, so
	// a turn that completes the objective exits immediately.
	preview := sess
	merged, added := session.UnionIntelligence(sess.Intelligence, intel)
	preview.Intelligence = merged
	if added > 0 {
		preview.LastIntelTurn = sess.TurnCount + 1
	}

	decision := o.policy.Decide(preview, combined.Confidence, hostile, ts)

	log.Printf("[ORCH] turn %d session=%s source=%s confidence=%.2f mode=%s continue=%v",
		sess.TurnCount+1, sess.ID, combined.Source, combined.Confidence,
		decision.Mode, decision.ShouldContinue)

	var replyText string
	if decision.ShouldContinue && decision.Mode > session.ModeNone {
		reply, ok := o.responder.GenerateReply(ctx, engage.Input{
			Text:              msg.Text,
			History:           history,
			Mode:              decision.Mode,
			Accumulated:       preview.Intelligence,
			MissingCategories: o.policy.MissingCategories(preview.Intelligence),
		})
		if ok {
			replyText = reply.Text
			if len(reply.Candidates) > 0 {
				candidateIntel := o.extractor.Extract("", reply.Candidates)
				intel, _ = session.UnionIntelligence(intel, candidateIntel)
			}
		} else {
			replyText = engage.Fallback(sess.TurnCount + 1)
		}
		o.appendHistory(msg.SessionID, "subject: "+replyText)
	}

	updated, err := o.store.ApplyTurn(msg.SessionID, session.TurnUpdate{
		Confidence:   combined.Confidence,
		Mode:         decision.Mode,
		Category:     combined.Category,
		Intelligence: intel,
	})
	if err != nil {
		return TurnOutput{}, fmt.Errorf("apply turn: %w", err)
	}

	// Responder candidates merge in after the policy decision; a
	// candidate that completes the objective still exits this turn.
	if decision.ShouldContinue && o.policy.HonorsExits() && o.policy.Complete(updated.Intelligence) {
		decision.ShouldContinue = false
		decision.ExitReason = policy.ExitComplete
	}

	if !decision.ShouldContinue {
		updated, err = o.finalize(msg.SessionID, decision.ExitReason, ts)
		if err != nil {
			return TurnOutput{}, err
		}
	}

	if o.turnLog != nil {
		if err := o.turnLog.LogTurn(logging.TurnEntry{
			SessionID:  updated.ID,
			TurnNumber: updated.TurnCount,
			Sender:     string(msg.Sender),
			Text:       msg.Text,
			Source:     string(combined.Source),
			Confidence: combined.Confidence,
			Category:   combined.Category,
			Mode:       updated.LastMode.String(),
			Reply:      replyText,
			ExitReason: updated.ExitReason,
			CreatedAt:  ts,
		}); err != nil {
			log.Printf("[ORCH] turn log: %v", err)
		}
	}

	return TurnOutput{
		SessionID:  updated.ID,
		TurnCount:  updated.TurnCount,
		Signal:     combined,
		Mode:       updated.LastMode,
		Continue:   decision.ShouldContinue,
		ExitReason: updated.ExitReason,
		Reply:      replyText,
		NewIntel:   intel.Count(),
		Intel:      updated.Intelligence,
	}, nil
}

// #endregion

// #region control-subject

func (o *Orchestrator) handleControl(msg Message) (TurnOutput, error) {
	if msg.Text != EndSignal {
		return TurnOutput{}, fmt.Errorf("unknown control signal %q", msg.Text)
	}
	sess, found, err := o.store.Get(msg.SessionID)
	if err != nil {
		return TurnOutput{}, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return TurnOutput{SessionID: msg.SessionID, ExitReason: policy.ExitSignaled}, nil
	}
	if sess.Terminal {
		return TurnOutput{
			SessionID:  sess.ID,
			TurnCount:  sess.TurnCount,
			Mode:       sess.LastMode,
			ExitReason: sess.ExitReason,
			Intel:      sess.Intelligence,
		}, nil
	}
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = o.now()
	}
	sess, err = o.finalize(msg.SessionID, policy.ExitSignaled, ts)
	if err != nil {
		return TurnOutput{}, err
	}
	return TurnOutput{
		SessionID:  sess.ID,
		TurnCount:  sess.TurnCount,
		Mode:       sess.LastMode,
		ExitReason: sess.ExitReason,
		Intel:      sess.Intelligence,
	}, nil
}

func (o *Orchestrator) handleSubject(msg Message) (TurnOutput, error) {
	o.appendHistory(msg.SessionID, "subject: "+msg.Text)
	sess, found, err := o.store.Get(msg.SessionID)
	if err != nil {
		return TurnOutput{}, fmt.Errorf("load session: %w", err)
	}
	out := TurnOutput{SessionID: msg.SessionID, Continue: true}
	if found {
		out.TurnCount = sess.TurnCount
		out.Mode = sess.LastMode
		out.Intel = sess.Intelligence
		out.Continue = !sess.Terminal
		out.ExitReason = sess.ExitReason
	}
	return out, nil
}

// #endregion

// #region finalize

func (o *Orchestrator) finalize(sessionID, exitReason string, endedAt time.Time) (session.Session, error) {
	sess, err := o.store.Finalize(sessionID, exitReason)
	if err != nil {
		return session.Session{}, fmt.Errorf("finalize session: %w", err)
	}

	o.mu.Lock()
	delete(o.history, sessionID)
	o.mu.Unlock()

	log.Printf("[ORCH] session %s finalized: reason=%s turns=%d intel=%d",
		sess.ID, sess.ExitReason, sess.TurnCount, sess.Intelligence.Count())

	o.reporter.Report(report.FromSession(sess, endedAt))
	return sess, nil
}

// #endregion

// #region history

func (o *Orchestrator) appendHistory(sessionID, line string) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	lines := append(o.history[sessionID], line)
	if len(lines) > historyLimit {
		lines = lines[len(lines)-historyLimit:]
	}
	o.history[sessionID] = lines
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}

// #endregion
