// Package policy maps combined confidence to an engagement mode and
// evaluates the exit conditions that decide whether a conversation is
// worth continuing.
package policy

import (
	"time"

	"baitline/internal/session"
)

// #region exit-reasons

// Exit reasons, in evaluation order. The first condition that fires
// supplies the reason.
const (
	ExitTurnLimit = "turn-limit"
	ExitDuration  = "duration"
	ExitComplete  = "intelligence-complete"
	ExitHostile   = "counterpart-hostile"
	ExitStale     = "stale"
	// ExitSignaled is used when the caller sends the explicit
	// end-of-conversation control message.
	ExitSignaled = "end-signal"
)

// #endregion exit-reasons

// #region config

// Config holds the policy thresholds and limits.
type Config struct {
	CautiousThreshold   float64
	AggressiveThreshold float64

	// HonorExitConditions gates conditions 1-5 entirely. When false the
	// policy never stops a conversation on its own; only the explicit
	// end-of-conversation signal terminates the session.
	HonorExitConditions bool

	MaxTurnsNone       int
	MaxTurnsCautious   int
	MaxTurnsAggressive int
	MaxSessionDuration time.Duration
	StaleTurnLimit     int // consecutive turns without new intelligence

	// Completeness is a conjunction of OR-groups over categories: every
	// group must have at least one populated category for the
	// accumulated intelligence to count as complete.
	Completeness [][]session.Category
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		CautiousThreshold:   0.4,
		AggressiveThreshold: 0.85,
		HonorExitConditions: true,
		MaxTurnsNone:        10,
		MaxTurnsCautious:    20,
		MaxTurnsAggressive:  40,
		MaxSessionDuration:  2 * time.Hour,
		StaleTurnLimit:      6,
		Completeness: [][]session.Category{
			{session.CategoryPaymentHandle, session.CategoryAccountNumber},
			{session.CategoryPhone},
			{session.CategoryIdentityName},
		},
	}
}

// #endregion config

// #region decision

// Decision is the per-turn engagement verdict.
type Decision struct {
	Mode           session.Mode
	ShouldContinue bool
	ExitReason     string
}

// #endregion decision

// #region policy

// Policy is the engagement mode state machine plus exit evaluation.
type Policy struct {
	config Config
}

// New creates a policy with the given configuration.
func New(config Config) *Policy {
	return &Policy{config: config}
}

// ModeFor maps a confidence value to its computed mode, before the
// monotonic merge with the session's previous mode.
func (p *Policy) ModeFor(confidence float64) session.Mode {
	switch {
	case confidence >= p.config.AggressiveThreshold:
		return session.ModeAggressive
	case confidence >= p.config.CautiousThreshold:
		return session.ModeCautious
	default:
		return session.ModeNone
	}
}

// Decide evaluates the current turn. sess is the session as read before
// this turn's merge; confidence is the combined confidence for this
// turn; hostile reflects the most recent classification signal.
// Exit conditions are checked in fixed order, first hit wins.
func (p *Policy) Decide(sess session.Session, confidence float64, hostile bool, now time.Time) Decision {
	mode := session.MaxMode(p.ModeFor(confidence), sess.LastMode)
	turnNum := sess.TurnCount + 1 // the turn being processed

	if !p.config.HonorExitConditions {
		return Decision{Mode: mode, ShouldContinue: true}
	}

	// 1. Mode-specific turn limit. A session that never escalates gets
	// the smallest budget.
	switch mode {
	case session.ModeNone:
		if p.config.MaxTurnsNone > 0 && turnNum >= p.config.MaxTurnsNone {
			return Decision{Mode: mode, ExitReason: ExitTurnLimit}
		}
	case session.ModeCautious:
		if p.config.MaxTurnsCautious > 0 && turnNum >= p.config.MaxTurnsCautious {
			return Decision{Mode: mode, ExitReason: ExitTurnLimit}
		}
	case session.ModeAggressive:
		if p.config.MaxTurnsAggressive > 0 && turnNum >= p.config.MaxTurnsAggressive {
			return Decision{Mode: mode, ExitReason: ExitTurnLimit}
		}
	}

	// 2. Session duration.
	if p.config.MaxSessionDuration > 0 && !sess.CreatedAt.IsZero() &&
		now.Sub(sess.CreatedAt) >= p.config.MaxSessionDuration {
		return Decision{Mode: mode, ExitReason: ExitDuration}
	}

	// 3. Intelligence completeness.
	if p.Complete(sess.Intelligence) {
		return Decision{Mode: mode, ExitReason: ExitComplete}
	}

	// 4. Hostile counterpart.
	if hostile {
		return Decision{Mode: mode, ExitReason: ExitHostile}
	}

	// 5. Staleness: no new intelligence for N consecutive turns.
	if p.config.StaleTurnLimit > 0 && sess.TurnCount >= p.config.StaleTurnLimit &&
		sess.TurnCount-sess.LastIntelTurn >= p.config.StaleTurnLimit {
		return Decision{Mode: mode, ExitReason: ExitStale}
	}

	return Decision{Mode: mode, ShouldContinue: true}
}

// HonorsExits reports whether exit conditions are enforced.
func (p *Policy) HonorsExits() bool {
	return p.config.HonorExitConditions
}

// Complete reports whether the accumulated intelligence satisfies the
// configured completeness predicate. An empty predicate never completes.
func (p *Policy) Complete(intel session.Intelligence) bool {
	if len(p.config.Completeness) == 0 {
		return false
	}
	for _, group := range p.config.Completeness {
		satisfied := false
		for _, cat := range group {
			if intel.Has(cat) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}
	return true
}

// MissingCategories lists, for every unsatisfied completeness group,
// its categories. The engagement collaborator uses this to steer the
// conversation toward what is still missing.
func (p *Policy) MissingCategories(intel session.Intelligence) []session.Category {
	var missing []session.Category
	for _, group := range p.config.Completeness {
		satisfied := false
		for _, cat := range group {
			if intel.Has(cat) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			missing = append(missing, group...)
		}
	}
	return missing
}

// #endregion policy
