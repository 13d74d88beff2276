package policy

import (
	"testing"
	"time"

	"baitline/internal/session"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxTurnsNone = 3
	cfg.MaxTurnsCautious = 5
	cfg.MaxTurnsAggressive = 10
	cfg.MaxSessionDuration = time.Hour
	cfg.StaleTurnLimit = 3
	return cfg
}

func TestModeFor(t *testing.T) {
	p := New(DefaultConfig())
	tests := []struct {
		confidence float64
		want       session.Mode
	}{
		{0.0, session.ModeNone},
		{0.39, session.ModeNone},
		{0.4, session.ModeCautious},
		{0.72, session.ModeCautious},
		{0.84, session.ModeCautious},
		{0.85, session.ModeAggressive},
		{0.95, session.ModeAggressive},
	}
	for _, tt := range tests {
		if got := p.ModeFor(tt.confidence); got != tt.want {
			t.Errorf("ModeFor(%f) = %v, want %v", tt.confidence, got, tt.want)
		}
	}
}

func TestDecideModeMonotonic(t *testing.T) {
	p := New(testConfig())
	sess := session.Session{
		CreatedAt:    time.Now(),
		TurnCount:    2,
		LastMode:     session.ModeAggressive,
		Intelligence: session.Intelligence{},
	}

	// Low-confidence turn must not drop the mode.
	d := p.Decide(sess, 0.2, false, time.Now())
	if d.Mode != session.ModeAggressive {
		t.Fatalf("mode de-escalated to %v", d.Mode)
	}
}

func TestDecideTurnLimit(t *testing.T) {
	p := New(testConfig())
	now := time.Now()

	sess := session.Session{
		CreatedAt:    now,
		TurnCount:    4, // processing turn 5 = cautious limit
		LastMode:     session.ModeCautious,
		Intelligence: session.Intelligence{},
		LastIntelTurn: 4,
	}
	d := p.Decide(sess, 0.5, false, now)
	if d.ShouldContinue || d.ExitReason != ExitTurnLimit {
		t.Fatalf("decision: %+v", d)
	}

	// Aggressive mode has its own, larger limit.
	sess.LastMode = session.ModeAggressive
	d = p.Decide(sess, 0.9, false, now)
	if !d.ShouldContinue {
		t.Fatalf("aggressive session stopped at cautious limit: %+v", d)
	}
}

func TestDecideTurnLimitNone(t *testing.T) {
	p := New(testConfig())
	now := time.Now()

	// A session that never escalates runs out of turns first.
	sess := session.Session{
		CreatedAt:     now,
		TurnCount:     1,
		LastIntelTurn: 1,
		Intelligence:  session.Intelligence{},
	}
	d := p.Decide(sess, 0.2, false, now)
	if !d.ShouldContinue {
		t.Fatalf("stopped before the limit: %+v", d)
	}

	sess.TurnCount = 2 // processing turn 3 = limit for mode none
	sess.LastIntelTurn = 2
	d = p.Decide(sess, 0.2, false, now)
	if d.ShouldContinue || d.ExitReason != ExitTurnLimit {
		t.Fatalf("decision: %+v", d)
	}
	if d.Mode != session.ModeNone {
		t.Fatalf("mode: %v", d.Mode)
	}
}

func TestDecideDuration(t *testing.T) {
	p := New(testConfig())
	now := time.Now()
	sess := session.Session{
		CreatedAt:     now.Add(-2 * time.Hour),
		TurnCount:     1,
		LastIntelTurn: 1,
		Intelligence:  session.Intelligence{},
	}
	d := p.Decide(sess, 0.5, false, now)
	if d.ShouldContinue || d.ExitReason != ExitDuration {
		t.Fatalf("decision: %+v", d)
	}
}

func TestDecideCompleteness(t *testing.T) {
	p := New(testConfig())
	now := time.Now()
	sess := session.Session{
		CreatedAt:     now,
		TurnCount:     2,
		LastIntelTurn: 2,
		Intelligence: session.Intelligence{
			session.CategoryAccountNumber: {"304985761234"},
			session.CategoryPhone:         {"9876543210"},
			session.CategoryIdentityName:  {"rakesh kumar"},
		},
	}
	d := p.Decide(sess, 0.9, false, now)
	if d.ShouldContinue || d.ExitReason != ExitComplete {
		t.Fatalf("decision: %+v", d)
	}

	// Account number satisfies the payment group without a payment
	// handle; dropping it leaves the group unsatisfied.
	sess.Intelligence = session.Intelligence{
		session.CategoryPhone:        {"9876543210"},
		session.CategoryIdentityName: {"rakesh kumar"},
	}
	d = p.Decide(sess, 0.9, false, now)
	if !d.ShouldContinue {
		t.Fatalf("incomplete intelligence treated as complete: %+v", d)
	}
}

func TestDecideHostile(t *testing.T) {
	p := New(testConfig())
	now := time.Now()
	sess := session.Session{
		CreatedAt:     now,
		TurnCount:     1,
		LastIntelTurn: 1,
		Intelligence:  session.Intelligence{},
	}
	d := p.Decide(sess, 0.9, true, now)
	if d.ShouldContinue || d.ExitReason != ExitHostile {
		t.Fatalf("decision: %+v", d)
	}
}

func TestDecideStale(t *testing.T) {
	p := New(testConfig())
	now := time.Now()
	sess := session.Session{
		CreatedAt:     now,
		TurnCount:     3,
		LastIntelTurn: 0, // three turns without growth
		Intelligence:  session.Intelligence{},
	}
	d := p.Decide(sess, 0.5, false, now)
	if d.ShouldContinue || d.ExitReason != ExitStale {
		t.Fatalf("decision: %+v", d)
	}
}

func TestDecideExitOrdering(t *testing.T) {
	// With several conditions true at once, the lowest-numbered one
	// supplies the reason: turn limit beats completeness and hostility.
	p := New(testConfig())
	now := time.Now()
	sess := session.Session{
		CreatedAt: now.Add(-3 * time.Hour),
		TurnCount: 20,
		LastMode:  session.ModeCautious,
		Intelligence: session.Intelligence{
			session.CategoryPaymentHandle: {"x@ybl"},
			session.CategoryPhone:         {"9876543210"},
			session.CategoryIdentityName:  {"rakesh kumar"},
		},
	}
	d := p.Decide(sess, 0.5, true, now)
	if d.ExitReason != ExitTurnLimit {
		t.Fatalf("exit reason: got %q, want %q", d.ExitReason, ExitTurnLimit)
	}
}

func TestDecideHonorFlagOff(t *testing.T) {
	cfg := testConfig()
	cfg.HonorExitConditions = false
	p := New(cfg)
	now := time.Now()

	// Every exit condition is true, yet the conversation continues.
	sess := session.Session{
		CreatedAt: now.Add(-3 * time.Hour),
		TurnCount: 50,
		LastMode:  session.ModeAggressive,
		Intelligence: session.Intelligence{
			session.CategoryPaymentHandle: {"x@ybl"},
			session.CategoryPhone:         {"9876543210"},
			session.CategoryIdentityName:  {"rakesh kumar"},
		},
	}
	d := p.Decide(sess, 0.95, true, now)
	if !d.ShouldContinue || d.ExitReason != "" {
		t.Fatalf("decision: %+v", d)
	}
	if d.Mode != session.ModeAggressive {
		t.Fatalf("mode: %v", d.Mode)
	}
}

func TestMissingCategories(t *testing.T) {
	p := New(testConfig())
	missing := p.MissingCategories(session.Intelligence{
		session.CategoryPhone: {"9876543210"},
	})

	// payment group and identity group are unsatisfied.
	want := map[session.Category]bool{
		session.CategoryPaymentHandle: true,
		session.CategoryAccountNumber: true,
		session.CategoryIdentityName:  true,
	}
	if len(missing) != len(want) {
		t.Fatalf("missing: %v", missing)
	}
	for _, cat := range missing {
		if !want[cat] {
			t.Fatalf("unexpected missing category %q", cat)
		}
	}
}
