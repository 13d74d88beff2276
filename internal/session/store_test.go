package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func tempDB(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// stores returns both implementations so every contract test runs
// against each.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": tempDB(t),
	}
}

func TestInitIfAbsent(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			now := time.Now()
			s, err := store.InitIfAbsent("conv-1", now)
			if err != nil {
				t.Fatalf("InitIfAbsent: %v", err)
			}
			if s.ID != "conv-1" || s.TurnCount != 0 || s.Terminal {
				t.Fatalf("fresh session: %+v", s)
			}

			// Second init is a no-op.
			_, err = store.ApplyTurn("conv-1", TurnUpdate{Confidence: 0.5, Mode: ModeCautious})
			if err != nil {
				t.Fatalf("ApplyTurn: %v", err)
			}
			again, err := store.InitIfAbsent("conv-1", now.Add(time.Minute))
			if err != nil {
				t.Fatalf("InitIfAbsent again: %v", err)
			}
			if again.TurnCount != 1 || again.LastConfidence != 0.5 {
				t.Fatalf("re-init clobbered session: %+v", again)
			}
		})
	}
}

func TestGetAbsent(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := store.Get("nope")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if ok {
				t.Fatal("expected absent session")
			}
		})
	}
}

func TestApplyTurnAccumulates(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			store.InitIfAbsent("conv-2", time.Now())

			_, err := store.ApplyTurn("conv-2", TurnUpdate{
				Confidence: 0.72,
				Mode:       ModeCautious,
				Category:   "account_threat",
				Intelligence: Intelligence{
					CategoryPhone: {"9876543210"},
				},
			})
			if err != nil {
				t.Fatalf("ApplyTurn 1: %v", err)
			}

			got, err := store.ApplyTurn("conv-2", TurnUpdate{
				Confidence: 0.95,
				Mode:       ModeAggressive,
				Category:   "credential_theft",
				Intelligence: Intelligence{
					CategoryPhone:         {"9876543210"},
					CategoryPaymentHandle: {"scammer@ybl"},
				},
			})
			if err != nil {
				t.Fatalf("ApplyTurn 2: %v", err)
			}

			if got.TurnCount != 2 {
				t.Fatalf("turn count: got %d, want 2", got.TurnCount)
			}
			if got.LastConfidence != 0.95 || got.LastMode != ModeAggressive {
				t.Fatalf("merged session: %+v", got)
			}
			want := Intelligence{
				CategoryPhone:         {"9876543210"},
				CategoryPaymentHandle: {"scammer@ybl"},
			}
			if diff := cmp.Diff(want, got.Intelligence); diff != "" {
				t.Fatalf("intelligence (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyTurnUnknownSession(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := store.ApplyTurn("ghost", TurnUpdate{}); err == nil {
				t.Fatal("expected error for unknown session")
			}
		})
	}
}

func TestFinalizeFreezes(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			store.InitIfAbsent("conv-3", time.Now())
			store.ApplyTurn("conv-3", TurnUpdate{Confidence: 0.9, Mode: ModeAggressive})

			s, err := store.Finalize("conv-3", "intelligence-complete")
			if err != nil {
				t.Fatalf("Finalize: %v", err)
			}
			if !s.Terminal || s.ExitReason != "intelligence-complete" {
				t.Fatalf("finalized session: %+v", s)
			}

			// First exit reason wins.
			s, err = store.Finalize("conv-3", "duration")
			if err != nil {
				t.Fatalf("Finalize again: %v", err)
			}
			if s.ExitReason != "intelligence-complete" {
				t.Fatalf("exit reason overwritten: %q", s.ExitReason)
			}
		})
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.db")

	s1, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	s1.InitIfAbsent("conv-4", time.Now())
	s1.ApplyTurn("conv-4", TurnUpdate{
		Confidence:   0.8,
		Mode:         ModeCautious,
		Intelligence: Intelligence{CategoryURL: {"http://phish.example/claim"}},
	})
	s1.Close()

	s2, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, ok, err := s2.Get("conv-4")
	if err != nil || !ok {
		t.Fatalf("Get after reopen: ok=%v err=%v", ok, err)
	}
	if got.LastConfidence != 0.8 || !got.Intelligence.Has(CategoryURL) {
		t.Fatalf("persisted session: %+v", got)
	}
}

func TestList(t *testing.T) {
	store := tempDB(t)
	base := time.Now()
	for i, id := range []string{"a", "b", "c"} {
		store.InitIfAbsent(id, base.Add(time.Duration(i)*time.Second))
	}

	got, err := store.List(2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d sessions, want 2", len(got))
	}
	if got[0].ID != "c" || got[1].ID != "b" {
		t.Fatalf("order: %s, %s", got[0].ID, got[1].ID)
	}
}
