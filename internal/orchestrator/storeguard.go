package orchestrator

// #region imports

import (
	"log"
	"time"

	"baitline/internal/session"
)

// #endregion

// #region store-guard

// storeGuard wraps the primary session store so a storage failure
// mid-turn degrades to an ephemeral in-memory record instead of
// surfacing as a caller error. The backup holds only sessions touched
// while the primary was failing and does not survive a restart.
type storeGuard struct {
	primary session.Store
	backup  *session.MemoryStore
}

func newStoreGuard(primary session.Store) *storeGuard {
	return &storeGuard{
		primary: primary,
		backup:  session.NewMemoryStore(),
	}
}

func (g *storeGuard) Get(id string) (session.Session, bool, error) {
	sess, found, err := g.primary.Get(id)
	if err != nil {
		log.Printf("[ORCH] session store read failed (%v), using ephemeral record", err)
		return g.backup.Get(id)
	}
	if !found {
		// The session may exist only in the backup after a degraded
		// stretch.
		if bs, bf, berr := g.backup.Get(id); berr == nil && bf {
			return bs, true, nil
		}
	}
	return sess, found, nil
}

func (g *storeGuard) InitIfAbsent(id string, now time.Time) (session.Session, error) {
	sess, err := g.primary.InitIfAbsent(id, now)
	if err != nil {
		log.Printf("[ORCH] session store init failed (%v), using ephemeral record", err)
		return g.backup.InitIfAbsent(id, now)
	}
	return sess, nil
}

func (g *storeGuard) ApplyTurn(id string, turn session.TurnUpdate) (session.Session, error) {
	sess, err := g.primary.ApplyTurn(id, turn)
	if err != nil {
		log.Printf("[ORCH] session store write failed (%v), using ephemeral record", err)
		if _, ierr := g.backup.InitIfAbsent(id, time.Now()); ierr != nil {
			return session.Session{}, ierr
		}
		return g.backup.ApplyTurn(id, turn)
	}
	return sess, nil
}

func (g *storeGuard) Finalize(id, exitReason string) (session.Session, error) {
	sess, err := g.primary.Finalize(id, exitReason)
	if err != nil {
		log.Printf("[ORCH] session store finalize failed (%v), using ephemeral record", err)
		if _, ierr := g.backup.InitIfAbsent(id, time.Now()); ierr != nil {
			return session.Session{}, ierr
		}
		return g.backup.Finalize(id, exitReason)
	}
	return sess, nil
}

func (g *storeGuard) List(limit int) ([]session.Session, error) {
	sessions, err := g.primary.List(limit)
	if err != nil {
		log.Printf("[ORCH] session store list failed (%v), using ephemeral record", err)
		return g.backup.List(limit)
	}
	return sessions, nil
}

func (g *storeGuard) Close() error {
	return g.primary.Close()
}

// #endregion
