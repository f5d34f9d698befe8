// Package updater reconciles battle statuses with wall-clock time.
package updater

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/yassinebk/TaleForge/internal/database"
)

const DefaultInterval = 60 * time.Second

// Updater advances battles through upcoming → active → voting → completed on
// a fixed interval. It owns its goroutine; RunOnce is exported so tests and
// operators can trigger a pass directly.
type Updater struct {
	db       database.Service
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func New(db database.Service, interval time.Duration) *Updater {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Updater{db: db, interval: interval}
}

// Start launches the reconciliation loop, running one pass immediately.
// Calling Start on a running updater is a no-op.
func (u *Updater) Start() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.stop != nil {
		return
	}
	u.stop = make(chan struct{})
	u.done = make(chan struct{})

	go func(stop, done chan struct{}) {
		defer close(done)

		u.RunOnce(context.Background())

		ticker := time.NewTicker(u.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				u.RunOnce(context.Background())
			case <-stop:
				return
			}
		}
	}(u.stop, u.done)
}

// Stop halts the loop and waits for an in-flight pass to finish.
func (u *Updater) Stop() {
	u.mu.Lock()
	stop, done := u.stop, u.done
	u.stop, u.done = nil, nil
	u.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// RunOnce performs one reconciliation pass. Errors are logged, never
// returned: a failed pass is simply retried on the next tick.
func (u *Updater) RunOnce(ctx context.Context) {
	if n, err := u.db.ActivateDueBattles(ctx); err != nil {
		log.Printf("Error activating battles: %v", err)
	} else if n > 0 {
		log.Printf("Activated %d battle(s)", n)
	}

	if n, err := u.db.StartVotingDueBattles(ctx); err != nil {
		log.Printf("Error opening voting: %v", err)
	} else if n > 0 {
		log.Printf("Moved %d battle(s) to voting", n)
	}

	if n, err := u.db.CompleteDueBattles(ctx); err != nil {
		log.Printf("Error completing battles: %v", err)
	} else if n > 0 {
		log.Printf("Completed %d battle(s)", n)
	}
}
