package livestore

import (
	"context"
	"sync"

	"whatsgood/internal/core"
)

// subscription is one active live query. Snapshots are delivered latest-wins
// through a single-slot channel: a slow consumer sees the newest state, not
// a backlog of stale ones.
type subscription struct {
	snaps chan core.Snapshot
	errs  chan error

	cancel context.CancelFunc
	once   sync.Once

	mu sync.Mutex
}

func newSubscription(cancel context.CancelFunc) *subscription {
	return &subscription{
		snaps:  make(chan core.Snapshot, 1),
		errs:   make(chan error, 1),
		cancel: cancel,
	}
}

func (s *subscription) Snapshots() <-chan core.Snapshot { return s.snaps }
func (s *subscription) Errors() <-chan error            { return s.errs }

func (s *subscription) Cancel() {
	s.once.Do(s.cancel)
}

func (s *subscription) deliver(snap core.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.snaps:
	default:
	}
	s.snaps <- snap
}

func (s *subscription) fail(err error) {
	select {
	case s.errs <- err:
	default:
	}
}
