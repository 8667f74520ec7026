package jobs

import (
	"context"
	"time"
)

// Event is one element of a progress stream: a snapshot while the job
// runs, a waiting placeholder while the id is not yet visible, and a
// final close marker after a terminal snapshot has been emitted.
type Event struct {
	Close bool
	Job   Job
}

// Streamer produces the lazy poll-based update sequence behind the SSE
// endpoint: read the store, emit, sleep, repeat. Each Run call is an
// independent subscriber loop; subscribers share nothing but the store.
type Streamer struct {
	store    *Store
	interval time.Duration
}

func NewStreamer(st *Store, interval time.Duration) *Streamer {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Streamer{store: st, interval: interval}
}

// Run emits one event per poll cycle until the job reaches a terminal
// state, then emits a close event and returns. An unknown id produces a
// waiting placeholder each cycle rather than an error: the client may
// open the stream before the submission is visible, a benign race.
// emit returns false when the subscriber is gone; Run also returns when
// ctx is done.
func (s *Streamer) Run(ctx context.Context, id string, emit func(Event) bool) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		job, ok := s.store.Get(id)
		if !ok {
			job = Job{
				ID:      id,
				Status:  StatusWaiting,
				Message: "Waiting for job to start...",
			}
		}

		if !emit(Event{Job: job}) {
			return
		}
		if ok && job.Status.Terminal() {
			emit(Event{Close: true})
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
