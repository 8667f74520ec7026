package jobs

import (
	"sync"
	"time"
)

// Store is the single source of truth for job state. All mutations are
// serialized by one mutex; readers take snapshot copies so no lock is
// held across I/O. Lock hold time is bounded by the copy of one small
// record.
//
// Store also enforces the two ordering invariants every reader relies
// on: status never moves backward through the state machine (except
// into error from a non-terminal state), and percentage never
// decreases while a job stays in the downloading state.
type Store struct {
	mu   sync.Mutex
	jobs map[string]Job
}

func NewStore() *Store {
	return &Store{jobs: make(map[string]Job)}
}

// Put creates or replaces the record for id.
func (s *Store) Put(id string, job Job) {
	job.ID = id
	job.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	s.jobs[id] = job
	s.mu.Unlock()
}

// Get returns a snapshot copy of the record for id.
func (s *Store) Get(id string) (Job, bool) {
	s.mu.Lock()
	job, ok := s.jobs[id]
	s.mu.Unlock()
	return job, ok
}

// Update applies fn to the record for id under the lock and reports
// whether the record existed. Mutations that would violate the
// forward-only status order are discarded wholesale; a percentage drop
// within the downloading state is clamped to the previous value.
// fn must not block or perform I/O.
func (s *Store) Update(id string, fn func(*Job)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.jobs[id]
	if !ok {
		return false
	}

	next := prev
	fn(&next)
	next.ID = prev.ID

	if next.Status != prev.Status {
		if prev.Status.Terminal() || next.Status.rank() < prev.Status.rank() {
			return true
		}
	}
	if next.Status == StatusDownloading && prev.Status == StatusDownloading &&
		next.Percentage < prev.Percentage {
		next.Percentage = prev.Percentage
	}
	if next.Filename == "" {
		next.Filename = prev.Filename
	}

	next.UpdatedAt = time.Now().UTC()
	s.jobs[id] = next
	return true
}

// Remove deletes the record for id and returns its last snapshot. The
// delete and the copy happen in one critical section, so a concurrent
// reader either sees the full record or nothing at all.
func (s *Store) Remove(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if ok {
		delete(s.jobs, id)
	}
	return job, ok
}

// Len returns the number of live records.
func (s *Store) Len() int {
	s.mu.Lock()
	n := len(s.jobs)
	s.mu.Unlock()
	return n
}
