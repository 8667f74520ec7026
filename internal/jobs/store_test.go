package jobs

import (
	"sync"
	"testing"
)

func TestStorePutGetRemove(t *testing.T) {
	st := NewStore()

	st.Put("a", Job{Status: StatusQueued, Message: "Download queued"})

	job, ok := st.Get("a")
	if !ok {
		t.Fatal("expected record for id a")
	}
	if job.ID != "a" || job.Status != StatusQueued {
		t.Fatalf("unexpected snapshot: %+v", job)
	}
	if job.UpdatedAt.IsZero() {
		t.Fatal("expected UpdatedAt to be set")
	}

	removed, ok := st.Remove("a")
	if !ok || removed.ID != "a" {
		t.Fatalf("expected last snapshot from Remove, got %+v ok=%v", removed, ok)
	}
	if _, ok := st.Get("a"); ok {
		t.Fatal("record should be gone after Remove")
	}
	if _, ok := st.Remove("a"); ok {
		t.Fatal("second Remove should report absence")
	}
}

func TestStoreUpdateUnknownID(t *testing.T) {
	st := NewStore()
	if st.Update("missing", func(j *Job) { j.Status = StatusStarting }) {
		t.Fatal("Update on unknown id should return false")
	}
}

func TestStoreRejectsBackwardTransition(t *testing.T) {
	st := NewStore()
	st.Put("a", Job{Status: StatusProcessing})

	st.Update("a", func(j *Job) {
		j.Status = StatusDownloading
		j.Percentage = 10
	})

	job, _ := st.Get("a")
	if job.Status != StatusProcessing {
		t.Fatalf("backward transition must be discarded, got %s", job.Status)
	}
	if job.Percentage != 0 {
		t.Fatalf("discarded update must not leak fields, got %v", job.Percentage)
	}
}

func TestStoreTerminalStateIsFinal(t *testing.T) {
	st := NewStore()
	st.Put("a", Job{Status: StatusError, ErrorKind: ErrorKindInternal})

	st.Update("a", func(j *Job) { j.Status = StatusCompleted })

	job, _ := st.Get("a")
	if job.Status != StatusError {
		t.Fatalf("terminal state must not change, got %s", job.Status)
	}
}

func TestStoreErrorReachableFromAnyNonTerminalState(t *testing.T) {
	for _, from := range []Status{StatusQueued, StatusStarting, StatusDownloading, StatusProcessing} {
		st := NewStore()
		st.Put("a", Job{Status: from})

		st.Update("a", func(j *Job) { j.Status = StatusError })

		job, _ := st.Get("a")
		if job.Status != StatusError {
			t.Fatalf("error must be reachable from %s, got %s", from, job.Status)
		}
	}
}

func TestStoreClampsPercentageWhileDownloading(t *testing.T) {
	st := NewStore()
	st.Put("a", Job{Status: StatusDownloading, Percentage: 40})

	st.Update("a", func(j *Job) {
		j.Status = StatusDownloading
		j.Percentage = 25
	})

	job, _ := st.Get("a")
	if job.Percentage != 40 {
		t.Fatalf("percentage must not decrease while downloading, got %v", job.Percentage)
	}

	st.Update("a", func(j *Job) {
		j.Status = StatusDownloading
		j.Percentage = 55
	})
	job, _ = st.Get("a")
	if job.Percentage != 55 {
		t.Fatalf("forward progress must apply, got %v", job.Percentage)
	}
}

func TestStoreFilenameNeverCleared(t *testing.T) {
	st := NewStore()
	st.Put("a", Job{Status: StatusProcessing, Filename: "downloads/a_clip.webm"})

	st.Update("a", func(j *Job) { j.Filename = "" })
	job, _ := st.Get("a")
	if job.Filename != "downloads/a_clip.webm" {
		t.Fatalf("filename must never be cleared, got %q", job.Filename)
	}

	// The terminal write may replace it with the post-processed path.
	st.Update("a", func(j *Job) {
		j.Status = StatusCompleted
		j.Filename = "downloads/a_clip.mp4"
	})
	job, _ = st.Get("a")
	if job.Filename != "downloads/a_clip.mp4" {
		t.Fatalf("terminal write should set the final path, got %q", job.Filename)
	}
}

func TestStoreSnapshotIsolation(t *testing.T) {
	st := NewStore()
	st.Put("a", Job{Status: StatusDownloading, Percentage: 10})

	snap, _ := st.Get("a")
	snap.Percentage = 99
	snap.Status = StatusError

	job, _ := st.Get("a")
	if job.Percentage != 10 || job.Status != StatusDownloading {
		t.Fatalf("mutating a snapshot must not affect the store, got %+v", job)
	}
}

// One writer advancing a job, many readers asserting they only ever
// observe forward state transitions and non-decreasing percentages.
func TestStoreConcurrentReadersObserveMonotonicProgress(t *testing.T) {
	st := NewStore()
	st.Put("a", Job{Status: StatusQueued})

	done := make(chan struct{})
	var wg sync.WaitGroup

	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lastRank := -1
			lastPct := -1.0
			for {
				select {
				case <-done:
					return
				default:
				}
				job, ok := st.Get("a")
				if !ok {
					continue
				}
				rank := job.Status.rank()
				if rank < lastRank {
					t.Errorf("observed backward transition: rank %d -> %d", lastRank, rank)
					return
				}
				if job.Status == StatusDownloading {
					if job.Percentage < lastPct {
						t.Errorf("observed percentage drop: %v -> %v", lastPct, job.Percentage)
						return
					}
					lastPct = job.Percentage
				}
				lastRank = rank
			}
		}()
	}

	st.Update("a", func(j *Job) { j.Status = StatusStarting })
	for pct := 0; pct <= 100; pct += 5 {
		p := float64(pct)
		st.Update("a", func(j *Job) {
			j.Status = StatusDownloading
			j.Percentage = p
		})
	}
	st.Update("a", func(j *Job) {
		j.Status = StatusProcessing
		j.Percentage = 100
	})
	st.Update("a", func(j *Job) { j.Status = StatusCompleted })

	close(done)
	wg.Wait()
}
