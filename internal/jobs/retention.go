package jobs

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/JaMes-pong/MeTube/internal/metrics"
)

// ErrNotFound reports that a job id has no record.
var ErrNotFound = errors.New("job not found")

// Manager deletes a job's file and record as one logical cleanup. The
// record goes first, atomically under the store lock, so no reader can
// observe a completed record whose file is already gone; the file
// delete is best effort afterwards.
type Manager struct {
	store  *Store
	dir    string
	delay  time.Duration
	logger *slog.Logger
}

func NewManager(st *Store, dir string, delay time.Duration, logger *slog.Logger) *Manager {
	if delay <= 0 {
		delay = 300 * time.Second
	}
	return &Manager{store: st, dir: dir, delay: delay, logger: logger}
}

// Cleanup removes the record and then the backing file. It returns
// ErrNotFound when the id is absent and the file-deletion error when
// the artifact exists but cannot be removed; callers running deferred
// decide whether that failure is surfaced or merely logged.
func (m *Manager) Cleanup(id string) error {
	job, ok := m.store.Remove(id)
	if !ok {
		return ErrNotFound
	}

	if job.Filename == "" {
		return nil
	}

	var size uint64
	if info, err := os.Stat(job.Filename); err == nil {
		size = uint64(info.Size())
	}
	if err := os.Remove(job.Filename); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		m.logger.Error("delete artifact failed", "job_id", id, "filename", job.Filename, "error", err)
		return fmt.Errorf("delete %s: %w", job.Filename, err)
	}

	metrics.RecordCleanup(1, size)
	m.logger.Info("deleted artifact", "job_id", id, "filename", job.Filename)
	return nil
}

// ScheduleDeferredCleanup runs Cleanup after the retention delay,
// typically triggered by a successful file retrieval. Failures are
// logged and swallowed; deferred cleanup never crashes the process or
// blocks other jobs.
func (m *Manager) ScheduleDeferredCleanup(id string) {
	time.AfterFunc(m.delay, func() {
		if err := m.Cleanup(id); err != nil && !errors.Is(err, ErrNotFound) {
			m.logger.Error("deferred cleanup failed", "job_id", id, "error", err)
		}
	})
}

// SweepAll empties the storage root: every file and subdirectory goes,
// regardless of in-flight jobs. Jobs spanning a restart are lost; the
// service makes no crash-resilience promise. Individual failures are
// logged and skipped.
func (m *Manager) SweepAll() {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		m.logger.Error("sweep: read storage root failed", "dir", m.dir, "error", err)
		return
	}

	var removed int
	var freed uint64
	for _, entry := range entries {
		path := filepath.Join(m.dir, entry.Name())
		if info, err := entry.Info(); err == nil && !entry.IsDir() {
			freed += uint64(info.Size())
		}
		if err := os.RemoveAll(path); err != nil {
			m.logger.Error("sweep: delete failed", "path", path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		metrics.RecordCleanup(removed, freed)
		m.logger.Info("sweep: storage root emptied",
			"dir", m.dir, "removed", removed, "freed", humanize.Bytes(freed))
	}
}
