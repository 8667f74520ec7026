package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/JaMes-pong/MeTube/internal/config"
	"github.com/JaMes-pong/MeTube/internal/engine"
	"github.com/JaMes-pong/MeTube/internal/metrics"
	"github.com/JaMes-pong/MeTube/internal/storage"
)

// ErrCapacity rejects a submission before any job record is created,
// so no job id is wasted on a request that cannot be served.
var ErrCapacity = errors.New("insufficient storage capacity")

// Runner orchestrates one job end-to-end: it validates the capacity
// precondition, allocates the id, hands the fetch to a dedicated
// goroutine, and writes the terminal state. The request goroutine never
// waits on engine work.
type Runner struct {
	cfg     *config.Config
	store   *Store
	fetcher engine.Fetcher
	logger  *slog.Logger

	// freeBytes is storage.FreeBytes, replaceable in tests.
	freeBytes func(dir string) (uint64, error)
}

func NewRunner(cfg *config.Config, st *Store, fetcher engine.Fetcher, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:       cfg,
		store:     st,
		fetcher:   fetcher,
		logger:    logger,
		freeBytes: storage.FreeBytes,
	}
}

// Submit checks the free-space precondition, stores a queued record and
// returns its id immediately. The fetch runs on its own goroutine.
func (r *Runner) Submit(url, format, outputFormat string) (string, error) {
	free, err := r.freeBytes(r.cfg.Storage.Dir)
	if err != nil {
		return "", fmt.Errorf("check free space: %w", err)
	}
	if free < r.cfg.Storage.MinFreeBytes() {
		return "", ErrCapacity
	}

	id := uuid.New().String()
	r.store.Put(id, Job{Status: StatusQueued, Message: "Download queued"})

	go r.run(id, url, format, outputFormat)
	return id, nil
}

// run executes in the job's own goroutine. Failures are recorded on
// the job and discovered by polling or streaming, never raised to the
// submitter. An in-flight fetch cannot be cancelled; the engine runs
// detached from any request context.
func (r *Runner) run(id, url, format, outputFormat string) {
	r.store.Update(id, func(j *Job) {
		j.Status = StatusStarting
		j.Message = "Initializing download..."
	})

	plan := ResolvePlan(format, outputFormat)
	req := plan.Request(
		url,
		filepath.Join(r.cfg.Storage.Dir, id+"_%(title)s.%(ext)s"),
		r.cfg.Engine.MaxFileSizeBytes(),
		r.cfg.Engine.SocketTimeout(),
	)

	reporter := NewReporter(r.store, id)
	res, err := r.fetcher.Fetch(context.Background(), req, reporter.Report)
	if err != nil {
		kind := ErrorKindInternal
		message := err.Error()
		if errors.Is(err, engine.ErrUnavailable) {
			kind = ErrorKindFetchUnavailable
			message = "Video unavailable or restricted"
		}
		r.logger.Error("download failed", "job_id", id, "kind", string(kind), "error", err)
		r.store.Update(id, func(j *Job) {
			j.Status = StatusError
			j.Percentage = 0
			j.ErrorKind = kind
			j.Message = message
		})
		metrics.RecordJob(string(StatusError))
		return
	}

	final := plan.FinalPath(res.Filename)
	r.store.Update(id, func(j *Job) {
		j.Status = StatusCompleted
		j.Percentage = 100
		j.Filename = final
		j.Message = "Download completed!"
	})
	metrics.RecordJob(string(StatusCompleted))
	r.logger.Info("download completed", "job_id", id, "filename", final)
}
