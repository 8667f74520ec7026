package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/JaMes-pong/MeTube/internal/config"
	"github.com/JaMes-pong/MeTube/internal/engine"
)

type fakeFetcher struct {
	mu      sync.Mutex
	lastReq engine.Request

	result *engine.Result
	err    error
	// script drives progress callbacks before Fetch returns.
	script func(hook func(engine.Progress))
}

func (f *fakeFetcher) Inspect(ctx context.Context, url string) (*engine.MediaInfo, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeFetcher) Fetch(ctx context.Context, req engine.Request, hook func(engine.Progress)) (*engine.Result, error) {
	f.mu.Lock()
	f.lastReq = req
	f.mu.Unlock()

	if f.script != nil {
		f.script(hook)
	}
	return f.result, f.err
}

func (f *fakeFetcher) request() engine.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq
}

func testRunner(t *testing.T, fetcher engine.Fetcher, free uint64) (*Runner, *Store, *config.Config) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Storage.Dir = t.TempDir()
	cfg.Storage.MinFreeSpace = "1KB"

	st := NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewRunner(cfg, st, fetcher, logger)
	r.freeBytes = func(string) (uint64, error) { return free, nil }
	return r, st, cfg
}

func waitForStatus(t *testing.T, st *Store, id string, want Status) Job {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if job, ok := st.Get(id); ok && job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	job, _ := st.Get(id)
	t.Fatalf("job %s never reached %s, last: %+v", id, want, job)
	return Job{}
}

func TestSubmitInsufficientSpace(t *testing.T) {
	r, st, _ := testRunner(t, &fakeFetcher{}, 512) // below the 1KB floor

	id, err := r.Submit("https://example.com/v", "best", "original")
	if !errors.Is(err, ErrCapacity) {
		t.Fatalf("expected ErrCapacity, got %v", err)
	}
	if id != "" {
		t.Fatalf("no job id may be issued on rejection, got %q", id)
	}
	if st.Len() != 0 {
		t.Fatal("store must stay untouched on a rejected submission")
	}
}

func TestSubmitFreeSpaceCheckFailure(t *testing.T) {
	r, st, _ := testRunner(t, &fakeFetcher{}, 0)
	r.freeBytes = func(string) (uint64, error) { return 0, errors.New("statfs boom") }

	if _, err := r.Submit("https://example.com/v", "best", "original"); err == nil {
		t.Fatal("expected error when the space check itself fails")
	}
	if st.Len() != 0 {
		t.Fatal("store must stay untouched")
	}
}

func TestSubmitReturnsBeforeFetchCompletes(t *testing.T) {
	release := make(chan struct{})
	fetcher := &fakeFetcher{
		result: &engine.Result{Filename: "x.mkv"},
		script: func(func(engine.Progress)) { <-release },
	}
	r, st, _ := testRunner(t, fetcher, 1<<30)

	id, err := r.Submit("https://example.com/v", "best", "original")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	job, ok := st.Get(id)
	if !ok {
		t.Fatal("record must exist immediately after Submit")
	}
	if job.Status.Terminal() {
		t.Fatalf("job must not be terminal while the engine still runs, got %s", job.Status)
	}

	close(release)
	waitForStatus(t, st, id, StatusCompleted)
}

func TestRunHappyPathWalksStateMachine(t *testing.T) {
	dir := ""
	fetcher := &fakeFetcher{}
	fetcher.script = func(hook func(engine.Progress)) {
		hook(engine.Progress{Phase: engine.PhaseDownloading, DownloadedBytes: 300, TotalBytes: 1000})
		hook(engine.Progress{Phase: engine.PhaseDownloading, DownloadedBytes: 1000, TotalBytes: 1000})
		hook(engine.Progress{Phase: engine.PhaseFinished, Filename: filepath.Join(dir, "id_clip.mkv")})
	}
	r, st, cfg := testRunner(t, fetcher, 1<<30)
	dir = cfg.Storage.Dir
	fetcher.result = &engine.Result{Filename: filepath.Join(cfg.Storage.Dir, "id_clip.mkv")}

	id, err := r.Submit("https://example.com/v", "720p", "original")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	job := waitForStatus(t, st, id, StatusCompleted)
	if job.Percentage != 100 {
		t.Fatalf("percentage = %v", job.Percentage)
	}
	if filepath.Ext(job.Filename) != ".mkv" {
		t.Fatalf("original output must keep the native extension, got %q", job.Filename)
	}
	if job.Message != "Download completed!" {
		t.Fatalf("message = %q", job.Message)
	}

	req := fetcher.request()
	if req.Selector != "bestvideo[height<=720]+bestaudio/best" {
		t.Fatalf("selector = %q", req.Selector)
	}
	if filepath.Dir(req.OutputTemplate) != cfg.Storage.Dir {
		t.Fatalf("output template must live under the storage root, got %q", req.OutputTemplate)
	}
	if filepath.Base(req.OutputTemplate) != id+"_%(title)s.%(ext)s" {
		t.Fatalf("output template must embed the job id, got %q", req.OutputTemplate)
	}
}

func TestRunForcedContainerExtensions(t *testing.T) {
	tests := []struct {
		format       string
		outputFormat string
		engineName   string
		wantExt      string
	}{
		{"720p", "mp4", "id_clip.mkv", ".mp4"},
		{"720p", "webm", "id_clip.mkv", ".webm"},
		{"audio", "mp4", "id_clip.webm", ".mp3"},
	}
	for _, tt := range tests {
		fetcher := &fakeFetcher{result: &engine.Result{Filename: tt.engineName}}
		r, st, _ := testRunner(t, fetcher, 1<<30)

		id, err := r.Submit("https://example.com/v", tt.format, tt.outputFormat)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		job := waitForStatus(t, st, id, StatusCompleted)
		if filepath.Ext(job.Filename) != tt.wantExt {
			t.Errorf("format=%s output=%s: filename %q, want ext %s",
				tt.format, tt.outputFormat, job.Filename, tt.wantExt)
		}
	}
}

func TestRunUnavailableSource(t *testing.T) {
	fetcher := &fakeFetcher{err: engine.ErrUnavailable}
	r, st, _ := testRunner(t, fetcher, 1<<30)

	id, err := r.Submit("https://example.com/gone", "best", "original")
	if err != nil {
		t.Fatalf("submit must succeed, background failures stay on the job: %v", err)
	}

	job := waitForStatus(t, st, id, StatusError)
	if job.ErrorKind != ErrorKindFetchUnavailable {
		t.Fatalf("error kind = %s", job.ErrorKind)
	}
	if job.Message != "Video unavailable or restricted" {
		t.Fatalf("message = %q", job.Message)
	}
}

func TestRunInternalFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("ffmpeg exploded")}
	r, st, _ := testRunner(t, fetcher, 1<<30)

	id, _ := r.Submit("https://example.com/v", "best", "original")

	job := waitForStatus(t, st, id, StatusError)
	if job.ErrorKind != ErrorKindInternal {
		t.Fatalf("error kind = %s", job.ErrorKind)
	}
	if job.Message != "ffmpeg exploded" {
		t.Fatalf("message = %q", job.Message)
	}
}
