// Package engine abstracts the external fetch-and-transcode tool. The
// rest of the system only sees the Fetcher interface; the concrete
// implementation drives yt-dlp.
package engine

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable marks sources that rejected or restricted access
// (private, region-locked, removed). Callers use errors.Is to
// distinguish it from internal failures.
var ErrUnavailable = errors.New("source unavailable or restricted")

// Phase is the coarse stage reported by a progress callback.
type Phase string

const (
	// PhaseDownloading means bytes are still arriving.
	PhaseDownloading Phase = "downloading"
	// PhaseFinished means the raw download is on disk; post-processing
	// (merge, audio extraction) may still run after this callback.
	PhaseFinished Phase = "finished"
)

// Progress is one snapshot pushed from the engine's worker goroutine.
// Totals may be zero when the source does not announce a size.
type Progress struct {
	Phase           Phase
	DownloadedBytes int64
	TotalBytes      int64
	Speed           float64 // bytes per second, best effort
	ETA             time.Duration
	Filename        string
}

// Request describes one fetch. Selector and the post-processing fields
// come from the format policy; OutputTemplate is an engine-native
// naming pattern that embeds the job id.
type Request struct {
	URL               string
	Selector          string
	OutputTemplate    string
	MergeFormat       string // force container merge when non-empty
	ExtractAudio      bool
	AudioFormat       string
	AudioQuality      string
	PostprocessorArgs string
	MaxFileSizeBytes  int64
	SocketTimeout     time.Duration
}

// Result reports the artifact as the engine named it, before any
// extension fix-up for post-processed outputs.
type Result struct {
	Filename string
}

// FormatInfo is one raw entry from a source's format list. Height is
// zero for audio-only entries.
type FormatInfo struct {
	ID       string
	Height   int
	Ext      string
	Filesize int64
}

// MediaInfo is the metadata returned by an inspect-only fetch.
type MediaInfo struct {
	Title    string
	Duration float64
	Thumb    string
	Uploader string
	Formats  []FormatInfo
}

// Fetcher is the boundary to the external tool. Fetch blocks for the
// whole download and invokes hook from the engine's own goroutine,
// potentially many times per second; hook must be cheap and
// non-blocking. Inspect never downloads.
type Fetcher interface {
	Inspect(ctx context.Context, url string) (*MediaInfo, error)
	Fetch(ctx context.Context, req Request, hook func(Progress)) (*Result, error)
}
