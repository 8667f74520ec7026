package jobs

import (
	"github.com/JaMes-pong/MeTube/internal/engine"
)

// Reporter is the callback surface the fetch engine drives for exactly
// one job. It runs on the engine's worker goroutine, potentially many
// times per second, and its only task is to cross into the store's
// serialized-writer domain cheaply: copy a few fields under the store
// lock, nothing else. No I/O, no blocking.
type Reporter struct {
	store *Store
	id    string
}

func NewReporter(store *Store, id string) *Reporter {
	return &Reporter{store: store, id: id}
}

// Report writes one progress snapshot into the store.
func (r *Reporter) Report(p engine.Progress) {
	switch p.Phase {
	case engine.PhaseDownloading:
		// Indeterminate progress (unknown total) reports 0 rather than
		// inventing a number; the store clamps any transient dip.
		var pct float64
		if p.TotalBytes > 0 {
			pct = float64(p.DownloadedBytes) / float64(p.TotalBytes) * 100
		}
		r.store.Update(r.id, func(j *Job) {
			j.Status = StatusDownloading
			j.Percentage = pct
			j.DownloadedBytes = p.DownloadedBytes
			j.TotalBytes = p.TotalBytes
			j.Speed = p.Speed
			j.ETA = int64(p.ETA.Seconds())
			j.Message = ""
		})

	case engine.PhaseFinished:
		// The raw file is on disk; transcoding or merging may still be
		// running inside the engine.
		r.store.Update(r.id, func(j *Job) {
			j.Status = StatusProcessing
			j.Percentage = 100
			j.Filename = p.Filename
			j.Message = "Processing file..."
		})
	}
}
