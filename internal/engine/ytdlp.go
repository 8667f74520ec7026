package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

// YTDLP drives the yt-dlp binary through go-ytdlp. One Fetch call maps
// to one yt-dlp invocation; progress updates arrive on go-ytdlp's
// reader goroutine and are forwarded to the caller's hook.
type YTDLP struct {
	progressInterval time.Duration
}

func NewYTDLP() *YTDLP {
	return &YTDLP{progressInterval: 500 * time.Millisecond}
}

// infoPayload is the subset of yt-dlp's -J output the service needs.
type infoPayload struct {
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Thumb    string  `json:"thumbnail"`
	Uploader string  `json:"uploader"`
	Formats  []struct {
		FormatID string   `json:"format_id"`
		Height   *float64 `json:"height"`
		Ext      string   `json:"ext"`
		Filesize *int64   `json:"filesize"`
	} `json:"formats"`
}

func (y *YTDLP) Inspect(ctx context.Context, url string) (*MediaInfo, error) {
	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		NoPlaylist().
		SkipDownload().
		DumpSingleJSON()

	res, err := cmd.Run(ctx, url)
	if err != nil {
		return nil, classify(err)
	}

	var payload infoPayload
	if err := json.Unmarshal([]byte(res.Stdout), &payload); err != nil {
		return nil, fmt.Errorf("decode media info: %w", err)
	}

	info := &MediaInfo{
		Title:    payload.Title,
		Duration: payload.Duration,
		Thumb:    payload.Thumb,
		Uploader: payload.Uploader,
	}
	for _, f := range payload.Formats {
		entry := FormatInfo{ID: f.FormatID, Ext: f.Ext}
		if f.Height != nil {
			entry.Height = int(*f.Height)
		}
		if f.Filesize != nil {
			entry.Filesize = *f.Filesize
		}
		info.Formats = append(info.Formats, entry)
	}
	return info, nil
}

func (y *YTDLP) Fetch(ctx context.Context, req Request, hook func(Progress)) (*Result, error) {
	cmd := ytdlp.New().
		NoPlaylist().
		RestrictFilenames().
		ForceOverwrites().
		Format(req.Selector).
		Output(req.OutputTemplate)

	if req.MergeFormat != "" {
		cmd = cmd.MergeOutputFormat(req.MergeFormat)
	}
	if req.ExtractAudio {
		cmd = cmd.ExtractAudio().AudioFormat(req.AudioFormat)
		if req.AudioQuality != "" {
			cmd = cmd.AudioQuality(req.AudioQuality)
		}
	}
	if req.PostprocessorArgs != "" {
		cmd = cmd.PostProcessorArgs(req.PostprocessorArgs)
	}
	if req.MaxFileSizeBytes > 0 {
		cmd = cmd.MaxFileSize(fmt.Sprintf("%d", req.MaxFileSizeBytes))
	}
	if req.SocketTimeout > 0 {
		cmd = cmd.SocketTimeout(req.SocketTimeout.Seconds())
	}

	var lastFilename string
	cmd.ProgressFunc(y.progressInterval, func(update ytdlp.ProgressUpdate) {
		p, ok := convertProgress(update)
		if !ok {
			return
		}
		if p.Filename != "" {
			lastFilename = p.Filename
		}
		if hook != nil {
			hook(p)
		}
	})

	res, err := cmd.Run(ctx, req.URL)
	if err != nil {
		return nil, classify(err)
	}

	filename := lastFilename
	if res != nil {
		if info, err := res.GetExtractedInfo(); err == nil && len(info) > 0 {
			if info[0].Filename != nil && *info[0].Filename != "" {
				filename = *info[0].Filename
			}
		}
	}
	if filename == "" {
		return nil, fmt.Errorf("engine reported no output filename")
	}
	return &Result{Filename: filename}, nil
}

func convertProgress(update ytdlp.ProgressUpdate) (Progress, bool) {
	p := Progress{
		DownloadedBytes: int64(update.DownloadedBytes),
		TotalBytes:      int64(update.TotalBytes),
		Filename:        update.Filename,
	}

	switch update.Status {
	case ytdlp.ProgressStatusDownloading:
		p.Phase = PhaseDownloading
	case ytdlp.ProgressStatusPostProcessing, ytdlp.ProgressStatusFinished:
		p.Phase = PhaseFinished
	default:
		return Progress{}, false
	}

	if !update.Started.IsZero() {
		if elapsed := time.Since(update.Started); elapsed > 0 {
			p.Speed = float64(update.DownloadedBytes) / elapsed.Seconds()
		}
	}
	if eta := update.ETA(); eta > 0 {
		p.ETA = eta
	}
	return p, true
}

// classify maps yt-dlp failures onto the service taxonomy. yt-dlp does
// not expose structured error codes, so this matches the well-known
// phrases it prints for rejected or restricted sources.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"video unavailable",
		"private video",
		"this video is not available",
		"sign in to confirm",
		"members-only",
		"geo restricted",
		"not available in your country",
		"http error 403",
	} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %s", ErrUnavailable, err.Error())
		}
	}
	return err
}
