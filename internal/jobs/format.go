package jobs

import (
	"strings"
	"time"

	"github.com/JaMes-pong/MeTube/internal/engine"
)

// Quality buckets accepted by the submit endpoint. Each requests the
// best compatible video+audio streams at or below the bucket's height;
// unknown values fall back to "best".
var formatSelectors = map[string]string{
	"best":  "bestvideo+bestaudio/best",
	"2160p": "bestvideo[height<=2160]+bestaudio/best",
	"1440p": "bestvideo[height<=1440]+bestaudio/best",
	"1080p": "bestvideo[height<=1080]+bestaudio/best",
	"720p":  "bestvideo[height<=720]+bestaudio/best",
	"480p":  "bestvideo[height<=480]+bestaudio/best",
	"360p":  "bestvideo[height<=360]+bestaudio/best",
	"240p":  "bestvideo[height<=240]+bestaudio/best",
	"144p":  "bestvideo[height<=144]+bestaudio/best",
}

const (
	audioSelector = "bestaudio/best"
	audioExt      = "mp3"
	audioBitrate  = "192K"
)

// Plan is the resolved engine configuration for one job, derived from
// the requested quality bucket and output container.
type Plan struct {
	Selector          string
	MergeFormat       string
	ExtractAudio      bool
	AudioFormat       string
	AudioQuality      string
	PostprocessorArgs string
}

// ResolvePlan applies the static format/container policy:
//
//   - format=audio overrides everything to best-audio-only, transcoded
//     to MP3 at a fixed bitrate;
//   - output_format=mp4 forces an MP4 merge, re-encoding only the audio
//     stream to AAC while stream-copying video;
//   - output_format=webm forces a WebM merge with both streams copied;
//   - output_format=original performs no forced merge, keeping whatever
//     container the engine natively selects.
func ResolvePlan(format, outputFormat string) Plan {
	if format == "audio" {
		return Plan{
			Selector:     audioSelector,
			ExtractAudio: true,
			AudioFormat:  audioExt,
			AudioQuality: audioBitrate,
		}
	}

	selector, ok := formatSelectors[format]
	if !ok {
		selector = formatSelectors["best"]
	}
	plan := Plan{Selector: selector}

	switch outputFormat {
	case "mp4":
		plan.MergeFormat = "mp4"
		plan.PostprocessorArgs = "ffmpeg:-c:v copy -c:a aac -b:a 192k"
	case "webm":
		plan.MergeFormat = "webm"
		plan.PostprocessorArgs = "ffmpeg:-c:v copy -c:a copy"
	}
	return plan
}

// Request builds the engine invocation for this plan.
func (p Plan) Request(url, outputTemplate string, maxFileSize int64, socketTimeout time.Duration) engine.Request {
	return engine.Request{
		URL:               url,
		Selector:          p.Selector,
		OutputTemplate:    outputTemplate,
		MergeFormat:       p.MergeFormat,
		ExtractAudio:      p.ExtractAudio,
		AudioFormat:       p.AudioFormat,
		AudioQuality:      p.AudioQuality,
		PostprocessorArgs: p.PostprocessorArgs,
		MaxFileSizeBytes:  maxFileSize,
		SocketTimeout:     socketTimeout,
	}
}

// FinalPath derives the artifact path from the engine's reported output
// name: audio extraction forces the audio extension, a forced container
// merge forces that extension, and otherwise the native extension stays
// untouched.
func (p Plan) FinalPath(name string) string {
	switch {
	case p.ExtractAudio:
		return swapExt(name, audioExt)
	case p.MergeFormat != "":
		return swapExt(name, p.MergeFormat)
	default:
		return name
	}
}

func swapExt(name, ext string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name + "." + ext
}
