package http

// VideoRequest is the submit/inspect input. Format and OutputFormat
// default to "best" and "original" when omitted.
type VideoRequest struct {
	URL          string `json:"url"`
	Format       string `json:"format,omitempty"`
	OutputFormat string `json:"output_format,omitempty"`
}

// DownloadJob acknowledges an accepted submission.
type DownloadJob struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// FormatItem is one deduplicated entry of a source's format list, one
// per distinct vertical resolution.
type FormatItem struct {
	FormatID    string `json:"format_id"`
	Resolution  string `json:"resolution"`
	Ext         string `json:"ext"`
	Filesize    int64  `json:"filesize"`
	HasFilesize bool   `json:"has_filesize"`
}

// VideoInfoResponse is the inspect-only metadata payload.
type VideoInfoResponse struct {
	Title     string       `json:"title"`
	Duration  float64      `json:"duration"`
	Thumbnail string       `json:"thumbnail"`
	Uploader  string       `json:"uploader"`
	Formats   []FormatItem `json:"formats"`
}

// CleanupResponse acknowledges a synchronous delete.
type CleanupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is the error envelope shared by every endpoint.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error"`
}
