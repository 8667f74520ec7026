package jobs

import "time"

// Job is the progress record for one download, identified by a random
// UUID issued at submission time. Readers always receive copies; only
// the Store mutates the authoritative record, under its lock.
type Job struct {
	ID              string    `json:"job_id"`
	Status          Status    `json:"status"`
	Percentage      float64   `json:"percentage"`
	DownloadedBytes int64     `json:"downloaded,omitempty"`
	TotalBytes      int64     `json:"total,omitempty"`
	Speed           float64   `json:"speed,omitempty"`
	ETA             int64     `json:"eta,omitempty"`
	Filename        string    `json:"filename,omitempty"`
	Message         string    `json:"message,omitempty"`
	ErrorKind       ErrorKind `json:"error_type,omitempty"`
	UpdatedAt       time.Time `json:"timestamp"`
}
