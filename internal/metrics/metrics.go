package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Simple Prometheus-style metrics for HTTP requests and job outcomes.
// This is intentionally minimal and in-memory only.

var (
	mu             sync.RWMutex
	requestsTotal  = make(map[reqKey]int64)
	latencyMsSum   = make(map[latKey]int64)
	latencyMsCount = make(map[latKey]int64)

	jobsTotal = make(map[string]int64)

	cleanupFilesDeleted int64
	cleanupBytesFreed   uint64
)

type reqKey struct {
	Method string
	Path   string
	Status int
}

type latKey struct {
	Method string
	Path   string
}

// RecordRequest increments request counter and records latency.
func RecordRequest(method, path string, status int, latencyMs int64) {
	mu.Lock()
	defer mu.Unlock()

	rk := reqKey{Method: method, Path: path, Status: status}
	requestsTotal[rk]++

	lk := latKey{Method: method, Path: path}
	latencyMsSum[lk] += latencyMs
	latencyMsCount[lk]++
}

// RecordJob increments the counter of jobs that reached the given
// terminal status.
func RecordJob(status string) {
	mu.Lock()
	defer mu.Unlock()
	jobsTotal[status]++
}

// RecordCleanup increments the counters of deleted artifacts and
// freed bytes.
func RecordCleanup(files int, bytes uint64) {
	if files <= 0 {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	cleanupFilesDeleted += int64(files)
	cleanupBytesFreed += bytes
}

// Export returns Prometheus-style metrics text.
func Export() string {
	mu.RLock()
	defer mu.RUnlock()

	var b strings.Builder

	b.WriteString("# HELP metube_http_requests_total Total HTTP requests\n")
	b.WriteString("# TYPE metube_http_requests_total counter\n")

	// Sort keys for stable output
	var reqKeys []reqKey
	for k := range requestsTotal {
		reqKeys = append(reqKeys, k)
	}
	sort.Slice(reqKeys, func(i, j int) bool {
		if reqKeys[i].Method != reqKeys[j].Method {
			return reqKeys[i].Method < reqKeys[j].Method
		}
		if reqKeys[i].Path != reqKeys[j].Path {
			return reqKeys[i].Path < reqKeys[j].Path
		}
		return reqKeys[i].Status < reqKeys[j].Status
	})

	for _, k := range reqKeys {
		v := requestsTotal[k]
		fmt.Fprintf(&b, "metube_http_requests_total{method=\"%s\",path=\"%s\",status=\"%d\"} %d\n",
			k.Method, k.Path, k.Status, v)
	}

	b.WriteString("# HELP metube_http_request_duration_ms_sum Total request duration in milliseconds\n")
	b.WriteString("# TYPE metube_http_request_duration_ms_sum counter\n")
	b.WriteString("# HELP metube_http_request_duration_ms_count Request count for latency metric\n")
	b.WriteString("# TYPE metube_http_request_duration_ms_count counter\n")

	var latKeys []latKey
	for k := range latencyMsSum {
		latKeys = append(latKeys, k)
	}
	sort.Slice(latKeys, func(i, j int) bool {
		if latKeys[i].Method != latKeys[j].Method {
			return latKeys[i].Method < latKeys[j].Method
		}
		return latKeys[i].Path < latKeys[j].Path
	})

	for _, k := range latKeys {
		sum := latencyMsSum[k]
		cnt := latencyMsCount[k]
		fmt.Fprintf(&b, "metube_http_request_duration_ms_sum{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, sum)
		fmt.Fprintf(&b, "metube_http_request_duration_ms_count{method=\"%s\",path=\"%s\"} %d\n",
			k.Method, k.Path, cnt)
	}

	// Job outcome metrics
	b.WriteString("# HELP metube_jobs_total Total jobs by terminal status\n")
	b.WriteString("# TYPE metube_jobs_total counter\n")

	var statuses []string
	for s := range jobsTotal {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		fmt.Fprintf(&b, "metube_jobs_total{status=\"%s\"} %d\n", s, jobsTotal[s])
	}

	// Cleanup metrics
	b.WriteString("# HELP metube_cleanup_files_deleted_total Total artifacts deleted by cleanup\n")
	b.WriteString("# TYPE metube_cleanup_files_deleted_total counter\n")
	fmt.Fprintf(&b, "metube_cleanup_files_deleted_total %d\n", cleanupFilesDeleted)

	b.WriteString("# HELP metube_cleanup_bytes_freed_total Total bytes freed by cleanup\n")
	b.WriteString("# TYPE metube_cleanup_bytes_freed_total counter\n")
	fmt.Fprintf(&b, "metube_cleanup_bytes_freed_total %d\n", cleanupBytesFreed)

	return b.String()
}
