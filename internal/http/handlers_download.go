package http

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"github.com/JaMes-pong/MeTube/internal/jobs"
)

// serviceStatusHandler is the banner endpoint clients probe to check
// the API is up.
func serviceStatusHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "MeTube Downloader API",
		"status":  "running",
	})
}

// startDownloadHandler accepts a submission and returns the job id
// without waiting for any engine work. The capacity check happens
// before a job record exists, so a rejected submission wastes no id.
func startDownloadHandler(c *fiber.Ctx) error {
	runner := c.Locals("runner").(*jobs.Runner)

	var req VideoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST_INVALID_JSON",
			Error:   "Bad request, malformed JSON",
		})
	}
	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "Missing required field 'url'",
		})
	}
	if req.Format == "" {
		req.Format = "best"
	}
	if req.OutputFormat == "" {
		req.OutputFormat = "original"
	}

	id, err := runner.Submit(req.URL, req.Format, req.OutputFormat)
	if err != nil {
		if errors.Is(err, jobs.ErrCapacity) {
			return c.Status(fiber.StatusInsufficientStorage).JSON(ErrorResponse{
				Success: false,
				Code:    "CAPACITY_EXCEEDED",
				Error:   "Insufficient disk space to start download",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "INTERNAL_ERROR",
			Error:   err.Error(),
		})
	}

	return c.JSON(DownloadJob{
		JobID:   id,
		Status:  string(jobs.StatusQueued),
		Message: "Download queued",
	})
}

// downloadStatusHandler returns the current snapshot for a job id.
func downloadStatusHandler(c *fiber.Ctx) error {
	st := c.Locals("store").(*jobs.Store)

	job, ok := st.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   "Job not found",
		})
	}
	return c.JSON(job)
}

// downloadFileHandler streams the artifact for a completed job and
// schedules deferred cleanup as a side effect of the retrieval.
func downloadFileHandler(c *fiber.Ctx) error {
	st := c.Locals("store").(*jobs.Store)
	retention := c.Locals("retention").(*jobs.Manager)

	id := c.Params("id")
	job, ok := st.Get(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   "Job not found",
		})
	}
	if job.Status != jobs.StatusCompleted {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "NOT_READY",
			Error:   "Download not completed yet",
		})
	}
	if job.Filename == "" {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   "File not found",
		})
	}
	if _, err := os.Stat(job.Filename); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   "File not found",
		})
	}

	retention.ScheduleDeferredCleanup(id)

	return c.Download(job.Filename, filepath.Base(job.Filename))
}

// deleteDownloadHandler runs synchronous cleanup: unlike the deferred
// path, a file-deletion failure here is surfaced to the caller.
func deleteDownloadHandler(c *fiber.Ctx) error {
	retention := c.Locals("retention").(*jobs.Manager)

	if err := retention.Cleanup(c.Params("id")); err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
				Success: false,
				Code:    "NOT_FOUND",
				Error:   "Job not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "INTERNAL_ERROR",
			Error:   err.Error(),
		})
	}

	return c.JSON(CleanupResponse{Success: true, Message: "Cleanup successful"})
}
