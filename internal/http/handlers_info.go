package http

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/JaMes-pong/MeTube/internal/engine"
)

// videoInfoHandler inspects a source without downloading anything and
// returns its metadata plus a per-resolution format list.
func videoInfoHandler(c *fiber.Ctx) error {
	fetcher := c.Locals("fetcher").(engine.Fetcher)

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

	ctx, cancel := context.WithTimeout(c.Context(), 30*time.Second)
	defer cancel()

	info, err := fetcher.Inspect(ctx, req.URL)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "FETCH_FAILED",
			Error:   fmt.Sprintf("Failed to fetch video info: %v", err),
		})
	}

	return c.JSON(VideoInfoResponse{
		Title:     info.Title,
		Duration:  info.Duration,
		Thumbnail: info.Thumb,
		Uploader:  info.Uploader,
		Formats:   dedupeFormats(info.Formats),
	})
}

// dedupeFormats keeps one entry per distinct vertical resolution,
// preferring entries with a known file size when duplicates exist, and
// sorts the result by resolution descending. Entries without a height
// (audio-only and storyboards) are skipped.
func dedupeFormats(raw []engine.FormatInfo) []FormatItem {
	byHeight := make(map[int]FormatItem)
	for _, f := range raw {
		if f.Height <= 0 {
			continue
		}

		item := FormatItem{
			FormatID:    f.ID,
			Resolution:  fmt.Sprintf("%dp", f.Height),
			Ext:         f.Ext,
			Filesize:    f.Filesize,
			HasFilesize: f.Filesize > 0,
		}
		if prev, ok := byHeight[f.Height]; !ok || (item.HasFilesize && !prev.HasFilesize) {
			byHeight[f.Height] = item
		}
	}

	heights := make([]int, 0, len(byHeight))
	for h := range byHeight {
		heights = append(heights, h)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(heights)))

	items := make([]FormatItem, 0, len(heights))
	for _, h := range heights {
		items = append(items, byHeight[h])
	}
	return items
}
