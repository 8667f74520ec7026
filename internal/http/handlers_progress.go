package http

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/JaMes-pong/MeTube/internal/jobs"
)

// progressStreamHandler is the SSE endpoint. Each connection gets its
// own poll loop over the store; the loop ends when the job reaches a
// terminal state (after a close event) or when a write to the client
// fails, which is the only way a subscriber can "cancel".
func progressStreamHandler(c *fiber.Ctx) error {
	streamer := c.Locals("streamer").(*jobs.Streamer)
	id := c.Params("id")

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		streamer.Run(context.Background(), id, func(ev jobs.Event) bool {
			if ev.Close {
				fmt.Fprint(w, "event: close\ndata: Stream closed\n\n")
				return w.Flush() == nil
			}

			payload, err := json.Marshal(ev.Job)
			if err != nil {
				return false
			}
			if _, err := fmt.Fprintf(w, "event: progress\ndata: %s\n\n", payload); err != nil {
				return false
			}
			return w.Flush() == nil
		})
	}))

	return nil
}
