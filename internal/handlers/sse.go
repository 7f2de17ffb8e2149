package handlers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
)

var sseHeartbeat = 15 * time.Second

// streamEvents forwards every value of updates to the client as an SSE event until
// the channel closes or the client goes away.
func streamEvents[T any](c *gin.Context, event string, updates <-chan T, render func(T) any) {
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()
	done := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-done:
			return false
		case v, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent(event, render(v))
			return true
		case <-heartbeat.C:
			c.SSEvent("heartbeat", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}
