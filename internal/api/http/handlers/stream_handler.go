package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/vital-portal/vital/internal/service"
)

const defaultHeartbeat = 15 * time.Second

// StreamHandler pushes live issue updates as Server-Sent Events.
type StreamHandler struct {
	issues    *service.IssueService
	logger    *zap.Logger
	heartbeat time.Duration
}

// NewStreamHandler constructs handler.
func NewStreamHandler(issueService *service.IssueService, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{issues: issueService, logger: logger, heartbeat: defaultHeartbeat}
}

// Stream handles GET /issues/:id/stream. The subscription ends when a write
// to the client fails or the publisher closes the channel.
func (h *StreamHandler) Stream(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	issueID := strings.Clone(c.Params("id"))

	// The body writer runs after the handler returns, so the subscription
	// cannot borrow the request context.
	ctx, cancel := context.WithCancel(context.Background())
	updates, unsubscribe, err := h.issues.Subscribe(ctx, principal, issueID)
	if err != nil {
		cancel()
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	logger := h.logger.With(zap.String("issue_id", issueID), zap.String("uid", principal.UID))
	heartbeat := h.heartbeat
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer unsubscribe()
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		if err := writeEvent(w, "ready", streamReady{IssueID: issueID}); err != nil {
			logger.Warn("encode ready event failed", zap.Error(err))
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				if err := writeEvent(w, "issue", update); err != nil {
					logger.Warn("encode issue update failed", zap.Error(err))
					continue
				}
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			if err := w.Flush(); err != nil {
				logger.Debug("stream client gone", zap.Error(err))
				return
			}
		}
	}))
	return nil
}

type streamReady struct {
	IssueID string `json:"issueId"`
}

// writeEvent writes one SSE frame whose data line is the JSON encoding of v.
func writeEvent(w io.Writer, event string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}
