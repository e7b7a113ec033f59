package handler

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ar-automation/reconciliation/internal/domain/oplog"
)

// defaultLogLimit bounds how many operation log lines the UI panel fetches
const defaultLogLimit = 200

// LogHandler serves the operation log stream displayed under every dashboard page
type LogHandler struct {
	oplogRepo oplog.Repository
	logger    *slog.Logger
}

// NewLogHandler creates a new log handler
func NewLogHandler(logger *slog.Logger, oplogRepo oplog.Repository) *LogHandler {
	return &LogHandler{
		oplogRepo: oplogRepo,
		logger:    logger,
	}
}

// Recent returns the newest operation log entries, newest first
func (h *LogHandler) Recent(c *gin.Context) {
	limit := defaultLogLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			RespondBadRequest(c, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := h.oplogRepo.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to read operation log", "error", err)
		RespondInternalError(c)
		return
	}

	out := make([]LogEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, LogEntryResponse{
			Timestamp: e.Timestamp.Format(time.RFC3339),
			Operation: e.Operation,
			Message:   e.Message,
		})
	}
	RespondOK(c, out)
}
