package handler

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ar-automation/reconciliation/internal/domain/client"
	"github.com/ar-automation/reconciliation/internal/reconcile"
)

// defaultSearchSize bounds search/match-all result sets for display
const defaultSearchSize = 100

// ClientHandler handles client/student browsing, consolidation runs and
// free-text search against the published client index
type ClientHandler struct {
	consolidator Consolidator
	searcher     DocumentSearcher
	clientRepo   client.Repository
	session      *reconcile.Session
	logger       *slog.Logger
}

// NewClientHandler creates a new client handler
func NewClientHandler(logger *slog.Logger, consolidator Consolidator, searcher DocumentSearcher, clientRepo client.Repository, session *reconcile.Session) *ClientHandler {
	return &ClientHandler{
		consolidator: consolidator,
		searcher:     searcher,
		clientRepo:   clientRepo,
		session:      session,
		logger:       logger,
	}
}

// ListClients returns the full client table
func (h *ClientHandler) ListClients(c *gin.Context) {
	clients, err := h.clientRepo.ListClients(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list clients", "error", err)
		RespondInternalError(c)
		return
	}
	RespondOK(c, clients)
}

// ListStudents returns the full student table
func (h *ClientHandler) ListStudents(c *gin.Context) {
	students, err := h.clientRepo.ListStudents(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list students", "error", err)
		RespondInternalError(c)
		return
	}
	RespondOK(c, students)
}

// Consolidate rebuilds the combined client view, publishes it to the search
// index and returns the flattened table. Failures are fatal for the call;
// there is no partially consolidated result.
func (h *ClientHandler) Consolidate(c *gin.Context) {
	combined, err := h.consolidator.Consolidate(c.Request.Context())
	if err != nil {
		h.logger.Error("Consolidation failed", "error", err)
		RespondInternalError(c)
		return
	}
	h.session.SetCombined(combined)

	RespondOK(c, mapCombinedToRows(combined))
}

// GetCombined returns the cached consolidated view. Reads never trigger a
// rebuild; an index republish only happens through Consolidate. Before the
// first consolidation run the view is simply empty.
func (h *ClientHandler) GetCombined(c *gin.Context) {
	RespondOK(c, mapCombinedToRows(h.session.Combined()))
}

// Search answers free-text queries against the published index; an empty
// query returns all documents
func (h *ClientHandler) Search(c *gin.Context) {
	phrase := c.Query("q")

	size := defaultSearchSize
	if raw := c.Query("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			RespondBadRequest(c, "size must be a positive integer")
			return
		}
		size = parsed
	}

	docs, err := h.searcher.Documents(c.Request.Context(), phrase, size)
	if err != nil {
		h.logger.Error("Search failed", "query", phrase, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, docs)
}
