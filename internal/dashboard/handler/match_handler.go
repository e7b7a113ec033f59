package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/ar-automation/reconciliation/internal/domain/bank"
	"github.com/ar-automation/reconciliation/internal/reconcile"
)

// MatchHandler handles identity resolution of bank transactions to client ids
type MatchHandler struct {
	resolver Resolver
	bankRepo bank.Repository
	session  *reconcile.Session
	logger   *slog.Logger
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(logger *slog.Logger, resolver Resolver, bankRepo bank.Repository, session *reconcile.Session) *MatchHandler {
	return &MatchHandler{
		resolver: resolver,
		bankRepo: bankRepo,
		session:  session,
		logger:   logger,
	}
}

// Match resolves every cached bank transaction against the client index and
// returns the table with matched client ids. The overlay is recomputed on
// every call; only the session caches the result.
func (h *MatchHandler) Match(c *gin.Context) {
	txns := h.session.Bank()
	if txns == nil {
		loaded, err := h.bankRepo.List(c.Request.Context())
		if err != nil {
			h.logger.Error("Failed to load bank table", "error", err)
			RespondInternalError(c)
			return
		}
		h.session.SetBank(loaded)
		txns = loaded
	}

	matched := h.resolver.Resolve(c.Request.Context(), txns)
	h.session.SetMatched(matched)

	RespondOK(c, mapMatchedToResponse(matched))
}
