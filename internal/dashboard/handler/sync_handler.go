package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/ar-automation/reconciliation/internal/domain/bank"
	"github.com/ar-automation/reconciliation/internal/reconcile"
)

// SyncHandler handles transaction sync requests and ledger browsing
type SyncHandler struct {
	syncService SyncRunner
	source      SourceBrowser
	bankRepo    bank.Repository
	session     *reconcile.Session
	logger      *slog.Logger
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(logger *slog.Logger, syncService SyncRunner, source SourceBrowser, bankRepo bank.Repository, session *reconcile.Session) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
		source:      source,
		bankRepo:    bankRepo,
		session:     session,
		logger:      logger,
	}
}

// Sync runs one sync pass for the requested date range and returns the
// outcome with the refreshed bank table. Source and storage failures come
// back as a status in the body, not as an HTTP error: the dashboard stays
// usable and the operator retries by clicking again.
func (h *SyncHandler) Sync(c *gin.Context) {
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	from, err := bank.ParseDate(req.StartDate)
	if err != nil {
		RespondBadRequest(c, "Invalid start_date: expected YYYY-MM-DD")
		return
	}
	to, err := bank.ParseDate(req.EndDate)
	if err != nil {
		RespondBadRequest(c, "Invalid end_date: expected YYYY-MM-DD")
		return
	}

	result, err := h.syncService.Sync(c.Request.Context(), from, to)
	if err != nil {
		if errors.Is(err, reconcile.ErrInvalidDateRange) {
			RespondBadRequest(c, "start_date must not be after end_date")
			return
		}
		h.logger.Error("Sync failed", "error", err)
		RespondInternalError(c)
		return
	}

	txns, err := h.bankRepo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to reload bank table after sync", "error", err)
		RespondInternalError(c)
		return
	}
	h.session.SetBank(txns)

	RespondOK(c, SyncResponse{
		Status:       string(result.Status),
		Inserted:     result.Inserted,
		Transactions: mapTransactionsToResponse(txns),
	})
}

// ListTransactions returns the cached bank table, loading it on first access
func (h *SyncHandler) ListTransactions(c *gin.Context) {
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

	RespondOK(c, mapTransactionsToResponse(txns))
}

// ListSourceTransactions returns the remote bank's full transaction table.
// The rows come straight from the source and are never cached; nothing here
// touches the local ledger.
func (h *SyncHandler) ListSourceTransactions(c *gin.Context) {
	txns, err := h.source.FetchAll(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to fetch remote bank transactions", "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapTransactionsToResponse(txns))
}
