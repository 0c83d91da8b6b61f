package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/propstack/propstack_backend/internal/core/domain"
	portssvc "github.com/propstack/propstack_backend/internal/core/ports/services"
	"github.com/propstack/propstack_backend/internal/dto"
	"github.com/propstack/propstack_backend/internal/middleware"
)

// syncHandler handles HTTP requests for the change synchronizer.
type syncHandler struct {
	syncService portssvc.SyncSvcFacade
}

func newSyncHandler(ss portssvc.SyncSvcFacade) *syncHandler {
	return &syncHandler{
		syncService: ss,
	}
}

// RegisterSyncRoutes registers change synchronizer routes.
func RegisterSyncRoutes(rg *gin.RouterGroup, syncService portssvc.SyncSvcFacade) {
	h := newSyncHandler(syncService)

	sync := rg.Group("/sync")
	{
		sync.GET("/failures", h.listFailures)
		sync.POST("/retry", h.retrySync)
		sync.POST("/full", h.fullSync)
		sync.POST("/validate", h.validateConsistency)
	}
}

func (h *syncHandler) listFailures(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	status := domain.SyncFailureStatus(c.Query("status"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	failures, err := h.syncService.ListFailures(c.Request.Context(), status, limit)
	if err != nil {
		respondLedgerError(c, logger, err, "Failed to list sync failures")
		return
	}

	c.JSON(http.StatusOK, gin.H{"failures": dto.ToSyncFailureResponses(failures)})
}

func (h *syncHandler) retrySync(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RetrySyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RetrySync", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger = logger.With(
		slog.String("entity_type", string(req.EntityType)),
		slog.String("document_id", req.DocumentID),
	)
	if err := h.syncService.RetrySyncFor(c.Request.Context(), req.EntityType, req.DocumentID); err != nil {
		respondLedgerError(c, logger, err, "Failed to retry sync")
		return
	}

	logger.Info("Manual sync retry succeeded")
	c.JSON(http.StatusOK, gin.H{"status": "synced"})
}

func (h *syncHandler) fullSync(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	mirrored, err := h.syncService.SyncAll(c.Request.Context())
	if err != nil {
		respondLedgerError(c, logger, err, "Failed to run full sync")
		return
	}

	logger.Info("Full sync finished", slog.Int("mirrored", mirrored))
	c.JSON(http.StatusOK, gin.H{"status": "synced", "mirrored": mirrored})
}

func (h *syncHandler) validateConsistency(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	lookbackDays, _ := strconv.Atoi(c.DefaultQuery("lookbackDays", "7"))
	concurrency, _ := strconv.Atoi(c.DefaultQuery("concurrency", "0"))
	remediate := c.DefaultQuery("remediate", "false") == "true"

	report, err := h.syncService.ValidateConsistency(c.Request.Context(), lookbackDays, concurrency, remediate)
	if err != nil {
		respondLedgerError(c, logger, err, "Failed to validate consistency")
		return
	}

	c.JSON(http.StatusOK, dto.ToConsistencyReportResponse(report))
}
