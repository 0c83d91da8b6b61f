package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/propstack/propstack_backend/internal/core/ports/services"
	"github.com/propstack/propstack_backend/internal/dto"
	"github.com/propstack/propstack_backend/internal/middleware"
)

// jobsHandler handles HTTP requests for the maintenance job queue and the
// ledger event queue.
type jobsHandler struct {
	maintenanceService portssvc.MaintenanceSvcFacade
	eventService       portssvc.LedgerEventSvcFacade
}

func newJobsHandler(ms portssvc.MaintenanceSvcFacade, es portssvc.LedgerEventSvcFacade) *jobsHandler {
	return &jobsHandler{
		maintenanceService: ms,
		eventService:       es,
	}
}

// registerJobRoutes registers maintenance job and ledger event routes.
func registerJobRoutes(rg *gin.RouterGroup, maintenanceService portssvc.MaintenanceSvcFacade, eventService portssvc.LedgerEventSvcFacade) {
	h := newJobsHandler(maintenanceService, eventService)

	jobs := rg.Group("/maintenance/jobs")
	{
		jobs.POST("", h.enqueueJob)
		jobs.GET("/:id", h.getJob)
	}

	events := rg.Group("/ledger-events")
	{
		events.POST("", h.enqueueEvent)
		events.GET("/:id", h.getEvent)
	}
}

func (h *jobsHandler) enqueueJob(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.EnqueueMaintenanceJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for EnqueueJob", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	job, created, err := h.maintenanceService.EnqueueJob(c.Request.Context(), req, userID)
	if err != nil {
		respondLedgerError(c, logger, err, "Failed to enqueue maintenance job")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.ToMaintenanceJobResponse(job))
}

func (h *jobsHandler) getJob(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	jobID := c.Param("id")

	job, err := h.maintenanceService.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		respondLedgerError(c, logger, err, "Failed to retrieve maintenance job")
		return
	}

	c.JSON(http.StatusOK, dto.ToMaintenanceJobResponse(job))
}

// enqueueEventRequest identifies the payment whose income posting should be
// queued.
type enqueueEventRequest struct {
	PaymentID string `json:"paymentID" binding:"required"`
}

func (h *jobsHandler) enqueueEvent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req enqueueEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for EnqueueEvent", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	event, created, err := h.eventService.EnqueueOwnerIncome(c.Request.Context(), req.PaymentID)
	if err != nil {
		respondLedgerError(c, logger, err, "Failed to enqueue ledger event")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.ToLedgerEventResponse(event))
}

func (h *jobsHandler) getEvent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	eventID := c.Param("id")

	event, err := h.eventService.GetEventByID(c.Request.Context(), eventID)
	if err != nil {
		respondLedgerError(c, logger, err, "Failed to retrieve ledger event")
		return
	}

	c.JSON(http.StatusOK, dto.ToLedgerEventResponse(event))
}
