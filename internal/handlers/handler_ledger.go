package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/propstack/propstack_backend/internal/apperrors"
	portssvc "github.com/propstack/propstack_backend/internal/core/ports/services"
	"github.com/propstack/propstack_backend/internal/dto"
	"github.com/propstack/propstack_backend/internal/middleware"
)

// ledgerHandler handles HTTP requests related to ledger accounts.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// newLedgerHandler creates a new ledgerHandler.
func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{
		ledgerService: ls,
	}
}

// RegisterLedgerRoutes registers routes related to ledger accounts.
func RegisterLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	ledgers := rg.Group("/ledgers")
	{
		ledgers.POST("", h.getOrCreateLedger)
		ledgers.GET("/:id", h.getLedger)
		ledgers.POST("/:id/expenses", h.createExpense)
		ledgers.GET("/:id/transactions", h.listTransactions)
		ledgers.POST("/:id/payouts", h.createPayout)
		ledgers.GET("/:id/payouts", h.listPayouts)
		ledgers.PATCH("/:id/payouts/:payoutID/status", h.updatePayoutStatus)
		ledgers.POST("/:id/recalculate", h.recalculateBalance)
	}
}

func (h *ledgerHandler) getOrCreateLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.GetOrCreateLedgerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for GetOrCreateLedger", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	companyID := c.Query("companyID")
	ledger, err := h.ledgerService.GetOrCreateLedger(c.Request.Context(), companyID, req, userID)
	if err != nil {
		respondLedgerError(c, logger, err, "Failed to resolve ledger")
		return
	}

	c.JSON(http.StatusOK, dto.ToLedgerAccountResponse(ledger))
}

func (h *ledgerHandler) getLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ledgerID := c.Param("id")

	ledger, err := h.ledgerService.GetLedgerByID(c.Request.Context(), ledgerID)
	if err != nil {
		respondLedgerError(c, logger, err, "Failed to retrieve ledger")
		return
	}

	c.JSON(http.StatusOK, dto.ToLedgerAccountResponse(ledger))
}

func (h *ledgerHandler) createExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ledgerID := c.Param("id")

	var req dto.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateExpense", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("ledger_id", ledgerID))
	txn, err := h.ledgerService.AddExpense(c.Request.Context(), ledgerID, req, userID)
	if err != nil {
		respondLedgerError(c, logger, err, "Failed to record expense")
		return
	}

	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

func (h *ledgerHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ledgerID := c.Param("id")

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	transactions, nextToken, err := h.ledgerService.ListTransactions(c.Request.Context(), ledgerID, params)
	if err != nil {
		respondLedgerError(c, logger, err, "Failed to list transactions")
		return
	}

	c.JSON(http.StatusOK, dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(transactions),
		NextToken:    nextToken,
	})
}

func (h *ledgerHandler) createPayout(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ledgerID := c.Param("id")

	var req dto.CreateOwnerPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateOwnerPayout", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("ledger_id", ledgerID))
	payout, err := h.ledgerService.CreateOwnerPayout(c.Request.Context(), ledgerID, req, userID)
	if err != nil {
		respondLedgerError(c, logger, err, "Failed to create payout")
		return
	}

	c.JSON(http.StatusCreated, dto.ToOwnerPayoutResponse(payout))
}

func (h *ledgerHandler) listPayouts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ledgerID := c.Param("id")

	var params dto.ListPayoutsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	payouts, nextToken, err := h.ledgerService.ListPayouts(c.Request.Context(), ledgerID, params)
	if err != nil {
		respondLedgerError(c, logger, err, "Failed to list payouts")
		return
	}

	c.JSON(http.StatusOK, dto.ListPayoutsResponse{
		Payouts:   dto.ToOwnerPayoutResponses(payouts),
		NextToken: nextToken,
	})
}

func (h *ledgerHandler) updatePayoutStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ledgerID := c.Param("id")
	payoutID := c.Param("payoutID")

	var req dto.UpdatePayoutStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdatePayoutStatus", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("payout_id", payoutID))
	payout, err := h.ledgerService.UpdatePayoutStatus(c.Request.Context(), ledgerID, payoutID, req.Status, userID)
	if err != nil {
		respondLedgerError(c, logger, err, "Failed to transition payout")
		return
	}

	c.JSON(http.StatusOK, dto.ToOwnerPayoutResponse(payout))
}

func (h *ledgerHandler) recalculateBalance(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ledgerID := c.Param("id")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ledger, err := h.ledgerService.RecalculateBalance(c.Request.Context(), ledgerID, userID)
	if err != nil {
		respondLedgerError(c, logger, err, "Failed to recalculate balance")
		return
	}

	c.JSON(http.StatusOK, dto.ToLedgerAccountResponse(ledger))
}

// respondLedgerError maps service errors onto HTTP statuses.
func respondLedgerError(c *gin.Context, logger *slog.Logger, err error, action string) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn(action, slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		logger.Warn(action, slog.String("error", err.Error()))
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		logger.Warn(action, slog.String("error", err.Error()))
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInsufficientBalance):
		logger.Warn(action, slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDuplicate), errors.Is(err, apperrors.ErrConflict):
		logger.Warn(action, slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error(action, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": action})
	}
}
