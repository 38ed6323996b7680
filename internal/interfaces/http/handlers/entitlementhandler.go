package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/paysync/internal/application/reconciliation/usecases"
	"github.com/orris-inc/paysync/internal/shared/errors"
	"github.com/orris-inc/paysync/internal/shared/logger"
	"github.com/orris-inc/paysync/internal/shared/utils"
)

type EntitlementHandler struct {
	getAccessUC getEntitlementAccessUseCase
	prepareUC   prepareEntitlementUseCase
	logger      logger.Interface
}

func NewEntitlementHandler(
	getAccessUC getEntitlementAccessUseCase,
	prepareUC prepareEntitlementUseCase,
	logger logger.Interface,
) *EntitlementHandler {
	return &EntitlementHandler{
		getAccessUC: getAccessUC,
		prepareUC:   prepareUC,
		logger:      logger,
	}
}

type PrepareEntitlementRequest struct {
	UserID       uint   `json:"user_id" binding:"required"`
	PlanCode     string `json:"plan_code" binding:"required"`
	OrderID      string `json:"order_id" binding:"required"`
	PreferenceID string `json:"preference_id" binding:"omitempty,max=64"`
}

// GetEntitlement handles GET /api/entitlements/:id
func (h *EntitlementHandler) GetEntitlement(c *gin.Context) {
	id, err := utils.ParseUintParam(c, "id", "entitlement")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.getAccessUC.Execute(c.Request.Context(), id)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// PrepareEntitlement handles POST /api/entitlements
func (h *EntitlementHandler) PrepareEntitlement(c *gin.Context) {
	var req PrepareEntitlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for prepare entitlement", "error", err)
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid request body", err.Error()))
		return
	}

	result, err := h.prepareUC.Execute(c.Request.Context(), usecases.PrepareEntitlementCommand{
		UserID:       req.UserID,
		PlanCode:     req.PlanCode,
		OrderID:      req.OrderID,
		PreferenceID: req.PreferenceID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Entitlement prepared")
}
