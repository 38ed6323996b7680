package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/paysync/internal/application/reconciliation"
	"github.com/orris-inc/paysync/internal/application/reconciliation/gateway"
	"github.com/orris-inc/paysync/internal/shared/constants"
	apperrors "github.com/orris-inc/paysync/internal/shared/errors"
	"github.com/orris-inc/paysync/internal/shared/logger"
)

// maxWebhookBodySize caps the notification body read from the gateway (64KB)
const maxWebhookBodySize = 64 << 10

// WebhookResponse is the acknowledgment body. OK is false only for the
// error statuses.
type WebhookResponse struct {
	OK             bool   `json:"ok"`
	Ignored        bool   `json:"ignored,omitempty"`
	Warning        string `json:"warning,omitempty"`
	Idempotent     bool   `json:"idempotent,omitempty"`
	Activated      bool   `json:"activated,omitempty"`
	Kind           string `json:"kind,omitempty"`
	RemoteID       string `json:"remote_id,omitempty"`
	RemoteStatus   string `json:"remote_status,omitempty"`
	EntitlementID  uint   `json:"entitlement_id,omitempty"`
	EntStatus      string `json:"ent_status,omitempty"`
	Error          string `json:"error,omitempty"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	UpstreamBody   string `json:"upstream_body,omitempty"`
}

type NotificationHandler struct {
	handleNotificationUC handleNotificationUseCase
	logger               logger.Interface
}

func NewNotificationHandler(handleNotificationUC handleNotificationUseCase, logger logger.Interface) *NotificationHandler {
	return &NotificationHandler{
		handleNotificationUC: handleNotificationUC,
		logger:               logger,
	}
}

// HandleWebhook handles POST /mp/webhook
func (h *NotificationHandler) HandleWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodySize)
	body, err := c.GetRawData()
	if err != nil {
		// classification still works from the query string
		h.logger.Warnw("failed to read webhook body", "error", err)
		body = nil
	}

	in := reconciliation.Inbound{
		Query:     c.Request.URL.Query(),
		Body:      body,
		Signature: c.GetHeader(constants.HeaderXSignature),
		RequestID: c.GetHeader(constants.HeaderXRequestID),
	}

	result, err := h.handleNotificationUC.Execute(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, WebhookResponse{
		OK:            true,
		Ignored:       result.Ignored,
		Warning:       result.Warning,
		Idempotent:    result.Idempotent,
		Activated:     result.Activated,
		Kind:          result.Kind.String(),
		RemoteID:      result.RemoteID,
		RemoteStatus:  result.RemoteStatus,
		EntitlementID: result.EntitlementID,
		EntStatus:     result.EntStatus.String(),
	})
}

func (h *NotificationHandler) respondError(c *gin.Context, err error) {
	if errors.Is(err, reconciliation.ErrSignatureMissing) || errors.Is(err, reconciliation.ErrSignatureInvalid) {
		c.JSON(http.StatusUnauthorized, WebhookResponse{Error: err.Error()})
		return
	}

	var upErr *gateway.UpstreamError
	if errors.As(err, &upErr) {
		c.JSON(http.StatusBadGateway, WebhookResponse{
			Error:          upErr.Error(),
			UpstreamStatus: upErr.Status,
			UpstreamBody:   upErr.Body,
		})
		return
	}

	message := constants.ErrMsgInternalServerError
	if appErr := apperrors.GetAppError(err); appErr != nil {
		message = appErr.Message
	} else {
		h.logger.Errorw("unexpected webhook error", "error", err)
	}
	c.JSON(http.StatusInternalServerError, WebhookResponse{Error: message})
}
