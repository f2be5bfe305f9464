package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/Surya12v/project-s/emi-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// GatewaySignatureHeader carries the hex HMAC-SHA256 of the raw webhook body
const GatewaySignatureHeader = "X-Gateway-Signature"

// maxWebhookBodyBytes caps how much of a webhook body is read
const maxWebhookBodyBytes = 1 << 20

// WebhookHandler receives payment gateway callbacks
type WebhookHandler struct {
	reconciliationService *service.ReconciliationService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(reconciliationService *service.ReconciliationService) *WebhookHandler {
	return &WebhookHandler{reconciliationService: reconciliationService}
}

// HandleGateway handles POST /api/v1/webhooks/gateway
// @Summary Payment gateway webhook
// @Description Signed capture and failure notifications. Unknown events and installments are acknowledged.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param X-Gateway-Signature header string true "hex HMAC-SHA256 of the raw body"
// @Success 200 {object} service.WebhookResult
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /webhooks/gateway [post]
func (h *WebhookHandler) HandleGateway(c echo.Context) error {
	// The signature covers the exact bytes, so the body is read raw rather than bound
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBodyBytes))
	if err != nil {
		return NewValidationError(c, "Failed to read request body", nil)
	}

	result, err := h.reconciliationService.HandleGatewayWebhook(
		c.Request().Context(), payload, c.Request().Header.Get(GatewaySignatureHeader))
	if err != nil {
		if errors.Is(err, service.ErrInvalidWebhookSignature) {
			return NewUnauthorizedError(c, "Invalid webhook signature")
		}
		return respondError(c, err, "process gateway webhook")
	}

	return c.JSON(http.StatusOK, result)
}
