package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"payment-router/internal/channels"
	"payment-router/internal/gateway"
	"payment-router/internal/models"
)

// Upstream error codes with a better story than the raw body.
var rejectionHints = map[string]string{
	"CHANNEL_NOT_FOUND":                  "payment method currently unavailable, try an alternative",
	"PAYMENT_METHOD_NOT_FOUND":           "payment method currently unavailable, try an alternative",
	"DUPLICATE_CALLBACK_VIRTUAL_ACCOUNT": "a virtual account for this reference already exists",
}

type PaymentEngine interface {
	CreatePayment(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResult, error)
	GetPayment(ctx context.Context, id string) (*models.PaymentResult, error)
	ListMethods() []models.PaymentChannel
}

type PaymentHandler struct {
	engine PaymentEngine
	logger *zap.Logger
}

func NewPaymentHandler(engine PaymentEngine, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		engine: engine,
		logger: logger,
	}
}

// CreatePayment handles POST /api/v1/payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req models.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.engine.CreatePayment(c.Request.Context(), &req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPayment handles GET /api/v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.engine.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("failed to load payment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load payment"})
		return
	}
	if payment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}

	c.JSON(http.StatusOK, payment)
}

// ListPaymentMethods handles GET /api/v1/payment-methods
func (h *PaymentHandler) ListPaymentMethods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"payment_methods": h.engine.ListMethods()})
}

func (h *PaymentHandler) renderError(c *gin.Context, err error) {
	var rangeErr *channels.AmountRangeError
	var rejected *gateway.RejectedError
	var unreachable *gateway.UnreachableError

	switch {
	case errors.Is(err, channels.ErrNotFound):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unknown payment method",
			"available_methods": h.methodSummaries(),
		})

	case errors.Is(err, channels.ErrInactive):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "payment method is currently inactive",
			"suggestions":       h.methodNames(),
			"available_methods": h.methodSummaries(),
		})

	case errors.As(err, &rangeErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": rangeErr.Error(),
			"details": gin.H{
				"min_amount": rangeErr.Min,
				"max_amount": rangeErr.Max,
				"amount":     rangeErr.Amount,
			},
		})

	case errors.As(err, &rejected):
		h.renderRejected(c, rejected)

	case errors.As(err, &unreachable):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "payment processor unreachable",
			"type":  "processing_error",
		})

	default:
		h.logger.Error("payment creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to process payment",
			"type":  "processing_error",
		})
	}
}

// renderRejected passes the upstream status through with the verbatim body
// under details, plus a friendlier message for the codes we recognize.
func (h *PaymentHandler) renderRejected(c *gin.Context, rejected *gateway.RejectedError) {
	status := rejected.StatusCode
	if status < http.StatusBadRequest {
		status = http.StatusBadGateway
	}

	message := rejected.Message
	if message == "" {
		message = "payment processor rejected the request"
	}

	details := gin.H{"upstream_status": rejected.StatusCode}
	if json.Valid(rejected.Body) {
		details["upstream_body"] = json.RawMessage(rejected.Body)
	} else if len(rejected.Body) > 0 {
		details["upstream_body"] = string(rejected.Body)
	}

	body := gin.H{
		"error":   message,
		"details": details,
	}
	if hint, ok := rejectionHints[rejected.Code]; ok {
		body["error"] = hint
		body["suggestions"] = h.methodNames()
	}

	c.JSON(status, body)
}

func (h *PaymentHandler) methodSummaries() []models.PaymentChannel {
	return h.engine.ListMethods()
}

func (h *PaymentHandler) methodNames() []string {
	var names []string
	for _, ch := range h.engine.ListMethods() {
		names = append(names, ch.DisplayName)
	}
	return names
}
