// Package http provides HTTP handlers for order inspection.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lunastra/payments/internal/httputil"
	"github.com/lunastra/payments/internal/order/domain"
	orderUseCase "github.com/lunastra/payments/internal/order/usecase"
)

// OrderHandler handles HTTP requests for order inspection.
type OrderHandler struct {
	orderUseCase orderUseCase.UseCase
	logger       *slog.Logger
}

// NewOrderHandler creates a new order handler with required dependencies.
func NewOrderHandler(orderUseCase orderUseCase.UseCase, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderUseCase: orderUseCase,
		logger:       logger,
	}
}

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID              string    `json:"id"`
	Status          string    `json:"status"`
	StripeSessionID *string   `json:"stripe_session_id"`
	PaymentIntentID *string   `json:"payment_intent_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// mapOrderToResponse converts a domain order to an API response.
func mapOrderToResponse(order *domain.Order) OrderResponse {
	return OrderResponse{
		ID:              order.ID,
		Status:          string(order.Status),
		StripeSessionID: order.StripeSessionID,
		PaymentIntentID: order.PaymentIntentID,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

// GetHandler returns the projected state of a single order.
// GET /v1/orders/:id
func (h *OrderHandler) GetHandler(c *gin.Context) {
	order, err := h.orderUseCase.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, mapOrderToResponse(order))
}
