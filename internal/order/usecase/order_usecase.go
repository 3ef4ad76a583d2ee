// Package usecase implements order read operations for the operator API.
package usecase

import (
	"context"

	"github.com/lunastra/payments/internal/order/domain"
	appValidation "github.com/lunastra/payments/internal/validation"

	validation "github.com/jellydator/validation"
)

// OrderRepository defines the order repository operations this use case needs
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}

// UseCase defines the interface for order read operations
type UseCase interface {
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
}

// OrderUseCase exposes the projected order state for operator inspection.
type OrderUseCase struct {
	orderRepo OrderRepository
}

// NewOrderUseCase creates a new OrderUseCase
func NewOrderUseCase(orderRepo OrderRepository) *OrderUseCase {
	return &OrderUseCase{
		orderRepo: orderRepo,
	}
}

// GetOrder retrieves an order by ID.
func (uc *OrderUseCase) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	err := validation.Validate(id,
		validation.Required.Error("order id is required"),
		appValidation.NotBlank,
		validation.Length(1, 64).Error("order id must be between 1 and 64 characters"),
	)
	if err != nil {
		return nil, appValidation.WrapValidationError(err)
	}

	return uc.orderRepo.GetByID(ctx, id)
}
