package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/nexfinity/hosting-gateway/internal/models"
	"github.com/nexfinity/hosting-gateway/internal/repository"
)

type promotionStore interface {
	List(ctx context.Context) ([]models.Promotion, error)
	GetByCode(ctx context.Context, code string) (*models.Promotion, error)
}

// PromotionService serves promotional codes. The promotions table is the
// canonical source of discount amounts; nothing here hard-codes a discount.
type PromotionService struct {
	promos promotionStore
}

// NewPromotionService creates a promotion service.
func NewPromotionService(promos promotionStore) *PromotionService {
	return &PromotionService{promos: promos}
}

// List returns all promotions.
func (s *PromotionService) List(ctx context.Context) ([]models.Promotion, error) {
	return s.promos.List(ctx)
}

// Validate checks a code. An unknown code is a valid negative answer, not
// an error.
func (s *PromotionService) Validate(ctx context.Context, code string) (*models.PromoValidation, error) {
	promo, err := s.promos.GetByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.PromoValidation{Valid: false, DiscountAmount: 0, Description: "Invalid promo code"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("look up promo code: %w", err)
	}

	unit := "$"
	if promo.Type == models.PromoTypePercentage {
		unit = "%"
	}
	return &models.PromoValidation{
		Valid:          true,
		DiscountAmount: promo.DiscountValue,
		Type:           promo.Type,
		Description:    fmt.Sprintf("%g%s discount applied", promo.DiscountValue, unit),
	}, nil
}
