package service

import (
	"context"
	"strings"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// EmiPlanService manages the EMI terms offered per product
type EmiPlanService struct {
	planRepo domain.EmiPlanRepository
}

// NewEmiPlanService creates a new EmiPlanService
func NewEmiPlanService(planRepo domain.EmiPlanRepository) *EmiPlanService {
	return &EmiPlanService{planRepo: planRepo}
}

// GetPlan returns the product's plan with options sorted by tenure
func (s *EmiPlanService) GetPlan(ctx context.Context, productID string) (*domain.EmiPlan, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, domain.ErrExternalRefsRequired
	}
	plan, err := s.planRepo.GetByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	plan.SortOptions()
	return plan, nil
}

// SetPlan replaces the product's offered options. Existing orders keep their terms.
func (s *EmiPlanService) SetPlan(ctx context.Context, productID string, options []domain.EmiPlanOption) (*domain.EmiPlan, error) {
	plan := &domain.EmiPlan{
		ProductID: strings.TrimSpace(productID),
		Options:   options,
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	plan.SortOptions()

	saved, err := s.planRepo.Upsert(ctx, plan)
	if err != nil {
		log.Error().Err(err).Str("product_id", plan.ProductID).Msg("Failed to save EMI plan")
		return nil, err
	}

	log.Info().Str("product_id", saved.ProductID).Int("options", len(saved.Options)).Msg("EMI plan updated")
	return saved, nil
}
