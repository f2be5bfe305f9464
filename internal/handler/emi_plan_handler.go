package handler

import (
	"net/http"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/Surya12v/project-s/emi-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// EmiPlanHandler serves the public EMI plan catalog
type EmiPlanHandler struct {
	planService *service.EmiPlanService
}

// NewEmiPlanHandler creates a new EmiPlanHandler
func NewEmiPlanHandler(planService *service.EmiPlanService) *EmiPlanHandler {
	return &EmiPlanHandler{planService: planService}
}

// EmiPlanOptionResponse is one offered (tenure, rate) pair
type EmiPlanOptionResponse struct {
	TenureMonths       int32  `json:"tenureMonths"`
	AnnualInterestRate string `json:"annualInterestRate"`
}

// EmiPlanResponse represents a product's EMI plan
type EmiPlanResponse struct {
	ProductID string                  `json:"productId"`
	Options   []EmiPlanOptionResponse `json:"options"`
}

func toEmiPlanResponse(plan *domain.EmiPlan) EmiPlanResponse {
	options := make([]EmiPlanOptionResponse, len(plan.Options))
	for i, opt := range plan.Options {
		options[i] = EmiPlanOptionResponse{
			TenureMonths:       opt.TenureMonths,
			AnnualInterestRate: opt.AnnualInterestRate.String(),
		}
	}
	return EmiPlanResponse{ProductID: plan.ProductID, Options: options}
}

// GetEmiPlan handles GET /api/v1/products/:productId/emi-plan
// @Summary Get a product's EMI plan
// @Tags emi
// @Produce json
// @Param productId path string true "Product ID"
// @Success 200 {object} EmiPlanResponse
// @Failure 404 {object} ProblemDetails
// @Router /products/{productId}/emi-plan [get]
func (h *EmiPlanHandler) GetEmiPlan(c echo.Context) error {
	plan, err := h.planService.GetPlan(c.Request().Context(), c.Param("productId"))
	if err != nil {
		return respondError(c, err, "get EMI plan")
	}
	return c.JSON(http.StatusOK, toEmiPlanResponse(plan))
}
