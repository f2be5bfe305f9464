package service

import (
	"context"
	"testing"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/Surya12v/project-s/emi-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planOption(tenure int32, rate string) domain.EmiPlanOption {
	return domain.EmiPlanOption{TenureMonths: tenure, AnnualInterestRate: decimal.RequireFromString(rate)}
}

func TestEmiPlanService_SetPlan_SortsAndStores(t *testing.T) {
	repo := testutil.NewMockEmiPlanRepository()
	svc := NewEmiPlanService(repo)

	saved, err := svc.SetPlan(context.Background(), " sku-1 ", []domain.EmiPlanOption{
		planOption(12, "14"),
		planOption(3, "0"),
		planOption(6, "12.5"),
	})
	require.NoError(t, err)

	assert.Equal(t, "sku-1", saved.ProductID)
	require.Len(t, saved.Options, 3)
	assert.Equal(t, []int32{3, 6, 12}, []int32{
		saved.Options[0].TenureMonths, saved.Options[1].TenureMonths, saved.Options[2].TenureMonths,
	})

	plan, err := svc.GetPlan(context.Background(), "sku-1")
	require.NoError(t, err)
	assert.True(t, plan.Offers(6, decimal.RequireFromString("12.50")))
	assert.False(t, plan.Offers(6, decimal.NewFromInt(12)))
}

func TestEmiPlanService_SetPlan_Invalid(t *testing.T) {
	svc := NewEmiPlanService(testutil.NewMockEmiPlanRepository())

	tests := []struct {
		name      string
		productID string
		options   []domain.EmiPlanOption
		wantErr   error
	}{
		{"missing product", "  ", []domain.EmiPlanOption{planOption(3, "0")}, domain.ErrExternalRefsRequired},
		{"zero tenure", "sku", []domain.EmiPlanOption{planOption(0, "0")}, domain.ErrInvalidTenure},
		{"tenure too long", "sku", []domain.EmiPlanOption{planOption(domain.MaxTenureMonths+1, "0")}, domain.ErrInvalidTenure},
		{"negative rate", "sku", []domain.EmiPlanOption{planOption(6, "-1")}, domain.ErrInvalidRate},
		{"duplicate tenure", "sku", []domain.EmiPlanOption{planOption(6, "10"), planOption(6, "12")}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SetPlan(context.Background(), tt.productID, tt.options)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEmiPlanService_GetPlan_NotFound(t *testing.T) {
	svc := NewEmiPlanService(testutil.NewMockEmiPlanRepository())

	_, err := svc.GetPlan(context.Background(), "unknown")
	assert.ErrorIs(t, err, domain.ErrEmiPlanNotFound)

	_, err = svc.GetPlan(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrExternalRefsRequired)
}

func TestEmiPlanService_SetPlan_DoesNotChangeExistingOrders(t *testing.T) {
	payments := testutil.NewMockEmiPaymentRepository()
	orders := testutil.NewMockEmiOrderRepository(payments)
	plans := testutil.NewMockEmiPlanRepository()
	planSvc := NewEmiPlanService(plans)
	emiSvc := NewEmiService(orders, payments, plans, domain.DefaultGracePeriodDays)

	_, err := planSvc.SetPlan(context.Background(), "sku", []domain.EmiPlanOption{planOption(3, "0")})
	require.NoError(t, err)

	order, err := emiSvc.CreateEmiOrder(context.Background(), CreateEmiOrderInput{
		UserID:             "user-1",
		OrderID:            "order-1",
		ProductID:          "sku",
		Principal:          decimal.NewFromInt(10000),
		TenureMonths:       3,
		AnnualInterestRate: decimal.Zero,
	})
	require.NoError(t, err)

	_, err = planSvc.SetPlan(context.Background(), "sku", []domain.EmiPlanOption{planOption(6, "18")})
	require.NoError(t, err)

	stored := orders.Snapshot(order.ID)
	assert.Equal(t, int32(3), stored.TenureMonths)
	assert.Len(t, stored.Schedule, 3)
	assert.True(t, stored.MonthlyAmount.Equal(decimal.RequireFromString("3333.33")))
}
