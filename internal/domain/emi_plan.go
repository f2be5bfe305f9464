package domain

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// EmiPlanOption is one offered (tenure, rate) pair
type EmiPlanOption struct {
	TenureMonths       int32           `json:"tenureMonths"`
	AnnualInterestRate decimal.Decimal `json:"annualInterestRate"`
}

// EmiPlan is the set of EMI terms a product offers. Orders copy the chosen terms,
// so editing a plan never changes existing schedules.
type EmiPlan struct {
	ProductID string          `json:"productId"`
	Options   []EmiPlanOption `json:"options"`
}

func (p *EmiPlan) Validate() error {
	if p.ProductID == "" {
		return ErrExternalRefsRequired
	}
	seen := make(map[int32]bool, len(p.Options))
	for _, opt := range p.Options {
		if opt.TenureMonths < 1 || opt.TenureMonths > MaxTenureMonths {
			return ErrInvalidTenure
		}
		if opt.AnnualInterestRate.IsNegative() {
			return ErrInvalidRate
		}
		if seen[opt.TenureMonths] {
			return ErrInvalidInput
		}
		seen[opt.TenureMonths] = true
	}
	return nil
}

// Offers reports whether the plan contains exactly these terms
func (p *EmiPlan) Offers(tenureMonths int32, annualInterestRate decimal.Decimal) bool {
	for _, opt := range p.Options {
		if opt.TenureMonths == tenureMonths && opt.AnnualInterestRate.Equal(annualInterestRate) {
			return true
		}
	}
	return false
}

// SortOptions orders options by tenure ascending
func (p *EmiPlan) SortOptions() {
	sort.Slice(p.Options, func(i, j int) bool {
		return p.Options[i].TenureMonths < p.Options[j].TenureMonths
	})
}

type EmiPlanRepository interface {
	GetByProductID(ctx context.Context, productID string) (*EmiPlan, error)
	Upsert(ctx context.Context, plan *EmiPlan) (*EmiPlan, error)
}
