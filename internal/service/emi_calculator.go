package service

import (
	"time"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/Surya12v/project-s/emi-backend/internal/util"
	"github.com/shopspring/decimal"
)

// powPrecision bounds intermediate digits while raising (1+r) to the tenure
const powPrecision = 20

var (
	decimalOne     = decimal.NewFromInt(1)
	decimalHundred = decimal.NewFromInt(100)
	decimalTwelve  = decimal.NewFromInt(12)
)

// ComputeMonthlyInstallment returns the equated monthly installment rounded to 2 decimals.
// Zero interest splits the principal evenly; otherwise reducing-balance amortization:
// P * r * (1+r)^n / ((1+r)^n - 1) with r = annualRate / 12 / 100.
func ComputeMonthlyInstallment(principal decimal.Decimal, tenureMonths int, annualInterestRatePercent decimal.Decimal) (decimal.Decimal, error) {
	exact, err := monthlyInstallmentExact(principal, tenureMonths, annualInterestRatePercent)
	if err != nil {
		return decimal.Zero, err
	}
	return exact.Round(2), nil
}

func monthlyInstallmentExact(principal decimal.Decimal, tenureMonths int, annualInterestRatePercent decimal.Decimal) (decimal.Decimal, error) {
	if principal.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, domain.ErrInvalidPrincipal
	}
	if tenureMonths <= 0 {
		return decimal.Zero, domain.ErrInvalidTenure
	}
	if annualInterestRatePercent.IsNegative() {
		return decimal.Zero, domain.ErrInvalidRate
	}

	n := decimal.NewFromInt(int64(tenureMonths))
	if annualInterestRatePercent.IsZero() {
		return principal.Div(n), nil
	}

	monthlyRate := annualInterestRatePercent.Div(decimalTwelve).Div(decimalHundred)
	base := decimalOne.Add(monthlyRate)
	factor := decimalOne
	for i := 0; i < tenureMonths; i++ {
		factor = factor.Mul(base).Round(powPrecision)
	}

	return principal.Mul(monthlyRate).Mul(factor).Div(factor.Sub(decimalOne)), nil
}

// ScheduleResult is a freshly built schedule with the amounts it was derived from
type ScheduleResult struct {
	MonthlyAmount decimal.Decimal
	TotalAmount   decimal.Decimal
	Installments  []domain.Installment
}

// BuildSchedule generates tenureMonths DUE installments due one calendar month apart,
// starting one month after startDate. Every installment carries the rounded monthly
// amount except the last, which absorbs the rounding remainder so that the amounts
// sum to round(exactMonthly * tenure, 2).
func BuildSchedule(principal decimal.Decimal, tenureMonths int, annualInterestRatePercent decimal.Decimal, startDate time.Time, gracePeriodDays int) (*ScheduleResult, error) {
	if gracePeriodDays < 0 {
		return nil, domain.ErrInvalidGracePeriod
	}
	exact, err := monthlyInstallmentExact(principal, tenureMonths, annualInterestRatePercent)
	if err != nil {
		return nil, err
	}

	monthly := exact.Round(2)
	total := exact.Mul(decimal.NewFromInt(int64(tenureMonths))).Round(2)
	last := total.Sub(monthly.Mul(decimal.NewFromInt(int64(tenureMonths - 1))))
	if !last.IsPositive() {
		// Principal too small to spread over this many months at cent precision
		return nil, domain.ErrInvalidPrincipal
	}

	start := util.TruncateToDate(startDate)
	installments := make([]domain.Installment, tenureMonths)
	for i := 0; i < tenureMonths; i++ {
		amount := monthly
		if i == tenureMonths-1 {
			amount = last
		}
		installments[i] = domain.Installment{
			DueDate:         util.AddMonthsClamped(start, i+1),
			Amount:          amount,
			Status:          domain.InstallmentStatusDue,
			PenaltyAmount:   decimal.Zero,
			GracePeriodDays: gracePeriodDays,
		}
	}

	return &ScheduleResult{
		MonthlyAmount: monthly,
		TotalAmount:   total,
		Installments:  installments,
	}, nil
}
