package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Penalty modes accepted by NewPenaltyPolicy
const (
	PenaltyModeFlat    = "flat"
	PenaltyModePercent = "percent"
)

var hundred = decimal.NewFromInt(100)

// FlatPenalty charges a fixed amount per late installment
func FlatPenalty(amount decimal.Decimal) PenaltyPolicy {
	return func(Installment) decimal.Decimal {
		return amount.Round(2)
	}
}

// PercentagePenalty charges a percentage of the scheduled installment amount
func PercentagePenalty(percent decimal.Decimal) PenaltyPolicy {
	return func(inst Installment) decimal.Decimal {
		return inst.Amount.Mul(percent).Div(hundred).Round(2)
	}
}

// NewPenaltyPolicy builds a policy from configuration values
func NewPenaltyPolicy(mode string, value decimal.Decimal) (PenaltyPolicy, error) {
	if value.IsNegative() {
		return nil, fmt.Errorf("%w: penalty value must not be negative", ErrInvalidInput)
	}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case PenaltyModeFlat, "":
		return FlatPenalty(value), nil
	case PenaltyModePercent:
		return PercentagePenalty(value), nil
	default:
		return nil, fmt.Errorf("%w: unknown penalty mode %q", ErrInvalidInput, mode)
	}
}
