package postgres

import (
	"context"
	"fmt"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EmiPlanRepository implements domain.EmiPlanRepository using PostgreSQL.
// A product with no option rows has no plan.
type EmiPlanRepository struct {
	pool *pgxpool.Pool
}

// Ensure EmiPlanRepository implements domain.EmiPlanRepository
var _ domain.EmiPlanRepository = (*EmiPlanRepository)(nil)

// NewEmiPlanRepository creates a new EmiPlanRepository
func NewEmiPlanRepository(pool *pgxpool.Pool) *EmiPlanRepository {
	return &EmiPlanRepository{pool: pool}
}

// GetByProductID retrieves the plan offered for a product
func (r *EmiPlanRepository) GetByProductID(ctx context.Context, productID string) (*domain.EmiPlan, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT tenure_months, annual_interest_rate
		FROM emi_plan_options
		WHERE product_id = $1
		ORDER BY tenure_months`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plan := &domain.EmiPlan{ProductID: productID}
	for rows.Next() {
		var (
			option domain.EmiPlanOption
			rate   pgtype.Numeric
		)
		if err := rows.Scan(&option.TenureMonths, &rate); err != nil {
			return nil, err
		}
		option.AnnualInterestRate = pgNumericToDecimal(rate)
		plan.Options = append(plan.Options, option)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(plan.Options) == 0 {
		return nil, domain.ErrEmiPlanNotFound
	}
	return plan, nil
}

// Upsert replaces all of the product's options in one transaction
func (r *EmiPlanRepository) Upsert(ctx context.Context, plan *domain.EmiPlan) (*domain.EmiPlan, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM emi_plan_options WHERE product_id = $1`, plan.ProductID); err != nil {
		return nil, err
	}

	for _, option := range plan.Options {
		rate, err := decimalToPgNumeric(option.AnnualInterestRate)
		if err != nil {
			return nil, err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO emi_plan_options (product_id, tenure_months, annual_interest_rate)
			VALUES ($1, $2, $3)`,
			plan.ProductID, option.TenureMonths, rate)
		if err != nil {
			if isPgUniqueViolation(err) {
				return nil, fmt.Errorf("%w: duplicate tenure %d", domain.ErrInvalidInput, option.TenureMonths)
			}
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	options := make([]domain.EmiPlanOption, len(plan.Options))
	copy(options, plan.Options)
	return &domain.EmiPlan{ProductID: plan.ProductID, Options: options}, nil
}
