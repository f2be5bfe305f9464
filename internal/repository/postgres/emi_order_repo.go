package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const emiOrderColumns = `id, user_id, product_id, order_id, principal, tenure_months,
	annual_interest_rate, monthly_amount, total_amount, schedule, status,
	auto_payment_method_token, version, created_at, updated_at`

// EmiOrderRepository implements domain.EmiOrderRepository using PostgreSQL
type EmiOrderRepository struct {
	pool *pgxpool.Pool
}

// Ensure EmiOrderRepository implements domain.EmiOrderRepository
var _ domain.EmiOrderRepository = (*EmiOrderRepository)(nil)

// NewEmiOrderRepository creates a new EmiOrderRepository
func NewEmiOrderRepository(pool *pgxpool.Pool) *EmiOrderRepository {
	return &EmiOrderRepository{pool: pool}
}

// Create inserts a new order at version 1
func (r *EmiOrderRepository) Create(ctx context.Context, order *domain.EmiOrder) (*domain.EmiOrder, error) {
	id := order.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	params, err := emiOrderParams(order)
	if err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO emi_orders (id, user_id, product_id, order_id, principal, tenure_months,
			annual_interest_rate, monthly_amount, total_amount, schedule, status,
			auto_payment_method_token, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1)
		RETURNING `+emiOrderColumns,
		id, order.UserID, order.ProductID, order.OrderID, params.principal, order.TenureMonths,
		params.rate, params.monthly, params.total, params.schedule, string(order.Status),
		textFromPtr(order.AutoPaymentMethodToken),
	)
	return scanEmiOrder(row)
}

// GetByID retrieves an order by its ID
func (r *EmiOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.EmiOrder, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+emiOrderColumns+` FROM emi_orders WHERE id = $1`, id)
	order, err := scanEmiOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEmiOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// GetByUserID retrieves a user's orders, newest first
func (r *EmiOrderRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.EmiOrder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+emiOrderColumns+`
		FROM emi_orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, err
	}
	return collectEmiOrders(rows)
}

// GetByStatus retrieves orders with the given status, oldest first
func (r *EmiOrderRepository) GetByStatus(ctx context.Context, status domain.EmiOrderStatus) ([]*domain.EmiOrder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+emiOrderColumns+`
		FROM emi_orders
		WHERE status = $1
		ORDER BY created_at, id`, string(status))
	if err != nil {
		return nil, err
	}
	return collectEmiOrders(rows)
}

// Update writes the order when its version still matches the stored one
func (r *EmiOrderRepository) Update(ctx context.Context, order *domain.EmiOrder) (*domain.EmiOrder, error) {
	return r.update(ctx, r.pool, order)
}

// SaveWithPayment updates the order and appends the ledger record in one transaction
func (r *EmiOrderRepository) SaveWithPayment(ctx context.Context, order *domain.EmiOrder, record *domain.EmiPaymentRecord) (*domain.EmiOrder, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	updated, err := r.update(ctx, tx, order)
	if err != nil {
		return nil, err
	}
	if _, err := appendPaymentRecord(ctx, tx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, nil
}

func (r *EmiOrderRepository) update(ctx context.Context, q querier, order *domain.EmiOrder) (*domain.EmiOrder, error) {
	params, err := emiOrderParams(order)
	if err != nil {
		return nil, err
	}

	row := q.QueryRow(ctx, `
		UPDATE emi_orders
		SET schedule = $3,
			status = $4,
			auto_payment_method_token = $5,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING `+emiOrderColumns,
		order.ID, order.Version, params.schedule, string(order.Status), textFromPtr(order.AutoPaymentMethodToken),
	)
	updated, err := scanEmiOrder(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// No row matched: either the order is gone or someone else bumped the version
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM emi_orders WHERE id = $1)`, order.ID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrEmiOrderNotFound
	}
	return nil, domain.ErrConcurrentUpdate
}

type emiOrderSQLParams struct {
	principal pgtype.Numeric
	rate      pgtype.Numeric
	monthly   pgtype.Numeric
	total     pgtype.Numeric
	schedule  []byte
}

func emiOrderParams(order *domain.EmiOrder) (*emiOrderSQLParams, error) {
	principal, err := decimalToPgNumeric(order.Principal)
	if err != nil {
		return nil, err
	}
	rate, err := decimalToPgNumeric(order.AnnualInterestRate)
	if err != nil {
		return nil, err
	}
	monthly, err := decimalToPgNumeric(order.MonthlyAmount)
	if err != nil {
		return nil, err
	}
	total, err := decimalToPgNumeric(order.TotalAmount)
	if err != nil {
		return nil, err
	}
	schedule, err := json.Marshal(order.Schedule)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schedule: %w", err)
	}
	return &emiOrderSQLParams{
		principal: principal,
		rate:      rate,
		monthly:   monthly,
		total:     total,
		schedule:  schedule,
	}, nil
}

func scanEmiOrder(row pgx.Row) (*domain.EmiOrder, error) {
	var (
		order                           domain.EmiOrder
		principal, rate, monthly, total pgtype.Numeric
		schedule                        []byte
		status                          string
		token                           pgtype.Text
		createdAt, updatedAt            time.Time
	)

	err := row.Scan(
		&order.ID, &order.UserID, &order.ProductID, &order.OrderID, &principal, &order.TenureMonths,
		&rate, &monthly, &total, &schedule, &status,
		&token, &order.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(schedule, &order.Schedule); err != nil {
		return nil, fmt.Errorf("failed to decode schedule for emi order %s: %w", order.ID, err)
	}

	order.Principal = pgNumericToDecimal(principal)
	order.AnnualInterestRate = pgNumericToDecimal(rate)
	order.MonthlyAmount = pgNumericToDecimal(monthly)
	order.TotalAmount = pgNumericToDecimal(total)
	order.Status = domain.EmiOrderStatus(status)
	order.AutoPaymentMethodToken = ptrFromText(token)
	order.CreatedAt = createdAt.UTC()
	order.UpdatedAt = updatedAt.UTC()
	return &order, nil
}

func collectEmiOrders(rows pgx.Rows) ([]*domain.EmiOrder, error) {
	defer rows.Close()

	result := make([]*domain.EmiOrder, 0)
	for rows.Next() {
		order, err := scanEmiOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
