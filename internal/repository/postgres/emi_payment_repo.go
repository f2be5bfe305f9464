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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const emiPaymentColumns = `id, emi_order_id, schedule_index, amount, paid_at, status,
	gateway_details, actor, created_at`

const paymentIDIndex = "uq_emi_payment_records_payment_id"

// EmiPaymentRepository implements domain.EmiPaymentRepository using PostgreSQL.
// Rows are only ever inserted.
type EmiPaymentRepository struct {
	pool *pgxpool.Pool
}

// Ensure EmiPaymentRepository implements domain.EmiPaymentRepository
var _ domain.EmiPaymentRepository = (*EmiPaymentRepository)(nil)

// NewEmiPaymentRepository creates a new EmiPaymentRepository
func NewEmiPaymentRepository(pool *pgxpool.Pool) *EmiPaymentRepository {
	return &EmiPaymentRepository{pool: pool}
}

// Append inserts a ledger record
func (r *EmiPaymentRepository) Append(ctx context.Context, record *domain.EmiPaymentRecord) (*domain.EmiPaymentRecord, error) {
	return appendPaymentRecord(ctx, r.pool, record)
}

// HasSuccess reports whether the installment already has a SUCCESS record
func (r *EmiPaymentRepository) HasSuccess(ctx context.Context, emiOrderID uuid.UUID, scheduleIndex int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM emi_payment_records
			WHERE emi_order_id = $1 AND schedule_index = $2 AND status = 'SUCCESS'
		)`, emiOrderID, scheduleIndex).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// GetSuccessByPaymentID returns the SUCCESS record backed by a gateway payment, or nil
func (r *EmiPaymentRepository) GetSuccessByPaymentID(ctx context.Context, paymentID string) (*domain.EmiPaymentRecord, error) {
	if paymentID == "" {
		return nil, nil
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+emiPaymentColumns+`
		FROM emi_payment_records
		WHERE gateway_details ->> 'paymentId' = $1 AND status = 'SUCCESS'
		LIMIT 1`, paymentID)
	record, err := scanPaymentRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetByOrderID returns all ledger records for an order in insertion order
func (r *EmiPaymentRepository) GetByOrderID(ctx context.Context, emiOrderID uuid.UUID) ([]*domain.EmiPaymentRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+emiPaymentColumns+`
		FROM emi_payment_records
		WHERE emi_order_id = $1
		ORDER BY created_at, schedule_index, id`, emiOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.EmiPaymentRecord, 0)
	for rows.Next() {
		record, err := scanPaymentRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func appendPaymentRecord(ctx context.Context, q querier, record *domain.EmiPaymentRecord) (*domain.EmiPaymentRecord, error) {
	id := record.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	amount, err := decimalToPgNumeric(record.Amount)
	if err != nil {
		return nil, err
	}
	details, err := json.Marshal(record.GatewayDetails)
	if err != nil {
		return nil, fmt.Errorf("failed to encode gateway details: %w", err)
	}

	row := q.QueryRow(ctx, `
		INSERT INTO emi_payment_records (id, emi_order_id, schedule_index, amount, paid_at, status, gateway_details, actor)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+emiPaymentColumns,
		id, record.EmiOrderID, record.ScheduleIndex, amount, record.PaidAt.UTC(),
		string(record.Status), details, string(record.Actor),
	)
	created, err := scanPaymentRecord(row)
	if err != nil {
		if isPgUniqueViolation(err) {
			if uniqueViolationConstraint(err) == paymentIDIndex {
				return nil, domain.ErrPaymentReused
			}
			return nil, domain.ErrDuplicatePayment
		}
		return nil, err
	}
	return created, nil
}

func scanPaymentRecord(row pgx.Row) (*domain.EmiPaymentRecord, error) {
	var (
		record            domain.EmiPaymentRecord
		amount            pgtype.Numeric
		details           []byte
		status, actor     string
		paidAt, createdAt time.Time
	)

	err := row.Scan(&record.ID, &record.EmiOrderID, &record.ScheduleIndex, &amount, &paidAt,
		&status, &details, &actor, &createdAt)
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &record.GatewayDetails); err != nil {
			return nil, fmt.Errorf("failed to decode gateway details: %w", err)
		}
	}

	record.Amount = pgNumericToDecimal(amount)
	record.Status = domain.PaymentRecordStatus(status)
	record.Actor = domain.Actor(actor)
	record.PaidAt = paidAt.UTC()
	record.CreatedAt = createdAt.UTC()
	return &record, nil
}
