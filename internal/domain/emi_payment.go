package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRecordStatus is the outcome of a capture attempt
type PaymentRecordStatus string

const (
	PaymentRecordStatusSuccess PaymentRecordStatus = "SUCCESS"
	PaymentRecordStatusFailed  PaymentRecordStatus = "FAILED"
)

// Actor identifies who initiated a capture attempt
type Actor string

const (
	ActorUser   Actor = "user"
	ActorAdmin  Actor = "admin"
	ActorSystem Actor = "system"
)

// GatewayDetails is the gateway-side context stored alongside a ledger entry
type GatewayDetails struct {
	PaymentID      string             `json:"paymentId,omitempty"`
	GatewayOrderID string             `json:"gatewayOrderId,omitempty"`
	Source         ConfirmationSource `json:"source,omitempty"`
	Method         string             `json:"method,omitempty"`
	FailureReason  string             `json:"failureReason,omitempty"`
}

// EmiPaymentRecord is an append-only ledger entry, one per capture attempt.
// At most one SUCCESS record exists per (EmiOrderID, ScheduleIndex), and a
// gateway payment ID backs at most one SUCCESS record.
type EmiPaymentRecord struct {
	ID             uuid.UUID           `json:"id"`
	EmiOrderID     uuid.UUID           `json:"emiOrderId"`
	ScheduleIndex  int                 `json:"scheduleIndex"`
	Amount         decimal.Decimal     `json:"amount"`
	PaidAt         time.Time           `json:"paidAt"`
	Status         PaymentRecordStatus `json:"status"`
	GatewayDetails GatewayDetails      `json:"gatewayDetails"`
	Actor          Actor               `json:"actor"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// EmiPaymentRepository is the ledger store
type EmiPaymentRepository interface {
	Append(ctx context.Context, record *EmiPaymentRecord) (*EmiPaymentRecord, error)
	HasSuccess(ctx context.Context, emiOrderID uuid.UUID, scheduleIndex int) (bool, error)
	// GetSuccessByPaymentID returns the SUCCESS record backed by a gateway payment, or nil
	GetSuccessByPaymentID(ctx context.Context, paymentID string) (*EmiPaymentRecord, error)
	GetByOrderID(ctx context.Context, emiOrderID uuid.UUID) ([]*EmiPaymentRecord, error)
}
