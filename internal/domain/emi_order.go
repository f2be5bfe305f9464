package domain

import (
	"context"
	"time"

	"github.com/Surya12v/project-s/emi-backend/internal/util"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EmiOrderStatus is the aggregate lifecycle state of an EMI order
type EmiOrderStatus string

const (
	EmiOrderStatusOngoing   EmiOrderStatus = "ONGOING"
	EmiOrderStatusCompleted EmiOrderStatus = "COMPLETED"
	EmiOrderStatusClosed    EmiOrderStatus = "CLOSED"
)

// IsValid reports whether s is a known order status
func (s EmiOrderStatus) IsValid() bool {
	switch s {
	case EmiOrderStatusOngoing, EmiOrderStatusCompleted, EmiOrderStatusClosed:
		return true
	}
	return false
}

// InstallmentStatus is the lifecycle state of a single installment
type InstallmentStatus string

const (
	InstallmentStatusDue  InstallmentStatus = "DUE"
	InstallmentStatusLate InstallmentStatus = "LATE"
	InstallmentStatusPaid InstallmentStatus = "PAID"
)

// Installment is one line of an EMI schedule. It has no identity of its own;
// its position in EmiOrder.Schedule is its installment number minus one.
type Installment struct {
	DueDate         time.Time         `json:"dueDate"`
	Amount          decimal.Decimal   `json:"amount"`
	Status          InstallmentStatus `json:"status"`
	PaidAt          *time.Time        `json:"paidAt,omitempty"`
	PenaltyAmount   decimal.Decimal   `json:"penaltyAmount"`
	GracePeriodDays int               `json:"gracePeriodDays"`
}

// AmountDue returns the scheduled amount plus any penalty applied on becoming late
func (i Installment) AmountDue() decimal.Decimal {
	return i.Amount.Add(i.PenaltyAmount)
}

// LateAfter returns the last calendar day on which the installment is still within grace
func (i Installment) LateAfter() time.Time {
	return i.DueDate.AddDate(0, 0, i.GracePeriodDays)
}

// IsOverdue reports whether asOf is strictly past the grace period
func (i Installment) IsOverdue(asOf time.Time) bool {
	return util.TruncateToDate(asOf).After(i.LateAfter())
}

// IsDueBy reports whether the installment's due date has been reached on asOf
func (i Installment) IsDueBy(asOf time.Time) bool {
	return !i.DueDate.After(util.TruncateToDate(asOf))
}

// EmiOrder is the aggregate root of the EMI engine. Plan terms are frozen at creation.
type EmiOrder struct {
	ID                     uuid.UUID       `json:"id"`
	UserID                 string          `json:"userId"`
	ProductID              string          `json:"productId"`
	OrderID                string          `json:"orderId"`
	Principal              decimal.Decimal `json:"principal"`
	TenureMonths           int32           `json:"tenureMonths"`
	AnnualInterestRate     decimal.Decimal `json:"annualInterestRate"`
	MonthlyAmount          decimal.Decimal `json:"monthlyAmount"`
	TotalAmount            decimal.Decimal `json:"totalAmount"`
	Schedule               []Installment   `json:"schedule"`
	Status                 EmiOrderStatus  `json:"status"`
	AutoPaymentMethodToken *string         `json:"-"`
	Version                int32           `json:"version"`
	CreatedAt              time.Time       `json:"createdAt"`
	UpdatedAt              time.Time       `json:"updatedAt"`
}

// PenaltyPolicy computes the penalty charged when an installment becomes late
type PenaltyPolicy func(inst Installment) decimal.Decimal

// DeriveStatus recomputes the aggregate status from the schedule.
// CLOSED is terminal and is never derived away.
func DeriveStatus(current EmiOrderStatus, schedule []Installment) EmiOrderStatus {
	if current == EmiOrderStatusClosed {
		return EmiOrderStatusClosed
	}
	if len(schedule) == 0 {
		return EmiOrderStatusOngoing
	}
	for _, inst := range schedule {
		if inst.Status != InstallmentStatusPaid {
			return EmiOrderStatusOngoing
		}
	}
	return EmiOrderStatusCompleted
}

// Installment returns a pointer into the schedule for the given zero-based index
func (o *EmiOrder) Installment(index int) (*Installment, error) {
	if index < 0 || index >= len(o.Schedule) {
		return nil, ErrInvalidIndex
	}
	return &o.Schedule[index], nil
}

// MarkPaid moves an unpaid installment to PAID. The caller is expected to have
// ruled out an already-paid installment; doing so here returns ErrAlreadyPaid.
func (o *EmiOrder) MarkPaid(index int, paidAt time.Time) error {
	inst, err := o.Installment(index)
	if err != nil {
		return err
	}
	if inst.Status == InstallmentStatusPaid {
		return ErrAlreadyPaid
	}

	at := paidAt.UTC()
	inst.Status = InstallmentStatusPaid
	inst.PaidAt = &at
	o.Status = DeriveStatus(o.Status, o.Schedule)
	return nil
}

// MarkLate escalates a DUE installment to LATE once asOf is past its grace period.
// It returns false without changes when the installment is not DUE or still in grace.
func (o *EmiOrder) MarkLate(index int, asOf time.Time, policy PenaltyPolicy) (bool, error) {
	inst, err := o.Installment(index)
	if err != nil {
		return false, err
	}
	if inst.Status != InstallmentStatusDue || !inst.IsOverdue(asOf) {
		return false, nil
	}

	penalty := decimal.Zero
	if policy != nil {
		penalty = policy(*inst)
	}
	if penalty.IsNegative() {
		penalty = decimal.Zero
	}

	inst.Status = InstallmentStatusLate
	inst.PenaltyAmount = penalty.Round(2)
	o.Status = DeriveStatus(o.Status, o.Schedule)
	return true, nil
}

// Cancel closes an ongoing order. Installment statuses are left as they are.
func (o *EmiOrder) Cancel() error {
	if o.Status != EmiOrderStatusOngoing {
		return ErrInvalidState
	}
	o.Status = EmiOrderStatusClosed
	return nil
}

// HasAutoPay reports whether a stored payment instrument is attached
func (o *EmiOrder) HasAutoPay() bool {
	return o.AutoPaymentMethodToken != nil && *o.AutoPaymentMethodToken != ""
}

// PaidCount returns the number of PAID installments
func (o *EmiOrder) PaidCount() int {
	count := 0
	for _, inst := range o.Schedule {
		if inst.Status == InstallmentStatusPaid {
			count++
		}
	}
	return count
}

// TotalPenalties sums penalties applied across the schedule
func (o *EmiOrder) TotalPenalties() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range o.Schedule {
		total = total.Add(inst.PenaltyAmount)
	}
	return total
}

// TotalPayable is the scheduled total plus penalties
func (o *EmiOrder) TotalPayable() decimal.Decimal {
	return o.TotalAmount.Add(o.TotalPenalties())
}

// OutstandingAmount is what remains to be paid on unpaid installments
func (o *EmiOrder) OutstandingAmount() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range o.Schedule {
		if inst.Status != InstallmentStatusPaid {
			total = total.Add(inst.AmountDue())
		}
	}
	return total
}

// Clone returns a deep copy so callers can mutate without touching shared state
func (o *EmiOrder) Clone() *EmiOrder {
	c := *o
	c.Schedule = make([]Installment, len(o.Schedule))
	for i, inst := range o.Schedule {
		if inst.PaidAt != nil {
			at := *inst.PaidAt
			inst.PaidAt = &at
		}
		c.Schedule[i] = inst
	}
	if o.AutoPaymentMethodToken != nil {
		token := *o.AutoPaymentMethodToken
		c.AutoPaymentMethodToken = &token
	}
	return &c
}

// EmiOrderRepository persists EMI orders. Update and SaveWithPayment use
// order.Version for optimistic concurrency and return ErrConcurrentUpdate on mismatch.
type EmiOrderRepository interface {
	Create(ctx context.Context, order *EmiOrder) (*EmiOrder, error)
	GetByID(ctx context.Context, id uuid.UUID) (*EmiOrder, error)
	GetByUserID(ctx context.Context, userID string) ([]*EmiOrder, error)
	GetByStatus(ctx context.Context, status EmiOrderStatus) ([]*EmiOrder, error)
	Update(ctx context.Context, order *EmiOrder) (*EmiOrder, error)
	SaveWithPayment(ctx context.Context, order *EmiOrder, record *EmiPaymentRecord) (*EmiOrder, error)
}
