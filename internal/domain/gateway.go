package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConfirmationSource tells the verifier how a confirmation must be authenticated
type ConfirmationSource string

const (
	// ConfirmationSourceCheckout is a client-side checkout result signed with the key secret
	ConfirmationSourceCheckout ConfirmationSource = "checkout"
	// ConfirmationSourceWebhook is a webhook body signed with the webhook secret
	ConfirmationSourceWebhook ConfirmationSource = "webhook"
	// ConfirmationSourceAutoCharge is the result of charging a stored instrument
	ConfirmationSourceAutoCharge ConfirmationSource = "auto_charge"
	// ConfirmationSourceManual is an admin-recorded offline payment
	ConfirmationSourceManual ConfirmationSource = "manual"
)

// GatewayConfirmation is the evidence that a payment was captured
type GatewayConfirmation struct {
	PaymentID      string             `json:"paymentId"`
	GatewayOrderID string             `json:"gatewayOrderId,omitempty"`
	Signature      string             `json:"signature,omitempty"`
	Amount         decimal.Decimal    `json:"amount"`
	CapturedAt     time.Time          `json:"capturedAt"`
	Method         string             `json:"method,omitempty"`
	Source         ConfirmationSource `json:"source"`
	RawPayload     []byte             `json:"-"`
}

// Details projects the confirmation into ledger metadata
func (c GatewayConfirmation) Details() GatewayDetails {
	return GatewayDetails{
		PaymentID:      c.PaymentID,
		GatewayOrderID: c.GatewayOrderID,
		Source:         c.Source,
		Method:         c.Method,
	}
}

// ChargeReference identifies the installment an auto-charge is for
type ChargeReference struct {
	EmiOrderID    uuid.UUID
	ScheduleIndex int
	UserID        string
}

// PaymentDue is what a confirmation must pay for: one installment and its amount due
type PaymentDue struct {
	Ref    ChargeReference
	Amount decimal.Decimal
}

// GatewayClient is the payment gateway collaborator
type GatewayClient interface {
	// VerifySignature checks a webhook body against its signature header
	VerifySignature(payload []byte, signature string) bool
	// VerifyConfirmation authenticates a confirmation according to its source and
	// checks that it pays for due
	VerifyConfirmation(ctx context.Context, confirmation GatewayConfirmation, due PaymentDue) error
	// ChargeStoredInstrument captures amount from a stored instrument token
	ChargeStoredInstrument(ctx context.Context, token string, amount decimal.Decimal, ref ChargeReference) (*GatewayConfirmation, error)
}

// NotificationType classifies user notifications emitted by the engine
type NotificationType string

const (
	NotificationInstallmentPaid NotificationType = "emi_installment_paid"
	NotificationEmiCompleted    NotificationType = "emi_completed"
	NotificationInstallmentLate NotificationType = "emi_installment_late"
	NotificationAutoPayFailed   NotificationType = "emi_autopay_failed"
	NotificationEmiCancelled    NotificationType = "emi_cancelled"
)

// Notifier delivers user notifications. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, userID string, notificationType NotificationType, title, message, link string) error
}
