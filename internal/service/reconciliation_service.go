package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/Surya12v/project-s/emi-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	// DefaultVerifyTimeout bounds a single gateway verification call
	DefaultVerifyTimeout = 5 * time.Second

	// maxSaveAttempts is how many times a lost optimistic race is retried
	maxSaveAttempts = 3
)

// Gateway webhook event names
const (
	WebhookEventPaymentCaptured = "payment.captured"
	WebhookEventPaymentFailed   = "payment.failed"
)

// ErrInvalidWebhookSignature rejects a webhook whose signature does not match its body
var ErrInvalidWebhookSignature = fmt.Errorf("%w: invalid webhook signature", domain.ErrPaymentVerification)

// ReconcileRequest identifies the installment being settled and the evidence for it
type ReconcileRequest struct {
	EmiOrderID    uuid.UUID
	ScheduleIndex int
	Confirmation  domain.GatewayConfirmation
	Actor         domain.Actor
}

// ReconcileResult is the order after reconciliation. AlreadyPaid means the
// installment was settled before this call and nothing was written.
type ReconcileResult struct {
	Order       *domain.EmiOrder
	Record      *domain.EmiPaymentRecord
	AlreadyPaid bool
}

// GatewayWebhookEvent is the JSON body posted by the gateway
type GatewayWebhookEvent struct {
	Event   string                `json:"event"`
	Payment GatewayWebhookPayment `json:"payment"`
}

// GatewayWebhookPayment carries the payment entity of a webhook.
// Amount is in minor units; CapturedAt is unix seconds.
type GatewayWebhookPayment struct {
	ID               string `json:"id"`
	Amount           int64  `json:"amount"`
	EmiOrderID       string `json:"emiOrderId"`
	InstallmentIndex *int   `json:"installmentIndex"`
	CapturedAt       int64  `json:"capturedAt"`
	Method           string `json:"method"`
	ErrorDescription string `json:"errorDescription"`
}

// WebhookResult is the acknowledgement returned to the gateway
type WebhookResult struct {
	Event         string `json:"event"`
	Processed     bool   `json:"processed"`
	AlreadyPaid   bool   `json:"alreadyPaid"`
	EmiOrderID    string `json:"emiOrderId,omitempty"`
	ScheduleIndex *int   `json:"scheduleIndex,omitempty"`
}

// ReconciliationService settles installments against gateway confirmations.
// It is the single place where an installment moves to PAID.
type ReconciliationService struct {
	orderRepo      domain.EmiOrderRepository
	paymentRepo    domain.EmiPaymentRepository
	gateway        domain.GatewayClient
	notifier       domain.Notifier
	eventPublisher websocket.EventPublisher
	logger         zerolog.Logger
	verifyTimeout  time.Duration
	now            func() time.Time
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	orderRepo domain.EmiOrderRepository,
	paymentRepo domain.EmiPaymentRepository,
	gateway domain.GatewayClient,
	notifier domain.Notifier,
	logger zerolog.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		orderRepo:     orderRepo,
		paymentRepo:   paymentRepo,
		gateway:       gateway,
		notifier:      notifier,
		logger:        logger.With().Str("component", "reconciliation").Logger(),
		verifyTimeout: DefaultVerifyTimeout,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SetVerifyTimeout sets the budget for one gateway verification
func (s *ReconciliationService) SetVerifyTimeout(timeout time.Duration) {
	if timeout > 0 {
		s.verifyTimeout = timeout
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *ReconciliationService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *ReconciliationService) publishEvent(userID string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// ReconcilePayment settles one installment. A repeated confirmation for an
// already settled installment returns the current order with AlreadyPaid set.
// Verification failures leave the order untouched and append a FAILED record.
func (s *ReconciliationService) ReconcilePayment(ctx context.Context, req ReconcileRequest) (*ReconcileResult, error) {
	if !isValidActor(req.Actor) {
		return nil, fmt.Errorf("%w: unknown actor %q", domain.ErrInvalidInput, req.Actor)
	}

	order, err := s.loadOrder(ctx, req.EmiOrderID)
	if err != nil {
		return nil, err
	}
	if _, err := order.Installment(req.ScheduleIndex); err != nil {
		return nil, err
	}

	settled, err := s.isSettled(ctx, order, req.ScheduleIndex)
	if err != nil {
		return nil, err
	}
	if settled {
		s.logger.Debug().
			Str("emi_order_id", order.ID.String()).
			Int("schedule_index", req.ScheduleIndex).
			Str("actor", string(req.Actor)).
			Msg("Installment already settled, ignoring confirmation")
		return &ReconcileResult{Order: order, AlreadyPaid: true}, nil
	}

	if err := s.checkPaymentUnused(ctx, req); err != nil {
		if !errors.Is(err, domain.ErrPaymentReused) {
			return nil, err
		}
		s.recordFailure(ctx, order.ID, req.ScheduleIndex, req.Confirmation, req.Actor, err.Error())
		return nil, verificationError(err)
	}

	inst, _ := order.Installment(req.ScheduleIndex)
	due := domain.PaymentDue{
		Ref:    domain.ChargeReference{EmiOrderID: order.ID, ScheduleIndex: req.ScheduleIndex, UserID: order.UserID},
		Amount: inst.AmountDue(),
	}
	if err := s.verify(ctx, req.Confirmation, due); err != nil {
		s.recordFailure(ctx, order.ID, req.ScheduleIndex, req.Confirmation, req.Actor, err.Error())
		return nil, verificationError(err)
	}

	return s.settle(ctx, order, req)
}

// checkPaymentUnused rejects a gateway payment that already settles a different installment
func (s *ReconciliationService) checkPaymentUnused(ctx context.Context, req ReconcileRequest) error {
	if req.Confirmation.PaymentID == "" {
		return nil
	}
	existing, err := s.paymentRepo.GetSuccessByPaymentID(ctx, req.Confirmation.PaymentID)
	if err != nil {
		return fmt.Errorf("check payment ledger: %w", err)
	}
	if existing == nil {
		return nil
	}
	if existing.EmiOrderID != req.EmiOrderID || existing.ScheduleIndex != req.ScheduleIndex {
		return fmt.Errorf("%w: payment %s settles order %s installment %d", domain.ErrPaymentReused,
			req.Confirmation.PaymentID, existing.EmiOrderID, existing.ScheduleIndex)
	}
	return nil
}

// verificationError classifies err as a payment verification failure without
// repeating the prefix when it already is one
func verificationError(err error) error {
	if errors.Is(err, domain.ErrPaymentVerification) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrPaymentVerification, err)
}

// settle applies MarkPaid and persists the order with its SUCCESS record,
// reloading on a lost optimistic race
func (s *ReconciliationService) settle(ctx context.Context, order *domain.EmiOrder, req ReconcileRequest) (*ReconcileResult, error) {
	paidAt := req.Confirmation.CapturedAt
	if paidAt.IsZero() {
		paidAt = s.now()
	}

	for attempt := 1; ; attempt++ {
		inst, err := order.Installment(req.ScheduleIndex)
		if err != nil {
			return nil, err
		}
		amount := req.Confirmation.Amount
		if !amount.IsPositive() {
			amount = inst.AmountDue()
		}
		previousStatus := order.Status

		updated := order.Clone()
		if err := updated.MarkPaid(req.ScheduleIndex, paidAt); err != nil {
			if errors.Is(err, domain.ErrAlreadyPaid) {
				return &ReconcileResult{Order: order, AlreadyPaid: true}, nil
			}
			return nil, err
		}

		record := &domain.EmiPaymentRecord{
			ID:             uuid.New(),
			EmiOrderID:     order.ID,
			ScheduleIndex:  req.ScheduleIndex,
			Amount:         amount.Round(2),
			PaidAt:         paidAt.UTC(),
			Status:         domain.PaymentRecordStatusSuccess,
			GatewayDetails: req.Confirmation.Details(),
			Actor:          req.Actor,
			CreatedAt:      s.now(),
		}

		saved, err := s.orderRepo.SaveWithPayment(ctx, updated, record)
		if err == nil {
			s.logger.Info().
				Str("emi_order_id", saved.ID.String()).
				Int("schedule_index", req.ScheduleIndex).
				Str("actor", string(req.Actor)).
				Str("payment_id", req.Confirmation.PaymentID).
				Str("status", string(saved.Status)).
				Msg("Installment settled")
			s.afterSettle(ctx, saved, previousStatus, req.ScheduleIndex)
			return &ReconcileResult{Order: saved, Record: record}, nil
		}

		if errors.Is(err, domain.ErrPaymentReused) {
			s.recordFailure(ctx, order.ID, req.ScheduleIndex, req.Confirmation, req.Actor, err.Error())
			return nil, verificationError(err)
		}
		if !errors.Is(err, domain.ErrConcurrentUpdate) && !errors.Is(err, domain.ErrDuplicatePayment) {
			s.logger.Error().Err(err).
				Str("emi_order_id", order.ID.String()).
				Int("schedule_index", req.ScheduleIndex).
				Msg("Failed to persist installment payment")
			return nil, fmt.Errorf("persist installment payment: %w", err)
		}
		if attempt >= maxSaveAttempts {
			return nil, domain.ErrConcurrentUpdate
		}

		// Lost a race. Reload; the winner may have settled this installment.
		order, err = s.loadOrder(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		settled, err := s.isSettled(ctx, order, req.ScheduleIndex)
		if err != nil {
			return nil, err
		}
		if settled {
			return &ReconcileResult{Order: order, AlreadyPaid: true}, nil
		}
	}
}

// PayInstallment settles an installment from a user's checkout confirmation
func (s *ReconciliationService) PayInstallment(ctx context.Context, userID string, emiOrderID uuid.UUID, scheduleIndex int, confirmation domain.GatewayConfirmation) (*ReconcileResult, error) {
	if userID == "" {
		return nil, domain.ErrUserIDRequired
	}
	order, err := s.loadOrder(ctx, emiOrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrEmiOrderNotFound
	}

	confirmation.Source = domain.ConfirmationSourceCheckout
	return s.ReconcilePayment(ctx, ReconcileRequest{
		EmiOrderID:    emiOrderID,
		ScheduleIndex: scheduleIndex,
		Confirmation:  confirmation,
		Actor:         domain.ActorUser,
	})
}

// AdminRecordPayment settles an installment on behalf of back-office staff
func (s *ReconciliationService) AdminRecordPayment(ctx context.Context, emiOrderID uuid.UUID, scheduleIndex int, confirmation domain.GatewayConfirmation) (*ReconcileResult, error) {
	if confirmation.Source == "" {
		confirmation.Source = domain.ConfirmationSourceManual
	}
	return s.ReconcilePayment(ctx, ReconcileRequest{
		EmiOrderID:    emiOrderID,
		ScheduleIndex: scheduleIndex,
		Confirmation:  confirmation,
		Actor:         domain.ActorAdmin,
	})
}

// HandleGatewayWebhook authenticates and applies a gateway webhook. The signature
// is checked before the body is even parsed. Events that reference unknown
// orders or installments are acknowledged without processing so the gateway
// stops redelivering them; other failures are returned for a retry.
func (s *ReconciliationService) HandleGatewayWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	if signature == "" || !s.gateway.VerifySignature(payload, signature) {
		s.logger.Warn().Int("payload_bytes", len(payload)).Msg("Rejected webhook with invalid signature")
		return nil, ErrInvalidWebhookSignature
	}

	var event GatewayWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: malformed webhook body", domain.ErrInvalidInput)
	}

	result := &WebhookResult{
		Event:         event.Event,
		EmiOrderID:    event.Payment.EmiOrderID,
		ScheduleIndex: event.Payment.InstallmentIndex,
	}

	if event.Event != WebhookEventPaymentCaptured && event.Event != WebhookEventPaymentFailed {
		return result, nil
	}

	emiOrderID, err := uuid.Parse(event.Payment.EmiOrderID)
	if err != nil || event.Payment.InstallmentIndex == nil {
		s.logger.Warn().
			Str("event", event.Event).
			Str("payment_id", event.Payment.ID).
			Msg("Webhook does not reference an EMI installment, acknowledging")
		return result, nil
	}
	index := *event.Payment.InstallmentIndex

	confirmation := domain.GatewayConfirmation{
		PaymentID:  event.Payment.ID,
		Signature:  signature,
		Amount:     decimal.New(event.Payment.Amount, -2),
		Method:     event.Payment.Method,
		Source:     domain.ConfirmationSourceWebhook,
		RawPayload: payload,
	}
	if event.Payment.CapturedAt > 0 {
		confirmation.CapturedAt = time.Unix(event.Payment.CapturedAt, 0).UTC()
	}

	if event.Event == WebhookEventPaymentFailed {
		return s.handleFailedCapture(ctx, result, emiOrderID, index, confirmation, event.Payment.ErrorDescription)
	}

	res, err := s.ReconcilePayment(ctx, ReconcileRequest{
		EmiOrderID:    emiOrderID,
		ScheduleIndex: index,
		Confirmation:  confirmation,
		Actor:         domain.ActorSystem,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmiOrderNotFound) || errors.Is(err, domain.ErrInvalidIndex) {
			s.logger.Warn().Err(err).
				Str("emi_order_id", emiOrderID.String()).
				Int("schedule_index", index).
				Msg("Webhook references unknown installment, acknowledging")
			return result, nil
		}
		return nil, err
	}

	result.Processed = true
	result.AlreadyPaid = res.AlreadyPaid
	return result, nil
}

// handleFailedCapture records a gateway-reported capture failure in the ledger
func (s *ReconciliationService) handleFailedCapture(ctx context.Context, result *WebhookResult, emiOrderID uuid.UUID, index int, confirmation domain.GatewayConfirmation, reason string) (*WebhookResult, error) {
	order, err := s.loadOrder(ctx, emiOrderID)
	if err != nil {
		if errors.Is(err, domain.ErrEmiOrderNotFound) {
			return result, nil
		}
		return nil, err
	}
	if _, err := order.Installment(index); err != nil {
		return result, nil
	}

	if reason == "" {
		reason = "payment failed at gateway"
	}
	s.recordFailure(ctx, order.ID, index, confirmation, domain.ActorSystem, reason)
	result.Processed = true
	return result, nil
}

// verify authenticates the confirmation within the timeout budget and checks
// it covers the amount due. Only checkout and auto-charge confirmations may omit
// the amount: the gateway check has already matched it to the amount due.
func (s *ReconciliationService) verify(ctx context.Context, confirmation domain.GatewayConfirmation, due domain.PaymentDue) error {
	verifyCtx, cancel := context.WithTimeout(ctx, s.verifyTimeout)
	defer cancel()

	if err := s.gateway.VerifyConfirmation(verifyCtx, confirmation, due); err != nil {
		if errors.Is(verifyCtx.Err(), context.DeadlineExceeded) {
			return errors.New("gateway verification timed out")
		}
		return err
	}
	if !confirmation.Amount.IsPositive() {
		if gatewayConfirmsAmount(confirmation.Source) {
			return nil
		}
		return errors.New("confirmation carries no captured amount")
	}
	if confirmation.Amount.LessThan(due.Amount) {
		return fmt.Errorf("captured amount %s is less than amount due %s",
			confirmation.Amount.StringFixed(2), due.Amount.StringFixed(2))
	}
	return nil
}

func gatewayConfirmsAmount(source domain.ConfirmationSource) bool {
	return source == domain.ConfirmationSourceCheckout || source == domain.ConfirmationSourceAutoCharge
}

// recordFailure appends a FAILED ledger entry. A ledger write failure is logged
// and does not replace the error reported to the caller.
func (s *ReconciliationService) recordFailure(ctx context.Context, emiOrderID uuid.UUID, index int, confirmation domain.GatewayConfirmation, actor domain.Actor, reason string) {
	details := confirmation.Details()
	details.FailureReason = reason

	paidAt := confirmation.CapturedAt
	if paidAt.IsZero() {
		paidAt = s.now()
	}

	_, err := s.paymentRepo.Append(ctx, &domain.EmiPaymentRecord{
		ID:             uuid.New(),
		EmiOrderID:     emiOrderID,
		ScheduleIndex:  index,
		Amount:         confirmation.Amount.Round(2),
		PaidAt:         paidAt.UTC(),
		Status:         domain.PaymentRecordStatusFailed,
		GatewayDetails: details,
		Actor:          actor,
		CreatedAt:      s.now(),
	})

	event := s.logger.Warn()
	if err != nil {
		event = s.logger.Error().Err(err)
	}
	event.
		Str("emi_order_id", emiOrderID.String()).
		Int("schedule_index", index).
		Str("actor", string(actor)).
		Str("reason", reason).
		Msg("Payment capture failed")
}

// afterSettle emits best-effort notifications. Failures are logged only.
func (s *ReconciliationService) afterSettle(ctx context.Context, order *domain.EmiOrder, previousStatus domain.EmiOrderStatus, index int) {
	s.notify(ctx, order, domain.NotificationInstallmentPaid,
		"Installment paid",
		fmt.Sprintf("Installment %d of %d has been paid.", index+1, len(order.Schedule)))

	if order.Status == domain.EmiOrderStatusCompleted && previousStatus != domain.EmiOrderStatusCompleted {
		s.notify(ctx, order, domain.NotificationEmiCompleted,
			"EMI completed",
			fmt.Sprintf("All %d installments of your EMI plan are paid.", len(order.Schedule)))
		s.publishEvent(order.UserID, websocket.EmiOrderCompleted(order))
		return
	}
	s.publishEvent(order.UserID, websocket.EmiInstallmentPaid(order))
}

func (s *ReconciliationService) notify(ctx context.Context, order *domain.EmiOrder, notificationType domain.NotificationType, title, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, order.UserID, notificationType, title, message, emiOrderLink(order.ID)); err != nil {
		s.logger.Warn().Err(err).
			Str("emi_order_id", order.ID.String()).
			Str("type", string(notificationType)).
			Msg("Failed to send notification")
	}
}

func (s *ReconciliationService) loadOrder(ctx context.Context, id uuid.UUID) (*domain.EmiOrder, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrEmiOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load emi order: %w", err)
	}
	return order, nil
}

// isSettled is the idempotency guard: a SUCCESS ledger entry or a PAID installment
func (s *ReconciliationService) isSettled(ctx context.Context, order *domain.EmiOrder, index int) (bool, error) {
	inst, err := order.Installment(index)
	if err != nil {
		return false, err
	}
	if inst.Status == domain.InstallmentStatusPaid {
		return true, nil
	}
	hasSuccess, err := s.paymentRepo.HasSuccess(ctx, order.ID, index)
	if err != nil {
		return false, fmt.Errorf("check payment ledger: %w", err)
	}
	return hasSuccess, nil
}

func isValidActor(actor domain.Actor) bool {
	switch actor {
	case domain.ActorUser, domain.ActorAdmin, domain.ActorSystem:
		return true
	}
	return false
}
