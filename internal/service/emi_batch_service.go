package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/Surya12v/project-s/emi-backend/internal/util"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultBatchLockTTL bounds how long a crashed run can hold the distributed lock
const DefaultBatchLockTTL = 30 * time.Minute

// BatchLock serializes daily batch runs across processes. Acquire returns
// domain.ErrBatchInProgress when another holder owns the key.
type BatchLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// BatchReportStore archives batch summaries and returns the stored object key
type BatchReportStore interface {
	SaveReport(ctx context.Context, summary *BatchSummary) (string, error)
}

// BatchFailure describes one installment the batch could not process
type BatchFailure struct {
	EmiOrderID    string `json:"emiOrderId"`
	ScheduleIndex int    `json:"scheduleIndex"`
	Stage         string `json:"stage"`
	Reason        string `json:"reason"`
}

// BatchSummary reports the outcome of one daily batch run
type BatchSummary struct {
	RunDate       string         `json:"runDate"`
	OrdersScanned int            `json:"ordersScanned"`
	AutoPaid      int            `json:"autoPaid"`
	NewlyLate     int            `json:"newlyLate"`
	Failed        int            `json:"failed"`
	Failures      []BatchFailure `json:"failures,omitempty"`
	StartedAt     time.Time      `json:"startedAt"`
	FinishedAt    time.Time      `json:"finishedAt"`
	ReportKey     string         `json:"reportKey,omitempty"`
}

func (s *BatchSummary) addFailure(emiOrderID string, index int, stage string, err error) {
	s.Failed++
	s.Failures = append(s.Failures, BatchFailure{
		EmiOrderID:    emiOrderID,
		ScheduleIndex: index,
		Stage:         stage,
		Reason:        err.Error(),
	})
}

// Batch failure stages
const (
	BatchStageAutoCharge = "auto_charge"
	BatchStageReconcile  = "reconcile"
	BatchStageLate       = "mark_late"
	BatchStageLoad       = "load"
)

// EmiBatchService runs the daily auto-pay and late-penalty pass over ongoing orders.
// Re-running it on the same day neither charges nor penalizes twice.
type EmiBatchService struct {
	orderRepo  domain.EmiOrderRepository
	reconciler *ReconciliationService
	gateway    domain.GatewayClient
	notifier   domain.Notifier
	penalty    domain.PenaltyPolicy
	lock       BatchLock
	reports    BatchReportStore
	lockTTL    time.Duration
	logger     zerolog.Logger
	mu         sync.Mutex
}

// NewEmiBatchService creates a new EmiBatchService
func NewEmiBatchService(
	orderRepo domain.EmiOrderRepository,
	reconciler *ReconciliationService,
	gateway domain.GatewayClient,
	notifier domain.Notifier,
	penalty domain.PenaltyPolicy,
	logger zerolog.Logger,
) *EmiBatchService {
	return &EmiBatchService{
		orderRepo:  orderRepo,
		reconciler: reconciler,
		gateway:    gateway,
		notifier:   notifier,
		penalty:    penalty,
		lockTTL:    DefaultBatchLockTTL,
		logger:     logger.With().Str("component", "emi_batch").Logger(),
	}
}

// SetLock sets the cross-process batch lock
func (s *EmiBatchService) SetLock(lock BatchLock) {
	s.lock = lock
}

// SetReportStore sets where batch summaries are archived
func (s *EmiBatchService) SetReportStore(reports BatchReportStore) {
	s.reports = reports
}

// RunDailyBatch processes every ONGOING order as of today's calendar date.
// A failure on one order is recorded in the summary and never stops the run.
func (s *EmiBatchService) RunDailyBatch(ctx context.Context, today time.Time) (*BatchSummary, error) {
	if !s.mu.TryLock() {
		return nil, domain.ErrBatchInProgress
	}
	defer s.mu.Unlock()

	runDate := util.TruncateToDate(today)
	summary := &BatchSummary{
		RunDate:   runDate.Format(util.DateLayout),
		StartedAt: time.Now().UTC(),
	}

	if s.lock != nil {
		release, err := s.lock.Acquire(ctx, "emi-batch:"+summary.RunDate, s.lockTTL)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	orders, err := s.orderRepo.GetByStatus(ctx, domain.EmiOrderStatusOngoing)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load ongoing EMI orders")
		return nil, fmt.Errorf("load ongoing emi orders: %w", err)
	}

	s.logger.Info().Str("run_date", summary.RunDate).Int("orders", len(orders)).Msg("Starting EMI daily batch")

	for _, order := range orders {
		if err := ctx.Err(); err != nil {
			s.logger.Info().Msg("Context cancelled, stopping EMI batch")
			summary.FinishedAt = time.Now().UTC()
			return summary, err
		}
		summary.OrdersScanned++
		s.processOrder(ctx, order, runDate, summary)
	}

	summary.FinishedAt = time.Now().UTC()
	s.archive(ctx, summary)

	s.logger.Info().
		Str("run_date", summary.RunDate).
		Int("orders_scanned", summary.OrdersScanned).
		Int("auto_paid", summary.AutoPaid).
		Int("newly_late", summary.NewlyLate).
		Int("failed", summary.Failed).
		Dur("elapsed", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("Completed EMI daily batch")

	return summary, nil
}

// processOrder runs auto-pay for due installments, then marks overdue ones late
func (s *EmiBatchService) processOrder(ctx context.Context, order *domain.EmiOrder, runDate time.Time, summary *BatchSummary) {
	if order.HasAutoPay() {
		s.autoPay(ctx, order, runDate, summary)
	}
	s.markOverdue(ctx, order, runDate, summary)
}

// autoPay charges each due installment. The order is reloaded before every
// charge so a payment, cancellation or token removal that landed after the
// batch listing is never charged again.
func (s *EmiBatchService) autoPay(ctx context.Context, listed *domain.EmiOrder, runDate time.Time, summary *BatchSummary) {
	for index, inst := range listed.Schedule {
		if inst.Status != domain.InstallmentStatusDue || !inst.IsDueBy(runDate) {
			continue
		}

		order, inst, charge, err := s.chargeable(ctx, listed.ID, index)
		if err != nil {
			s.logger.Error().Err(err).
				Str("emi_order_id", listed.ID.String()).
				Int("schedule_index", index).
				Msg("Failed to reload EMI order before auto-pay")
			summary.addFailure(listed.ID.String(), index, BatchStageLoad, err)
			return
		}
		if order == nil {
			// Closed or auto-pay turned off since listing
			return
		}
		if !charge {
			s.logger.Debug().
				Str("emi_order_id", order.ID.String()).
				Int("schedule_index", index).
				Msg("Installment settled since listing, skipping auto-pay")
			continue
		}

		confirmation, err := s.gateway.ChargeStoredInstrument(ctx, *order.AutoPaymentMethodToken, inst.AmountDue(), domain.ChargeReference{
			EmiOrderID:    order.ID,
			ScheduleIndex: index,
			UserID:        order.UserID,
		})
		if err != nil {
			// Left DUE; the next run retries and the late check applies meanwhile
			s.logger.Warn().Err(err).
				Str("emi_order_id", order.ID.String()).
				Int("schedule_index", index).
				Msg("Auto-pay charge failed")
			summary.addFailure(order.ID.String(), index, BatchStageAutoCharge, err)
			s.notify(ctx, order, domain.NotificationAutoPayFailed, "Auto-pay failed",
				fmt.Sprintf("We could not collect installment %d of %d automatically. Please pay it manually.", index+1, len(order.Schedule)))
			continue
		}
		confirmation.Source = domain.ConfirmationSourceAutoCharge

		result, err := s.reconciler.ReconcilePayment(ctx, ReconcileRequest{
			EmiOrderID:    order.ID,
			ScheduleIndex: index,
			Confirmation:  *confirmation,
			Actor:         domain.ActorSystem,
		})
		if err != nil {
			s.logger.Error().Err(err).
				Str("emi_order_id", order.ID.String()).
				Int("schedule_index", index).
				Str("payment_id", confirmation.PaymentID).
				Msg("Auto-pay captured but reconciliation failed")
			summary.addFailure(order.ID.String(), index, BatchStageReconcile, err)
			continue
		}
		if !result.AlreadyPaid {
			summary.AutoPaid++
		}
	}
}

// chargeable reloads the order and reports whether installment index still
// needs collecting. A nil order means the order no longer takes auto-pay.
func (s *EmiBatchService) chargeable(ctx context.Context, id uuid.UUID, index int) (*domain.EmiOrder, *domain.Installment, bool, error) {
	order, err := s.reconciler.loadOrder(ctx, id)
	if err != nil {
		return nil, nil, false, err
	}
	if order.Status != domain.EmiOrderStatusOngoing || !order.HasAutoPay() {
		return nil, nil, false, nil
	}
	inst, err := order.Installment(index)
	if err != nil {
		return nil, nil, false, err
	}
	if inst.Status != domain.InstallmentStatusDue {
		return order, inst, false, nil
	}
	settled, err := s.reconciler.isSettled(ctx, order, index)
	if err != nil {
		return nil, nil, false, err
	}
	return order, inst, !settled, nil
}

func (s *EmiBatchService) markOverdue(ctx context.Context, order *domain.EmiOrder, runDate time.Time, summary *BatchSummary) {
	var newlyLate []int
	saved, err := mutateEmiOrder(ctx, s.orderRepo, order.ID, func(current *domain.EmiOrder) (bool, error) {
		newlyLate = newlyLate[:0]
		if current.Status != domain.EmiOrderStatusOngoing {
			return false, nil
		}
		for index := range current.Schedule {
			late, err := current.MarkLate(index, runDate, s.penalty)
			if err != nil {
				return false, err
			}
			if late {
				newlyLate = append(newlyLate, index)
			}
		}
		return len(newlyLate) > 0, nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("emi_order_id", order.ID.String()).Msg("Failed to mark installments late")
		stage := BatchStageLate
		if errors.Is(err, domain.ErrEmiOrderNotFound) {
			stage = BatchStageLoad
		}
		summary.addFailure(order.ID.String(), -1, stage, err)
		return
	}

	summary.NewlyLate += len(newlyLate)
	for _, index := range newlyLate {
		inst := saved.Schedule[index]
		s.logger.Info().
			Str("emi_order_id", saved.ID.String()).
			Int("schedule_index", index).
			Str("penalty", inst.PenaltyAmount.StringFixed(2)).
			Msg("Installment marked late")
		s.notify(ctx, saved, domain.NotificationInstallmentLate, "Installment overdue",
			fmt.Sprintf("Installment %d of %d is overdue. A penalty of %s has been added; %s is now due.",
				index+1, len(saved.Schedule), inst.PenaltyAmount.StringFixed(2), inst.AmountDue().StringFixed(2)))
	}
}

func (s *EmiBatchService) notify(ctx context.Context, order *domain.EmiOrder, notificationType domain.NotificationType, title, message string) {
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

// archive stores the summary when a report store is configured. Best-effort.
func (s *EmiBatchService) archive(ctx context.Context, summary *BatchSummary) {
	if s.reports == nil {
		return
	}
	key, err := s.reports.SaveReport(ctx, summary)
	if err != nil {
		s.logger.Warn().Err(err).Str("run_date", summary.RunDate).Msg("Failed to archive batch report")
		return
	}
	summary.ReportKey = key
}
