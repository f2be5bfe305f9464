package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/Surya12v/project-s/emi-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CreateEmiOrderInput holds the terms an order-placement flow submits at checkout
type CreateEmiOrderInput struct {
	UserID                 string
	OrderID                string
	ProductID              string
	Principal              decimal.Decimal
	TenureMonths           int32
	AnnualInterestRate     decimal.Decimal
	AutoPaymentMethodToken *string
	StartDate              *time.Time
	GracePeriodDays        *int
}

// EmiService handles EMI order lifecycle operations outside of payment settlement
type EmiService struct {
	orderRepo       domain.EmiOrderRepository
	paymentRepo     domain.EmiPaymentRepository
	planRepo        domain.EmiPlanRepository
	notifier        domain.Notifier
	eventPublisher  websocket.EventPublisher
	gracePeriodDays int
	now             func() time.Time
}

// NewEmiService creates a new EmiService
func NewEmiService(orderRepo domain.EmiOrderRepository, paymentRepo domain.EmiPaymentRepository, planRepo domain.EmiPlanRepository, gracePeriodDays int) *EmiService {
	if gracePeriodDays < 0 {
		gracePeriodDays = domain.DefaultGracePeriodDays
	}
	return &EmiService{
		orderRepo:       orderRepo,
		paymentRepo:     paymentRepo,
		planRepo:        planRepo,
		gracePeriodDays: gracePeriodDays,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// SetNotifier sets the notifier used for lifecycle notifications
func (s *EmiService) SetNotifier(notifier domain.Notifier) {
	s.notifier = notifier
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *EmiService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvent publishes a WebSocket event if a publisher is configured
func (s *EmiService) publishEvent(userID string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// CreateEmiOrder builds the full schedule and persists the order in one step.
// When the product has a plan, the requested terms must be one of its options.
func (s *EmiService) CreateEmiOrder(ctx context.Context, input CreateEmiOrderInput) (*domain.EmiOrder, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, domain.ErrUserIDRequired
	}
	orderID := strings.TrimSpace(input.OrderID)
	productID := strings.TrimSpace(input.ProductID)
	if orderID == "" || productID == "" {
		return nil, domain.ErrExternalRefsRequired
	}
	if input.TenureMonths < 1 || input.TenureMonths > domain.MaxTenureMonths {
		return nil, domain.ErrInvalidTenure
	}

	if err := s.checkPlanTerms(ctx, productID, input.TenureMonths, input.AnnualInterestRate); err != nil {
		return nil, err
	}

	startDate := s.now()
	if input.StartDate != nil {
		startDate = *input.StartDate
	}
	gracePeriodDays := s.gracePeriodDays
	if input.GracePeriodDays != nil {
		gracePeriodDays = *input.GracePeriodDays
	}

	schedule, err := BuildSchedule(input.Principal, int(input.TenureMonths), input.AnnualInterestRate, startDate, gracePeriodDays)
	if err != nil {
		return nil, err
	}

	order := &domain.EmiOrder{
		ID:                     uuid.New(),
		UserID:                 userID,
		ProductID:              productID,
		OrderID:                orderID,
		Principal:              input.Principal.Round(2),
		TenureMonths:           input.TenureMonths,
		AnnualInterestRate:     input.AnnualInterestRate,
		MonthlyAmount:          schedule.MonthlyAmount,
		TotalAmount:            schedule.TotalAmount,
		Schedule:               schedule.Installments,
		Status:                 domain.EmiOrderStatusOngoing,
		AutoPaymentMethodToken: normalizeToken(input.AutoPaymentMethodToken),
	}

	created, err := s.orderRepo.Create(ctx, order)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("order_id", orderID).Msg("Failed to create EMI order")
		return nil, err
	}

	log.Info().
		Str("emi_order_id", created.ID.String()).
		Str("user_id", userID).
		Str("order_id", orderID).
		Int32("tenure_months", created.TenureMonths).
		Str("monthly_amount", created.MonthlyAmount.StringFixed(2)).
		Msg("EMI order created")

	s.publishEvent(created.UserID, websocket.EmiOrderCreated(created))
	return created, nil
}

// checkPlanTerms enforces the product catalog when a plan is configured
func (s *EmiService) checkPlanTerms(ctx context.Context, productID string, tenureMonths int32, rate decimal.Decimal) error {
	if s.planRepo == nil {
		return nil
	}
	plan, err := s.planRepo.GetByProductID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrEmiPlanNotFound) {
			return nil
		}
		return fmt.Errorf("load emi plan: %w", err)
	}
	if len(plan.Options) > 0 && !plan.Offers(tenureMonths, rate) {
		return domain.ErrTermsNotOffered
	}
	return nil
}

// Quote previews the schedule for the given terms without persisting anything
func (s *EmiService) Quote(principal decimal.Decimal, tenureMonths int32, annualInterestRate decimal.Decimal, startDate *time.Time) (*ScheduleResult, error) {
	if tenureMonths < 1 || tenureMonths > domain.MaxTenureMonths {
		return nil, domain.ErrInvalidTenure
	}
	start := s.now()
	if startDate != nil {
		start = *startDate
	}
	return BuildSchedule(principal, int(tenureMonths), annualInterestRate, start, s.gracePeriodDays)
}

// GetEmiOrder retrieves an order by ID
func (s *EmiService) GetEmiOrder(ctx context.Context, id uuid.UUID) (*domain.EmiOrder, error) {
	return s.orderRepo.GetByID(ctx, id)
}

// GetEmiOrderForUser retrieves an order, hiding orders that belong to other users
func (s *EmiService) GetEmiOrderForUser(ctx context.Context, userID string, id uuid.UUID) (*domain.EmiOrder, error) {
	if userID == "" {
		return nil, domain.ErrUserIDRequired
	}
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrEmiOrderNotFound
	}
	return order, nil
}

// ListEmiOrdersForUser returns all of a user's orders, newest first
func (s *EmiService) ListEmiOrdersForUser(ctx context.Context, userID string) ([]*domain.EmiOrder, error) {
	if userID == "" {
		return nil, domain.ErrUserIDRequired
	}
	return s.orderRepo.GetByUserID(ctx, userID)
}

// ListEmiOrdersByStatus returns orders in the given status, oldest first
func (s *EmiService) ListEmiOrdersByStatus(ctx context.Context, status domain.EmiOrderStatus) ([]*domain.EmiOrder, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}
	return s.orderRepo.GetByStatus(ctx, status)
}

// CancelEmiOrder closes an ongoing order. Installment statuses are kept as they are.
func (s *EmiService) CancelEmiOrder(ctx context.Context, id uuid.UUID) (*domain.EmiOrder, error) {
	order, err := mutateEmiOrder(ctx, s.orderRepo, id, func(order *domain.EmiOrder) (bool, error) {
		return true, order.Cancel()
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("emi_order_id", order.ID.String()).Str("user_id", order.UserID).Msg("EMI order cancelled")

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, order.UserID, domain.NotificationEmiCancelled,
			"EMI cancelled", "Your EMI plan has been closed.", emiOrderLink(order.ID)); err != nil {
			log.Warn().Err(err).Str("emi_order_id", order.ID.String()).Msg("Failed to send cancellation notification")
		}
	}
	s.publishEvent(order.UserID, websocket.EmiOrderUpdated(order))
	return order, nil
}

// SetAutoPay attaches or (with a nil/empty token) detaches the stored payment instrument
func (s *EmiService) SetAutoPay(ctx context.Context, userID string, id uuid.UUID, token *string) (*domain.EmiOrder, error) {
	if _, err := s.GetEmiOrderForUser(ctx, userID, id); err != nil {
		return nil, err
	}

	normalized := normalizeToken(token)
	order, err := mutateEmiOrder(ctx, s.orderRepo, id, func(order *domain.EmiOrder) (bool, error) {
		if order.Status != domain.EmiOrderStatusOngoing {
			return false, domain.ErrInvalidState
		}
		order.AutoPaymentMethodToken = normalized
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("emi_order_id", order.ID.String()).
		Bool("auto_pay", order.HasAutoPay()).
		Msg("EMI auto-pay updated")

	s.publishEvent(order.UserID, websocket.EmiOrderUpdated(order))
	return order, nil
}

// GetPaymentHistory returns the ledger entries of a user's order in append order
func (s *EmiService) GetPaymentHistory(ctx context.Context, userID string, id uuid.UUID) ([]*domain.EmiPaymentRecord, error) {
	if _, err := s.GetEmiOrderForUser(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.paymentRepo.GetByOrderID(ctx, id)
}

// mutateEmiOrder applies fn to a fresh copy of the order and saves it with an
// optimistic version check, reloading and reapplying on conflict. fn returns
// false when there is nothing to save.
func mutateEmiOrder(ctx context.Context, repo domain.EmiOrderRepository, id uuid.UUID, fn func(order *domain.EmiOrder) (bool, error)) (*domain.EmiOrder, error) {
	for attempt := 1; ; attempt++ {
		order, err := repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		changed, err := fn(order)
		if err != nil {
			return nil, err
		}
		if !changed {
			return order, nil
		}

		saved, err := repo.Update(ctx, order)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, domain.ErrConcurrentUpdate) || attempt >= maxSaveAttempts {
			return nil, err
		}
	}
}

func normalizeToken(token *string) *string {
	if token == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*token)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func emiOrderLink(id uuid.UUID) string {
	return "/emi-orders/" + id.String()
}
