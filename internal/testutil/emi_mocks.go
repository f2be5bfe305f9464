package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockEmiOrderRepository is an in-memory domain.EmiOrderRepository with the same
// optimistic-version semantics as the Postgres implementation
type MockEmiOrderRepository struct {
	mu       sync.Mutex
	Orders   map[uuid.UUID]*domain.EmiOrder
	Payments *MockEmiPaymentRepository

	// Hooks for injecting failures
	GetByIDFn      func(id uuid.UUID) (*domain.EmiOrder, error)
	UpdateErr      error
	SaveErr        error
	BeforeSaveFn   func(order *domain.EmiOrder)
	UpdateCalls    int
	SaveCalls      int
	GetByStatusErr error
}

// NewMockEmiOrderRepository creates a repository sharing the given ledger for atomic saves
func NewMockEmiOrderRepository(payments *MockEmiPaymentRepository) *MockEmiOrderRepository {
	if payments == nil {
		payments = NewMockEmiPaymentRepository()
	}
	return &MockEmiOrderRepository{
		Orders:   make(map[uuid.UUID]*domain.EmiOrder),
		Payments: payments,
	}
}

// Create stores a new order at version 1
func (m *MockEmiOrderRepository) Create(ctx context.Context, order *domain.EmiOrder) (*domain.EmiOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := order.Clone()
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	now := time.Now().UTC()
	stored.Version = 1
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.Orders[stored.ID] = stored
	return stored.Clone(), nil
}

// GetByID returns a copy of the stored order
func (m *MockEmiOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.EmiOrder, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.Orders[id]
	if !ok {
		return nil, domain.ErrEmiOrderNotFound
	}
	return order.Clone(), nil
}

// GetByUserID returns the user's orders, newest first
func (m *MockEmiOrderRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.EmiOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*domain.EmiOrder
	for _, order := range m.Orders {
		if order.UserID == userID {
			result = append(result, order.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// GetByStatus returns orders with the given status, oldest first
func (m *MockEmiOrderRepository) GetByStatus(ctx context.Context, status domain.EmiOrderStatus) ([]*domain.EmiOrder, error) {
	if m.GetByStatusErr != nil {
		return nil, m.GetByStatusErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*domain.EmiOrder
	for _, order := range m.Orders {
		if order.Status == status {
			result = append(result, order.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID.String() < result[j].ID.String()
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Update replaces the order when its version matches the stored one
func (m *MockEmiOrderRepository) Update(ctx context.Context, order *domain.EmiOrder) (*domain.EmiOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++

	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	existing, ok := m.Orders[order.ID]
	if !ok {
		return nil, domain.ErrEmiOrderNotFound
	}
	if existing.Version != order.Version {
		return nil, domain.ErrConcurrentUpdate
	}

	stored := order.Clone()
	stored.Version++
	stored.UpdatedAt = time.Now().UTC()
	m.Orders[stored.ID] = stored
	return stored.Clone(), nil
}

// SaveWithPayment applies the order update and the ledger append atomically
func (m *MockEmiOrderRepository) SaveWithPayment(ctx context.Context, order *domain.EmiOrder, record *domain.EmiPaymentRecord) (*domain.EmiOrder, error) {
	if m.BeforeSaveFn != nil {
		m.BeforeSaveFn(order)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++

	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	existing, ok := m.Orders[order.ID]
	if !ok {
		return nil, domain.ErrEmiOrderNotFound
	}
	if existing.Version != order.Version {
		return nil, domain.ErrConcurrentUpdate
	}

	m.Payments.mu.Lock()
	defer m.Payments.mu.Unlock()
	if _, err := m.Payments.appendLocked(record); err != nil {
		return nil, err
	}

	stored := order.Clone()
	stored.Version++
	stored.UpdatedAt = time.Now().UTC()
	m.Orders[stored.ID] = stored
	return stored.Clone(), nil
}

// AddOrder seeds an order as-is (helper for tests)
func (m *MockEmiOrderRepository) AddOrder(order *domain.EmiOrder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.Version == 0 {
		order.Version = 1
	}
	m.Orders[order.ID] = order.Clone()
}

// Snapshot returns the stored state of an order (helper for tests)
func (m *MockEmiOrderRepository) Snapshot(id uuid.UUID) *domain.EmiOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order, ok := m.Orders[id]; ok {
		return order.Clone()
	}
	return nil
}

// MockEmiPaymentRepository is an in-memory append-only ledger
type MockEmiPaymentRepository struct {
	mu        sync.Mutex
	Records   []*domain.EmiPaymentRecord
	AppendErr error
}

// NewMockEmiPaymentRepository creates a new MockEmiPaymentRepository
func NewMockEmiPaymentRepository() *MockEmiPaymentRepository {
	return &MockEmiPaymentRepository{}
}

// Append adds a record, rejecting a second SUCCESS for the same installment
func (m *MockEmiPaymentRepository) Append(ctx context.Context, record *domain.EmiPaymentRecord) (*domain.EmiPaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return nil, m.AppendErr
	}
	return m.appendLocked(record)
}

func (m *MockEmiPaymentRepository) appendLocked(record *domain.EmiPaymentRecord) (*domain.EmiPaymentRecord, error) {
	if record.Status == domain.PaymentRecordStatusSuccess {
		if m.hasSuccessLocked(record.EmiOrderID, record.ScheduleIndex) {
			return nil, domain.ErrDuplicatePayment
		}
		if m.successByPaymentIDLocked(record.GatewayDetails.PaymentID) != nil {
			return nil, domain.ErrPaymentReused
		}
	}
	stored := *record
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	m.Records = append(m.Records, &stored)
	out := stored
	return &out, nil
}

// HasSuccess reports whether a SUCCESS record exists for the installment
func (m *MockEmiPaymentRepository) HasSuccess(ctx context.Context, emiOrderID uuid.UUID, scheduleIndex int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasSuccessLocked(emiOrderID, scheduleIndex), nil
}

func (m *MockEmiPaymentRepository) hasSuccessLocked(emiOrderID uuid.UUID, scheduleIndex int) bool {
	for _, r := range m.Records {
		if r.EmiOrderID == emiOrderID && r.ScheduleIndex == scheduleIndex && r.Status == domain.PaymentRecordStatusSuccess {
			return true
		}
	}
	return false
}

// GetSuccessByPaymentID returns the SUCCESS record for a gateway payment, or nil
func (m *MockEmiPaymentRepository) GetSuccessByPaymentID(ctx context.Context, paymentID string) (*domain.EmiPaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r := m.successByPaymentIDLocked(paymentID); r != nil {
		c := *r
		return &c, nil
	}
	return nil, nil
}

func (m *MockEmiPaymentRepository) successByPaymentIDLocked(paymentID string) *domain.EmiPaymentRecord {
	if paymentID == "" {
		return nil
	}
	for _, r := range m.Records {
		if r.Status == domain.PaymentRecordStatusSuccess && r.GatewayDetails.PaymentID == paymentID {
			return r
		}
	}
	return nil
}

// GetByOrderID returns an order's records in append order
func (m *MockEmiPaymentRepository) GetByOrderID(ctx context.Context, emiOrderID uuid.UUID) ([]*domain.EmiPaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*domain.EmiPaymentRecord
	for _, r := range m.Records {
		if r.EmiOrderID == emiOrderID {
			c := *r
			result = append(result, &c)
		}
	}
	return result, nil
}

// Count returns how many records match (helper for tests)
func (m *MockEmiPaymentRepository) Count(emiOrderID uuid.UUID, scheduleIndex int, status domain.PaymentRecordStatus) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, r := range m.Records {
		if r.EmiOrderID == emiOrderID && r.ScheduleIndex == scheduleIndex && r.Status == status {
			count++
		}
	}
	return count
}

// MockEmiPlanRepository is an in-memory domain.EmiPlanRepository
type MockEmiPlanRepository struct {
	mu    sync.Mutex
	Plans map[string]*domain.EmiPlan
}

// NewMockEmiPlanRepository creates a new MockEmiPlanRepository
func NewMockEmiPlanRepository() *MockEmiPlanRepository {
	return &MockEmiPlanRepository{Plans: make(map[string]*domain.EmiPlan)}
}

// GetByProductID retrieves a plan by product
func (m *MockEmiPlanRepository) GetByProductID(ctx context.Context, productID string) (*domain.EmiPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	plan, ok := m.Plans[productID]
	if !ok {
		return nil, domain.ErrEmiPlanNotFound
	}
	c := *plan
	c.Options = append([]domain.EmiPlanOption(nil), plan.Options...)
	return &c, nil
}

// Upsert replaces the plan for a product
func (m *MockEmiPlanRepository) Upsert(ctx context.Context, plan *domain.EmiPlan) (*domain.EmiPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *plan
	c.Options = append([]domain.EmiPlanOption(nil), plan.Options...)
	m.Plans[plan.ProductID] = &c
	return plan, nil
}

// ChargeCall captures one ChargeStoredInstrument invocation
type ChargeCall struct {
	Token  string
	Amount decimal.Decimal
	Ref    domain.ChargeReference
}

// MockGatewayClient is a scriptable domain.GatewayClient
type MockGatewayClient struct {
	mu sync.Mutex

	// SignatureValid is returned by VerifySignature
	SignatureValid bool
	// VerifyErr is returned by VerifyConfirmation
	VerifyErr error
	// VerifyFn overrides VerifyConfirmation entirely
	VerifyFn func(ctx context.Context, confirmation domain.GatewayConfirmation, due domain.PaymentDue) error
	// ChargeErr makes ChargeStoredInstrument fail
	ChargeErr error
	// ChargeFn overrides ChargeStoredInstrument entirely
	ChargeFn func(token string, amount decimal.Decimal, ref domain.ChargeReference) (*domain.GatewayConfirmation, error)

	VerifyCalls []domain.GatewayConfirmation
	VerifyDues  []domain.PaymentDue
	ChargeCalls []ChargeCall
	Now         func() time.Time
}

// NewMockGatewayClient returns a gateway that accepts everything
func NewMockGatewayClient() *MockGatewayClient {
	return &MockGatewayClient{SignatureValid: true}
}

// VerifySignature returns SignatureValid
func (m *MockGatewayClient) VerifySignature(payload []byte, signature string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SignatureValid
}

// VerifyConfirmation records the call and returns VerifyErr
func (m *MockGatewayClient) VerifyConfirmation(ctx context.Context, confirmation domain.GatewayConfirmation, due domain.PaymentDue) error {
	m.mu.Lock()
	m.VerifyCalls = append(m.VerifyCalls, confirmation)
	m.VerifyDues = append(m.VerifyDues, due)
	verifyFn := m.VerifyFn
	verifyErr := m.VerifyErr
	m.mu.Unlock()

	if verifyFn != nil {
		return verifyFn(ctx, confirmation, due)
	}
	return verifyErr
}

// VerifyCount returns the number of verification calls
func (m *MockGatewayClient) VerifyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.VerifyCalls)
}

// ChargeStoredInstrument records the call and returns a captured confirmation
func (m *MockGatewayClient) ChargeStoredInstrument(ctx context.Context, token string, amount decimal.Decimal, ref domain.ChargeReference) (*domain.GatewayConfirmation, error) {
	m.mu.Lock()
	m.ChargeCalls = append(m.ChargeCalls, ChargeCall{Token: token, Amount: amount, Ref: ref})
	chargeFn := m.ChargeFn
	chargeErr := m.ChargeErr
	now := m.Now
	n := len(m.ChargeCalls)
	m.mu.Unlock()

	if chargeFn != nil {
		return chargeFn(token, amount, ref)
	}
	if chargeErr != nil {
		return nil, chargeErr
	}
	capturedAt := time.Now().UTC()
	if now != nil {
		capturedAt = now()
	}
	return &domain.GatewayConfirmation{
		PaymentID:  fmt.Sprintf("pay_auto_%d", n),
		Amount:     amount,
		CapturedAt: capturedAt,
		Method:     "card",
		Source:     domain.ConfirmationSourceAutoCharge,
	}, nil
}

// ChargeCount returns the number of charge attempts
func (m *MockGatewayClient) ChargeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ChargeCalls)
}

// Notification captures one Notify invocation
type Notification struct {
	UserID  string
	Type    domain.NotificationType
	Title   string
	Message string
	Link    string
}

// MockNotifier records notifications and optionally fails
type MockNotifier struct {
	mu            sync.Mutex
	Notifications []Notification
	Err           error
}

// NewMockNotifier creates a new MockNotifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// Notify records the notification and returns Err
func (m *MockNotifier) Notify(ctx context.Context, userID string, notificationType domain.NotificationType, title, message, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notifications = append(m.Notifications, Notification{
		UserID:  userID,
		Type:    notificationType,
		Title:   title,
		Message: message,
		Link:    link,
	})
	return m.Err
}

// CountByType returns how many notifications of a type were sent
func (m *MockNotifier) CountByType(notificationType domain.NotificationType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, n := range m.Notifications {
		if n.Type == notificationType {
			count++
		}
	}
	return count
}
