package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type EmiRepositorySuite struct {
	suite.Suite
	ctx       context.Context
	container *tcpostgres.PostgresContainer
	pool      *pgxpool.Pool
	orders    *EmiOrderRepository
	payments  *EmiPaymentRepository
	plans     *EmiPlanRepository
}

func TestEmiRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	suite.Run(t, new(EmiRepositorySuite))
}

func (s *EmiRepositorySuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := tcpostgres.Run(s.ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("emi_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	s.Require().NoError(err, "Failed to start PostgreSQL container")
	s.container = container

	dsn, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	migrator, err := NewMigrator(dsn, zerolog.Nop())
	s.Require().NoError(err)
	s.Require().NoError(migrator.Up())
	// Second run is a no-op
	s.Require().NoError(migrator.Up())
	s.Require().NoError(migrator.Close())

	pool, err := pgxpool.New(s.ctx, dsn)
	s.Require().NoError(err)
	s.pool = pool

	s.orders = NewEmiOrderRepository(pool)
	s.payments = NewEmiPaymentRepository(pool)
	s.plans = NewEmiPlanRepository(pool)
}

func (s *EmiRepositorySuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *EmiRepositorySuite) SetupTest() {
	_, err := s.pool.Exec(s.ctx, `TRUNCATE emi_payment_records, emi_orders, emi_plan_options`)
	s.Require().NoError(err)
}

func (s *EmiRepositorySuite) newOrder(userID string) *domain.EmiOrder {
	due := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	token := "token_abc"
	return &domain.EmiOrder{
		UserID:             userID,
		ProductID:          "prod-1",
		OrderID:            "ord-" + uuid.NewString()[:8],
		Principal:          decimal.RequireFromString("2000.00"),
		TenureMonths:       2,
		AnnualInterestRate: decimal.Zero,
		MonthlyAmount:      decimal.RequireFromString("1000.00"),
		TotalAmount:        decimal.RequireFromString("2000.00"),
		Schedule: []domain.Installment{
			{DueDate: due, Amount: decimal.RequireFromString("1000.00"), Status: domain.InstallmentStatusDue, GracePeriodDays: 5},
			{DueDate: due.AddDate(0, 1, 0), Amount: decimal.RequireFromString("1000.00"), Status: domain.InstallmentStatusDue, GracePeriodDays: 5},
		},
		Status:                 domain.EmiOrderStatusOngoing,
		AutoPaymentMethodToken: &token,
	}
}

func (s *EmiRepositorySuite) successRecord(orderID uuid.UUID, index int, paymentID string) *domain.EmiPaymentRecord {
	return &domain.EmiPaymentRecord{
		EmiOrderID:    orderID,
		ScheduleIndex: index,
		Amount:        decimal.RequireFromString("1000.00"),
		PaidAt:        time.Date(2024, 1, 4, 10, 0, 0, 0, time.UTC),
		Status:        domain.PaymentRecordStatusSuccess,
		GatewayDetails: domain.GatewayDetails{
			PaymentID: paymentID,
			Source:    domain.ConfirmationSourceCheckout,
		},
		Actor: domain.ActorUser,
	}
}

func (s *EmiRepositorySuite) TestCreateAndGet() {
	created, err := s.orders.Create(s.ctx, s.newOrder("user-1"))
	s.Require().NoError(err)
	s.NotEqual(uuid.Nil, created.ID)
	s.Equal(int32(1), created.Version)

	got, err := s.orders.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("user-1", got.UserID)
	s.Require().Len(got.Schedule, 2)
	s.True(got.Schedule[0].Amount.Equal(decimal.RequireFromString("1000.00")))
	s.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), got.Schedule[0].DueDate.UTC())
	s.Equal(5, got.Schedule[1].GracePeriodDays)
	s.True(got.Principal.Equal(decimal.RequireFromString("2000")))
	s.Require().NotNil(got.AutoPaymentMethodToken)
	s.Equal("token_abc", *got.AutoPaymentMethodToken)

	_, err = s.orders.GetByID(s.ctx, uuid.New())
	s.ErrorIs(err, domain.ErrEmiOrderNotFound)
}

func (s *EmiRepositorySuite) TestListings() {
	first, err := s.orders.Create(s.ctx, s.newOrder("user-1"))
	s.Require().NoError(err)
	second, err := s.orders.Create(s.ctx, s.newOrder("user-1"))
	s.Require().NoError(err)
	_, err = s.orders.Create(s.ctx, s.newOrder("user-2"))
	s.Require().NoError(err)

	mine, err := s.orders.GetByUserID(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Require().Len(mine, 2)
	s.Equal(second.ID, mine[0].ID)
	s.Equal(first.ID, mine[1].ID)

	ongoing, err := s.orders.GetByStatus(s.ctx, domain.EmiOrderStatusOngoing)
	s.Require().NoError(err)
	s.Len(ongoing, 3)

	closed, err := s.orders.GetByStatus(s.ctx, domain.EmiOrderStatusClosed)
	s.Require().NoError(err)
	s.Empty(closed)
}

func (s *EmiRepositorySuite) TestUpdate_OptimisticVersion() {
	created, err := s.orders.Create(s.ctx, s.newOrder("user-1"))
	s.Require().NoError(err)

	stale := created.Clone()

	created.AutoPaymentMethodToken = nil
	updated, err := s.orders.Update(s.ctx, created)
	s.Require().NoError(err)
	s.Equal(int32(2), updated.Version)
	s.Nil(updated.AutoPaymentMethodToken)

	_, err = s.orders.Update(s.ctx, stale)
	s.ErrorIs(err, domain.ErrConcurrentUpdate)

	missing := s.newOrder("user-1")
	missing.ID = uuid.New()
	missing.Version = 1
	_, err = s.orders.Update(s.ctx, missing)
	s.ErrorIs(err, domain.ErrEmiOrderNotFound)
}

func (s *EmiRepositorySuite) TestSaveWithPayment_Atomic() {
	created, err := s.orders.Create(s.ctx, s.newOrder("user-1"))
	s.Require().NoError(err)

	paid := created.Clone()
	s.Require().NoError(paid.MarkPaid(0, time.Date(2024, 1, 4, 10, 0, 0, 0, time.UTC)))

	saved, err := s.orders.SaveWithPayment(s.ctx, paid, s.successRecord(created.ID, 0, "pay_1"))
	s.Require().NoError(err)
	s.Equal(domain.InstallmentStatusPaid, saved.Schedule[0].Status)
	s.Equal(int32(2), saved.Version)

	has, err := s.payments.HasSuccess(s.ctx, created.ID, 0)
	s.Require().NoError(err)
	s.True(has)

	// Stale version: neither the order nor the ledger change
	stale := created.Clone()
	s.Require().NoError(stale.MarkPaid(1, time.Now()))
	_, err = s.orders.SaveWithPayment(s.ctx, stale, s.successRecord(created.ID, 1, "pay_2"))
	s.ErrorIs(err, domain.ErrConcurrentUpdate)

	has, err = s.payments.HasSuccess(s.ctx, created.ID, 1)
	s.Require().NoError(err)
	s.False(has)

	// Duplicate success for the same installment rolls back the order update
	again := saved.Clone()
	again.Schedule[1].Status = domain.InstallmentStatusPaid
	_, err = s.orders.SaveWithPayment(s.ctx, again, s.successRecord(created.ID, 0, "pay_3"))
	s.ErrorIs(err, domain.ErrDuplicatePayment)

	current, err := s.orders.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(int32(2), current.Version)
	s.Equal(domain.InstallmentStatusDue, current.Schedule[1].Status)
}

func (s *EmiRepositorySuite) TestSaveWithPayment_ConcurrentSingleWinner() {
	created, err := s.orders.Create(s.ctx, s.newOrder("user-1"))
	s.Require().NoError(err)

	var wg sync.WaitGroup
	results := make([]error, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			attempt := created.Clone()
			_ = attempt.MarkPaid(0, time.Now())
			_, results[i] = s.orders.SaveWithPayment(s.ctx, attempt, s.successRecord(created.ID, 0, "pay_race"))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
			continue
		}
		s.True(errors.Is(err, domain.ErrConcurrentUpdate) || errors.Is(err, domain.ErrDuplicatePayment), err.Error())
	}
	s.Equal(1, wins)

	records, err := s.payments.GetByOrderID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Len(records, 1)
}

func (s *EmiRepositorySuite) TestPaymentLedger() {
	created, err := s.orders.Create(s.ctx, s.newOrder("user-1"))
	s.Require().NoError(err)

	failed := s.successRecord(created.ID, 0, "pay_failed")
	failed.Status = domain.PaymentRecordStatusFailed
	failed.GatewayDetails.FailureReason = "signature mismatch"
	_, err = s.payments.Append(s.ctx, failed)
	s.Require().NoError(err)
	// Failed attempts may repeat
	_, err = s.payments.Append(s.ctx, failed)
	s.Require().NoError(err)

	_, err = s.payments.Append(s.ctx, s.successRecord(created.ID, 0, "pay_ok"))
	s.Require().NoError(err)
	_, err = s.payments.Append(s.ctx, s.successRecord(created.ID, 0, "pay_dup"))
	s.ErrorIs(err, domain.ErrDuplicatePayment)

	records, err := s.payments.GetByOrderID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Require().Len(records, 3)
	s.Equal("signature mismatch", records[0].GatewayDetails.FailureReason)
	s.Equal(domain.ActorUser, records[2].Actor)
	s.True(records[2].Amount.Equal(decimal.RequireFromString("1000")))
}

func (s *EmiRepositorySuite) TestPaymentIDSettlesOneInstallment() {
	created, err := s.orders.Create(s.ctx, s.newOrder("user-1"))
	s.Require().NoError(err)

	missing, err := s.payments.GetSuccessByPaymentID(s.ctx, "pay_once")
	s.Require().NoError(err)
	s.Nil(missing)

	paid := created.Clone()
	s.Require().NoError(paid.MarkPaid(0, time.Now()))
	saved, err := s.orders.SaveWithPayment(s.ctx, paid, s.successRecord(created.ID, 0, "pay_once"))
	s.Require().NoError(err)

	found, err := s.payments.GetSuccessByPaymentID(s.ctx, "pay_once")
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(0, found.ScheduleIndex)

	// Same gateway payment for the next installment rolls back the order update
	next := saved.Clone()
	s.Require().NoError(next.MarkPaid(1, time.Now()))
	_, err = s.orders.SaveWithPayment(s.ctx, next, s.successRecord(created.ID, 1, "pay_once"))
	s.ErrorIs(err, domain.ErrPaymentReused)
	s.ErrorIs(err, domain.ErrDuplicatePayment)

	current, err := s.orders.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(domain.InstallmentStatusDue, current.Schedule[1].Status)

	// Failed attempts and records without a payment ID are not constrained
	failed := s.successRecord(created.ID, 1, "pay_once")
	failed.Status = domain.PaymentRecordStatusFailed
	_, err = s.payments.Append(s.ctx, failed)
	s.Require().NoError(err)
	_, err = s.payments.Append(s.ctx, s.successRecord(created.ID, 1, ""))
	s.Require().NoError(err)
}

func (s *EmiRepositorySuite) TestPlans() {
	_, err := s.plans.GetByProductID(s.ctx, "prod-1")
	s.ErrorIs(err, domain.ErrEmiPlanNotFound)

	plan := &domain.EmiPlan{
		ProductID: "prod-1",
		Options: []domain.EmiPlanOption{
			{TenureMonths: 6, AnnualInterestRate: decimal.RequireFromString("12")},
		},
	}
	_, err = s.plans.Upsert(s.ctx, plan)
	s.Require().NoError(err)

	plan.Options = append(plan.Options, domain.EmiPlanOption{TenureMonths: 12, AnnualInterestRate: decimal.RequireFromString("14.5")})
	_, err = s.plans.Upsert(s.ctx, plan)
	s.Require().NoError(err)

	got, err := s.plans.GetByProductID(s.ctx, "prod-1")
	s.Require().NoError(err)
	s.Require().Len(got.Options, 2)
	s.True(got.Offers(12, decimal.RequireFromString("14.5")))
}

func TestToPgx5URL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@localhost:5432/db?sslmode=disable", toPgx5URL("postgres://u:p@localhost:5432/db?sslmode=disable"))
	assert.Equal(t, "pgx5://u@host/db", toPgx5URL("postgresql://u@host/db"))
	assert.Equal(t, "pgx5://already", toPgx5URL("pgx5://already"))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)
	assert.Len(t, entries, 6)
}
