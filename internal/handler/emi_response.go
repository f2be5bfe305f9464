package handler

import (
	"strconv"
	"time"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/Surya12v/project-s/emi-backend/internal/service"
	"github.com/Surya12v/project-s/emi-backend/internal/util"
	"github.com/labstack/echo/v4"
)

// InstallmentResponse represents one schedule line in API responses
type InstallmentResponse struct {
	Index           int     `json:"index"`
	DueDate         string  `json:"dueDate"`
	Amount          string  `json:"amount"`
	PenaltyAmount   string  `json:"penaltyAmount"`
	AmountDue       string  `json:"amountDue"`
	Status          string  `json:"status"`
	GracePeriodDays int     `json:"gracePeriodDays"`
	PaidAt          *string `json:"paidAt,omitempty"`
}

// EmiOrderResponse represents an EMI order in API responses
type EmiOrderResponse struct {
	ID                 string                `json:"id"`
	UserID             string                `json:"userId"`
	OrderID            string                `json:"orderId"`
	ProductID          string                `json:"productId"`
	Principal          string                `json:"principal"`
	TenureMonths       int32                 `json:"tenureMonths"`
	AnnualInterestRate string                `json:"annualInterestRate"`
	MonthlyAmount      string                `json:"monthlyAmount"`
	TotalAmount        string                `json:"totalAmount"`
	TotalPenalties     string                `json:"totalPenalties"`
	OutstandingAmount  string                `json:"outstandingAmount"`
	PaidCount          int                   `json:"paidCount"`
	Status             string                `json:"status"`
	AutoPayEnabled     bool                  `json:"autoPayEnabled"`
	Schedule           []InstallmentResponse `json:"schedule"`
	Version            int32                 `json:"version"`
	CreatedAt          string                `json:"createdAt"`
	UpdatedAt          string                `json:"updatedAt"`
}

// PaymentRecordResponse represents a ledger entry in API responses
type PaymentRecordResponse struct {
	ID             string `json:"id"`
	EmiOrderID     string `json:"emiOrderId"`
	ScheduleIndex  int    `json:"scheduleIndex"`
	Amount         string `json:"amount"`
	Status         string `json:"status"`
	Actor          string `json:"actor"`
	PaymentID      string `json:"paymentId,omitempty"`
	GatewayOrderID string `json:"gatewayOrderId,omitempty"`
	Source         string `json:"source,omitempty"`
	Method         string `json:"method,omitempty"`
	FailureReason  string `json:"failureReason,omitempty"`
	PaidAt         string `json:"paidAt"`
	CreatedAt      string `json:"createdAt"`
}

// PaymentResultResponse is returned after settling an installment
type PaymentResultResponse struct {
	Order       EmiOrderResponse       `json:"order"`
	Payment     *PaymentRecordResponse `json:"payment,omitempty"`
	AlreadyPaid bool                   `json:"alreadyPaid"`
}

func toInstallmentResponses(schedule []domain.Installment) []InstallmentResponse {
	result := make([]InstallmentResponse, len(schedule))
	for i, inst := range schedule {
		result[i] = InstallmentResponse{
			Index:           i,
			DueDate:         inst.DueDate.Format(util.DateLayout),
			Amount:          inst.Amount.StringFixed(2),
			PenaltyAmount:   inst.PenaltyAmount.StringFixed(2),
			AmountDue:       inst.AmountDue().StringFixed(2),
			Status:          string(inst.Status),
			GracePeriodDays: inst.GracePeriodDays,
		}
		if inst.PaidAt != nil {
			paidAt := inst.PaidAt.Format(time.RFC3339)
			result[i].PaidAt = &paidAt
		}
	}
	return result
}

func toEmiOrderResponse(order *domain.EmiOrder) EmiOrderResponse {
	return EmiOrderResponse{
		ID:                 order.ID.String(),
		UserID:             order.UserID,
		OrderID:            order.OrderID,
		ProductID:          order.ProductID,
		Principal:          order.Principal.StringFixed(2),
		TenureMonths:       order.TenureMonths,
		AnnualInterestRate: order.AnnualInterestRate.String(),
		MonthlyAmount:      order.MonthlyAmount.StringFixed(2),
		TotalAmount:        order.TotalAmount.StringFixed(2),
		TotalPenalties:     order.TotalPenalties().StringFixed(2),
		OutstandingAmount:  order.OutstandingAmount().StringFixed(2),
		PaidCount:          order.PaidCount(),
		Status:             string(order.Status),
		AutoPayEnabled:     order.HasAutoPay(),
		Schedule:           toInstallmentResponses(order.Schedule),
		Version:            order.Version,
		CreatedAt:          order.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          order.UpdatedAt.Format(time.RFC3339),
	}
}

func toEmiOrderResponses(orders []*domain.EmiOrder) []EmiOrderResponse {
	result := make([]EmiOrderResponse, len(orders))
	for i, order := range orders {
		result[i] = toEmiOrderResponse(order)
	}
	return result
}

func toPaymentRecordResponse(record *domain.EmiPaymentRecord) PaymentRecordResponse {
	return PaymentRecordResponse{
		ID:             record.ID.String(),
		EmiOrderID:     record.EmiOrderID.String(),
		ScheduleIndex:  record.ScheduleIndex,
		Amount:         record.Amount.StringFixed(2),
		Status:         string(record.Status),
		Actor:          string(record.Actor),
		PaymentID:      record.GatewayDetails.PaymentID,
		GatewayOrderID: record.GatewayDetails.GatewayOrderID,
		Source:         string(record.GatewayDetails.Source),
		Method:         record.GatewayDetails.Method,
		FailureReason:  record.GatewayDetails.FailureReason,
		PaidAt:         record.PaidAt.Format(time.RFC3339),
		CreatedAt:      record.CreatedAt.Format(time.RFC3339),
	}
}

func toPaymentResultResponse(result *service.ReconcileResult) PaymentResultResponse {
	resp := PaymentResultResponse{
		Order:       toEmiOrderResponse(result.Order),
		AlreadyPaid: result.AlreadyPaid,
	}
	if result.Record != nil {
		record := toPaymentRecordResponse(result.Record)
		resp.Payment = &record
	}
	return resp
}

// invalidEmiOrderID responds to a malformed :id path parameter
func invalidEmiOrderID(c echo.Context) error {
	return NewValidationError(c, "Invalid EMI order ID", []ValidationError{
		{Field: "id", Message: "Must be a valid UUID"},
	})
}

// parseInstallmentIndex reads the zero-based :index path parameter. Range
// checks happen against the schedule in the service.
func parseInstallmentIndex(c echo.Context) (int, error) {
	return strconv.Atoi(c.Param("index"))
}

// invalidInstallmentIndex responds to a malformed :index path parameter
func invalidInstallmentIndex(c echo.Context) error {
	return NewValidationError(c, "Invalid installment index", []ValidationError{
		{Field: "index", Message: "Must be an integer"},
	})
}

// bindAndValidate decodes the body and runs struct validation. When ok is
// false the problem response has already been written and err is its result.
func bindAndValidate(c echo.Context, req interface{}) (ok bool, err error) {
	if err := c.Bind(req); err != nil {
		return false, NewValidationError(c, "Invalid request body", nil)
	}
	if err := c.Validate(req); err != nil {
		return false, NewValidationError(c, "Validation failed", validationErrors(err))
	}
	return true, nil
}
