package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Surya12v/project-s/emi-backend/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	// DefaultBaseURL is the gateway REST API root
	DefaultBaseURL = "https://api.razorpay.com/v1"

	// DefaultCurrency is charged when none is configured
	DefaultCurrency = "INR"

	// PaymentStatusCaptured is the only status that settles an installment
	PaymentStatusCaptured = "captured"
)

var (
	ErrMissingCredentials = errors.New("gateway: key id and key secret are required")
	ErrMissingWebhookKey  = errors.New("gateway: webhook secret is required")
	ErrSignatureMismatch  = errors.New("gateway: signature mismatch")
	ErrNotCaptured        = errors.New("gateway: payment not captured")
	ErrUnsupportedSource  = errors.New("gateway: unsupported confirmation source")
	ErrIncompleteEvidence = errors.New("gateway: confirmation is missing required fields")
	ErrRequestFailed      = errors.New("gateway: request failed")
	ErrUnavailable        = errors.New("gateway: unavailable")
	ErrAmountMismatch     = errors.New("gateway: captured amount does not match amount due")
	ErrWrongInstallment   = errors.New("gateway: payment is not for this installment")
)

// Payment note keys that tie a gateway payment to one installment. Checkout
// orders are created with the same notes.
const (
	NoteEmiOrderID       = "emi_order_id"
	NoteInstallmentIndex = "installment_index"
	NoteUserID           = "user_id"
)

// Config holds gateway credentials and endpoint settings
type Config struct {
	BaseURL       string
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Currency      string
	Timeout       time.Duration
}

// Validate checks that the credentials needed for every operation are present
func (c *Config) Validate() error {
	if c.KeyID == "" || c.KeySecret == "" {
		return ErrMissingCredentials
	}
	if c.WebhookSecret == "" {
		return ErrMissingWebhookKey
	}
	return nil
}

// Payment is the gateway's payment entity. Amount is in minor units.
type Payment struct {
	ID               string            `json:"id"`
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	Status           string            `json:"status"`
	OrderID          string            `json:"order_id"`
	Method           string            `json:"method"`
	CreatedAt        int64             `json:"created_at"`
	ErrorDescription string            `json:"error_description"`
	Notes            map[string]string `json:"notes"`
}

type recurringChargeRequest struct {
	Token    string            `json:"token"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Notes    map[string]string `json:"notes"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// Client talks to the payment gateway REST API and verifies its signatures
type Client struct {
	config     Config
	httpClient *http.Client
}

// Ensure Client implements domain.GatewayClient
var _ domain.GatewayClient = (*Client)(nil)

// NewClient creates a new gateway client
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Currency == "" {
		config.Currency = DefaultCurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// VerifySignature checks a webhook body against its hex HMAC-SHA256 signature
func (c *Client) VerifySignature(payload []byte, signature string) bool {
	return verifyHMAC(c.config.WebhookSecret, payload, signature)
}

// VerifyConfirmation authenticates a confirmation according to where it came from.
// Checkout and auto-charge payments are fetched from the gateway and must be
// captured, for exactly the amount due, against the installment in due.Ref.
func (c *Client) VerifyConfirmation(ctx context.Context, confirmation domain.GatewayConfirmation, due domain.PaymentDue) error {
	switch confirmation.Source {
	case domain.ConfirmationSourceCheckout:
		if confirmation.PaymentID == "" || confirmation.GatewayOrderID == "" || confirmation.Signature == "" {
			return ErrIncompleteEvidence
		}
		if !verifyHMAC(c.config.KeySecret, []byte(confirmation.GatewayOrderID+"|"+confirmation.PaymentID), confirmation.Signature) {
			return ErrSignatureMismatch
		}
		return c.verifyCapture(ctx, confirmation, due)

	case domain.ConfirmationSourceWebhook:
		if !c.VerifySignature(confirmation.RawPayload, confirmation.Signature) {
			return ErrSignatureMismatch
		}
		return nil

	case domain.ConfirmationSourceAutoCharge:
		if confirmation.PaymentID == "" {
			return ErrIncompleteEvidence
		}
		return c.verifyCapture(ctx, confirmation, due)

	case domain.ConfirmationSourceManual:
		if confirmation.PaymentID == "" || !confirmation.Amount.IsPositive() {
			return ErrIncompleteEvidence
		}
		return nil
	}

	return fmt.Errorf("%w: %q", ErrUnsupportedSource, confirmation.Source)
}

// verifyCapture checks the gateway's own record of the payment
func (c *Client) verifyCapture(ctx context.Context, confirmation domain.GatewayConfirmation, due domain.PaymentDue) error {
	payment, err := c.FetchPayment(ctx, confirmation.PaymentID)
	if err != nil {
		return err
	}
	if payment.Status != PaymentStatusCaptured {
		return fmt.Errorf("%w: status %s", ErrNotCaptured, payment.Status)
	}
	if confirmation.GatewayOrderID != "" && payment.OrderID != confirmation.GatewayOrderID {
		return fmt.Errorf("%w: payment belongs to gateway order %q", ErrWrongInstallment, payment.OrderID)
	}
	if payment.Amount != toMinorUnits(due.Amount) {
		return fmt.Errorf("%w: captured %d, due %d", ErrAmountMismatch, payment.Amount, toMinorUnits(due.Amount))
	}
	if confirmation.Amount.IsPositive() && toMinorUnits(confirmation.Amount) != payment.Amount {
		return fmt.Errorf("%w: confirmation claims %s", ErrAmountMismatch, confirmation.Amount.StringFixed(2))
	}
	if payment.Notes[NoteEmiOrderID] != due.Ref.EmiOrderID.String() ||
		payment.Notes[NoteInstallmentIndex] != strconv.Itoa(due.Ref.ScheduleIndex) {
		return fmt.Errorf("%w: payment notes reference %q/%q", ErrWrongInstallment,
			payment.Notes[NoteEmiOrderID], payment.Notes[NoteInstallmentIndex])
	}
	return nil
}

// FetchPayment retrieves a payment by its gateway ID
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*Payment, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/payments/"+paymentID, nil, nil)
	if err != nil {
		return nil, err
	}

	var payment Payment
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, fmt.Errorf("gateway: failed to decode payment: %w", err)
	}
	return &payment, nil
}

// ChargeStoredInstrument captures amount from a saved instrument. The request
// carries an idempotency key per installment so a retried charge is not taken twice.
func (c *Client) ChargeStoredInstrument(ctx context.Context, token string, amount decimal.Decimal, ref domain.ChargeReference) (*domain.GatewayConfirmation, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing instrument token", domain.ErrGatewayCharge)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrGatewayCharge)
	}

	payload, err := json.Marshal(recurringChargeRequest{
		Token:    token,
		Amount:   toMinorUnits(amount),
		Currency: c.config.Currency,
		Notes: map[string]string{
			NoteEmiOrderID:       ref.EmiOrderID.String(),
			NoteInstallmentIndex: strconv.Itoa(ref.ScheduleIndex),
			NoteUserID:           ref.UserID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gateway: failed to encode charge: %w", err)
	}

	headers := map[string]string{"Idempotency-Key": IdempotencyKey(ref)}
	body, err := c.doRequest(ctx, http.MethodPost, "/payments/recurring", payload, headers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayCharge, err)
	}

	var payment Payment
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, fmt.Errorf("%w: failed to decode charge response: %v", domain.ErrGatewayCharge, err)
	}
	if payment.Status != PaymentStatusCaptured {
		reason := payment.ErrorDescription
		if reason == "" {
			reason = "status " + payment.Status
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrGatewayCharge, reason)
	}

	capturedAt := time.Now().UTC()
	if payment.CreatedAt > 0 {
		capturedAt = time.Unix(payment.CreatedAt, 0).UTC()
	}

	return &domain.GatewayConfirmation{
		PaymentID:      payment.ID,
		GatewayOrderID: payment.OrderID,
		Amount:         decimal.New(payment.Amount, -2),
		CapturedAt:     capturedAt,
		Method:         payment.Method,
		Source:         domain.ConfirmationSourceAutoCharge,
		RawPayload:     body,
	}, nil
}

// IdempotencyKey is the per-installment key sent with auto-charges
func IdempotencyKey(ref domain.ChargeReference) string {
	return fmt.Sprintf("emi_%s_%d", ref.EmiOrderID, ref.ScheduleIndex)
}

// SignCheckout returns the checkout signature for a gateway order and payment.
// The gateway computes the same value client-side; exposed for tests and tooling.
func SignCheckout(keySecret, gatewayOrderID, paymentID string) string {
	return sign(keySecret, []byte(gatewayOrderID+"|"+paymentID))
}

// SignWebhook returns the webhook signature for a body
func SignWebhook(webhookSecret string, payload []byte) string {
	return sign(webhookSecret, payload)
}

// doRequest performs an authenticated request against the gateway API
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte, headers map[string]string) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("gateway: failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.SetBasicAuth(c.config.KeyID, c.config.KeySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("gateway: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp errorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return nil, fmt.Errorf("%w: %s - %s", ErrRequestFailed, errResp.Error.Code, errResp.Error.Description)
		}
		return nil, fmt.Errorf("%w: HTTP %d", ErrRequestFailed, resp.StatusCode)
	}

	return respBody, nil
}

func sign(secret string, message []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

func verifyHMAC(secret string, message []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return hmac.Equal(got, mac.Sum(nil))
}

func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
