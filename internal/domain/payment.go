package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethodType string

const (
	MethodCreditCard   PaymentMethodType = "credit_card"
	MethodBankTransfer PaymentMethodType = "bank_transfer"
	MethodJazzCash     PaymentMethodType = "jazz_cash"
	MethodEasyPaisa    PaymentMethodType = "easy_paisa"
)

func ParsePaymentMethod(s string) (PaymentMethodType, bool) {
	switch PaymentMethodType(s) {
	case MethodCreditCard, MethodBankTransfer, MethodJazzCash, MethodEasyPaisa:
		return PaymentMethodType(s), true
	default:
		return "", false
	}
}

type PaymentMethod struct {
	ID            string            `json:"id"`
	Type          PaymentMethodType `json:"type"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Icon          string            `json:"icon,omitempty"`
	ProcessingFee decimal.Decimal   `json:"processing_fee"`
	IsActive      bool              `json:"is_active"`
}

// PaymentRequest is submitted to the booking's payment endpoint. Which
// fields are required depends on Method.
type PaymentRequest struct {
	Method         PaymentMethodType `json:"payment_method"`
	CardNumber     string            `json:"card_number,omitempty"`
	ExpiryDate     string            `json:"expiry_date,omitempty"`
	CVV            string            `json:"cvv,omitempty"`
	CardholderName string            `json:"cardholder_name,omitempty"`
	BillingAddress string            `json:"billing_address,omitempty"`
	BankAccount    string            `json:"bank_account,omitempty"`
	TransactionID  string            `json:"transaction_id,omitempty"`
	PhoneNumber    string            `json:"phone_number,omitempty"`
}

var (
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrMissingCardDetails   = errors.New("card number, expiry date, cvv and cardholder name are required")
	ErrMissingBankDetails   = errors.New("bank account and transaction id are required")
	ErrMissingWalletPhone   = errors.New("phone number is required for mobile wallet payments")
)

// Validate checks the per-method required fields before anything is sent.
func (p PaymentRequest) Validate() error {
	switch p.Method {
	case MethodCreditCard:
		if digits(p.CardNumber) == "" || p.ExpiryDate == "" || p.CVV == "" || strings.TrimSpace(p.CardholderName) == "" {
			return ErrMissingCardDetails
		}
	case MethodBankTransfer:
		if p.BankAccount == "" || p.TransactionID == "" {
			return ErrMissingBankDetails
		}
	case MethodJazzCash, MethodEasyPaisa:
		if p.PhoneNumber == "" {
			return ErrMissingWalletPhone
		}
	default:
		return ErrUnknownPaymentMethod
	}
	return nil
}

// Masked returns a copy safe to log.
func (p PaymentRequest) Masked() PaymentRequest {
	out := p
	if d := digits(p.CardNumber); len(d) > 4 {
		out.CardNumber = strings.Repeat("*", len(d)-4) + d[len(d)-4:]
	}
	if out.CVV != "" {
		out.CVV = "***"
	}
	return out
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

type PaymentResult struct {
	Detail        string        `json:"detail"`
	TransactionID string        `json:"transaction_id,omitempty"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty"`
	Booking       *Booking      `json:"booking,omitempty"`
}

type PaymentTransaction struct {
	ID              string           `json:"id"`
	Booking         ID               `json:"booking"`
	Amount          decimal.Decimal  `json:"amount"`
	Currency        string           `json:"currency"`
	PaymentMethod   string           `json:"payment_method"`
	Status          string           `json:"status"`
	TransactionID   string           `json:"transaction_id,omitempty"`
	TransactionDate time.Time        `json:"transaction_date"`
	ProcessingFee   decimal.Decimal  `json:"processing_fee"`
	RefundAmount    *decimal.Decimal `json:"refund_amount,omitempty"`
	RefundDate      *time.Time       `json:"refund_date,omitempty"`
	RefundReason    string           `json:"refund_reason,omitempty"`
}

type TransactionFilter struct {
	Status   string `url:"status,omitempty"`
	Page     int    `url:"page,omitempty"`
	PageSize int    `url:"page_size,omitempty"`
}
