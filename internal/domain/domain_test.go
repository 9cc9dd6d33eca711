package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestIDAcceptsNumbersAndStrings(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ID
	}{
		{"integer", `{"id": 17}`, "17"},
		{"stringified integer", `{"id": "17"}`, "17"},
		{"uuid", `{"id": "2b0d7b3e-5f51-4a8e-9d3e-0d4b7e0b1c2a"}`, "2b0d7b3e-5f51-4a8e-9d3e-0d4b7e0b1c2a"},
		{"null", `{"id": null}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v struct {
				ID ID `json:"id"`
			}
			if err := json.Unmarshal([]byte(tt.in), &v); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if v.ID != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, v.ID)
			}
		})
	}

	var bad struct {
		ID ID `json:"id"`
	}
	if err := json.Unmarshal([]byte(`{"id": {"nested": true}}`), &bad); err == nil {
		t.Fatal("object id should be rejected")
	}
}

func TestIDMarshalsIntegersAsNumbers(t *testing.T) {
	b, _ := json.Marshal(ID("42"))
	if string(b) != `42` {
		t.Fatalf("expected bare number, got %s", b)
	}
	b, _ = json.Marshal(ID("007"))
	if string(b) != `"007"` {
		t.Fatalf("leading zeros must stay a string, got %s", b)
	}
	b, _ = json.Marshal(ID("abc"))
	if string(b) != `"abc"` {
		t.Fatalf("expected quoted string, got %s", b)
	}
}

func TestDateJSONAndArithmetic(t *testing.T) {
	in := NewDate(2024, time.January, 1)
	out := NewDate(2024, time.January, 4)

	if in.DaysUntil(out) != 3 {
		t.Fatalf("expected 3 days, got %d", in.DaysUntil(out))
	}
	if out.DaysUntil(in) != -3 {
		t.Fatalf("expected -3 days, got %d", out.DaysUntil(in))
	}

	// Across a DST change in local zones the arithmetic must still be exact.
	march := NewDate(2024, time.March, 9)
	if march.DaysUntil(march.AddDays(2)) != 2 {
		t.Fatal("AddDays/DaysUntil disagree")
	}

	b, _ := json.Marshal(in)
	if string(b) != `"2024-01-01"` {
		t.Fatalf("unexpected encoding %s", b)
	}

	var d Date
	if err := json.Unmarshal([]byte(`"2024-02-29"`), &d); err != nil {
		t.Fatal(err)
	}
	if d.String() != "2024-02-29" {
		t.Fatalf("unexpected date %s", d)
	}

	if err := json.Unmarshal([]byte(`"29/02/2024"`), &d); err == nil {
		t.Fatal("non-ISO date should fail")
	}
}

func TestPageDecodesPaginatedAndBareLists(t *testing.T) {
	var paged Page[Booking]
	err := json.Unmarshal([]byte(`{"count": 3, "next": "http://x/?page=2", "previous": null,
		"results": [{"id": 1, "status": "pending", "total_price": "31500.00"}]}`), &paged)
	if err != nil {
		t.Fatal(err)
	}
	if paged.Count != 3 || len(paged.Results) != 1 || !paged.HasNext() {
		t.Fatalf("unexpected page %+v", paged)
	}
	if !paged.Results[0].TotalPrice.Equal(decimal.NewFromInt(31500)) {
		t.Fatalf("decimal string not decoded: %s", paged.Results[0].TotalPrice)
	}

	var bare Page[Booking]
	if err := json.Unmarshal([]byte(`[{"id": 1}, {"id": 2}]`), &bare); err != nil {
		t.Fatal(err)
	}
	if bare.Count != 2 || bare.HasNext() {
		t.Fatalf("unexpected bare page %+v", bare)
	}

	var empty Page[Booking]
	if err := json.Unmarshal([]byte(`{"count": 0}`), &empty); err != nil {
		t.Fatal(err)
	}
	if empty.Results == nil {
		t.Fatal("results should be an empty slice, not nil")
	}
}

func TestBookingActions(t *testing.T) {
	tests := []struct {
		status   BookingStatus
		payment  PaymentStatus
		cancel   bool
		pay      bool
		complete bool
	}{
		{BookingPending, PaymentUnpaid, true, true, false},
		{BookingConfirmed, PaymentPaid, true, false, true},
		{BookingConfirmed, PaymentFailed, true, true, true},
		{BookingCancelled, PaymentUnpaid, false, false, false},
		{BookingCompleted, PaymentPaid, false, false, false},
		{BookingRefunded, PaymentRefunded, false, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status)+"/"+string(tt.payment), func(t *testing.T) {
			b := Booking{Status: tt.status, PaymentStatus: tt.payment}
			if b.CanCancel() != tt.cancel {
				t.Errorf("CanCancel = %v", b.CanCancel())
			}
			if b.CanPay() != tt.pay {
				t.Errorf("CanPay = %v", b.CanPay())
			}
			if b.CanComplete() != tt.complete {
				t.Errorf("CanComplete = %v", b.CanComplete())
			}
		})
	}
}

func TestPaymentRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  PaymentRequest
		want error
	}{
		{"card ok", PaymentRequest{Method: MethodCreditCard, CardNumber: "4242 4242 4242 4242", ExpiryDate: "12/30", CVV: "123", CardholderName: "A B"}, nil},
		{"card missing cvv", PaymentRequest{Method: MethodCreditCard, CardNumber: "4242", ExpiryDate: "12/30", CardholderName: "A B"}, ErrMissingCardDetails},
		{"bank ok", PaymentRequest{Method: MethodBankTransfer, BankAccount: "PK00", TransactionID: "T1"}, nil},
		{"bank missing tx", PaymentRequest{Method: MethodBankTransfer, BankAccount: "PK00"}, ErrMissingBankDetails},
		{"wallet ok", PaymentRequest{Method: MethodJazzCash, PhoneNumber: "+923001234567"}, nil},
		{"wallet missing phone", PaymentRequest{Method: MethodEasyPaisa}, ErrMissingWalletPhone},
		{"unknown", PaymentRequest{Method: "bitcoin"}, ErrUnknownPaymentMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestPaymentRequestMasked(t *testing.T) {
	req := PaymentRequest{Method: MethodCreditCard, CardNumber: "4242 4242 4242 1234", CVV: "999"}
	m := req.Masked()
	if m.CardNumber != "************1234" || m.CVV != "***" {
		t.Fatalf("unexpected mask %+v", m)
	}
	if req.CVV != "999" {
		t.Fatal("Masked must not modify the original")
	}
}
