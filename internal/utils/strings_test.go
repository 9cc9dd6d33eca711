package utils

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"0300-1234567", "+923001234567"},
		{"0092 300 1234567", "+923001234567"},
		{"+92 (300) 123-4567", "+923001234567"},
		{"+1 415 555 0100", "+14155550100"},
		{"042 3576 1234", "04235761234"},
	}
	for _, tt := range tests {
		if got := NormalizePhone(tt.in); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"03001234567", true},
		{"+923001234567", true},
		{"12345", false},
		{"+1234567890123456", false},
		{"call me", false},
	}
	for _, tt := range tests {
		if got := IsValidPhone(tt.in); got != tt.want {
			t.Errorf("IsValidPhone(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"guest@example.com", true},
		{"  Guest@Example.COM ", true},
		{"guest@example", false},
		{"guest@.com", false},
		{"@example.com", false},
		{"a@b@example.com", false},
		{"guest name@example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidEmail(tt.in); got != tt.want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMaskPhone(t *testing.T) {
	if got := MaskPhone("0300-1234567"); got != "*********4567" {
		t.Fatalf("got %q", got)
	}
	if got := MaskPhone("123"); got != "123" {
		t.Fatalf("got %q", got)
	}
}
