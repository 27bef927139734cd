package scraper

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{name: "brazilian grouped with symbol", in: "R$ 1.234,56", want: "1234.56", ok: true},
		{name: "comma decimal", in: "39,60", want: "39.60", ok: true},
		{name: "comma decimal with symbol", in: "R$80,99", want: "80.99", ok: true},
		{name: "canonical decimal is idempotent", in: "39.60", want: "39.60", ok: true},
		{name: "us grouped", in: "1,234.56", want: "1234.56", ok: true},
		{name: "mangled decimal short integer part", in: "39.600", want: "39.60", ok: true},
		{name: "thousands dot long integer part", in: "1234.567", want: "1234567", ok: true},
		{name: "plain integer", in: "42", want: "42", ok: true},
		{name: "large brazilian grouped", in: "R$ 12.345.678,90", want: "12345678.90", ok: true},
		{name: "surrounding text", in: "por apenas R$ 9,90 no pix", want: "9.90", ok: true},
		{name: "single fraction digit", in: "9.9", want: "9.9", ok: true},
		{name: "empty", in: "", ok: false},
		{name: "no digits", in: "indisponível", ok: false},
		{name: "separators only", in: "R$ ,.", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePrice(tt.in)
			if ok != tt.ok {
				t.Fatalf("ParsePrice(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if !ok {
				return
			}
			if !got.Equal(d(tt.want)) {
				t.Errorf("ParsePrice(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestPriceRangePlausible(t *testing.T) {
	r := PriceRange{Min: d("0.01"), Max: d("100000")}

	if !r.Plausible(d("39.60")) {
		t.Error("ordinary price must be plausible")
	}
	if r.Plausible(d("0.01")) {
		t.Error("lower bound is exclusive")
	}
	if r.Plausible(d("100000")) {
		t.Error("upper bound is exclusive")
	}
	if r.Plausible(d("250000")) {
		t.Error("value above range must be rejected")
	}
}

func TestCorrectMinorUnits(t *testing.T) {
	r := PriceRange{Min: d("0.01"), Max: d("100000")}

	// 3960 cents-style values below the threshold stay untouched.
	if got := r.CorrectMinorUnits(d("3960")); !got.Equal(d("3960")) {
		t.Errorf("below threshold: got %s", got)
	}

	// 1990000 reads as R$ 19900.00 in cents.
	if got := r.CorrectMinorUnits(d("1990000")); !got.Equal(d("19900")) {
		t.Errorf("cents correction: got %s, want 19900", got)
	}

	// Division that still lands outside the range is not applied.
	if got := r.CorrectMinorUnits(d("99000000")); !got.Equal(d("99000000")) {
		t.Errorf("implausible quotient: got %s", got)
	}
}
