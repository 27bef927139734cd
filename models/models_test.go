package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestUpdateBounds(t *testing.T) {
	// First observation seeds both bounds.
	b := UpdateBounds(Bounds{}, d("39.60"))
	if !b.Lowest.Valid || !b.Lowest.Decimal.Equal(d("39.60")) {
		t.Fatalf("seed lowest = %+v", b.Lowest)
	}
	if !b.Highest.Valid || !b.Highest.Decimal.Equal(d("39.60")) {
		t.Fatalf("seed highest = %+v", b.Highest)
	}

	// A lower price moves only the lower bound.
	b = UpdateBounds(b, d("35.00"))
	if !b.Lowest.Decimal.Equal(d("35.00")) {
		t.Errorf("lowest = %s, want 35.00", b.Lowest.Decimal)
	}
	if !b.Highest.Decimal.Equal(d("39.60")) {
		t.Errorf("highest = %s, want 39.60", b.Highest.Decimal)
	}

	// A higher price moves only the upper bound.
	b = UpdateBounds(b, d("42.90"))
	if !b.Lowest.Decimal.Equal(d("35.00")) {
		t.Errorf("lowest = %s, want 35.00", b.Lowest.Decimal)
	}
	if !b.Highest.Decimal.Equal(d("42.90")) {
		t.Errorf("highest = %s, want 42.90", b.Highest.Decimal)
	}

	// A price inside the bounds changes nothing.
	b = UpdateBounds(b, d("38.00"))
	if !b.Lowest.Decimal.Equal(d("35.00")) || !b.Highest.Decimal.Equal(d("42.90")) {
		t.Errorf("bounds moved on in-range price: %s..%s", b.Lowest.Decimal, b.Highest.Decimal)
	}
}

func TestUpdateBoundsIsPure(t *testing.T) {
	old := Bounds{
		Lowest:  decimal.NewNullDecimal(d("10.00")),
		Highest: decimal.NewNullDecimal(d("20.00")),
	}
	_ = UpdateBounds(old, d("5.00"))
	if !old.Lowest.Decimal.Equal(d("10.00")) || !old.Highest.Decimal.Equal(d("20.00")) {
		t.Error("UpdateBounds mutated its input")
	}
}

func TestProductAtTarget(t *testing.T) {
	p := Product{TargetPrice: d("50.00")}
	if p.AtTarget() {
		t.Error("product without a current price cannot be at target")
	}
	p.CurrentPrice = decimal.NewNullDecimal(d("50.00"))
	if !p.AtTarget() {
		t.Error("price equal to target counts as at target")
	}
	p.CurrentPrice = decimal.NewNullDecimal(d("50.01"))
	if p.AtTarget() {
		t.Error("price above target is not at target")
	}
}
