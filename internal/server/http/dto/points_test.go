package dto

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount(decimal.NewFromFloat(12.5), "")
	if err != nil {
		t.Fatalf("default unit: %v", err)
	}
	if amount.Storage() != 125 {
		t.Fatalf("expected 125 storage units, got %d", amount.Storage())
	}

	amount, err = ParseAmount(decimal.NewFromFloat(12.5), UnitDisplay)
	if err != nil || amount.Storage() != 125 {
		t.Fatalf("display unit: got %v err=%v", amount, err)
	}

	amount, err = ParseAmount(decimal.NewFromInt(125), UnitStorage)
	if err != nil || amount.Storage() != 125 {
		t.Fatalf("storage unit: got %v err=%v", amount, err)
	}

	if _, err := ParseAmount(decimal.NewFromFloat(12.5), UnitStorage); !errors.Is(err, ErrFractionalStorage) {
		t.Fatalf("expected fractional storage error, got %v", err)
	}

	if _, err := ParseAmount(decimal.NewFromInt(1), "cents"); !errors.Is(err, ErrUnknownUnit) {
		t.Fatalf("expected unknown unit error, got %v", err)
	}
}
