package handlers

import (
	"encoding/json"
	"testing"

	"deolho/models"
)

func TestEmptyIfNilMarshalsAsList(t *testing.T) {
	var history []models.PriceObservation
	b, err := json.Marshal(emptyIfNil(history))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "[]" {
		t.Errorf("nil history marshals to %s, want []", b)
	}

	var statistics []*models.PriceStatistics
	b, err = json.Marshal(emptyIfNil(statistics))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "[]" {
		t.Errorf("nil statistics marshals to %s, want []", b)
	}

	deals := []models.DealClassification{{ProductID: 1}}
	if got := emptyIfNil(deals); len(got) != 1 {
		t.Errorf("non-nil slice must pass through, got %d items", len(got))
	}
}
