package ingest

import (
	"testing"
	"time"

	"github.com/pharmwatch/pharmwatch-backend/pkg/db/models"
)

func sptr(s string) *string { return &s }

func TestMergeProductKeepsExistingOnIncomingNil(t *testing.T) {
	existing := models.Product{
		Barcode:      "111",
		Name:         sptr("Shampoo"),
		Manufacturer: sptr("Acme"),
	}
	incoming := models.Product{
		Barcode: "111",
		Country: sptr("IL"),
	}

	merged := MergeProduct(existing, incoming)
	if merged.Manufacturer == nil || *merged.Manufacturer != "Acme" {
		t.Fatalf("manufacturer regressed: %v", merged.Manufacturer)
	}
	if merged.Name == nil || *merged.Name != "Shampoo" {
		t.Fatalf("name regressed: %v", merged.Name)
	}
	if merged.Country == nil || *merged.Country != "IL" {
		t.Fatalf("new country not applied: %v", merged.Country)
	}
}

func TestMergeProductIncomingWins(t *testing.T) {
	existing := models.Product{Barcode: "111", Name: sptr("old")}
	incoming := models.Product{Barcode: "111", Name: sptr("new")}

	merged := MergeProduct(existing, incoming)
	if *merged.Name != "new" {
		t.Fatalf("name = %q, want new", *merged.Name)
	}
}

func TestMergeStoreChainAndTimestampAlwaysReplaced(t *testing.T) {
	old := time.Date(2025, 8, 27, 7, 0, 0, 0, time.UTC)
	now := time.Date(2025, 8, 28, 7, 0, 0, 0, time.UTC)
	existing := models.Store{StoreID: "072", ChainID: sptr("c1"), Name: sptr("Main St"), LastSeenAt: old}
	incoming := models.Store{StoreID: "072", ChainID: sptr("c2"), LastSeenAt: now}

	merged := MergeStore(existing, incoming)
	if *merged.ChainID != "c2" {
		t.Fatalf("chain id = %q", *merged.ChainID)
	}
	if !merged.LastSeenAt.Equal(now) {
		t.Fatalf("last seen = %v", merged.LastSeenAt)
	}
	if merged.Name == nil || *merged.Name != "Main St" {
		t.Fatalf("name regressed: %v", merged.Name)
	}
}
