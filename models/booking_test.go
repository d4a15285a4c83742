package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

// The staff booking list filters on {shopId, slotDate}, so the booking
// document must actually carry the slot's date.
func TestBookingDocumentCarriesSlotDate(t *testing.T) {
	raw, err := bson.Marshal(Booking{ID: "b1", ShopID: "shop1", SlotID: "s1", SlotDate: "2025-06-01"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc["slotDate"] != "2025-06-01" {
		t.Fatalf("slotDate = %v, want 2025-06-01", doc["slotDate"])
	}
}
