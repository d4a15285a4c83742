package models

import "time"

// Slot is the atomic bookable unit: one (shop, date, startTime) window.
// bookedCount is owned by the booking engine and only ever changed by
// its conditional updates; capacity may be retuned by the generator for
// future slots without touching bookedCount. Slots are never deleted.
type Slot struct {
	ID            string    `json:"id" bson:"_id"`
	TenantID      string    `json:"tenantId" bson:"tenantId"`
	ShopID        string    `json:"shopId" bson:"shopId"`
	Date          string    `json:"date" bson:"date"`           // "2006-01-02"
	StartTime     string    `json:"startTime" bson:"startTime"` // "09:00"
	EndTime       string    `json:"endTime" bson:"endTime"`
	Capacity      int       `json:"capacity" bson:"capacity"`
	MaxCapacity   int       `json:"maxCapacity" bson:"maxCapacity"`
	BookedCount   int       `json:"bookedCount" bson:"bookedCount"`
	Status        string    `json:"status" bson:"status"` // available, blocked, full
	BlockedBy     string    `json:"blockedBy,omitempty" bson:"blockedBy,omitempty"`
	BlockedReason string    `json:"blockedReason,omitempty" bson:"blockedReason,omitempty"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

// StartsAt resolves the slot's date and start time to an instant.
func (s *Slot) StartsAt() (time.Time, error) {
	return time.Parse("2006-01-02 15:04", s.Date+" "+s.StartTime)
}
