package models

import (
	"strings"
	"time"
)

// DayHours is one weekday's opening window.
type DayHours struct {
	Start  string `json:"start,omitempty" bson:"start,omitempty"` // "09:00"
	End    string `json:"end,omitempty" bson:"end,omitempty"`     // "18:00"
	IsOpen bool   `json:"isOpen" bson:"isOpen"`
}

// WorkingHours holds the weekly schedule keyed by lowercase weekday
// name ("monday" .. "sunday").
type WorkingHours map[string]DayHours

// ForDay returns the hours for a weekday.
func (w WorkingHours) ForDay(day time.Weekday) (DayHours, bool) {
	h, ok := w[strings.ToLower(day.String())]
	return h, ok
}

// DefaultWorkingHours builds a Monday-to-Saturday schedule with the
// given window; Sunday is closed.
func DefaultWorkingHours(start, end string) WorkingHours {
	hours := WorkingHours{}
	for d := time.Sunday; d <= time.Saturday; d++ {
		hours[strings.ToLower(d.String())] = DayHours{
			Start:  start,
			End:    end,
			IsOpen: d != time.Sunday,
		}
	}
	return hours
}

// Shop belongs to exactly one tenant.
type Shop struct {
	ID           string       `json:"id" bson:"_id"`
	TenantID     string       `json:"tenantId" bson:"tenantId"`
	Name         string       `json:"name" bson:"name"`
	Address      Address      `json:"address,omitempty" bson:"address,omitempty"`
	Phone        string       `json:"phone" bson:"phone"`
	Email        string       `json:"email,omitempty" bson:"email,omitempty"`
	WorkingHours WorkingHours `json:"workingHours" bson:"workingHours"`
	SlotDuration int          `json:"slotDuration" bson:"slotDuration"` // minutes
	IsActive     bool         `json:"isActive" bson:"isActive"`
	CreatedAt    time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// ShopSettings is shop-specific configuration, one document per shop.
type ShopSettings struct {
	ID                     string    `json:"id" bson:"_id"`
	TenantID               string    `json:"tenantId" bson:"tenantId"`
	ShopID                 string    `json:"shopId" bson:"shopId"`
	AllowPriceEditing      bool      `json:"allowPriceEditing" bson:"allowPriceEditing"`
	MaxDiscountPercentage  float64   `json:"maxDiscountPercentage" bson:"maxDiscountPercentage"`
	AutoConfirmBooking     bool      `json:"autoConfirmBooking" bson:"autoConfirmBooking"`
	RequireAdminApproval   bool      `json:"requireAdminApproval" bson:"requireAdminApproval"`
	NoShowTimeoutMinutes   int       `json:"noShowTimeoutMinutes" bson:"noShowTimeoutMinutes"`
	BookingAdvanceDays     int       `json:"bookingAdvanceDays" bson:"bookingAdvanceDays"`
	SendSmsNotifications   bool      `json:"sendSmsNotifications" bson:"sendSmsNotifications"`
	SendEmailNotifications bool      `json:"sendEmailNotifications" bson:"sendEmailNotifications"`
	TaxRate                float64   `json:"taxRate" bson:"taxRate"`
	Currency               string    `json:"currency" bson:"currency"`
	CreatedAt              time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt" bson:"updatedAt"`
}

// DefaultShopSettings returns the settings a new shop starts with.
func DefaultShopSettings(id, tenantID, shopID string, noShowTimeout, advanceDays int, now time.Time) *ShopSettings {
	return &ShopSettings{
		ID:                     id,
		TenantID:               tenantID,
		ShopID:                 shopID,
		AllowPriceEditing:      true,
		MaxDiscountPercentage:  50,
		AutoConfirmBooking:     true,
		RequireAdminApproval:   false,
		NoShowTimeoutMinutes:   noShowTimeout,
		BookingAdvanceDays:     advanceDays,
		SendEmailNotifications: true,
		Currency:               "USD",
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}
