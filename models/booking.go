package models

import "time"

// Booking references a slot, a customer and a service, optionally a
// staff member. Status transitions run through the booking engine only;
// bookings are never deleted, only moved to a terminal status.
type Booking struct {
	ID          string `json:"id" bson:"_id"`
	TenantID    string `json:"tenantId" bson:"tenantId"`
	ShopID      string `json:"shopId" bson:"shopId"`
	SlotID      string `json:"slotId" bson:"slotId"`
	SlotDate    string `json:"slotDate" bson:"slotDate"` // "2006-01-02", denormalized for day queries
	CustomerID  string `json:"customerId" bson:"customerId"`
	ServiceID   string `json:"serviceId" bson:"serviceId"`
	StaffID     string `json:"staffId,omitempty" bson:"staffId,omitempty"`
	BookingType string `json:"bookingType" bson:"bookingType"` // online, walkin
	Status      string `json:"status" bson:"status"`

	OriginalPrice float64 `json:"originalPrice" bson:"originalPrice"`
	FinalPrice    float64 `json:"finalPrice" bson:"finalPrice"`
	PriceEdited   bool    `json:"priceEdited" bson:"priceEdited"`
	EditedBy      string  `json:"editedBy,omitempty" bson:"editedBy,omitempty"`
	EditReason    string  `json:"editReason,omitempty" bson:"editReason,omitempty"`

	ScheduledAt time.Time `json:"scheduledAt" bson:"scheduledAt"`
	ArrivedAt   time.Time `json:"arrivedAt,omitempty" bson:"arrivedAt,omitempty"`
	StartedAt   time.Time `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	CompletedAt time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	CancelledAt time.Time `json:"cancelledAt,omitempty" bson:"cancelledAt,omitempty"`

	CancelledBy        string `json:"cancelledBy,omitempty" bson:"cancelledBy,omitempty"`
	CancellationReason string `json:"cancellationReason,omitempty" bson:"cancellationReason,omitempty"`
	Notes              string `json:"notes,omitempty" bson:"notes,omitempty"`
	Priority           string `json:"priority,omitempty" bson:"priority,omitempty"` // normal, high

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Invoice is generated once when a booking completes.
type Invoice struct {
	ID         string    `json:"id" bson:"_id"`
	TenantID   string    `json:"tenantId" bson:"tenantId"`
	ShopID     string    `json:"shopId" bson:"shopId"`
	BookingID  string    `json:"bookingId" bson:"bookingId"`
	CustomerID string    `json:"customerId" bson:"customerId"`
	Subtotal   float64   `json:"subtotal" bson:"subtotal"`
	TaxRate    float64   `json:"taxRate" bson:"taxRate"`
	Tax        float64   `json:"tax" bson:"tax"`
	Total      float64   `json:"total" bson:"total"`
	Currency   string    `json:"currency" bson:"currency"`
	Status     string    `json:"status" bson:"status"` // pending, paid, cancelled
	PaidAt     time.Time `json:"paidAt,omitempty" bson:"paidAt,omitempty"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" bson:"updatedAt"`
}
