package models

import "time"

// StaffProfile links a user to a shop. Active staff contribute to slot
// capacity. Profiles are soft-deactivated, never deleted, while
// bookings may still reference them.
type StaffProfile struct {
	ID             string    `json:"id" bson:"_id"`
	TenantID       string    `json:"tenantId" bson:"tenantId"`
	ShopID         string    `json:"shopId" bson:"shopId"`
	UserID         string    `json:"userId" bson:"userId"`
	EmployeeID     string    `json:"employeeId,omitempty" bson:"employeeId,omitempty"`
	Specialization []string  `json:"specialization,omitempty" bson:"specialization,omitempty"`
	HourlyRate     float64   `json:"hourlyRate" bson:"hourlyRate"`
	CommissionRate float64   `json:"commissionRate" bson:"commissionRate"`
	IsActive       bool      `json:"isActive" bson:"isActive"`
	JoinedAt       time.Time `json:"joinedAt" bson:"joinedAt"`
	LeftAt         time.Time `json:"leftAt,omitempty" bson:"leftAt,omitempty"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Service is something a shop offers for booking.
type Service struct {
	ID          string    `json:"id" bson:"_id"`
	TenantID    string    `json:"tenantId" bson:"tenantId"`
	ShopID      string    `json:"shopId" bson:"shopId"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Category    string    `json:"category,omitempty" bson:"category,omitempty"`
	Price       float64   `json:"price" bson:"price"`
	Duration    int       `json:"duration" bson:"duration"` // minutes
	IsActive    bool      `json:"isActive" bson:"isActive"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}
