package models

import "time"

// Tenant is a business that owns shops. Tenants live in the platform
// database; their operational data lives in a dedicated tenant database
// resolved through ClientDatabaseMap.
type Tenant struct {
	ID                    string    `json:"id" bson:"_id"`
	Name                  string    `json:"name" bson:"name"`
	Email                 string    `json:"email" bson:"email"`
	Phone                 string    `json:"phone" bson:"phone"`
	Address               Address   `json:"address,omitempty" bson:"address,omitempty"`
	IsActive              bool      `json:"isActive" bson:"isActive"`
	SubscriptionPlan      string    `json:"subscriptionPlan" bson:"subscriptionPlan"` // basic, premium, enterprise
	SubscriptionExpiresAt time.Time `json:"subscriptionExpiresAt,omitempty" bson:"subscriptionExpiresAt,omitempty"`
	MaxShops              int       `json:"maxShops" bson:"maxShops"`
	CreatedAt             time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt" bson:"updatedAt"`
}

type Address struct {
	Street  string `json:"street,omitempty" bson:"street,omitempty"`
	City    string `json:"city,omitempty" bson:"city,omitempty"`
	State   string `json:"state,omitempty" bson:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty" bson:"zipCode,omitempty"`
	Country string `json:"country,omitempty" bson:"country,omitempty"`
}

// ClientDatabaseMap pins a tenant to its database name. Routing reads
// this mapping and nothing else.
type ClientDatabaseMap struct {
	ID           string    `json:"id" bson:"_id"`
	TenantID     string    `json:"tenantId" bson:"tenantId"`
	DatabaseName string    `json:"databaseName" bson:"databaseName"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// SubscriptionPayment records a tenant's subscription payment. Kept in
// the platform database.
type SubscriptionPayment struct {
	ID        string    `json:"id" bson:"_id"`
	TenantID  string    `json:"tenantId" bson:"tenantId"`
	Plan      string    `json:"plan" bson:"plan"`
	Amount    float64   `json:"amount" bson:"amount"`
	Currency  string    `json:"currency" bson:"currency"`
	PaidAt    time.Time `json:"paidAt" bson:"paidAt"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
