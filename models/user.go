package models

import "time"

// User roles.
const (
	RolePlatformSuperAdmin = "platform_super_admin"
	RoleClientAdmin        = "client_admin"
	RoleStaff              = "staff"
	RoleCustomer           = "customer"
)

// Permission names checked by the RBAC middleware.
const (
	PermManageShops    = "manage_shops"
	PermManageStaff    = "manage_staff"
	PermManageServices = "manage_services"
	PermViewDashboard  = "view_dashboard"
	PermManageSlots    = "manage_slots"
	PermViewInvoices   = "view_invoices"
	PermManageSettings = "manage_settings"

	PermViewBookings    = "view_bookings"
	PermCreateWalkin    = "create_walkin"
	PermEditPrice       = "edit_price"
	PermMarkArrived     = "mark_arrived"
	PermMarkNoShow      = "mark_no_show"
	PermCompleteService = "complete_service"
	PermGenerateInvoice = "generate_invoice"

	PermViewServices       = "view_services"
	PermViewSlots          = "view_slots"
	PermBookSlot           = "book_slot"
	PermViewBookingHistory = "view_booking_history"
	PermCancelBooking      = "cancel_booking"
)

// RolePermissions maps each role to the permissions it grants. The
// platform super admin bypasses the table entirely.
var RolePermissions = map[string][]string{
	RoleClientAdmin: {
		PermManageShops, PermManageStaff, PermManageServices, PermViewDashboard,
		PermManageSlots, PermViewInvoices, PermManageSettings,
		PermViewBookings, PermCreateWalkin, PermEditPrice, PermMarkArrived,
		PermMarkNoShow, PermCompleteService, PermGenerateInvoice,
	},
	RoleStaff: {
		PermViewBookings, PermCreateWalkin, PermEditPrice, PermMarkArrived,
		PermMarkNoShow, PermCompleteService, PermGenerateInvoice, PermViewSlots,
	},
	RoleCustomer: {
		PermViewServices, PermViewSlots, PermBookSlot,
		PermViewBookingHistory, PermCancelBooking,
	},
}

// HasPermission reports whether a role grants a permission.
func HasPermission(role, permission string) bool {
	if role == RolePlatformSuperAdmin {
		return true
	}
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// User is an account. Platform super admins live in the platform
// database; everyone else lives in their tenant's database.
type User struct {
	ID            string    `json:"id" bson:"_id"`
	TenantID      string    `json:"tenantId,omitempty" bson:"tenantId,omitempty"`
	Name          string    `json:"name" bson:"name"`
	Email         string    `json:"email" bson:"email"`
	Phone         string    `json:"phone,omitempty" bson:"phone,omitempty"`
	PasswordHash  string    `json:"-" bson:"passwordHash"`
	Role          string    `json:"role" bson:"role"`
	EmailVerified bool      `json:"emailVerified" bson:"emailVerified"`
	IsActive      bool      `json:"isActive" bson:"isActive"`
	LastLogin     time.Time `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}
