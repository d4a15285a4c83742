// Package routes wires every handler onto the router with its
// middleware chain. Tenant-scoped routes carry :tenantId in the path
// and run through WithTenant, which resolves the tenant database.
package routes

import (
	"github.com/julienschmidt/httprouter"

	"trimly/auth"
	"trimly/bookings"
	"trimly/customer"
	"trimly/middleware"
	"trimly/models"
	"trimly/ratelim"
	"trimly/realtime"
	"trimly/shops"
	"trimly/superadmin"
)

// Deps carries everything route registration needs.
type Deps struct {
	Auth       *middleware.Auth
	RateLim    *ratelim.RateLimiter
	AuthH      *auth.Handlers
	Shops      *shops.Handlers
	Customer   *customer.Handlers
	Bookings   *bookings.Handlers
	SuperAdmin *superadmin.Handlers
	Hub        *realtime.Hub
}

func RoutesWrapper(router *httprouter.Router, d Deps) {
	AddAuthRoutes(router, d)
	AddSuperAdminRoutes(router, d)
	AddShopRoutes(router, d)
	AddCustomerRoutes(router, d)
	AddBookingRoutes(router, d)
	AddRealtimeRoutes(router, d)
}

func AddAuthRoutes(router *httprouter.Router, d Deps) {
	router.POST("/api/v1/auth/register", d.RateLim.Limit(d.AuthH.Register))
	router.POST("/api/v1/auth/login", d.RateLim.Limit(d.AuthH.Login))
	router.POST("/api/v1/auth/request-otp", d.RateLim.Limit(d.AuthH.RequestOTP))
	router.POST("/api/v1/auth/verify-otp", d.RateLim.Limit(d.AuthH.VerifyOTP))
}

func AddSuperAdminRoutes(router *httprouter.Router, d Deps) {
	super := func(h httprouter.Handle) httprouter.Handle {
		return d.Auth.Authenticate(d.Auth.RequireRole(models.RolePlatformSuperAdmin, h))
	}
	router.POST("/api/v1/platform/tenants", super(d.SuperAdmin.OnboardTenant))
	router.GET("/api/v1/platform/tenants", super(d.SuperAdmin.ListTenants))
	router.GET("/api/v1/platform/tenants/:tenantId", super(d.SuperAdmin.GetTenant))
	router.PATCH("/api/v1/platform/tenants/:tenantId/active", super(d.SuperAdmin.SetTenantActive))
	router.POST("/api/v1/platform/tenants/:tenantId/payments", super(d.SuperAdmin.RecordPayment))
}

func AddShopRoutes(router *httprouter.Router, d Deps) {
	perm := func(p string, h httprouter.Handle) httprouter.Handle {
		return d.Auth.Authenticate(d.Auth.WithTenant(d.Auth.RequirePermission(p, h)))
	}

	router.POST("/api/v1/tenants/:tenantId/shops", perm(models.PermManageShops, d.Shops.CreateShop))
	router.GET("/api/v1/tenants/:tenantId/shops", perm(models.PermViewDashboard, d.Shops.ListShops))
	router.GET("/api/v1/tenants/:tenantId/shops/:shopId", perm(models.PermViewDashboard, d.Shops.GetShop))
	router.PUT("/api/v1/tenants/:tenantId/shops/:shopId", perm(models.PermManageShops, d.Shops.UpdateShop))

	router.GET("/api/v1/tenants/:tenantId/shops/:shopId/settings", perm(models.PermManageSettings, d.Shops.GetSettings))
	router.PUT("/api/v1/tenants/:tenantId/shops/:shopId/settings", perm(models.PermManageSettings, d.Shops.UpdateSettings))

	router.POST("/api/v1/tenants/:tenantId/shops/:shopId/staff", perm(models.PermManageStaff, d.Shops.AddStaff))
	router.GET("/api/v1/tenants/:tenantId/shops/:shopId/staff", perm(models.PermManageStaff, d.Shops.ListStaff))
	router.DELETE("/api/v1/tenants/:tenantId/shops/:shopId/staff/:staffId", perm(models.PermManageStaff, d.Shops.DeactivateStaff))

	router.POST("/api/v1/tenants/:tenantId/shops/:shopId/services", perm(models.PermManageServices, d.Shops.CreateService))
	router.GET("/api/v1/tenants/:tenantId/shops/:shopId/services", perm(models.PermManageServices, d.Shops.ListServices))
	router.PUT("/api/v1/tenants/:tenantId/shops/:shopId/services/:serviceId", perm(models.PermManageServices, d.Shops.UpdateService))
	router.DELETE("/api/v1/tenants/:tenantId/shops/:shopId/services/:serviceId", perm(models.PermManageServices, d.Shops.DeactivateService))

	router.POST("/api/v1/tenants/:tenantId/shops/:shopId/slots/generate", perm(models.PermManageSlots, d.Shops.GenerateSlots))
	router.GET("/api/v1/tenants/:tenantId/shops/:shopId/slots", perm(models.PermManageSlots, d.Shops.ListSlots))
	router.POST("/api/v1/tenants/:tenantId/slots/:slotId/block", perm(models.PermManageSlots, d.Shops.BlockSlot))
	router.POST("/api/v1/tenants/:tenantId/slots/:slotId/unblock", perm(models.PermManageSlots, d.Shops.UnblockSlot))
}

func AddCustomerRoutes(router *httprouter.Router, d Deps) {
	perm := func(p string, h httprouter.Handle) httprouter.Handle {
		return d.Auth.Authenticate(d.Auth.WithTenant(d.Auth.RequirePermission(p, h)))
	}

	router.GET("/api/v1/tenants/:tenantId/browse/shops", perm(models.PermViewServices, d.Customer.ListShops))
	router.GET("/api/v1/tenants/:tenantId/browse/shops/:shopId", perm(models.PermViewServices, d.Customer.GetShop))
	router.GET("/api/v1/tenants/:tenantId/browse/shops/:shopId/services", perm(models.PermViewServices, d.Customer.ListServices))
	router.GET("/api/v1/tenants/:tenantId/browse/shops/:shopId/slots", perm(models.PermViewSlots, d.Customer.AvailableSlots))

	// Booking creation shares the rate limiter with auth; both are the
	// endpoints worth hammering.
	router.POST("/api/v1/tenants/:tenantId/browse/shops/:shopId/bookings",
		d.RateLim.Limit(perm(models.PermBookSlot, d.Customer.BookSlot)))
	router.GET("/api/v1/tenants/:tenantId/my/bookings", perm(models.PermViewBookingHistory, d.Customer.MyBookings))
	router.POST("/api/v1/tenants/:tenantId/my/bookings/:bookingId/cancel", perm(models.PermCancelBooking, d.Customer.CancelBooking))
}

func AddBookingRoutes(router *httprouter.Router, d Deps) {
	perm := func(p string, h httprouter.Handle) httprouter.Handle {
		return d.Auth.Authenticate(d.Auth.WithTenant(d.Auth.RequirePermission(p, h)))
	}

	router.GET("/api/v1/tenants/:tenantId/shops/:shopId/bookings", perm(models.PermViewBookings, d.Bookings.ListShopBookings))
	router.GET("/api/v1/tenants/:tenantId/bookings/:bookingId", perm(models.PermViewBookings, d.Bookings.GetBooking))
	router.POST("/api/v1/tenants/:tenantId/shops/:shopId/walkins",
		d.RateLim.Limit(perm(models.PermCreateWalkin, d.Bookings.CreateWalkin)))

	router.POST("/api/v1/tenants/:tenantId/bookings/:bookingId/approve", perm(models.PermViewBookings, d.Bookings.Approve))
	router.POST("/api/v1/tenants/:tenantId/bookings/:bookingId/reject", perm(models.PermViewBookings, d.Bookings.Reject))
	router.POST("/api/v1/tenants/:tenantId/bookings/:bookingId/arrive", perm(models.PermMarkArrived, d.Bookings.MarkArrived))
	router.POST("/api/v1/tenants/:tenantId/bookings/:bookingId/start", perm(models.PermMarkArrived, d.Bookings.StartService))
	router.POST("/api/v1/tenants/:tenantId/bookings/:bookingId/complete", perm(models.PermCompleteService, d.Bookings.CompleteService))
	router.POST("/api/v1/tenants/:tenantId/bookings/:bookingId/no-show", perm(models.PermMarkNoShow, d.Bookings.MarkNoShow))
	router.POST("/api/v1/tenants/:tenantId/bookings/:bookingId/cancel", perm(models.PermViewBookings, d.Bookings.Cancel))
	router.POST("/api/v1/tenants/:tenantId/bookings/:bookingId/price", perm(models.PermEditPrice, d.Bookings.EditPrice))

	router.GET("/api/v1/tenants/:tenantId/shops/:shopId/invoices", perm(models.PermViewInvoices, d.Bookings.ListInvoices))
	router.GET("/api/v1/tenants/:tenantId/invoices/:invoiceId", perm(models.PermViewInvoices, d.Bookings.GetInvoice))
	router.POST("/api/v1/tenants/:tenantId/invoices/:invoiceId/pay", perm(models.PermViewInvoices, d.Bookings.MarkInvoicePaid))
}

func AddRealtimeRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/v1/tenants/:tenantId/shops/:shopId/ws",
		d.Auth.Authenticate(d.Auth.WithTenant(d.Hub.ServeWS)))
}
