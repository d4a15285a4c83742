package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"trimly/globals"
	"trimly/models"
	"trimly/registry"
)

// WithTenant validates the tenant and resolves its database name into
// the request context. Runs after Authenticate. The tenant ID comes
// from the path, then the query, then the principal's own tenant.
// Cross-tenant access is rejected here for everyone except the platform
// super admin.
func (a *Auth) WithTenant(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tenantID := ps.ByName("tenantId")
		if tenantID == "" {
			tenantID = r.URL.Query().Get("tenantId")
		}
		if tenantID == "" {
			tenantID = TenantID(r)
		}
		if tenantID == "" {
			http.Error(w, "Tenant ID is required", http.StatusForbidden)
			return
		}

		role := Role(r)
		if role != models.RolePlatformSuperAdmin {
			if own := TenantID(r); own != "" && own != tenantID {
				http.Error(w, "Access denied: tenant mismatch", http.StatusForbidden)
				return
			}
		}

		platform, err := a.router.Platform(r.Context())
		if err != nil {
			http.Error(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		col, err := a.reg.Collection(r.Context(), platform, registry.Tenants)
		if err != nil {
			http.Error(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
			return
		}

		var tenant models.Tenant
		err = col.FindOne(r.Context(), bson.M{"_id": tenantID}).Decode(&tenant)
		if errors.Is(err, mongo.ErrNoDocuments) {
			http.Error(w, "Tenant not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		if !tenant.IsActive {
			http.Error(w, "Tenant account is inactive", http.StatusForbidden)
			return
		}

		dbName, err := a.router.DatabaseFor(r.Context(), tenantID)
		if err != nil {
			http.Error(w, "Tenant database not provisioned", http.StatusNotFound)
			return
		}

		ctx := context.WithValue(r.Context(), globals.TenantIDKey, tenantID)
		ctx = context.WithValue(ctx, globals.TenantDBKey, dbName)
		next(w, r.WithContext(ctx), ps)
	}
}
