package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"trimly/globals"
	"trimly/models"
	"trimly/registry"
	"trimly/tenants"
)

// Claims is the authenticated principal carried in the JWT.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	TenantID string `json:"tenantId,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Auth bundles token verification, RBAC and tenant resolution.
type Auth struct {
	secret []byte
	router *tenants.Router
	reg    *registry.Registry
}

func New(secret string, router *tenants.Router, reg *registry.Registry) *Auth {
	return &Auth{secret: []byte(secret), router: router, reg: reg}
}

// Secret exposes the signing key for token minting in the auth package.
func (a *Auth) Secret() []byte { return a.secret }

// Authenticate verifies the bearer token and stores the principal in
// the request context. Websocket upgrades pass through and carry the
// token as a query parameter instead.
func (a *Auth) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" && websocket.IsWebSocketUpgrade(r) {
			tokenString = "Bearer " + r.URL.Query().Get("token")
		}
		if tokenString == "" {
			http.Error(w, "Missing token", http.StatusUnauthorized)
			return
		}
		if len(tokenString) < 8 || !strings.HasPrefix(tokenString, "Bearer ") {
			http.Error(w, "Invalid token format", http.StatusUnauthorized)
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString[7:], claims, func(token *jwt.Token) (any, error) {
			return a.secret, nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, globals.UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, globals.UsernameKey, claims.Username)
		ctx = context.WithValue(ctx, globals.RoleKey, claims.Role)
		ctx = context.WithValue(ctx, globals.TenantIDKey, claims.TenantID)
		next(w, r.WithContext(ctx), ps)
	}
}

// RequirePermission gates a handler on the RBAC table.
func (a *Auth) RequirePermission(permission string, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		role := Role(r)
		if !models.HasPermission(role, permission) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r, ps)
	}
}

// RequireRole gates a handler on an exact role match. Used for the
// platform surface, which no tenant role may reach.
func (a *Auth) RequireRole(role string, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if Role(r) != role {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r, ps)
	}
}

// UserID returns the authenticated user's ID, or "".
func UserID(r *http.Request) string {
	v, _ := r.Context().Value(globals.UserIDKey).(string)
	return v
}

// Role returns the authenticated user's role, or "".
func Role(r *http.Request) string {
	v, _ := r.Context().Value(globals.RoleKey).(string)
	return v
}

// TenantID returns the resolved tenant ID, or "".
func TenantID(r *http.Request) string {
	v, _ := r.Context().Value(globals.TenantIDKey).(string)
	return v
}

// TenantDB returns the resolved tenant database name, or "".
func TenantDB(r *http.Request) string {
	v, _ := r.Context().Value(globals.TenantDBKey).(string)
	return v
}
