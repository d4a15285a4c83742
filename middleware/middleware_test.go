package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"

	"trimly/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func testClaims() Claims {
	return Claims{
		UserID:   "u1",
		Username: "pat",
		TenantID: "t1",
		Role:     models.RoleCustomer,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestAuthenticate(t *testing.T) {
	a := New(testSecret, nil, nil)

	var gotUser, gotRole, gotTenant string
	handler := a.Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gotUser = UserID(r)
		gotRole = Role(r)
		gotTenant = TenantID(r)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testClaims()))
	rec := httptest.NewRecorder()
	handler(rec, req, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotUser != "u1" || gotRole != models.RoleCustomer || gotTenant != "t1" {
		t.Fatalf("context = %q/%q/%q", gotUser, gotRole, gotTenant)
	}
}

func TestAuthenticateRejects(t *testing.T) {
	a := New(testSecret, nil, nil)
	handler := a.Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		t.Fatal("handler must not run")
	})

	cases := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"malformed", "not-a-bearer"},
		{"garbage token", "Bearer abc.def.ghi"},
		{"wrong key", "Bearer " + func() string {
			token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, testClaims()).SignedString([]byte("other-secret"))
			return token
		}()},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if c.token != "" {
			req.Header.Set("Authorization", c.token)
		}
		rec := httptest.NewRecorder()
		handler(rec, req, nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", c.name, rec.Code)
		}
	}
}

func TestAuthenticateRejectsExpired(t *testing.T) {
	a := New(testSecret, nil, nil)
	handler := a.Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		t.Fatal("handler must not run")
	})

	claims := testClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
	rec := httptest.NewRecorder()
	handler(rec, req, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	a := New(testSecret, nil, nil)

	run := func(role, permission string) int {
		called := false
		handler := a.Authenticate(a.RequirePermission(permission, func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
			called = true
		}))
		claims := testClaims()
		claims.Role = role
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
		rec := httptest.NewRecorder()
		handler(rec, req, nil)
		if rec.Code == http.StatusOK && !called {
			t.Fatal("200 without handler execution")
		}
		return rec.Code
	}

	if code := run(models.RoleCustomer, models.PermBookSlot); code != http.StatusOK {
		t.Errorf("customer booking: %d", code)
	}
	if code := run(models.RoleCustomer, models.PermManageShops); code != http.StatusForbidden {
		t.Errorf("customer managing shops: %d", code)
	}
	if code := run(models.RolePlatformSuperAdmin, models.PermManageShops); code != http.StatusOK {
		t.Errorf("super admin bypass: %d", code)
	}
}

func TestRequireRole(t *testing.T) {
	a := New(testSecret, nil, nil)

	run := func(role string) int {
		handler := a.Authenticate(a.RequireRole(models.RolePlatformSuperAdmin, func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {}))
		claims := testClaims()
		claims.Role = role
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
		rec := httptest.NewRecorder()
		handler(rec, req, nil)
		return rec.Code
	}

	if code := run(models.RolePlatformSuperAdmin); code != http.StatusOK {
		t.Errorf("super admin: %d", code)
	}
	if code := run(models.RoleClientAdmin); code != http.StatusForbidden {
		t.Errorf("client admin on platform route: %d", code)
	}
}
