// Package superadmin holds the platform-level handlers: tenant
// onboarding, lifecycle and subscription payments. All state here lives
// in the platform database; onboarding also seeds the tenant's own
// database with its first admin user.
package superadmin

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"trimly/models"
	"trimly/registry"
	"trimly/tenants"
	"trimly/utils"
)

type Handlers struct {
	router *tenants.Router
	reg    *registry.Registry
	log    zerolog.Logger
}

func NewHandlers(router *tenants.Router, reg *registry.Registry, log zerolog.Logger) *Handlers {
	return &Handlers{
		router: router,
		reg:    reg,
		log:    log.With().Str("component", "superadmin").Logger(),
	}
}

var dbNameSanitizer = regexp.MustCompile(`[^a-z0-9_]+`)

// databaseNameFor derives a stable, collision-free database name from
// the tenant name and id.
func databaseNameFor(name, tenantID string) string {
	base := dbNameSanitizer.ReplaceAllString(strings.ToLower(name), "_")
	base = strings.Trim(base, "_")
	if len(base) > 24 {
		base = base[:24]
	}
	if base == "" {
		base = "tenant"
	}
	return fmt.Sprintf("trimly_%s_%s", base, tenantID[:8])
}

// OnboardTenant creates the tenant record, pins its database mapping
// and seeds the tenant database with a client_admin account.
func (h *Handlers) OnboardTenant(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Name             string         `json:"name"`
		Email            string         `json:"email"`
		Phone            string         `json:"phone"`
		Address          models.Address `json:"address"`
		SubscriptionPlan string         `json:"subscriptionPlan"`
		MaxShops         int            `json:"maxShops"`
		AdminName        string         `json:"adminName"`
		AdminEmail       string         `json:"adminEmail"`
		AdminPassword    string         `json:"adminPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if input.Name == "" || input.Email == "" || input.AdminEmail == "" || len(input.AdminPassword) < 8 {
		utils.RespondWithError(w, http.StatusBadRequest, "name, email, adminEmail and an adminPassword of at least 8 characters are required")
		return
	}
	if input.SubscriptionPlan == "" {
		input.SubscriptionPlan = "basic"
	}
	if input.MaxShops <= 0 {
		input.MaxShops = 1
	}

	platform, err := h.router.Platform(r.Context())
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	tenantsCol, err := h.reg.Collection(r.Context(), platform, registry.Tenants)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	mapCol, err := h.reg.Collection(r.Context(), platform, registry.ClientDatabaseMap)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	now := time.Now().UTC()
	tenant := models.Tenant{
		ID:                    uuid.NewString(),
		Name:                  input.Name,
		Email:                 input.Email,
		Phone:                 input.Phone,
		Address:               input.Address,
		IsActive:              true,
		SubscriptionPlan:      input.SubscriptionPlan,
		SubscriptionExpiresAt: now.AddDate(0, 1, 0),
		MaxShops:              input.MaxShops,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if _, err := tenantsCol.InsertOne(r.Context(), tenant); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.RespondWithError(w, http.StatusConflict, "tenant email already registered")
			return
		}
		utils.HandleError(w, err)
		return
	}

	dbName := databaseNameFor(tenant.Name, tenant.ID)
	mapping := models.ClientDatabaseMap{
		ID:           uuid.NewString(),
		TenantID:     tenant.ID,
		DatabaseName: dbName,
		CreatedAt:    now,
	}
	if _, err := mapCol.InsertOne(r.Context(), mapping); err != nil {
		// Without the mapping the tenant is unreachable; undo the insert
		// so onboarding can be retried cleanly.
		if _, derr := tenantsCol.DeleteOne(r.Context(), bson.M{"_id": tenant.ID}); derr != nil {
			h.log.Error().Err(derr).Str("tenant", tenant.ID).Msg("tenant cleanup after mapping failure also failed")
		}
		utils.HandleError(w, err)
		return
	}

	if err := h.seedTenantAdmin(r, dbName, tenant.ID, input.AdminName, input.AdminEmail, input.AdminPassword); err != nil {
		h.log.Error().Err(err).Str("tenant", tenant.ID).Str("db", dbName).Msg("tenant admin seed failed")
		utils.HandleError(w, err)
		return
	}

	h.log.Info().Str("tenant", tenant.ID).Str("db", dbName).Msg("tenant onboarded")
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{
		"success":      true,
		"tenant":       tenant,
		"databaseName": dbName,
	})
}

func (h *Handlers) seedTenantAdmin(r *http.Request, dbName, tenantID, name, email, password string) error {
	conn, err := h.router.Get(r.Context(), dbName)
	if err != nil {
		return err
	}
	users, err := h.reg.Collection(r.Context(), conn, registry.Users)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err = users.InsertOne(r.Context(), models.User{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		Name:         name,
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Role:         models.RoleClientAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return err
}

func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	platform, err := h.router.Platform(r.Context())
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	col, err := h.reg.Collection(r.Context(), platform, registry.Tenants)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	p := utils.GetPaginationParams(r.URL.Query())
	filter := bson.M{}
	if r.URL.Query().Get("active") == "true" {
		filter["isActive"] = true
	}

	total, err := col.CountDocuments(r.Context(), filter)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	cur, err := col.Find(r.Context(), filter, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(p.Skip)).SetLimit(int64(p.Limit)))
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	defer cur.Close(r.Context())

	var list []models.Tenant
	if err := cur.All(r.Context(), &list); err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.PaginatedResponse("tenants", list, total, p))
}

func (h *Handlers) GetTenant(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	platform, err := h.router.Platform(r.Context())
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	col, err := h.reg.Collection(r.Context(), platform, registry.Tenants)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	var tenant models.Tenant
	err = col.FindOne(r.Context(), bson.M{"_id": ps.ByName("tenantId")}).Decode(&tenant)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.RespondWithError(w, http.StatusNotFound, "tenant not found")
		return
	}
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "tenant": tenant})
}

// SetTenantActive activates or deactivates a tenant. Deactivation cuts
// off all tenant-scoped requests at the middleware without touching the
// tenant's data.
func (h *Handlers) SetTenantActive(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input struct {
		IsActive *bool `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.IsActive == nil {
		utils.RespondWithError(w, http.StatusBadRequest, "isActive is required")
		return
	}

	platform, err := h.router.Platform(r.Context())
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	col, err := h.reg.Collection(r.Context(), platform, registry.Tenants)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	var tenant models.Tenant
	err = col.FindOneAndUpdate(r.Context(),
		bson.M{"_id": ps.ByName("tenantId")},
		bson.M{"$set": bson.M{"isActive": *input.IsActive, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&tenant)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.RespondWithError(w, http.StatusNotFound, "tenant not found")
		return
	}
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "tenant": tenant})
}

// RecordPayment stores a subscription payment and pushes the tenant's
// expiry forward to the payment's own expiry.
func (h *Handlers) RecordPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input struct {
		Plan      string    `json:"plan"`
		Amount    float64   `json:"amount"`
		Currency  string    `json:"currency"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if input.Plan == "" || input.Amount <= 0 || input.ExpiresAt.IsZero() {
		utils.RespondWithError(w, http.StatusBadRequest, "plan, positive amount and expiresAt are required")
		return
	}
	if input.Currency == "" {
		input.Currency = "USD"
	}

	platform, err := h.router.Platform(r.Context())
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	tenantsCol, err := h.reg.Collection(r.Context(), platform, registry.Tenants)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	payCol, err := h.reg.Collection(r.Context(), platform, registry.SubscriptionPayments)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	tenantID := ps.ByName("tenantId")
	now := time.Now().UTC()
	payment := models.SubscriptionPayment{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Plan:      input.Plan,
		Amount:    input.Amount,
		Currency:  input.Currency,
		PaidAt:    now,
		ExpiresAt: input.ExpiresAt.UTC(),
		CreatedAt: now,
	}
	if _, err := payCol.InsertOne(r.Context(), payment); err != nil {
		utils.HandleError(w, err)
		return
	}

	res, err := tenantsCol.UpdateOne(r.Context(),
		bson.M{"_id": tenantID},
		bson.M{"$set": bson.M{
			"subscriptionPlan":      input.Plan,
			"subscriptionExpiresAt": payment.ExpiresAt,
			"updatedAt":             now,
		}})
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "tenant not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "payment": payment})
}
