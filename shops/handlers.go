// Package shops holds the admin-facing shop, settings, staff and
// service management handlers.
package shops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trimly/apperrors"
	"trimly/config"
	"trimly/middleware"
	"trimly/models"
	"trimly/registry"
	"trimly/slots"
	"trimly/tenants"
	"trimly/utils"
)

type Handlers struct {
	router    *tenants.Router
	reg       *registry.Registry
	generator *slots.Generator
	cfg       *config.Config
	log       zerolog.Logger
}

func NewHandlers(router *tenants.Router, reg *registry.Registry, gen *slots.Generator, cfg *config.Config, log zerolog.Logger) *Handlers {
	return &Handlers{
		router:    router,
		reg:       reg,
		generator: gen,
		cfg:       cfg,
		log:       log.With().Str("component", "shops").Logger(),
	}
}

func (h *Handlers) conn(r *http.Request) (*tenants.Conn, error) {
	return h.router.Get(r.Context(), middleware.TenantDB(r))
}

func (h *Handlers) CreateShop(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Name         string              `json:"name"`
		Phone        string              `json:"phone"`
		Email        string              `json:"email"`
		Address      models.Address      `json:"address"`
		WorkingHours models.WorkingHours `json:"workingHours"`
		SlotDuration int                 `json:"slotDuration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if input.Name == "" || input.Phone == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "name and phone are required")
		return
	}

	conn, err := h.conn(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	col, err := h.reg.Collection(r.Context(), conn, registry.Shops)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	now := time.Now().UTC()
	if input.SlotDuration <= 0 {
		input.SlotDuration = h.cfg.DefaultSlotDuration
	}
	if len(input.WorkingHours) == 0 {
		input.WorkingHours = models.DefaultWorkingHours(h.cfg.WorkingHoursStart, h.cfg.WorkingHoursEnd)
	}

	shop := models.Shop{
		ID:           uuid.NewString(),
		TenantID:     middleware.TenantID(r),
		Name:         input.Name,
		Phone:        input.Phone,
		Email:        input.Email,
		Address:      input.Address,
		WorkingHours: input.WorkingHours,
		SlotDuration: input.SlotDuration,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := col.InsertOne(r.Context(), shop); err != nil {
		utils.HandleError(w, err)
		return
	}

	// Every shop gets a settings document up front.
	settingsCol, err := h.reg.Collection(r.Context(), conn, registry.ShopSettings)
	if err == nil {
		settings := models.DefaultShopSettings(uuid.NewString(), shop.TenantID, shop.ID,
			h.cfg.NoShowTimeoutMinutes, h.cfg.BookingAdvanceDays, now)
		if _, err := settingsCol.InsertOne(r.Context(), settings); err != nil {
			h.log.Warn().Err(err).Str("shop", shop.ID).Msg("default settings insert failed")
		}
	}

	// Seed the booking horizon immediately so the shop is bookable.
	end := now.AddDate(0, 0, h.cfg.BookingAdvanceDays)
	if _, err := h.generator.Generate(r.Context(), conn, &shop, now, end, now); err != nil {
		h.log.Warn().Err(err).Str("shop", shop.ID).Msg("initial slot generation failed")
	}

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "shop": shop})
}

func (h *Handlers) ListShops(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := h.conn(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	col, err := h.reg.Collection(r.Context(), conn, registry.Shops)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	cur, err := col.Find(r.Context(), bson.M{"tenantId": middleware.TenantID(r)},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	defer cur.Close(r.Context())

	var shops []models.Shop
	if err := cur.All(r.Context(), &shops); err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "shops": shops})
}

func (h *Handlers) GetShop(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	conn, err := h.conn(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	shop, err := h.loadShop(r.Context(), conn, middleware.TenantID(r), ps.ByName("shopId"))
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "shop": shop})
}

func (h *Handlers) UpdateShop(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input struct {
		Name         *string              `json:"name"`
		Phone        *string              `json:"phone"`
		Email        *string              `json:"email"`
		Address      *models.Address      `json:"address"`
		WorkingHours *models.WorkingHours `json:"workingHours"`
		SlotDuration *int                 `json:"slotDuration"`
		IsActive     *bool                `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if input.Name != nil {
		set["name"] = *input.Name
	}
	if input.Phone != nil {
		set["phone"] = *input.Phone
	}
	if input.Email != nil {
		set["email"] = *input.Email
	}
	if input.Address != nil {
		set["address"] = *input.Address
	}
	if input.WorkingHours != nil {
		set["workingHours"] = *input.WorkingHours
	}
	if input.SlotDuration != nil && *input.SlotDuration > 0 {
		set["slotDuration"] = *input.SlotDuration
	}
	if input.IsActive != nil {
		set["isActive"] = *input.IsActive
	}

	conn, err := h.conn(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	col, err := h.reg.Collection(r.Context(), conn, registry.Shops)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	var shop models.Shop
	err = col.FindOneAndUpdate(r.Context(),
		bson.M{"_id": ps.ByName("shopId"), "tenantId": middleware.TenantID(r)},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&shop)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.RespondWithError(w, http.StatusNotFound, "shop not found")
		return
	}
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "shop": shop})
}

// recomputeShopCapacity refreshes future available slots after a staff
// roster change. Failures are logged, not surfaced; the hourly sweep
// will catch up.
func (h *Handlers) recomputeShopCapacity(r *http.Request, conn *tenants.Conn, shopID string) {
	shop, err := h.loadShop(r.Context(), conn, middleware.TenantID(r), shopID)
	if err != nil {
		h.log.Warn().Err(err).Str("shop", shopID).Msg("capacity recompute skipped")
		return
	}
	if _, err := h.generator.RecomputeCapacity(r.Context(), conn, shop, time.Now().UTC()); err != nil {
		h.log.Warn().Err(err).Str("shop", shopID).Msg("capacity recompute failed")
	}
}

func (h *Handlers) loadShop(ctx context.Context, conn *tenants.Conn, tenantID, shopID string) (*models.Shop, error) {
	col, err := h.reg.Collection(ctx, conn, registry.Shops)
	if err != nil {
		return nil, err
	}
	var shop models.Shop
	err = col.FindOne(ctx, bson.M{"_id": shopID, "tenantId": tenantID}).Decode(&shop)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &apperrors.NotFoundError{Entity: "shop"}
	}
	if err != nil {
		return nil, err
	}
	return &shop, nil
}
