// Package customer exposes the public booking surface: browsing shops
// and services, checking availability and managing one's own bookings.
package customer

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trimly/engine"
	"trimly/middleware"
	"trimly/models"
	"trimly/rdx"
	"trimly/registry"
	"trimly/slots"
	"trimly/tenants"
	"trimly/utils"
)

type Handlers struct {
	router    *tenants.Router
	reg       *registry.Registry
	engine    *engine.Engine
	generator *slots.Generator
	cache     *rdx.Cache
	log       zerolog.Logger
}

func NewHandlers(router *tenants.Router, reg *registry.Registry, eng *engine.Engine, gen *slots.Generator, cache *rdx.Cache, log zerolog.Logger) *Handlers {
	return &Handlers{
		router:    router,
		reg:       reg,
		engine:    eng,
		generator: gen,
		cache:     cache,
		log:       log.With().Str("component", "customer").Logger(),
	}
}

func (h *Handlers) conn(r *http.Request) (*tenants.Conn, error) {
	return h.router.Get(r.Context(), middleware.TenantDB(r))
}

func (h *Handlers) GetShop(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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
	err = col.FindOne(r.Context(),
		bson.M{"_id": ps.ByName("shopId"), "tenantId": middleware.TenantID(r), "isActive": true},
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

	cur, err := col.Find(r.Context(),
		bson.M{"tenantId": middleware.TenantID(r), "isActive": true},
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

func (h *Handlers) ListServices(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	conn, err := h.conn(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	col, err := h.reg.Collection(r.Context(), conn, registry.Services)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	cur, err := col.Find(r.Context(),
		bson.M{"shopId": ps.ByName("shopId"), "isActive": true},
		options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}}))
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	defer cur.Close(r.Context())

	var services []models.Service
	if err := cur.All(r.Context(), &services); err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "services": services})
}

// AvailableSlots serves the short-lived cached slot list when the
// request is for the default window; range queries go to the database.
func (h *Handlers) AvailableSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenantID := middleware.TenantID(r)
	shopID := ps.ByName("shopId")
	q := r.URL.Query()
	from := q.Get("from")
	to := q.Get("to")

	today := time.Now().UTC().Format("2006-01-02")
	defaultWindow := from == "" && to == ""
	if from == "" {
		from = today
	}
	if to == "" {
		to = time.Now().UTC().AddDate(0, 0, 30).Format("2006-01-02")
	}

	if defaultWindow {
		if cached, ok := h.cache.CachedSlots(r.Context(), tenantID, shopID); ok {
			utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "slots": cached, "cached": true})
			return
		}
	}

	conn, err := h.conn(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	list, err := h.generator.Available(r.Context(), conn, tenantID, shopID, from, to)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	if defaultWindow {
		if err := h.cache.CacheSlots(r.Context(), tenantID, shopID, list); err != nil {
			h.log.Debug().Err(err).Msg("slot cache write failed")
		}
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "slots": list})
}

func (h *Handlers) BookSlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input struct {
		SlotID    string `json:"slotId"`
		ServiceID string `json:"serviceId"`
		StaffID   string `json:"staffId"`
		Notes     string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if input.SlotID == "" || input.ServiceID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "slotId and serviceId are required")
		return
	}

	conn, err := h.conn(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	tenantID := middleware.TenantID(r)
	shopID := ps.ByName("shopId")
	booking, err := h.engine.Reserve(r.Context(), conn, engine.ReserveRequest{
		TenantID:    tenantID,
		ShopID:      shopID,
		SlotID:      input.SlotID,
		ServiceID:   input.ServiceID,
		CustomerID:  middleware.UserID(r),
		StaffID:     input.StaffID,
		BookingType: models.BookingOnline,
		Notes:       input.Notes,
	})
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	h.cache.InvalidateSlots(r.Context(), tenantID, shopID)
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "booking": booking})
}

func (h *Handlers) MyBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := h.conn(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	col, err := h.reg.Collection(r.Context(), conn, registry.Bookings)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	p := utils.GetPaginationParams(r.URL.Query())
	filter := bson.M{"customerId": middleware.UserID(r)}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}

	total, err := col.CountDocuments(r.Context(), filter)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	cur, err := col.Find(r.Context(), filter, options.Find().
		SetSort(bson.D{{Key: "scheduledAt", Value: -1}}).
		SetSkip(int64(p.Skip)).SetLimit(int64(p.Limit)))
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	defer cur.Close(r.Context())

	var bookings []models.Booking
	if err := cur.All(r.Context(), &bookings); err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.PaginatedResponse("bookings", bookings, total, p))
}

// CancelBooking lets a customer cancel their own booking. Ownership is
// checked before the engine runs the transition.
func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&input)

	conn, err := h.conn(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	bookingID := ps.ByName("bookingId")
	booking, err := h.engine.GetBooking(r.Context(), conn, bookingID)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	userID := middleware.UserID(r)
	if booking.CustomerID != userID {
		utils.RespondWithError(w, http.StatusForbidden, "not your booking")
		return
	}

	updated, err := h.engine.Cancel(r.Context(), conn, bookingID, userID, input.Reason)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	h.cache.InvalidateSlots(r.Context(), booking.TenantID, booking.ShopID)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "booking": updated})
}
