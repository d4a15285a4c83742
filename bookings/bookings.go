// Package bookings holds the staff- and admin-facing booking
// management handlers: queues, walk-ins, status transitions, price
// edits and invoices.
package bookings

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trimly/engine"
	"trimly/invoices"
	"trimly/middleware"
	"trimly/models"
	"trimly/rdx"
	"trimly/registry"
	"trimly/tenants"
	"trimly/utils"
)

type Handlers struct {
	router   *tenants.Router
	reg      *registry.Registry
	engine   *engine.Engine
	invoices *invoices.Generator
	cache    *rdx.Cache
	log      zerolog.Logger
}

func NewHandlers(router *tenants.Router, reg *registry.Registry, eng *engine.Engine, inv *invoices.Generator, cache *rdx.Cache, log zerolog.Logger) *Handlers {
	return &Handlers{
		router:   router,
		reg:      reg,
		engine:   eng,
		invoices: inv,
		cache:    cache,
		log:      log.With().Str("component", "bookings").Logger(),
	}
}

func (h *Handlers) conn(r *http.Request) (*tenants.Conn, error) {
	return h.router.Get(r.Context(), middleware.TenantDB(r))
}

func (h *Handlers) ListShopBookings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

	q := r.URL.Query()
	p := utils.GetPaginationParams(q)
	filter := bson.M{"shopId": ps.ByName("shopId")}
	if status := q.Get("status"); status != "" {
		filter["status"] = status
	}
	if staffID := q.Get("staffId"); staffID != "" {
		filter["staffId"] = staffID
	}
	if date := q.Get("date"); date != "" {
		filter["slotDate"] = date
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

	var out []models.Booking
	if err := cur.All(r.Context(), &out); err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.PaginatedResponse("bookings", out, total, p))
}

func (h *Handlers) GetBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	conn, err := h.conn(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	booking, err := h.engine.GetBooking(r.Context(), conn, ps.ByName("bookingId"))
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "booking": booking})
}

// CreateWalkin books on behalf of a walk-in customer. Same reservation
// path as online bookings, so capacity rules hold at the counter too.
func (h *Handlers) CreateWalkin(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input struct {
		SlotID     string `json:"slotId"`
		ServiceID  string `json:"serviceId"`
		CustomerID string `json:"customerId"`
		StaffID    string `json:"staffId"`
		Notes      string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if input.SlotID == "" || input.ServiceID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "slotId and serviceId are required")
		return
	}
	customerID := input.CustomerID
	if customerID == "" {
		// Anonymous walk-in, attributed to the staff member at the desk.
		customerID = middleware.UserID(r)
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
		CustomerID:  customerID,
		StaffID:     input.StaffID,
		BookingType: models.BookingWalkin,
		Notes:       input.Notes,
	})
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	h.cache.InvalidateSlots(r.Context(), tenantID, shopID)
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "booking": booking})
}
