package bookings

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"trimly/middleware"
	"trimly/models"
	"trimly/tenants"
	"trimly/utils"
)

type transitionFunc func(ctx context.Context, conn *tenants.Conn, bookingID string) (*models.Booking, error)

func (h *Handlers) runTransition(w http.ResponseWriter, r *http.Request, bookingID string, fn transitionFunc) {
	conn, err := h.conn(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	booking, err := fn(r.Context(), conn, bookingID)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "booking": booking})
}

func (h *Handlers) Approve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.runTransition(w, r, ps.ByName("bookingId"), h.engine.Approve)
}

func (h *Handlers) MarkArrived(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.runTransition(w, r, ps.ByName("bookingId"), h.engine.MarkArrived)
}

func (h *Handlers) StartService(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.runTransition(w, r, ps.ByName("bookingId"), h.engine.StartService)
}

func (h *Handlers) CompleteService(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.runTransition(w, r, ps.ByName("bookingId"), h.engine.CompleteService)
}

func (h *Handlers) MarkNoShow(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.runTransition(w, r, ps.ByName("bookingId"), h.engine.MarkNoShow)
}

func (h *Handlers) Reject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&input)

	h.runTransition(w, r, ps.ByName("bookingId"), func(ctx context.Context, conn *tenants.Conn, id string) (*models.Booking, error) {
		return h.engine.Reject(ctx, conn, id, middleware.UserID(r), input.Reason)
	})
}

func (h *Handlers) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&input)

	h.runTransition(w, r, ps.ByName("bookingId"), func(ctx context.Context, conn *tenants.Conn, id string) (*models.Booking, error) {
		booking, err := h.engine.Cancel(ctx, conn, id, middleware.UserID(r), input.Reason)
		if err == nil {
			h.cache.InvalidateSlots(ctx, booking.TenantID, booking.ShopID)
		}
		return booking, err
	})
}

func (h *Handlers) EditPrice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input struct {
		Price  float64 `json:"price"`
		Reason string  `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if input.Price < 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "price must be non-negative")
		return
	}

	h.runTransition(w, r, ps.ByName("bookingId"), func(ctx context.Context, conn *tenants.Conn, id string) (*models.Booking, error) {
		return h.engine.EditPrice(ctx, conn, id, input.Price, middleware.UserID(r), input.Reason)
	})
}

func (h *Handlers) ListInvoices(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	conn, err := h.conn(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	p := utils.GetPaginationParams(r.URL.Query())
	list, total, err := h.invoices.ListForShop(r.Context(), conn, middleware.TenantID(r), ps.ByName("shopId"),
		r.URL.Query().Get("status"), int64(p.Skip), int64(p.Limit))
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.PaginatedResponse("invoices", list, total, p))
}

func (h *Handlers) GetInvoice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	conn, err := h.conn(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	invoice, err := h.invoices.Get(r.Context(), conn, ps.ByName("invoiceId"))
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "invoice": invoice})
}

func (h *Handlers) MarkInvoicePaid(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	conn, err := h.conn(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	invoice, err := h.invoices.MarkPaid(r.Context(), conn, ps.ByName("invoiceId"))
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "invoice": invoice})
}
