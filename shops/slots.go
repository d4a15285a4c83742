package shops

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"trimly/middleware"
	"trimly/utils"
)

// GenerateSlots regenerates a shop's slot horizon on demand, e.g. after
// editing working hours. Existing slots are never disturbed.
func (h *Handlers) GenerateSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input struct {
		Days int `json:"days"`
	}
	// Body is optional; the configured advance window is the default.
	_ = json.NewDecoder(r.Body).Decode(&input)
	if input.Days <= 0 {
		input.Days = h.cfg.BookingAdvanceDays
	}

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

	now := time.Now().UTC()
	created, err := h.generator.Generate(r.Context(), conn, shop, now, now.AddDate(0, 0, input.Days), now)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "created": created})
}

func (h *Handlers) ListSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	from := r.URL.Query().Get("from")
	if from == "" {
		from = time.Now().UTC().Format("2006-01-02")
	}

	conn, err := h.conn(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	list, err := h.generator.ListFrom(r.Context(), conn, middleware.TenantID(r), ps.ByName("shopId"), from)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "slots": list})
}

func (h *Handlers) BlockSlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&input)

	conn, err := h.conn(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	slot, err := h.generator.Block(r.Context(), conn, ps.ByName("slotId"), middleware.UserID(r), input.Reason, time.Now().UTC())
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "slot": slot})
}

func (h *Handlers) UnblockSlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	conn, err := h.conn(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	slot, err := h.generator.Unblock(r.Context(), conn, ps.ByName("slotId"), time.Now().UTC())
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "slot": slot})
}
