package shops

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trimly/middleware"
	"trimly/models"
	"trimly/registry"
	"trimly/utils"
)

func (h *Handlers) AddStaff(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input struct {
		UserID         string   `json:"userId"`
		EmployeeID     string   `json:"employeeId"`
		Specialization []string `json:"specialization"`
		HourlyRate     float64  `json:"hourlyRate"`
		CommissionRate float64  `json:"commissionRate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if input.UserID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "userId is required")
		return
	}

	conn, err := h.conn(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	shopID := ps.ByName("shopId")
	if _, err := h.loadShop(r.Context(), conn, middleware.TenantID(r), shopID); err != nil {
		utils.HandleError(w, err)
		return
	}
	col, err := h.reg.Collection(r.Context(), conn, registry.StaffProfiles)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	now := time.Now().UTC()
	profile := models.StaffProfile{
		ID:             uuid.NewString(),
		TenantID:       middleware.TenantID(r),
		ShopID:         shopID,
		UserID:         input.UserID,
		EmployeeID:     input.EmployeeID,
		Specialization: input.Specialization,
		HourlyRate:     input.HourlyRate,
		CommissionRate: input.CommissionRate,
		IsActive:       true,
		JoinedAt:       now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := col.InsertOne(r.Context(), profile); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.RespondWithError(w, http.StatusConflict, "user already staffed at this shop")
			return
		}
		utils.HandleError(w, err)
		return
	}

	// A new staff member changes tomorrow's capacity; recompute now
	// instead of waiting for the hourly sweep.
	h.recomputeShopCapacity(r, conn, shopID)

	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "staff": profile})
}

func (h *Handlers) ListStaff(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	conn, err := h.conn(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	col, err := h.reg.Collection(r.Context(), conn, registry.StaffProfiles)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	filter := bson.M{"shopId": ps.ByName("shopId")}
	if r.URL.Query().Get("includeInactive") != "true" {
		filter["isActive"] = true
	}
	cur, err := col.Find(r.Context(), filter, options.Find().SetSort(bson.D{{Key: "joinedAt", Value: 1}}))
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	defer cur.Close(r.Context())

	var staff []models.StaffProfile
	if err := cur.All(r.Context(), &staff); err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "staff": staff})
}

// DeactivateStaff soft-deactivates a profile. The document stays so
// existing bookings keep a valid staff reference.
func (h *Handlers) DeactivateStaff(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	conn, err := h.conn(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	col, err := h.reg.Collection(r.Context(), conn, registry.StaffProfiles)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	now := time.Now().UTC()
	var profile models.StaffProfile
	err = col.FindOneAndUpdate(r.Context(),
		bson.M{"_id": ps.ByName("staffId"), "shopId": ps.ByName("shopId")},
		bson.M{"$set": bson.M{"isActive": false, "leftAt": now, "updatedAt": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.RespondWithError(w, http.StatusNotFound, "staff profile not found")
		return
	}
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	h.recomputeShopCapacity(r, conn, profile.ShopID)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "staff": profile})
}
