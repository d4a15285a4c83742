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

func (h *Handlers) CreateService(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Category    string  `json:"category"`
		Price       float64 `json:"price"`
		Duration    int     `json:"duration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if input.Name == "" || input.Price < 0 || input.Duration <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "name, non-negative price and positive duration are required")
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
	col, err := h.reg.Collection(r.Context(), conn, registry.Services)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	now := time.Now().UTC()
	service := models.Service{
		ID:          uuid.NewString(),
		TenantID:    middleware.TenantID(r),
		ShopID:      shopID,
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Price:       input.Price,
		Duration:    input.Duration,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := col.InsertOne(r.Context(), service); err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "service": service})
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

	filter := bson.M{"shopId": ps.ByName("shopId")}
	if r.URL.Query().Get("includeInactive") != "true" {
		filter["isActive"] = true
	}
	cur, err := col.Find(r.Context(), filter, options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}}))
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

func (h *Handlers) UpdateService(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Category    *string  `json:"category"`
		Price       *float64 `json:"price"`
		Duration    *int     `json:"duration"`
		IsActive    *bool    `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if input.Name != nil && *input.Name != "" {
		set["name"] = *input.Name
	}
	if input.Description != nil {
		set["description"] = *input.Description
	}
	if input.Category != nil {
		set["category"] = *input.Category
	}
	if input.Price != nil && *input.Price >= 0 {
		set["price"] = *input.Price
	}
	if input.Duration != nil && *input.Duration > 0 {
		set["duration"] = *input.Duration
	}
	if input.IsActive != nil {
		set["isActive"] = *input.IsActive
	}

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

	var service models.Service
	err = col.FindOneAndUpdate(r.Context(),
		bson.M{"_id": ps.ByName("serviceId"), "shopId": ps.ByName("shopId")},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&service)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.RespondWithError(w, http.StatusNotFound, "service not found")
		return
	}
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "service": service})
}

// DeactivateService hides a service from customers without touching
// historical bookings that reference it.
func (h *Handlers) DeactivateService(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
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

	res, err := col.UpdateOne(r.Context(),
		bson.M{"_id": ps.ByName("serviceId"), "shopId": ps.ByName("shopId")},
		bson.M{"$set": bson.M{"isActive": false, "updatedAt": time.Now().UTC()}})
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "service not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true})
}
