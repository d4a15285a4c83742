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

func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	conn, err := h.conn(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	col, err := h.reg.Collection(r.Context(), conn, registry.ShopSettings)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	var settings models.ShopSettings
	err = col.FindOne(r.Context(), bson.M{"shopId": ps.ByName("shopId")}).Decode(&settings)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Settings are created lazily for shops onboarded before the
		// settings document existed.
		def := models.DefaultShopSettings(uuid.NewString(), middleware.TenantID(r), ps.ByName("shopId"),
			h.cfg.NoShowTimeoutMinutes, h.cfg.BookingAdvanceDays, time.Now().UTC())
		if _, err := col.InsertOne(r.Context(), def); err != nil {
			utils.HandleError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "settings": def})
		return
	}
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "settings": settings})
}

func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input struct {
		AllowPriceEditing      *bool    `json:"allowPriceEditing"`
		MaxDiscountPercentage  *float64 `json:"maxDiscountPercentage"`
		AutoConfirmBooking     *bool    `json:"autoConfirmBooking"`
		RequireAdminApproval   *bool    `json:"requireAdminApproval"`
		NoShowTimeoutMinutes   *int     `json:"noShowTimeoutMinutes"`
		BookingAdvanceDays     *int     `json:"bookingAdvanceDays"`
		SendSmsNotifications   *bool    `json:"sendSmsNotifications"`
		SendEmailNotifications *bool    `json:"sendEmailNotifications"`
		TaxRate                *float64 `json:"taxRate"`
		Currency               *string  `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if input.AllowPriceEditing != nil {
		set["allowPriceEditing"] = *input.AllowPriceEditing
	}
	if input.MaxDiscountPercentage != nil {
		if *input.MaxDiscountPercentage < 0 || *input.MaxDiscountPercentage > 100 {
			utils.RespondWithError(w, http.StatusBadRequest, "maxDiscountPercentage must be between 0 and 100")
			return
		}
		set["maxDiscountPercentage"] = *input.MaxDiscountPercentage
	}
	if input.AutoConfirmBooking != nil {
		set["autoConfirmBooking"] = *input.AutoConfirmBooking
	}
	if input.RequireAdminApproval != nil {
		set["requireAdminApproval"] = *input.RequireAdminApproval
	}
	if input.NoShowTimeoutMinutes != nil && *input.NoShowTimeoutMinutes > 0 {
		set["noShowTimeoutMinutes"] = *input.NoShowTimeoutMinutes
	}
	if input.BookingAdvanceDays != nil && *input.BookingAdvanceDays > 0 {
		set["bookingAdvanceDays"] = *input.BookingAdvanceDays
	}
	if input.SendSmsNotifications != nil {
		set["sendSmsNotifications"] = *input.SendSmsNotifications
	}
	if input.SendEmailNotifications != nil {
		set["sendEmailNotifications"] = *input.SendEmailNotifications
	}
	if input.TaxRate != nil && *input.TaxRate >= 0 {
		set["taxRate"] = *input.TaxRate
	}
	if input.Currency != nil && *input.Currency != "" {
		set["currency"] = *input.Currency
	}

	conn, err := h.conn(r)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	col, err := h.reg.Collection(r.Context(), conn, registry.ShopSettings)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	var settings models.ShopSettings
	err = col.FindOneAndUpdate(r.Context(),
		bson.M{"shopId": ps.ByName("shopId")},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&settings)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.RespondWithError(w, http.StatusNotFound, "settings not found")
		return
	}
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "settings": settings})
}
