package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"

	"trimly/utils"
)

const otpLength = 6

// RequestOTP issues a short-lived verification code for an email
// address. Delivery is handled out of band; the code is only logged at
// debug level for development setups.
func (h *Handlers) RequestOTP(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "email is required")
		return
	}

	code := utils.GenerateRandomDigitString(otpLength)
	if err := h.cache.SetOTP(r.Context(), input.Email, code); err != nil {
		utils.HandleError(w, err)
		return
	}

	h.log.Debug().Str("email", input.Email).Str("code", code).Msg("otp issued")
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "verification code sent"})
}

// VerifyOTP checks the code and marks the account's email verified.
func (h *Handlers) VerifyOTP(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		TenantID string `json:"tenantId"`
		Email    string `json:"email"`
		Code     string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.TenantID == "" || input.Email == "" || input.Code == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "tenantId, email and code are required")
		return
	}

	stored, err := h.cache.GetOTP(r.Context(), input.Email)
	if err != nil || stored == "" || stored != input.Code {
		utils.RespondWithError(w, http.StatusUnauthorized, "invalid or expired code")
		return
	}
	if err := h.cache.DelOTP(r.Context(), input.Email); err != nil {
		h.log.Debug().Err(err).Msg("otp cleanup failed")
	}

	users, _, err := h.usersFor(r.Context(), input.TenantID)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	res, err := users.UpdateOne(r.Context(),
		bson.M{"email": input.Email},
		bson.M{"$set": bson.M{"emailVerified": true, "updatedAt": time.Now().UTC()}})
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithError(w, http.StatusNotFound, "account not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "email verified"})
}
