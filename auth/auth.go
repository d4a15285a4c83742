// Package auth implements registration, login and email verification.
// Accounts live in each tenant's own database; the tenant id therefore
// has to accompany every credential, and ends up inside the JWT so
// later requests resolve the same database.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"trimly/middleware"
	"trimly/models"
	"trimly/rdx"
	"trimly/registry"
	"trimly/tenants"
	"trimly/utils"
)

const tokenTTL = 24 * time.Hour

type Handlers struct {
	router *tenants.Router
	reg    *registry.Registry
	cache  *rdx.Cache
	secret []byte
	log    zerolog.Logger
}

func NewHandlers(router *tenants.Router, reg *registry.Registry, cache *rdx.Cache, secret []byte, log zerolog.Logger) *Handlers {
	return &Handlers{
		router: router,
		reg:    reg,
		cache:  cache,
		secret: secret,
		log:    log.With().Str("component", "auth").Logger(),
	}
}

// usersFor resolves the tenant's user collection from its tenant id.
func (h *Handlers) usersFor(ctx context.Context, tenantID string) (*mongo.Collection, *tenants.Conn, error) {
	dbName, err := h.router.DatabaseFor(ctx, tenantID)
	if err != nil {
		return nil, nil, err
	}
	conn, err := h.router.Get(ctx, dbName)
	if err != nil {
		return nil, nil, err
	}
	col, err := h.reg.Collection(ctx, conn, registry.Users)
	if err != nil {
		return nil, nil, err
	}
	return col, conn, nil
}

func (h *Handlers) mintToken(u *models.User) (string, error) {
	now := time.Now().UTC()
	claims := middleware.Claims{
		UserID:   u.ID,
		Username: u.Name,
		TenantID: u.TenantID,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
}

// Register creates a customer account in the tenant's database.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		TenantID string `json:"tenantId"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.TenantID == "" || input.Name == "" || input.Email == "" || len(input.Password) < 8 {
		utils.RespondWithError(w, http.StatusBadRequest, "tenantId, name, email and a password of at least 8 characters are required")
		return
	}

	users, _, err := h.usersFor(r.Context(), input.TenantID)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	now := time.Now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		TenantID:     input.TenantID,
		Name:         input.Name,
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: string(hash),
		Role:         models.RoleCustomer,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := users.InsertOne(r.Context(), user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.RespondWithError(w, http.StatusConflict, "email already registered")
			return
		}
		utils.HandleError(w, err)
		return
	}

	token, err := h.mintToken(&user)
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"success": true, "token": token, "user": user})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		TenantID string `json:"tenantId"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.TenantID == "" || input.Email == "" || input.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "tenantId, email and password are required")
		return
	}

	users, _, err := h.usersFor(r.Context(), input.TenantID)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	var user models.User
	err = users.FindOne(r.Context(), bson.M{"email": input.Email, "isActive": true}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.RespondWithError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		utils.HandleError(w, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.mintToken(&user)
	if err != nil {
		utils.HandleError(w, err)
		return
	}

	if _, err := users.UpdateOne(r.Context(), bson.M{"_id": user.ID},
		bson.M{"$set": bson.M{"lastLogin": time.Now().UTC()}}); err != nil {
		h.log.Debug().Err(err).Str("user", user.ID).Msg("lastLogin update failed")
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "token": token, "user": user})
}
