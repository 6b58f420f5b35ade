package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/tableside/api/internal/auth"
	"github.com/tableside/api/internal/database"
	"golang.org/x/crypto/bcrypt"
)

// AuthStore looks up active staff accounts. Satisfied by *database.Queries.
type AuthStore interface {
	GetStaffUserByEmail(ctx context.Context, email string) (database.StaffUser, error)
	GetStaffUserByID(ctx context.Context, id uuid.UUID) (database.StaffUser, error)
}

// AuthHandler issues staff tokens for the floor and kitchen apps.
type AuthHandler struct {
	store     AuthStore
	jwtSecret string
}

func NewAuthHandler(store AuthStore, jwtSecret string) *AuthHandler {
	return &AuthHandler{store: store, jwtSecret: jwtSecret}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type staffResponse struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
}

type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         staffResponse `json:"user"`
}

// Login handles POST /auth/login. Unknown emails, deactivated staff and wrong
// passwords all answer with the same 401.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and password are required"})
		return
	}

	staff, ok := lookupStaff(w, "login", func() (database.StaffUser, error) {
		return h.store.GetStaffUserByEmail(r.Context(), email)
	})
	if !ok {
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(req.Password)) != nil {
		log.Info().Str("user_id", staff.ID.String()).Msg("login: wrong password")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	h.issue(w, staff)
}

// Refresh handles POST /auth/refresh. Role and restaurant are re-read so a
// demoted or moved staff member gets a token with the current scope.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "refresh_token is required"})
		return
	}

	userID, err := auth.ValidateRefreshToken(h.jwtSecret, req.RefreshToken)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid refresh token"})
		return
	}

	staff, ok := lookupStaff(w, "refresh", func() (database.StaffUser, error) {
		return h.store.GetStaffUserByID(r.Context(), userID)
	})
	if !ok {
		return
	}

	h.issue(w, staff)
}

// lookupStaff runs find and turns a missing account into a 401.
func lookupStaff(w http.ResponseWriter, op string, find func() (database.StaffUser, error)) (database.StaffUser, bool) {
	staff, err := find()
	switch {
	case err == nil:
		return staff, true
	case errors.Is(err, pgx.ErrNoRows):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	default:
		log.Error().Err(err).Str("op", op).Msg("get staff user")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
	return database.StaffUser{}, false
}

func (h *AuthHandler) issue(w http.ResponseWriter, staff database.StaffUser) {
	access, err := auth.GenerateToken(h.jwtSecret, staff.ID, staff.RestaurantID, staff.Role)
	if err != nil {
		log.Error().Err(err).Msg("sign access token")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	refresh, err := auth.GenerateRefreshToken(h.jwtSecret, staff.ID)
	if err != nil {
		log.Error().Err(err).Msg("sign refresh token")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User: staffResponse{
			ID:           staff.ID,
			RestaurantID: staff.RestaurantID,
			FullName:     staff.FullName,
			Email:        staff.Email,
			Role:         staff.Role,
		},
	})
}
