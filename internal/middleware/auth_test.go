package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tableside/api/internal/auth"
	"github.com/tableside/api/internal/enum"
	"github.com/tableside/api/internal/middleware"
)

const testSecret = "test-secret"

func okHandler(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func TestAuthenticate(t *testing.T) {
	userID, restaurantID := uuid.New(), uuid.New()
	access, _ := auth.GenerateToken(testSecret, userID, restaurantID, enum.UserRoleWaiter)
	refresh, _ := auth.GenerateRefreshToken(testSecret, userID)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + access, http.StatusOK},
		{"lowercase scheme", "bearer " + access, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"basic scheme", "Basic " + access, http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"garbage", "Bearer invalid-token", http.StatusUnauthorized},
		{"refresh token", "Bearer " + refresh, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *auth.Claims
			h := middleware.Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = middleware.ClaimsFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusOK && (got == nil || got.UserID != userID) {
				t.Errorf("claims in context: %+v", got)
			}
		})
	}
}

func TestRequireRestaurant(t *testing.T) {
	home := uuid.New()

	tests := []struct {
		name string
		role string
		rid  string
		want int
	}{
		{"own restaurant", enum.UserRoleWaiter, home.String(), http.StatusOK},
		{"other restaurant", enum.UserRoleWaiter, uuid.NewString(), http.StatusForbidden},
		{"owner still scoped", enum.UserRoleOwner, uuid.NewString(), http.StatusForbidden},
		{"malformed id", enum.UserRoleWaiter, "nope", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _ := auth.GenerateToken(testSecret, uuid.New(), home, tt.role)
			h := middleware.Authenticate(testSecret)(middleware.RequireRestaurant(http.HandlerFunc(okHandler)))

			req := httptest.NewRequest("GET", "/restaurants/"+tt.rid+"/tables", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			req.SetPathValue("rid", tt.rid)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestRequireRestaurant_Unauthenticated(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.SetPathValue("rid", uuid.NewString())
	rr := httptest.NewRecorder()
	middleware.RequireRestaurant(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestRequireRole(t *testing.T) {
	floor := middleware.RequireRole(enum.UserRoleOwner, enum.UserRoleManager, enum.UserRoleWaiter)

	tests := []struct {
		role string
		want int
	}{
		{enum.UserRoleWaiter, http.StatusOK},
		{enum.UserRoleManager, http.StatusOK},
		{enum.UserRoleKitchen, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			req := httptest.NewRequest("DELETE", "/", nil)
			req = req.WithContext(middleware.WithClaims(req.Context(), &auth.Claims{UserID: uuid.New(), Role: tt.role}))
			rr := httptest.NewRecorder()
			floor(http.HandlerFunc(okHandler)).ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestRequestLogger_TagsStaff(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	userID := uuid.New()
	token, _ := auth.GenerateToken(testSecret, userID, uuid.New(), enum.UserRoleKitchen)
	h := middleware.RequestLogger(middleware.Authenticate(testSecret)(http.HandlerFunc(okHandler)))

	req := httptest.NewRequest("GET", "/restaurants/x/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	h.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	if !strings.Contains(line, userID.String()) {
		t.Errorf("log line missing user_id: %s", line)
	}
	if !strings.Contains(line, `"role":"kitchen"`) {
		t.Errorf("log line missing role: %s", line)
	}
}
