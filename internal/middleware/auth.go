package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tableside/api/internal/auth"
)

type contextKey int

const (
	claimsKey contextKey = iota
	staffTagKey
)

// staffTag lets RequestLogger, which runs outside Authenticate, see who made
// the request.
type staffTag struct {
	claims *auth.Claims
}

// Authenticate requires a staff access token in the Authorization header.
func Authenticate(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, msg := bearerToken(r)
			if msg != "" {
				deny(w, http.StatusUnauthorized, msg)
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, token)
			if err != nil {
				deny(w, http.StatusUnauthorized, "invalid token")
				return
			}

			if tag, ok := r.Context().Value(staffTagKey).(*staffTag); ok {
				tag.claims = claims
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (token, problem string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", "invalid authorization format"
	}
	return token, ""
}

// RequireRestaurant rejects staff whose token belongs to a different
// restaurant than the {rid} path segment. Owners are scoped like everyone else.
func RequireRestaurant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			deny(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		rid, err := uuid.Parse(r.PathValue("rid"))
		if err != nil {
			deny(w, http.StatusBadRequest, "invalid restaurant ID")
			return
		}
		if claims.RestaurantID != rid {
			log.Warn().
				Str("user_id", claims.UserID.String()).
				Str("token_restaurant", claims.RestaurantID.String()).
				Str("path_restaurant", rid.String()).
				Msg("cross-restaurant access refused")
			deny(w, http.StatusForbidden, "access denied for this restaurant")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireRole lets through staff holding any of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				deny(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				deny(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		log.Error().Err(err).Msg("encode JSON response")
	}
}
