package middleware

import (
	"context"
	"net/http"
	"strings"

	"notes-api/pkg/jwt"
	"notes-api/pkg/logger"
	"notes-api/pkg/response"
)

type contextKey string

const UserIDKey contextKey = "userID"

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
	refreshTokenHeader = "X-Refresh-Token"
)

// TokenVerifier is the part of the token service the middleware needs.
type TokenVerifier interface {
	VerifyAccessToken(token string) jwt.VerifyResult
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

// AccessTokenFromRequest prefers the accessToken cookie over a bearer header.
func AccessTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(accessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}

	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RefreshTokenFromRequest prefers the refreshToken cookie over the
// X-Refresh-Token header.
func RefreshTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(refreshTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return strings.TrimSpace(r.Header.Get(refreshTokenHeader))
}

// DeserializeUser attaches the access token's subject to the request context.
// It never rejects a request: a missing, revoked or invalid token, or an
// unreachable revocation store, leaves the request anonymous.
func DeserializeUser(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := AccessTokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, ok := authenticate(r.Context(), verifier, token)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authenticate resolves a raw access token to a user id using the same rules
// as DeserializeUser.
func Authenticate(ctx context.Context, verifier TokenVerifier, token string) (string, bool) {
	if token == "" {
		return "", false
	}
	return authenticate(ctx, verifier, token)
}

func authenticate(ctx context.Context, verifier TokenVerifier, token string) (string, bool) {
	revoked, err := verifier.IsBlacklisted(ctx, token)
	if err != nil {
		logger.Log.Error().Err(err).Msg("token blacklist lookup failed")
		return "", false
	}
	if revoked {
		return "", false
	}

	result := verifier.VerifyAccessToken(token)
	if !result.Valid {
		return "", false
	}

	return result.Claims.UserID(), true
}

// RequireAuth answers 401 unless DeserializeUser found a user.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserID(r) == "" {
			response.Unauthorized(w, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func GetUserID(r *http.Request) string {
	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}
