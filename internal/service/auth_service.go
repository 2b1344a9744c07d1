package service

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"time"

	"notes-api/internal/domain"
	"notes-api/internal/repository"
	"notes-api/pkg/hash"
	"notes-api/pkg/jwt"
	"notes-api/pkg/logger"
	"notes-api/pkg/redact"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

type TokenConfig struct {
	AccessKeys   *jwt.KeyPair
	RefreshKeys  *jwt.KeyPair
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	CookieDomain string
	CookiePath   string
	// Production switches cookies to Secure and SameSite=Strict.
	Production bool
}

// AuthService issues, verifies and revokes tokens and runs the signup,
// login and logout flows.
type AuthService struct {
	users     *UserService
	blacklist repository.TokenBlacklist
	cfg       TokenConfig
}

func NewAuthService(users *UserService, blacklist repository.TokenBlacklist, cfg TokenConfig) *AuthService {
	if cfg.CookiePath == "" {
		cfg.CookiePath = "/"
	}
	return &AuthService{
		users:     users,
		blacklist: blacklist,
		cfg:       cfg,
	}
}

func (s *AuthService) SignAccessToken(user *domain.User) (string, error) {
	token, err := jwt.GenerateToken(user.ID, s.cfg.AccessTTL, s.cfg.AccessKeys.Private)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return token, nil
}

func (s *AuthService) SignRefreshToken(userID string) (string, error) {
	token, err := jwt.GenerateToken(userID, s.cfg.RefreshTTL, s.cfg.RefreshKeys.Private)
	if err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return token, nil
}

func (s *AuthService) VerifyToken(publicKey *rsa.PublicKey, token string) jwt.VerifyResult {
	return jwt.Verify(token, publicKey)
}

func (s *AuthService) VerifyAccessToken(token string) jwt.VerifyResult {
	return s.VerifyToken(s.cfg.AccessKeys.Public, token)
}

func (s *AuthService) VerifyRefreshToken(token string) jwt.VerifyResult {
	return s.VerifyToken(s.cfg.RefreshKeys.Public, token)
}

// ReissueAccessToken trades a valid refresh token for a new access token.
// Every failure yields ("", false).
func (s *AuthService) ReissueAccessToken(ctx context.Context, refreshToken string) (string, bool) {
	result := s.VerifyRefreshToken(refreshToken)
	if !result.Valid {
		logger.Log.Debug().Bool("expired", result.Expired).Msg("refresh token rejected")
		return "", false
	}

	user, err := s.users.GetByID(ctx, result.Claims.UserID())
	if err != nil {
		logger.Log.Warn().Err(err).Str("user_id", result.Claims.UserID()).Msg("refresh for unknown user")
		return "", false
	}

	token, err := s.SignAccessToken(user)
	if err != nil {
		logger.Log.Error().Err(err).Str("user_id", user.ID).Msg("failed to reissue access token")
		return "", false
	}

	return token, true
}

// SetTokens writes the access cookie and, when refresh is non-empty, the
// refresh cookie.
func (s *AuthService) SetTokens(w http.ResponseWriter, access, refresh string) {
	http.SetCookie(w, s.cookie(AccessTokenCookie, access, int(s.cfg.AccessTTL.Seconds())))
	if refresh != "" {
		http.SetCookie(w, s.cookie(RefreshTokenCookie, refresh, int(s.cfg.RefreshTTL.Seconds())))
	}
}

// ClearTokens expires both cookies.
func (s *AuthService) ClearTokens(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie(AccessTokenCookie, "", -1))
	http.SetCookie(w, s.cookie(RefreshTokenCookie, "", -1))
}

func (s *AuthService) cookie(name, value string, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if s.cfg.Production {
		sameSite = http.SameSiteStrictMode
	}

	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     s.cfg.CookiePath,
		Domain:   s.cfg.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cfg.Production,
		SameSite: sameSite,
	}
}

func (s *AuthService) Signup(ctx context.Context, req *domain.SignupRequest) (*domain.TokenPair, error) {
	user, err := s.users.CreateUser(ctx, req)
	if err != nil {
		return nil, err
	}

	return s.issuePair(user)
}

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			logger.Log.Info().Str("email", redact.Email(req.Email)).Msg("login for unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := hash.Compare(user.Password, req.Password); err != nil {
		logger.Log.Info().Str("user_id", user.ID).Msg("login with wrong password")
		return nil, ErrInvalidCredentials
	}

	return s.issuePair(user)
}

func (s *AuthService) issuePair(user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := s.SignAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.SignRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Logout revokes accessToken, but only when refreshToken proves the caller
// holds a live session. Anything else is a no-op.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	result := s.VerifyRefreshToken(refreshToken)
	if !result.Valid || accessToken == "" {
		return nil
	}

	if err := s.blacklist.Add(ctx, accessToken); err != nil {
		return fmt.Errorf("failed to revoke access token: %w", err)
	}

	logger.Log.Info().Str("user_id", result.Claims.UserID()).Msg("access token revoked")
	return nil
}

func (s *AuthService) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return s.blacklist.Contains(ctx, token)
}
