package jwt

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims carries the user id in the standard "sub" claim and a random "jti".
type Claims struct {
	gojwt.RegisteredClaims
}

func (c *Claims) UserID() string {
	return c.Subject
}

// VerifyResult reports the outcome of a verification. Claims is nil whenever
// Valid is false; Expired is only set when expiry was the reason.
type VerifyResult struct {
	Claims  *Claims
	Valid   bool
	Expired bool
}

// KeyPair holds the RSA keys of one token kind (access or refresh).
type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// LoadKeyPair decodes a private/public PEM pair. Each value may be either the
// PEM text itself or its base64 encoding, which is how keys are usually put in
// environment variables.
func LoadKeyPair(privateKey, publicKey string) (*KeyPair, error) {
	priv, err := ParsePrivateKey(privateKey)
	if err != nil {
		return nil, err
	}

	pub, err := ParsePublicKey(publicKey)
	if err != nil {
		return nil, err
	}

	return &KeyPair{Private: priv, Public: pub}, nil
}

func ParsePrivateKey(encoded string) (*rsa.PrivateKey, error) {
	pemBytes, err := decodePEM(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode private key: %w", err)
	}

	key, err := gojwt.ParseRSAPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return key, nil
}

func ParsePublicKey(encoded string) (*rsa.PublicKey, error) {
	pemBytes, err := decodePEM(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key: %w", err)
	}

	key, err := gojwt.ParseRSAPublicKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	return key, nil
}

func decodePEM(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, errors.New("empty key")
	}

	if strings.HasPrefix(encoded, "-----BEGIN") {
		return []byte(encoded), nil
	}

	return base64.StdEncoding.DecodeString(encoded)
}

// GenerateToken signs an RS256 token for subject that expires after expiration.
func GenerateToken(subject string, expiration time.Duration, key *rsa.PrivateKey) (string, error) {
	if key == nil {
		return "", errors.New("signing key is nil")
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.New().String(),
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(expiration)),
		},
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// ValidateToken checks signature and expiry and returns the claims.
// The error wraps ErrTokenExpired or ErrTokenInvalid.
func ValidateToken(tokenString string, key *rsa.PublicKey) (*Claims, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: verification key is nil", ErrTokenInvalid)
	}

	claims := &Claims{}
	token, err := gojwt.ParseWithClaims(tokenString, claims,
		func(t *gojwt.Token) (interface{}, error) {
			return key, nil
		},
		gojwt.WithValidMethods([]string{gojwt.SigningMethodRS256.Alg()}),
		gojwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, gojwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// Verify is ValidateToken folded into a result value, for callers that only
// branch on valid/expired and treat every failure as "no user".
func Verify(tokenString string, key *rsa.PublicKey) VerifyResult {
	claims, err := ValidateToken(tokenString, key)
	if err != nil {
		return VerifyResult{
			Claims:  nil,
			Valid:   false,
			Expired: errors.Is(err, ErrTokenExpired),
		}
	}

	return VerifyResult{Claims: claims, Valid: true}
}
