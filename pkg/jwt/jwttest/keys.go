// Package jwttest generates throwaway RSA keys for tests.
package jwttest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"

	"notes-api/pkg/jwt"
)

// EncodedKeys returns a fresh key pair as base64-encoded PEM strings, the
// format the server reads from its environment.
func EncodedKeys(tb testing.TB) (privateKey, publicKey string) {
	tb.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		tb.Fatalf("generate rsa key: %v", err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		tb.Fatalf("marshal public key: %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	return base64.StdEncoding.EncodeToString(privPEM), base64.StdEncoding.EncodeToString(pubPEM)
}

func NewKeyPair(tb testing.TB) *jwt.KeyPair {
	tb.Helper()

	priv, pub := EncodedKeys(tb)
	pair, err := jwt.LoadKeyPair(priv, pub)
	if err != nil {
		tb.Fatalf("load key pair: %v", err)
	}
	return pair
}
