package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwks"
	"github.com/clerk/clerk-sdk-go/v2/jwt"
)

// ClerkAuthenticator verifies Clerk session tokens against the instance JWKS.
type ClerkAuthenticator struct {
	jwksClient *jwks.Client

	mu   sync.RWMutex
	keys map[string]*clerk.JSONWebKey
}

func NewClerkAuthenticator(secretKey string) *ClerkAuthenticator {
	return &ClerkAuthenticator{
		jwksClient: jwks.NewClient(&clerk.ClientConfig{
			BackendConfig: clerk.BackendConfig{Key: clerk.String(secretKey)},
		}),
		keys: make(map[string]*clerk.JSONWebKey),
	}
}

// Authenticate implements Authenticator.
func (a *ClerkAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthenticated
	}

	unverified, err := jwt.Decode(ctx, &jwt.DecodeParams{Token: token})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	jwk, err := a.jsonWebKey(ctx, unverified.KeyID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	claims, err := jwt.Verify(ctx, &jwt.VerifyParams{Token: token, JWK: jwk})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	return claims.Subject, nil
}

func (a *ClerkAuthenticator) jsonWebKey(ctx context.Context, keyID string) (*clerk.JSONWebKey, error) {
	a.mu.RLock()
	jwk, ok := a.keys[keyID]
	a.mu.RUnlock()
	if ok {
		return jwk, nil
	}

	jwk, err := jwt.GetJSONWebKey(ctx, &jwt.GetJSONWebKeyParams{
		KeyID:      keyID,
		JWKSClient: a.jwksClient,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch signing key: %w", err)
	}

	a.mu.Lock()
	a.keys[keyID] = jwk
	a.mu.Unlock()
	return jwk, nil
}
