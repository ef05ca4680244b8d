package providers

import (
	"context"
	"fmt"
)

var _ AuthProvider = &StaticAuthProvider{}

// StaticAuthProvider resolves tokens from a fixed map. For local
// development and tests only.
type StaticAuthProvider struct {
	tokens map[string]TokenClaims
}

func NewStaticAuthProvider(tokens map[string]TokenClaims) *StaticAuthProvider {
	return &StaticAuthProvider{
		tokens: tokens,
	}
}

func (p *StaticAuthProvider) VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error) {
	claims, ok := p.tokens[idToken]
	if !ok {
		return nil, fmt.Errorf("unknown token")
	}
	return &claims, nil
}
