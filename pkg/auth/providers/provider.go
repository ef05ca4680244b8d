package providers

import "context"

// AuthProvider verifies opaque identity tokens. The engine itself never
// validates credentials; it only consumes the stable user identifier
// and display name the provider vouches for.
type AuthProvider interface {
	VerifyToken(ctx context.Context, idToken string) (*TokenClaims, error)
}

type TokenClaims struct {
	UID  string `json:"uid"`
	Name string `json:"name,omitempty"`
}
