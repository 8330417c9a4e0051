package auth

import (
	"context"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// Session is an authenticated session issued by the platform.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    int64     `json:"expires_at"`
	User         *UserInfo `json:"-"`
}

// Expiry returns ExpiresAt as a time, falling back to the token's exp claim.
func (s Session) Expiry() (time.Time, error) {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0), nil
	}
	return TokenExpiry(s.AccessToken)
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
func TokenExpiry(token string) (time.Time, error) {
	claims := &gojwt.RegisteredClaims{}
	if _, _, err := gojwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("auth: parse token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("auth: token has no exp claim")
	}
	return claims.ExpiresAt.Time, nil
}

// TokenExpired reports whether token is expired at now. Unreadable tokens
// count as expired.
func TokenExpired(token string, now time.Time) bool {
	exp, err := TokenExpiry(token)
	if err != nil {
		return true
	}
	return !now.Before(exp)
}

// IsAuthenticated reports whether token is present and not yet expired.
func IsAuthenticated(token string) bool {
	return token != "" && !TokenExpired(token, time.Now())
}

type userKey struct{}

// WithUser stores the signed-in user in ctx.
func WithUser(ctx context.Context, info *UserInfo) context.Context {
	return context.WithValue(ctx, userKey{}, info)
}

// UserFromContext returns the user stored by WithUser.
func UserFromContext(ctx context.Context) (*UserInfo, bool) {
	info, ok := ctx.Value(userKey{}).(*UserInfo)
	return info, ok && info != nil
}
