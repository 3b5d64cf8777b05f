// Trackline - Location Tracking and Sync Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackline

package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrUnauthenticated means no usable token is available. The host should
	// trigger a re-login.
	ErrUnauthenticated = errors.New("identity: unauthenticated")

	// ErrNoUserID means the provider cannot resolve a stable user identifier.
	ErrNoUserID = errors.New("identity: user id unavailable")
)

// Provider yields the bearer token and stable user identifier for remote
// calls. Both methods are called per request; implementations own any
// caching.
type Provider interface {
	Token(ctx context.Context) (string, error)
	UserID(ctx context.Context) (string, error)
}

// tokenClaims holds the registered claims Trackline reads from a token.
type tokenClaims struct {
	Subject   string
	ExpiresAt time.Time
}

// parseClaims reads sub and exp from a JWT without verifying its signature.
// The remote service verifies tokens; here they only identify the user and
// flag expiry early. ok is false for opaque (non-JWT) tokens.
func parseClaims(token string) (claims tokenClaims, ok bool) {
	if strings.Count(token, ".") != 2 {
		return tokenClaims{}, false
	}
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return tokenClaims{}, false
	}
	if sub, err := mc.GetSubject(); err == nil {
		claims.Subject = sub
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, true
}

// checkToken rejects empty tokens and JWTs whose exp has passed.
func checkToken(token string, now time.Time) error {
	if token == "" {
		return fmt.Errorf("%w: no token", ErrUnauthenticated)
	}
	claims, ok := parseClaims(token)
	if ok && !claims.ExpiresAt.IsZero() && !now.Before(claims.ExpiresAt) {
		return fmt.Errorf("%w: token expired at %s", ErrUnauthenticated, claims.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return nil
}

// unauthenticated marks err as an authentication failure while keeping the
// cause inspectable.
func unauthenticated(err error) error {
	return errors.Join(ErrUnauthenticated, err)
}

// subjectOf returns the sub claim of a JWT, or "" when there is none.
func subjectOf(token string) string {
	claims, _ := parseClaims(token)
	return claims.Subject
}
