// Package auth maps a sign-in credential onto the shop owner's profile.
//
// The browser sign-in widget hands back a Google ID token. Its payload is
// decoded without signature verification: the token only labels the
// session (name, email, avatar) and grants no access to ledger data.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/warp/shop-ledger/ledger"
)

// ErrInvalidCredential is returned for malformed tokens or tokens without an email.
var ErrInvalidCredential = errors.New("invalid sign-in credential")

// ProfileFromCredential decodes the token's name, email and picture claims.
func ProfileFromCredential(credential string) (ledger.UserProfile, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return ledger.UserProfile{}, fmt.Errorf("%w: empty", ErrInvalidCredential)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return ledger.UserProfile{}, fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}

	profile := ledger.UserProfile{
		Name:    stringClaim(claims, "name"),
		Email:   stringClaim(claims, "email"),
		Picture: stringClaim(claims, "picture"),
	}
	if profile.Email == "" {
		return ledger.UserProfile{}, fmt.Errorf("%w: no email claim", ErrInvalidCredential)
	}
	return profile, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
