package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestProfileFromCredential(t *testing.T) {
	token := sign(t, jwt.MapClaims{
		"name":    "Rahim Uddin",
		"email":   "rahim@example.com",
		"picture": "https://example.com/a.png",
	})

	p, err := ProfileFromCredential(token)
	require.NoError(t, err)
	assert.Equal(t, "Rahim Uddin", p.Name)
	assert.Equal(t, "rahim@example.com", p.Email)
	assert.Equal(t, "https://example.com/a.png", p.Picture)
}

func TestProfileFromCredential_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":    "",
		"garbage":  "not-a-token",
		"no email": sign(t, jwt.MapClaims{"name": "Nameless"}),
	}
	for name, credential := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ProfileFromCredential(credential)
			assert.ErrorIs(t, err, ErrInvalidCredential)
		})
	}
}
