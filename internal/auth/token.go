package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// modTokenTTL bounds a moderator login. Long enough for a review session,
// short enough that a leaked cookie goes stale.
const modTokenTTL = 12 * time.Hour

// CreateModToken mints a signed token asserting a moderator login for the
// given username. HMAC with the shared session secret, so every stateless
// worker can verify tokens minted by any other.
func CreateModToken(secret, username string) (string, error) {
	claims := jwt.MapClaims{
		"is_mod":       true,
		"mod_username": username,
		"exp":          time.Now().Add(modTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyModToken checks the signature and expiry of a moderator token and
// returns the username it asserts.
func VerifyModToken(secret, tokenString string) (string, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid jwt claims")
	}
	if isMod, _ := claims["is_mod"].(bool); !isMod {
		return "", fmt.Errorf("token does not assert moderator access")
	}
	username, ok := claims["mod_username"].(string)
	if !ok || username == "" {
		return "", fmt.Errorf("missing mod_username in token")
	}
	return username, nil
}
