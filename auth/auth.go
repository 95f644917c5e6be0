package auth

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/kotoba-app/kotoba-api/config"
)

// Token claims are validated by the middleware against these values.
const (
	Issuer     = "kotoba-api"
	Audience   = "kotoba-app"
	CookieName = "auth_token"

	tokenLifetime = 24 * time.Hour
)

// SecretKey reads the HS256 signing key from the environment.
func SecretKey() ([]byte, error) {
	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY not set")
	}
	return []byte(secret), nil
}

// CreateToken mints a signed session token for a user. The subject carries
// the user's database id; handlers never trust any other identity source.
func CreateToken(userID uint, email string) (string, error) {
	secretKey, err := SecretKey()
	if err != nil {
		return "", err
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{
			"iss":   Issuer,
			"aud":   Audience,
			"sub":   strconv.FormatUint(uint64(userID), 10),
			"email": email,
			"iat":   now.Unix(),
			"exp":   now.Add(tokenLifetime).Unix(),
		})

	return token.SignedString(secretKey)
}

// HashPassword returns the bcrypt hash stored on the user row.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// SetAuthCookie attaches the session token to the response.
func SetAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Domain:   config.Env.Domain,
		MaxAge:   int(tokenLifetime.Seconds()),
		HttpOnly: true,
		Secure:   config.Env.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearAuthCookie expires the session cookie on signout.
func ClearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Domain:   config.Env.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.Env.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
