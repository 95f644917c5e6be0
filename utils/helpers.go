package utils

import (
	"net/http"
	"strconv"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

// GetUserID extracts the authenticated user's database id from the validated
// token claims. The second return is false when the request carries no valid
// claims (route not behind the token middleware, or malformed subject).
func GetUserID(r *http.Request) (uint, bool) {
	claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(claims.RegisteredClaims.Subject, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}
