package middleware

import (
	"context"
	"log"
	"net/http"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"

	"github.com/kotoba-app/kotoba-api/auth"
)

// CustomClaims carries the non-registered claims we mint into tokens.
type CustomClaims struct {
	Email string `json:"email"`
}

// Validate satisfies validator.CustomClaims.
func (c *CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// EnsureValidToken validates the auth cookie on every request and puts the
// verified claims into the request context. Requests without a valid token
// are rejected before any handler runs.
func EnsureValidToken() func(next http.Handler) http.Handler {
	jwtValidator, err := validator.New(
		func(ctx context.Context) (interface{}, error) {
			key, err := auth.SecretKey()
			if err != nil {
				return nil, err
			}
			return key, nil
		},
		validator.HS256,
		auth.Issuer,
		[]string{auth.Audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
	)
	if err != nil {
		log.Fatalf("failed to set up token validator: %v", err)
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}

	jwtMiddleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithTokenExtractor(jwtmiddleware.CookieTokenExtractor(auth.CookieName)),
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return jwtMiddleware.CheckJWT
}
