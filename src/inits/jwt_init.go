package inits

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

// EnsureValidToken builds the middleware that verifies bearer tokens against
// the identity provider and stores the validated claims on the request
// context. The claims subject is the userId every handler keys on; the
// service itself never issues or refreshes tokens.
func EnsureValidToken(issuer string, audiences []string) (func(http.Handler) http.Handler, error) {
	issuerURL, err := url.Parse(issuer)
	if err != nil {
		return nil, fmt.Errorf("parse issuer url: %w", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)
	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		audiences,
	)
	if err != nil {
		return nil, fmt.Errorf("set up jwt validator: %w", err)
	}

	middleware := jwtmiddleware.New(jwtValidator.ValidateToken)
	return middleware.CheckJWT, nil
}
