package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/arenaops/scoreboard/internal/infrastructure/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsContextKey is the context key for the validated token claims.
	ClaimsContextKey contextKey = "auth_claims"
)

// AuthConfig holds authentication middleware configuration.
type AuthConfig struct {
	// JWTValidator validates bearer tokens. required.
	JWTValidator *auth.JWTValidator

	// Skipper defines a function to skip auth for certain routes.
	Skipper func(c echo.Context) bool
}

// AuthMiddleware validates the Authorization bearer token and stores
// the claims in context. requests without a valid token are rejected.
func AuthMiddleware(config AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper != nil && config.Skipper(c) {
				return next(c)
			}

			token := auth.ExtractBearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			claims, err := config.JWTValidator.ValidateToken(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			c.Set(string(ClaimsContextKey), claims)
			return next(c)
		}
	}
}

// OptionalAuthMiddleware validates the bearer token if one is present
// but lets anonymous requests through. read endpoints work either way;
// individual handlers gate writes on the claims.
func OptionalAuthMiddleware(config AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := auth.ExtractBearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if token != "" {
				claims, err := config.JWTValidator.ValidateToken(token)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
				}
				c.Set(string(ClaimsContextKey), claims)
			}

			return next(c)
		}
	}
}

// GetClaims retrieves the validated token claims from context.
// returns nil for anonymous requests.
func GetClaims(c echo.Context) *auth.DashboardClaims {
	if val := c.Get(string(ClaimsContextKey)); val != nil {
		if claims, ok := val.(*auth.DashboardClaims); ok {
			return claims
		}
	}
	return nil
}

// RequireAuth returns the claims or a 401 error for anonymous requests.
func RequireAuth(c echo.Context) (*auth.DashboardClaims, error) {
	claims := GetClaims(c)
	if claims == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return claims, nil
}

// PublicRoutesSkipper returns a skipper function that skips auth for public routes.
func PublicRoutesSkipper(publicPaths ...string) func(echo.Context) bool {
	pathSet := make(map[string]bool)
	for _, p := range publicPaths {
		pathSet[p] = true
	}

	return func(c echo.Context) bool {
		return pathSet[c.Path()]
	}
}
