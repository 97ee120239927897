package auth

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/tokens"
)

const (
	ContextKeyToken  = "user"
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "role"
)

// RequireAuth verifies the bearer access token and stores its subject and
// role on the echo context.
func RequireAuth(secret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:    secret,
		SigningMethod: "HS256",
		ContextKey:    ContextKeyToken,
		TokenLookup:   "header:Authorization:Bearer ",
		NewClaimsFunc: func(echo.Context) jwt.Claims {
			return new(tokens.AccessClaims)
		},
		SuccessHandler: func(c echo.Context) {
			tok, ok := c.Get(ContextKeyToken).(*jwt.Token)
			if !ok {
				return
			}
			if claims, ok := tok.Claims.(*tokens.AccessClaims); ok {
				c.Set(ContextKeyUserID, claims.Subject)
				c.Set(ContextKeyRole, claims.Role)
			}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var missing *echojwt.TokenExtractionError
			if errors.As(err, &missing) {
				return echo.NewHTTPError(http.StatusUnauthorized, "No token, authorization denied")
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "Token is not valid")
		},
	})
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextKeyRole).(string)
			for _, r := range roles {
				if r == role {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "Access denied")
		}
	}
}

// UserID returns the authenticated user, or an error when the context carries none.
func UserID(c echo.Context) (uuid.UUID, error) {
	s, ok := c.Get(ContextKeyUserID).(string)
	if !ok || s == "" {
		return uuid.Nil, errors.New("unauthorized")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errors.New("unauthorized")
	}
	return id, nil
}
