package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

var secret = []byte("test-secret")

func newServer() *echo.Echo {
	e := echo.New()
	g := e.Group("", RequireAuth(secret))
	g.GET("/me", func(c echo.Context) error {
		id, err := UserID(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		return c.String(http.StatusOK, id.String())
	})
	g.GET("/admin", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireRole(models.RoleAdmin))
	return e
}

func do(t *testing.T, e *echo.Echo, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()
	e := newServer()
	uid := uuid.New()

	good, _, err := tokens.IssueAccess(secret, uid, models.RoleUser, time.Hour)
	require.NoError(t, err)
	expired, _, err := tokens.IssueAccess(secret, uid, models.RoleUser, -time.Minute)
	require.NoError(t, err)
	forged, _, err := tokens.IssueAccess([]byte("other"), uid, models.RoleUser, time.Hour)
	require.NoError(t, err)

	rec := do(t, e, "/me", good)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uid.String(), rec.Body.String())

	for name, tok := range map[string]string{"missing": "", "expired": expired, "forged": forged, "garbage": "abc"} {
		rec := do(t, e, "/me", tok)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()
	e := newServer()

	user, _, err := tokens.IssueAccess(secret, uuid.New(), models.RoleUser, time.Hour)
	require.NoError(t, err)
	admin, _, err := tokens.IssueAccess(secret, uuid.New(), models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, do(t, e, "/admin", user).Code)
	assert.Equal(t, http.StatusOK, do(t, e, "/admin", admin).Code)
}
