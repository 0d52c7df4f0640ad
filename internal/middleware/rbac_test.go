package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func runWithRole(t *testing.T, mw echo.MiddlewareFunc, role string) *httptest.ResponseRecorder {
    t.Helper()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    rec := httptest.NewRecorder()
    c := echo.New().NewContext(req, rec)
    if role != "" {
        c.Set("role", role)
    }
    next := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
    require.NoError(t, mw(next)(c))
    return rec
}

func TestRequireRoles(t *testing.T) {
    mw := RequireRoles("client", "admin")

    assert.Equal(t, http.StatusOK, runWithRole(t, mw, "client").Code)
    assert.Equal(t, http.StatusOK, runWithRole(t, mw, "admin").Code)
    assert.Equal(t, http.StatusForbidden, runWithRole(t, mw, "provider").Code)
    assert.Equal(t, http.StatusForbidden, runWithRole(t, mw, "").Code)
}

func TestAdminGuard(t *testing.T) {
    assert.Equal(t, http.StatusOK, runWithRole(t, AdminGuard, "admin").Code)
    assert.Equal(t, http.StatusForbidden, runWithRole(t, AdminGuard, "client").Code)
    assert.Equal(t, http.StatusForbidden, runWithRole(t, AdminGuard, "").Code)
}
