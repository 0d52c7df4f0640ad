package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
    t.Helper()
    token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    s, err := token.SignedString([]byte(testSecret))
    require.NoError(t, err)
    return s
}

func runJWT(t *testing.T, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
    t.Helper()
    req := httptest.NewRequest(http.MethodGet, "/", nil)
    if authHeader != "" {
        req.Header.Set("Authorization", authHeader)
    }
    rec := httptest.NewRecorder()
    c := echo.New().NewContext(req, rec)

    next := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
    require.NoError(t, JWTMiddleware(next)(c))
    return rec, c
}

func TestJWTMiddlewareValidToken(t *testing.T) {
    t.Setenv("JWT_SECRET", testSecret)
    token := signToken(t, jwt.MapClaims{
        "user_id": "u1",
        "role":    "client",
        "exp":     time.Now().Add(time.Hour).Unix(),
    })

    rec, c := runJWT(t, "Bearer "+token)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "u1", c.Get("user_id"))
    assert.Equal(t, "client", c.Get("role"))
}

func TestJWTMiddlewareMissingHeader(t *testing.T) {
    t.Setenv("JWT_SECRET", testSecret)
    rec, _ := runJWT(t, "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddlewareBadFormat(t *testing.T) {
    t.Setenv("JWT_SECRET", testSecret)
    rec, _ := runJWT(t, "Token abc")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddlewareExpiredToken(t *testing.T) {
    t.Setenv("JWT_SECRET", testSecret)
    token := signToken(t, jwt.MapClaims{
        "user_id": "u1",
        "role":    "client",
        "exp":     time.Now().Add(-time.Hour).Unix(),
    })
    rec, _ := runJWT(t, "Bearer "+token)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddlewareWrongSecret(t *testing.T) {
    t.Setenv("JWT_SECRET", "another-secret")
    token := signToken(t, jwt.MapClaims{
        "user_id": "u1",
        "exp":     time.Now().Add(time.Hour).Unix(),
    })
    rec, _ := runJWT(t, "Bearer "+token)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddlewareMissingUserID(t *testing.T) {
    t.Setenv("JWT_SECRET", testSecret)
    token := signToken(t, jwt.MapClaims{
        "role": "client",
        "exp":  time.Now().Add(time.Hour).Unix(),
    })
    rec, _ := runJWT(t, "Bearer "+token)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
