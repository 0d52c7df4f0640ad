package auth

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"
    "golang.org/x/crypto/bcrypt"

    "github.com/planhive/planhive/internal/db"
)

type LoginRequest struct {
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
    Token string `json:"token"`
}

// ===== Login =====
func Login(c echo.Context) error {
    req := new(LoginRequest)
    if err := c.Bind(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
    }

    ctx := context.Background()
    var (
        userID   string
        password string
        role     string
        isActive bool
    )
    err := db.Conn.QueryRow(ctx, `
        SELECT id, password, role, COALESCE(is_active, TRUE) FROM users WHERE email = $1
    `, req.Email).Scan(&userID, &password, &role, &isActive)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    if !isActive {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "account suspended"})
    }
    if err := bcrypt.CompareHashAndPassword([]byte(password), []byte(req.Password)); err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }

    signed, err := issueToken(userID, role)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
    }
    return c.JSON(http.StatusOK, LoginResponse{Token: signed})
}
