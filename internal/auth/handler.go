package auth

import (
    "context"
    "net/http"
    "os"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "golang.org/x/crypto/bcrypt"

    "github.com/planhive/planhive/internal/db"
)

type SignupRequest struct {
    Name     string `json:"name" validate:"required"`
    Email    string `json:"email" validate:"required,email"`
    Password string `json:"password" validate:"required,min=6"`
    Role     string `json:"role"`
}

type SignupResponse struct {
    Token string `json:"token"`
}

// ===== Signup =====
func Signup(c echo.Context) error {
    req := new(SignupRequest)
    if err := c.Bind(req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
    }

    // Users sign up as a client or a provider; admins are promoted offline
    role := req.Role
    if role == "" {
        role = "client"
    }
    if role != "client" && role != "provider" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be client or provider"})
    }

    hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
    }

    ctx := context.Background()
    var userID string
    err = db.Conn.QueryRow(ctx, `
        INSERT INTO users (id, name, email, password, role)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `, uuid.New().String(), req.Name, req.Email, string(hashed), role).Scan(&userID)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already exists or invalid role"})
    }

    signed, err := issueToken(userID, role)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
    }
    return c.JSON(http.StatusCreated, SignupResponse{Token: signed})
}

func issueToken(userID, role string) (string, error) {
    claims := jwt.MapClaims{
        "user_id": userID,
        "role":    role,
        "exp":     time.Now().Add(72 * time.Hour).Unix(),
    }
    token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}
