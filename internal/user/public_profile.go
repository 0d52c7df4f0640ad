package user

import (
    "context"
    "errors"
    "net/http"

    "github.com/jackc/pgx/v5"
    "github.com/labstack/echo/v4"

    "github.com/planhive/planhive/internal/db"
)

// GET /user/:id/profile
// Read-only counterpart lookup for displaying the other side of a
// request; includes the provider's review aggregate.
func GetPublicProfile(c echo.Context) error {
    userID := c.Param("id")
    if userID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing user id"})
    }

    var u User
    err := db.Conn.QueryRow(context.Background(), `
        SELECT id, name, COALESCE(bio, ''), COALESCE(avatar_url, ''), role, created_at
        FROM users
        WHERE id = $1
    `, userID).Scan(&u.ID, &u.Name, &u.Bio, &u.AvatarURL, &u.Role, &u.CreatedAt)
    if err != nil {
        if errors.Is(err, pgx.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch user"})
    }

    resp := echo.Map{
        "id":         u.ID,
        "name":       u.Name,
        "bio":        u.Bio,
        "avatar_url": u.AvatarURL,
        "role":       u.Role,
        "created_at": u.CreatedAt,
    }

    if u.Role == "provider" {
        var total int
        var avg float64
        _ = db.Conn.QueryRow(context.Background(),
            `SELECT COUNT(*), COALESCE(AVG(rating), 0) FROM reviews WHERE provider_id = $1`,
            userID).Scan(&total, &avg)
        resp["total_reviews"] = total
        resp["average_rating"] = avg
    }

    return c.JSON(http.StatusOK, resp)
}
