package admin

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/planhive/planhive/internal/db"
)

// GET /admin/users
func ListUsers(c echo.Context) error {
    rows, err := db.Conn.Query(context.Background(),
        `SELECT id, name, email, role, COALESCE(is_active, TRUE), created_at
         FROM users ORDER BY created_at DESC`)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch users"})
    }
    defer rows.Close()

    var users []echo.Map
    for rows.Next() {
        var id, name, email, role string
        var isActive bool
        var createdAt time.Time
        if err := rows.Scan(&id, &name, &email, &role, &isActive, &createdAt); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse user"})
        }
        users = append(users, echo.Map{
            "id":         id,
            "name":       name,
            "email":      email,
            "role":       role,
            "is_active":  isActive,
            "created_at": createdAt,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// POST /admin/users/:id/suspend
func SuspendUser(c echo.Context) error {
    return setUserActive(c, false, "user suspended")
}

// POST /admin/users/:id/activate
func ActivateUser(c echo.Context) error {
    return setUserActive(c, true, "user activated")
}

func setUserActive(c echo.Context, active bool, message string) error {
    userID := c.Param("id")
    if userID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing user id"})
    }
    res, err := db.Conn.Exec(context.Background(),
        `UPDATE users SET is_active = $1 WHERE id = $2`, active, userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update user"})
    }
    if res.RowsAffected() == 0 {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": message})
}
