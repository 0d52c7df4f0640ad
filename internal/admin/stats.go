package admin

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/planhive/planhive/internal/db"
)

// GET /admin/stats
func Stats(c echo.Context) error {
    ctx := context.Background()

    var users, requests, pitches, payments, reviews int

    _ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&users)
    _ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM requests`).Scan(&requests)
    _ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM pitches`).Scan(&pitches)
    _ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM payments`).Scan(&payments)
    _ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM reviews`).Scan(&reviews)

    return c.JSON(http.StatusOK, echo.Map{
        "users":    users,
        "requests": requests,
        "pitches":  pitches,
        "payments": payments,
        "reviews":  reviews,
    })
}
