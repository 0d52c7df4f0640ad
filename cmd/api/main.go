package main

import (
    "context"
    "log"
    "net/http"
    "os"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    "github.com/labstack/echo/v4/middleware"

    "github.com/planhive/planhive/internal/admin"
    "github.com/planhive/planhive/internal/alerts"
    "github.com/planhive/planhive/internal/auth"
    "github.com/planhive/planhive/internal/db"
    "github.com/planhive/planhive/internal/marketplace"
    appmw "github.com/planhive/planhive/internal/middleware"
    "github.com/planhive/planhive/internal/user"
)

func main() {
    _ = godotenv.Load()

    // STORE=memory runs the engine without Postgres, for local hacking
    var store marketplace.Store
    if os.Getenv("STORE") == "memory" {
        store = marketplace.NewMemStore()
        log.Println("Using in-memory store")
    } else {
        db.Init()
        store = marketplace.NewPGStore(db.Conn)
    }
    alerts.Init()

    svc := marketplace.NewService(store)
    market := marketplace.NewHandler(svc)
    adminRequests := admin.NewRequestHandler(svc)

    e := echo.New()
    e.HideBanner = true
    e.Use(middleware.Logger())
    e.Use(middleware.Recover())

    // Health
    e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
    e.GET("/ready", func(c echo.Context) error {
        if db.Conn != nil {
            if err := db.Conn.Ping(context.Background()); err != nil {
                return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
            }
        }
        return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
    })

    // Public auth routes with per-IP rate limiting
    authGroup := e.Group("/auth")
    authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
    authGroup.POST("/signup", auth.Signup)
    authGroup.POST("/login", auth.Login)

    e.GET("/user/:id/profile", user.GetPublicProfile)
    e.GET("/marketplace/requests", market.ListOpenRequests) // public discovery

    // Authenticated group
    g := e.Group("")
    g.Use(appmw.JWTMiddleware)

    g.GET("/auth/me", auth.Me)

    // Requests
    g.POST("/marketplace/requests", market.CreateRequest, appmw.RequireRoles("client"))
    g.GET("/marketplace/requests/me", market.ListMyRequests)
    g.GET("/marketplace/requests/:id", market.GetRequest)
    g.PATCH("/marketplace/requests/:id", market.UpdateRequest)
    g.POST("/marketplace/requests/:id/publish", market.PublishRequest)
    g.POST("/marketplace/requests/:id/cancel", market.CancelRequest)
    g.DELETE("/marketplace/requests/:id", market.DeleteRequest)

    // Pitches
    g.POST("/marketplace/requests/:id/pitches", market.SubmitPitch, appmw.RequireRoles("provider"))
    g.GET("/marketplace/pitches/me", market.ListMyPitches)
    g.DELETE("/marketplace/pitches/:id", market.WithdrawPitch)

    // Assignment and completion
    g.POST("/marketplace/requests/:id/assign", market.AssignWinner, appmw.RequireRoles("client"))
    g.POST("/marketplace/requests/:id/complete", market.CompleteRequest)

    // Payments
    g.POST("/marketplace/requests/:id/payments", market.InitiatePayment, appmw.RequireRoles("client"))
    g.GET("/marketplace/requests/:id/payment", market.GetPaymentStatus)
    g.POST("/marketplace/payments/:id/capture", market.CapturePayment)
    g.POST("/marketplace/payments/:id/fail", market.FailPayment)

    // Reviews
    g.POST("/marketplace/requests/:id/review", market.SubmitReview, appmw.RequireRoles("client"))
    g.GET("/marketplace/requests/:id/review", market.GetReview)

    // Notifications
    g.GET("/notifications", alerts.ListNotifications)
    g.POST("/notifications/:id/read", alerts.MarkNotificationRead)

    // Admin routes
    adminGroup := e.Group("/admin")
    adminGroup.Use(appmw.JWTMiddleware)
    adminGroup.Use(appmw.AdminGuard)
    adminGroup.GET("/stats", admin.Stats)
    adminGroup.GET("/requests", adminRequests.ListRequests)
    adminGroup.DELETE("/requests/:id", adminRequests.DeleteRequest)
    adminGroup.GET("/users", admin.ListUsers)
    adminGroup.POST("/users/:id/suspend", admin.SuspendUser)
    adminGroup.POST("/users/:id/activate", admin.ActivateUser)

    port := os.Getenv("PORT")
    if port == "" {
        port = "8080"
    }
    log.Printf("API server listening on :%s", port)
    if err := e.Start(":" + port); err != nil {
        log.Fatalf("server error: %v", err)
    }
}
