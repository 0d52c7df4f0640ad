package admin

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/planhive/planhive/internal/marketplace"
)

// RequestHandler exposes admin moderation over the lifecycle engine
type RequestHandler struct {
    svc *marketplace.Service
}

func NewRequestHandler(svc *marketplace.Service) *RequestHandler {
    return &RequestHandler{svc: svc}
}

// GET /admin/requests — full listing, deleted rows included
func (h *RequestHandler) ListRequests(c echo.Context) error {
    rs, err := h.svc.ListAllRequestsAdmin(context.Background(), adminActor(c))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch requests"})
    }
    return c.JSON(http.StatusOK, echo.Map{"requests": rs})
}

// DELETE /admin/requests/:id — soft delete on behalf of moderation
func (h *RequestHandler) DeleteRequest(c echo.Context) error {
    err := h.svc.DeleteRequest(context.Background(), adminActor(c), c.Param("id"))
    if err != nil {
        switch marketplace.ErrKind(err) {
        case marketplace.KindNotFound:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
        case marketplace.KindInvalidState:
            return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "request already deleted"})
        default:
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete request"})
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "request deleted"})
}

func adminActor(c echo.Context) marketplace.Actor {
    id, _ := c.Get("user_id").(string)
    return marketplace.Actor{ID: id, Role: marketplace.RoleAdmin}
}
