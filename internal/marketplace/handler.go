package marketplace

import (
    "context"
    "log"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/planhive/planhive/internal/alerts"
)

// Handler adapts the Service to echo. Handlers bind, delegate, map the
// error kind to one HTTP status, and fire best-effort notifications after
// the mutation has committed.
type Handler struct {
    svc *Service
}

func NewHandler(svc *Service) *Handler {
    return &Handler{svc: svc}
}

func actorFrom(c echo.Context) (Actor, bool) {
    id, _ := c.Get("user_id").(string)
    role, _ := c.Get("role").(string)
    if id == "" {
        return Actor{}, false
    }
    return Actor{ID: id, Role: role}, true
}

// writeError maps the typed error taxonomy onto HTTP once, for every
// handler. Untyped errors are logged and hidden behind a 500.
func writeError(c echo.Context, err error) error {
    var status int
    switch ErrKind(err) {
    case KindValidation:
        status = http.StatusBadRequest
    case KindUnauthorized:
        status = http.StatusForbidden
    case KindNotFound:
        status = http.StatusNotFound
    case KindInvalidState:
        status = http.StatusUnprocessableEntity
    case KindConflict:
        status = http.StatusConflict
    default:
        log.Printf("internal error on %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
    e := err.(*Error)
    return c.JSON(status, echo.Map{"error": e.Message, "kind": e.Kind})
}

// ===== Requests =====

func (h *Handler) CreateRequest(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var in CreateRequestInput
    if err := c.Bind(&in); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    r, err := h.svc.CreateRequest(context.Background(), actor, in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, r)
}

func (h *Handler) UpdateRequest(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var in UpdateRequestInput
    if err := c.Bind(&in); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    r, err := h.svc.UpdateRequest(context.Background(), actor, c.Param("id"), in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, r)
}

func (h *Handler) PublishRequest(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    r, err := h.svc.PublishRequest(context.Background(), actor, c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, r)
}

func (h *Handler) CancelRequest(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    r, err := h.svc.CancelRequest(context.Background(), actor, c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, r)
}

func (h *Handler) DeleteRequest(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if err := h.svc.DeleteRequest(context.Background(), actor, c.Param("id")); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "request deleted"})
}

func (h *Handler) ListOpenRequests(c echo.Context) error {
    rs, err := h.svc.ListOpenRequests(context.Background())
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"requests": rs})
}

func (h *Handler) ListMyRequests(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    rs, err := h.svc.ListMyRequests(context.Background(), actor)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"requests": rs})
}

func (h *Handler) GetRequest(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    r, pitches, err := h.svc.GetRequestDetail(context.Background(), actor, c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"request": r, "pitches": pitches})
}

// ===== Pitches =====

func (h *Handler) SubmitPitch(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var in SubmitPitchInput
    if err := c.Bind(&in); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    p, err := h.svc.SubmitPitch(context.Background(), actor, c.Param("id"), in)
    if err != nil {
        return writeError(c, err)
    }
    _ = alerts.EnqueuePitchReceived(p.RequestID, p.ID, p.ProviderID, p.ProposedPrice)
    return c.JSON(http.StatusCreated, p)
}

func (h *Handler) WithdrawPitch(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if err := h.svc.WithdrawPitch(context.Background(), actor, c.Param("id")); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "pitch withdrawn"})
}

func (h *Handler) ListMyPitches(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ps, err := h.svc.ListMyPitches(context.Background(), actor)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"pitches": ps})
}

// ===== Assignment and completion =====

type assignRequest struct {
    PitchID string `json:"pitch_id"`
}

func (h *Handler) AssignWinner(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var in assignRequest
    if err := c.Bind(&in); err != nil || in.PitchID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "pitch_id is required"})
    }
    r, pitches, err := h.svc.AssignWinner(context.Background(), actor, c.Param("id"), in.PitchID)
    if err != nil {
        return writeError(c, err)
    }
    _ = alerts.EnqueueWinnerAssigned(r.ID, r.AssignedProviderID, r.Budget)
    for _, p := range pitches {
        if p.Status == PitchLose {
            _ = alerts.EnqueuePitchLost(r.ID, p.ID, p.ProviderID)
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"request": r, "pitches": pitches})
}

func (h *Handler) CompleteRequest(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    r, err := h.svc.CompleteRequest(context.Background(), actor, c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    _ = alerts.EnqueueRequestCompleted(r.ID, r.ClientID, r.AssignedProviderID, r.Budget)
    return c.JSON(http.StatusOK, r)
}

// ===== Payments =====

type initiatePaymentRequest struct {
    Amount int64 `json:"amount"`
}

func (h *Handler) InitiatePayment(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var in initiatePaymentRequest
    if err := c.Bind(&in); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    p, err := h.svc.InitiatePayment(context.Background(), actor, c.Param("id"), in.Amount)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, p)
}

func (h *Handler) CapturePayment(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    p, err := h.svc.CapturePayment(context.Background(), actor, c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    _ = alerts.EnqueuePaymentCaptured(p.RequestID, p.ClientID, p.ProviderID, p.Amount)
    _ = alerts.EnqueueReviewPrompt(p.RequestID, p.ClientID, p.ProviderID)
    return c.JSON(http.StatusOK, p)
}

func (h *Handler) FailPayment(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    p, err := h.svc.FailPayment(context.Background(), actor, c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPaymentStatus(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    status, p, err := h.svc.PaymentStatus(context.Background(), actor, c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"status": status, "payment": p})
}

// ===== Reviews =====

func (h *Handler) SubmitReview(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var in SubmitReviewInput
    if err := c.Bind(&in); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    review, err := h.svc.SubmitReview(context.Background(), actor, c.Param("id"), in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, review)
}

func (h *Handler) GetReview(c echo.Context) error {
    actor, ok := actorFrom(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    review, err := h.svc.GetReview(context.Background(), actor, c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, review)
}
