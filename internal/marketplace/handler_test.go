package marketplace

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func newHandlerTest() (*Handler, *Service) {
    svc := newTestService()
    return NewHandler(svc), svc
}

// call builds an echo context, runs the handler, and returns the recorder.
func call(t *testing.T, h echo.HandlerFunc, method, body string, actor *Actor, paramID string) *httptest.ResponseRecorder {
    t.Helper()
    req := httptest.NewRequest(method, "/", strings.NewReader(body))
    if body != "" {
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    rec := httptest.NewRecorder()
    c := echo.New().NewContext(req, rec)
    if actor != nil {
        c.Set("user_id", actor.ID)
        c.Set("role", actor.Role)
    }
    if paramID != "" {
        c.SetParamNames("id")
        c.SetParamValues(paramID)
    }
    require.NoError(t, h(c))
    return rec
}

func TestHandlerRequiresActor(t *testing.T) {
    h, _ := newHandlerTest()
    rec := call(t, h.CreateRequest, http.MethodPost, `{"budget":100}`, nil, "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerCreateRequest(t *testing.T) {
    h, _ := newHandlerTest()
    body := `{"budget":50000,"service_type":"catering","event_date":"2026-10-01T18:00:00Z","location":"Lagos"}`
    rec := call(t, h.CreateRequest, http.MethodPost, body, &clientActor, "")
    require.Equal(t, http.StatusCreated, rec.Code)

    var r ServiceRequest
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
    assert.Equal(t, RequestOpen, r.Status)
    assert.Equal(t, int64(50000), r.Budget)
    assert.Equal(t, clientActor.ID, r.ClientID)
}

func TestHandlerErrorStatusMapping(t *testing.T) {
    h, svc := newHandlerTest()
    ctx := context.Background()

    r, err := svc.CreateRequest(ctx, clientActor, CreateRequestInput{
        Budget: 500, ServiceType: "dj", EventDate: time.Now(), Draft: true,
    })
    require.NoError(t, err)

    // validation -> 400
    rec := call(t, h.CreateRequest, http.MethodPost, `{"budget":-1,"service_type":"dj","event_date":"2026-10-01T18:00:00Z"}`, &clientActor, "")
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    // unauthorized -> 403
    rec = call(t, h.DeleteRequest, http.MethodDelete, "", &otherClient, r.ID)
    assert.Equal(t, http.StatusForbidden, rec.Code)

    // not found -> 404
    rec = call(t, h.GetRequest, http.MethodGet, "", &clientActor, "missing")
    assert.Equal(t, http.StatusNotFound, rec.Code)

    // invalid state -> 422 (cannot cancel a draft)
    rec = call(t, h.CancelRequest, http.MethodPost, "", &clientActor, r.ID)
    assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

    var payload map[string]string
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
    assert.Equal(t, string(KindInvalidState), payload["kind"])
    assert.NotEmpty(t, payload["error"])
}

func TestHandlerConflictMapsTo409(t *testing.T) {
    h, svc := newHandlerTest()
    ctx := context.Background()

    r := openRequest(t, svc, 500)
    p := pitch(t, svc, providerA, r.ID, 400)
    _, _, err := svc.AssignWinner(ctx, clientActor, r.ID, p.ID)
    require.NoError(t, err)
    _, err = svc.CompleteRequest(ctx, clientActor, r.ID)
    require.NoError(t, err)
    pay, err := svc.InitiatePayment(ctx, clientActor, r.ID, 400)
    require.NoError(t, err)
    _, err = svc.CapturePayment(ctx, clientActor, pay.ID)
    require.NoError(t, err)
    _, err = svc.SubmitReview(ctx, clientActor, r.ID, SubmitReviewInput{Rating: 5})
    require.NoError(t, err)

    rec := call(t, h.SubmitReview, http.MethodPost, `{"rating":3}`, &clientActor, r.ID)
    assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerAssignRequiresPitchID(t *testing.T) {
    h, svc := newHandlerTest()
    r := openRequest(t, svc, 500)

    rec := call(t, h.AssignWinner, http.MethodPost, `{}`, &clientActor, r.ID)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerGetRequestDetail(t *testing.T) {
    h, svc := newHandlerTest()
    r := openRequest(t, svc, 500)
    pitch(t, svc, providerA, r.ID, 400)

    rec := call(t, h.GetRequest, http.MethodGet, "", &clientActor, r.ID)
    require.Equal(t, http.StatusOK, rec.Code)

    var out struct {
        Request ServiceRequest `json:"request"`
        Pitches []Pitch        `json:"pitches"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
    assert.Equal(t, r.ID, out.Request.ID)
    assert.Len(t, out.Pitches, 1)
}

func TestHandlerListOpenRequestsIsPublic(t *testing.T) {
    h, svc := newHandlerTest()
    openRequest(t, svc, 500)

    rec := call(t, h.ListOpenRequests, http.MethodGet, "", nil, "")
    require.Equal(t, http.StatusOK, rec.Code)

    var out struct {
        Requests []ServiceRequest `json:"requests"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
    assert.Len(t, out.Requests, 1)
}
