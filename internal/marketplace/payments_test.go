package marketplace

import (
    "context"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

// completedRequest drives a request through pitch -> assign -> complete so
// payment tests start from the gate.
func completedRequest(t *testing.T, svc *Service) *ServiceRequest {
    t.Helper()
    ctx := context.Background()
    r := openRequest(t, svc, 500)
    p := pitch(t, svc, providerA, r.ID, 400)
    _, _, err := svc.AssignWinner(ctx, clientActor, r.ID, p.ID)
    require.NoError(t, err)
    r, err = svc.CompleteRequest(ctx, clientActor, r.ID)
    require.NoError(t, err)
    return r
}

func TestInitiatePaymentGate(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()
    r := openRequest(t, svc, 500)

    // open request: no payment yet
    _, err := svc.InitiatePayment(ctx, clientActor, r.ID, 500)
    assert.True(t, IsKind(err, KindInvalidState))

    p := pitch(t, svc, providerA, r.ID, 400)
    _, _, err = svc.AssignWinner(ctx, clientActor, r.ID, p.ID)
    require.NoError(t, err)

    // assigned is still not enough
    _, err = svc.InitiatePayment(ctx, clientActor, r.ID, 400)
    assert.True(t, IsKind(err, KindInvalidState))

    _, err = svc.CompleteRequest(ctx, clientActor, r.ID)
    require.NoError(t, err)

    // amount must match the winning price, not the original estimate
    _, err = svc.InitiatePayment(ctx, clientActor, r.ID, 500)
    assert.True(t, IsKind(err, KindValidation))

    pay, err := svc.InitiatePayment(ctx, clientActor, r.ID, 400)
    require.NoError(t, err)
    assert.Equal(t, PaymentPending, pay.Status)
    assert.Equal(t, int64(400), pay.Amount)
    assert.Equal(t, providerA.ID, pay.ProviderID)
}

func TestInitiatePaymentAuthorization(t *testing.T) {
    svc := newTestService()
    r := completedRequest(t, svc)
    ctx := context.Background()

    _, err := svc.InitiatePayment(ctx, providerA, r.ID, r.Budget)
    assert.True(t, IsKind(err, KindUnauthorized))

    _, err = svc.InitiatePayment(ctx, otherClient, r.ID, r.Budget)
    assert.True(t, IsKind(err, KindUnauthorized))
}

func TestCapturePaymentIsTerminal(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()
    r := completedRequest(t, svc)

    pay, err := svc.InitiatePayment(ctx, clientActor, r.ID, r.Budget)
    require.NoError(t, err)

    captured, err := svc.CapturePayment(ctx, clientActor, pay.ID)
    require.NoError(t, err)
    assert.Equal(t, PaymentCompleted, captured.Status)

    // completed is immutable in every direction
    _, err = svc.CapturePayment(ctx, clientActor, pay.ID)
    assert.True(t, IsKind(err, KindInvalidState))
    _, err = svc.FailPayment(ctx, clientActor, pay.ID)
    assert.True(t, IsKind(err, KindInvalidState))

    // and the request cannot be paid again
    _, err = svc.InitiatePayment(ctx, clientActor, r.ID, r.Budget)
    assert.True(t, IsKind(err, KindInvalidState))
}

func TestFailedPaymentCanBeReinitiated(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()
    r := completedRequest(t, svc)

    pay, err := svc.InitiatePayment(ctx, clientActor, r.ID, r.Budget)
    require.NoError(t, err)

    failed, err := svc.FailPayment(ctx, clientActor, pay.ID)
    require.NoError(t, err)
    assert.Equal(t, PaymentFailed, failed.Status)

    // failing twice is a state error
    _, err = svc.FailPayment(ctx, clientActor, pay.ID)
    assert.True(t, IsKind(err, KindInvalidState))

    // re-initiating supersedes the failed attempt in place
    retry, err := svc.InitiatePayment(ctx, clientActor, r.ID, r.Budget)
    require.NoError(t, err)
    assert.Equal(t, pay.ID, retry.ID)
    assert.Equal(t, PaymentPending, retry.Status)

    _, err = svc.CapturePayment(ctx, clientActor, retry.ID)
    require.NoError(t, err)
}

func TestPaymentStatusDistinguishesNoneFromPending(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()
    r := completedRequest(t, svc)

    status, p, err := svc.PaymentStatus(ctx, clientActor, r.ID)
    require.NoError(t, err)
    assert.Equal(t, PaymentNone, status)
    assert.Nil(t, p)

    pay, err := svc.InitiatePayment(ctx, clientActor, r.ID, r.Budget)
    require.NoError(t, err)

    status, p, err = svc.PaymentStatus(ctx, clientActor, r.ID)
    require.NoError(t, err)
    assert.Equal(t, PaymentPending, status)
    require.NotNil(t, p)
    assert.Equal(t, pay.ID, p.ID)

    // the assigned provider may ask too, strangers may not
    _, _, err = svc.PaymentStatus(ctx, providerA, r.ID)
    assert.NoError(t, err)
    _, _, err = svc.PaymentStatus(ctx, providerB, r.ID)
    assert.True(t, IsKind(err, KindUnauthorized))
}

func TestSettlePaymentAuthorization(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()
    r := completedRequest(t, svc)

    pay, err := svc.InitiatePayment(ctx, clientActor, r.ID, r.Budget)
    require.NoError(t, err)

    _, err = svc.CapturePayment(ctx, providerA, pay.ID)
    assert.True(t, IsKind(err, KindUnauthorized))

    // admins may settle on the client's behalf
    _, err = svc.CapturePayment(ctx, adminActor, pay.ID)
    assert.NoError(t, err)
}
