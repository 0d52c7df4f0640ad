package marketplace

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

var (
    clientActor   = Actor{ID: "client-1", Role: RoleClient}
    providerA     = Actor{ID: "provider-a", Role: RoleProvider}
    providerB     = Actor{ID: "provider-b", Role: RoleProvider}
    adminActor    = Actor{ID: "admin-1", Role: RoleAdmin}
    otherClient   = Actor{ID: "client-2", Role: RoleClient}
)

func newTestService() *Service {
    return NewService(NewMemStore())
}

func openRequest(t *testing.T, svc *Service, budget int64) *ServiceRequest {
    t.Helper()
    r, err := svc.CreateRequest(context.Background(), clientActor, CreateRequestInput{
        Budget:      budget,
        EventDate:   time.Now().Add(30 * 24 * time.Hour),
        Location:    "Lagos",
        ServiceType: "catering",
        Description: "wedding dinner for 120",
    })
    require.NoError(t, err)
    require.Equal(t, RequestOpen, r.Status)
    return r
}

func pitch(t *testing.T, svc *Service, actor Actor, requestID string, price int64) *Pitch {
    t.Helper()
    p, err := svc.SubmitPitch(context.Background(), actor, requestID, SubmitPitchInput{
        ProposedPrice: price,
        Details:       "we can do this",
    })
    require.NoError(t, err)
    return p
}

func TestCreateRequestValidation(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()

    _, err := svc.CreateRequest(ctx, clientActor, CreateRequestInput{Budget: 0, ServiceType: "dj", EventDate: time.Now()})
    assert.True(t, IsKind(err, KindValidation))

    _, err = svc.CreateRequest(ctx, clientActor, CreateRequestInput{Budget: 100, EventDate: time.Now()})
    assert.True(t, IsKind(err, KindValidation))

    _, err = svc.CreateRequest(ctx, providerA, CreateRequestInput{Budget: 100, ServiceType: "dj", EventDate: time.Now()})
    assert.True(t, IsKind(err, KindUnauthorized), "providers cannot post requests")
}

func TestDraftPublish(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()

    r, err := svc.CreateRequest(ctx, clientActor, CreateRequestInput{
        Budget: 100, ServiceType: "dj", EventDate: time.Now(), Draft: true,
    })
    require.NoError(t, err)
    assert.Equal(t, RequestDraft, r.Status)

    // pitches are rejected until published
    _, err = svc.SubmitPitch(ctx, providerA, r.ID, SubmitPitchInput{ProposedPrice: 90})
    assert.True(t, IsKind(err, KindInvalidState))

    r, err = svc.PublishRequest(ctx, clientActor, r.ID)
    require.NoError(t, err)
    assert.Equal(t, RequestOpen, r.Status)

    // publishing twice fails
    _, err = svc.PublishRequest(ctx, clientActor, r.ID)
    assert.True(t, IsKind(err, KindInvalidState))
}

func TestUpdateRequestOnlyWhileOpen(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()
    r := openRequest(t, svc, 500)

    loc := "Abuja"
    updated, err := svc.UpdateRequest(ctx, clientActor, r.ID, UpdateRequestInput{Location: &loc})
    require.NoError(t, err)
    assert.Equal(t, "Abuja", updated.Location)

    // not the owner
    _, err = svc.UpdateRequest(ctx, otherClient, r.ID, UpdateRequestInput{Location: &loc})
    assert.True(t, IsKind(err, KindUnauthorized))

    // after assignment the descriptive fields freeze
    p := pitch(t, svc, providerA, r.ID, 400)
    _, _, err = svc.AssignWinner(ctx, clientActor, r.ID, p.ID)
    require.NoError(t, err)
    _, err = svc.UpdateRequest(ctx, clientActor, r.ID, UpdateRequestInput{Location: &loc})
    assert.True(t, IsKind(err, KindInvalidState))
}

func TestCancelRequestMarksPendingPitchesLost(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()
    r := openRequest(t, svc, 500)
    p1 := pitch(t, svc, providerA, r.ID, 400)
    p2 := pitch(t, svc, providerB, r.ID, 450)

    cancelled, err := svc.CancelRequest(ctx, clientActor, r.ID)
    require.NoError(t, err)
    assert.Equal(t, RequestCancelled, cancelled.Status)

    for _, id := range []string{p1.ID, p2.ID} {
        got, err := svc.store.GetPitch(ctx, id)
        require.NoError(t, err)
        assert.Equal(t, PitchLose, got.Status)
    }

    // cancel is only reachable from open
    _, err = svc.CancelRequest(ctx, clientActor, r.ID)
    assert.True(t, IsKind(err, KindInvalidState))
}

func TestSoftDelete(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()
    r := openRequest(t, svc, 500)

    require.NoError(t, svc.DeleteRequest(ctx, clientActor, r.ID))

    // row survives as deleted, listings exclude it
    got, err := svc.store.GetRequest(ctx, r.ID)
    require.NoError(t, err)
    assert.Equal(t, RequestDeleted, got.Status)

    open, err := svc.ListOpenRequests(ctx)
    require.NoError(t, err)
    assert.Empty(t, open)

    mine, err := svc.ListMyRequests(ctx, clientActor)
    require.NoError(t, err)
    assert.Empty(t, mine)

    // double delete is an error, admins see the row
    err = svc.DeleteRequest(ctx, adminActor, r.ID)
    assert.True(t, IsKind(err, KindInvalidState))

    all, err := svc.ListAllRequestsAdmin(ctx, adminActor)
    require.NoError(t, err)
    assert.Len(t, all, 1)
}

func TestDeleteRequestOwnership(t *testing.T) {
    svc := newTestService()
    r := openRequest(t, svc, 500)

    err := svc.DeleteRequest(context.Background(), otherClient, r.ID)
    assert.True(t, IsKind(err, KindUnauthorized))

    // admins may delete on behalf of moderation
    assert.NoError(t, svc.DeleteRequest(context.Background(), adminActor, r.ID))
}

func TestSubmitPitchChecksOpenAtWriteTime(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()
    r := openRequest(t, svc, 500)
    p := pitch(t, svc, providerA, r.ID, 400)

    _, _, err := svc.AssignWinner(ctx, clientActor, r.ID, p.ID)
    require.NoError(t, err)

    // request was just assigned; a late pitch must bounce
    _, err = svc.SubmitPitch(ctx, providerB, r.ID, SubmitPitchInput{ProposedPrice: 300})
    assert.True(t, IsKind(err, KindInvalidState))
}

func TestSubmitPitchValidation(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()
    r := openRequest(t, svc, 500)

    _, err := svc.SubmitPitch(ctx, providerA, r.ID, SubmitPitchInput{ProposedPrice: -5})
    assert.True(t, IsKind(err, KindValidation))

    _, err = svc.SubmitPitch(ctx, clientActor, r.ID, SubmitPitchInput{ProposedPrice: 100})
    assert.True(t, IsKind(err, KindUnauthorized), "clients cannot pitch")

    _, err = svc.SubmitPitch(ctx, providerA, "no-such-request", SubmitPitchInput{ProposedPrice: 100})
    assert.True(t, IsKind(err, KindNotFound))
}

func TestWithdrawPitch(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()
    r := openRequest(t, svc, 500)
    p1 := pitch(t, svc, providerA, r.ID, 400)
    p2 := pitch(t, svc, providerB, r.ID, 450)

    // only the owner may withdraw
    err := svc.WithdrawPitch(ctx, providerB, p1.ID)
    assert.True(t, IsKind(err, KindUnauthorized))

    require.NoError(t, svc.WithdrawPitch(ctx, providerA, p1.ID))
    _, err = svc.store.GetPitch(ctx, p1.ID)
    assert.True(t, IsKind(err, KindNotFound), "withdrawal is a hard delete")

    // decided pitches stay
    _, _, err = svc.AssignWinner(ctx, clientActor, r.ID, p2.ID)
    require.NoError(t, err)
    err = svc.WithdrawPitch(ctx, providerB, p2.ID)
    assert.True(t, IsKind(err, KindInvalidState))
}

func TestGetRequestDetailVisibility(t *testing.T) {
    svc := newTestService()
    ctx := context.Background()
    r := openRequest(t, svc, 500)
    pitch(t, svc, providerA, r.ID, 400)
    pitch(t, svc, providerB, r.ID, 450)

    _, all, err := svc.GetRequestDetail(ctx, clientActor, r.ID)
    require.NoError(t, err)
    assert.Len(t, all, 2, "owner sees every pitch")

    _, own, err := svc.GetRequestDetail(ctx, providerA, r.ID)
    require.NoError(t, err)
    require.Len(t, own, 1, "provider sees only their pitch")
    assert.Equal(t, providerA.ID, own[0].ProviderID)

    require.NoError(t, svc.DeleteRequest(ctx, clientActor, r.ID))
    _, _, err = svc.GetRequestDetail(ctx, providerA, r.ID)
    assert.True(t, IsKind(err, KindNotFound), "deleted requests vanish for non-owners")
}
