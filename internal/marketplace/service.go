package marketplace

import (
    "context"
    "sync"
    "time"

    "github.com/google/uuid"
)

// Actor is the authenticated caller, as extracted from JWT claims by the
// middleware. Every mutation takes one so ownership and role checks live
// here instead of being scattered across handlers.
type Actor struct {
    ID   string
    Role string
}

// Service is the lifecycle engine: all request, pitch, assignment,
// payment, and review mutations flow through it. Operations touching the
// request+pitch consistency boundary serialize on a per-request mutex in
// addition to whatever atomicity the store provides.
type Service struct {
    store Store
    locks keyedMutex
}

func NewService(store Store) *Service {
    return &Service{store: store}
}

// keyedMutex hands out one mutex per request id. Entries are never
// reclaimed; the map grows with the number of distinct requests touched
// by this process, which is fine for request/response lifetimes.
type keyedMutex struct {
    mu    sync.Mutex
    locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(id string) func() {
    k.mu.Lock()
    if k.locks == nil {
        k.locks = make(map[string]*sync.Mutex)
    }
    m, ok := k.locks[id]
    if !ok {
        m = &sync.Mutex{}
        k.locks[id] = m
    }
    k.mu.Unlock()

    m.Lock()
    return m.Unlock
}

func requireRole(actor Actor, roles ...string) error {
    for _, r := range roles {
        if actor.Role == r {
            return nil
        }
    }
    return unauthorizedf("role %s may not perform this operation", actor.Role)
}

// ===== Requests =====

func (s *Service) CreateRequest(ctx context.Context, actor Actor, in CreateRequestInput) (*ServiceRequest, error) {
    if err := requireRole(actor, RoleClient); err != nil {
        return nil, err
    }
    if in.Budget <= 0 {
        return nil, validationf("budget must be positive")
    }
    if in.ServiceType == "" {
        return nil, validationf("service_type is required")
    }
    if in.EventDate.IsZero() {
        return nil, validationf("event_date is required")
    }

    status := RequestOpen
    if in.Draft {
        status = RequestDraft
    }
    now := time.Now()
    r := &ServiceRequest{
        ID:          uuid.New().String(),
        ClientID:    actor.ID,
        Status:      status,
        Budget:      in.Budget,
        EventDate:   in.EventDate,
        Location:    in.Location,
        ServiceType: in.ServiceType,
        Description: in.Description,
        CreatedAt:   now,
        UpdatedAt:   now,
    }
    if err := s.store.CreateRequest(ctx, r); err != nil {
        return nil, err
    }
    return r, nil
}

func (s *Service) PublishRequest(ctx context.Context, actor Actor, requestID string) (*ServiceRequest, error) {
    unlock := s.locks.lock(requestID)
    defer unlock()

    r, err := s.ownedRequest(ctx, actor, requestID)
    if err != nil {
        return nil, err
    }
    if r.Status != RequestDraft {
        return nil, invalidStatef("request is %s, only drafts can be published", r.Status)
    }
    r.Status = RequestOpen
    if err := s.store.UpdateRequest(ctx, r); err != nil {
        return nil, err
    }
    return r, nil
}

func (s *Service) UpdateRequest(ctx context.Context, actor Actor, requestID string, in UpdateRequestInput) (*ServiceRequest, error) {
    unlock := s.locks.lock(requestID)
    defer unlock()

    r, err := s.ownedRequest(ctx, actor, requestID)
    if err != nil {
        return nil, err
    }
    if r.Status != RequestOpen && r.Status != RequestDraft {
        return nil, invalidStatef("request is %s and can no longer be edited", r.Status)
    }
    if in.Budget != nil {
        if *in.Budget <= 0 {
            return nil, validationf("budget must be positive")
        }
        r.Budget = *in.Budget
    }
    if in.EventDate != nil {
        r.EventDate = *in.EventDate
    }
    if in.Location != nil {
        r.Location = *in.Location
    }
    if in.ServiceType != nil {
        if *in.ServiceType == "" {
            return nil, validationf("service_type cannot be empty")
        }
        r.ServiceType = *in.ServiceType
    }
    if in.Description != nil {
        r.Description = *in.Description
    }
    if err := s.store.UpdateRequest(ctx, r); err != nil {
        return nil, err
    }
    return r, nil
}

// CancelRequest moves an open request to cancelled and demotes any still
// pending pitches so the ledger holds no live pitches on a dead request.
func (s *Service) CancelRequest(ctx context.Context, actor Actor, requestID string) (*ServiceRequest, error) {
    unlock := s.locks.lock(requestID)
    defer unlock()

    r, err := s.ownedRequest(ctx, actor, requestID)
    if err != nil {
        return nil, err
    }
    if r.Status != RequestOpen {
        return nil, invalidStatef("request is %s, only open requests can be cancelled", r.Status)
    }
    r.Status = RequestCancelled
    if err := s.store.UpdateRequest(ctx, r); err != nil {
        return nil, err
    }
    if err := s.store.MarkPendingPitchesLost(ctx, requestID, ""); err != nil {
        return nil, err
    }
    return r, nil
}

// DeleteRequest soft-deletes. The row stays so winner/payment history is
// never orphaned; listings exclude it.
func (s *Service) DeleteRequest(ctx context.Context, actor Actor, requestID string) error {
    unlock := s.locks.lock(requestID)
    defer unlock()

    r, err := s.store.GetRequest(ctx, requestID)
    if err != nil {
        return err
    }
    if actor.Role != RoleAdmin && r.ClientID != actor.ID {
        return unauthorizedf("request %s does not belong to you", requestID)
    }
    if r.Status == RequestDeleted {
        return invalidStatef("request %s is already deleted", requestID)
    }
    r.Status = RequestDeleted
    return s.store.UpdateRequest(ctx, r)
}

func (s *Service) ListOpenRequests(ctx context.Context) ([]ServiceRequest, error) {
    return s.store.ListOpenRequests(ctx)
}

// ListAllRequestsAdmin is the moderation view: every request, deleted
// rows included.
func (s *Service) ListAllRequestsAdmin(ctx context.Context, actor Actor) ([]ServiceRequest, error) {
    if err := requireRole(actor, RoleAdmin); err != nil {
        return nil, err
    }
    return s.store.ListAllRequests(ctx)
}

func (s *Service) ListMyRequests(ctx context.Context, actor Actor) ([]ServiceRequest, error) {
    if err := requireRole(actor, RoleClient, RoleAdmin); err != nil {
        return nil, err
    }
    return s.store.ListRequestsByClient(ctx, actor.ID)
}

// GetRequestDetail returns the request plus the pitches the actor may
// see: the owning client and admins see the full set, a provider sees
// only their own pitches, everyone else sees none.
func (s *Service) GetRequestDetail(ctx context.Context, actor Actor, requestID string) (*ServiceRequest, []Pitch, error) {
    r, err := s.store.GetRequest(ctx, requestID)
    if err != nil {
        return nil, nil, err
    }
    if r.Status == RequestDeleted && actor.Role != RoleAdmin && r.ClientID != actor.ID {
        return nil, nil, notFoundf("request %s not found", requestID)
    }

    pitches, err := s.store.ListPitchesByRequest(ctx, requestID)
    if err != nil {
        return nil, nil, err
    }
    if actor.Role == RoleAdmin || r.ClientID == actor.ID {
        return r, pitches, nil
    }
    var own []Pitch
    for _, p := range pitches {
        if p.ProviderID == actor.ID {
            own = append(own, p)
        }
    }
    return r, own, nil
}

// ===== Pitches =====

// SubmitPitch creates a provider bid. The open check happens under the
// request lock, so a pitch can never land on a request that a concurrent
// assignment just closed.
func (s *Service) SubmitPitch(ctx context.Context, actor Actor, requestID string, in SubmitPitchInput) (*Pitch, error) {
    if err := requireRole(actor, RoleProvider); err != nil {
        return nil, err
    }
    if in.ProposedPrice <= 0 {
        return nil, validationf("proposed_price must be positive")
    }

    unlock := s.locks.lock(requestID)
    defer unlock()

    r, err := s.store.GetRequest(ctx, requestID)
    if err != nil {
        return nil, err
    }
    if r.ClientID == actor.ID {
        return nil, validationf("you cannot pitch on your own request")
    }
    if r.Status != RequestOpen {
        return nil, invalidStatef("request is %s, pitches are only accepted while open", r.Status)
    }

    now := time.Now()
    p := &Pitch{
        ID:            uuid.New().String(),
        RequestID:     requestID,
        ProviderID:    actor.ID,
        ProposedPrice: in.ProposedPrice,
        Details:       in.Details,
        Status:        PitchPending,
        CreatedAt:     now,
        UpdatedAt:     now,
    }
    if err := s.store.CreatePitch(ctx, p); err != nil {
        return nil, err
    }
    return p, nil
}

// WithdrawPitch hard-deletes a provider's own pitch while it is still
// pending. Decided pitches are part of the assignment record and stay.
func (s *Service) WithdrawPitch(ctx context.Context, actor Actor, pitchID string) error {
    p, err := s.store.GetPitch(ctx, pitchID)
    if err != nil {
        return err
    }
    if p.ProviderID != actor.ID {
        return unauthorizedf("pitch %s does not belong to you", pitchID)
    }

    unlock := s.locks.lock(p.RequestID)
    defer unlock()

    // re-read under the lock; the assignment may have decided it meanwhile
    p, err = s.store.GetPitch(ctx, pitchID)
    if err != nil {
        return err
    }
    if p.Status != PitchPending {
        return invalidStatef("pitch is %s and can no longer be withdrawn", p.Status)
    }
    return s.store.DeletePitch(ctx, pitchID)
}

func (s *Service) ListMyPitches(ctx context.Context, actor Actor) ([]Pitch, error) {
    if err := requireRole(actor, RoleProvider); err != nil {
        return nil, err
    }
    return s.store.ListPitchesByProvider(ctx, actor.ID)
}

// ownedRequest loads a request and verifies the actor is its client
func (s *Service) ownedRequest(ctx context.Context, actor Actor, requestID string) (*ServiceRequest, error) {
    r, err := s.store.GetRequest(ctx, requestID)
    if err != nil {
        return nil, err
    }
    if r.ClientID != actor.ID {
        return nil, unauthorizedf("request %s does not belong to you", requestID)
    }
    return r, nil
}
