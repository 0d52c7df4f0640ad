package marketplace

import (
    "context"
    "sort"
    "sync"
    "time"
)

// MemStore is an in-memory Store used by tests and by STORE=memory dev
// runs. All maps are guarded by one RWMutex; values are copied on the way
// in and out so callers never share memory with the store.
type MemStore struct {
    mu       sync.RWMutex
    requests map[string]*ServiceRequest
    pitches  map[string]*Pitch
    payments map[string]*Payment
    reviews  map[string]*Review // keyed by request id
}

func NewMemStore() *MemStore {
    return &MemStore{
        requests: make(map[string]*ServiceRequest),
        pitches:  make(map[string]*Pitch),
        payments: make(map[string]*Payment),
        reviews:  make(map[string]*Review),
    }
}

func (s *MemStore) CreateRequest(_ context.Context, r *ServiceRequest) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    cp := *r
    s.requests[r.ID] = &cp
    return nil
}

func (s *MemStore) GetRequest(_ context.Context, id string) (*ServiceRequest, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    r, ok := s.requests[id]
    if !ok {
        return nil, notFoundf("request %s not found", id)
    }
    cp := *r
    return &cp, nil
}

func (s *MemStore) UpdateRequest(_ context.Context, r *ServiceRequest) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.requests[r.ID]; !ok {
        return notFoundf("request %s not found", r.ID)
    }
    cp := *r
    cp.UpdatedAt = time.Now()
    s.requests[r.ID] = &cp
    return nil
}

func (s *MemStore) ListOpenRequests(_ context.Context) ([]ServiceRequest, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    var out []ServiceRequest
    for _, r := range s.requests {
        if r.Status == RequestOpen {
            out = append(out, *r)
        }
    }
    sortRequests(out)
    return out, nil
}

func (s *MemStore) ListRequestsByClient(_ context.Context, clientID string) ([]ServiceRequest, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    var out []ServiceRequest
    for _, r := range s.requests {
        if r.ClientID == clientID && r.Status != RequestDeleted {
            out = append(out, *r)
        }
    }
    sortRequests(out)
    return out, nil
}

func (s *MemStore) ListAllRequests(_ context.Context) ([]ServiceRequest, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    out := make([]ServiceRequest, 0, len(s.requests))
    for _, r := range s.requests {
        out = append(out, *r)
    }
    sortRequests(out)
    return out, nil
}

func (s *MemStore) CreatePitch(_ context.Context, p *Pitch) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.requests[p.RequestID]; !ok {
        return notFoundf("request %s not found", p.RequestID)
    }
    cp := *p
    s.pitches[p.ID] = &cp
    return nil
}

func (s *MemStore) GetPitch(_ context.Context, id string) (*Pitch, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    p, ok := s.pitches[id]
    if !ok {
        return nil, notFoundf("pitch %s not found", id)
    }
    cp := *p
    return &cp, nil
}

func (s *MemStore) DeletePitch(_ context.Context, id string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.pitches[id]; !ok {
        return notFoundf("pitch %s not found", id)
    }
    delete(s.pitches, id)
    return nil
}

func (s *MemStore) ListPitchesByRequest(_ context.Context, requestID string) ([]Pitch, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    var out []Pitch
    for _, p := range s.pitches {
        if p.RequestID == requestID {
            out = append(out, *p)
        }
    }
    sortPitches(out)
    return out, nil
}

func (s *MemStore) ListPitchesByProvider(_ context.Context, providerID string) ([]Pitch, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    var out []Pitch
    for _, p := range s.pitches {
        if p.ProviderID == providerID {
            out = append(out, *p)
        }
    }
    sortPitches(out)
    return out, nil
}

func (s *MemStore) MarkPendingPitchesLost(_ context.Context, requestID, exceptPitchID string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    now := time.Now()
    for _, p := range s.pitches {
        if p.RequestID == requestID && p.ID != exceptPitchID && p.Status == PitchPending {
            p.Status = PitchLose
            p.UpdatedAt = now
        }
    }
    return nil
}

// ApplyAssignment re-validates the request and pitch under the write lock
// and applies all five mutations in one critical section, so a competing
// call observes either none of them or all of them.
func (s *MemStore) ApplyAssignment(_ context.Context, a Assignment) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    r, ok := s.requests[a.RequestID]
    if !ok {
        return notFoundf("request %s not found", a.RequestID)
    }
    if r.Status != RequestOpen || r.AssignedProviderID != "" {
        return conflictf("request %s already assigned", a.RequestID)
    }
    p, ok := s.pitches[a.PitchID]
    if !ok {
        return notFoundf("pitch %s not found", a.PitchID)
    }
    if p.RequestID != a.RequestID {
        return validationf("pitch %s does not belong to request %s", a.PitchID, a.RequestID)
    }
    if p.Status != PitchPending {
        return invalidStatef("pitch %s is %s, not pending", a.PitchID, p.Status)
    }

    now := time.Now()
    p.Status = PitchWin
    p.UpdatedAt = now
    for _, other := range s.pitches {
        if other.RequestID == a.RequestID && other.ID != a.PitchID && other.Status == PitchPending {
            other.Status = PitchLose
            other.UpdatedAt = now
        }
    }
    r.AssignedProviderID = a.ProviderID
    r.Budget = a.Price
    r.Status = RequestAssigned
    r.UpdatedAt = now
    return nil
}

func (s *MemStore) CreatePayment(_ context.Context, p *Payment) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    cp := *p
    s.payments[p.ID] = &cp
    return nil
}

func (s *MemStore) GetPayment(_ context.Context, id string) (*Payment, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    p, ok := s.payments[id]
    if !ok {
        return nil, notFoundf("payment %s not found", id)
    }
    cp := *p
    return &cp, nil
}

func (s *MemStore) GetPaymentByRequest(_ context.Context, requestID string) (*Payment, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    var latest *Payment
    for _, p := range s.payments {
        if p.RequestID != requestID {
            continue
        }
        if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
            latest = p
        }
    }
    if latest == nil {
        return nil, notFoundf("no payment for request %s", requestID)
    }
    cp := *latest
    return &cp, nil
}

func (s *MemStore) UpdatePayment(_ context.Context, p *Payment, _ string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.payments[p.ID]; !ok {
        return notFoundf("payment %s not found", p.ID)
    }
    cp := *p
    cp.UpdatedAt = time.Now()
    s.payments[p.ID] = &cp
    return nil
}

func (s *MemStore) CreateReview(_ context.Context, r *Review) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.reviews[r.RequestID]; ok {
        return conflictf("review already exists for request %s", r.RequestID)
    }
    cp := *r
    s.reviews[r.RequestID] = &cp
    return nil
}

func (s *MemStore) GetReviewByRequest(_ context.Context, requestID string) (*Review, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()
    r, ok := s.reviews[requestID]
    if !ok {
        return nil, notFoundf("no review for request %s", requestID)
    }
    cp := *r
    return &cp, nil
}

func sortRequests(rs []ServiceRequest) {
    sort.Slice(rs, func(i, j int) bool {
        if rs[i].CreatedAt.Equal(rs[j].CreatedAt) {
            return rs[i].ID < rs[j].ID
        }
        return rs[i].CreatedAt.After(rs[j].CreatedAt)
    })
}

func sortPitches(ps []Pitch) {
    sort.Slice(ps, func(i, j int) bool {
        if ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
            return ps[i].ID < ps[j].ID
        }
        return ps[i].CreatedAt.Before(ps[j].CreatedAt)
    })
}
