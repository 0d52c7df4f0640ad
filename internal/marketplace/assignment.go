package marketplace

import "context"

// AssignWinner resolves the competition on a request to exactly one
// pitch. The owning client picks the pitch; there is no price-based
// auto-selection. The whole transition runs under the request's mutex and
// inside one atomic store unit:
//
//  1. chosen pitch -> win
//  2. remaining pending pitches -> lose (idempotent; decided ones stay)
//  3. request.assigned_provider_id = pitch provider
//  4. request.budget = pitch proposed price
//  5. request.status = assigned
//
// A concurrent call on the same request blocks on the mutex, then finds
// the request no longer open and fails with a conflict instead of
// double-processing the pitch set.
func (s *Service) AssignWinner(ctx context.Context, actor Actor, requestID, pitchID string) (*ServiceRequest, []Pitch, error) {
    if err := requireRole(actor, RoleClient); err != nil {
        return nil, nil, err
    }

    unlock := s.locks.lock(requestID)
    defer unlock()

    r, err := s.store.GetRequest(ctx, requestID)
    if err != nil {
        return nil, nil, err
    }
    if r.ClientID != actor.ID {
        return nil, nil, unauthorizedf("request %s does not belong to you", requestID)
    }
    if r.Status != RequestOpen {
        return nil, nil, invalidStatef("request is %s, winners can only be chosen on open requests", r.Status)
    }
    if r.AssignedProviderID != "" {
        return nil, nil, conflictf("request %s already has an assigned provider", requestID)
    }

    p, err := s.store.GetPitch(ctx, pitchID)
    if err != nil {
        return nil, nil, err
    }
    if p.RequestID != requestID {
        return nil, nil, validationf("pitch %s does not belong to request %s", pitchID, requestID)
    }
    if p.Status != PitchPending {
        return nil, nil, invalidStatef("pitch %s is %s, not pending", pitchID, p.Status)
    }

    err = s.store.ApplyAssignment(ctx, Assignment{
        RequestID:  requestID,
        PitchID:    pitchID,
        ProviderID: p.ProviderID,
        Price:      p.ProposedPrice,
    })
    if err != nil {
        return nil, nil, err
    }

    r, err = s.store.GetRequest(ctx, requestID)
    if err != nil {
        return nil, nil, err
    }
    pitches, err := s.store.ListPitchesByRequest(ctx, requestID)
    if err != nil {
        return nil, nil, err
    }
    return r, pitches, nil
}

// CompleteRequest marks the work done. Either side of the assignment may
// do it; the guard is strict so completing twice is an error, not a no-op.
func (s *Service) CompleteRequest(ctx context.Context, actor Actor, requestID string) (*ServiceRequest, error) {
    unlock := s.locks.lock(requestID)
    defer unlock()

    r, err := s.store.GetRequest(ctx, requestID)
    if err != nil {
        return nil, err
    }
    if actor.ID != r.ClientID && actor.ID != r.AssignedProviderID {
        return nil, unauthorizedf("only the client or the assigned provider may complete request %s", requestID)
    }
    if r.Status != RequestAssigned {
        return nil, invalidStatef("request is %s, only assigned requests can be completed", r.Status)
    }
    r.Status = RequestCompleted
    if err := s.store.UpdateRequest(ctx, r); err != nil {
        return nil, err
    }
    return r, nil
}
