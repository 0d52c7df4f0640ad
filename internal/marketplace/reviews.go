package marketplace

import (
    "context"
    "time"

    "github.com/google/uuid"
)

// SubmitReview is the last step of the completion workflow: it requires a
// captured payment on the request and succeeds at most once. The review
// is scoped to (request, assigned provider) and is not editable after.
func (s *Service) SubmitReview(ctx context.Context, actor Actor, requestID string, in SubmitReviewInput) (*Review, error) {
    if err := requireRole(actor, RoleClient); err != nil {
        return nil, err
    }
    if in.Rating < 1 || in.Rating > 5 {
        return nil, validationf("rating must be between 1 and 5")
    }
    if len(in.Comment) > 1000 {
        return nil, validationf("comment too long (max 1000 characters)")
    }

    unlock := s.locks.lock(requestID)
    defer unlock()

    r, err := s.store.GetRequest(ctx, requestID)
    if err != nil {
        return nil, err
    }
    if r.ClientID != actor.ID {
        return nil, unauthorizedf("request %s does not belong to you", requestID)
    }

    payment, err := s.store.GetPaymentByRequest(ctx, requestID)
    if err != nil {
        if IsKind(err, KindNotFound) {
            return nil, invalidStatef("request %s has no captured payment yet", requestID)
        }
        return nil, err
    }
    if payment.Status != PaymentCompleted {
        return nil, invalidStatef("payment for request %s is %s, reviews unlock after capture", requestID, payment.Status)
    }

    if _, err := s.store.GetReviewByRequest(ctx, requestID); err == nil {
        return nil, conflictf("review already exists for request %s", requestID)
    } else if !IsKind(err, KindNotFound) {
        return nil, err
    }

    review := &Review{
        ID:         uuid.New().String(),
        RequestID:  requestID,
        ClientID:   r.ClientID,
        ProviderID: r.AssignedProviderID,
        Rating:     in.Rating,
        Comment:    in.Comment,
        CreatedAt:  time.Now(),
    }
    if err := s.store.CreateReview(ctx, review); err != nil {
        return nil, err
    }
    return review, nil
}

// GetReview returns the request's review to either party or an admin.
func (s *Service) GetReview(ctx context.Context, actor Actor, requestID string) (*Review, error) {
    r, err := s.store.GetRequest(ctx, requestID)
    if err != nil {
        return nil, err
    }
    if actor.Role != RoleAdmin && actor.ID != r.ClientID && actor.ID != r.AssignedProviderID {
        return nil, unauthorizedf("you are not a party to request %s", requestID)
    }
    return s.store.GetReviewByRequest(ctx, requestID)
}
