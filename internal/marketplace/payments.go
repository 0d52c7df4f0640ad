package marketplace

import (
    "context"
    "time"

    "github.com/google/uuid"
)

// InitiatePayment opens the payment for a completed request. The amount
// must equal the request's budget exactly (the accepted quote), and once
// a payment for the request has completed there is no second one. A
// pending or failed attempt is superseded by re-initiating.
func (s *Service) InitiatePayment(ctx context.Context, actor Actor, requestID string, amount int64) (*Payment, error) {
    if err := requireRole(actor, RoleClient); err != nil {
        return nil, err
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
    if r.Status != RequestCompleted {
        return nil, invalidStatef("request is %s, payment requires a completed request", r.Status)
    }
    if amount <= 0 {
        return nil, validationf("amount must be positive")
    }
    if amount != r.Budget {
        return nil, validationf("amount %d does not match the agreed budget %d", amount, r.Budget)
    }

    existing, err := s.store.GetPaymentByRequest(ctx, requestID)
    if err != nil && !IsKind(err, KindNotFound) {
        return nil, err
    }
    if existing != nil {
        if existing.Status == PaymentCompleted {
            return nil, invalidStatef("request %s is already paid", requestID)
        }
        // supersede the stale pending/failed attempt in place
        existing.Amount = amount
        existing.Status = PaymentPending
        if err := s.store.UpdatePayment(ctx, existing, "reinitiated"); err != nil {
            return nil, err
        }
        return existing, nil
    }

    now := time.Now()
    p := &Payment{
        ID:         uuid.New().String(),
        RequestID:  requestID,
        ClientID:   r.ClientID,
        ProviderID: r.AssignedProviderID,
        Amount:     amount,
        Status:     PaymentPending,
        CreatedAt:  now,
        UpdatedAt:  now,
    }
    if err := s.store.CreatePayment(ctx, p); err != nil {
        return nil, err
    }
    return p, nil
}

// CapturePayment moves pending -> completed. Completed is terminal.
func (s *Service) CapturePayment(ctx context.Context, actor Actor, paymentID string) (*Payment, error) {
    return s.settlePayment(ctx, actor, paymentID, PaymentCompleted, "captured")
}

// FailPayment moves pending -> failed. The client can re-initiate after.
func (s *Service) FailPayment(ctx context.Context, actor Actor, paymentID string) (*Payment, error) {
    return s.settlePayment(ctx, actor, paymentID, PaymentFailed, "failed")
}

func (s *Service) settlePayment(ctx context.Context, actor Actor, paymentID string, to PaymentStatus, event string) (*Payment, error) {
    p, err := s.store.GetPayment(ctx, paymentID)
    if err != nil {
        return nil, err
    }
    if actor.Role != RoleAdmin && p.ClientID != actor.ID {
        return nil, unauthorizedf("payment %s does not belong to you", paymentID)
    }

    unlock := s.locks.lock(p.RequestID)
    defer unlock()

    // re-read under the lock to guard against a racing settlement
    p, err = s.store.GetPayment(ctx, paymentID)
    if err != nil {
        return nil, err
    }
    if p.Status == PaymentCompleted {
        return nil, invalidStatef("payment %s is already completed and immutable", paymentID)
    }
    if p.Status != PaymentPending {
        return nil, invalidStatef("payment %s is %s, only pending payments can be settled", paymentID, p.Status)
    }
    p.Status = to
    if err := s.store.UpdatePayment(ctx, p, event); err != nil {
        return nil, err
    }
    return p, nil
}

// PaymentStatus answers for a request, distinguishing "never initiated"
// (none, nil payment) from an existing row in any state. Both parties and
// admins may ask.
func (s *Service) PaymentStatus(ctx context.Context, actor Actor, requestID string) (PaymentStatus, *Payment, error) {
    r, err := s.store.GetRequest(ctx, requestID)
    if err != nil {
        return PaymentNone, nil, err
    }
    if actor.Role != RoleAdmin && actor.ID != r.ClientID && actor.ID != r.AssignedProviderID {
        return PaymentNone, nil, unauthorizedf("you are not a party to request %s", requestID)
    }
    p, err := s.store.GetPaymentByRequest(ctx, requestID)
    if err != nil {
        if IsKind(err, KindNotFound) {
            return PaymentNone, nil, nil
        }
        return PaymentNone, nil, err
    }
    return p.Status, p, nil
}
