package marketplace

import "context"

// Assignment is the atomic unit the coordinator hands to the store:
// mark the chosen pitch win, demote the remaining pending pitches on the
// same request to lose, bind the provider, reprice, and flip the request
// to assigned. All or nothing.
type Assignment struct {
    RequestID  string
    PitchID    string
    ProviderID string
    Price      int64
}

// Store is the persistence boundary for the lifecycle engine. Both the
// Postgres and the in-memory implementation must make ApplyAssignment
// atomic: a crash or conflict partway leaves no trace.
//
// Lookup methods return a KindNotFound *Error when the id does not
// resolve; mutating methods return KindConflict when a concurrent writer
// invalidated the precondition the caller checked.
type Store interface {
    CreateRequest(ctx context.Context, r *ServiceRequest) error
    GetRequest(ctx context.Context, id string) (*ServiceRequest, error)
    UpdateRequest(ctx context.Context, r *ServiceRequest) error
    ListOpenRequests(ctx context.Context) ([]ServiceRequest, error)
    ListRequestsByClient(ctx context.Context, clientID string) ([]ServiceRequest, error)
    ListAllRequests(ctx context.Context) ([]ServiceRequest, error)

    CreatePitch(ctx context.Context, p *Pitch) error
    GetPitch(ctx context.Context, id string) (*Pitch, error)
    DeletePitch(ctx context.Context, id string) error
    ListPitchesByRequest(ctx context.Context, requestID string) ([]Pitch, error)
    ListPitchesByProvider(ctx context.Context, providerID string) ([]Pitch, error)
    // MarkPendingPitchesLost demotes every pending pitch on the request,
    // optionally sparing one id. Already-decided pitches are untouched.
    MarkPendingPitchesLost(ctx context.Context, requestID, exceptPitchID string) error

    ApplyAssignment(ctx context.Context, a Assignment) error

    CreatePayment(ctx context.Context, p *Payment) error
    GetPayment(ctx context.Context, id string) (*Payment, error)
    GetPaymentByRequest(ctx context.Context, requestID string) (*Payment, error)
    // UpdatePayment persists a status transition and records event in the
    // payment audit trail within the same atomic unit.
    UpdatePayment(ctx context.Context, p *Payment, event string) error

    CreateReview(ctx context.Context, r *Review) error
    GetReviewByRequest(ctx context.Context, requestID string) (*Review, error)
}
