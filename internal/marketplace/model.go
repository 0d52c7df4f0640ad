package marketplace

import "time"

// Roles carried in JWT claims and checked per operation
const (
    RoleClient   = "client"
    RoleProvider = "provider"
    RoleAdmin    = "admin"
)

type RequestStatus string

const (
    RequestDraft     RequestStatus = "draft"
    RequestOpen      RequestStatus = "open"
    RequestAssigned  RequestStatus = "assigned"
    RequestCompleted RequestStatus = "completed"
    RequestCancelled RequestStatus = "cancelled"
    RequestDeleted   RequestStatus = "deleted"
)

func ValidRequestStatus(s RequestStatus) bool {
    switch s {
    case RequestDraft, RequestOpen, RequestAssigned, RequestCompleted, RequestCancelled, RequestDeleted:
        return true
    default:
        return false
    }
}

type PitchStatus string

const (
    PitchPending PitchStatus = "pending"
    PitchWin     PitchStatus = "win"
    PitchLose    PitchStatus = "lose"
)

func ValidPitchStatus(s PitchStatus) bool {
    switch s {
    case PitchPending, PitchWin, PitchLose:
        return true
    default:
        return false
    }
}

type PaymentStatus string

const (
    // PaymentNone is never stored; it is the answer for "no payment row yet".
    PaymentNone      PaymentStatus = "none"
    PaymentPending   PaymentStatus = "pending"
    PaymentCompleted PaymentStatus = "completed"
    PaymentFailed    PaymentStatus = "failed"
)

// ServiceRequest is a client's posted need for an event service.
// Budget starts as the client's estimate and is overwritten with the
// winning pitch's proposed price at assignment time. Amounts are cents.
type ServiceRequest struct {
    ID                 string        `json:"id"`
    ClientID           string        `json:"client_id"`
    AssignedProviderID string        `json:"assigned_provider_id,omitempty"`
    Status             RequestStatus `json:"status"`
    Budget             int64         `json:"budget"`
    EventDate          time.Time     `json:"event_date"`
    Location           string        `json:"location"`
    ServiceType        string        `json:"service_type"`
    Description        string        `json:"description,omitempty"`
    CreatedAt          time.Time     `json:"created_at"`
    UpdatedAt          time.Time     `json:"updated_at"`
}

// Pitch is a provider's competing bid against a request
type Pitch struct {
    ID            string      `json:"id"`
    RequestID     string      `json:"request_id"`
    ProviderID    string      `json:"provider_id"`
    ProposedPrice int64       `json:"proposed_price"`
    Details       string      `json:"details,omitempty"`
    Status        PitchStatus `json:"status"`
    CreatedAt     time.Time   `json:"created_at"`
    UpdatedAt     time.Time   `json:"updated_at"`
}

// Payment is the one-per-request money record, created only after the
// request reaches completed
type Payment struct {
    ID         string        `json:"id"`
    RequestID  string        `json:"request_id"`
    ClientID   string        `json:"client_id"`
    ProviderID string        `json:"provider_id"`
    Amount     int64         `json:"amount"`
    Status     PaymentStatus `json:"status"`
    CreatedAt  time.Time     `json:"created_at"`
    UpdatedAt  time.Time     `json:"updated_at"`
}

// Review is the one-time client rating, unlocked by a captured payment
type Review struct {
    ID         string    `json:"id"`
    RequestID  string    `json:"request_id"`
    ClientID   string    `json:"client_id"`
    ProviderID string    `json:"provider_id"`
    Rating     int       `json:"rating"`
    Comment    string    `json:"comment,omitempty"`
    CreatedAt  time.Time `json:"created_at"`
}

// CreateRequestInput is the payload for posting a new request
type CreateRequestInput struct {
    Budget      int64     `json:"budget"`
    EventDate   time.Time `json:"event_date"`
    Location    string    `json:"location"`
    ServiceType string    `json:"service_type"`
    Description string    `json:"description"`
    Draft       bool      `json:"draft"`
}

// UpdateRequestInput carries the descriptive fields the owning client may
// edit while the request is still open. Nil fields are left untouched.
type UpdateRequestInput struct {
    Budget      *int64     `json:"budget"`
    EventDate   *time.Time `json:"event_date"`
    Location    *string    `json:"location"`
    ServiceType *string    `json:"service_type"`
    Description *string    `json:"description"`
}

// SubmitPitchInput is the payload for a provider's bid
type SubmitPitchInput struct {
    ProposedPrice int64  `json:"proposed_price"`
    Details       string `json:"details"`
}

// SubmitReviewInput is the payload for the one-time review
type SubmitReviewInput struct {
    Rating  int    `json:"rating"`
    Comment string `json:"comment"`
}
