package alerts

import "time"

// Task type constants
const (
    TaskPitchReceived    = "notify:pitch_received"
    TaskWinnerAssigned   = "notify:winner_assigned"
    TaskPitchLost        = "notify:pitch_lost"
    TaskRequestCompleted = "notify:request_completed"
    TaskPaymentCaptured  = "notify:payment_captured"
    TaskReviewPrompt     = "notify:review_prompt"
)

// Pitch received payload (notifies the request's client)
type PitchReceivedPayload struct {
    RequestID  string    `json:"request_id"`
    PitchID    string    `json:"pitch_id"`
    ProviderID string    `json:"provider_id"`
    Price      int64     `json:"price"`
    SentAt     time.Time `json:"sent_at"`
}

// Winner assigned payload (notifies the winning provider)
type WinnerAssignedPayload struct {
    RequestID  string    `json:"request_id"`
    ProviderID string    `json:"provider_id"`
    Amount     int64     `json:"amount"`
    SentAt     time.Time `json:"sent_at"`
}

// Pitch lost payload (notifies a losing provider)
type PitchLostPayload struct {
    RequestID  string    `json:"request_id"`
    PitchID    string    `json:"pitch_id"`
    ProviderID string    `json:"provider_id"`
    SentAt     time.Time `json:"sent_at"`
}

// Request completed payload (notifies both parties)
type RequestCompletedPayload struct {
    RequestID  string    `json:"request_id"`
    ClientID   string    `json:"client_id"`
    ProviderID string    `json:"provider_id"`
    Amount     int64     `json:"amount"`
    SentAt     time.Time `json:"sent_at"`
}

// Payment captured payload (notifies the provider)
type PaymentCapturedPayload struct {
    RequestID  string    `json:"request_id"`
    ClientID   string    `json:"client_id"`
    ProviderID string    `json:"provider_id"`
    Amount     int64     `json:"amount"`
    SentAt     time.Time `json:"sent_at"`
}

// Review prompt payload (notifies the client once payment captured)
type ReviewPromptPayload struct {
    RequestID  string    `json:"request_id"`
    ClientID   string    `json:"client_id"`
    ProviderID string    `json:"provider_id"`
    SentAt     time.Time `json:"sent_at"`
}
