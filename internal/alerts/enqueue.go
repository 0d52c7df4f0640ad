package alerts

import (
    "encoding/json"
    "time"

    "github.com/hibiken/asynq"
)

// ensureClient returns a usable client instance without starting the
// worker server (enqueue-only callers, tests)
func ensureClient() *asynq.Client {
    if client == nil {
        client = asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr()})
    }
    return client
}

func enqueue(taskType string, payload any) error {
    b, _ := json.Marshal(payload)
    task := asynq.NewTask(taskType, b)
    _, err := ensureClient().Enqueue(task, asynq.Queue("notifications"))
    return err
}

// EnqueuePitchReceived tells the request's client a new pitch arrived
func EnqueuePitchReceived(requestID, pitchID, providerID string, price int64) error {
    return enqueue(TaskPitchReceived, PitchReceivedPayload{
        RequestID: requestID, PitchID: pitchID, ProviderID: providerID, Price: price, SentAt: time.Now(),
    })
}

// EnqueueWinnerAssigned congratulates the winning provider
func EnqueueWinnerAssigned(requestID, providerID string, amount int64) error {
    return enqueue(TaskWinnerAssigned, WinnerAssignedPayload{
        RequestID: requestID, ProviderID: providerID, Amount: amount, SentAt: time.Now(),
    })
}

// EnqueuePitchLost tells a provider their pitch was not selected
func EnqueuePitchLost(requestID, pitchID, providerID string) error {
    return enqueue(TaskPitchLost, PitchLostPayload{
        RequestID: requestID, PitchID: pitchID, ProviderID: providerID, SentAt: time.Now(),
    })
}

// EnqueueRequestCompleted notifies both parties the work is done
func EnqueueRequestCompleted(requestID, clientID, providerID string, amount int64) error {
    return enqueue(TaskRequestCompleted, RequestCompletedPayload{
        RequestID: requestID, ClientID: clientID, ProviderID: providerID, Amount: amount, SentAt: time.Now(),
    })
}

// EnqueuePaymentCaptured notifies the provider the money cleared
func EnqueuePaymentCaptured(requestID, clientID, providerID string, amount int64) error {
    return enqueue(TaskPaymentCaptured, PaymentCapturedPayload{
        RequestID: requestID, ClientID: clientID, ProviderID: providerID, Amount: amount, SentAt: time.Now(),
    })
}

// EnqueueReviewPrompt surfaces the one-time review prompt to the client
func EnqueueReviewPrompt(requestID, clientID, providerID string) error {
    return enqueue(TaskReviewPrompt, ReviewPromptPayload{
        RequestID: requestID, ClientID: clientID, ProviderID: providerID, SentAt: time.Now(),
    })
}
