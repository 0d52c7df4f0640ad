package alerts

import (
    "context"
    "encoding/json"
    "fmt"
    "log"
    "os"

    "github.com/hibiken/asynq"

    "github.com/planhive/planhive/internal/db"
)

var (
    client *asynq.Client
    server *asynq.Server
)

func redisAddr() string {
    if addr := os.Getenv("REDIS_ADDR"); addr != "" {
        return addr
    }
    if host := os.Getenv("REDIS_HOST"); host != "" {
        port := os.Getenv("REDIS_PORT")
        if port == "" {
            port = "6379"
        }
        return host + ":" + port
    }
    if os.Getenv("RUN_LOCAL") == "true" {
        return "127.0.0.1:6379"
    }
    return "redis:6379"
}

// Init starts the Asynq server and initializes a shared client.
func Init() {
    opts := asynq.RedisClientOpt{Addr: redisAddr()}
    client = asynq.NewClient(opts)

    mux := asynq.NewServeMux()
    mux.HandleFunc(TaskPitchReceived, handlePitchReceived)
    mux.HandleFunc(TaskWinnerAssigned, handleWinnerAssigned)
    mux.HandleFunc(TaskPitchLost, handlePitchLost)
    mux.HandleFunc(TaskRequestCompleted, handleRequestCompleted)
    mux.HandleFunc(TaskPaymentCaptured, handlePaymentCaptured)
    mux.HandleFunc(TaskReviewPrompt, handleReviewPrompt)

    server = asynq.NewServer(opts, asynq.Config{
        Concurrency: 5,
        Queues: map[string]int{
            "notifications": 10,
        },
    })
    go func() {
        if err := server.Run(mux); err != nil {
            log.Printf("Asynq server stopped: %v", err)
        }
    }()

    log.Printf("Asynq initialized (addr=%s)", redisAddr())
}

// Close releases client and stops server.
func Close() {
    if client != nil {
        _ = client.Close()
    }
    if server != nil {
        server.Shutdown()
    }
}

// recordNotification writes the in-app notification row; message delivery
// beyond the bell (email, push) is out of scope here.
func recordNotification(ctx context.Context, userID, ntype, title, body, reference string) error {
    if db.Conn == nil {
        log.Printf("[notify] %s -> %s: %s", ntype, userID, title)
        return nil
    }
    _, err := db.Conn.Exec(ctx,
        `INSERT INTO notifications (user_id, type, title, body, reference)
         VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid)`,
        userID, ntype, title, body, reference,
    )
    return err
}

// requestClient resolves the owning client of a request for tasks whose
// payload only carries the request id.
func requestClient(ctx context.Context, requestID string) (string, error) {
    if db.Conn == nil {
        return "", nil
    }
    var clientID string
    err := db.Conn.QueryRow(ctx,
        `SELECT client_id FROM requests WHERE id = $1`, requestID).Scan(&clientID)
    return clientID, err
}

func handlePitchReceived(ctx context.Context, t *asynq.Task) error {
    var p PitchReceivedPayload
    if err := json.Unmarshal(t.Payload(), &p); err != nil {
        return err
    }
    clientID, err := requestClient(ctx, p.RequestID)
    if err != nil || clientID == "" {
        return err
    }
    return recordNotification(ctx, clientID, TaskPitchReceived,
        "New pitch on your request",
        fmt.Sprintf("A provider pitched %d on request %s.", p.Price, p.RequestID),
        p.RequestID)
}

func handleWinnerAssigned(ctx context.Context, t *asynq.Task) error {
    var p WinnerAssignedPayload
    if err := json.Unmarshal(t.Payload(), &p); err != nil {
        return err
    }
    return recordNotification(ctx, p.ProviderID, TaskWinnerAssigned,
        "Your pitch won",
        fmt.Sprintf("You were assigned request %s at %d.", p.RequestID, p.Amount),
        p.RequestID)
}

func handlePitchLost(ctx context.Context, t *asynq.Task) error {
    var p PitchLostPayload
    if err := json.Unmarshal(t.Payload(), &p); err != nil {
        return err
    }
    return recordNotification(ctx, p.ProviderID, TaskPitchLost,
        "Pitch not selected",
        fmt.Sprintf("Your pitch on request %s was not selected.", p.RequestID),
        p.RequestID)
}

func handleRequestCompleted(ctx context.Context, t *asynq.Task) error {
    var p RequestCompletedPayload
    if err := json.Unmarshal(t.Payload(), &p); err != nil {
        return err
    }
    if err := recordNotification(ctx, p.ClientID, TaskRequestCompleted,
        "Request completed",
        fmt.Sprintf("Request %s is complete. Payment of %d is due.", p.RequestID, p.Amount),
        p.RequestID); err != nil {
        return err
    }
    return recordNotification(ctx, p.ProviderID, TaskRequestCompleted,
        "Request completed",
        fmt.Sprintf("Request %s is marked complete.", p.RequestID),
        p.RequestID)
}

func handlePaymentCaptured(ctx context.Context, t *asynq.Task) error {
    var p PaymentCapturedPayload
    if err := json.Unmarshal(t.Payload(), &p); err != nil {
        return err
    }
    return recordNotification(ctx, p.ProviderID, TaskPaymentCaptured,
        "Payment received",
        fmt.Sprintf("Payment of %d for request %s has cleared.", p.Amount, p.RequestID),
        p.RequestID)
}

func handleReviewPrompt(ctx context.Context, t *asynq.Task) error {
    var p ReviewPromptPayload
    if err := json.Unmarshal(t.Payload(), &p); err != nil {
        return err
    }
    return recordNotification(ctx, p.ClientID, TaskReviewPrompt,
        "How did it go?",
        fmt.Sprintf("Leave a review for the provider on request %s.", p.RequestID),
        p.RequestID)
}
