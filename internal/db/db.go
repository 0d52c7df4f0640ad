package db

import (
    "context"
    "fmt"
    "log"
    "os"

    "github.com/jackc/pgx/v5/pgxpool"
)

var Conn *pgxpool.Pool

// Init connects to Postgres and ensures the schema exists
func Init() {
    dsn := os.Getenv("DATABASE_URL")
    if dsn == "" {
        dsn = fmt.Sprintf(
            "postgres://%s:%s@%s:%s/%s",
            os.Getenv("DB_USER"),
            os.Getenv("DB_PASSWORD"),
            os.Getenv("DB_HOST"),
            os.Getenv("DB_PORT"),
            os.Getenv("DB_NAME"),
        )
    }

    var err error
    Conn, err = pgxpool.New(context.Background(), dsn)
    if err != nil {
        log.Fatalf("Unable to connect to database: %v\n", err)
    }

    if err = Conn.Ping(context.Background()); err != nil {
        log.Fatalf("Unable to ping database: %v\n", err)
    }

    log.Println("Connected to Postgres successfully")

    ensureUsersTable()
    ensureRequestsTable()
    ensurePitchesTable()
    ensurePaymentsTables()
    ensureReviewsTable()
    ensureNotificationsTable()
}

// ensureUsersTable creates users if missing
func ensureUsersTable() {
    _, err := Conn.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            role TEXT NOT NULL CHECK (role IN ('client','provider','admin')),
            bio TEXT DEFAULT '',
            avatar_url TEXT DEFAULT '',
            is_active BOOLEAN DEFAULT TRUE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        )`)
    if err != nil {
        log.Printf("failed to create users table: %v", err)
    }
}

// ensureRequestsTable creates requests with the status constraint the
// lifecycle engine relies on
func ensureRequestsTable() {
    _, err := Conn.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS requests (
            id UUID PRIMARY KEY,
            client_id UUID NOT NULL REFERENCES users(id),
            assigned_provider_id UUID NULL REFERENCES users(id),
            status TEXT NOT NULL CHECK (status IN ('draft','open','assigned','completed','cancelled','deleted')),
            budget BIGINT NOT NULL CHECK (budget > 0),
            event_date TIMESTAMP WITH TIME ZONE NOT NULL,
            location TEXT DEFAULT '',
            service_type TEXT NOT NULL,
            description TEXT DEFAULT '',
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_requests_client ON requests(client_id);
        CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status);
    `)
    if err != nil {
        log.Printf("failed to create requests table: %v", err)
    }
}

func ensurePitchesTable() {
    _, err := Conn.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS pitches (
            id UUID PRIMARY KEY,
            request_id UUID NOT NULL REFERENCES requests(id) ON DELETE CASCADE,
            provider_id UUID NOT NULL REFERENCES users(id),
            proposed_price BIGINT NOT NULL CHECK (proposed_price > 0),
            details TEXT DEFAULT '',
            status TEXT NOT NULL CHECK (status IN ('pending','win','lose')),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_pitches_request ON pitches(request_id);
        CREATE INDEX IF NOT EXISTS idx_pitches_provider ON pitches(provider_id);
        -- at most one winning pitch can ever exist per request
        CREATE UNIQUE INDEX IF NOT EXISTS idx_pitches_one_winner ON pitches(request_id) WHERE status = 'win';
    `)
    if err != nil {
        log.Printf("failed to create pitches table: %v", err)
    }
}

func ensurePaymentsTables() {
    _, err := Conn.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS payments (
            id UUID PRIMARY KEY,
            request_id UUID NOT NULL REFERENCES requests(id) ON DELETE CASCADE,
            client_id UUID NOT NULL REFERENCES users(id),
            provider_id UUID NOT NULL REFERENCES users(id),
            amount BIGINT NOT NULL CHECK (amount > 0),
            status TEXT NOT NULL CHECK (status IN ('pending','completed','failed')),
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_payments_request ON payments(request_id);
        -- at most one captured payment per request
        CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_one_completed ON payments(request_id) WHERE status = 'completed';

        CREATE TABLE IF NOT EXISTS payment_events (
            id BIGSERIAL PRIMARY KEY,
            payment_id UUID NOT NULL REFERENCES payments(id) ON DELETE CASCADE,
            request_id UUID NOT NULL,
            event TEXT NOT NULL,
            amount BIGINT NOT NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_payment_events_payment ON payment_events(payment_id);
    `)
    if err != nil {
        log.Printf("failed to create payments tables: %v", err)
    }
}

func ensureReviewsTable() {
    _, err := Conn.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS reviews (
            id UUID PRIMARY KEY,
            request_id UUID NOT NULL UNIQUE REFERENCES requests(id) ON DELETE CASCADE,
            client_id UUID NOT NULL REFERENCES users(id),
            provider_id UUID NOT NULL REFERENCES users(id),
            rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
            comment TEXT DEFAULT '',
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_reviews_provider ON reviews(provider_id);
    `)
    if err != nil {
        log.Printf("failed to create reviews table: %v", err)
    }
}

// ensureNotificationsTable creates notifications for in-app alerts
func ensureNotificationsTable() {
    _, err := Conn.Exec(context.Background(), `
        CREATE TABLE IF NOT EXISTS notifications (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            type TEXT NOT NULL,
            title TEXT NOT NULL,
            body TEXT,
            reference UUID NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            read_at TIMESTAMP WITH TIME ZONE NULL
        );
        CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at);
        CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id) WHERE read_at IS NULL;
    `)
    if err != nil {
        log.Printf("failed to create notifications table: %v", err)
    }
}
