package marketplace

import (
    "context"
    "errors"

    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the Postgres-backed Store. ApplyAssignment and UpdatePayment
// run in transactions; the request row is locked with FOR UPDATE so two
// assignment attempts on the same request serialize at the database even
// across processes.
type PGStore struct {
    pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
    return &PGStore{pool: pool}
}

const requestColumns = `id, client_id, COALESCE(assigned_provider_id::text, ''), status, budget, event_date, location, service_type, description, created_at, updated_at`

func scanRequest(row pgx.Row) (*ServiceRequest, error) {
    var r ServiceRequest
    err := row.Scan(&r.ID, &r.ClientID, &r.AssignedProviderID, &r.Status, &r.Budget,
        &r.EventDate, &r.Location, &r.ServiceType, &r.Description, &r.CreatedAt, &r.UpdatedAt)
    if err != nil {
        return nil, err
    }
    return &r, nil
}

func (s *PGStore) CreateRequest(ctx context.Context, r *ServiceRequest) error {
    _, err := s.pool.Exec(ctx,
        `INSERT INTO requests (id, client_id, status, budget, event_date, location, service_type, description, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
        r.ID, r.ClientID, r.Status, r.Budget, r.EventDate, r.Location, r.ServiceType, r.Description, r.CreatedAt,
    )
    return err
}

func (s *PGStore) GetRequest(ctx context.Context, id string) (*ServiceRequest, error) {
    r, err := scanRequest(s.pool.QueryRow(ctx,
        `SELECT `+requestColumns+` FROM requests WHERE id = $1`, id))
    if err != nil {
        if errors.Is(err, pgx.ErrNoRows) {
            return nil, notFoundf("request %s not found", id)
        }
        return nil, err
    }
    return r, nil
}

func (s *PGStore) UpdateRequest(ctx context.Context, r *ServiceRequest) error {
    tag, err := s.pool.Exec(ctx,
        `UPDATE requests
         SET assigned_provider_id = NULLIF($2, '')::uuid, status = $3, budget = $4,
             event_date = $5, location = $6, service_type = $7, description = $8, updated_at = NOW()
         WHERE id = $1`,
        r.ID, r.AssignedProviderID, r.Status, r.Budget, r.EventDate, r.Location, r.ServiceType, r.Description,
    )
    if err != nil {
        return err
    }
    if tag.RowsAffected() == 0 {
        return notFoundf("request %s not found", r.ID)
    }
    return nil
}

func (s *PGStore) listRequests(ctx context.Context, query string, args ...any) ([]ServiceRequest, error) {
    rows, err := s.pool.Query(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []ServiceRequest
    for rows.Next() {
        r, err := scanRequest(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *r)
    }
    return out, rows.Err()
}

func (s *PGStore) ListOpenRequests(ctx context.Context) ([]ServiceRequest, error) {
    return s.listRequests(ctx,
        `SELECT `+requestColumns+` FROM requests WHERE status = 'open' ORDER BY created_at DESC`)
}

func (s *PGStore) ListRequestsByClient(ctx context.Context, clientID string) ([]ServiceRequest, error) {
    return s.listRequests(ctx,
        `SELECT `+requestColumns+` FROM requests WHERE client_id = $1 AND status <> 'deleted' ORDER BY created_at DESC`,
        clientID)
}

func (s *PGStore) ListAllRequests(ctx context.Context) ([]ServiceRequest, error) {
    return s.listRequests(ctx,
        `SELECT `+requestColumns+` FROM requests ORDER BY created_at DESC`)
}

const pitchColumns = `id, request_id, provider_id, proposed_price, details, status, created_at, updated_at`

func scanPitch(row pgx.Row) (*Pitch, error) {
    var p Pitch
    err := row.Scan(&p.ID, &p.RequestID, &p.ProviderID, &p.ProposedPrice, &p.Details, &p.Status, &p.CreatedAt, &p.UpdatedAt)
    if err != nil {
        return nil, err
    }
    return &p, nil
}

func (s *PGStore) CreatePitch(ctx context.Context, p *Pitch) error {
    _, err := s.pool.Exec(ctx,
        `INSERT INTO pitches (id, request_id, provider_id, proposed_price, details, status, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
        p.ID, p.RequestID, p.ProviderID, p.ProposedPrice, p.Details, p.Status, p.CreatedAt,
    )
    return err
}

func (s *PGStore) GetPitch(ctx context.Context, id string) (*Pitch, error) {
    p, err := scanPitch(s.pool.QueryRow(ctx,
        `SELECT `+pitchColumns+` FROM pitches WHERE id = $1`, id))
    if err != nil {
        if errors.Is(err, pgx.ErrNoRows) {
            return nil, notFoundf("pitch %s not found", id)
        }
        return nil, err
    }
    return p, nil
}

func (s *PGStore) DeletePitch(ctx context.Context, id string) error {
    tag, err := s.pool.Exec(ctx, `DELETE FROM pitches WHERE id = $1`, id)
    if err != nil {
        return err
    }
    if tag.RowsAffected() == 0 {
        return notFoundf("pitch %s not found", id)
    }
    return nil
}

func (s *PGStore) listPitches(ctx context.Context, query string, args ...any) ([]Pitch, error) {
    rows, err := s.pool.Query(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []Pitch
    for rows.Next() {
        p, err := scanPitch(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *p)
    }
    return out, rows.Err()
}

func (s *PGStore) ListPitchesByRequest(ctx context.Context, requestID string) ([]Pitch, error) {
    return s.listPitches(ctx,
        `SELECT `+pitchColumns+` FROM pitches WHERE request_id = $1 ORDER BY created_at ASC`, requestID)
}

func (s *PGStore) ListPitchesByProvider(ctx context.Context, providerID string) ([]Pitch, error) {
    return s.listPitches(ctx,
        `SELECT `+pitchColumns+` FROM pitches WHERE provider_id = $1 ORDER BY created_at DESC`, providerID)
}

func (s *PGStore) MarkPendingPitchesLost(ctx context.Context, requestID, exceptPitchID string) error {
    _, err := s.pool.Exec(ctx,
        `UPDATE pitches SET status = 'lose', updated_at = NOW()
         WHERE request_id = $1 AND id <> $2 AND status = 'pending'`,
        requestID, exceptPitchID,
    )
    return err
}

// ApplyAssignment performs the winner selection in one transaction. The
// request row is locked first, then re-checked, so the second of two
// racing calls sees the already-assigned row and gets a conflict instead
// of double-processing the pitch set.
func (s *PGStore) ApplyAssignment(ctx context.Context, a Assignment) error {
    tx, err := s.pool.Begin(ctx)
    if err != nil {
        return err
    }
    defer tx.Rollback(ctx)

    var status RequestStatus
    var assigned string
    err = tx.QueryRow(ctx,
        `SELECT status, COALESCE(assigned_provider_id::text, '') FROM requests WHERE id = $1 FOR UPDATE`,
        a.RequestID,
    ).Scan(&status, &assigned)
    if err != nil {
        if errors.Is(err, pgx.ErrNoRows) {
            return notFoundf("request %s not found", a.RequestID)
        }
        return err
    }
    if status != RequestOpen || assigned != "" {
        return conflictf("request %s already assigned", a.RequestID)
    }

    var pitchRequestID string
    var pitchStatus PitchStatus
    err = tx.QueryRow(ctx,
        `SELECT request_id, status FROM pitches WHERE id = $1 FOR UPDATE`, a.PitchID,
    ).Scan(&pitchRequestID, &pitchStatus)
    if err != nil {
        if errors.Is(err, pgx.ErrNoRows) {
            return notFoundf("pitch %s not found", a.PitchID)
        }
        return err
    }
    if pitchRequestID != a.RequestID {
        return validationf("pitch %s does not belong to request %s", a.PitchID, a.RequestID)
    }
    if pitchStatus != PitchPending {
        return invalidStatef("pitch %s is %s, not pending", a.PitchID, pitchStatus)
    }

    if _, err = tx.Exec(ctx,
        `UPDATE pitches SET status = 'win', updated_at = NOW() WHERE id = $1`, a.PitchID); err != nil {
        return err
    }
    if _, err = tx.Exec(ctx,
        `UPDATE pitches SET status = 'lose', updated_at = NOW()
         WHERE request_id = $1 AND id <> $2 AND status = 'pending'`,
        a.RequestID, a.PitchID); err != nil {
        return err
    }
    if _, err = tx.Exec(ctx,
        `UPDATE requests SET assigned_provider_id = $2, budget = $3, status = 'assigned', updated_at = NOW()
         WHERE id = $1`,
        a.RequestID, a.ProviderID, a.Price); err != nil {
        return err
    }

    return tx.Commit(ctx)
}

const paymentColumns = `id, request_id, client_id, provider_id, amount, status, created_at, updated_at`

func scanPayment(row pgx.Row) (*Payment, error) {
    var p Payment
    err := row.Scan(&p.ID, &p.RequestID, &p.ClientID, &p.ProviderID, &p.Amount, &p.Status, &p.CreatedAt, &p.UpdatedAt)
    if err != nil {
        return nil, err
    }
    return &p, nil
}

func (s *PGStore) CreatePayment(ctx context.Context, p *Payment) error {
    tx, err := s.pool.Begin(ctx)
    if err != nil {
        return err
    }
    defer tx.Rollback(ctx)

    if _, err = tx.Exec(ctx,
        `INSERT INTO payments (id, request_id, client_id, provider_id, amount, status, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
        p.ID, p.RequestID, p.ClientID, p.ProviderID, p.Amount, p.Status, p.CreatedAt); err != nil {
        return err
    }
    if _, err = tx.Exec(ctx,
        `INSERT INTO payment_events (payment_id, request_id, event, amount, created_at)
         VALUES ($1, $2, 'initiated', $3, NOW())`,
        p.ID, p.RequestID, p.Amount); err != nil {
        return err
    }
    return tx.Commit(ctx)
}

func (s *PGStore) GetPayment(ctx context.Context, id string) (*Payment, error) {
    p, err := scanPayment(s.pool.QueryRow(ctx,
        `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
    if err != nil {
        if errors.Is(err, pgx.ErrNoRows) {
            return nil, notFoundf("payment %s not found", id)
        }
        return nil, err
    }
    return p, nil
}

func (s *PGStore) GetPaymentByRequest(ctx context.Context, requestID string) (*Payment, error) {
    p, err := scanPayment(s.pool.QueryRow(ctx,
        `SELECT `+paymentColumns+` FROM payments WHERE request_id = $1 ORDER BY created_at DESC LIMIT 1`,
        requestID))
    if err != nil {
        if errors.Is(err, pgx.ErrNoRows) {
            return nil, notFoundf("no payment for request %s", requestID)
        }
        return nil, err
    }
    return p, nil
}

func (s *PGStore) UpdatePayment(ctx context.Context, p *Payment, event string) error {
    tx, err := s.pool.Begin(ctx)
    if err != nil {
        return err
    }
    defer tx.Rollback(ctx)

    tag, err := tx.Exec(ctx,
        `UPDATE payments SET amount = $2, status = $3, updated_at = NOW() WHERE id = $1`,
        p.ID, p.Amount, p.Status)
    if err != nil {
        return err
    }
    if tag.RowsAffected() == 0 {
        return notFoundf("payment %s not found", p.ID)
    }
    if _, err = tx.Exec(ctx,
        `INSERT INTO payment_events (payment_id, request_id, event, amount, created_at)
         VALUES ($1, $2, $3, $4, NOW())`,
        p.ID, p.RequestID, event, p.Amount); err != nil {
        return err
    }
    return tx.Commit(ctx)
}

func (s *PGStore) CreateReview(ctx context.Context, r *Review) error {
    // reviews.request_id is UNIQUE; a duplicate insert surfaces as conflict
    var exists bool
    if err := s.pool.QueryRow(ctx,
        `SELECT EXISTS (SELECT 1 FROM reviews WHERE request_id = $1)`, r.RequestID).Scan(&exists); err != nil {
        return err
    }
    if exists {
        return conflictf("review already exists for request %s", r.RequestID)
    }
    _, err := s.pool.Exec(ctx,
        `INSERT INTO reviews (id, request_id, client_id, provider_id, rating, comment, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)`,
        r.ID, r.RequestID, r.ClientID, r.ProviderID, r.Rating, r.Comment, r.CreatedAt,
    )
    return err
}

func (s *PGStore) GetReviewByRequest(ctx context.Context, requestID string) (*Review, error) {
    var r Review
    err := s.pool.QueryRow(ctx,
        `SELECT id, request_id, client_id, provider_id, rating, comment, created_at
         FROM reviews WHERE request_id = $1`, requestID,
    ).Scan(&r.ID, &r.RequestID, &r.ClientID, &r.ProviderID, &r.Rating, &r.Comment, &r.CreatedAt)
    if err != nil {
        if errors.Is(err, pgx.ErrNoRows) {
            return nil, notFoundf("no review for request %s", requestID)
        }
        return nil, err
    }
    return &r, nil
}

var _ Store = (*PGStore)(nil)
var _ Store = (*MemStore)(nil)
