package submissions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PgxPool is the subset of pgxpool.Pool used by PostgresStore.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore stores submissions in the relational database.
type PostgresStore struct {
	pool     PgxPool
	capacity Capacity
}

// NewPostgresStore initializes a store backed by pgx.
func NewPostgresStore(pool PgxPool, capacity Capacity) *PostgresStore {
	if pool == nil {
		panic("submissions: pgx pool required")
	}
	return &PostgresStore{pool: pool, capacity: capacity}
}

// Persist implements Store. The capacity check and insert share a
// transaction; enrollment inserts for a program with a seat limit are
// serialized with an advisory lock so two requests cannot take the last
// seat.
func (s *PostgresStore) Persist(ctx context.Context, sub *Submission, idempotencyKey string) (*Stored, error) {
	payload, err := marshalPayload(sub)
	if err != nil {
		return nil, Permanent(err)
	}
	fingerprint, err := payloadFingerprint(sub)
	if err != nil {
		return nil, Permanent(err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("submissions: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if idempotencyKey != "" {
		existing, err := findByKey(ctx, tx, idempotencyKey, fingerprint)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	pending := 0
	if limit, ok := s.capacity[sub.Program()]; ok && limit > 0 && sub.Kind == KindEnrollment {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "enrollment:"+sub.Program()); err != nil {
			return nil, fmt.Errorf("submissions: capacity lock: %w", err)
		}
		if err := tx.QueryRow(ctx, `
			SELECT count(*) FROM submissions
			WHERE kind = $1 AND program = $2 AND status = $3
		`, string(KindEnrollment), sub.Program(), string(StatusPending)).Scan(&pending); err != nil {
			return nil, fmt.Errorf("submissions: capacity count: %w", err)
		}
	}
	status := s.capacity.StatusFor(sub, pending)

	id := uuid.New()
	var createdAt time.Time
	err = tx.QueryRow(ctx, `
		INSERT INTO submissions (id, kind, status, email, program, payload, locale, source_ip, user_agent, idempotency_key, payload_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING created_at
	`,
		id,
		string(sub.Kind),
		string(status),
		sub.Email(),
		sub.Program(),
		payload,
		sub.Source.Locale,
		sub.Source.IP,
		sub.Source.UserAgent,
		nullableKey(idempotencyKey),
		fingerprint,
	).Scan(&createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost a race with a concurrent request carrying the same key.
		existing, ferr := findByKey(ctx, tx, idempotencyKey, fingerprint)
		if ferr != nil {
			return nil, ferr
		}
		if existing == nil {
			return nil, fmt.Errorf("submissions: insert conflict without existing row")
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("submissions: insert failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("submissions: commit: %w", err)
	}

	return &Stored{ID: id.String(), Status: status, CreatedAt: createdAt}, nil
}

// findByKey returns the row stored under key, nil when there is none, or
// ErrIdempotencyConflict when that row holds a different payload.
func findByKey(ctx context.Context, q pgx.Tx, key, fingerprint string) (*Stored, error) {
	var (
		id        uuid.UUID
		status    string
		createdAt time.Time
		hash      string
	)
	err := q.QueryRow(ctx, `
		SELECT id, status, created_at, payload_hash FROM submissions WHERE idempotency_key = $1
	`, key).Scan(&id, &status, &createdAt, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("submissions: idempotency lookup: %w", err)
	}
	if hash != fingerprint {
		return nil, Permanent(ErrIdempotencyConflict)
	}
	return &Stored{ID: id.String(), Status: Status(status), CreatedAt: createdAt, Duplicate: true}, nil
}

// GetByID implements Reader.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*Submission, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, kind, status, payload, locale, source_ip, user_agent, created_at
		FROM submissions
		WHERE id = $1
	`, id)
	sub, err := scanSubmission(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("submissions: select failed: %w", err)
	}
	return sub, nil
}

// List implements Reader, newest first.
func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*Submission, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, kind, status, payload, locale, source_ip, user_agent, created_at
		FROM submissions
		WHERE ($1 = '' OR kind = $1) AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, string(filter.Kind), string(filter.Status), limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("submissions: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("submissions: scan failed: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func scanSubmission(row pgx.Row) (*Submission, error) {
	var (
		id      uuid.UUID
		kind    string
		status  string
		payload []byte
		sub     Submission
	)
	if err := row.Scan(&id, &kind, &status, &payload, &sub.Source.Locale, &sub.Source.IP, &sub.Source.UserAgent, &sub.CreatedAt); err != nil {
		return nil, err
	}
	sub.ID = id.String()
	sub.Kind = Kind(kind)
	sub.Status = Status(status)
	if err := unmarshalPayload(&sub, payload); err != nil {
		return nil, err
	}
	return &sub, nil
}

func marshalPayload(sub *Submission) ([]byte, error) {
	switch sub.Kind {
	case KindContact:
		if sub.Contact == nil {
			return nil, fmt.Errorf("submissions: contact payload missing")
		}
		return json.Marshal(sub.Contact)
	case KindEnrollment:
		if sub.Enrollment == nil {
			return nil, fmt.Errorf("submissions: enrollment payload missing")
		}
		return json.Marshal(sub.Enrollment)
	}
	return nil, ErrUnknownKind
}

func unmarshalPayload(sub *Submission, payload []byte) error {
	switch sub.Kind {
	case KindContact:
		sub.Contact = &ContactPayload{}
		return json.Unmarshal(payload, sub.Contact)
	case KindEnrollment:
		sub.Enrollment = &EnrollmentPayload{}
		return json.Unmarshal(payload, sub.Enrollment)
	}
	return ErrUnknownKind
}

func nullableKey(key string) any {
	if key == "" {
		return nil
	}
	return key
}
