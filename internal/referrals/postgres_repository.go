package referrals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PgxQuerier is the subset of pgxpool.Pool used by PostgresRepository.
type PgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores referrals in the relational database.
type PostgresRepository struct {
	pool PgxQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool PgxQuerier) *PostgresRepository {
	if pool == nil {
		panic("referrals: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateReferralRequest) (*Referral, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO referrals (id, code, referrer_name, referrer_email, referred_family, referred_email, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id,
		req.Code,
		req.ReferrerName,
		req.ReferrerEmail,
		req.ReferredFamily,
		req.ReferredEmail,
		string(StatusNew),
		req.Notes,
	).Scan(&createdAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrDuplicateCode
		}
		return nil, fmt.Errorf("referrals: insert failed: %w", err)
	}

	return &Referral{
		ID:             id.String(),
		Code:           req.Code,
		ReferrerName:   req.ReferrerName,
		ReferrerEmail:  req.ReferrerEmail,
		ReferredFamily: req.ReferredFamily,
		ReferredEmail:  req.ReferredEmail,
		Status:         StatusNew,
		Notes:          req.Notes,
		CreatedAt:      createdAt,
	}, nil
}

const selectColumns = `id, code, referrer_name, referrer_email, referred_family, referred_email, status, notes, created_at`

// GetByCode fetches a referral by code.
func (r *PostgresRepository) GetByCode(ctx context.Context, code string) (*Referral, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM referrals WHERE code = $1`, code)
	ref, err := scanReferral(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("referrals: select failed: %w", err)
	}
	return ref, nil
}

// List returns referrals newest first.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*Referral, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+selectColumns+`
		FROM referrals
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("referrals: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Referral
	for rows.Next() {
		ref, err := scanReferral(rows)
		if err != nil {
			return nil, fmt.Errorf("referrals: scan failed: %w", err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

func scanReferral(row pgx.Row) (*Referral, error) {
	var (
		ref    Referral
		status string
	)
	if err := row.Scan(
		&ref.ID,
		&ref.Code,
		&ref.ReferrerName,
		&ref.ReferrerEmail,
		&ref.ReferredFamily,
		&ref.ReferredEmail,
		&status,
		&ref.Notes,
		&ref.CreatedAt,
	); err != nil {
		return nil, err
	}
	ref.Status = Status(status)
	return &ref, nil
}
