package submissions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T, capacity Capacity) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewPostgresStore(mock, capacity), mock
}

var keyColumns = []string{"id", "status", "created_at", "payload_hash"}

func insertArgs() []any {
	args := make([]any, 11)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestPostgresStore_PersistNewEnrollmentWithCapacity(t *testing.T) {
	store, mock := newMockStore(t, Capacity{"infant": 8})
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, status, created_at, payload_hash FROM submissions").
		WithArgs("key-1").
		WillReturnRows(pgxmock.NewRows(keyColumns))
	mock.ExpectExec("pg_advisory_xact_lock").
		WithArgs("enrollment:infant").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery("SELECT count").
		WithArgs("enrollment", "infant", "pending").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(8))
	mock.ExpectQuery("INSERT INTO submissions").
		WithArgs(insertArgs()...).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectCommit()

	stored, err := store.Persist(context.Background(), enrollmentSubmission("infant"), "key-1")
	require.NoError(t, err)
	assert.Equal(t, StatusWaitlisted, stored.Status)
	assert.Equal(t, now, stored.CreatedAt)
	_, err = uuid.Parse(stored.ID)
	assert.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PersistContactSkipsCapacity(t *testing.T) {
	store, mock := newMockStore(t, Capacity{"infant": 8})
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO submissions").
		WithArgs(insertArgs()...).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectCommit()

	sub := &Submission{Kind: KindContact, Contact: &ContactPayload{Name: "Ana", Email: "a@b.co", Message: "hi"}}
	stored, err := store.Persist(context.Background(), sub, "")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PersistReplaysExistingKey(t *testing.T) {
	store, mock := newMockStore(t, nil)
	id := uuid.New()
	created := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	sub := enrollmentSubmission("toddler")
	hash, err := payloadFingerprint(sub)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, status, created_at, payload_hash FROM submissions").
		WithArgs("key-1").
		WillReturnRows(pgxmock.NewRows(keyColumns).AddRow(id, "pending", created, hash))
	mock.ExpectRollback()

	stored, err := store.Persist(context.Background(), sub, "key-1")
	require.NoError(t, err)
	assert.True(t, stored.Duplicate)
	assert.Equal(t, id.String(), stored.ID)
	assert.Equal(t, created, stored.CreatedAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PersistKeyWithDifferentPayload(t *testing.T) {
	store, mock := newMockStore(t, nil)
	created := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, status, created_at, payload_hash FROM submissions").
		WithArgs("key-1").
		WillReturnRows(pgxmock.NewRows(keyColumns).AddRow(uuid.New(), "pending", created, "other-payload"))
	mock.ExpectRollback()

	_, err := store.Persist(context.Background(), enrollmentSubmission("toddler"), "key-1")
	require.ErrorIs(t, err, ErrIdempotencyConflict)
	assert.False(t, IsTransient(err))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PersistLosesInsertRace(t *testing.T) {
	store, mock := newMockStore(t, nil)
	id := uuid.New()
	created := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	sub := &Submission{Kind: KindContact, Contact: &ContactPayload{Name: "Ana", Email: "a@b.co", Message: "hi"}}
	hash, err := payloadFingerprint(sub)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, status, created_at, payload_hash FROM submissions").
		WithArgs("key-1").
		WillReturnRows(pgxmock.NewRows(keyColumns))
	mock.ExpectQuery("INSERT INTO submissions").
		WithArgs(insertArgs()...).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}))
	mock.ExpectQuery("SELECT id, status, created_at, payload_hash FROM submissions").
		WithArgs("key-1").
		WillReturnRows(pgxmock.NewRows(keyColumns).AddRow(id, "pending", created, hash))
	mock.ExpectRollback()

	stored, err := store.Persist(context.Background(), sub, "key-1")
	require.NoError(t, err)
	assert.True(t, stored.Duplicate)
	assert.Equal(t, id.String(), stored.ID)
	assert.Equal(t, StatusPending, stored.Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PersistInsertError(t *testing.T) {
	store, mock := newMockStore(t, nil)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO submissions").
		WithArgs(insertArgs()...).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := store.Persist(context.Background(), enrollmentSubmission("toddler"), "")
	require.Error(t, err)
	assert.True(t, IsTransient(err))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PersistBeginError(t *testing.T) {
	store, mock := newMockStore(t, nil)
	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	_, err := store.Persist(context.Background(), enrollmentSubmission("toddler"), "")
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetByID(t *testing.T) {
	store, mock := newMockStore(t, nil)
	id := uuid.New()
	created := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"id", "kind", "status", "payload", "locale", "source_ip", "user_agent", "created_at"}).
		AddRow(id, "contact", "pending", []byte(`{"name":"Ana","email":"a@b.co","message":"hi"}`), "es", "203.0.113.9", "test-agent", created)
	mock.ExpectQuery("SELECT id, kind, status, payload").WithArgs(id.String()).WillReturnRows(rows)

	sub, err := store.GetByID(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, KindContact, sub.Kind)
	assert.Equal(t, "Ana", sub.Contact.Name)
	assert.Equal(t, "es", sub.Source.Locale)
	assert.Nil(t, sub.Enrollment)

	missing := uuid.New().String()
	mock.ExpectQuery("SELECT id, kind, status, payload").
		WithArgs(missing).
		WillReturnRows(pgxmock.NewRows([]string{"id", "kind", "status", "payload", "locale", "source_ip", "user_agent", "created_at"}))
	_, err = store.GetByID(context.Background(), missing)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_List(t *testing.T) {
	store, mock := newMockStore(t, nil)
	created := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"id", "kind", "status", "payload", "locale", "source_ip", "user_agent", "created_at"}).
		AddRow(uuid.New(), "enrollment", "waitlisted", []byte(`{"parent_name":"Maria","program":"infant"}`), "en", "", "", created)
	mock.ExpectQuery("SELECT id, kind, status, payload").
		WithArgs("enrollment", "", 50, 0).
		WillReturnRows(rows)

	subs, err := store.List(context.Background(), ListFilter{Kind: KindEnrollment})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, StatusWaitlisted, subs[0].Status)
	assert.Equal(t, "infant", subs[0].Program())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(errors.New("dial tcp: i/o timeout")))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(context.Canceled))
	assert.False(t, IsTransient(FieldErrors{"name": {"is required"}}))
	assert.False(t, IsTransient(&RateLimitedError{}))
	assert.False(t, IsTransient(Permanent(errors.New("bad payload"))))
}
