package submissions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enrollmentSubmission(program string) *Submission {
	p := validEnrollment()
	p.Program = program
	return &Submission{Kind: KindEnrollment, Enrollment: p}
}

func TestInMemoryStore_PersistAssignsID(t *testing.T) {
	store := NewInMemoryStore(nil)
	sub := &Submission{Kind: KindContact, Contact: &ContactPayload{Name: "Ana", Email: "a@b.co", Message: "hi"}}

	stored, err := store.Persist(context.Background(), sub, "")
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, StatusPending, stored.Status)
	assert.False(t, stored.Duplicate)
	assert.Empty(t, sub.ID, "the caller's submission is not mutated")

	got, err := store.GetByID(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.Contact.Name)

	_, err = store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_IdempotencyKey(t *testing.T) {
	store := NewInMemoryStore(nil)
	sub := enrollmentSubmission("toddler")

	first, err := store.Persist(context.Background(), sub, "key-1")
	require.NoError(t, err)
	second, err := store.Persist(context.Background(), sub, "key-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Duplicate)
	assert.Equal(t, 1, store.Len())
}

func TestInMemoryStore_KeyWithDifferentPayload(t *testing.T) {
	store := NewInMemoryStore(nil)
	_, err := store.Persist(context.Background(), enrollmentSubmission("toddler"), "key-1")
	require.NoError(t, err)

	_, err = store.Persist(context.Background(), enrollmentSubmission("preschool"), "key-1")
	require.ErrorIs(t, err, ErrIdempotencyConflict)
	assert.False(t, IsTransient(err))
	assert.Equal(t, 1, store.Len())
}

func TestInMemoryStore_CapacityWaitlists(t *testing.T) {
	store := NewInMemoryStore(Capacity{"infant": 2})
	ctx := context.Background()

	var statuses []Status
	for i := 0; i < 3; i++ {
		stored, err := store.Persist(ctx, enrollmentSubmission("infant"), "")
		require.NoError(t, err)
		statuses = append(statuses, stored.Status)
	}
	assert.Equal(t, []Status{StatusPending, StatusPending, StatusWaitlisted}, statuses)

	other, err := store.Persist(ctx, enrollmentSubmission("toddler"), "")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, other.Status, "programs without a limit never waitlist")
}

func TestInMemoryStore_ListNewestFirst(t *testing.T) {
	store := NewInMemoryStore(nil)
	base := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	ctx := context.Background()

	_, err := store.Persist(ctx, &Submission{Kind: KindContact, Contact: &ContactPayload{Name: "first"}}, "")
	require.NoError(t, err)
	_, err = store.Persist(ctx, enrollmentSubmission("toddler"), "")
	require.NoError(t, err)
	_, err = store.Persist(ctx, &Submission{Kind: KindContact, Contact: &ContactPayload{Name: "third"}}, "")
	require.NoError(t, err)

	all, err := store.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "third", all[0].Contact.Name)

	contacts, err := store.List(ctx, ListFilter{Kind: KindContact, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "first", contacts[0].Contact.Name)

	none, err := store.List(ctx, ListFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestInMemoryStore_CanceledContext(t *testing.T) {
	store := NewInMemoryStore(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.Persist(ctx, enrollmentSubmission("toddler"), "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCapacityStatusFor(t *testing.T) {
	c := Capacity{"infant": 1, "toddler": 0}
	assert.Equal(t, StatusPending, c.StatusFor(enrollmentSubmission("infant"), 0))
	assert.Equal(t, StatusWaitlisted, c.StatusFor(enrollmentSubmission("infant"), 1))
	assert.Equal(t, StatusPending, c.StatusFor(enrollmentSubmission("toddler"), 50))
	assert.Equal(t, StatusPending, c.StatusFor(&Submission{Kind: KindContact, Contact: &ContactPayload{}}, 99))
}
