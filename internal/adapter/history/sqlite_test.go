package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/usecase/eventbus"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)

	want := Entry{
		RequestID:   "01HX",
		Query:       "how is my water",
		Specialties: []domain.Specialty{domain.SpecialtyWater, domain.SpecialtyFish},
		Unavailable: []domain.Specialty{domain.SpecialtyFish},
		Answer:      "All good.",
		Duration:    1500 * time.Millisecond,
		CreatedAt:   at,
	}
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Get(ctx, "01HX")
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	want.Answer = "Updated."
	require.NoError(t, store.Save(ctx, want))
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "saving the same request id replaces the row")
}

func TestSQLiteStore_Errors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = store.Save(ctx, Entry{Query: "q"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, store.Close())
	err = store.Save(ctx, Entry{RequestID: "x"})
	assert.ErrorIs(t, err, domain.ErrHistoryStore)
}

func TestSQLiteStore_Recent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// Sub-second offsets check that created_at sorts correctly as text.
	offsets := []time.Duration{0, 100 * time.Millisecond, 120 * time.Millisecond, time.Hour}
	for i, off := range offsets {
		require.NoError(t, store.Save(ctx, Entry{
			RequestID: string(rune('a' + i)),
			Query:     "q",
			CreatedAt: base.Add(off),
		}))
	}

	recent, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, []string{"d", "c", "b"}, []string{recent[0].RequestID, recent[1].RequestID, recent[2].RequestID})
	assert.Nil(t, recent[0].Specialties)

	all, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestSQLiteStore_Memory(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Save(context.Background(), Entry{RequestID: "m", Query: "q"}))
	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

type failingSaver struct{ calls int }

func (f *failingSaver) Save(context.Context, Entry) error {
	f.calls++
	return errors.New("disk full")
}

func TestRecorder(t *testing.T) {
	store := newTestStore(t)
	bus := eventbus.New(nil)
	rec := NewRecorder(store, bus, nil)

	ctx, cancel := context.WithCancel(context.Background())
	bus.Emit(ctx, domain.EventAdvisoryCompleted, "req-1", domain.AdvisoryCompletedPayload{
		RequestID:   "req-1",
		Query:       "feed my tilapia",
		Specialties: []domain.Specialty{domain.SpecialtyFish},
		Answer:      "Feed 400 g/day.",
		DurationMS:  42,
	})
	cancel()
	bus.Emit(context.Background(), domain.EventAdvisoryStarted, "req-2", domain.AdvisoryStartedPayload{RequestID: "req-2"})
	bus.Close()
	rec.Stop()

	got, err := store.Get(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, "Feed 400 g/day.", got.Answer)
	assert.Equal(t, 42*time.Millisecond, got.Duration)
	assert.Equal(t, []domain.Specialty{domain.SpecialtyFish}, got.Specialties)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only advisory.completed is recorded")
}

func TestRecorder_SaveFailureIsLogged(t *testing.T) {
	saver := &failingSaver{}
	bus := eventbus.New(nil)
	NewRecorder(saver, bus, nil)

	bus.Emit(context.Background(), domain.EventAdvisoryCompleted, "r", domain.AdvisoryCompletedPayload{RequestID: "r"})
	bus.Publish(context.Background(), domain.Event{Type: domain.EventAdvisoryCompleted, Payload: []byte("{")})
	bus.Close()

	assert.Equal(t, 1, saver.calls)
}
