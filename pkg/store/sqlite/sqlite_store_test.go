package sqlite

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivetime/drivetime/log"
	"github.com/drivetime/drivetime/pkg/store"
	"github.com/drivetime/drivetime/pkg/store/storetest"
)

func TestSqliteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.TripStore {
		t.Helper()
		s, err := Open(context.Background(), filepath.Join(t.TempDir(), "trips.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "trips.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	require.NoError(t, err)
	id, err := s.Insert(ctx, storetest.SampleTrip("1", 0, 10, 15, 8, 12, 5))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// migrations must be idempotent
	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.QueryByRoute(ctx, "1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, []float64{10, 15, 8, 12, 5}, got[0].SectionTimes)
}

func TestOpenFails(t *testing.T) {
	// a directory can not be opened as database
	_, err := Open(context.Background(), t.TempDir())
	var pe *store.PersistenceError
	assert.ErrorAs(t, err, &pe)
}

func TestWithLogger(t *testing.T) {
	l := log.New(io.Discard, log.DebugLevel)
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "trips.db"), WithLogger(l))
	require.NoError(t, err)
	defer s.Close()
	ss, ok := s.(*sqliteStore)
	require.True(t, ok)
	assert.Same(t, l, ss.l)
}
