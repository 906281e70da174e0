// Package storetest contains checks every store.TripStore implementation
// has to pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivetime/drivetime/pkg/model"
	"github.com/drivetime/drivetime/pkg/store"
)

var base = time.Date(2024, 4, 28, 11, 10, 12, 123456000, time.UTC)

func SampleTrip(routeID string, offset time.Duration, sections ...float64) *model.Trip {
	total := 0.0
	for _, s := range sections {
		total += s
	}
	return &model.Trip{
		RouteID:      routeID,
		Timestamp:    base.Add(offset),
		TotalTime:    total,
		SectionTimes: sections,
	}
}

// Run executes the checks. newStore must return an empty store.
//
//nolint:funlen // ok for tests
func Run(t *testing.T, newStore func(t *testing.T) store.TripStore) {
	t.Helper()
	opts := cmp.Options{
		cmpopts.IgnoreFields(model.Trip{}, "ID"),
		cmpopts.EquateApprox(0, 1e-9),
	}

	t.Run("insert and query", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		trip := SampleTrip("1", 0, 10, 15, 8, 12, 5)
		id, err := s.Insert(ctx, trip)
		require.NoError(t, err)
		assert.Positive(t, id)

		got, err := s.QueryByRoute(ctx, "1")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, id, got[0].ID)
		if diff := cmp.Diff(trip, got[0], opts); diff != "" {
			t.Errorf("QueryByRoute() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown route", func(t *testing.T) {
		s := newStore(t)
		got, err := s.QueryByRoute(context.Background(), "nope")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("ids increase", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		id1, err := s.Insert(ctx, SampleTrip("1", 0, 1, 2))
		require.NoError(t, err)
		id2, err := s.Insert(ctx, SampleTrip("2", 0, 1, 2))
		require.NoError(t, err)
		assert.Greater(t, id2, id1)
	})

	t.Run("filtered by route and ordered by time", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		later := SampleTrip("1", 2*time.Hour, 20, 21)
		earlier := SampleTrip("1", time.Hour, 10, 11)
		other := SampleTrip("2", 90*time.Minute, 5, 6, 7)
		// same instant as earlier, inserted last
		tie := SampleTrip("1", time.Hour, 30, 31)
		for _, trip := range []*model.Trip{later, earlier, other, tie} {
			_, err := s.Insert(ctx, trip)
			require.NoError(t, err)
		}

		got, err := s.QueryByRoute(ctx, "1")
		require.NoError(t, err)
		want := []*model.Trip{earlier, tie, later}
		if diff := cmp.Diff(want, got, opts); diff != "" {
			t.Errorf("QueryByRoute() mismatch (-want +got):\n%s", diff)
		}

		got, err = s.QueryByRoute(ctx, "2")
		require.NoError(t, err)
		if diff := cmp.Diff([]*model.Trip{other}, got, opts); diff != "" {
			t.Errorf("QueryByRoute() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("fractional seconds survive", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		trip := SampleTrip("3", 0, 12.345, 0.001, 100.5)
		_, err := s.Insert(ctx, trip)
		require.NoError(t, err)
		got, err := s.QueryByRoute(ctx, "3")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.InDeltaSlice(t, trip.SectionTimes, got[0].SectionTimes, 1e-9)
		assert.InDelta(t, trip.TotalTime, got[0].TotalTime, 1e-9)
		assert.True(t, trip.Timestamp.Equal(got[0].Timestamp))
		assert.Equal(t, time.UTC, got[0].Timestamp.Location())
	})

	t.Run("caller owns inserted trip", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		trip := SampleTrip("4", 0, 1, 2, 3)
		_, err := s.Insert(ctx, trip)
		require.NoError(t, err)
		trip.SectionTimes[0] = 99

		got, err := s.QueryByRoute(ctx, "4")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, []float64{1, 2, 3}, got[0].SectionTimes)
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.Insert(ctx, SampleTrip("1", 0, 1))
		var pe *store.PersistenceError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "insert", pe.Op)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
