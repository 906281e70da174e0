//nolint:funlen,errcheck // ok for tests
package recorder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivetime/drivetime/pkg/model"
	"github.com/drivetime/drivetime/pkg/stats"
	"github.com/drivetime/drivetime/pkg/store"
)

var t0 = time.Date(2024, 4, 28, 11, 10, 12, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) set(secs float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t0.Add(time.Duration(secs * float64(time.Second)))
}

type fakeStore struct {
	mu    sync.Mutex
	err   error
	trips []*model.Trip
	calls int
}

func (s *fakeStore) Insert(_ context.Context, trip *model.Trip) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	s.trips = append(s.trips, trip)
	return int64(len(s.trips)), nil
}

// fakeStats returns result/err, optionally only after release was closed
type fakeStats struct {
	result  *model.RouteStatistics
	err     error
	release chan struct{}
}

func (f *fakeStats) RouteStatistics(ctx context.Context, _ string) (
	*model.RouteStatistics, error,
) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.result, f.err
}

type collector struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (c *collector) publish(s Snapshot) {
	if s.Tick {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps = append(c.snaps, s)
}

func (c *collector) states() []State {
	c.mu.Lock()
	defer c.mu.Unlock()
	ret := make([]State, len(c.snaps))
	for i := range c.snaps {
		ret[i] = c.snaps[i].State
	}
	return ret
}

func sampleRoutes(t *testing.T) *model.RouteTable {
	t.Helper()
	table, err := model.NewRouteTable(model.DefaultRoutes())
	require.NoError(t, err)
	return table
}

func sampleBaseline() *model.RouteStatistics {
	return &model.RouteStatistics{
		TripCount: 2,
		Total:     model.SectionStat{Mean: 52},
		Sections: map[int]model.SectionStat{
			1: {Mean: 12},
			2: {Mean: 15},
			3: {Mean: 7},
			4: {Mean: 12},
			5: {Mean: 6},
		},
	}
}

type fixture struct {
	clock *fakeClock
	store *fakeStore
	col   *collector
	rec   *Recorder
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		clock: &fakeClock{now: t0},
		store: &fakeStore{},
		col:   &collector{},
	}
	all := append([]Option{
		WithClock(f.clock),
		WithTickInterval(0),
		WithPublisher(f.col.publish),
	}, opts...)
	f.rec = New(sampleRoutes(t), f.store, all...)
	return f
}

// drives route "1" with checkpoints at the given offsets (seconds from start)
func (f *fixture) drive(t *testing.T, offsets []float64, dest float64) {
	t.Helper()
	f.clock.set(0)
	require.NoError(t, f.rec.StartDrive())
	for _, o := range offsets {
		f.clock.set(o)
		_, err := f.rec.RecordCheckpoint()
		require.NoError(t, err)
	}
	f.clock.set(dest)
	_, err := f.rec.RecordDestination()
	require.NoError(t, err)
}

func TestScenarioRoute1(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.rec.SelectRoute(ctx, "1"))
	f.drive(t, []float64{10, 25, 33, 45}, 50)

	assert.Equal(t, StateCompleted, f.rec.State())
	snap := f.rec.Snapshot()
	assert.Equal(t, 50.0, snap.TotalTime)
	require.Len(t, snap.Sections, 5)
	assert.Equal(t, "Section 1: 72nd off-ramp", snap.Sections[0].Label)
	assert.Equal(t, "Final Section: To Destination", snap.Sections[4].Label)

	id, err := f.rec.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, StateIdle, f.rec.State())

	require.Len(t, f.store.trips, 1)
	trip := f.store.trips[0]
	assert.Equal(t, "1", trip.RouteID)
	assert.Equal(t, []float64{10, 15, 8, 12, 5}, trip.SectionTimes)
	assert.Equal(t, 50.0, trip.TotalTime)
	assert.Equal(t, t0.Add(50*time.Second), trip.Timestamp)
	route, _ := sampleRoutes(t).Get("1")
	assert.NoError(t, trip.Validate(route))
}

func TestSectionCountAndSum(t *testing.T) {
	routes := []model.Route{
		{ID: "a", Name: "one", Checkpoints: []string{"x"}},
		{ID: "b", Name: "three", Checkpoints: []string{"x", "y", "z"}},
		{ID: "c", Name: "six", Checkpoints: []string{"1", "2", "3", "4", "5", "6"}},
	}
	table, err := model.NewRouteTable(routes)
	require.NoError(t, err)
	for _, route := range routes {
		t.Run(route.Name, func(t *testing.T) {
			clock := &fakeClock{now: t0}
			st := &fakeStore{}
			rec := New(table, st, WithClock(clock), WithTickInterval(0))
			require.NoError(t, rec.SelectRoute(context.Background(), route.ID))
			clock.set(0)
			require.NoError(t, rec.StartDrive())
			at := 0.0
			for i := range route.Checkpoints {
				at += 3.337 * float64(i+1)
				clock.set(at)
				_, err := rec.RecordCheckpoint()
				require.NoError(t, err)
			}
			clock.set(at + 4.25)
			_, err := rec.RecordDestination()
			require.NoError(t, err)
			_, err = rec.Save(context.Background())
			require.NoError(t, err)

			trip := st.trips[0]
			assert.Len(t, trip.SectionTimes, len(route.Checkpoints)+1)
			assert.InDelta(t, trip.TotalTime, trip.SectionSum(), 0.05)
		})
	}
}

func TestAwaitingDestination(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.rec.SelectRoute(context.Background(), "1"))
	require.NoError(t, f.rec.StartDrive())
	for i := 0; i < 3; i++ {
		_, err := f.rec.RecordCheckpoint()
		require.NoError(t, err)
		assert.Equal(t, StateInProgress, f.rec.State())
	}
	snap := f.rec.Snapshot()
	assert.Equal(t, "72nd and Dodge", snap.NextCheckpoint)
	assert.Equal(t, 3, snap.CheckpointIndex)

	_, err := f.rec.RecordCheckpoint()
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingDestination, f.rec.State())
	assert.Empty(t, f.rec.Snapshot().NextCheckpoint)

	// no more named checkpoints
	_, err = f.rec.RecordCheckpoint()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Len(t, f.rec.Snapshot().Sections, 4)
}

func TestInvalidTransitions(t *testing.T) {
	type step func(r *Recorder) error
	selectRoute := func(r *Recorder) error { return r.SelectRoute(context.Background(), "1") }
	start := func(r *Recorder) error { return r.StartDrive() }
	checkpoint := func(r *Recorder) error { _, err := r.RecordCheckpoint(); return err }
	dest := func(r *Recorder) error { _, err := r.RecordDestination(); return err }
	cancel := func(r *Recorder) error { return r.Cancel() }
	save := func(r *Recorder) error { _, err := r.Save(context.Background()); return err }
	discard := func(r *Recorder) error { return r.Discard() }

	tests := []struct {
		name    string
		prepare []step
		op      step
		opName  string
		state   State
	}{
		{name: "checkpoint while idle", op: checkpoint, opName: "recordCheckpoint", state: StateIdle},
		{name: "start while idle", op: start, opName: "startDrive", state: StateIdle},
		{name: "destination while idle", op: dest, opName: "recordDestination", state: StateIdle},
		{name: "cancel while idle", op: cancel, opName: "cancel", state: StateIdle},
		{name: "save while idle", op: save, opName: "save", state: StateIdle},
		{name: "discard while idle", op: discard, opName: "discard", state: StateIdle},
		{
			name: "checkpoint before start", prepare: []step{selectRoute},
			op: checkpoint, opName: "recordCheckpoint", state: StateRouteSelected,
		},
		{
			name: "destination while in progress", prepare: []step{selectRoute, start},
			op: dest, opName: "recordDestination", state: StateInProgress,
		},
		{
			name: "start twice", prepare: []step{selectRoute, start},
			op: start, opName: "startDrive", state: StateInProgress,
		},
		{
			name: "select route while driving", prepare: []step{selectRoute, start},
			op: selectRoute, opName: "selectRoute", state: StateInProgress,
		},
		{
			name: "save while driving", prepare: []step{selectRoute, start},
			op: save, opName: "save", state: StateInProgress,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			for _, p := range tt.prepare {
				require.NoError(t, p(f.rec))
			}
			before := f.rec.Snapshot()
			published := len(f.col.states())

			err := tt.op(f.rec)
			require.ErrorIs(t, err, ErrInvalidTransition)
			var ite *InvalidTransitionError
			require.ErrorAs(t, err, &ite)
			assert.Equal(t, tt.opName, ite.Op)
			assert.Equal(t, tt.state, ite.State)

			// no side effects
			assert.Equal(t, before, f.rec.Snapshot())
			assert.Len(t, f.col.states(), published)
			assert.Zero(t, f.store.calls)
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t)
	err := f.rec.SelectRoute(context.Background(), "99")
	assert.ErrorIs(t, err, ErrUnknownRoute)
	assert.Equal(t, StateIdle, f.rec.State())
}

func TestCancel(t *testing.T) {
	tests := []struct {
		name        string
		checkpoints int
		wantBefore  State
	}{
		{name: "in progress", checkpoints: 2, wantBefore: StateInProgress},
		{name: "awaiting destination", checkpoints: 4, wantBefore: StateAwaitingDestination},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			require.NoError(t, f.rec.SelectRoute(context.Background(), "1"))
			require.NoError(t, f.rec.StartDrive())
			for i := 0; i < tt.checkpoints; i++ {
				_, err := f.rec.RecordCheckpoint()
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantBefore, f.rec.State())

			require.NoError(t, f.rec.Cancel())
			assert.Equal(t, StateIdle, f.rec.State())
			assert.Zero(t, f.store.calls)
			assert.Equal(t, Snapshot{State: StateIdle}, f.rec.Snapshot())

			states := f.col.states()
			require.GreaterOrEqual(t, len(states), 2)
			assert.Equal(t, []State{StateCancelled, StateIdle}, states[len(states)-2:])
		})
	}
}

func TestDiscard(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.rec.SelectRoute(context.Background(), "1"))
	f.drive(t, []float64{1, 2, 3, 4}, 5)
	require.NoError(t, f.rec.Discard())
	assert.Equal(t, StateIdle, f.rec.State())
	assert.Zero(t, f.store.calls)
}

func TestSaveFailureKeepsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.rec.SelectRoute(ctx, "1"))
	f.drive(t, []float64{10, 25, 33, 45}, 50)

	errDisk := errors.New("disk full")
	f.store.err = errDisk
	_, err := f.rec.Save(ctx)
	var pe *store.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, errDisk)
	assert.False(t, errors.Is(err, stats.ErrStatisticsUnavailable))
	assert.Equal(t, StateCompleted, f.rec.State())
	assert.Equal(t, 50.0, f.rec.Snapshot().TotalTime)

	// retry
	f.store.err = nil
	id, err := f.rec.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, 2, f.store.calls)
	assert.Equal(t, []float64{10, 15, 8, 12, 5}, f.store.trips[0].SectionTimes)
}

// blockingStore signals entered and waits for release before inserting
type blockingStore struct {
	fakeStore
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) Insert(ctx context.Context, trip *model.Trip) (int64, error) {
	close(s.entered)
	<-s.release
	return s.fakeStore.Insert(ctx, trip)
}

func TestSaveDoesNotBlockRecorder(t *testing.T) {
	clock := &fakeClock{now: t0}
	bs := &blockingStore{entered: make(chan struct{}), release: make(chan struct{})}
	rec := New(sampleRoutes(t), bs, WithClock(clock), WithTickInterval(0))
	f := &fixture{clock: clock, store: &bs.fakeStore, col: &collector{}, rec: rec}
	ctx := context.Background()
	require.NoError(t, rec.SelectRoute(ctx, "1"))
	f.drive(t, []float64{10, 25, 33, 45}, 50)

	type result struct {
		id  int64
		err error
	}
	saved := make(chan result, 1)
	go func() {
		id, err := rec.Save(ctx)
		saved <- result{id, err}
	}()
	<-bs.entered

	probed := make(chan Snapshot, 1)
	go func() {
		_ = rec.State()
		probed <- rec.Snapshot()
	}()
	select {
	case snap := <-probed:
		assert.Equal(t, StateCompleted, snap.State)
		assert.Equal(t, 50.0, snap.TotalTime)
	case <-time.After(2 * time.Second):
		t.Fatal("recorder locked while the trip is written")
	}

	// no second save or discard while writing
	_, err := rec.Save(ctx)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, rec.Discard(), ErrInvalidTransition)
	assert.ErrorIs(t, rec.SelectRoute(ctx, "2"), ErrInvalidTransition)

	close(bs.release)
	res := <-saved
	require.NoError(t, res.err)
	assert.Equal(t, int64(1), res.id)
	assert.Equal(t, StateIdle, rec.State())
	assert.Equal(t, 1, bs.calls)
}

func TestSelectRouteAfterCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.rec.SelectRoute(ctx, "1"))
	f.drive(t, []float64{1, 2, 3, 4}, 5)
	require.NoError(t, f.rec.SelectRoute(ctx, "2"))
	snap := f.rec.Snapshot()
	assert.Equal(t, StateRouteSelected, snap.State)
	assert.Equal(t, "2", snap.RouteID)
	assert.Empty(t, snap.Sections)
	assert.Zero(t, f.store.calls)
}

func TestComparisonWithBaseline(t *testing.T) {
	f := newFixture(t, WithStatistics(&fakeStats{result: sampleBaseline()}))
	ctx := context.Background()
	require.NoError(t, f.rec.SelectRoute(ctx, "1"))
	f.rec.Wait()

	snap := f.rec.Snapshot()
	assert.True(t, snap.HasBaseline)
	require.NotNil(t, snap.NextSectionMean)
	assert.Equal(t, 12.0, *snap.NextSectionMean)

	f.clock.set(0)
	require.NoError(t, f.rec.StartDrive())
	f.clock.set(10)
	cmp, err := f.rec.RecordCheckpoint()
	require.NoError(t, err)
	require.NotNil(t, cmp)
	assert.Equal(t, 1, cmp.Section)
	assert.InDelta(t, -2.0, cmp.Diff, 1e-9)
	assert.True(t, cmp.Ahead())

	// exactly on average counts as behind
	f.clock.set(25)
	cmp, err = f.rec.RecordCheckpoint()
	require.NoError(t, err)
	require.NotNil(t, cmp)
	assert.Zero(t, cmp.Diff)
	assert.False(t, cmp.Ahead())
	assert.Equal(t, "BEHIND", cmp.Label())

	f.clock.set(33)
	f.rec.RecordCheckpoint()
	f.clock.set(45)
	f.rec.RecordCheckpoint()
	f.clock.set(50)
	cmp, err = f.rec.RecordDestination()
	require.NoError(t, err)
	require.NotNil(t, cmp)
	assert.Equal(t, 5, cmp.Section)
	assert.True(t, cmp.Ahead())

	snap = f.rec.Snapshot()
	require.NotNil(t, snap.TotalComparison)
	assert.Equal(t, "FASTER", snap.TotalComparison.Label())
	assert.InDelta(t, -2.0, snap.TotalComparison.Diff, 1e-9)
	for _, s := range snap.Sections {
		assert.NotNil(t, s.Comparison, "section %d", s.Number)
	}
}

func TestBaselinePending(t *testing.T) {
	fs := &fakeStats{result: sampleBaseline(), release: make(chan struct{})}
	f := newFixture(t, WithStatistics(fs))
	require.NoError(t, f.rec.SelectRoute(context.Background(), "1"))

	// the fetch must not block the start
	f.clock.set(0)
	require.NoError(t, f.rec.StartDrive())
	f.clock.set(10)
	cmp, err := f.rec.RecordCheckpoint()
	require.NoError(t, err)
	assert.Nil(t, cmp)
	assert.Nil(t, f.rec.Snapshot().LastComparison)

	close(fs.release)
	f.rec.fetchWG.Wait()

	f.clock.set(25)
	cmp, err = f.rec.RecordCheckpoint()
	require.NoError(t, err)
	require.NotNil(t, cmp)
	assert.Equal(t, 2, cmp.Section)

	snap := f.rec.Snapshot()
	assert.Nil(t, snap.Sections[0].Comparison)
	assert.NotNil(t, snap.Sections[1].Comparison)
}

func TestBaselineUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "no data yet", err: stats.ErrStatisticsUnavailable},
		{name: "store failure", err: store.Wrap("queryByRoute", errors.New("boom"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, WithStatistics(&fakeStats{err: tt.err}))
			ctx := context.Background()
			require.NoError(t, f.rec.SelectRoute(ctx, "1"))
			f.rec.Wait()
			f.drive(t, []float64{10, 25, 33, 45}, 50)

			snap := f.rec.Snapshot()
			assert.False(t, snap.HasBaseline)
			assert.Nil(t, snap.TotalComparison)
			for _, s := range snap.Sections {
				assert.Nil(t, s.Comparison)
			}
		})
	}
}

func TestSupersededBaselineIgnored(t *testing.T) {
	fs := &fakeStats{result: sampleBaseline(), release: make(chan struct{})}
	f := newFixture(t, WithStatistics(fs))
	ctx := context.Background()
	require.NoError(t, f.rec.SelectRoute(ctx, "1"))
	f.rec.mutex.Lock()
	first := f.rec.session
	f.rec.mutex.Unlock()

	require.NoError(t, f.rec.SelectRoute(ctx, "1"))
	close(fs.release)
	f.rec.Wait()

	// the first session got cancelled, so its fetch never delivered a baseline
	assert.Nil(t, first.baseline)
	assert.True(t, f.rec.Snapshot().HasBaseline)
}

func TestTickStops(t *testing.T) {
	tests := []struct {
		name   string
		finish func(t *testing.T, r *Recorder)
	}{
		{
			name: "completion",
			finish: func(t *testing.T, r *Recorder) {
				t.Helper()
				for i := 0; i < 4; i++ {
					_, err := r.RecordCheckpoint()
					require.NoError(t, err)
				}
				_, err := r.RecordDestination()
				require.NoError(t, err)
			},
		},
		{
			name: "cancel",
			finish: func(t *testing.T, r *Recorder) {
				t.Helper()
				require.NoError(t, r.Cancel())
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			ticks := 0
			rec := New(sampleRoutes(t), &fakeStore{},
				WithTickInterval(time.Millisecond),
				WithPublisher(func(s Snapshot) {
					if s.Tick {
						mu.Lock()
						ticks++
						mu.Unlock()
					}
				}))
			require.NoError(t, rec.SelectRoute(context.Background(), "1"))
			assert.False(t, rec.ticking())
			require.NoError(t, rec.StartDrive())
			assert.True(t, rec.ticking())
			assert.Eventually(t, func() bool {
				mu.Lock()
				defer mu.Unlock()
				return ticks > 0
			}, time.Second, time.Millisecond)

			tt.finish(t, rec)
			assert.False(t, rec.ticking())

			done := make(chan struct{})
			go func() {
				rec.Wait()
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("tick goroutine still running")
			}
		})
	}
}

func TestPublishedStates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.rec.SelectRoute(ctx, "1"))
	f.drive(t, []float64{1, 2, 3, 4}, 5)
	_, err := f.rec.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, []State{
		StateRouteSelected,
		StateInProgress,
		StateInProgress, StateInProgress, StateInProgress,
		StateAwaitingDestination,
		StateCompleted,
		StateIdle,
	}, f.col.states())
}
