// Package recorder implements the checkpoint timing state machine of a drive.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/drivetime/drivetime/log"
	"github.com/drivetime/drivetime/pkg/model"
	"github.com/drivetime/drivetime/pkg/stats"
	"github.com/drivetime/drivetime/pkg/store"
)

type (
	// StatisticsProvider delivers the baseline of a route.
	StatisticsProvider interface {
		RouteStatistics(ctx context.Context, routeID string) (*model.RouteStatistics, error)
	}
	TripSaver interface {
		Insert(ctx context.Context, trip *model.Trip) (int64, error)
	}
	// Publisher receives a snapshot after each transition and on each display
	// tick. It must not block.
	Publisher func(Snapshot)
)

type Option func(*Recorder)

func WithStatistics(p StatisticsProvider) Option {
	return func(r *Recorder) {
		r.statistics = p
	}
}

func WithClock(c Clock) Option {
	return func(r *Recorder) {
		r.clock = c
	}
}

// WithTickInterval sets the interval of the elapsed time display.
// A value <= 0 disables the tick.
func WithTickInterval(d time.Duration) Option {
	return func(r *Recorder) {
		r.tickInterval = d
	}
}

func WithPublisher(p Publisher) Option {
	return func(r *Recorder) {
		r.publish = p
	}
}

func WithLogger(l *log.Logger) Option {
	return func(r *Recorder) {
		r.l = l
	}
}

// Recorder owns at most one DriveSession at a time.
// All methods are safe for concurrent use.
type Recorder struct {
	mutex        sync.Mutex
	routes       *model.RouteTable
	trips        TripSaver
	statistics   StatisticsProvider
	clock        Clock
	tickInterval time.Duration
	publish      Publisher
	l            *log.Logger
	metrics      *recorderMetrics

	state   State
	session *DriveSession
	tick    *ticker
	// a Save is writing the completed session
	saving bool

	tickWG  sync.WaitGroup
	fetchWG sync.WaitGroup
}

func New(routes *model.RouteTable, trips TripSaver, opts ...Option) *Recorder {
	r := &Recorder{
		routes:       routes,
		trips:        trips,
		clock:        systemClock{},
		tickInterval: 100 * time.Millisecond,
		publish:      func(Snapshot) {},
		l:            log.Default().Named("drivetime.recorder"),
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.metrics = newRecorderMetrics(r.l)
	return r
}

func (r *Recorder) State() State {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.state
}

func (r *Recorder) Snapshot() Snapshot {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return buildSnapshot(r.state, r.session, r.clock.Now())
}

// SelectRoute prepares a new session for the route and starts fetching its
// baseline in the background. A drive in progress must be cancelled first.
// An unsaved completed drive is dropped.
func (r *Recorder) SelectRoute(ctx context.Context, routeID string) error {
	return r.transition(func() error {
		if r.state.Driving() || r.saving {
			return invalidTransition("selectRoute", r.state)
		}
		route, ok := r.routes.Get(routeID)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownRoute, routeID)
		}
		if r.state == StateCompleted {
			r.l.Info("unsaved trip dropped", log.String("route", r.session.Route.ID))
		}
		r.dropSession()
		r.session = newSession(ctx, route)
		r.state = StateRouteSelected
		r.l.Debug("route selected",
			log.String("route", route.ID),
			log.String("session", r.session.ID.String()))
		if r.statistics != nil {
			r.fetchBaseline(r.session)
		}
		return nil
	})
}

func (r *Recorder) StartDrive() error {
	return r.transition(func() error {
		if r.state != StateRouteSelected {
			return invalidTransition("startDrive", r.state)
		}
		now := r.clock.Now()
		r.session.StartTime = now
		r.session.LastCheckpointTime = now
		r.state = StateInProgress
		r.startTick()
		r.metrics.inc(r.metrics.started, r.session.Route.ID)
		r.l.Info("drive started", log.String("route", r.session.Route.ID))
		return nil
	})
}

// RecordCheckpoint closes the current section at the next named checkpoint.
// The returned comparison is nil if no baseline is available (yet).
func (r *Recorder) RecordCheckpoint() (*Comparison, error) {
	var ret *Comparison
	err := r.transition(func() error {
		if r.state != StateInProgress {
			return invalidTransition("recordCheckpoint", r.state)
		}
		s := r.session
		sectionTime, cmp := s.closeSection(r.clock.Now())
		s.CheckpointIndex++
		if s.CheckpointIndex == len(s.Route.Checkpoints) {
			r.state = StateAwaitingDestination
		}
		ret = cmp
		r.l.Debug("checkpoint",
			log.Int("section", len(s.SectionTimes)),
			log.Float("time", sectionTime))
		return nil
	})
	return ret, err
}

// RecordDestination closes the final section and completes the drive.
func (r *Recorder) RecordDestination() (*Comparison, error) {
	var ret *Comparison
	err := r.transition(func() error {
		if r.state != StateAwaitingDestination {
			return invalidTransition("recordDestination", r.state)
		}
		s := r.session
		now := r.clock.Now()
		_, cmp := s.closeSection(now)
		s.finish(now)
		r.stopTick()
		r.state = StateCompleted
		ret = cmp
		r.metrics.inc(r.metrics.completed, s.Route.ID)
		r.l.Info("drive completed",
			log.String("route", s.Route.ID),
			log.Float("total", s.TotalTime))
		return nil
	})
	return ret, err
}

// Cancel drops the drive in progress. Nothing is stored.
func (r *Recorder) Cancel() error {
	r.mutex.Lock()
	if !r.state.Driving() {
		err := invalidTransition("cancel", r.state)
		r.mutex.Unlock()
		return err
	}
	r.stopTick()
	cancelled := buildSnapshot(StateCancelled, r.session, r.clock.Now())
	r.metrics.inc(r.metrics.cancelled, r.session.Route.ID)
	r.l.Info("drive cancelled", log.String("route", r.session.Route.ID))
	r.dropSession()
	r.state = StateIdle
	idle := buildSnapshot(r.state, nil, r.clock.Now())
	r.mutex.Unlock()

	r.publish(cancelled)
	r.publish(idle)
	return nil
}

// Save stores the completed drive as trip and returns its id.
// The store is written without holding the lock. On failure the drive stays
// completed, so Save may be retried.
func (r *Recorder) Save(ctx context.Context) (int64, error) {
	r.mutex.Lock()
	if r.state != StateCompleted || r.saving {
		err := invalidTransition("save", r.state)
		r.mutex.Unlock()
		return 0, err
	}
	if r.trips == nil {
		r.mutex.Unlock()
		return 0, store.Wrap("insert", errors.New("no trip store configured"))
	}
	s := r.session
	trip := s.trip()
	r.saving = true
	r.mutex.Unlock()

	id, err := r.trips.Insert(ctx, trip)

	r.mutex.Lock()
	r.saving = false
	if err != nil {
		r.mutex.Unlock()
		r.metrics.inc(r.metrics.saveFailed, trip.RouteID)
		r.l.Warn("could not save trip", log.ErrorField(err))
		var pe *store.PersistenceError
		if !errors.As(err, &pe) {
			err = store.Wrap("insert", err)
		}
		return 0, err
	}
	r.metrics.inc(r.metrics.saved, trip.RouteID)
	if r.session != s {
		r.mutex.Unlock()
		return id, nil
	}
	r.dropSession()
	r.state = StateIdle
	snap := buildSnapshot(r.state, nil, r.clock.Now())
	r.mutex.Unlock()

	r.publish(snap)
	return id, nil
}

func (r *Recorder) Discard() error {
	return r.transition(func() error {
		if r.state != StateCompleted || r.saving {
			return invalidTransition("discard", r.state)
		}
		r.dropSession()
		r.state = StateIdle
		return nil
	})
}

// Wait blocks until background work (ticks, baseline fetches) has finished.
// Useful on shutdown after the drive was completed or cancelled.
func (r *Recorder) Wait() {
	r.fetchWG.Wait()
	r.tickWG.Wait()
}

// runs fn with the lock held and publishes the resulting state on success
func (r *Recorder) transition(fn func() error) error {
	r.mutex.Lock()
	err := fn()
	if err != nil {
		r.mutex.Unlock()
		return err
	}
	snap := buildSnapshot(r.state, r.session, r.clock.Now())
	r.mutex.Unlock()

	r.publish(snap)
	return nil
}

// must be called with lock held
func (r *Recorder) dropSession() {
	r.stopTick()
	if r.session != nil {
		r.session.close()
	}
	r.session = nil
}

// must be called with lock held
func (r *Recorder) fetchBaseline(s *DriveSession) {
	r.fetchWG.Add(1)
	go func() {
		defer r.fetchWG.Done()
		res, err := r.statistics.RouteStatistics(s.ctx, s.Route.ID)

		r.mutex.Lock()
		if r.session != s {
			r.mutex.Unlock()
			r.l.Debug("baseline for superseded session ignored",
				log.String("session", s.ID.String()))
			return
		}
		switch {
		case errors.Is(err, stats.ErrStatisticsUnavailable):
			r.l.Debug("no baseline yet", log.String("route", s.Route.ID))
		case err != nil:
			r.l.Warn("could not load baseline",
				log.String("route", s.Route.ID), log.ErrorField(err))
		default:
			s.baseline = res
		}
		if s.baseline == nil {
			r.mutex.Unlock()
			return
		}
		snap := buildSnapshot(r.state, s, r.clock.Now())
		r.mutex.Unlock()
		r.publish(snap)
	}()
}

// must be called with lock held
func (r *Recorder) startTick() {
	if r.tickInterval <= 0 {
		return
	}
	r.tick = startTicker(r.tickInterval, &r.tickWG, r.onTick)
}

// must be called with lock held
func (r *Recorder) stopTick() {
	r.tick.stop()
	r.tick = nil
}

func (r *Recorder) ticking() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.tick != nil
}

func (r *Recorder) onTick(tk *ticker) {
	r.mutex.Lock()
	if r.tick != tk {
		// stopped while waiting for the lock
		r.mutex.Unlock()
		return
	}
	snap := buildSnapshot(r.state, r.session, r.clock.Now())
	r.mutex.Unlock()
	snap.Tick = true
	r.publish(snap)
}
