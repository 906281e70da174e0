package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/drivetime/drivetime/pkg/model"
	"github.com/drivetime/drivetime/pkg/store"
)

type (
	Option      func(*memoryStore)
	memoryStore struct {
		mutex   sync.Mutex
		nextID  int64
		trips   []*model.Trip
		byRoute map[string][]int // index into trips
	}
)

var _ store.TripStore = (*memoryStore)(nil)

func New(opts ...Option) store.TripStore {
	ret := &memoryStore{
		nextID:  1,
		byRoute: make(map[string][]int),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// WithTrips preloads the store, ids are assigned as if inserted.
func WithTrips(trips ...*model.Trip) Option {
	return func(s *memoryStore) {
		for _, t := range trips {
			s.add(t)
		}
	}
}

func (s *memoryStore) Insert(ctx context.Context, trip *model.Trip) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, store.Wrap("insert", err)
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.add(trip), nil
}

func (s *memoryStore) add(trip *model.Trip) int64 {
	item := copyTrip(trip)
	item.ID = s.nextID
	s.nextID++
	s.trips = append(s.trips, item)
	s.byRoute[item.RouteID] = append(s.byRoute[item.RouteID], len(s.trips)-1)
	return item.ID
}

func (s *memoryStore) QueryByRoute(ctx context.Context, routeID string) (
	[]*model.Trip, error,
) {
	if err := ctx.Err(); err != nil {
		return nil, store.Wrap("queryByRoute", err)
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	ret := make([]*model.Trip, 0, len(s.byRoute[routeID]))
	for _, idx := range s.byRoute[routeID] {
		ret = append(ret, copyTrip(s.trips[idx]))
	}
	slices.SortStableFunc(ret, func(a, b *model.Trip) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return ret, nil
}

func (s *memoryStore) Close() error {
	return nil
}

func copyTrip(t *model.Trip) *model.Trip {
	ret := *t
	ret.SectionTimes = slices.Clone(t.SectionTimes)
	return &ret
}
