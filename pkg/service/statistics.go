package service

import (
	"context"
	"time"

	"github.com/drivetime/drivetime/log"
	"github.com/drivetime/drivetime/pkg/model"
	"github.com/drivetime/drivetime/pkg/stats"
	"github.com/drivetime/drivetime/pkg/store"
	"github.com/drivetime/drivetime/pkg/utils/cache"
	"github.com/drivetime/drivetime/pkg/utils/cache/loadercache"
)

type (
	StatisticsOption  func(*StatisticsService)
	StatisticsService struct {
		store store.TripStore
		cache cache.Cache[string, model.RouteStatistics]
		ttl   time.Duration
		l     *log.Logger
	}
)

func WithCacheTTL(ttl time.Duration) StatisticsOption {
	return func(s *StatisticsService) {
		s.ttl = ttl
	}
}

func InitStatisticsService(tripStore store.TripStore, opts ...StatisticsOption) *StatisticsService {
	ret := &StatisticsService{
		store: tripStore,
		ttl:   5 * time.Minute,
		l:     log.Default().Named("drivetime.stats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.cache = loadercache.New(
		loadercache.WithLoader[string, model.RouteStatistics](ret.load),
		loadercache.WithExpiration[string, model.RouteStatistics](ret.ttl),
		loadercache.WithLogger[string, model.RouteStatistics](ret.l.Named("cache")),
	)
	return ret
}

// RouteStatistics returns the statistics of all trips recorded on the route.
// stats.ErrStatisticsUnavailable is returned if there are no trips yet,
// read failures are reported as *store.PersistenceError.
//
//nolint:whitespace // can't make both linter and editor happy
func (s *StatisticsService) RouteStatistics(
	ctx context.Context,
	routeID string,
) (*model.RouteStatistics, error) {
	return s.cache.Get(ctx, routeID)
}

// Invalidate drops cached statistics of the route. Call after a trip was stored.
func (s *StatisticsService) Invalidate(ctx context.Context, routeID string) {
	s.cache.Invalidate(ctx, routeID)
}

func (s *StatisticsService) load(ctx context.Context, routeID string) (
	*model.RouteStatistics, error,
) {
	trips, err := s.store.QueryByRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	ret := stats.ComputeStatistics(trips)
	if ret == nil {
		return nil, stats.ErrStatisticsUnavailable
	}
	s.l.Debug("statistics computed",
		log.String("route", routeID), log.Int("trips", ret.TripCount))
	return ret, nil
}
