package service

import (
	"context"

	"github.com/drivetime/drivetime/log"
	"github.com/drivetime/drivetime/pkg/model"
	"github.com/drivetime/drivetime/pkg/store"
)

// TripService stores trips and keeps the statistics cache in sync.
type TripService struct {
	store      store.TripStore
	statistics *StatisticsService
	l          *log.Logger
}

//nolint:whitespace // can't make both linter and editor happy
func InitTripService(
	tripStore store.TripStore,
	statistics *StatisticsService,
) *TripService {
	return &TripService{
		store:      tripStore,
		statistics: statistics,
		l:          log.Default().Named("drivetime.trips"),
	}
}

func (s *TripService) Insert(ctx context.Context, trip *model.Trip) (int64, error) {
	id, err := s.store.Insert(ctx, trip)
	if err != nil {
		return 0, err
	}
	if s.statistics != nil {
		s.statistics.Invalidate(ctx, trip.RouteID)
	}
	s.l.Info("trip saved",
		log.Int64("id", id),
		log.String("route", trip.RouteID),
		log.Float("total", trip.TotalTime))
	return id, nil
}

func (s *TripService) QueryByRoute(ctx context.Context, routeID string) (
	[]*model.Trip, error,
) {
	return s.store.QueryByRoute(ctx, routeID)
}

func (s *TripService) Close() error {
	return s.store.Close()
}

var _ store.TripStore = (*TripService)(nil)
