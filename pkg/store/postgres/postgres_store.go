package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drivetime/drivetime/log"
	"github.com/drivetime/drivetime/pkg/model"
	tripRepos "github.com/drivetime/drivetime/pkg/repository/trip"
	"github.com/drivetime/drivetime/pkg/store"
)

type (
	Option        func(*postgresStore)
	postgresStore struct {
		pool *pgxpool.Pool
		l    *log.Logger
	}
)

var _ store.TripStore = (*postgresStore)(nil)

func WithLogger(l *log.Logger) Option {
	return func(s *postgresStore) {
		s.l = l
	}
}

func New(pool *pgxpool.Pool, opts ...Option) store.TripStore {
	ret := &postgresStore{
		pool: pool,
		l:    log.Default().Named("drivetime.store.pg"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (s *postgresStore) Insert(ctx context.Context, trip *model.Trip) (int64, error) {
	var id int64
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		id, err = tripRepos.Create(ctx, tx, trip)
		return err
	})
	if err != nil {
		s.l.Error("could not insert trip",
			log.String("route", trip.RouteID), log.ErrorField(err))
		return 0, store.Wrap("insert", err)
	}
	s.l.Debug("trip inserted", log.Int64("id", id), log.String("route", trip.RouteID))
	return id, nil
}

func (s *postgresStore) QueryByRoute(ctx context.Context, routeID string) (
	[]*model.Trip, error,
) {
	ret, err := tripRepos.LoadByRouteId(ctx, s.pool, routeID)
	if err != nil {
		s.l.Error("could not load trips",
			log.String("route", routeID), log.ErrorField(err))
		return nil, store.Wrap("queryByRoute", err)
	}
	return ret, nil
}

func (s *postgresStore) Close() error {
	s.pool.Close()
	return nil
}
