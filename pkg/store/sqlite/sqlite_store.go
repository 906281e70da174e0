package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // registers driver "sqlite"

	"github.com/drivetime/drivetime/log"
	"github.com/drivetime/drivetime/pkg/db/migrate"
	"github.com/drivetime/drivetime/pkg/db/mytypes"
	"github.com/drivetime/drivetime/pkg/model"
	"github.com/drivetime/drivetime/pkg/store"
)

type (
	Option      func(*sqliteStore)
	sqliteStore struct {
		db *sql.DB
		l  *log.Logger
	}
)

var _ store.TripStore = (*sqliteStore)(nil)

func WithLogger(l *log.Logger) Option {
	return func(s *sqliteStore) {
		s.l = l
	}
}

// Open opens (and creates if needed) the database file at path and applies
// pending migrations.
func Open(ctx context.Context, path string, opts ...Option) (store.TripStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, store.Wrap("open", err)
		}
	}
	if err := migrate.MigrateSqlite(path); err != nil {
		return nil, store.Wrap("migrate", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, store.Wrap("open", err)
	}
	// a single writer keeps sqlite from reporting SQLITE_BUSY
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, store.Wrap("open", fmt.Errorf("%s: %w", pragma, err))
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, store.Wrap("open", err)
	}

	ret := &sqliteStore{
		db: db,
		l:  log.Default().Named("drivetime.store.sqlite"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.l.Info("Database initialized", log.String("path", path))
	return ret, nil
}

func (s *sqliteStore) Insert(ctx context.Context, trip *model.Trip) (int64, error) {
	var id int64
	err := s.transaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
		insert into trip (route_id, ts, total_time, section_times)
		values (?,?,?,?)`,
			trip.RouteID,
			mytypes.Timestamp(trip.Timestamp),
			trip.TotalTime,
			mytypes.SectionTimes(trip.SectionTimes))
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
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

func (s *sqliteStore) QueryByRoute(ctx context.Context, routeID string) (
	[]*model.Trip, error,
) {
	rows, err := s.db.QueryContext(ctx, `
	select id, route_id, ts, total_time, section_times
	from trip where route_id=? order by ts asc, id asc`, routeID)
	if err != nil {
		return nil, store.Wrap("queryByRoute", err)
	}
	defer rows.Close()

	ret := make([]*model.Trip, 0)
	for rows.Next() {
		var item model.Trip
		var ts mytypes.Timestamp
		var sections mytypes.SectionTimes
		if err := rows.Scan(
			&item.ID, &item.RouteID, &ts, &item.TotalTime, &sections,
		); err != nil {
			return nil, store.Wrap("queryByRoute", err)
		}
		item.Timestamp = ts.Time()
		item.SectionTimes = sections
		ret = append(ret, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Wrap("queryByRoute", err)
	}
	return ret, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func (s *sqliteStore) transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
