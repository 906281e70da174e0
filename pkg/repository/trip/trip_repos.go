//nolint:whitespace // can't make both editor and linter happy
package trip

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/drivetime/drivetime/pkg/model"
	"github.com/drivetime/drivetime/pkg/repository"
)

// Create stores the trip and returns the generated id.
func Create(ctx context.Context, conn repository.Querier, trip *model.Trip) (
	int64, error,
) {
	row := conn.QueryRow(ctx, `
	insert into trip (route_id, ts, total_time, section_times)
	values ($1,$2,$3,$4)
	returning id
	`,
		trip.RouteID, trip.Timestamp, trip.TotalTime, trip.SectionTimes,
	)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func LoadById(ctx context.Context, conn repository.Querier, id int64) (
	*model.Trip, error,
) {
	row := conn.QueryRow(ctx, fmt.Sprintf("%s where id=$1", selector), id)
	var item model.Trip
	if err := scan(&item, row); err != nil {
		return nil, err
	}
	return &item, nil
}

// LoadByRouteId returns all trips of a route, oldest first.
func LoadByRouteId(ctx context.Context, conn repository.Querier, routeID string) (
	[]*model.Trip, error,
) {
	rows, err := conn.Query(ctx,
		fmt.Sprintf("%s where route_id=$1 order by ts asc, id asc", selector),
		routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]*model.Trip, 0)
	for rows.Next() {
		var item model.Trip
		if err := scan(&item, rows); err != nil {
			return nil, err
		}
		ret = append(ret, &item)
	}
	return ret, rows.Err()
}

// little helper
const selector = string(`select id, route_id, ts, total_time, section_times from trip`)

func scan(e *model.Trip, row pgx.Row) error {
	if err := row.Scan(
		&e.ID, &e.RouteID, &e.Timestamp, &e.TotalTime, &e.SectionTimes,
	); err != nil {
		return err
	}
	e.Timestamp = e.Timestamp.UTC()
	return nil
}
