package basedata

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/drivetime/drivetime/pkg/model"
	tripRepos "github.com/drivetime/drivetime/pkg/repository/trip"
)

func TestTime() time.Time {
	t, _ := time.Parse(time.RFC3339, "2024-04-28T11:10:12Z")
	return t
}

// SampleTrips returns three trips on route "1", one day apart.
func SampleTrips() []*model.Trip {
	return []*model.Trip{
		{
			RouteID:      "1",
			Timestamp:    TestTime(),
			TotalTime:    50,
			SectionTimes: []float64{10, 15, 8, 12, 5},
		},
		{
			RouteID:      "1",
			Timestamp:    TestTime().Add(24 * time.Hour),
			TotalTime:    54,
			SectionTimes: []float64{14, 15, 6, 12, 7},
		},
		{
			RouteID:      "1",
			Timestamp:    TestTime().Add(48 * time.Hour),
			TotalTime:    49,
			SectionTimes: []float64{12, 15, 7, 10, 5},
		},
	}
}

// CreateSampleTrips stores SampleTrips and returns them with their ids.
func CreateSampleTrips(pool *pgxpool.Pool) []*model.Trip {
	trips := SampleTrips()
	err := pgx.BeginFunc(context.Background(), pool, func(tx pgx.Tx) error {
		for _, t := range trips {
			id, err := tripRepos.Create(context.Background(), tx, t)
			if err != nil {
				return err
			}
			t.ID = id
		}
		return nil
	})
	if err != nil {
		log.Fatalf("createSampleTrips: %v\n", err)
	}
	return trips
}
