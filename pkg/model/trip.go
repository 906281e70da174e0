package model

import (
	"fmt"
	"time"
)

// Trip is a completed drive. Times are in seconds.
type Trip struct {
	ID           int64     `json:"id"`
	RouteID      string    `json:"routeId"`
	Timestamp    time.Time `json:"timestamp"`
	TotalTime    float64   `json:"totalTime"`
	SectionTimes []float64 `json:"sectionTimes"`
}

// Validate checks the trip against the route it was recorded on.
func (t *Trip) Validate(route *Route) error {
	if t.RouteID != route.ID {
		return fmt.Errorf("trip route %s does not match route %s", t.RouteID, route.ID)
	}
	if len(t.SectionTimes) != route.NumSections() {
		return fmt.Errorf("trip has %d sections, route %s requires %d",
			len(t.SectionTimes), route.ID, route.NumSections())
	}
	if t.TotalTime < 0 {
		return fmt.Errorf("negative total time %f", t.TotalTime)
	}
	for i, s := range t.SectionTimes {
		if s < 0 {
			return fmt.Errorf("negative time %f in section %d", s, i+1)
		}
	}
	return nil
}

func (t *Trip) SectionSum() float64 {
	sum := 0.0
	for _, s := range t.SectionTimes {
		sum += s
	}
	return sum
}
