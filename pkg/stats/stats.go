// Package stats computes route statistics from recorded trips.
package stats

import (
	"errors"
	"math"

	"github.com/samber/lo"

	"github.com/drivetime/drivetime/log"
	"github.com/drivetime/drivetime/pkg/model"
)

// ErrStatisticsUnavailable signals that there is no trip data yet.
// This is not a failure of the store.
var ErrStatisticsUnavailable = errors.New("no statistics available")

func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return lo.Sum(xs) / float64(len(xs))
}

// Stdev returns the population standard deviation.
// Samples with fewer than 2 values yield 0.
func Stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	avg := Mean(xs)
	squareDiffs := lo.Map(xs, func(v float64, _ int) float64 {
		return (v - avg) * (v - avg)
	})
	return math.Sqrt(Mean(squareDiffs))
}

func Min(xs []float64) float64 {
	return lo.Min(xs)
}

func Max(xs []float64) float64 {
	return lo.Max(xs)
}

func Describe(xs []float64) model.SectionStat {
	if len(xs) == 0 {
		return model.SectionStat{}
	}
	minVal, maxVal := Min(xs), Max(xs)
	return model.SectionStat{
		Mean:  Mean(xs),
		Stdev: Stdev(xs),
		Min:   minVal,
		Max:   maxVal,
		Range: maxVal - minVal,
	}
}

// ComputeStatistics aggregates the trips of a single route.
// It returns nil if there are no trips.
//
// The number of sections is taken from the first trip. Trips with a different
// section count (e.g. recorded before the route definition changed) are left
// out of the section stats and counted in SkippedTrips. They still count
// for the total.
func ComputeStatistics(trips []*model.Trip) *model.RouteStatistics {
	if len(trips) == 0 {
		return nil
	}
	numSections := len(trips[0].SectionTimes)
	totalTimes := lo.Map(trips, func(t *model.Trip, _ int) float64 { return t.TotalTime })

	consistent := lo.Filter(trips, func(t *model.Trip, _ int) bool {
		return len(t.SectionTimes) == numSections
	})
	ret := &model.RouteStatistics{
		TripCount:    len(trips),
		Total:        Describe(totalTimes),
		Sections:     make(map[int]model.SectionStat, numSections),
		SkippedTrips: len(trips) - len(consistent),
	}
	if ret.SkippedTrips > 0 {
		log.Default().Named("drivetime.stats").Warn("inconsistent section counts",
			log.String("route", trips[0].RouteID),
			log.Int("sections", numSections),
			log.Int("skipped", ret.SkippedTrips))
	}

	for i := range numSections {
		sectionTimes := lo.Map(consistent, func(t *model.Trip, _ int) float64 {
			return t.SectionTimes[i]
		})
		ret.Sections[i+1] = Describe(sectionTimes)
	}
	return ret
}
