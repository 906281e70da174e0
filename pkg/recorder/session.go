package recorder

import (
	"context"
	"slices"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/drivetime/drivetime/pkg/model"
)

// DriveSession is the scratch state of the drive in progress.
// It is owned by the Recorder and never persisted.
type DriveSession struct {
	ID                 uuid.UUID
	Route              *model.Route
	StartTime          time.Time
	LastCheckpointTime time.Time
	EndTime            time.Time
	// number of named checkpoints passed, 0..len(Route.Checkpoints)
	CheckpointIndex int
	SectionTimes    []float64
	// comparison per recorded section, nil if no baseline was available
	Comparisons     []*Comparison
	TotalTime       float64
	TotalComparison *Comparison

	baseline *model.RouteStatistics
	ctx      context.Context
	cancel   context.CancelFunc
}

func newSession(ctx context.Context, route *model.Route) *DriveSession {
	id, err := uuid.NewV4()
	if err != nil {
		id = uuid.Nil
	}
	sctx, cancel := context.WithCancel(ctx)
	return &DriveSession{
		ID:           id,
		Route:        route,
		SectionTimes: make([]float64, 0, route.NumSections()),
		Comparisons:  make([]*Comparison, 0, route.NumSections()),
		ctx:          sctx,
		cancel:       cancel,
	}
}

// section number (1-based) of the section currently driven
func (s *DriveSession) currentSection() int {
	return len(s.SectionTimes) + 1
}

// closes the current section at instant now
func (s *DriveSession) closeSection(now time.Time) (float64, *Comparison) {
	section := s.currentSection()
	sectionTime := now.Sub(s.LastCheckpointTime).Seconds()
	s.SectionTimes = append(s.SectionTimes, sectionTime)
	var cmp *Comparison
	if mean, ok := s.baseline.SectionMean(section); ok {
		cmp = compare(section, sectionTime, mean)
	}
	s.Comparisons = append(s.Comparisons, cmp)
	s.LastCheckpointTime = now
	return sectionTime, cmp
}

func (s *DriveSession) finish(now time.Time) {
	s.EndTime = now
	s.TotalTime = now.Sub(s.StartTime).Seconds()
	if mean, ok := s.baseline.TotalMean(); ok {
		s.TotalComparison = compare(TotalSection, s.TotalTime, mean)
	}
}

func (s *DriveSession) trip() *model.Trip {
	return &model.Trip{
		RouteID:      s.Route.ID,
		Timestamp:    s.EndTime.UTC(),
		TotalTime:    s.TotalTime,
		SectionTimes: slices.Clone(s.SectionTimes),
	}
}

func (s *DriveSession) close() {
	s.cancel()
}
