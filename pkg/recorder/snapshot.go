package recorder

import "time"

type SectionResult struct {
	Number     int         `json:"number"` // 1-based
	Label      string      `json:"label"`
	Time       float64     `json:"time"`
	Comparison *Comparison `json:"comparison,omitempty"`
}

// Snapshot holds everything a display needs to render the recorder.
type Snapshot struct {
	SessionID       string          `json:"sessionId,omitempty"`
	State           State           `json:"state"`
	RouteID         string          `json:"routeId,omitempty"`
	RouteName       string          `json:"routeName,omitempty"`
	CheckpointIndex int             `json:"checkpointIndex"`
	CheckpointCount int             `json:"checkpointCount"`
	NextCheckpoint  string          `json:"nextCheckpoint,omitempty"`
	NextSectionMean *float64        `json:"nextSectionMean,omitempty"`
	Elapsed         time.Duration   `json:"elapsed"`
	LastComparison  *Comparison     `json:"lastComparison,omitempty"`
	Sections        []SectionResult `json:"sections,omitempty"`
	HasBaseline     bool            `json:"hasBaseline"`
	// set once the drive is completed
	TotalTime       float64     `json:"totalTime,omitempty"`
	TotalComparison *Comparison `json:"totalComparison,omitempty"`
	Tick            bool        `json:"tick,omitempty"`
}

func buildSnapshot(state State, s *DriveSession, now time.Time) Snapshot {
	ret := Snapshot{State: state}
	if s == nil {
		return ret
	}
	ret.SessionID = s.ID.String()
	ret.RouteID = s.Route.ID
	ret.RouteName = s.Route.Name
	ret.CheckpointIndex = s.CheckpointIndex
	ret.CheckpointCount = len(s.Route.Checkpoints)
	ret.HasBaseline = s.baseline != nil
	if s.CheckpointIndex < len(s.Route.Checkpoints) {
		ret.NextCheckpoint = s.Route.Checkpoints[s.CheckpointIndex]
	}
	if state != StateCompleted {
		if mean, ok := s.baseline.SectionMean(s.currentSection()); ok {
			ret.NextSectionMean = &mean
		}
	}

	switch {
	case state.Driving():
		ret.Elapsed = now.Sub(s.StartTime)
	case state == StateCompleted:
		ret.Elapsed = s.EndTime.Sub(s.StartTime)
		ret.TotalTime = s.TotalTime
		ret.TotalComparison = s.TotalComparison
	}

	ret.Sections = make([]SectionResult, len(s.SectionTimes))
	for i, t := range s.SectionTimes {
		ret.Sections[i] = SectionResult{
			Number:     i + 1,
			Label:      s.Route.SectionLabel(i + 1),
			Time:       t,
			Comparison: s.Comparisons[i],
		}
	}
	if n := len(s.Comparisons); n > 0 {
		ret.LastComparison = s.Comparisons[n-1]
	}
	return ret
}
