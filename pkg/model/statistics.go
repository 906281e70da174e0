package model

// SectionStat describes a sample of times (seconds).
// Stdev is the population standard deviation.
type SectionStat struct {
	Mean  float64 `json:"mean"`
	Stdev float64 `json:"stdev"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Range float64 `json:"range"`
}

type RouteStatistics struct {
	TripCount int                 `json:"numTrips"`
	Total     SectionStat         `json:"total"`
	Sections  map[int]SectionStat `json:"sections"` // key: section number, 1-based
	// number of trips left out of the section stats because their section
	// count differs from the first trip
	SkippedTrips int `json:"skippedTrips,omitempty"`
}

// SectionMean returns the historical mean of the given section (1-based).
func (s *RouteStatistics) SectionMean(section int) (float64, bool) {
	if s == nil {
		return 0, false
	}
	st, ok := s.Sections[section]
	if !ok {
		return 0, false
	}
	return st.Mean, true
}

func (s *RouteStatistics) TotalMean() (float64, bool) {
	if s == nil || s.TripCount == 0 {
		return 0, false
	}
	return s.Total.Mean, true
}
