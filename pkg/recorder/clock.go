package recorder

import "time"

// Clock provides the instants checkpoints are recorded at.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}
