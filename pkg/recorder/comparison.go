package recorder

import (
	"fmt"
	"math"

	"github.com/drivetime/drivetime/pkg/utils/format"
)

// TotalSection is used as section number of a comparison of the total time.
const TotalSection = 0

// Comparison relates a measured time to the historical mean (seconds).
// A negative Diff is ahead of the average, zero or positive is behind.
type Comparison struct {
	Section int     `json:"section"`
	Actual  float64 `json:"actual"`
	Mean    float64 `json:"mean"`
	Diff    float64 `json:"diff"`
}

func compare(section int, actual, mean float64) *Comparison {
	return &Comparison{
		Section: section,
		Actual:  actual,
		Mean:    mean,
		Diff:    actual - mean,
	}
}

func (c *Comparison) Ahead() bool {
	return c.Diff < 0
}

func (c *Comparison) Indicator() string {
	if c.Ahead() {
		return "↓"
	}
	return "↑"
}

func (c *Comparison) Label() string {
	switch {
	case c.Section == TotalSection && c.Ahead():
		return "FASTER"
	case c.Section == TotalSection:
		return "SLOWER"
	case c.Ahead():
		return "AHEAD"
	default:
		return "BEHIND"
	}
}

func (c *Comparison) Magnitude() float64 {
	return math.Abs(c.Diff)
}

func (c *Comparison) String() string {
	relation := "of"
	if c.Section == TotalSection {
		relation = "than"
	}
	return fmt.Sprintf("%s %s %s %s average (%s)",
		c.Indicator(), format.Seconds(c.Magnitude()), c.Label(), relation,
		format.Seconds(c.Mean))
}
