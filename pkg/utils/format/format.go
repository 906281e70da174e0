package format

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Seconds renders a time in seconds like "2 min 5.25 sec" or "5.25 sec".
func Seconds(secs float64) string {
	mins := math.Floor(secs / 60)
	// round the exact binary value, not its shortest decimal form
	rest := decimal.NewFromFloatWithExponent(math.Mod(secs, 60), -30).StringFixed(2)
	if mins > 0 {
		return fmt.Sprintf("%d min %s sec", int64(mins), rest)
	}
	return fmt.Sprintf("%s sec", rest)
}

func Duration(d time.Duration) string {
	return Seconds(d.Seconds())
}
