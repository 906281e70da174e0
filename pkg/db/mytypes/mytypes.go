package mytypes

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/ohler55/ojg/oj"
)

type (
	// SectionTimes is stored as JSON array in databases without array support
	SectionTimes []float64
	// Timestamp is stored as RFC3339 text with nanoseconds, always UTC
	Timestamp time.Time
)

// fixed width, so text order equals time order
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (s SectionTimes) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return oj.JSON([]float64(s)), nil
}

func (s *SectionTimes) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	case nil:
		*s = SectionTimes{}
		return nil
	default:
		return fmt.Errorf("unsupported type %T for SectionTimes", src)
	}
	parsed, err := oj.Parse(data)
	if err != nil {
		return err
	}
	arr, ok := parsed.([]any)
	if !ok {
		return fmt.Errorf("expected JSON array, got %T", parsed)
	}
	work := make(SectionTimes, len(arr))
	for i, item := range arr {
		switch n := item.(type) {
		case int64:
			work[i] = float64(n)
		case float64:
			work[i] = n
		default:
			return fmt.Errorf("unexpected value %v at index %d", item, i)
		}
	}
	*s = work
	return nil
}

func (t Timestamp) Value() (driver.Value, error) {
	return time.Time(t).UTC().Format(timestampLayout), nil
}

func (t *Timestamp) Scan(src any) error {
	var text string
	switch v := src.(type) {
	case string:
		text = v
	case []byte:
		text = string(v)
	case time.Time:
		*t = Timestamp(v.UTC())
		return nil
	default:
		return fmt.Errorf("unsupported type %T for Timestamp", src)
	}
	parsed, err := time.Parse(time.RFC3339Nano, text)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed.UTC())
	return nil
}

func (t Timestamp) Time() time.Time {
	return time.Time(t)
}
