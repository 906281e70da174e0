package trips

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ohler55/ojg/oj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivetime/drivetime/pkg/model"
)

func sampleTrips() []*model.Trip {
	return []*model.Trip{
		{
			ID:           3,
			RouteID:      "1",
			Timestamp:    time.Date(2024, 4, 28, 11, 10, 12, 0, time.UTC),
			TotalTime:    75.5,
			SectionTimes: []float64{60, 15.5},
		},
	}
}

func TestPrintTrips(t *testing.T) {
	var buf bytes.Buffer
	PrintTrips(&buf, nil)
	assert.Equal(t, "No trips recorded yet.\n", buf.String())

	buf.Reset()
	PrintTrips(&buf, sampleTrips())
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "#3 "))
	assert.Contains(t, out, "1 min 15.50 sec")
	assert.Contains(t, out, "1 min 0.00 sec | 15.50 sec")
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	PrintJSON(&buf, sampleTrips())

	parsed, err := oj.ParseString(buf.String())
	require.NoError(t, err)
	list, ok := parsed.([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	trip := list[0].(map[string]any)
	assert.Equal(t, "1", trip["routeId"])
	assert.Equal(t, "2024-04-28T11:10:12Z", trip["timestamp"])
	assert.Equal(t, 75.5, trip["totalTime"])
	assert.Equal(t, int64(3), trip["id"])
	assert.Len(t, trip["sectionTimes"], 2)
}
