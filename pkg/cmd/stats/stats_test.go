package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drivetime/drivetime/pkg/model"
	routestats "github.com/drivetime/drivetime/pkg/stats"
)

func TestPrintStatistics(t *testing.T) {
	route := &model.Route{ID: "1", Name: "72nd", Checkpoints: []string{"A", "B"}}
	st := routestats.ComputeStatistics([]*model.Trip{
		{RouteID: "1", TotalTime: 90, SectionTimes: []float64{30, 40, 20}},
		{RouteID: "1", TotalTime: 70, SectionTimes: []float64{20, 30, 20}},
		{RouteID: "1", TotalTime: 10, SectionTimes: []float64{10}},
	})
	require.NotNil(t, st)

	var buf bytes.Buffer
	PrintStatistics(&buf, route, st)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "Route 1: 72nd (3 trips)", lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "Section 1: A"))
	assert.Contains(t, lines[2], "25.00 sec")
	assert.True(t, strings.HasPrefix(lines[4], "Final Section: To Destination"))
	assert.True(t, strings.HasPrefix(lines[5], "Total"))
	assert.Contains(t, lines[5], "56.67 sec")
	assert.Contains(t, lines[5], "1 min 30.00 sec")
	assert.Contains(t, lines[6], "1 trip(s)")
}
