package stats

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/drivetime/drivetime/pkg/cmd/util"
	"github.com/drivetime/drivetime/pkg/model"
	"github.com/drivetime/drivetime/pkg/recorder"
	routestats "github.com/drivetime/drivetime/pkg/stats"
	"github.com/drivetime/drivetime/pkg/utils/format"
)

const NoData = "No trip data available for this route yet."

func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats <routeId>",
		Short: "shows the statistics of all trips recorded on a route",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := util.NewApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			route, ok := app.Routes.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %q", recorder.ErrUnknownRoute, args[0])
			}
			st, err := app.Statistics.RouteStatistics(cmd.Context(), route.ID)
			if errors.Is(err, routestats.ErrStatisticsUnavailable) {
				fmt.Fprintln(cmd.OutOrStdout(), NoData)
				return nil
			}
			if err != nil {
				return err
			}
			PrintStatistics(cmd.OutOrStdout(), route, st)
			return nil
		},
	}
	return cmd
}

// PrintStatistics renders a table with one row per section and the total.
func PrintStatistics(w io.Writer, route *model.Route, st *model.RouteStatistics) {
	fmt.Fprintf(w, "Route %s: %s (%d trips)\n", route.ID, route.Name, st.TripCount)
	row := func(label string, s model.SectionStat) {
		fmt.Fprintf(w, "%-40s %16s %16s %16s %16s %16s\n", label,
			format.Seconds(s.Mean), format.Seconds(s.Stdev),
			format.Seconds(s.Min), format.Seconds(s.Max), format.Seconds(s.Range))
	}
	fmt.Fprintf(w, "%-40s %16s %16s %16s %16s %16s\n",
		"", "Mean", "Stdev", "Min", "Max", "Range")
	for n := 1; n <= len(st.Sections); n++ {
		s, ok := st.Sections[n]
		if !ok {
			continue
		}
		row(route.SectionLabel(n), s)
	}
	row("Total", st.Total)
	if st.SkippedTrips > 0 {
		fmt.Fprintf(w, "%d trip(s) with a different number of sections are "+
			"only included in the total.\n", st.SkippedTrips)
	}
}
