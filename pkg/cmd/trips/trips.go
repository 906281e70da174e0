package trips

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ohler55/ojg/oj"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/drivetime/drivetime/pkg/cmd/util"
	"github.com/drivetime/drivetime/pkg/model"
	"github.com/drivetime/drivetime/pkg/recorder"
	"github.com/drivetime/drivetime/pkg/utils/format"
)

var asJSON bool

func NewTripsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trips <routeId>",
		Short: "lists the trips recorded on a route",
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
			trips, err := app.Trips.QueryByRoute(cmd.Context(), route.ID)
			if err != nil {
				return err
			}
			if asJSON {
				PrintJSON(cmd.OutOrStdout(), trips)
				return nil
			}
			PrintTrips(cmd.OutOrStdout(), trips)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print trips as JSON")
	return cmd
}

func PrintTrips(w io.Writer, trips []*model.Trip) {
	if len(trips) == 0 {
		fmt.Fprintln(w, "No trips recorded yet.")
		return
	}
	for _, t := range trips {
		fmt.Fprintf(w, "#%-5d %s  %-18s %s\n",
			t.ID,
			t.Timestamp.Local().Format("2006-01-02 15:04"),
			format.Seconds(t.TotalTime),
			strings.Join(lo.Map(t.SectionTimes, func(s float64, _ int) string {
				return format.Seconds(s)
			}), " | "))
	}
}

// PrintJSON writes the trips as JSON array using the field names of the
// original object store.
func PrintJSON(w io.Writer, trips []*model.Trip) {
	data := lo.Map(trips, func(t *model.Trip, _ int) any {
		return map[string]any{
			"id":           t.ID,
			"routeId":      t.RouteID,
			"timestamp":    t.Timestamp.UTC().Format(time.RFC3339Nano),
			"totalTime":    t.TotalTime,
			"sectionTimes": lo.Map(t.SectionTimes, func(s float64, _ int) any { return s }),
		}
	})
	fmt.Fprintln(w, oj.JSON(data, &oj.Options{Indent: 2, Sort: true}))
}
