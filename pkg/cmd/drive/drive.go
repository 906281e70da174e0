package drive

import (
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/drivetime/drivetime/log"
	"github.com/drivetime/drivetime/pkg/cmd/util"
	"github.com/drivetime/drivetime/pkg/config"
	"github.com/drivetime/drivetime/pkg/recorder"
	"github.com/drivetime/drivetime/pkg/utils/broadcast"
)

func NewDriveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drive [routeId]",
		Short: "times a drive interactively",
		Long: `Times a drive interactively. Enter 'start' when you leave, 'c' at each
checkpoint and 'd' at the destination. Each section is compared to the
average of the trips recorded so far.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			routeID := ""
			if len(args) > 0 {
				routeID = args[0]
			}
			return startDrive(cmd, routeID)
		},
	}
	cmd.Flags().StringVar(&config.TickInterval,
		"tick-interval",
		"100ms",
		"refresh interval of the elapsed time display (0 disables it)")
	return cmd
}

func startDrive(cmd *cobra.Command, routeID string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	app, err := util.NewApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	scr := &screen{out: cmd.OutOrStdout()}
	source := make(chan recorder.Snapshot, 16)
	l := log.Default().Named("drivetime.drive")
	server := broadcast.NewBroadcastServer("snapshots", source,
		broadcast.WithBufferSize[recorder.Snapshot](16),
		broadcast.WithTelemetry[recorder.Snapshot]("drive"),
		broadcast.WithLogger[recorder.Snapshot](l.Named("broadcast")))
	disp := newDisplay(scr)
	go disp.run(server.Subscribe())

	rec := recorder.New(app.Routes, app.Trips,
		recorder.WithStatistics(app.Statistics),
		recorder.WithLogger(l.Named("recorder")),
		recorder.WithTickInterval(util.ParseDuration(config.TickInterval, 100*time.Millisecond)),
		recorder.WithPublisher(func(s recorder.Snapshot) {
			select {
			case source <- s:
			default:
				l.Debug("display busy, snapshot dropped")
			}
		}),
	)

	err = newConsole(rec, app.Routes, scr).run(ctx, cmd.InOrStdin(), routeID)
	rec.Wait()
	server.Close()
	disp.wait()
	return err
}
