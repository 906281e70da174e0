package drive

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/drivetime/drivetime/log"
	"github.com/drivetime/drivetime/pkg/cmd/routes"
	"github.com/drivetime/drivetime/pkg/model"
	"github.com/drivetime/drivetime/pkg/recorder"
	"github.com/drivetime/drivetime/pkg/store"
	"github.com/drivetime/drivetime/pkg/utils/format"
)

const help = `commands:
  routes            list routes
  select <id>       select a route (r <id>)
  start             start the drive (s)
  c                 record the next checkpoint (cp)
  d                 record the destination (dest)
  cancel            cancel the drive (x)
  save              save the completed drive
  discard           drop the completed drive
  status            show the current drive
  q                 quit
`

// console reads commands line by line and reports their outcome.
type console struct {
	rec    *recorder.Recorder
	routes *model.RouteTable
	out    io.Writer
}

func newConsole(rec *recorder.Recorder, routes *model.RouteTable, out io.Writer) *console {
	return &console{rec: rec, routes: routes, out: out}
}

// run processes commands until in is exhausted, "q" is entered or ctx is
// done. A drive still running at that point is cancelled.
func (c *console) run(ctx context.Context, in io.Reader, routeID string) error {
	defer c.shutdown()
	if routeID != "" {
		c.exec(ctx, "select "+routeID)
	} else {
		c.printf("Select a route with 'select <id>', 'help' lists all commands.\n")
	}

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if quit := c.exec(ctx, line); quit {
				return nil
			}
		}
	}
}

func (c *console) shutdown() {
	if c.rec.State().Driving() {
		if err := c.rec.Cancel(); err == nil {
			c.printf("Drive cancelled.\n")
		}
	}
	if c.rec.State() == recorder.StateCompleted {
		c.printf("Completed drive was not saved.\n")
	}
}

//nolint:cyclop,funlen // command dispatch
func (c *console) exec(ctx context.Context, line string) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	var err error
	switch strings.ToLower(fields[0]) {
	case "q", "quit", "exit":
		return true
	case "help", "?":
		c.printf("%s", help)
	case "routes":
		routes.PrintRoutes(c.out, c.routes)
	case "select", "r":
		if len(fields) < 2 {
			c.printf("usage: select <routeId>\n")
			return false
		}
		err = c.selectRoute(ctx, fields[1])
	case "start", "s":
		err = c.start()
	case "c", "cp", "checkpoint":
		err = c.checkpoint()
	case "d", "dest", "destination":
		err = c.destination()
	case "cancel", "x":
		if err = c.rec.Cancel(); err == nil {
			c.printf("Drive cancelled.\n")
		}
	case "save":
		err = c.save(ctx)
	case "discard":
		if err = c.rec.Discard(); err == nil {
			c.printf("Drive discarded.\n")
		}
	case "status":
		c.status()
	default:
		c.printf("unknown command %q, try 'help'\n", fields[0])
	}
	if err != nil {
		c.printError(err)
	}
	return false
}

func (c *console) selectRoute(ctx context.Context, routeID string) error {
	if err := c.rec.SelectRoute(ctx, routeID); err != nil {
		return err
	}
	snap := c.rec.Snapshot()
	c.printf("Route %s: %s selected. Type 'start' when you leave.\n",
		snap.RouteID, snap.RouteName)
	return nil
}

func (c *console) start() error {
	if err := c.rec.StartDrive(); err != nil {
		return err
	}
	c.printf("Drive started.\n")
	c.printNext(c.rec.Snapshot())
	return nil
}

func (c *console) checkpoint() error {
	cmp, err := c.rec.RecordCheckpoint()
	if err != nil {
		return err
	}
	snap := c.rec.Snapshot()
	c.printSection(snap, cmp)
	c.printNext(snap)
	return nil
}

func (c *console) destination() error {
	cmp, err := c.rec.RecordDestination()
	if err != nil {
		return err
	}
	snap := c.rec.Snapshot()
	c.printSection(snap, cmp)
	c.printf("Total: %s", format.Seconds(snap.TotalTime))
	if snap.TotalComparison != nil {
		c.printf("  %s", snap.TotalComparison)
	}
	c.printf("\nType 'save' to keep this trip or 'discard' to drop it.\n")
	return nil
}

func (c *console) save(ctx context.Context) error {
	id, err := c.rec.Save(ctx)
	if err != nil {
		return err
	}
	c.printf("Trip saved (#%d).\n", id)
	return nil
}

func (c *console) status() {
	snap := c.rec.Snapshot()
	c.printf("State: %s\n", snap.State)
	if snap.RouteID == "" {
		return
	}
	c.printf("Route %s: %s\n", snap.RouteID, snap.RouteName)
	for _, s := range snap.Sections {
		c.printf("  %-40s %s\n", s.Label, format.Seconds(s.Time))
	}
	if snap.State.Driving() {
		c.printf("Elapsed: %s\n", format.Duration(snap.Elapsed))
		c.printNext(snap)
	}
}

func (c *console) printSection(snap recorder.Snapshot, cmp *recorder.Comparison) {
	if len(snap.Sections) == 0 {
		return
	}
	last := snap.Sections[len(snap.Sections)-1]
	c.printf("%s: %s", last.Label, format.Seconds(last.Time))
	if cmp != nil {
		c.printf("  %s", cmp)
	}
	c.printf("\n")
}

func (c *console) printNext(snap recorder.Snapshot) {
	next := "Destination"
	if snap.NextCheckpoint != "" {
		next = snap.NextCheckpoint
	}
	c.printf("Next: %s", next)
	if snap.NextSectionMean != nil {
		c.printf(" (average %s)", format.Seconds(*snap.NextSectionMean))
	}
	c.printf("\n")
}

func (c *console) printError(err error) {
	var pe *store.PersistenceError
	switch {
	case errors.Is(err, recorder.ErrInvalidTransition):
		c.printf("not possible now: %v\n", err)
	case errors.Is(err, recorder.ErrUnknownRoute):
		c.printf("%v, try 'routes'\n", err)
	case errors.As(err, &pe):
		c.printf("could not save trip: %v. Try 'save' again or 'discard'.\n", pe.Err)
	default:
		c.printf("error: %v\n", err)
	}
	log.Debug("command failed", log.ErrorField(err))
}

func (c *console) printf(tmpl string, args ...any) {
	fmt.Fprintf(c.out, tmpl, args...)
}
