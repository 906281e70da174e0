package drive

import (
	"fmt"
	"io"
	"sync"

	"github.com/drivetime/drivetime/pkg/recorder"
	"github.com/drivetime/drivetime/pkg/utils/format"
)

const clearLine = "\r\033[K"

// screen serializes console output and the live status line. Regular output
// replaces a visible status line.
type screen struct {
	mu          sync.Mutex
	out         io.Writer
	statusShown bool
}

func (s *screen) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statusShown {
		s.statusShown = false
		if _, err := io.WriteString(s.out, clearLine); err != nil {
			return 0, err
		}
	}
	return s.out.Write(p)
}

func (s *screen) status(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusShown = true
	fmt.Fprint(s.out, clearLine+line)
}

// display renders snapshots received from the broadcast server.
type display struct {
	screen      *screen
	session     string
	hasBaseline bool
	done        chan struct{}
}

func newDisplay(s *screen) *display {
	return &display{screen: s, done: make(chan struct{})}
}

func (d *display) run(snapshots <-chan recorder.Snapshot) {
	defer close(d.done)
	for snap := range snapshots {
		d.render(snap)
	}
}

func (d *display) wait() {
	<-d.done
}

func (d *display) render(snap recorder.Snapshot) {
	if snap.SessionID != d.session {
		d.session = snap.SessionID
		d.hasBaseline = false
	}
	if snap.HasBaseline && !d.hasBaseline {
		d.hasBaseline = true
		if !snap.State.Driving() && snap.State != recorder.StateCompleted {
			fmt.Fprintf(d.screen, "History of route %s loaded.\n", snap.RouteID)
		}
	}
	if snap.Tick && snap.State.Driving() {
		d.screen.status(statusLine(snap))
	}
}

func statusLine(snap recorder.Snapshot) string {
	next := "Destination"
	if snap.NextCheckpoint != "" {
		next = snap.NextCheckpoint
	}
	ret := fmt.Sprintf("[%s] elapsed %s, next: %s",
		snap.RouteName, format.Duration(snap.Elapsed), next)
	if snap.NextSectionMean != nil {
		ret += fmt.Sprintf(" (average %s)", format.Seconds(*snap.NextSectionMean))
	}
	return ret
}
