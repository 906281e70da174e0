package model

import (
	"errors"
	"fmt"
	"strings"
)

const destinationName = "To Destination"

type Route struct {
	ID          string   `json:"id"          yaml:"id"`
	Name        string   `json:"name"        yaml:"name"`
	Checkpoints []string `json:"checkpoints" yaml:"checkpoints"`
}

// NumSections returns the number of timed sections of the route.
// The section after the last checkpoint leads to the destination.
func (r *Route) NumSections() int {
	return len(r.Checkpoints) + 1
}

// SectionName returns the name of the waypoint closing section (1-based).
func (r *Route) SectionName(section int) string {
	if section >= 1 && section <= len(r.Checkpoints) {
		return r.Checkpoints[section-1]
	}
	return destinationName
}

func (r *Route) SectionLabel(section int) string {
	if section >= 1 && section <= len(r.Checkpoints) {
		return fmt.Sprintf("Section %d: %s", section, r.Checkpoints[section-1])
	}
	return "Final Section: " + destinationName
}

func (r *Route) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("route id must not be empty")
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("route %s: name must not be empty", r.ID)
	}
	if len(r.Checkpoints) == 0 {
		return fmt.Errorf("route %s: at least one checkpoint required", r.ID)
	}
	for i, c := range r.Checkpoints {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("route %s: checkpoint %d has no name", r.ID, i+1)
		}
	}
	return nil
}

// RouteTable is the read-only set of configured routes.
// Iteration order is the configuration order.
type RouteTable struct {
	order  []string
	lookup map[string]*Route
}

func NewRouteTable(routes []Route) (*RouteTable, error) {
	t := &RouteTable{
		order:  make([]string, 0, len(routes)),
		lookup: make(map[string]*Route, len(routes)),
	}
	for i := range routes {
		r := routes[i]
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if _, ok := t.lookup[r.ID]; ok {
			return nil, fmt.Errorf("duplicate route id %s", r.ID)
		}
		r.Checkpoints = append([]string(nil), r.Checkpoints...)
		t.order = append(t.order, r.ID)
		t.lookup[r.ID] = &r
	}
	if len(t.order) == 0 {
		return nil, errors.New("no routes configured")
	}
	return t, nil
}

// Get returns a copy of the route with the given id.
func (t *RouteTable) Get(id string) (*Route, bool) {
	r, ok := t.lookup[id]
	if !ok {
		return nil, false
	}
	ret := *r
	ret.Checkpoints = append([]string(nil), r.Checkpoints...)
	return &ret, true
}

func (t *RouteTable) All() []*Route {
	ret := make([]*Route, 0, len(t.order))
	for _, id := range t.order {
		r, _ := t.Get(id)
		ret = append(ret, r)
	}
	return ret
}

func (t *RouteTable) Len() int {
	return len(t.order)
}

// DefaultRoutes is the built-in route configuration.
func DefaultRoutes() []Route {
	return []Route{
		{
			ID:   "1",
			Name: "72nd",
			Checkpoints: []string{
				"72nd off-ramp",
				"72nd and Sorensen",
				"72nd and Military",
				"72nd and Dodge",
			},
		},
		{
			ID:   "2",
			Name: "72nd<->Sorensen",
			Checkpoints: []string{
				"56th and Sorensen",
				"72nd and Sorensen",
				"72nd and Military",
				"72nd and Dodge",
			},
		},
		{
			ID:   "3",
			Name: "Dodge<->I680",
			Checkpoints: []string{
				"72nd exit",
				"Irvington exit",
				"Dodge exit",
				"Rose Blumkin turn",
			},
		},
		{
			ID:   "4",
			Name: "Pacific<->I680",
			Checkpoints: []string{
				"72nd exit",
				"Irvington exit",
				"Pacific exit",
				"72nd and Pacific",
			},
		},
		{
			ID:   "5",
			Name: "SMM drive",
			Checkpoints: []string{
				"56th and Sorensen",
				"52nd and Ames",
				"52nd and Happy Hollow",
				"52nd and Dodge",
			},
		},
	}
}
