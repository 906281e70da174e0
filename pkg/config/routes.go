package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/drivetime/drivetime/pkg/model"
)

type routesFile struct {
	Routes []model.Route `yaml:"routes"`
}

// LoadRoutes reads the route table from path. An empty path yields the
// built-in routes.
func LoadRoutes(path string) (*model.RouteTable, error) {
	if path == "" {
		return model.NewRouteTable(model.DefaultRoutes())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRoutes(f)
}

func ReadRoutes(r io.Reader) (*model.RouteTable, error) {
	var data routesFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("invalid routes file: %w", err)
	}
	return model.NewRouteTable(data.Routes)
}
