package durations

import (
	"fmt"
	"os"
	"time"

	"github.com/Domenick1991/airreserve/internal/citykey"
	"github.com/Domenick1991/airreserve/internal/domain"
	"gopkg.in/yaml.v3"
)

// Edge is one directed city pair with its scheduled flight time.
type Edge struct {
	Origin      string `yaml:"origin"`
	Destination string `yaml:"destination"`
	Minutes     int    `yaml:"minutes"`
}

type edgeKey struct {
	origin string
	dest   string
}

// Graph is an immutable directed graph of flight minutes. Reverse edges are never inferred.
type Graph struct {
	edges map[edgeKey]int
}

func NewGraph(edges []Edge) (*Graph, error) {
	g := &Graph{edges: make(map[edgeKey]int, len(edges))}
	for _, e := range edges {
		if e.Minutes <= 0 {
			return nil, fmt.Errorf("edge %s -> %s: minutes must be positive", e.Origin, e.Destination)
		}
		k := edgeKey{origin: citykey.Normalize(e.Origin), dest: citykey.Normalize(e.Destination)}
		if k.origin == "" || k.dest == "" || k.origin == k.dest {
			return nil, fmt.Errorf("edge %q -> %q: invalid endpoints", e.Origin, e.Destination)
		}
		if prev, ok := g.edges[k]; ok && prev != e.Minutes {
			return nil, fmt.Errorf("edge %s -> %s declared twice (%d vs %d)", e.Origin, e.Destination, prev, e.Minutes)
		}
		g.edges[k] = e.Minutes
	}
	return g, nil
}

// LoadFile reads a YAML list of edges and merges it over the built-in table.
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read durations: %w", err)
	}
	var file struct {
		Edges []Edge `yaml:"edges"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse durations: %w", err)
	}
	merged := make(map[edgeKey]Edge, len(defaultEdges)+len(file.Edges))
	for _, e := range append(append([]Edge{}, defaultEdges...), file.Edges...) {
		merged[edgeKey{origin: citykey.Normalize(e.Origin), dest: citykey.Normalize(e.Destination)}] = e
	}
	edges := make([]Edge, 0, len(merged))
	for _, e := range merged {
		edges = append(edges, e)
	}
	return NewGraph(edges)
}

// Default returns the graph built from the built-in route table.
func Default() *Graph {
	g, err := NewGraph(defaultEdges)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Graph) Len() int {
	return len(g.edges)
}

// Lookup returns flight minutes for the directed pair. A missing edge is a data gap, never zero.
func (g *Graph) Lookup(origin, dest string) (int, error) {
	m, ok := g.edges[edgeKey{origin: citykey.Normalize(origin), dest: citykey.Normalize(dest)}]
	if !ok {
		return 0, domain.DataGap("DURATION_UNKNOWN", fmt.Sprintf("unknown route duration %s -> %s", origin, dest))
	}
	return m, nil
}

func (g *Graph) EstimateArrival(departure time.Time, origin, dest string) (time.Time, error) {
	m, err := g.Lookup(origin, dest)
	if err != nil {
		return time.Time{}, err
	}
	return departure.Add(time.Duration(m) * time.Minute), nil
}

// FormatDuration renders minutes as "0min", "Xh" or "Xh Ymin".
func FormatDuration(minutes int) string {
	if minutes <= 0 {
		return "0min"
	}
	h, m := minutes/60, minutes%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dmin", h, m)
}
