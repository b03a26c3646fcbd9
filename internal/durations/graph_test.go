package durations

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_Lookup_Directional(t *testing.T) {
	g := Default()

	out, err := g.Lookup("Bogotá", "Madrid")
	require.NoError(t, err)
	assert.Equal(t, 600, out)

	back, err := g.Lookup("madrid", "BOGOTA")
	require.NoError(t, err)
	assert.Equal(t, 630, back)
}

func TestGraph_Lookup_MissingEdge(t *testing.T) {
	g, err := NewGraph([]Edge{{Origin: "Bogotá", Destination: "Cali", Minutes: 60}})
	require.NoError(t, err)

	_, err = g.Lookup("Cali", "Bogotá")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataGap)
	assert.Equal(t, "DURATION_UNKNOWN", domain.CodeOf(err))
}

func TestNewGraph_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		edges []Edge
	}{
		{"zero minutes", []Edge{{Origin: "A", Destination: "B", Minutes: 0}}},
		{"self loop", []Edge{{Origin: "Cali", Destination: "cali", Minutes: 10}}},
		{"empty endpoint", []Edge{{Origin: "", Destination: "B", Minutes: 10}}},
		{"conflicting duplicate", []Edge{
			{Origin: "A", Destination: "B", Minutes: 10},
			{Origin: "a", Destination: "b", Minutes: 20},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewGraph(tc.edges)
			assert.Error(t, err)
		})
	}
}

func TestLoadFile_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "durations.yaml")
	data := []byte("edges:\n  - origin: Bogotá\n    destination: Madrid\n    minutes: 610\n  - origin: Cali\n    destination: Lima\n    minutes: 200\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	g, err := LoadFile(path)
	require.NoError(t, err)

	m, err := g.Lookup("Bogota", "Madrid")
	require.NoError(t, err)
	assert.Equal(t, 610, m)

	m, err = g.Lookup("Cali", "Lima")
	require.NoError(t, err)
	assert.Equal(t, 200, m)

	assert.Equal(t, Default().Len()+1, g.Len())
}

func TestGraph_EstimateArrival(t *testing.T) {
	dep := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	arr, err := Default().EstimateArrival(dep, "Bogotá", "Madrid")
	require.NoError(t, err)
	assert.Equal(t, dep.Add(10*time.Hour), arr)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0min", FormatDuration(0))
	assert.Equal(t, "0min", FormatDuration(-5))
	assert.Equal(t, "0h 45min", FormatDuration(45))
	assert.Equal(t, "1h", FormatDuration(60))
	assert.Equal(t, "10h", FormatDuration(600))
	assert.Equal(t, "1h 35min", FormatDuration(95))
}
