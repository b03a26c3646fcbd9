package bootstrap

import (
	"fmt"

	"github.com/Domenick1991/airreserve/config"
	"github.com/Domenick1991/airreserve/internal/durations"
	"github.com/Domenick1991/airreserve/internal/timezones"
	"go.uber.org/zap"
)

// LoadReferenceData builds the duration graph and timezone resolver once at startup.
func LoadReferenceData(cfg *config.Config, logger *zap.Logger) (*durations.Graph, *timezones.Resolver, error) {
	graph := durations.Default()
	if cfg.Durations.File != "" {
		var err error
		if graph, err = durations.LoadFile(cfg.Durations.File); err != nil {
			return nil, nil, err
		}
	}

	opts := []timezones.Option{timezones.WithLogger(logger)}
	if cfg.Timezones.File != "" {
		cities, err := timezones.LoadCitiesFile(cfg.Timezones.File)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, timezones.WithCities(cities))
	}
	zones, err := timezones.NewResolver(cfg.Timezones.DefaultRegion, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("timezones: %w", err)
	}

	logger.Info("reference data loaded", zap.Int("duration_edges", graph.Len()))
	return graph, zones, nil
}
