package timezones

import (
	"fmt"
	"os"
	"sync"
	"time"
	// Embedded zone database so resolution never depends on the host.
	_ "time/tzdata"

	"github.com/Domenick1991/airreserve/internal/citykey"
	"github.com/Domenick1991/airreserve/internal/domain"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const DefaultRegion = "America/Bogota"

// Resolution is the outcome of mapping a city to a zone.
type Resolution struct {
	TimezoneID string
	// Fallback is set when the city was unmapped and the default region was used.
	Fallback bool
}

// LocalTime is an instant rendered in a zone.
type LocalTime struct {
	Date       string `json:"date"`
	Time       string `json:"time"`
	Offset     string `json:"offset"`
	TimezoneID string `json:"timezone"`
}

type Resolver struct {
	cities        map[string]string
	defaultRegion string
	logger        *zap.Logger

	mu    sync.RWMutex
	zones map[string]*time.Location
}

type Option func(*Resolver)

func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithCities adds or overrides city -> IANA zone mappings.
func WithCities(cities map[string]string) Option {
	return func(r *Resolver) {
		for name, tz := range cities {
			r.cities[citykey.Normalize(name)] = tz
		}
	}
}

func NewResolver(defaultRegion string, opts ...Option) (*Resolver, error) {
	if defaultRegion == "" {
		defaultRegion = DefaultRegion
	}
	r := &Resolver{
		cities:        make(map[string]string, len(defaultCities)),
		defaultRegion: defaultRegion,
		logger:        zap.NewNop(),
		zones:         make(map[string]*time.Location),
	}
	for name, tz := range defaultCities {
		r.cities[citykey.Normalize(name)] = tz
	}
	for _, opt := range opts {
		opt(r)
	}
	if _, err := r.location(defaultRegion); err != nil {
		return nil, fmt.Errorf("default region: %w", err)
	}
	for city, tz := range r.cities {
		if _, err := r.location(tz); err != nil {
			return nil, fmt.Errorf("city %s: %w", city, err)
		}
	}
	return r, nil
}

// LoadCitiesFile reads a YAML map of city name -> IANA zone.
func LoadCitiesFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timezones: %w", err)
	}
	var file struct {
		Cities map[string]string `yaml:"cities"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse timezones: %w", err)
	}
	return file.Cities, nil
}

// Resolve maps a city to its zone, falling back to the default region for unmapped cities.
func (r *Resolver) Resolve(city string) Resolution {
	if tz, ok := r.cities[citykey.Normalize(city)]; ok {
		return Resolution{TimezoneID: tz}
	}
	r.logger.Warn("city has no timezone mapping, using default region",
		zap.String("city", city),
		zap.String("default_region", r.defaultRegion),
	)
	return Resolution{TimezoneID: r.defaultRegion, Fallback: true}
}

// Location resolves the city and loads its zone.
func (r *Resolver) Location(city string) (*time.Location, Resolution, error) {
	res := r.Resolve(city)
	loc, err := r.location(res.TimezoneID)
	return loc, res, err
}

// CityLocation prefers the zone stored on the city and resolves by name otherwise.
func (r *Resolver) CityLocation(c domain.City) (*time.Location, Resolution, error) {
	if c.Timezone == "" {
		return r.Location(c.Name)
	}
	res := Resolution{TimezoneID: c.Timezone}
	loc, err := r.location(c.Timezone)
	return loc, res, err
}

// OffsetDifference returns tzB's UTC offset minus tzA's, in minutes, at the given instant.
func (r *Resolver) OffsetDifference(tzA, tzB string, at time.Time) (int, error) {
	a, err := r.location(tzA)
	if err != nil {
		return 0, err
	}
	b, err := r.location(tzB)
	if err != nil {
		return 0, err
	}
	_, offA := at.In(a).Zone()
	_, offB := at.In(b).Zone()
	return (offB - offA) / 60, nil
}

func (r *Resolver) RenderLocal(instant time.Time, tz string) (LocalTime, error) {
	loc, err := r.location(tz)
	if err != nil {
		return LocalTime{}, err
	}
	t := instant.In(loc)
	return LocalTime{
		Date:       t.Format("2006-01-02"),
		Time:       t.Format("15:04"),
		Offset:     t.Format("-07:00"),
		TimezoneID: tz,
	}, nil
}

func (r *Resolver) location(tz string) (*time.Location, error) {
	r.mu.RLock()
	loc, ok := r.zones[tz]
	r.mu.RUnlock()
	if ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, domain.DataGap("TIMEZONE_UNKNOWN", fmt.Sprintf("unknown timezone %q", tz))
	}
	r.mu.Lock()
	r.zones[tz] = loc
	r.mu.Unlock()
	return loc, nil
}
