package timezones

import (
	"testing"
	"time"

	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/Domenick1991/airreserve/internal/durations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T, opts ...Option) *Resolver {
	t.Helper()
	r, err := NewResolver("", opts...)
	require.NoError(t, err)
	return r
}

func TestResolver_Resolve(t *testing.T) {
	r := newResolver(t)

	res := r.Resolve("BOGOTA")
	assert.Equal(t, "America/Bogota", res.TimezoneID)
	assert.False(t, res.Fallback)

	res = r.Resolve("Atlantis")
	assert.Equal(t, DefaultRegion, res.TimezoneID)
	assert.True(t, res.Fallback)
}

func TestResolver_WithCitiesOverrides(t *testing.T) {
	r := newResolver(t, WithCities(map[string]string{"Lisboa": "Europe/Lisbon", "madrid": "Europe/Lisbon"}))

	assert.Equal(t, "Europe/Lisbon", r.Resolve("Lisboa").TimezoneID)
	assert.Equal(t, "Europe/Lisbon", r.Resolve("Madrid").TimezoneID)
}

func TestNewResolver_UnknownZone(t *testing.T) {
	_, err := NewResolver("Mars/Olympus")
	assert.Error(t, err)

	_, err = NewResolver("", WithCities(map[string]string{"Atlantis": "Ocean/Atlantis"}))
	assert.Error(t, err)
}

func TestResolver_CityLocation(t *testing.T) {
	r := newResolver(t)

	loc, res, err := r.CityLocation(domain.City{Name: "Madrid", Timezone: "Europe/Madrid"})
	require.NoError(t, err)
	assert.Equal(t, "Europe/Madrid", loc.String())
	assert.False(t, res.Fallback)

	_, res, err = r.CityLocation(domain.City{Name: "Medellín"})
	require.NoError(t, err)
	assert.Equal(t, "America/Bogota", res.TimezoneID)

	_, _, err = r.CityLocation(domain.City{Name: "X", Timezone: "Nowhere/Zone"})
	assert.ErrorIs(t, err, domain.ErrDataGap)
}

// Bogotá 10:00 local plus 600 minutes lands at 02:00 the next day in Madrid (CET, +01:00).
func TestResolver_BogotaMadridArrival(t *testing.T) {
	r := newResolver(t)

	bogota, _, err := r.Location("Bogotá")
	require.NoError(t, err)
	departure := time.Date(2025, 3, 10, 10, 0, 0, 0, bogota)

	arrival, err := durations.Default().EstimateArrival(departure, "Bogotá", "Madrid")
	require.NoError(t, err)

	local, err := r.RenderLocal(arrival, "Europe/Madrid")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-11", local.Date)
	assert.Equal(t, "02:00", local.Time)
	assert.Equal(t, "+01:00", local.Offset)

	diff, err := r.OffsetDifference("America/Bogota", "Europe/Madrid", arrival)
	require.NoError(t, err)
	assert.Equal(t, 360, diff)
}

func TestResolver_OffsetDifference_DST(t *testing.T) {
	r := newResolver(t)

	winter := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	summer := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

	d, err := r.OffsetDifference("America/Bogota", "Europe/Madrid", winter)
	require.NoError(t, err)
	assert.Equal(t, 360, d)

	d, err = r.OffsetDifference("America/Bogota", "Europe/Madrid", summer)
	require.NoError(t, err)
	assert.Equal(t, 420, d)

	d, err = r.OffsetDifference("Europe/Madrid", "America/Bogota", summer)
	require.NoError(t, err)
	assert.Equal(t, -420, d)
}

func TestResolver_RenderLocal_UnknownZone(t *testing.T) {
	r := newResolver(t)
	_, err := r.RenderLocal(time.Now(), "Bad/Zone")
	assert.ErrorIs(t, err, domain.ErrDataGap)
}
