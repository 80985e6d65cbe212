package athlete

import (
	"os"
	"path/filepath"
	"testing"
	_ "time/tzdata"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/trainload"
)

func TestDefaultIsValid(t *testing.T) {
	p := Default()
	require.NoError(t, p.Validate())

	cfg, err := p.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, trainload.DefaultConfig(), cfg)

	opts, err := p.AdherenceOptions()
	require.NoError(t, err)
	assert.Equal(t, trainload.TieLast, opts.Ties)

	require.Len(t, p.Zones, 6)
	assert.Equal(t, "Sweet Spot", p.Zones[3].Name)
	assert.Equal(t, "Active Recovery", p.Zones[0].Name)
	colors := make([]string, 0, len(p.Zones))
	for _, z := range p.Zones {
		colors = append(colors, z.Color)
	}
	assert.Equal(t, []string{"#4a9eff", "#00c896", "#f5c400", "#ff7a00", "#ff3b3b", "#cc00ff"}, colors)
	assert.Equal(t, 216.0, p.Zones[3].MinWatts)
}

func TestLoadExampleConfig(t *testing.T) {
	p, err := Load(filepath.Join("..", "configs", "athlete.toml"))
	require.NoError(t, err)

	assert.Equal(t, "example", p.Name)
	loc, err := p.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Madrid", loc.String())

	require.Len(t, p.Zones, 6)
	require.Len(t, p.Timeline.Races, 1)
	assert.Equal(t, civil.Date{Year: 2026, Month: 3, Day: 14}, p.Timeline.Races[0].Date)

	policy := p.Policy()
	load, phase := policy.LoadOn(civil.Date{Year: 2026, Month: 2, Day: 22})
	assert.Equal(t, 150.0, load)
	assert.Equal(t, "Training camp", phase)
	load, _ = policy.LoadOn(civil.Date{Year: 2026, Month: 3, Day: 1})
	assert.Equal(t, 60.0, load)
}

func TestParseKeepsDefaultsForMissingKeys(t *testing.T) {
	p, err := Parse(`
name = "sparse"

[pmc]
gaps = "zero_fill"
`)
	require.NoError(t, err)
	assert.Equal(t, "sparse", p.Name)
	assert.Equal(t, 42.0, p.PMC.FitnessDays)
	assert.Equal(t, 7.0, p.PMC.FatigueDays)
	assert.Equal(t, trainload.DefaultFormThresholds(), p.Form)
	assert.Len(t, p.Zones, 6, "default zone table")

	cfg, err := p.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, trainload.GapZeroFill, cfg.Gaps)
}

func TestParseDerivesZonesFromFTP(t *testing.T) {
	p, err := Parse(`ftp = 300`)
	require.NoError(t, err)
	require.Len(t, p.Zones, 7)
	assert.Equal(t, 165.0, p.Zones[0].MaxWatts)
	assert.Equal(t, 165.0, p.Zones[1].MinWatts)
	assert.Equal(t, 315.0, p.Zones[3].MaxWatts)
}

func TestParseReplacesZoneTable(t *testing.T) {
	p, err := Parse(`
[[zones]]
id = "easy"
min = 0
max = 200

[[zones]]
id = "hard"
min = 200
max = 2000
`)
	require.NoError(t, err)
	require.Len(t, p.Zones, 2)
	assert.Equal(t, "easy", p.Zones[0].ID)
	assert.Empty(t, p.Zones[0].Color)
}

func TestParseRejectsInvalidProfiles(t *testing.T) {
	tests := map[string]string{
		"unknown key":    `colour = "red"`,
		"bad gaps":       "[pmc]\ngaps = \"interpolate\"",
		"bad ties":       "[adherence]\nties = \"first\"",
		"bad window":     "[pmc]\nfitness_days = 0",
		"bad timezone":   `timezone = "Mars/Olympus"`,
		"unsorted bands": "[form]\nfresh = 30",
		"overlap": `
[[zones]]
id = "a"
min = 0
max = 200
[[zones]]
id = "b"
min = 150
max = 300`,
		"bad phase": `
[[timeline.phases]]
name = "camp"
start = "2026-02-20"
end = "2026-02-10"
load = 100`,
		"bad target": "[timeline.target_form]\nmin = 10\nmax = 5",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidProfile)
		})
	}
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse(`name = `)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidProfile)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestZonesFromFTP(t *testing.T) {
	assert.Nil(t, ZonesFromFTP(0))
	zones := ZonesFromFTP(250)
	require.Len(t, zones, 7)
	for i := 1; i < len(zones); i++ {
		assert.Equal(t, zones[i-1].MaxWatts, zones[i].MinWatts)
	}
	assert.NoError(t, validateZones(zones))
}
