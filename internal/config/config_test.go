package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "FL", cfg.Parcel.State)
	assert.Equal(t, 30, cfg.Parcel.TimeoutSecs)
	assert.Equal(t, 30*time.Second, cfg.Parcel.Timeout())
	assert.InDelta(t, 10.0, cfg.Parcel.RateLimit, 0.001)
	assert.Equal(t, 5, cfg.Parcel.Synthetic.GridSteps)
	assert.Empty(t, cfg.Parcel.Polygon.LayerURL)
	assert.Empty(t, cfg.Parcel.Polygon.DefaultLayerURL)
	assert.Equal(t, "PARCEL_ID", cfg.Parcel.Polygon.IDField)
	assert.Equal(t, 25, cfg.Parcel.Polygon.BatchSize)
	assert.Equal(t, 4, cfg.Parcel.Polygon.Concurrency)
	assert.Equal(t, 2000, cfg.Parcel.Polygon.MaxRecords)
	assert.Empty(t, cfg.Parcel.Counties)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
parcel:
  state: GA
  polygon:
    layer_url: https://gis.example.com/arcgis/rest/services/Parcels/MapServer/0
    batch_size: 10
  counties:
    - name: Orange
      source: synthetic
    - name: Fulton
      source: remote
      url: https://gis.example.com/arcgis/rest/services/Fulton/MapServer/0
      id_field: PIN
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "GA", cfg.Parcel.State)
	assert.Equal(t, "https://gis.example.com/arcgis/rest/services/Parcels/MapServer/0", cfg.Parcel.Polygon.LayerURL)
	assert.Equal(t, 10, cfg.Parcel.Polygon.BatchSize)
	// Defaults still apply for unset values
	assert.Equal(t, 4, cfg.Parcel.Polygon.Concurrency)

	require.Len(t, cfg.Parcel.Counties, 2)
	assert.Equal(t, "Orange", cfg.Parcel.Counties[0].Name)
	assert.Equal(t, SourceSynthetic, cfg.Parcel.Counties[0].Source)
	assert.Equal(t, SourceRemote, cfg.Parcel.Counties[1].Source)
	assert.Equal(t, "PIN", cfg.Parcel.Counties[1].IDField)

	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
parcel:
  polygon:
    batch_size: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("PARCELGEO_LOG_LEVEL", "warn")
	t.Setenv("PARCELGEO_PARCEL_POLYGON_BATCH_SIZE", "50")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 50, cfg.Parcel.Polygon.BatchSize)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PARCELGEO_PARCEL_STATE=TX\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("PARCELGEO_PARCEL_STATE") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "TX", cfg.Parcel.State)
}

func TestLoadMalformedYAML(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("parcel: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Parcel.State = "FL"
	cfg.Parcel.TimeoutSecs = 30
	cfg.Parcel.RateLimit = 10
	cfg.Parcel.Synthetic.GridSteps = 5
	cfg.Parcel.Polygon.IDField = "PARCEL_ID"
	cfg.Parcel.Polygon.BatchSize = 25
	cfg.Parcel.Polygon.Concurrency = 4
	cfg.Parcel.Polygon.MaxRecords = 2000
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate())
}

func TestValidate_BatchBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Parcel.Polygon.BatchSize = 0
	cfg.Parcel.Polygon.Concurrency = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch_size must be >= 1")
	assert.Contains(t, err.Error(), "concurrency must be between 1 and 32")

	cfg.Parcel.Polygon.BatchSize = 1
	cfg.Parcel.Polygon.Concurrency = 33
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency must be between 1 and 32")

	cfg.Parcel.Polygon.Concurrency = 32
	assert.NoError(t, cfg.Validate())
}

func TestValidate_GridAndTimeout(t *testing.T) {
	cfg := validDefaults()
	cfg.Parcel.Synthetic.GridSteps = 0
	cfg.Parcel.TimeoutSecs = 0
	cfg.Parcel.RateLimit = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grid_steps must be >= 1")
	assert.Contains(t, err.Error(), "timeout_secs must be >= 1")
	assert.Contains(t, err.Error(), "rate_limit must be >= 0")
}

func TestValidate_CountySources(t *testing.T) {
	cfg := validDefaults()
	cfg.Parcel.Counties = []CountyConfig{
		{Name: "Orange", Source: SourceSynthetic},
		{Name: "Fulton", Source: SourceRemote},
		{Name: "Travis", Source: SourceShapefile},
		{Name: "Cook", Source: SourcePostGIS},
		{Name: "Kings", Source: "csv"},
		{Name: " ", Source: SourceSynthetic},
		{Name: "orange", Source: SourceSynthetic},
	}

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "parcel.counties[Fulton].url is required")
	assert.Contains(t, msg, "parcel.counties[Travis].path is required")
	assert.Contains(t, msg, "parcel.database_url is required")
	assert.Contains(t, msg, "parcel.counties[Kings].source must be one of")
	assert.Contains(t, msg, "parcel.counties[5].name is required")
	assert.Contains(t, msg, "duplicate county orange")
}

func TestValidate_CountySourcesValid(t *testing.T) {
	cfg := validDefaults()
	cfg.Parcel.DatabaseURL = "postgres://localhost/parcels"
	cfg.Parcel.Counties = []CountyConfig{
		{Name: "Orange", Source: SourceSynthetic},
		{Name: "Fulton", Source: SourceRemote, URL: "https://gis.example.com/0"},
		{Name: "Travis", Source: SourceShapefile, Path: "/data/travis.shp"},
		{Name: "Cook", Source: SourcePostGIS, Table: "parcels"},
	}

	assert.NoError(t, cfg.Validate())
}

func TestValidate_CountyNamesFoldLikeRegistry(t *testing.T) {
	cfg := validDefaults()
	cfg.Parcel.Counties = []CountyConfig{
		{Name: "Doña Ana", Source: SourceSynthetic},
		{Name: "dona  ana", Source: SourceSynthetic},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate county dona  ana")
}

func TestValidate_EmptySourceIsSynthetic(t *testing.T) {
	cfg := validDefaults()
	cfg.Parcel.Counties = []CountyConfig{{Name: "Orange"}}

	assert.NoError(t, cfg.Validate())
}
