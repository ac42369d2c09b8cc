package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/parcel-geo/internal/county"
)

// County source kinds.
const (
	SourceSynthetic = "synthetic"
	SourceRemote    = "remote"
	SourceShapefile = "shapefile"
	SourcePostGIS   = "postgis"
)

// Config holds the full application configuration.
type Config struct {
	Parcel ParcelConfig `yaml:"parcel" mapstructure:"parcel"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// ParcelConfig configures parcel providers and polygon resolution.
type ParcelConfig struct {
	State       string          `yaml:"state" mapstructure:"state"`
	TimeoutSecs int             `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64         `yaml:"rate_limit" mapstructure:"rate_limit"`
	DatabaseURL string          `yaml:"database_url" mapstructure:"database_url"`
	Synthetic   SyntheticConfig `yaml:"synthetic" mapstructure:"synthetic"`
	Polygon     PolygonConfig   `yaml:"polygon" mapstructure:"polygon"`
	Counties    []CountyConfig  `yaml:"counties" mapstructure:"counties"`
}

// Timeout returns the per-request timeout as a duration.
func (p ParcelConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSecs) * time.Second
}

// SyntheticConfig configures the synthetic grid provider.
type SyntheticConfig struct {
	GridSteps int `yaml:"grid_steps" mapstructure:"grid_steps"`
}

// PolygonConfig configures batch polygon resolution.
type PolygonConfig struct {
	LayerURL        string `yaml:"layer_url" mapstructure:"layer_url"`
	DefaultLayerURL string `yaml:"default_layer_url" mapstructure:"default_layer_url"`
	IDField         string `yaml:"id_field" mapstructure:"id_field"`
	BatchSize       int    `yaml:"batch_size" mapstructure:"batch_size"`
	Concurrency     int    `yaml:"concurrency" mapstructure:"concurrency"`
	MaxRecords      int    `yaml:"max_records" mapstructure:"max_records"`
}

// CountyConfig binds a county to a provider source. An empty source means
// synthetic.
type CountyConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Source  string `yaml:"source" mapstructure:"source"`
	URL     string `yaml:"url" mapstructure:"url"`
	IDField string `yaml:"id_field" mapstructure:"id_field"`
	Path    string `yaml:"path" mapstructure:"path"`
	Table   string `yaml:"table" mapstructure:"table"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks that the configuration is usable. Every problem is
// reported in a single error.
func (c *Config) Validate() error {
	var errs []string

	p := c.Parcel
	if p.Polygon.BatchSize < 1 {
		errs = append(errs, "parcel.polygon.batch_size must be >= 1")
	}
	if p.Polygon.Concurrency < 1 || p.Polygon.Concurrency > 32 {
		errs = append(errs, "parcel.polygon.concurrency must be between 1 and 32")
	}
	if p.Polygon.MaxRecords < 1 {
		errs = append(errs, "parcel.polygon.max_records must be >= 1")
	}
	if p.Synthetic.GridSteps < 1 {
		errs = append(errs, "parcel.synthetic.grid_steps must be >= 1")
	}
	if p.TimeoutSecs < 1 {
		errs = append(errs, "parcel.timeout_secs must be >= 1")
	}
	if p.RateLimit < 0 {
		errs = append(errs, "parcel.rate_limit must be >= 0")
	}

	seen := make(map[string]bool, len(p.Counties))
	for i, cc := range p.Counties {
		name := strings.TrimSpace(cc.Name)
		if name == "" {
			errs = append(errs, "parcel.counties["+strconv.Itoa(i)+"].name is required")
			continue
		}
		key := county.Fold(name)
		if seen[key] {
			errs = append(errs, "parcel.counties: duplicate county "+name)
		}
		seen[key] = true

		switch cc.Source {
		case SourceSynthetic, "":
		case SourceRemote:
			if cc.URL == "" {
				errs = append(errs, "parcel.counties["+name+"].url is required for remote source")
			}
		case SourceShapefile:
			if cc.Path == "" {
				errs = append(errs, "parcel.counties["+name+"].path is required for shapefile source")
			}
		case SourcePostGIS:
			if p.DatabaseURL == "" {
				errs = append(errs, "parcel.database_url is required for postgis source")
			}
		default:
			errs = append(errs, "parcel.counties["+name+"].source must be one of synthetic, remote, shapefile, postgis")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	// .env is optional; values already in the environment win.
	_ = godotenv.Load(".env")

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PARCELGEO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("parcel.state", "FL")
	v.SetDefault("parcel.timeout_secs", 30)
	v.SetDefault("parcel.rate_limit", 10)
	v.SetDefault("parcel.database_url", "")
	v.SetDefault("parcel.synthetic.grid_steps", 5)
	v.SetDefault("parcel.polygon.layer_url", "")
	v.SetDefault("parcel.polygon.default_layer_url", "")
	v.SetDefault("parcel.polygon.id_field", "PARCEL_ID")
	v.SetDefault("parcel.polygon.batch_size", 25)
	v.SetDefault("parcel.polygon.concurrency", 4)
	v.SetDefault("parcel.polygon.max_records", 2000)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
