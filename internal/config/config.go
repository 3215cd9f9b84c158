// Package config loads application configuration from a YAML file,
// environment variables, and built-in defaults, via viper.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App      App      `mapstructure:"app"`
	Server   Server   `mapstructure:"server"`
	Mongo    Mongo    `mapstructure:"mongo"`
	Redis    Redis    `mapstructure:"redis"`
	GDELT    GDELT    `mapstructure:"gdelt"`
	Realtime Realtime `mapstructure:"realtime"`
	Daily    Daily    `mapstructure:"daily"`
	Columns  Columns  `mapstructure:"columns"`
	TopN     int      `mapstructure:"top_n"`
}

// App holds general application configuration.
type App struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// Server holds HTTP server configuration.
type Server struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Mongo holds the trend document store connection.
type Mongo struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// Redis holds the trend cache connection.
type Redis struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GDELT holds the GKG archive endpoint roots.
type GDELT struct {
	BaseURL      string `mapstructure:"base_url"`
	DailyBaseURL string `mapstructure:"daily_base_url"`
}

// Realtime holds realtime job cadence configuration.
type Realtime struct {
	IntervalMin int `mapstructure:"interval_min"`
}

// Daily holds daily rollup job cadence configuration.
type Daily struct {
	HourUTC int `mapstructure:"hour_utc"`
}

// Columns holds the GKG column-index settings read from configuration
// (defaulting to the canonical v2 positions). No component reads these
// values: the fetcher hands every archive to the collector with an empty
// gkg.Columns, so the layout always comes from a detected header row or
// from gkg.DefaultColumns, and these settings do not affect parsing.
type Columns struct {
	Themes             int `mapstructure:"v2themes_index"`
	Persons            int `mapstructure:"v2persons_index"`
	Orgs               int `mapstructure:"v2organizations_index"`
	Locations          int `mapstructure:"v2locations_index"`
	Tone               int `mapstructure:"v2tone_index"`
	DocumentIdentifier int `mapstructure:"documentidentifier_index"`
	DateAdded          int `mapstructure:"dateadded_index"`
}

var globalConfig *Config

// Load reads configuration from (in increasing precedence) built-in
// defaults, an optional YAML config file, and environment variables.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("warning: error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".gdelttrends")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it with defaults if
// Load has not yet been called.
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// Reset clears the cached global configuration; used by tests.
func Reset() {
	globalConfig = nil
}

func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.log_level", "info")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.shutdown_timeout", "10s")

	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "gdelttrends")

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("gdelt.base_url", "http://data.gdeltproject.org/gdeltv2")
	viper.SetDefault("gdelt.daily_base_url", "http://data.gdeltproject.org/gkg")

	viper.SetDefault("realtime.interval_min", 15)
	viper.SetDefault("daily.hour_utc", 0)
	viper.SetDefault("top_n", 50)

	viper.SetDefault("columns.v2themes_index", 7)
	viper.SetDefault("columns.v2persons_index", 9)
	viper.SetDefault("columns.v2organizations_index", 10)
	viper.SetDefault("columns.v2locations_index", 8)
	viper.SetDefault("columns.v2tone_index", 15)
	viper.SetDefault("columns.documentidentifier_index", 4)
	viper.SetDefault("columns.dateadded_index", 1)
}

// bindEnvironmentVariables maps the spec's flat environment variable names
// onto viper's dotted config keys.
func bindEnvironmentVariables() {
	bindEnvKeys("mongo.uri", []string{"MONGO_URI"})
	bindEnvKeys("redis.host", []string{"REDIS_HOST"})
	bindEnvKeys("redis.port", []string{"REDIS_PORT"})
	bindEnvKeys("redis.password", []string{"REDIS_PASSWORD"})
	bindEnvKeys("gdelt.base_url", []string{"GDELT_BASE_URL"})
	bindEnvKeys("gdelt.daily_base_url", []string{"GDELT_DAILY_BASE_URL"})
	bindEnvKeys("realtime.interval_min", []string{"REALTIME_INTERVAL_MIN"})
	bindEnvKeys("daily.hour_utc", []string{"DAILY_HOUR_UTC"})
	bindEnvKeys("top_n", []string{"TOP_N"})
	bindEnvKeys("server.port", []string{"PORT"})
	bindEnvKeys("columns.v2themes_index", []string{"V2THEMES_INDEX"})
	bindEnvKeys("columns.v2persons_index", []string{"V2PERSONS_INDEX"})
	bindEnvKeys("columns.v2organizations_index", []string{"V2ORGS_INDEX"})
	bindEnvKeys("columns.v2locations_index", []string{"V2LOCATIONS_INDEX"})
	bindEnvKeys("columns.v2tone_index", []string{"V2TONE_INDEX"})
	bindEnvKeys("columns.dateadded_index", []string{"DATEADDED_INDEX"})
}

// bindEnvKeys binds the first found environment variable to a viper key.
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

func validateConfig(config *Config) error {
	var errors []string

	if config.Mongo.URI == "" {
		errors = append(errors, "Mongo URI is required. Set MONGO_URI environment variable or mongo.uri in config file.")
	}
	if config.Realtime.IntervalMin <= 0 {
		errors = append(errors, "realtime.interval_min must be positive")
	}
	if config.Daily.HourUTC < 0 || config.Daily.HourUTC > 23 {
		errors = append(errors, "daily.hour_utc must be in [0,23]")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
