package config

import (
	"os"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	Reset()
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Realtime.IntervalMin != 15 {
		t.Errorf("Expected default realtime interval 15, got %d", cfg.Realtime.IntervalMin)
	}
	if cfg.Columns.Themes != 7 {
		t.Errorf("Expected default V2Themes column index 7, got %d", cfg.Columns.Themes)
	}
}

func TestLoadBindsEnvironmentVariables(t *testing.T) {
	Reset()
	t.Setenv("MONGO_URI", "mongodb://custom-host:27017")
	t.Setenv("REALTIME_INTERVAL_MIN", "30")
	t.Setenv("V2LOCATIONS_INDEX", "99")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Mongo.URI != "mongodb://custom-host:27017" {
		t.Errorf("Expected MONGO_URI to override default, got %q", cfg.Mongo.URI)
	}
	if cfg.Realtime.IntervalMin != 30 {
		t.Errorf("Expected REALTIME_INTERVAL_MIN to override default, got %d", cfg.Realtime.IntervalMin)
	}
	if cfg.Columns.Locations != 99 {
		t.Errorf("Expected V2LOCATIONS_INDEX to override default, got %d", cfg.Columns.Locations)
	}
}

func TestValidateConfigRejectsOutOfRangeDailyHour(t *testing.T) {
	cfg := &Config{
		Mongo:    Mongo{URI: "mongodb://localhost:27017"},
		Realtime: Realtime{IntervalMin: 15},
		Daily:    Daily{HourUTC: 25},
	}
	if err := validateConfig(cfg); err == nil {
		t.Error("Expected an error for daily.hour_utc out of [0,23], got nil")
	}
}

func TestValidateConfigRequiresMongoURI(t *testing.T) {
	cfg := &Config{Realtime: Realtime{IntervalMin: 15}, Daily: Daily{HourUTC: 0}}
	if err := validateConfig(cfg); err == nil {
		t.Error("Expected an error for a missing Mongo URI, got nil")
	}
}

func TestGetLoadsOnFirstUse(t *testing.T) {
	Reset()
	os.Setenv("MONGO_URI", "mongodb://localhost:27017")
	defer os.Unsetenv("MONGO_URI")

	cfg := Get()
	if cfg == nil {
		t.Fatal("Expected Get to return a non-nil config")
	}
}
