package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/OuyangWenyu/et-demands/internal/domain"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	TablesPath        string
	ClimateDir        string
	ClimateNameFormat string
	ClimateCacheSize  int
	TemperatureUnits  string
	WindHeight        float64
	StartDate         time.Time
	EndDate           time.Time

	RefET            domain.RefETType
	GSLimit          bool
	CropOneFlag      bool
	KcbClimateAdjust bool
	Workers          int

	SQLitePath     string
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
	KafkaEncoding  string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory seeds variables that are not
// already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	refET, err := domain.ParseRefETType(sharedcfg.EnvOrDefault("REFET_TYPE", "eto"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFET_TYPE: %w", err)
	}

	windHeight, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("WIND_HEIGHT", "2"), 64)
	if err != nil || windHeight <= 0.08 {
		return nil, errors.New("invalid WIND_HEIGHT")
	}

	start, err := parseDate("START_DATE")
	if err != nil {
		return nil, err
	}
	end, err := parseDate("END_DATE")
	if err != nil {
		return nil, err
	}

	gsLimit, err := parseBool("GS_LIMIT", true)
	if err != nil {
		return nil, err
	}
	cropOne, err := parseBool("CROP_ONE_FLAG", true)
	if err != nil {
		return nil, err
	}
	adjust, err := parseBool("KCB_CLIMATE_ADJUST", true)
	if err != nil {
		return nil, err
	}
	kafkaEnabled, err := parseBool("KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cacheSize, err := strconv.Atoi(sharedcfg.EnvOrDefault("CLIMATE_CACHE_SIZE", "16"))
	if err != nil || cacheSize <= 0 {
		return nil, errors.New("invalid CLIMATE_CACHE_SIZE")
	}

	workers := runtime.NumCPU()
	if s := os.Getenv("WORKERS"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return nil, errors.New("invalid WORKERS")
		}
		workers = n
	}

	cfg := &Config{
		TablesPath:        os.Getenv("TABLES_PATH"),
		ClimateDir:        sharedcfg.EnvOrDefault("CLIMATE_DIR", "."),
		ClimateNameFormat: sharedcfg.EnvOrDefault("CLIMATE_NAME_FORMAT", "%s.csv"),
		ClimateCacheSize:  cacheSize,
		TemperatureUnits:  strings.ToLower(sharedcfg.EnvOrDefault("TEMPERATURE_UNITS", "c")),
		WindHeight:        windHeight,
		StartDate:         start,
		EndDate:           end,

		RefET:            refET,
		GSLimit:          gsLimit,
		CropOneFlag:      cropOne,
		KcbClimateAdjust: adjust,
		Workers:          workers,

		SQLitePath:     os.Getenv("SQLITE_PATH"),
		KafkaEnabled:   kafkaEnabled,
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "crop-et-daily"),
		KafkaEncoding:  strings.ToLower(sharedcfg.EnvOrDefault("KAFKA_ENCODING", "json")),

		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.TablesPath == "" {
		return nil, errors.New("TABLES_PATH is required")
	}
	switch cfg.TemperatureUnits {
	case "c", "k", "f":
	default:
		return nil, errors.New("TEMPERATURE_UNITS must be c, k or f")
	}
	if !cfg.StartDate.IsZero() && !cfg.EndDate.IsZero() && cfg.EndDate.Before(cfg.StartDate) {
		return nil, errors.New("END_DATE is before START_DATE")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_ENABLED is true")
		}
	}
	if cfg.KafkaEncoding != "json" && cfg.KafkaEncoding != "msgpack" {
		return nil, errors.New("KAFKA_ENCODING must be json or msgpack")
	}

	return cfg, nil
}

// Options returns the simulation switches shared by every cell.
func (c *Config) Options() domain.Options {
	return domain.Options{
		RefET:               c.RefET,
		LimitSeasonStart:    c.GSLimit,
		AdjustKcbForClimate: c.KcbClimateAdjust,
	}
}

func parseDate(key string) (time.Time, error) {
	s := os.Getenv(key)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return t, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return b, nil
}
