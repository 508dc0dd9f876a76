package config

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OuyangWenyu/et-demands/internal/domain"
)

const (
	defaultBroker = "localhost:9092"
	testTables    = "testdata/tables.yaml"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TABLES_PATH", testTables)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, testTables, cfg.TablesPath)
	assert.Equal(t, ".", cfg.ClimateDir)
	assert.Equal(t, "%s.csv", cfg.ClimateNameFormat)
	assert.Equal(t, 16, cfg.ClimateCacheSize)
	assert.Equal(t, "c", cfg.TemperatureUnits)
	assert.Equal(t, 2.0, cfg.WindHeight)
	assert.True(t, cfg.StartDate.IsZero())
	assert.True(t, cfg.EndDate.IsZero())
	assert.Equal(t, domain.RefETGrass, cfg.RefET)
	assert.True(t, cfg.GSLimit)
	assert.True(t, cfg.CropOneFlag)
	assert.True(t, cfg.KcbClimateAdjust)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Empty(t, cfg.SQLitePath)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "crop-et-daily", cfg.KafkaSinkTopic)
	assert.Equal(t, "json", cfg.KafkaEncoding)
	assert.Empty(t, cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("TABLES_PATH", testTables)
	t.Setenv("CLIMATE_DIR", "/data/climate")
	t.Setenv("CLIMATE_NAME_FORMAT", "%s_daily.csv")
	t.Setenv("TEMPERATURE_UNITS", "F")
	t.Setenv("WIND_HEIGHT", "10")
	t.Setenv("START_DATE", "2001-01-01")
	t.Setenv("END_DATE", "2010-12-31")
	t.Setenv("REFET_TYPE", "ETr")
	t.Setenv("GS_LIMIT", "false")
	t.Setenv("CROP_ONE_FLAG", "0")
	t.Setenv("KCB_CLIMATE_ADJUST", "false")
	t.Setenv("WORKERS", "3")
	t.Setenv("SQLITE_PATH", "/tmp/et.db")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_ENCODING", "msgpack")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/climate", cfg.ClimateDir)
	assert.Equal(t, "%s_daily.csv", cfg.ClimateNameFormat)
	assert.Equal(t, "f", cfg.TemperatureUnits)
	assert.Equal(t, 10.0, cfg.WindHeight)
	assert.Equal(t, time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC), cfg.StartDate)
	assert.Equal(t, time.Date(2010, 12, 31, 0, 0, 0, 0, time.UTC), cfg.EndDate)
	assert.Equal(t, domain.RefETAlfalfa, cfg.RefET)
	assert.False(t, cfg.GSLimit)
	assert.False(t, cfg.CropOneFlag)
	assert.False(t, cfg.KcbClimateAdjust)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "/tmp/et.db", cfg.SQLitePath)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "msgpack", cfg.KafkaEncoding)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)

	opts := cfg.Options()
	assert.Equal(t, domain.Options{RefET: domain.RefETAlfalfa}, opts)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing tables", map[string]string{"TABLES_PATH": ""}, "TABLES_PATH"},
		{"bad shutdown timeout", map[string]string{"SHUTDOWN_TIMEOUT": "not-a-duration"}, "SHUTDOWN_TIMEOUT"},
		{"bad reference type", map[string]string{"REFET_TYPE": "pet"}, "REFET_TYPE"},
		{"bad wind height", map[string]string{"WIND_HEIGHT": "0"}, "WIND_HEIGHT"},
		{"bad temperature units", map[string]string{"TEMPERATURE_UNITS": "r"}, "TEMPERATURE_UNITS"},
		{"bad start date", map[string]string{"START_DATE": "01/02/2003"}, "START_DATE"},
		{"end before start", map[string]string{"START_DATE": "2005-01-01", "END_DATE": "2004-01-01"}, "END_DATE"},
		{"bad bool", map[string]string{"GS_LIMIT": "sometimes"}, "GS_LIMIT"},
		{"bad workers", map[string]string{"WORKERS": "-2"}, "WORKERS"},
		{"bad cache size", map[string]string{"CLIMATE_CACHE_SIZE": "0"}, "CLIMATE_CACHE_SIZE"},
		{"bad encoding", map[string]string{"KAFKA_ENCODING": "avro"}, "KAFKA_ENCODING"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TABLES_PATH", testTables)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
