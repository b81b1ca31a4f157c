package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(body), 0o600))
	return dir
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "data", cfg.Storage.CacheKey)
	require.Equal(t, "prefs", cfg.Storage.PrefsKey)
	require.Equal(t, 30*time.Second, cfg.Refresh.Default)
	require.Empty(t, cfg.Kafka.Brokers)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := writeConfig(t, `
port: "9090"
device:
  address: 10.0.0.7
  timeout: 3s
kafka:
  brokers: ["k1:9092"]
`)
	t.Setenv("HEATCTL_DB_PATH", "/tmp/x.db")
	t.Setenv("HEATCTL_KAFKA_BROKERS", "a:9092, b:9092")

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "10.0.0.7", cfg.Device.Address)
	require.Equal(t, 3*time.Second, cfg.Device.Timeout)
	require.Equal(t, "/tmp/x.db", cfg.DBPath)
	require.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_InvalidRefresh(t *testing.T) {
	dir := writeConfig(t, `
refresh:
  min: 1m
  default: 30s
  max: 10m
`)
	_, err := Load(dir)
	require.Error(t, err)
}

func TestLoad_BrokenYAML(t *testing.T) {
	dir := writeConfig(t, "port: [unclosed")
	_, err := Load(dir)
	require.Error(t, err)
}

func TestValidate_SameKeys(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	cfg.Storage.PrefsKey = cfg.Storage.CacheKey
	require.Error(t, cfg.Validate())
}
