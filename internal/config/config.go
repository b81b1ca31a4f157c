// Package config loads process settings from configs/config.yml and HEATCTL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "HEATCTL"

type Config struct {
	Port     string
	LogLevel string
	DBPath   string
	Device   DeviceConfig
	Refresh  RefreshConfig
	Storage  StorageConfig
	Kafka    KafkaConfig
}

type DeviceConfig struct {
	Address string
	Timeout time.Duration
}

// RefreshConfig bounds the poll interval derived from the device scan period.
type RefreshConfig struct {
	Min     time.Duration
	Default time.Duration
	Max     time.Duration
}

// StorageConfig names the KV keys the cache and chart preferences live under.
type StorageConfig struct {
	CacheKey string
	PrefsKey string
}

type KafkaConfig struct {
	Brokers      []string
	ReadingTopic string
	EventTopic   string
	DeviceID     string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("device.address", "192.168.4.1")
	v.SetDefault("device.timeout", "10s")
	v.SetDefault("refresh.min", "5s")
	v.SetDefault("refresh.default", "30s")
	v.SetDefault("refresh.max", "10m")
	v.SetDefault("storage.cache_key", "data")
	v.SetDefault("storage.prefs_key", "prefs")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.reading_topic", "heatctl.readings")
	v.SetDefault("kafka.event_topic", "heatctl.relay")
	v.SetDefault("kafka.device_id", "heatctl")
}

// Load reads config.yml from the given search paths (configs/ when none are given).
// A missing file is not an error; defaults and environment still apply.
func Load(paths ...string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	if len(paths) == 0 {
		paths = []string{"configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:     v.GetString("port"),
		LogLevel: v.GetString("log.level"),
		DBPath:   v.GetString("db.path"),
		Device: DeviceConfig{
			Address: v.GetString("device.address"),
			Timeout: v.GetDuration("device.timeout"),
		},
		Refresh: RefreshConfig{
			Min:     v.GetDuration("refresh.min"),
			Default: v.GetDuration("refresh.default"),
			Max:     v.GetDuration("refresh.max"),
		},
		Storage: StorageConfig{
			CacheKey: v.GetString("storage.cache_key"),
			PrefsKey: v.GetString("storage.prefs_key"),
		},
		Kafka: KafkaConfig{
			Brokers:      splitList(v.GetStringSlice("kafka.brokers")),
			ReadingTopic: v.GetString("kafka.reading_topic"),
			EventTopic:   v.GetString("kafka.event_topic"),
			DeviceID:     v.GetString("kafka.device_id"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the poller or storage cannot work with.
func (c Config) Validate() error {
	if c.Device.Address == "" {
		return errors.New("device.address is required")
	}
	if c.Refresh.Min <= 0 || c.Refresh.Max < c.Refresh.Min {
		return fmt.Errorf("refresh bounds invalid: min=%s max=%s", c.Refresh.Min, c.Refresh.Max)
	}
	if c.Refresh.Default < c.Refresh.Min || c.Refresh.Default > c.Refresh.Max {
		return fmt.Errorf("refresh.default %s outside [%s, %s]", c.Refresh.Default, c.Refresh.Min, c.Refresh.Max)
	}
	if c.Storage.CacheKey == "" || c.Storage.PrefsKey == "" || c.Storage.CacheKey == c.Storage.PrefsKey {
		return errors.New("storage keys must be set and distinct")
	}
	return nil
}

// splitList accepts both YAML lists and a comma-separated env value.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
