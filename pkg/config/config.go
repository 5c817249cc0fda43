package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Log       LogConfig       `koanf:"log"`
	Store     StoreConfig     `koanf:"store"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Server    ServerConfig    `koanf:"server"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type StoreConfig struct {
	Driver string `koanf:"driver"` // sqlite, memory
	DSN    string `koanf:"dsn"`
}

type TelemetryConfig struct {
	Exporter     string  `koanf:"exporter"` // stdout, otlp
	OTLPEndpoint string  `koanf:"otlp_endpoint"`
	OTLPInsecure bool    `koanf:"otlp_insecure"`
	Environment  string  `koanf:"environment"`
	SampleRatio  float64 `koanf:"sample_ratio"` // 0 or 1 samples everything
}

type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// Global k instance
var k = koanf.New(".")

func Load(path string) (*Config, error) {
	// Defaults
	k.Set("log.level", "info")
	k.Set("log.format", "text")

	k.Set("store.driver", "sqlite")
	k.Set("store.dsn", "cabildo.db")

	k.Set("telemetry.exporter", "stdout")
	k.Set("telemetry.otlp_endpoint", "localhost:4317")
	k.Set("telemetry.otlp_insecure", true)
	k.Set("telemetry.environment", "")
	k.Set("telemetry.sample_ratio", 1.0)

	k.Set("server.addr", ":8080")

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// 2. Load from ENV (CABILDO_STORE_DRIVER -> store.driver)
	if err := k.Load(env.Provider("CABILDO_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "CABILDO_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
