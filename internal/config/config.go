package config

import (
	"github.com/spf13/viper"
)

// Config is the emulator host configuration.
type Config struct {
	// ArtifactPaths lists directories scanned for engine artifacts.
	ArtifactPaths []string `mapstructure:"artifact_paths"`

	// DefaultArtifact names the artifact used when a caller names none.
	// Empty means: use the sole registered artifact.
	DefaultArtifact string `mapstructure:"default_artifact"`

	LogLevel string     `mapstructure:"log_level"`
	Wasm     WasmConfig `mapstructure:"wasm"`
}

// WasmConfig holds Wasm runtime configuration.
type WasmConfig struct {
	// Enable debug info in compiled engine code.
	Debug bool `mapstructure:"debug"`
	// Compilation cache directory. Empty keeps the cache in memory.
	CacheDir string `mapstructure:"cache_dir"`
}

// Load reads configuration from an optional YAML file over built-in
// defaults. An empty path loads defaults only.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("artifact_paths", []string{"./artifacts"})
	v.SetDefault("default_artifact", "")
	v.SetDefault("log_level", "info")

	v.SetDefault("wasm.debug", false)
	v.SetDefault("wasm.cache_dir", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
