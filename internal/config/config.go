package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/menta2k/instacrop/pkg/cropper"
	"github.com/menta2k/instacrop/pkg/preset"
)

// EnvPrefix is the prefix for environment overrides, e.g. INSTACROP_CROP_PRESET
const EnvPrefix = "INSTACROP"

// Config holds the application configuration
type Config struct {
	Crop    CropConfig   `mapstructure:"crop"`
	Output  OutputConfig `mapstructure:"output"`
	Batch   BatchConfig  `mapstructure:"batch"`
	Log     LogConfig    `mapstructure:"log"`
	Presets []string     `mapstructure:"presets"`
}

// CropConfig holds the geometry selection
type CropConfig struct {
	Preset string `mapstructure:"preset"`
	Split  bool   `mapstructure:"split"`
	Panels int    `mapstructure:"panels"`
	// Strict rejects panel requests above what the image allows instead of clamping
	Strict bool `mapstructure:"strict"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	Dir      string `mapstructure:"dir"`
	Format   string `mapstructure:"format"`
	Quality  int    `mapstructure:"quality"`
	Lossless bool   `mapstructure:"lossless"`
	Preview  bool   `mapstructure:"preview"`
}

// BatchConfig holds configuration for multi-file runs
type BatchConfig struct {
	Workers int `mapstructure:"workers"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

var validFormats = []string{"", "jpg", "jpeg", "png", "gif", "bmp", "tif", "tiff", "webp"}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Crop: CropConfig{
			Preset: preset.Default.Name,
			Split:  false,
			Panels: 3,
		},
		Output: OutputConfig{
			Dir:     "./output",
			Quality: 95,
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		Log: LogConfig{
			Mode:  "debug",
			Level: "info",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("crop.preset", d.Crop.Preset)
	v.SetDefault("crop.split", d.Crop.Split)
	v.SetDefault("crop.panels", d.Crop.Panels)
	v.SetDefault("crop.strict", d.Crop.Strict)

	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.quality", d.Output.Quality)
	v.SetDefault("output.lossless", d.Output.Lossless)
	v.SetDefault("output.preview", d.Output.Preview)

	v.SetDefault("batch.workers", d.Batch.Workers)

	v.SetDefault("log.mode", d.Log.Mode)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)

	v.SetDefault("presets", []string{})
}

// Load reads configuration from filename (YAML, JSON or TOML by extension)
// layered over defaults and INSTACROP_* environment variables. An empty
// filename, or a missing file at the default path, yields defaults plus env.
func Load(filename string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := filename != ""
	if !explicit {
		filename = GetConfigPath()
	}
	v.SetConfigFile(filename)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
		if explicit || !missing {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// SaveToFile writes the configuration to filename; the format follows the extension
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.Set("crop", map[string]any{
		"preset": c.Crop.Preset,
		"split":  c.Crop.Split,
		"panels": c.Crop.Panels,
		"strict": c.Crop.Strict,
	})
	v.Set("output", map[string]any{
		"dir":      c.Output.Dir,
		"format":   c.Output.Format,
		"quality":  c.Output.Quality,
		"lossless": c.Output.Lossless,
		"preview":  c.Output.Preview,
	})
	v.Set("batch", map[string]any{"workers": c.Batch.Workers})
	v.Set("log", map[string]any{
		"mode":  c.Log.Mode,
		"level": c.Log.Level,
		"file":  c.Log.File,
	})
	v.Set("presets", c.Presets)

	if err := v.WriteConfigAs(filename); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Catalog returns the built-in presets extended with the configured ones
func (c *Config) Catalog() (*preset.Catalog, error) {
	catalog := preset.BuiltinCatalog()
	for _, def := range c.Presets {
		p, err := preset.Parse(def)
		if err != nil {
			return nil, err
		}
		if err := catalog.Add(p); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

// SelectedPreset resolves Crop.Preset against the catalog
func (c *Config) SelectedPreset() (preset.Preset, error) {
	catalog, err := c.Catalog()
	if err != nil {
		return preset.Preset{}, err
	}
	p, ok := catalog.Lookup(c.Crop.Preset)
	if !ok {
		return preset.Preset{}, fmt.Errorf("unknown preset %q (available: %s)",
			c.Crop.Preset, strings.Join(catalog.Names(), ", "))
	}
	return p, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	if strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("output.dir cannot be empty")
	}

	if !contains(validFormats, strings.ToLower(c.Output.Format)) {
		return fmt.Errorf("output.format %q is not supported", c.Output.Format)
	}

	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be positive")
	}

	if c.Crop.Panels < cropper.MinSplitPanels || c.Crop.Panels > cropper.MaxPanelLimit {
		return fmt.Errorf("crop.panels must be between %d and %d", cropper.MinSplitPanels, cropper.MaxPanelLimit)
	}

	if _, err := c.SelectedPreset(); err != nil {
		return fmt.Errorf("crop.preset: %w", err)
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "instacrop", "config.yaml")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
