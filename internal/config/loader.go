package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "docscan"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "DOCSCAN"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance so that flags
// bound by the CLI are honored.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWithViper creates a loader on a private viper instance.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load reads the configuration from the search paths, environment
// variables, and defaults, then validates it.
func (l *Loader) Load() (*Config, error) {
	return l.load("", true)
}

// LoadWithoutValidation is Load without the final validation.
func (l *Loader) LoadWithoutValidation() (*Config, error) {
	return l.load("", false)
}

// LoadWithFile loads configuration from a specific file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	return l.load(configFile, true)
}

// LoadWithFileWithoutValidation loads configuration from a specific file path without validation.
func (l *Loader) LoadWithFileWithoutValidation(configFile string) (*Config, error) {
	return l.load(configFile, false)
}

func (l *Loader) load(configFile string, validate bool) (*Config, error) {
	if configFile != "" {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configFile)
		}
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
	}

	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// A missing file in the search paths is fine; defaults and env vars apply.
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if validate {
		if err := config.Validate(); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return &config, nil
}

// Get returns a value from the configuration.
func (l *Loader) Get(key string) any {
	return l.v.Get(key)
}

// GetString returns a string value from the configuration.
func (l *Loader) GetString(key string) string {
	return l.v.GetString(key)
}

// Set sets a value in the configuration.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for advanced usage.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

// setupEnvironmentVariables maps DOCSCAN_SERVER_PORT to server.port.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default values for all configuration options.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	l.v.SetDefault("detector.strategy", defaults.Detector.Strategy)
	l.v.SetDefault("detector.mask_mode", defaults.Detector.MaskMode)
	l.v.SetDefault("detector.max_dimension", defaults.Detector.MaxDimension)
	l.v.SetDefault("detector.min_area_ratio", defaults.Detector.MinAreaRatio)
	l.v.SetDefault("detector.blur_radius", defaults.Detector.BlurRadius)
	l.v.SetDefault("detector.canny_low", defaults.Detector.CannyLow)
	l.v.SetDefault("detector.canny_high", defaults.Detector.CannyHigh)

	l.v.SetDefault("rectify.min_output_size", defaults.Rectify.MinOutputSize)
	l.v.SetDefault("rectify.max_output_size", defaults.Rectify.MaxOutputSize)
	l.v.SetDefault("rectify.margin_percent", defaults.Rectify.MarginPercent)
	l.v.SetDefault("rectify.debug_dir", defaults.Rectify.DebugDir)

	l.v.SetDefault("filters.preset", defaults.Filters.Preset)
	p := defaults.Filters.Params
	l.v.SetDefault("filters.params.brightness", p.Brightness)
	l.v.SetDefault("filters.params.contrast", p.Contrast)
	l.v.SetDefault("filters.params.sharpness", p.Sharpness)
	l.v.SetDefault("filters.params.saturation", p.Saturation)
	l.v.SetDefault("filters.params.denoise", p.Denoise)
	l.v.SetDefault("filters.params.temperature", p.Temperature)
	l.v.SetDefault("filters.params.tint", p.Tint)
	l.v.SetDefault("filters.params.binarization", p.Binarization)
	l.v.SetDefault("filters.params.white_background", p.WhiteBackground)
	l.v.SetDefault("filters.params.text_enhancement", p.TextEnhancement)

	l.v.SetDefault("export.format", defaults.Export.Format)
	l.v.SetDefault("export.jpeg_quality", defaults.Export.JPEGQuality)
	l.v.SetDefault("export.pdf_image_format", defaults.Export.PDFImageFormat)

	l.v.SetDefault("input.max_file_mb", defaults.Input.MaxFileMB)

	l.v.SetDefault("server.host", defaults.Server.Host)
	l.v.SetDefault("server.port", defaults.Server.Port)
	l.v.SetDefault("server.cors_origin", defaults.Server.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", defaults.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", defaults.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout", defaults.Server.ShutdownTimeout)
	l.v.SetDefault("server.debounce_ms", defaults.Server.DebounceMS)
	l.v.SetDefault("server.preview_max_dim", defaults.Server.PreviewMaxDim)

	rl := defaults.Server.RateLimit
	l.v.SetDefault("server.rate_limit.enabled", rl.Enabled)
	l.v.SetDefault("server.rate_limit.requests_per_minute", rl.RequestsPerMinute)
	l.v.SetDefault("server.rate_limit.requests_per_hour", rl.RequestsPerHour)
	l.v.SetDefault("server.rate_limit.max_requests_per_day", rl.MaxRequestsPerDay)
	l.v.SetDefault("server.rate_limit.max_data_per_day_mb", rl.MaxDataPerDayMB)
}

// GetResolvedConfig returns the current resolved configuration for debugging.
func (l *Loader) GetResolvedConfig() map[string]any {
	return l.v.AllSettings()
}

// WriteConfigToFile writes the current configuration to a file.
func (l *Loader) WriteConfigToFile(filename string) error {
	return l.v.WriteConfigAs(filename)
}

// GenerateDefaultConfigFile writes the default configuration as YAML.
func GenerateDefaultConfigFile(filename string) error {
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	cfg := DefaultConfig()
	data, err := cfg.YAML()
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o600)
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, ConfigFileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", ConfigFileName))
	}

	return append(paths, "/etc/"+ConfigFileName)
}
