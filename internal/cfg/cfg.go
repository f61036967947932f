package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"heart-predictor/internal/common"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	ModelPath       string
	DatasetPath     string
	DataPath        string
	HTTPHost        string
	HTTPPort        int
	DefaultSeed     int64
	ContactURL      string
	LogLevel        string
	LogFormat       string
	LogFile         string
	LogMaxSizeMB    int
	LogMaxBackups   int
	LogMaxAgeDays   int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	ProgressDelay   time.Duration
}

type ConfigFile struct {
	Model struct {
		Path    string `yaml:"path"`
		Dataset string `yaml:"dataset"`
	} `yaml:"model"`

	Server struct {
		Host            string `yaml:"host"`
		Port            int    `yaml:"port"`
		ReadTimeout     string `yaml:"readTimeout"`
		WriteTimeout    string `yaml:"writeTimeout"`
		ShutdownTimeout string `yaml:"shutdownTimeout"`
		ProgressDelay   string `yaml:"progressDelay"`
		ContactURL      string `yaml:"contactURL"`
	} `yaml:"server"`

	Collector struct {
		Seed *int64 `yaml:"seed"`
	} `yaml:"collector"`

	Storage struct {
		DataPath string `yaml:"dataPath"`
	} `yaml:"storage"`

	Logging struct {
		Level      string `yaml:"level"`
		Format     string `yaml:"format"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"maxSizeMB"`
		MaxBackups int    `yaml:"maxBackups"`
		MaxAgeDays int    `yaml:"maxAgeDays"`
	} `yaml:"logging"`
}

// ListenAddr is the host:port the HTTP server binds to.
func (s Settings) ListenAddr() string {
	return net.JoinHostPort(s.HTTPHost, strconv.Itoa(s.HTTPPort))
}

func Load() (Settings, error) {
	if err := loadDotEnv(getEnvOrDefault(common.EnvDotEnvFile, common.DefaultDotEnvFile)); err != nil {
		return Settings{}, err
	}

	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

// loadDotEnv exports variables from a .env file without overriding ones that
// are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	seed := int64(common.DefaultSeed)
	if config.Collector.Seed != nil {
		seed = *config.Collector.Seed
	}

	settings := Settings{
		ModelPath:       getEnvOrDefault(common.EnvModelPath, orDefault(config.Model.Path, common.DefaultModelPath)),
		DatasetPath:     getEnvOrDefault(common.EnvDatasetPath, orDefault(config.Model.Dataset, common.DefaultDatasetPath)),
		DataPath:        getEnvOrDefault(common.EnvDataPath, config.Storage.DataPath),
		HTTPHost:        getEnvOrDefault(common.EnvHTTPHost, config.Server.Host),
		HTTPPort:        getIntFromEnvOrConfig(common.EnvHTTPPort, config.Server.Port, common.DefaultHTTPPort),
		DefaultSeed:     getInt64OrDefault(common.EnvDefaultSeed, seed),
		ContactURL:      getEnvOrDefault(common.EnvContactURL, orDefault(config.Server.ContactURL, common.DefaultContactURL)),
		LogLevel:        strings.ToLower(getEnvOrDefault(common.EnvLogLevel, orDefault(config.Logging.Level, common.DefaultLogLevel))),
		LogFormat:       strings.ToLower(getEnvOrDefault(common.EnvLogFormat, orDefault(config.Logging.Format, common.DefaultLogFormat))),
		LogFile:         getEnvOrDefault(common.EnvLogFile, config.Logging.File),
		LogMaxSizeMB:    getIntFromEnvOrConfig(common.EnvLogMaxSizeMB, config.Logging.MaxSizeMB, common.DefaultLogMaxSizeMB),
		LogMaxBackups:   getIntFromEnvOrConfig(common.EnvLogMaxBackups, config.Logging.MaxBackups, common.DefaultLogMaxBackups),
		LogMaxAgeDays:   getIntFromEnvOrConfig(common.EnvLogMaxAgeDays, config.Logging.MaxAgeDays, common.DefaultLogMaxAgeDays),
		ReadTimeout:     getDurationOrDefault(common.EnvReadTimeout, parseDurationOr(config.Server.ReadTimeout, 10*time.Second)),
		WriteTimeout:    getDurationOrDefault(common.EnvWriteTimeout, parseDurationOr(config.Server.WriteTimeout, 10*time.Second)),
		ShutdownTimeout: getDurationOrDefault(common.EnvShutdownTimeout, parseDurationOr(config.Server.ShutdownTimeout, 10*time.Second)),
		ProgressDelay:   getDurationOrDefault(common.EnvProgressDelay, parseDurationOr(config.Server.ProgressDelay, 0)),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		ModelPath:       getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		DatasetPath:     getEnvOrDefault(common.EnvDatasetPath, common.DefaultDatasetPath),
		DataPath:        os.Getenv(common.EnvDataPath), // optional
		HTTPHost:        os.Getenv(common.EnvHTTPHost),
		HTTPPort:        getIntOrDefault(common.EnvHTTPPort, common.DefaultHTTPPort),
		DefaultSeed:     getInt64OrDefault(common.EnvDefaultSeed, common.DefaultSeed),
		ContactURL:      getEnvOrDefault(common.EnvContactURL, common.DefaultContactURL),
		LogLevel:        strings.ToLower(getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel)),
		LogFormat:       strings.ToLower(getEnvOrDefault(common.EnvLogFormat, common.DefaultLogFormat)),
		LogFile:         os.Getenv(common.EnvLogFile),
		LogMaxSizeMB:    getIntOrDefault(common.EnvLogMaxSizeMB, common.DefaultLogMaxSizeMB),
		LogMaxBackups:   getIntOrDefault(common.EnvLogMaxBackups, common.DefaultLogMaxBackups),
		LogMaxAgeDays:   getIntOrDefault(common.EnvLogMaxAgeDays, common.DefaultLogMaxAgeDays),
		ReadTimeout:     getDurationOrDefault(common.EnvReadTimeout, 10*time.Second),
		WriteTimeout:    getDurationOrDefault(common.EnvWriteTimeout, 10*time.Second),
		ShutdownTimeout: getDurationOrDefault(common.EnvShutdownTimeout, 10*time.Second),
		ProgressDelay:   getDurationOrDefault(common.EnvProgressDelay, 0),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func orDefault(v, defaultValue string) string {
	if v != "" {
		return v
	}
	return defaultValue
}

func parseDurationOr(v string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

var (
	validLogLevels  = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	validLogFormats = map[string]bool{"console": true, "json": true}
)

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.ModelPath == "" {
		return fmt.Errorf("model path cannot be empty")
	}
	if settings.DatasetPath == "" {
		return fmt.Errorf("dataset path cannot be empty")
	}

	if settings.HTTPPort < common.MinHTTPPort || settings.HTTPPort > common.MaxHTTPPort {
		return fmt.Errorf("HTTP port must be between %d and %d, got %d", common.MinHTTPPort, common.MaxHTTPPort, settings.HTTPPort)
	}

	// Validate time durations
	if settings.ReadTimeout < time.Second || settings.ReadTimeout > time.Minute {
		return fmt.Errorf("read timeout must be between 1s and 1m, got %v", settings.ReadTimeout)
	}
	if settings.WriteTimeout < time.Second || settings.WriteTimeout > time.Minute {
		return fmt.Errorf("write timeout must be between 1s and 1m, got %v", settings.WriteTimeout)
	}
	if settings.ShutdownTimeout < time.Second || settings.ShutdownTimeout > time.Minute {
		return fmt.Errorf("shutdown timeout must be between 1s and 1m, got %v", settings.ShutdownTimeout)
	}
	if settings.ProgressDelay < 0 || settings.ProgressDelay > common.MaxProgressDelay*time.Second {
		return fmt.Errorf("progress delay must be between 0 and %ds, got %v", common.MaxProgressDelay, settings.ProgressDelay)
	}
	// The write deadline covers the cosmetic delay as well as the response.
	if settings.ProgressDelay >= settings.WriteTimeout {
		return fmt.Errorf("progress delay %v must be shorter than write timeout %v", settings.ProgressDelay, settings.WriteTimeout)
	}

	// Validate logging
	if !validLogLevels[settings.LogLevel] {
		return fmt.Errorf("unknown log level %q", settings.LogLevel)
	}
	if !validLogFormats[settings.LogFormat] {
		return fmt.Errorf("log format must be console or json, got %q", settings.LogFormat)
	}
	if settings.LogFile != "" && settings.LogMaxSizeMB <= 0 {
		return fmt.Errorf("log max size must be positive when a log file is set, got %d", settings.LogMaxSizeMB)
	}
	if settings.LogMaxBackups < 0 || settings.LogMaxAgeDays < 0 {
		return fmt.Errorf("log retention values cannot be negative")
	}

	if settings.ContactURL != "" {
		u, err := url.Parse(settings.ContactURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("contact URL must be an absolute http(s) URL, got %q", settings.ContactURL)
		}
	}

	return nil
}
