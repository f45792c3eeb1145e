package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/deva-0608/dataslide/internal/dataset"
	"github.com/deva-0608/dataslide/internal/utils"
)

// EnvPrefix prefixes every environment override, e.g. DATASLIDE_MAX_ATTEMPTS.
const EnvPrefix = "DATASLIDE"

// Global configuration structure.
type Global struct {
	StorageRoot string `mapstructure:"storage_root" yaml:"storage_root"`

	// Coordinator
	PollIntervalSec int  `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
	MaxAttempts     int  `mapstructure:"max_attempts" yaml:"max_attempts"`
	RetryBackoffSec int  `mapstructure:"retry_backoff_sec" yaml:"retry_backoff_sec"`
	ExclusiveClaim  bool `mapstructure:"exclusive_claim" yaml:"exclusive_claim"`
	WatchUploads    bool `mapstructure:"watch_uploads" yaml:"watch_uploads"`

	// Scoring
	MaxCategories  int `mapstructure:"max_categories" yaml:"max_categories"`
	TopNumerical   int `mapstructure:"top_numerical" yaml:"top_numerical"`
	TopCategorical int `mapstructure:"top_categorical" yaml:"top_categorical"`
	TopDatetime    int `mapstructure:"top_datetime" yaml:"top_datetime"`

	// Classification and loading
	DatetimeSampleSize      int      `mapstructure:"datetime_sample_size" yaml:"datetime_sample_size"`
	DatetimeRequiredSuccess float64  `mapstructure:"datetime_required_success" yaml:"datetime_required_success"`
	NAValues                []string `mapstructure:"na_values" yaml:"na_values"`
	SheetName               string   `mapstructure:"sheet_name" yaml:"sheet_name"`

	RenderCharts bool `mapstructure:"render_charts" yaml:"render_charts"`

	// HTTP
	ListenAddr  string `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`

	LogLevel       string `mapstructure:"log_level" yaml:"log_level"`
	LogDevelopment bool   `mapstructure:"log_development" yaml:"log_development"`
}

// PollInterval returns the delay between coordinator sweeps.
func (c *Global) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// RetryBackoff returns the wait before the first retry of a failed job.
func (c *Global) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffSec) * time.Second
}

// Validate rejects values the coordinator cannot run with.
func (c *Global) Validate() error {
	switch {
	case c.StorageRoot == "":
		return fmt.Errorf("storage_root must be set")
	case c.PollIntervalSec <= 0:
		return fmt.Errorf("poll_interval_sec must be positive, got %d", c.PollIntervalSec)
	case c.MaxAttempts < 1:
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	case c.RetryBackoffSec < 0:
		return fmt.Errorf("retry_backoff_sec must not be negative, got %d", c.RetryBackoffSec)
	case c.MaxCategories < 2:
		return fmt.Errorf("max_categories must be at least 2, got %d", c.MaxCategories)
	case c.TopNumerical < 0 || c.TopCategorical < 0 || c.TopDatetime < 0:
		return fmt.Errorf("top_* limits must not be negative")
	case c.DatetimeSampleSize < 1:
		return fmt.Errorf("datetime_sample_size must be at least 1, got %d", c.DatetimeSampleSize)
	case c.DatetimeRequiredSuccess <= 0 || c.DatetimeRequiredSuccess > 1:
		return fmt.Errorf("datetime_required_success must be in (0, 1], got %g", c.DatetimeRequiredSuccess)
	}
	return nil
}

// Set assigns one key from its string form, as used by `config set`.
func (c *Global) Set(key, val string) error {
	atoi := func(min int) (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < min {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	boolean := func() (bool, error) {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return false, fmt.Errorf("invalid bool for %s: %v", key, val)
		}
		return b, nil
	}
	var err error
	switch key {
	case "storage_root":
		c.StorageRoot = val
	case "poll_interval_sec":
		c.PollIntervalSec, err = atoi(1)
	case "max_attempts":
		c.MaxAttempts, err = atoi(1)
	case "retry_backoff_sec":
		c.RetryBackoffSec, err = atoi(0)
	case "exclusive_claim":
		c.ExclusiveClaim, err = boolean()
	case "watch_uploads":
		c.WatchUploads, err = boolean()
	case "max_categories":
		c.MaxCategories, err = atoi(2)
	case "top_numerical":
		c.TopNumerical, err = atoi(0)
	case "top_categorical":
		c.TopCategorical, err = atoi(0)
	case "top_datetime":
		c.TopDatetime, err = atoi(0)
	case "datetime_sample_size":
		c.DatetimeSampleSize, err = atoi(1)
	case "datetime_required_success":
		f, perr := strconv.ParseFloat(val, 64)
		if perr != nil || f <= 0 || f > 1 {
			return fmt.Errorf("invalid float for datetime_required_success: %v", val)
		}
		c.DatetimeRequiredSuccess = f
	case "na_values":
		c.NAValues = splitList(val)
	case "sheet_name":
		c.SheetName = val
	case "render_charts":
		c.RenderCharts, err = boolean()
	case "listen_addr":
		c.ListenAddr = val
	case "max_upload_mb":
		c.MaxUploadMB, err = atoi(1)
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "log_development":
		c.LogDevelopment, err = boolean()
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// DefaultDir is ~/.dataslide.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".dataslide"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.dataslide/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := DefaultDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults. A .env file in the
// working directory is applied to the environment first.
// Precedence: env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	return LoadWithEnv(cfgFile, ".env")
}

// LoadWithEnv is Load with an explicit dotenv path. Variables already set
// in the environment are not overridden by the file.
func LoadWithEnv(cfgFile, envFile string) (*Global, error) {
	if envFile != "" && utils.FileExists(envFile) {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("storage_root", "")
	v.SetDefault("poll_interval_sec", 5)
	v.SetDefault("max_attempts", 1)
	v.SetDefault("retry_backoff_sec", 30)
	v.SetDefault("exclusive_claim", false)
	v.SetDefault("watch_uploads", false)
	v.SetDefault("max_categories", 50)
	v.SetDefault("top_numerical", 2)
	v.SetDefault("top_categorical", 2)
	v.SetDefault("top_datetime", 1)
	v.SetDefault("datetime_sample_size", 10)
	v.SetDefault("datetime_required_success", 1.0)
	v.SetDefault("na_values", dataset.DefaultNAValues)
	v.SetDefault("sheet_name", "")
	v.SetDefault("render_charts", true)
	v.SetDefault("listen_addr", ":8000")
	v.SetDefault("max_upload_mb", 50)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_development", false)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve storage_root default: ~/.dataslide/storage
	if c.StorageRoot == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		c.StorageRoot = filepath.Join(dir, "storage")
	}
	return &c, nil
}
