package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"s3purge/internal/domain"
)

var (
	ErrMissingBucket  = errors.New("S3_BUCKET must be set")
	ErrInvalidWorkers = errors.New("purge workers must be at least 1")
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	S3 struct {
		Bucket        string `mapstructure:"bucket"`
		Endpoint      string `mapstructure:"endpoint"`
		Region        string `mapstructure:"region"`
		AccessKey     string `mapstructure:"access_key"`
		SecretKey     string `mapstructure:"secret_key"`
		Folder        string `mapstructure:"folder"`
		SkipSSLVerify bool   `mapstructure:"skip_ssl_verify"`
		PathStyle     *bool  `mapstructure:"-"`
	} `mapstructure:"s3"`
	DryRun              bool `mapstructure:"dry_run"`
	RequireConfirmation bool `mapstructure:"require_confirmation"`
	Purge               struct {
		Workers int `mapstructure:"workers"`
	} `mapstructure:"purge"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
	Metrics struct {
		File string `mapstructure:"file"`
	} `mapstructure:"metrics"`
}

// LoadOptions tweak where configuration comes from.
type LoadOptions struct {
	// ConfigFile, when set, must exist. Otherwise ./s3purge.yaml is optional.
	ConfigFile string
	// DotEnv files are loaded before reading the environment. Missing files are ignored.
	DotEnv []string
	// Overrides win over every other source, keyed like "s3.bucket".
	Overrides map[string]any
}

// Load reads configuration from environment variables and optional config files.
func Load(opts LoadOptions) (Config, error) {
	loadDotEnv(opts.DotEnv)

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.folder", "")
	v.SetDefault("s3.skip_ssl_verify", false)
	v.SetDefault("dry_run", false)
	v.SetDefault("require_confirmation", true)
	v.SetDefault("purge.workers", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("metrics.file", "")

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("s3purge")
		v.AddConfigPath(".")
		_ = v.ReadInConfig() // optional file
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	// Unset means "decide from the endpoint", so it has no default.
	if v.IsSet("s3.path_style") {
		ps := v.GetBool("s3.path_style")
		cfg.S3.PathStyle = &ps
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that must never reach the store.
func (c Config) Validate() error {
	if strings.TrimSpace(c.S3.Bucket) == "" {
		return ErrMissingBucket
	}
	if c.Purge.Workers < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidWorkers, c.Purge.Workers)
	}
	return nil
}

// UsePathStyle defaults to path-style addressing for custom endpoints, which
// is what most S3-compatible servers expect.
func (c Config) UsePathStyle() bool {
	if c.S3.PathStyle != nil {
		return *c.S3.PathStyle
	}
	return c.S3.Endpoint != ""
}

// RunConfig snapshots the fields the purge engine needs.
func (c Config) RunConfig() domain.RunConfig {
	return domain.RunConfig{
		Bucket:              c.S3.Bucket,
		Prefix:              domain.NormalizePrefix(c.S3.Folder),
		DryRun:              c.DryRun,
		RequireConfirmation: c.RequireConfirmation,
	}
}

func loadDotEnv(files []string) {
	for _, f := range files {
		// godotenv never overrides variables that are already set.
		_ = godotenv.Load(f)
	}
}
