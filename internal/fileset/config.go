package fileset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"fileset/internal/patternmatch"
)

// Configuration keys. They are read from the config file (KEY=VALUE lines)
// and can be overridden by environment variables of the same name.
const (
	keyDebug         = "FILESET_DEBUG"
	keyVerbose       = "FILESET_VERBOSE"
	keyAlwaysCopy    = "FILESET_ALWAYS_COPY"
	keyCompression   = "FILESET_COMPRESSION"
	keyRetryAttempts = "FILESET_RETRY_ATTEMPTS"
	keyRetryDelay    = "FILESET_RETRY_DELAY"
	keyS3Bucket      = "FILESET_S3_BUCKET"
	keyS3Region      = "FILESET_S3_REGION"
	keyS3Endpoint    = "FILESET_S3_ENDPOINT"
	keyS3AccessKey   = "FILESET_S3_ACCESS_KEY_ID"
	keyS3SecretKey   = "FILESET_S3_SECRET_ACCESS_KEY"
	keyS3Prefix      = "FILESET_S3_PREFIX"
)

// Config holds settings shared by all commands.
type Config struct {
	Debug         bool
	Verbose       bool
	AlwaysCopy    bool
	Compression   string
	RetryAttempts int
	RetryDelay    time.Duration
	S3            S3Config
}

// S3Config selects the bucket artifacts are uploaded to.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
}

// configPath returns the config file to load: FILESET_CONFIG wins over the default.
func configPath() string {
	if p := os.Getenv("FILESET_CONFIG"); p != "" {
		return p
	}
	return ConfigFile
}

// loadConfig reads path (missing is fine) and applies FILESET_* env overrides.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault(keyCompression, "zstd")
	v.SetDefault(keyRetryAttempts, patternmatch.DefaultMaxAttempts)
	v.SetDefault(keyRetryDelay, patternmatch.DefaultRetryDelay)
	v.SetDefault(keyS3Region, "us-east-1")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
			debugf("No config file at %s, using defaults\n", path)
		}
	}

	cfg := &Config{
		Debug:         v.GetBool(keyDebug),
		Verbose:       v.GetBool(keyVerbose),
		AlwaysCopy:    v.GetBool(keyAlwaysCopy),
		Compression:   strings.ToLower(unquote(v.GetString(keyCompression))),
		RetryAttempts: v.GetInt(keyRetryAttempts),
		RetryDelay:    v.GetDuration(keyRetryDelay),
		S3: S3Config{
			Bucket:    unquote(v.GetString(keyS3Bucket)),
			Region:    unquote(v.GetString(keyS3Region)),
			Endpoint:  unquote(v.GetString(keyS3Endpoint)),
			AccessKey: unquote(v.GetString(keyS3AccessKey)),
			SecretKey: unquote(v.GetString(keyS3SecretKey)),
			Prefix:    unquote(v.GetString(keyS3Prefix)),
		},
	}
	if cfg.RetryAttempts < 1 {
		return nil, fmt.Errorf("%s must be at least 1, got %d", keyRetryAttempts, cfg.RetryAttempts)
	}
	if cfg.RetryDelay < 0 {
		return nil, fmt.Errorf("%s must not be negative, got %s", keyRetryDelay, cfg.RetryDelay)
	}
	return cfg, nil
}

func unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}

// newMaterializer applies the configured retry policy.
func (c *Config) newMaterializer() *patternmatch.Materializer {
	mt := patternmatch.NewMaterializer()
	mt.MaxAttempts = c.RetryAttempts
	mt.RetryDelay = c.RetryDelay
	return mt
}
