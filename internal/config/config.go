package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	S3        S3Config        `mapstructure:"s3"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	FoodData  FoodDataConfig  `mapstructure:"fooddata"`
	Nutrition NutritionConfig `mapstructure:"nutrition"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	Backend string `mapstructure:"backend"` // mongo | memory
	URI     string `mapstructure:"uri"`
	Name    string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// Enabled reports whether meal photo storage is configured.
func (c S3Config) Enabled() bool {
	return c.BucketName != ""
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"` // Duration string in the file, e.g. "60m"
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	File   string `mapstructure:"file"` // Empty: stdout only
	Stdout bool   `mapstructure:"stdout"`
	JSON   bool   `mapstructure:"json"`
}

type FoodDataConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	CacheSizeMB int           `mapstructure:"cache_size_mb"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

// NutritionConfig holds the user-facing nutrition settings: the calendar used
// for daily totals, the metrics shown in summaries and the default list order.
type NutritionConfig struct {
	Timezone       string   `mapstructure:"timezone"`
	TrackedMetrics []string `mapstructure:"tracked_metrics"`
	Sort           string   `mapstructure:"sort"` // <field>_<asc|desc>
}

// Location resolves Timezone.
func (c NutritionConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("nutrition.timezone: %w", err)
	}
	return loc, nil
}

// SortOrder splits Sort into a field and direction.
func (c NutritionConfig) SortOrder() (field string, descending bool) {
	field, dir, _ := strings.Cut(c.Sort, "_")
	return field, !strings.EqualFold(dir, "asc")
}

var DefaultTrackedMetrics = []string{"calories", "protein", "carbohydrates", "fat", "fiber", "sugar", "sodium"}

// LoadConfig reads configuration from path/config.yaml (optional) and the
// environment, e.g. server.address -> SERVER_ADDRESS.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.backend", BackendMongo)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "fittrack")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.stdout", true)
	v.SetDefault("log.json", false)
	v.SetDefault("fooddata.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("fooddata.timeout", "3s")
	v.SetDefault("fooddata.cache_size_mb", 16)
	v.SetDefault("fooddata.cache_ttl", "6h")
	v.SetDefault("nutrition.timezone", "UTC")
	v.SetDefault("nutrition.tracked_metrics", DefaultTrackedMetrics)
	v.SetDefault("nutrition.sort", "loggedAt_desc")

	err = v.ReadInConfig()
	// No config file is fine: defaults and env vars still apply.
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		err = nil
	} else if err != nil {
		return
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}
	if err = config.validate(); err != nil {
		return
	}
	return config, nil
}

func (c Config) validate() error {
	switch c.Database.Backend {
	case BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("database.backend must be %q or %q, got %q", BackendMongo, BackendMemory, c.Database.Backend)
	}
	if _, err := c.Nutrition.Location(); err != nil {
		return err
	}
	return nil
}
