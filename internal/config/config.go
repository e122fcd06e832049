package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"virtualtourist/internal/env"
)

const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"

	ImagesDatabase = "database"
	ImagesS3       = "s3"
)

type Database struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
}

type Flickr struct {
	APIKey   string `yaml:"apiKey"`
	Endpoint string `yaml:"endpoint"`
	PerPage  int    `yaml:"perPage"`
	MaxPage  int    `yaml:"maxPage"`
	Sort     string `yaml:"sort"`
	Size     string `yaml:"size"`
}

type Geocoder struct {
	Endpoint  string `yaml:"endpoint"`
	UserAgent string `yaml:"userAgent"`
	Language  string `yaml:"language"`
}

type Album struct {
	// Prefetch downloads every image of a fresh album before it is saved.
	// When false only URLs are saved and bytes are fetched on demand.
	Prefetch               bool          `yaml:"prefetch"`
	MaxConcurrentDownloads int           `yaml:"maxConcurrentDownloads"`
	DownloadTimeout        time.Duration `yaml:"downloadTimeout"`
	Placeholder            bool          `yaml:"placeholder"`
	ThumbnailWidth         int           `yaml:"thumbnailWidth"`
}

type Images struct {
	Backend string `yaml:"backend"`
	Bucket  string `yaml:"bucket"`
	Region  string `yaml:"region"`
}

type S3 struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	UseSSL    bool   `yaml:"useSSL"`
}

type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type Kafka struct {
	Broker  string `yaml:"broker"`
	Topic   string `yaml:"topic"`
	GroupID string `yaml:"groupID"`
}

type Log struct {
	Level string `yaml:"level"`
}

type ServiceConfig struct {
	Port     int      `yaml:"port"`
	Database Database `yaml:"database"`
	Flickr   Flickr   `yaml:"flickr"`
	Geocoder Geocoder `yaml:"geocoder"`
	Album    Album    `yaml:"album"`
	Images   Images   `yaml:"images"`
	S3       S3       `yaml:"s3"`
	Redis    Redis    `yaml:"redis"`
	Kafka    Kafka    `yaml:"kafka"`
	Log      Log      `yaml:"log"`
}

// Default returns the configuration used when no file or variable overrides it.
func Default() *ServiceConfig {
	return &ServiceConfig{
		Port: 8080,
		Database: Database{
			Type:             DatabaseSQLite,
			ConnectionString: "file:virtualtourist.db?_pragma=foreign_keys(1)",
		},
		Flickr: Flickr{
			Endpoint: "https://api.flickr.com/services/rest/",
			PerPage:  5,
			MaxPage:  10,
			Sort:     "interestingness-desc",
			Size:     "s",
		},
		Geocoder: Geocoder{
			Endpoint:  "https://nominatim.openstreetmap.org",
			UserAgent: "virtualtourist/1.0",
			Language:  "en",
		},
		Album: Album{
			DownloadTimeout: 30 * time.Second,
			Placeholder:     true,
			ThumbnailWidth:  150,
		},
		Images: Images{
			Backend: ImagesDatabase,
			Bucket:  "virtualtourist-photos",
		},
		Redis: Redis{TTL: 24 * time.Hour},
		Kafka: Kafka{
			Topic:   "virtualtourist.pins",
			GroupID: "virtualtourist-worker",
		},
		Log: Log{Level: "info"},
	}
}

// Path returns the configuration file location: $CONFIG_PATH, or config.yaml
// in the working directory.
func Path() string {
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		return configPath
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(cwd, "config.yaml")
}

// Load reads the YAML file at configPath on top of the defaults, applies
// environment overrides and validates the result. A missing file is not an
// error.
func Load(configPath string) (*ServiceConfig, error) {
	config := Default()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Info("config file not found, using defaults and environment", "path", configPath)
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func applyEnv(c *ServiceConfig) {
	env.Int("PORT", &c.Port)
	env.String("DATABASE_TYPE", &c.Database.Type)
	env.String("DATABASE_URL", &c.Database.ConnectionString)
	env.String("FLICKR_API_KEY", &c.Flickr.APIKey)
	env.String("IMAGES_BACKEND", &c.Images.Backend)
	env.String("PHOTO_BUCKET_NAME", &c.Images.Bucket)
	env.String("MINIO_ENDPOINT", &c.S3.Endpoint)
	env.String("MINIO_ACCESS_KEY", &c.S3.AccessKey)
	env.String("MINIO_SECRET_KEY", &c.S3.SecretKey)
	env.Bool("MINIO_USE_SSL", &c.S3.UseSSL)
	env.String("REDIS_ADDR", &c.Redis.Addr)
	env.String("REDIS_PASSWORD", &c.Redis.Password)
	env.String("KAFKA_BROKER", &c.Kafka.Broker)
	env.String("KAFKA_TOPIC", &c.Kafka.Topic)
	env.String("KAFKA_GROUP_ID", &c.Kafka.GroupID)
	env.String("LOG_LEVEL", &c.Log.Level)
}

// Validate checks the settings that cannot be defaulted.
func (c *ServiceConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	switch c.Database.Type {
	case DatabaseSQLite, DatabasePostgres:
	default:
		return fmt.Errorf("unsupported database type: %q", c.Database.Type)
	}
	if c.Database.ConnectionString == "" {
		return errors.New("database connection string is required")
	}
	if c.Flickr.PerPage <= 0 {
		return fmt.Errorf("flickr.perPage must be positive, got %d", c.Flickr.PerPage)
	}
	if c.Flickr.MaxPage <= 0 {
		return fmt.Errorf("flickr.maxPage must be positive, got %d", c.Flickr.MaxPage)
	}
	if c.Album.MaxConcurrentDownloads < 0 {
		return fmt.Errorf("album.maxConcurrentDownloads must not be negative, got %d", c.Album.MaxConcurrentDownloads)
	}
	switch c.Images.Backend {
	case ImagesDatabase:
	case ImagesS3:
		if c.S3.Endpoint == "" || c.S3.AccessKey == "" || c.S3.SecretKey == "" {
			return errors.New("images backend s3 requires MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY")
		}
		if c.Images.Bucket == "" {
			return errors.New("images backend s3 requires a bucket name")
		}
	default:
		return fmt.Errorf("unsupported images backend: %q", c.Images.Backend)
	}
	return nil
}

// SlogLevel maps log.level onto a slog level, defaulting to info.
func (c *ServiceConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *ServiceConfig) KafkaEnabled() bool {
	return c.Kafka.Broker != "" && c.Kafka.Topic != ""
}

func (c *ServiceConfig) RedisEnabled() bool {
	return c.Redis.Addr != ""
}
