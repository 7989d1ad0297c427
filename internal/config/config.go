// Package config defines the configuration tree of MolProp-Intelligence.
// This file holds plain data types and validation only; loading lives in
// loader.go and defaults in defaults.go.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/logging"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug | release | test
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// GRPCConfig controls the gRPC health endpoint.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// ArtifactsConfig locates the pretrained artifacts.
type ArtifactsConfig struct {
	Source        string `mapstructure:"source"` // local | minio
	Dir           string `mapstructure:"dir"`
	Prefix        string `mapstructure:"prefix"`
	Weights       string `mapstructure:"weights"`
	FeatureScaler string `mapstructure:"feature_scaler"`
	TargetScaler  string `mapstructure:"target_scaler"`
	Targets       string `mapstructure:"targets"`
}

// ReloadConfig controls fsnotify-driven artifact reloads.
type ReloadConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// InferenceConfig holds pipeline parameters.
type InferenceConfig struct {
	ModelName         string          `mapstructure:"model_name"`
	Heads             int             `mapstructure:"heads"`
	FingerprintRadius int             `mapstructure:"fingerprint_radius"`
	FingerprintBits   int             `mapstructure:"fingerprint_bits"`
	MaxBatchSize      int             `mapstructure:"max_batch_size"`
	BatchConcurrency  int             `mapstructure:"batch_concurrency"`
	Artifacts         ArtifactsConfig `mapstructure:"artifacts"`
	Reload            ReloadConfig    `mapstructure:"reload"`
}

// MinIOConfig holds S3-compatible object storage parameters.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// CacheConfig controls the two-tier prediction cache.
type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	LocalSizeMB int           `mapstructure:"local_size_mb"`
	LocalTTL    time.Duration `mapstructure:"local_ttl"`
	RemoteTTL   time.Duration `mapstructure:"remote_ttl"`
}

// DatabaseConfig holds PostgreSQL parameters for the prediction history.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

// KafkaConfig holds batch-job messaging parameters.
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	GroupID      string        `mapstructure:"group_id"`
	JobsTopic    string        `mapstructure:"jobs_topic"`
	ResultsTopic string        `mapstructure:"results_topic"`
	DLQTopic     string        `mapstructure:"dlq_topic"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	Concurrency  int           `mapstructure:"concurrency"`
}

// MetricsConfig controls the Prometheus registry.
type MetricsConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	Namespace            string `mapstructure:"namespace"`
	EnableProcessMetrics bool   `mapstructure:"enable_process_metrics"`
	EnableGoMetrics      bool   `mapstructure:"enable_go_metrics"`
}

// RateLimitConfig controls per-client request limiting.
type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	IdleTTL           time.Duration `mapstructure:"idle_ttl"`
}

// Config is the root of the configuration tree.
type Config struct {
	Server    ServerConfig      `mapstructure:"server"`
	GRPC      GRPCConfig        `mapstructure:"grpc"`
	Log       logging.LogConfig `mapstructure:"log"`
	Inference InferenceConfig   `mapstructure:"inference"`
	MinIO     MinIOConfig       `mapstructure:"minio"`
	Redis     RedisConfig       `mapstructure:"redis"`
	Cache     CacheConfig       `mapstructure:"cache"`
	Database  DatabaseConfig    `mapstructure:"database"`
	Kafka     KafkaConfig       `mapstructure:"kafka"`
	Metrics   MetricsConfig     `mapstructure:"metrics"`
	RateLimit RateLimitConfig   `mapstructure:"ratelimit"`
}

// Validate checks semantic consistency. Any error is fatal at startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}
	if c.GRPC.Enabled && (c.GRPC.Port < 1 || c.GRPC.Port > 65535 || c.GRPC.Port == c.Server.Port) {
		return fmt.Errorf("grpc.port %d is invalid", c.GRPC.Port)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format %q is invalid; expected json|console", c.Log.Format)
	}

	inf := c.Inference
	if inf.Heads < 1 {
		return fmt.Errorf("inference.heads must be >= 1, got %d", inf.Heads)
	}
	if inf.FingerprintRadius < 0 {
		return fmt.Errorf("inference.fingerprint_radius must be >= 0, got %d", inf.FingerprintRadius)
	}
	if inf.FingerprintBits < 1 {
		return fmt.Errorf("inference.fingerprint_bits must be >= 1, got %d", inf.FingerprintBits)
	}
	if inf.MaxBatchSize < 1 {
		return fmt.Errorf("inference.max_batch_size must be >= 1, got %d", inf.MaxBatchSize)
	}
	switch inf.Artifacts.Source {
	case "local":
		if inf.Artifacts.Dir == "" {
			return fmt.Errorf("inference.artifacts.dir is required for the local source")
		}
	case "minio":
		if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
			return fmt.Errorf("minio.endpoint and minio.bucket are required for the minio source")
		}
		if inf.Reload.Enabled {
			return fmt.Errorf("inference.reload is only supported for the local source")
		}
	default:
		return fmt.Errorf("inference.artifacts.source %q is invalid; expected local|minio", inf.Artifacts.Source)
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("redis.db must be >= 0, got %d", c.Redis.DB)
	}
	if c.Cache.Enabled && c.Cache.LocalSizeMB < 1 {
		return fmt.Errorf("cache.local_size_mb must be >= 1, got %d", c.Cache.LocalSizeMB)
	}

	if c.Database.Enabled {
		if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
			return fmt.Errorf("database.host, database.db_name and database.user are required when the database is enabled")
		}
		if c.Database.MaxConns < 1 {
			return fmt.Errorf("database.max_conns must be >= 1, got %d", c.Database.MaxConns)
		}
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst < 1) {
		return fmt.Errorf("ratelimit requires requests_per_second > 0 and burst >= 1")
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return fmt.Errorf("metrics.namespace is required when metrics are enabled")
	}
	return nil
}

// ValidateWorker adds the checks only the Kafka worker needs.
func (c *Config) ValidateWorker() error {
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers must contain at least one broker")
	}
	if c.Kafka.GroupID == "" || c.Kafka.JobsTopic == "" || c.Kafka.ResultsTopic == "" {
		return fmt.Errorf("kafka.group_id, kafka.jobs_topic and kafka.results_topic are required")
	}
	if c.Kafka.Concurrency < 1 {
		return fmt.Errorf("kafka.concurrency must be >= 1, got %d", c.Kafka.Concurrency)
	}
	return nil
}

//Personal.AI order the ending
