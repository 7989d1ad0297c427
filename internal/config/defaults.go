package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultServerPort        = 8000
	DefaultServerMode        = "release"
	DefaultReadTimeout       = 15 * time.Second
	DefaultWriteTimeout      = 30 * time.Second
	DefaultShutdownTimeout   = 20 * time.Second
	DefaultMaxBodySize       = 1 << 20
	DefaultGRPCPort          = 9090
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "json"
	DefaultServiceName       = "molprop"
	DefaultModelName         = "qm9-transformer"
	DefaultHeads             = 8
	DefaultFingerprintRadius = 2
	DefaultFingerprintBits   = 2048
	DefaultMaxBatchSize      = 64
	DefaultBatchConcurrency  = 4
	DefaultArtifactSource    = "local"
	DefaultArtifactDir       = "./artifacts"
	DefaultWeightsFile       = "model.safetensors"
	DefaultFeatureScaler     = "scaler_x.json"
	DefaultTargetScaler      = "scaler_y.json"
	DefaultTargetsFile       = "targets.json"
	DefaultReloadDebounce    = 2 * time.Second
	DefaultRedisAddr         = "localhost:6379"
	DefaultRedisKeyPrefix    = "molprop:"
	DefaultLocalCacheMB      = 64
	DefaultLocalCacheTTL     = 10 * time.Minute
	DefaultRemoteCacheTTL    = 24 * time.Hour
	DefaultDBHost            = "localhost"
	DefaultDBPort            = 5432
	DefaultDBName            = "molprop"
	DefaultDBMaxConns        = 10
	DefaultDBWriteTimeout    = 2 * time.Second
	DefaultKafkaBroker       = "localhost:9092"
	DefaultKafkaGroupID      = "molprop-worker"
	DefaultJobsTopic         = "molprop.prediction.jobs"
	DefaultResultsTopic      = "molprop.prediction.results"
	DefaultDLQTopic          = "molprop.prediction.jobs.dlq"
	DefaultKafkaConcurrency  = 4
	DefaultMetricsNamespace  = "molprop"
	DefaultRateLimitRPS      = 50
	DefaultRateLimitBurst    = 100
	DefaultRateLimitIdleTTL  = 10 * time.Minute
)

// defaultValues is registered with viper so that every key is known to
// AutomaticEnv and can be overridden by a MOLPROP_* variable without a
// config file.
var defaultValues = map[string]interface{}{
	"server.port":                        DefaultServerPort,
	"server.mode":                        DefaultServerMode,
	"server.read_timeout":                DefaultReadTimeout,
	"server.write_timeout":               DefaultWriteTimeout,
	"server.shutdown_timeout":            DefaultShutdownTimeout,
	"server.max_body_size":               DefaultMaxBodySize,
	"server.allowed_origins":             []string{"*"},
	"grpc.enabled":                       false,
	"grpc.port":                          DefaultGRPCPort,
	"log.level":                          DefaultLogLevel,
	"log.format":                         DefaultLogFormat,
	"log.service":                        DefaultServiceName,
	"inference.model_name":               DefaultModelName,
	"inference.heads":                    DefaultHeads,
	"inference.fingerprint_radius":       DefaultFingerprintRadius,
	"inference.fingerprint_bits":         DefaultFingerprintBits,
	"inference.max_batch_size":           DefaultMaxBatchSize,
	"inference.batch_concurrency":        DefaultBatchConcurrency,
	"inference.artifacts.source":         DefaultArtifactSource,
	"inference.artifacts.dir":            DefaultArtifactDir,
	"inference.artifacts.prefix":         "",
	"inference.artifacts.weights":        DefaultWeightsFile,
	"inference.artifacts.feature_scaler": DefaultFeatureScaler,
	"inference.artifacts.target_scaler":  DefaultTargetScaler,
	"inference.artifacts.targets":        DefaultTargetsFile,
	"inference.reload.enabled":           false,
	"inference.reload.debounce":          DefaultReloadDebounce,
	"minio.endpoint":                     "",
	"minio.access_key":                   "",
	"minio.secret_key":                   "",
	"minio.bucket":                       "",
	"minio.region":                       "",
	"minio.use_ssl":                      false,
	"redis.enabled":                      false,
	"redis.addr":                         DefaultRedisAddr,
	"redis.password":                     "",
	"redis.db":                           0,
	"redis.key_prefix":                   DefaultRedisKeyPrefix,
	"cache.enabled":                      true,
	"cache.local_size_mb":                DefaultLocalCacheMB,
	"cache.local_ttl":                    DefaultLocalCacheTTL,
	"cache.remote_ttl":                   DefaultRemoteCacheTTL,
	"database.enabled":                   false,
	"database.host":                      DefaultDBHost,
	"database.port":                      DefaultDBPort,
	"database.user":                      "molprop",
	"database.password":                  "",
	"database.db_name":                   DefaultDBName,
	"database.ssl_mode":                  "disable",
	"database.max_conns":                 DefaultDBMaxConns,
	"database.auto_migrate":              true,
	"database.write_timeout":             DefaultDBWriteTimeout,
	"kafka.brokers":                      []string{DefaultKafkaBroker},
	"kafka.group_id":                     DefaultKafkaGroupID,
	"kafka.jobs_topic":                   DefaultJobsTopic,
	"kafka.results_topic":                DefaultResultsTopic,
	"kafka.dlq_topic":                    DefaultDLQTopic,
	"kafka.max_retries":                  3,
	"kafka.retry_backoff":                time.Second,
	"kafka.batch_timeout":                100 * time.Millisecond,
	"kafka.concurrency":                  DefaultKafkaConcurrency,
	"metrics.enabled":                    true,
	"metrics.namespace":                  DefaultMetricsNamespace,
	"metrics.enable_process_metrics":     true,
	"metrics.enable_go_metrics":          true,
	"ratelimit.enabled":                  false,
	"ratelimit.requests_per_second":      DefaultRateLimitRPS,
	"ratelimit.burst":                    DefaultRateLimitBurst,
	"ratelimit.idle_ttl":                 DefaultRateLimitIdleTTL,
}

func registerDefaults(v *viper.Viper) {
	for key, val := range defaultValues {
		v.SetDefault(key, val)
	}
}

// ApplyDefaults fills zero-valued fields of a Config built without viper
// (tests, the CLI). Explicit values always win.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.GRPC.Port == 0 {
		cfg.GRPC.Port = DefaultGRPCPort
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Log.Service == "" {
		cfg.Log.Service = DefaultServiceName
	}

	inf := &cfg.Inference
	if inf.ModelName == "" {
		inf.ModelName = DefaultModelName
	}
	if inf.Heads == 0 {
		inf.Heads = DefaultHeads
	}
	if inf.FingerprintRadius == 0 {
		inf.FingerprintRadius = DefaultFingerprintRadius
	}
	if inf.FingerprintBits == 0 {
		inf.FingerprintBits = DefaultFingerprintBits
	}
	if inf.MaxBatchSize == 0 {
		inf.MaxBatchSize = DefaultMaxBatchSize
	}
	if inf.BatchConcurrency == 0 {
		inf.BatchConcurrency = DefaultBatchConcurrency
	}
	if inf.Artifacts.Source == "" {
		inf.Artifacts.Source = DefaultArtifactSource
	}
	if inf.Artifacts.Dir == "" {
		inf.Artifacts.Dir = DefaultArtifactDir
	}
	if inf.Artifacts.Weights == "" {
		inf.Artifacts.Weights = DefaultWeightsFile
	}
	if inf.Artifacts.FeatureScaler == "" {
		inf.Artifacts.FeatureScaler = DefaultFeatureScaler
	}
	if inf.Artifacts.TargetScaler == "" {
		inf.Artifacts.TargetScaler = DefaultTargetScaler
	}
	if inf.Artifacts.Targets == "" {
		inf.Artifacts.Targets = DefaultTargetsFile
	}
	if inf.Reload.Debounce == 0 {
		inf.Reload.Debounce = DefaultReloadDebounce
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Cache.LocalSizeMB == 0 {
		cfg.Cache.LocalSizeMB = DefaultLocalCacheMB
	}
	if cfg.Cache.LocalTTL == 0 {
		cfg.Cache.LocalTTL = DefaultLocalCacheTTL
	}
	if cfg.Cache.RemoteTTL == 0 {
		cfg.Cache.RemoteTTL = DefaultRemoteCacheTTL
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.WriteTimeout == 0 {
		cfg.Database.WriteTimeout = DefaultDBWriteTimeout
	}

	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.JobsTopic == "" {
		cfg.Kafka.JobsTopic = DefaultJobsTopic
	}
	if cfg.Kafka.ResultsTopic == "" {
		cfg.Kafka.ResultsTopic = DefaultResultsTopic
	}
	if cfg.Kafka.DLQTopic == "" {
		cfg.Kafka.DLQTopic = DefaultDLQTopic
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = 3
	}
	if cfg.Kafka.RetryBackoff == 0 {
		cfg.Kafka.RetryBackoff = time.Second
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = 100 * time.Millisecond
	}
	if cfg.Kafka.Concurrency == 0 {
		cfg.Kafka.Concurrency = DefaultKafkaConcurrency
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = DefaultRateLimitRPS
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = DefaultRateLimitBurst
	}
	if cfg.RateLimit.IdleTTL == 0 {
		cfg.RateLimit.IdleTTL = DefaultRateLimitIdleTTL
	}
}

// Default returns a fully defaulted Config.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Cache.Enabled = true
	cfg.Metrics.Enabled = true
	return cfg
}

//Personal.AI order the ending
