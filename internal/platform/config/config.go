package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"veil/pkg/domain"
	dErrors "veil/pkg/domain-errors"
)

const (
	// AlgorithmAES256GCM is the only sealing algorithm the gateway accepts.
	AlgorithmAES256GCM = "aes-256-gcm"

	// MinKeyDerivationIterations guards against configuring a fast KDF.
	MinKeyDerivationIterations = 10000

	day = 24 * time.Hour
)

// AnonymizationConfig is the deployment policy. It is read once at startup
// and never mutated afterwards.
type AnonymizationConfig struct {
	KeyDerivationIterations int
	EncryptionAlgorithm     string
	TokenExpiration         time.Duration
	DataRetention           time.Duration
	ComplianceLevel         domain.ComplianceProfile
	AuditRetention          time.Duration
}

// Validate rejects policies that would weaken the guarantees downstream.
func (a AnonymizationConfig) Validate() error {
	if a.KeyDerivationIterations < MinKeyDerivationIterations {
		return dErrors.New(dErrors.CodeInvalidConfiguration,
			fmt.Sprintf("key derivation iterations must be at least %d", MinKeyDerivationIterations))
	}
	if a.EncryptionAlgorithm != AlgorithmAES256GCM {
		return dErrors.New(dErrors.CodeInvalidConfiguration, "unsupported encryption algorithm: "+a.EncryptionAlgorithm)
	}
	if a.TokenExpiration <= 0 {
		return dErrors.New(dErrors.CodeInvalidConfiguration, "token expiration must be positive")
	}
	if a.DataRetention <= 0 {
		return dErrors.New(dErrors.CodeInvalidConfiguration, "data retention must be positive")
	}
	if a.AuditRetention < a.DataRetention {
		return dErrors.New(dErrors.CodeInvalidConfiguration, "audit retention must not be shorter than data retention")
	}
	if !a.ComplianceLevel.IsValid() {
		return dErrors.New(dErrors.CodeInvalidConfiguration, "unknown compliance level: "+a.ComplianceLevel.String())
	}
	return nil
}

// DefaultAnonymization mirrors the defaults documented for operators.
func DefaultAnonymization() AnonymizationConfig {
	return AnonymizationConfig{
		KeyDerivationIterations: 100000,
		EncryptionAlgorithm:     AlgorithmAES256GCM,
		TokenExpiration:         24 * time.Hour,
		DataRetention:           365 * day,
		ComplianceLevel:         domain.ProfileGDPR,
		AuditRetention:          7 * 365 * day,
	}
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// Enabled reports whether the audit stream sink should be started.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

// RateLimitConfig bounds requests per client IP within Window.
type RateLimitConfig struct {
	Enabled   bool
	Requests  int
	Sensitive int
	Window    time.Duration
}

type Config struct {
	Addr        string
	Environment string
	LogLevel    slog.Level

	// MasterSecret feeds key derivation; it is dropped from memory once the
	// sealer is built.
	MasterSecret  string
	JWTSigningKey string
	AdminAPIToken string

	Anonymization AnonymizationConfig

	IdentityProviderURL string
	IdentityTimeout     time.Duration

	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig
	RateLimit   RateLimitConfig

	PolicyFile        string
	AuditBufferSize   int
	ReapInterval      time.Duration
	RetentionInterval time.Duration
	ShutdownTimeout   time.Duration
	MetricsEnabled    bool
}

// FromEnv builds the process configuration. Call Validate before use.
func FromEnv() Config {
	defaults := DefaultAnonymization()
	return Config{
		Addr:          getEnv("VEIL_ADDR", ":8080"),
		Environment:   getEnv("VEIL_ENV", "development"),
		LogLevel:      getEnvLevel("LOG_LEVEL", slog.LevelInfo),
		MasterSecret:  os.Getenv("MASTER_SECRET"),
		JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
		AdminAPIToken: os.Getenv("ADMIN_API_TOKEN"),
		Anonymization: AnonymizationConfig{
			KeyDerivationIterations: getEnvInt("KEY_DERIVATION_ITERATIONS", defaults.KeyDerivationIterations),
			EncryptionAlgorithm:     strings.ToLower(getEnv("ENCRYPTION_ALGORITHM", defaults.EncryptionAlgorithm)),
			TokenExpiration:         getEnvDuration("TOKEN_EXPIRATION", defaults.TokenExpiration),
			DataRetention:           getEnvDuration("DATA_RETENTION", defaults.DataRetention),
			ComplianceLevel:         domain.ComplianceProfile(strings.ToLower(getEnv("COMPLIANCE_LEVEL", defaults.ComplianceLevel.String()))),
			AuditRetention:          getEnvDuration("AUDIT_RETENTION", defaults.AuditRetention),
		},
		IdentityProviderURL: os.Getenv("IDP_URL"),
		IdentityTimeout:     getEnvDuration("IDP_TIMEOUT", 5*time.Second),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    getEnvList("KAFKA_BROKERS"),
			AuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "veil.audit"),
		},
		RateLimit: RateLimitConfig{
			Enabled:   getEnvBool("RATE_LIMIT_ENABLED", true),
			Requests:  getEnvInt("RATE_LIMIT_REQUESTS", 300),
			Sensitive: getEnvInt("RATE_LIMIT_SENSITIVE", 30),
			Window:    getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		PolicyFile:        os.Getenv("POLICY_FILE"),
		AuditBufferSize:   getEnvInt("AUDIT_BUFFER_SIZE", 1024),
		ReapInterval:      getEnvDuration("SESSION_REAP_INTERVAL", time.Minute),
		RetentionInterval: getEnvDuration("RETENTION_INTERVAL", time.Hour),
		ShutdownTimeout:   getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MetricsEnabled:    getEnvBool("METRICS_ENABLED", true),
	}
}

// Validate fails fast on anything that would otherwise surface on first use.
func (c Config) Validate() error {
	if err := c.Anonymization.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.MasterSecret) == "" {
		return dErrors.New(dErrors.CodeInvalidConfiguration, "MASTER_SECRET is required")
	}
	if c.IsProduction() {
		if len(c.MasterSecret) < 32 {
			return dErrors.New(dErrors.CodeInvalidConfiguration, "MASTER_SECRET must be at least 32 bytes in production")
		}
		if len(c.JWTSigningKey) < 32 {
			return dErrors.New(dErrors.CodeInvalidConfiguration, "JWT_SIGNING_KEY must be at least 32 bytes in production")
		}
		if c.IdentityProviderURL == "" {
			return dErrors.New(dErrors.CodeInvalidConfiguration, "IDP_URL is required in production")
		}
	}
	if c.JWTSigningKey == "" {
		return dErrors.New(dErrors.CodeInvalidConfiguration, "JWT_SIGNING_KEY is required")
	}
	if c.IdentityTimeout <= 0 {
		return dErrors.New(dErrors.CodeInvalidConfiguration, "IDP_TIMEOUT must be positive")
	}
	if c.AuditBufferSize < 1 {
		return dErrors.New(dErrors.CodeInvalidConfiguration, "AUDIT_BUFFER_SIZE must be positive")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests < 1 || c.RateLimit.Sensitive < 1 || c.RateLimit.Window <= 0) {
		return dErrors.New(dErrors.CodeInvalidConfiguration, "rate limits and window must be positive")
	}
	if c.ReapInterval <= 0 || c.RetentionInterval <= 0 {
		return dErrors.New(dErrors.CodeInvalidConfiguration, "scheduler intervals must be positive")
	}
	return nil
}

func (c Config) IsProduction() bool { return c.Environment == "production" }

// LogValue keeps secrets out of startup logs.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", c.Addr),
		slog.String("environment", c.Environment),
		slog.String("compliance_level", c.Anonymization.ComplianceLevel.String()),
		slog.Int("kdf_iterations", c.Anonymization.KeyDerivationIterations),
		slog.Duration("token_expiration", c.Anonymization.TokenExpiration),
		slog.Duration("data_retention", c.Anonymization.DataRetention),
		slog.Bool("redis", c.Redis.URL != ""),
		slog.Bool("postgres", c.DatabaseURL != ""),
		slog.Bool("kafka", c.Kafka.Enabled()),
		slog.Bool("idp", c.IdentityProviderURL != ""),
		slog.Bool("rate_limit", c.RateLimit.Enabled),
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvDuration accepts Go durations plus a "d" suffix for whole days.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// ParseDuration is time.ParseDuration with day support ("30d").
func ParseDuration(value string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(value, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("parse days %q: %w", value, err)
		}
		return time.Duration(n) * day, nil
	}
	return time.ParseDuration(value)
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvLevel(key string, fallback slog.Level) slog.Level {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return fallback
	}
	return level
}
