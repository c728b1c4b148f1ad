// Package config handles configuration for the server component,
// including defaults, JSON overlay, environment and command-line flags.
package config

import "time"

// Config holds runtime settings for the proof-of-place server.
//
// Fields:
//   - HTTPAddr / EndpointAddrGRPC: bind addresses for the REST and gRPC endpoints.
//   - PublicBaseURL: prefix of the printed verification URL (<base>/note/<noteId>).
//   - DatabaseDriver: "postgres" (pgx) or "sqlite" (modernc); DatabaseDSN matches it.
//   - SecretKey: HMAC secret for signing session JWTs (HS256). Do not use test defaults in prod.
//   - AccessTokenValidityDuration: session token lifetime.
//   - AuthMaxClockSkew: accepted NIP-98 created_at drift.
//   - RedisAddr: enables rate limiting when set.
//   - S3*: signed-event archive; empty S3Bucket disables it.
//   - KafkaBrokers / KafkaTopic: verification events; no brokers disables publishing.
type Config struct {
	HTTPAddr                    string        `env:"HTTP_ADDR"`
	EndpointAddrGRPC            string        `env:"GRPC_ADDR"`
	PublicBaseURL               string        `env:"PUBLIC_BASE_URL"`
	DatabaseDriver              string        `env:"DATABASE_DRIVER"`
	DatabaseDSN                 string        `env:"DATABASE_DSN"`
	SecretKey                   string        `env:"SECRET_KEY"`
	AccessTokenValidityDuration time.Duration `env:"ACCESS_TOKEN_VALIDITY"`
	AuthMaxClockSkew            time.Duration `env:"AUTH_MAX_CLOCK_SKEW"`
	CORSAllowedOrigins          []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	RedisAddr                   string        `env:"REDIS_ADDR"`
	RateLimitRequests           int           `env:"RATE_LIMIT_REQUESTS"`
	RateLimitWindow             time.Duration `env:"RATE_LIMIT_WINDOW"`
	S3RootUser                  string        `env:"S3_ROOT_USER"`
	S3RootPassword              string        `env:"S3_ROOT_PASSWORD"`
	S3Bucket                    string        `env:"S3_BUCKET"`
	S3Region                    string        `env:"S3_REGION"`
	S3BaseEndpoint              string        `env:"S3_BASE_ENDPOINT"`
	KafkaBrokers                []string      `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic                  string        `env:"KAFKA_TOPIC"`
	LogLevel                    string        `env:"LOG_LEVEL"`
	LogFormat                   string        `env:"LOG_FORMAT"`
	ShutdownTimeout             time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// LoadDefaults populates Config with development defaults: a local SQLite
// file, no Redis, no archive, no Kafka.
// NOTE: SecretKey must be overridden in production.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.PublicBaseURL = "http://localhost:8080"
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "proofofplace.db"
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.AuthMaxClockSkew = 60 * time.Second
	c.CORSAllowedOrigins = []string{"*"}
	c.RedisAddr = ""
	c.RateLimitRequests = 30
	c.RateLimitWindow = time.Minute
	c.S3Region = "us-east-1"
	c.KafkaTopic = "proofofplace.verifications"
	c.LogLevel = "info"
	c.LogFormat = "json"
	c.ShutdownTimeout = 10 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment (optionally seeded from a
// .env file) and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
