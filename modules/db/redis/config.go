package redis

import "time"

// RedisConfig contains configuration for constructing a rueidis.Client. It is
// only needed when rate-limit windows are shared through Redis.
//
// URL is a standard Redis URI, for example:
//
//   - Single:  redis://:password@localhost:6379/0
//   - TLS:     rediss://:password@my-redis.example.com:6379/0
//   - Cluster: redis://:password@host1:6379/0?addr=host2:6379&addr=host3:6379
type RedisConfig struct {
	URL string `env:"URL" envDefault:"redis://localhost:6379/0"`

	// Optional: client name visible in CLIENT LIST, etc.
	ClientName string `env:"CLIENT_NAME" envDefault:"view-service"`

	// RequireTLS enforces the use of rediss://.
	RequireTLS bool `env:"REQUIRE_TLS"`

	DisableRetry     bool          `env:"DISABLE_RETRY"`
	ConnWriteTimeout time.Duration `env:"CONN_WRITE_TIMEOUT"`
	PingTimeout      time.Duration `env:"PING_TIMEOUT" envDefault:"5s"`

	// Enable OpenTelemetry integration via rueidisotel.
	EnableOtel bool `env:"ENABLE_OTEL"`
}
