// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package appconfig

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"viewsvc/core/view/domain"
	"viewsvc/modules/db/redis"
	"viewsvc/modules/middleware/ratelimit"
	"viewsvc/modules/telemetry"
)

type ServerConfig struct {
	Host         string        `env:"HOST" envDefault:"0.0.0.0"`
	Port         int           `env:"PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
}

type Config struct {
	Env      string     `env:"ENV" envDefault:"dev"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`

	Server ServerConfig `envPrefix:"SERVER_"`

	// --- view ----
	View domain.Options `envPrefix:"VIEW_"`
	// OptionsFile is a JSON options document; environment values win over it.
	OptionsFile string `env:"VIEW_OPTIONS_FILE"`

	// --- core infra ----
	Redis redis.RedisConfig `envPrefix:"REDIS_"`

	// --- middlewares ----
	RateLimit ratelimit.Config `envPrefix:"RATE_LIMIT_"`

	// --- otel ----
	// since it has special naming conventions, we do not use prefix here
	Otel telemetry.Config
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	if cfg.OptionsFile != "" {
		fileOpts, err := readOptionsFile(cfg.OptionsFile)
		if err != nil {
			return nil, err
		}
		cfg.View = fileOpts.Merge(cfg.View)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readOptionsFile(path string) (domain.Options, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Options{}, fmt.Errorf("%w: options file: %w", domain.ErrConfiguration, err)
	}
	defer f.Close()

	opts, err := domain.DecodeOptions(f)
	if err != nil {
		return domain.Options{}, fmt.Errorf("options file %s: %w", path, err)
	}
	return opts, nil
}

func validate(c *Config) error {
	var errs []error

	switch c.RateLimit.Store {
	case ratelimit.MemoryStore, ratelimit.RedisStore:
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_STORE: unknown store %q", c.RateLimit.Store))
	}
	if _, ok := ratelimit.KeyStrategies[c.RateLimit.KeyStrategy]; !ok {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_KEY_STRATEGY: unknown strategy %q", c.RateLimit.KeyStrategy))
	}
	if c.RateLimit.Store == ratelimit.RedisStore && c.Redis.URL == "" {
		errs = append(errs, errors.New("REDIS_URL is required by the redis rate limit store"))
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		errs = append(errs, errors.New("SERVER_HOST must not be blank"))
	}

	return errors.Join(errs...)
}
