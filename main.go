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

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"

	"viewsvc/core/view/adapters/rest"
	"viewsvc/core/view/domain"
	"viewsvc/modules/appconfig"
	"viewsvc/modules/clock"
	"viewsvc/modules/db/redis"
	"viewsvc/modules/db/redis/counter"
	"viewsvc/modules/middleware"
	"viewsvc/modules/middleware/ratelimit"
	rl "viewsvc/modules/ratelimit"
	"viewsvc/modules/server"
	"viewsvc/modules/telemetry"
)

func main() {
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	// cancel the context when these signals occur
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer cancel()

	// --- application config ----
	appConfig, err := appconfig.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", slog.Any("error", err))
		exitCode = 1
		return
	}
	setupLogger(appConfig)

	clock := clock.RealClockProvider()

	// --- infrastructure ---

	otelShutdown, err := telemetry.Init(ctx, appConfig.Otel)
	if err != nil {
		slog.ErrorContext(ctx, "telemetry not properly configured", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer func() {
		if err := otelShutdown(context.WithoutCancel(ctx)); err != nil {
			slog.ErrorContext(ctx, "telemetry shutdown error", slog.Any("error", err))
		}
	}()

	var store rl.CounterStore
	switch appConfig.RateLimit.Store {
	case ratelimit.RedisStore:
		redisClient, err := redis.NewRueidisClient(ctx, appConfig.Redis)
		if err != nil {
			slog.ErrorContext(ctx, "redis not properly setup", slog.Any("error", err))
			exitCode = 1
			return
		}
		defer redisClient.Close()
		store = counter.NewRedisCounterStore(redisClient, appConfig.RateLimit.KeyPrefix)
	default:
		store = rl.NewMemoryCounter(clock)
	}

	// resolved here as well so the limiter and asset server know where the view lives
	view, err := domain.Resolve(appConfig.View)
	if err != nil {
		slog.ErrorContext(ctx, "view config error", slog.Any("error", err))
		exitCode = 1
		return
	}

	factory, err := rl.NewFactory(appConfig.RateLimit.Algorithm, clock, store, rest.KeyPrefix(view))
	if err != nil {
		slog.ErrorContext(ctx, "ratelimit config not properly parsed", slog.Any("error", err))
		exitCode = 1
		return
	}

	slog.Debug("app rate limit config", slog.Any("rate_limit_config", appConfig.RateLimit))

	// --- application layer ---

	httpMetrics, err := telemetry.NewHTTPMetrics(appConfig.Otel.ServiceName)
	if err != nil {
		slog.WarnContext(ctx, "failed to initialize HTTP metrics, continuing without metrics", slog.Any("error", err))
		httpMetrics = nil
	}
	viewMetrics, err := telemetry.NewViewMetrics(appConfig.Otel.ServiceName)
	if err != nil {
		slog.WarnContext(ctx, "failed to initialize view metrics, continuing without metrics", slog.Any("error", err))
		viewMetrics = nil
	}

	fs := afero.NewOsFs()
	assets := http.StripPrefix(view.Patterns[0],
		http.FileServer(afero.NewHttpFs(fs).Dir(filepath.Dir(view.IndexPath))))

	viewSvc, err := rest.New(
		appConfig.View,
		rest.WithFs(fs),
		rest.WithNext(assets),
		rest.WithLimiterFactory(factory),
		rest.WithKeyFunc(ratelimit.KeyStrategies[appConfig.RateLimit.KeyStrategy]),
		rest.WithMetrics(viewMetrics),
	)
	if err != nil {
		slog.ErrorContext(ctx, "view not mounted", slog.Any("error", err))
		exitCode = 1
		return
	}

	srv, err := server.New(
		appConfig.Server.Host, appConfig.Server.Port,
		server.WithReadTimeout(appConfig.Server.ReadTimeout),
		server.WithWriteTimeout(appConfig.Server.WriteTimeout),
		server.WithServices(viewSvc),
		server.WithGlobalMiddlewares(
			middleware.Telemetry(httpMetrics),
			middleware.Recovery(nil),
		),
	)
	if err != nil {
		slog.ErrorContext(ctx, "init server error", slog.Any("error", err))
		exitCode = 1
		return
	}

	if err := srv.Run(ctx); err != nil {
		slog.ErrorContext(ctx, "running server error", slog.Any("error", err))
		exitCode = 1
		return
	}
}

// setupLogger keeps the default text output locally and switches to JSON elsewhere.
func setupLogger(cfg *appconfig.Config) {
	if cfg.Env == "dev" {
		slog.SetLogLoggerLevel(cfg.LogLevel)
		return
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))
}
