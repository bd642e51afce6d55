// The worker prunes expired sessions and stale cookie payloads on a
// fixed interval, publishing a heartbeat to Redis so operators can see
// it is alive.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bytescookies/cookievault/internal/domain/cookie"
	"github.com/bytescookies/cookievault/internal/domain/user"
	"github.com/bytescookies/cookievault/internal/infrastructure/config"
	"github.com/bytescookies/cookievault/internal/infrastructure/database"
	"github.com/bytescookies/cookievault/internal/infrastructure/repository"
	"github.com/bytescookies/cookievault/internal/shared/biztime"
	"github.com/bytescookies/cookievault/internal/shared/logger"
)

const heartbeatKey = "cookievault:worker:heartbeat"

// Payloads untouched for this long are considered abandoned.
const stalePayloadAge = 90 * 24 * time.Hour

func main() {
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger()
	log.Infow("starting cleanup worker", "environment", env)

	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalw("failed to connect to redis", "error", err)
	}

	sessionRepo := repository.NewSessionRepository(database.Get())
	payloadRepo := repository.NewCookiePayloadRepository(database.Get())

	interval := time.Duration(cfg.Worker.CleanupIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runCleanup(ctx, sessionRepo, payloadRepo, redisClient, interval, log)

	log.Infow("cleanup worker started", "interval", interval.String())

	for {
		select {
		case <-ticker.C:
			runCleanup(ctx, sessionRepo, payloadRepo, redisClient, interval, log)
		case sig := <-sigChan:
			log.Infow("received shutdown signal", "signal", sig.String())
			return
		}
	}
}

func runCleanup(
	ctx context.Context,
	sessionRepo user.SessionRepository,
	payloadRepo cookie.PayloadRepository,
	redisClient *redis.Client,
	interval time.Duration,
	log logger.Interface,
) {
	now := biztime.NowUTC()

	sessions, err := sessionRepo.DeleteExpired(ctx, now)
	if err != nil {
		log.Errorw("failed to delete expired sessions", "error", err)
	}

	payloads, err := payloadRepo.DeleteStale(ctx, now.Add(-stalePayloadAge))
	if err != nil {
		log.Errorw("failed to delete stale payloads", "error", err)
	}

	if err := redisClient.Set(ctx, heartbeatKey, now.UnixMilli(), 2*interval).Err(); err != nil {
		log.Warnw("failed to publish heartbeat", "error", err)
	}

	log.Infow("cleanup cycle completed",
		"expired_sessions", sessions,
		"stale_payloads", payloads)
}
