package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimitrije/coachlink-api/internal/config"
	"github.com/dimitrije/coachlink-api/internal/database"
	"github.com/dimitrije/coachlink-api/internal/handlers"
	"github.com/dimitrije/coachlink-api/internal/limiter"
	"github.com/dimitrije/coachlink-api/internal/logger"
	"github.com/dimitrije/coachlink-api/internal/metrics"
	authmw "github.com/dimitrije/coachlink-api/internal/middleware"
	"github.com/dimitrije/coachlink-api/internal/models"
	"github.com/dimitrije/coachlink-api/internal/repository"
	"github.com/dimitrije/coachlink-api/internal/scheduler"
	"github.com/dimitrije/coachlink-api/internal/server"
	"github.com/dimitrije/coachlink-api/internal/services"
	"github.com/dimitrije/coachlink-api/internal/sse"
	"github.com/samber/lo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg := logger.New(cfg.Env, cfg.LogLevel)
	defer func() { _ = logg.Sync() }()

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logg.Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logg.Fatalw("failed to run migrations", "error", err)
	}

	exclusiveKinds, err := parseKinds(cfg.Invites.ExclusiveKinds)
	if err != nil {
		logg.Fatalw("invalid EXCLUSIVE_KINDS", "error", err)
	}

	invitationRepo := repository.NewInvitationRepository(db)
	relationshipRepo := repository.NewRelationshipRepository(db)

	policy, err := services.PolicyByName(cfg.Invites.Policy, relationshipRepo)
	if err != nil {
		logg.Fatalw("invalid INVITE_POLICY", "error", err)
	}

	m := metrics.New()
	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry)
	userService := services.NewUserService(db)
	emailService := services.NewEmailService(cfg.SMTP)
	invitationService := services.NewInvitationService(invitationRepo, relationshipRepo, userService, services.InvitationOptions{
		Policy:          policy,
		PromoteOnInvite: cfg.Invites.BootstrapPromote,
		ExclusiveKinds:  exclusiveKinds,
		DefaultTTLDays:  cfg.Invites.TTLDays,
		Observer:        m,
		Logger:          logg,
	})
	relationshipService := services.NewRelationshipService(relationshipRepo, userService, services.RelationshipOptions{
		Policy:         policy,
		ExclusiveKinds: exclusiveKinds,
		Observer:       m,
	})

	var attempts limiter.Limiter = limiter.Nop{}
	if cfg.RedisURL != "" {
		client, err := limiter.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			logg.Fatalw("failed to connect to redis", "error", err)
		}
		defer func() { _ = client.Close() }()
		attempts = limiter.NewRedisLimiter(client, cfg.Limiter.Attempts, cfg.Limiter.Window)
	} else {
		logg.Warn("REDIS_URL not set, invitation code attempts are not throttled")
	}

	sweeper, err := scheduler.New(cfg.SweepSchedule, invitationService, logg)
	if err != nil {
		logg.Fatalw("failed to schedule expiry sweep", "error", err)
	}
	sweeper.Start()

	metricsServer := metrics.NewServer(cfg.MetricsAddr, m, logg)
	metricsServer.Start()

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	hub := sse.NewHub()
	go hub.Run(hubCtx)

	router := server.NewRouter(server.Handlers{
		Users:         handlers.NewUserHandler(userService, logg),
		Invitations:   handlers.NewInvitationHandler(invitationService, emailService, hub, logg),
		Relationships: handlers.NewRelationshipHandler(relationshipService, hub, logg),
		Events:        handlers.NewEventHandler(hub, logg),
	}, server.Options{
		Production: cfg.IsProduction(),
		Tokens:     jwtService,
		RateLimit: authmw.RateLimit(authmw.RateLimitConfig{
			Limiter:   attempts,
			Window:    cfg.Limiter.Window,
			OnLimited: m.RateLimited,
			Log:       logg,
		}),
	})

	srv := server.New(fmt.Sprintf(":%s", cfg.Port), router, logg)
	serveErr := srv.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		if err != nil {
			logg.Errorw("server failed", "error", err)
		}
	}

	logg.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Close event streams first so Shutdown is not held open by them.
	stopHub()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Errorw("server shutdown failed", "error", err)
	}
	sweeper.Stop(shutdownCtx)
	if err := metricsServer.Stop(shutdownCtx); err != nil {
		logg.Errorw("metrics server shutdown failed", "error", err)
	}
}

func parseKinds(names []string) ([]models.RelationshipKind, error) {
	kinds := lo.Map(names, func(name string, _ int) models.RelationshipKind {
		return models.RelationshipKind(name)
	})
	kinds = lo.Filter(kinds, func(kind models.RelationshipKind, _ int) bool { return kind != "" })
	if invalid, found := lo.Find(kinds, func(kind models.RelationshipKind) bool { return !kind.Valid() }); found {
		return nil, fmt.Errorf("unknown relationship kind %q", invalid)
	}
	return kinds, nil
}
