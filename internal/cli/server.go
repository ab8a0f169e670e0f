package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"otaku-arena-service/internal/battle"
	"otaku-arena-service/internal/config"
	"otaku-arena-service/internal/content"
	"otaku-arena-service/internal/engine"
	filestore "otaku-arena-service/internal/infra/file"
	"otaku-arena-service/internal/infra/memory"
	"otaku-arena-service/internal/infra/postgres"
	rediscache "otaku-arena-service/internal/infra/redis"
	"otaku-arena-service/internal/shop"
	transport "otaku-arena-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port, statePath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port, *statePath)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag, stateFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := firstNonEmpty(portFlag, cfg.Server.Port, "8080")
	finalState := firstNonEmpty(stateFlag, cfg.State.Path, "data/user_state.json")

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	contentTTL := config.TTLDuration(cfg.Content.TTL, time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	gemini, err := content.NewGeminiClient(content.GeminiConfig{
		APIKey:     firstNonEmpty(cfg.Gemini.APIKey, os.Getenv("GEMINI_API_KEY")),
		BaseURL:    cfg.Gemini.BaseURL,
		TextModel:  cfg.Gemini.TextModel,
		ImageModel: cfg.Gemini.ImageModel,
		ProModel:   cfg.Gemini.ProModel,
		Timeout:    config.TTLDuration(cfg.Gemini.Timeout, time.Minute),
	})
	if err != nil {
		return err
	}

	var cache content.Cache
	if redisClient != nil {
		cache = rediscache.NewContentCache(redisClient, contentTTL)
	} else {
		cache = memory.NewContentCache()
	}

	retry := content.DefaultRetryPolicy()
	if cfg.Gemini.Retry.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.Gemini.Retry.MaxAttempts
	}
	if d := config.TTLDuration(cfg.Gemini.Retry.InitialDelay, 0); d > 0 {
		retry.InitialDelay = d
	}
	if cfg.Gemini.Retry.Multiplier >= 1 {
		retry.Multiplier = cfg.Gemini.Retry.Multiplier
	}
	pipeline := content.NewPipeline(gemini, cache, retry)

	store := filestore.NewStateStore(finalState)
	eng, err := engine.New(store, content.Achievements())
	if err != nil {
		return err
	}

	offers := content.ShopOffers()
	if pool != nil {
		library := postgres.NewContentLibrary(pool)
		if err := library.SeedOffers(ctx, offers); err != nil {
			log.Printf("seeding shop offers: %v", err)
		} else if dbOffers, err := library.Offers(ctx); err == nil && len(dbOffers) > 0 {
			offers = dbOffers
		}
		if err := library.SeedQuizzes(ctx, content.FallbackQuizzes()); err != nil {
			log.Printf("seeding fallback quizzes: %v", err)
		} else if dbQuizzes, err := library.FallbackQuizzes(ctx); err == nil && len(dbQuizzes) > 0 {
			pipeline.SetFallbackQuizzes(dbQuizzes)
		}
	}

	gateway, err := shop.NewHTTPGateway(shop.HTTPGatewayConfig{
		BaseURL:  cfg.Payment.BaseURL,
		APIKey:   firstNonEmpty(cfg.Payment.APIKey, os.Getenv("PAYMENT_API_KEY")),
		SiteID:   cfg.Payment.SiteID,
		Currency: cfg.Payment.Currency,
	})
	if err != nil {
		return err
	}

	shopSvc := shop.NewService(eng, pipeline, gateway, offers)
	battleSvc := battle.NewService(eng, pipeline)
	play := transport.NewPlayHandler(eng, pipeline)
	server := transport.NewServer(eng, shopSvc, battleSvc, pipeline, play)

	regenCtx, stopRegen := context.WithCancel(ctx)
	defer stopRegen()
	regen := engine.NewRegenClock(eng)
	go regen.Run(regenCtx)

	httpServer := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      server.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting otaku arena service on :%s", finalPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
