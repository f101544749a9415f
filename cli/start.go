package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/quizbot/api"
	"github.com/korjavin/quizbot/bot"
	"github.com/korjavin/quizbot/cache"
	"github.com/korjavin/quizbot/commands"
	"github.com/korjavin/quizbot/config"
	"github.com/korjavin/quizbot/database"
	"github.com/korjavin/quizbot/observability"
	"github.com/korjavin/quizbot/ratelimit"
	"github.com/korjavin/quizbot/session"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand that runs the bot.
func NewStartCmd(envFile, eventsPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), *envFile, *eventsPath)
		},
	}
}

func runBot(ctx context.Context, envFile, eventsPath string) error {
	if err := config.LoadEnvFile(envFile); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	shutdownTracing, err := setupTracing(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("tracing: shutdown: %v", err)
		}
	}()

	catalog, err := loadCatalog(eventsPath)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d event commands", len(catalog.Definitions()))

	client, err := api.NewClient(api.Config{
		BaseURL: cfg.APIURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.APITimeout,
		Verbose: cfg.Verbose,
	})
	if err != nil {
		return err
	}

	store, closeStore, err := openExplanationStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}
	botAPI.Debug = cfg.Debug
	log.Printf("Authorized on account %s", botAPI.Self.UserName)

	b := bot.New(botAPI, bot.Deps{
		Questions: client,
		Grader:    client,
		Explainer: cache.NewExplainer(client, store),
		Reporter:  client,
		Catalog:   catalog,
		Limiter: ratelimit.New(ratelimit.Config{
			MaxRequests: cfg.RateLimitMaxRequests,
			Window:      cfg.RateLimitWindow,
			Block:       cfg.RateLimitBlock,
		}),
		Sessions: session.Options{},
	})
	log.Println("Bot initialized successfully")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	b.Start(ctx)
	log.Println("Bot stopped")
	return nil
}

// setupTracing must run before the gateway client is built so its
// instrumented transport picks up the provider.
func setupTracing(ctx context.Context, cfg *config.Config) (observability.ShutdownFunc, error) {
	tc := observability.TracingConfig{OTLP: cfg.OTLPEndpoint != ""}
	if cfg.TraceStdout {
		tc.Stdout = os.Stdout
	}
	return observability.SetupTracing(ctx, tc)
}

func loadCatalog(path string) (*commands.Catalog, error) {
	if path == "" {
		return commands.Default()
	}
	return commands.LoadFile(path)
}

// openExplanationStore picks redis when an address is configured, otherwise
// the sqlite file unless it is disabled. A nil store disables caching.
func openExplanationStore(ctx context.Context, cfg *config.Config) (cache.Store, func(), error) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("cache: redis at %s is not reachable yet: %v", cfg.RedisAddr, err)
		}
		log.Printf("cache: using redis at %s", cfg.RedisAddr)
		return cache.NewRedisStore(client, cfg.ExplanationTTL), func() { _ = client.Close() }, nil
	}

	if !cfg.CacheEnabled() {
		log.Println("cache: explanation cache disabled")
		return nil, func() {}, nil
	}

	db, err := database.New(cfg.DatabasePath, cfg.ExplanationTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if n, err := db.Prune(ctx); err != nil {
		log.Printf("cache: pruning expired explanations: %v", err)
	} else if n > 0 {
		log.Printf("cache: pruned %d expired explanations", n)
	}
	log.Printf("cache: using sqlite at %s", cfg.DatabasePath)
	return db, func() {
		if err := db.Close(); err != nil {
			log.Printf("cache: closing database: %v", err)
		}
	}, nil
}
