package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/susu3304/globeguess/internal/api"
	"github.com/susu3304/globeguess/internal/bot"
	"github.com/susu3304/globeguess/internal/commands"
	"github.com/susu3304/globeguess/internal/config"
	"github.com/susu3304/globeguess/internal/db"
	"github.com/susu3304/globeguess/internal/events"
	"github.com/susu3304/globeguess/internal/game"
	"github.com/susu3304/globeguess/internal/geoscore"
	"github.com/susu3304/globeguess/internal/geourl"
	"github.com/susu3304/globeguess/internal/guess"
	"github.com/susu3304/globeguess/internal/location"
	"github.com/susu3304/globeguess/internal/logging"
	"github.com/susu3304/globeguess/internal/replay"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if cfg.RoundSecret == config.DevRoundSecret {
		slog.Warn("round_secret is the development default, round tokens can be forged")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := location.Open(cfg.LocationsFile)
	if err != nil {
		log.Fatalf("Failed to load locations: %v", err)
	}
	slog.Info("location catalogue loaded", "locations", catalog.Len(), "file", cfg.LocationsFile)

	engine := cfg.Engine()

	// Spent round tokens
	var guard replay.Store
	checks := map[string]api.Check{}
	if cfg.ValkeyAddr != "" {
		vk, err := replay.NewValkey(cfg.ValkeyAddr)
		if err != nil {
			log.Fatalf("Failed to connect to valkey: %v", err)
		}
		guard = vk
		checks["valkey"] = vk.Ping
	} else {
		slog.Warn("valkey_addr is not set, spent round tokens are kept in memory")
		guard = replay.NewMemory()
	}
	defer guard.Close()

	// Scoring events
	var sink game.Sink = events.Noop{}
	if cfg.NATSURL != "" {
		pub, err := events.NewPublisher(cfg.NATSURL)
		if err != nil {
			log.Fatalf("Failed to connect to nats: %v", err)
		}
		defer pub.Close()
		sink = pub
		checks["nats"] = func(context.Context) error {
			if !pub.Connected() {
				return errors.New("not connected")
			}
			return nil
		}
	}

	player := game.NewPlayer(engine, catalog, sink)
	tokens := game.NewTokens(cfg.RoundSecret, cfg.RoundTTL)
	games := game.NewService(player, tokens, guard, cfg.RoundsPerGame)

	apiServer := api.New(cfg, catalog, games)

	// Discord bot
	if cfg.DiscordToken != "" {
		discordBot, database, err := startBot(ctx, cfg, engine, catalog)
		if err != nil {
			log.Fatalf("Failed to start discord bot: %v", err)
		}
		defer database.Close()
		defer discordBot.Stop()
		checks["postgres"] = database.Ping
	}

	for name, check := range checks {
		apiServer.AddCheck(name, check)
	}

	// Start API server
	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server error", "error", err)
			stop()
		}
	}()

	// Wait for signal to stop
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("API server shutdown", "error", err)
	}
}

func startBot(ctx context.Context, cfg *config.Config, engine geoscore.Engine, catalog *location.Catalog) (*bot.Bot, *db.DB, error) {
	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := database.RunMigrations(ctx); err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	g := &commands.Guess{
		Service:      guess.NewService(database, engine, catalog),
		Resolver:     geourl.NewResolver(),
		ImageBaseURL: cfg.ImageBaseURL,
	}
	discordBot, err := bot.New(cfg.DiscordToken, g, cfg.GuessMaxAge)
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	if err := discordBot.Start(); err != nil {
		database.Close()
		return nil, nil, err
	}
	return discordBot, database, nil
}
