// Command requestbot runs the community request bot: it accepts song
// requests through a Discord slash command, posts them to a vote channel
// with a thumbs-up reaction, periodically tallies matured requests into a
// leaderboard for the admin channel, and reminds role groups to vote. A
// small Gin server exposes liveness, metrics, and the interactions
// webhook.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-request-bot/internal/config"
	"github.com/tbourn/go-request-bot/internal/discord"
	"github.com/tbourn/go-request-bot/internal/domain"
	httpserver "github.com/tbourn/go-request-bot/internal/http"
	"github.com/tbourn/go-request-bot/internal/ledger"
	"github.com/tbourn/go-request-bot/internal/metrics"
	"github.com/tbourn/go-request-bot/internal/repo"
	"github.com/tbourn/go-request-bot/internal/scheduler"
	"github.com/tbourn/go-request-bot/internal/services"
	"github.com/tbourn/go-request-bot/internal/store"
)

const shutdownGrace = 10 * time.Second

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration invalid")
	}

	setupLogging(cfg)
	gin.SetMode(cfg.GinMode)

	// Persistence: JSON ledger of pending requests plus the SQLite archive
	// of resolved ones.
	st := store.New(cfg.StorePath)
	seed, err := st.Load()
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.StorePath).Msg("load request store")
	}
	led := ledger.New(st, seed, log.Logger)
	metrics.RequestsPending.Set(float64(led.Len()))
	log.Info().Int("pending", led.Len()).Str("path", st.Path()).Msg("request store loaded")

	db, err := repo.OpenSQLite(cfg.ArchiveDBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ArchiveDBPath).Msg("open archive database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate archive database")
	}
	archive := &repo.Archive{DB: db}

	// Discord client and slash-command registration.
	client := discord.NewClient(cfg.DiscordToken, log.Logger)
	if cfg.DiscordAppID != "" {
		regCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := client.RegisterCommands(regCtx, cfg.DiscordAppID); err != nil {
			log.Error().Err(err).Msg("register slash commands")
		} else {
			log.Info().Str("app_id", cfg.DiscordAppID).Msg("slash commands registered")
		}
		cancel()
	}

	// Services.
	clock := clockwork.NewRealClock()
	roles := domainRoles(cfg)
	limiter := services.NewSubmitterLimiter(cfg.RateRPS, cfg.RateBurst)

	submissions := services.NewSubmissionService(
		client, led, cfg.RequestChannelID, roles, limiter, clock, log.Logger)
	sweeper := services.NewSweeper(client, led, archive, services.SweeperConfig{
		RequestChannelID: cfg.RequestChannelID,
		AdminChannelID:   cfg.AdminChannelID,
		Window:           cfg.MaturityWindow,
		FetchTimeout:     cfg.FetchTimeout,
		TopN:             cfg.LeaderboardSize,
	}, clock, log.Logger)
	reminder := services.NewReminder(client, cfg.RequestChannelID, roles, log.Logger)

	// HTTP surface. The interactions webhook is mounted only when a public
	// key is configured; without it the bot still sweeps and reminds.
	var interactions gin.HandlerFunc
	if cfg.DiscordPublicKey != "" {
		h, err := discord.NewInteractionsHandler(cfg.DiscordPublicKey, submissions, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("interactions handler")
		}
		interactions = h.Handle
	} else {
		log.Warn().Msg("DISCORD_PUBLIC_KEY not set, interactions webhook disabled")
	}

	router := httpserver.NewRouter(httpserver.Options{
		Pending:      led,
		Interactions: interactions,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Background jobs.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweepRunner := scheduler.NewRunner("sweeper", cfg.SweepInterval, sweeper.Sweep, clock, log.Logger)
	remindRunner := scheduler.NewRunner("reminder", cfg.ReminderInterval, reminder.Broadcast, clock, log.Logger)
	go sweepRunner.Start(ctx)
	go remindRunner.Start(ctx)

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}

	sweepRunner.Stop()
	remindRunner.Stop()
	<-sweepRunner.Done()
	<-remindRunner.Done()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("bye")
}

// domainRoles builds the artist role table from the configured map.
func domainRoles(cfg config.Config) domain.RoleTable {
	return domain.NewRoleTable(cfg.ArtistRoles, cfg.FallbackRoleID)
}

// setupLogging configures the global zerolog logger from the config.
func setupLogging(cfg config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", "requestbot").Logger()
}
