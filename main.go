package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/colorguess/assets"
	"github.com/robalobadob/colorguess/internal/accounts"
	"github.com/robalobadob/colorguess/internal/config"
	"github.com/robalobadob/colorguess/internal/database"
	"github.com/robalobadob/colorguess/internal/httpserver"
	"github.com/robalobadob/colorguess/internal/palette"
	"github.com/robalobadob/colorguess/internal/scores"
	"github.com/robalobadob/colorguess/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Production {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	pal, err := palette.Load(cfg.PaletteFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load palette")
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	defer db.Close()
	if err := database.Migrate(db, assets.Migrations()); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	srv := httpserver.New(httpserver.Options{
		Store:          store.NewMemoryStore(),
		Scores:         scores.NewStore(db),
		Accounts:       accounts.NewService(db, cfg.JWTSecret, cfg.JWTTTL),
		Palette:        pal,
		RevealDelay:    cfg.RevealDelay,
		NextRoundDelay: cfg.NextRoundDelay,
		CookieName:     cfg.CookieName,
		ClientOrigin:   cfg.ClientOrigin,
		Production:     cfg.Production,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go srv.Janitor(cfg.SessionTTL).Run(ctx)

	log.Info().
		Str("port", cfg.Port).
		Str("palette", pal.Name).
		Dur("reveal", cfg.RevealDelay).
		Dur("nextRound", cfg.NextRoundDelay).
		Msg("starting go-server")
	if err := srv.Serve(ctx, ":"+cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}
