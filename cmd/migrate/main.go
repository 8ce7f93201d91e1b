package main

import (
	"context"
	"flag"
	"os"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/migrate"

	"github.com/rs/zerolog"
)

func main() {
	status := flag.Bool("status", false, "Print the applied schema version and exit")
	flag.Parse()

	cfg := config.FromEnv()
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("cmd", "migrate").Logger()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	if !*status {
		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("apply migrations")
		}
	}

	version, dirty, err := migrate.Version(ctx, pool)
	if err != nil {
		logger.Fatal().Err(err).Msg("read schema version")
	}
	logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("schema version")
}
