package main

import (
	"context"
	"flag"
	"os"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/seed"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	session := flag.String("session", "", "cart_session cookie value to seed (random when empty)")
	flag.Parse()

	cfg := config.FromEnv()
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("cmd", "seed").Logger()

	if *session == "" {
		*session = uuid.NewString()
	}

	ctx := context.Background()
	slot, closeSlot, err := db.OpenSlot(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.SlotBackend).Msg("open cart storage")
	}
	defer closeSlot()

	st, err := seed.Apply(ctx, slot, *session, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed apply")
	}

	logger.Info().
		Str("session", *session).
		Str("backend", cfg.SlotBackend).
		Int("items", st.ItemCount).
		Str("total", st.TotalPrice.StringFixed(2)).
		Msg("seed applied")
}
