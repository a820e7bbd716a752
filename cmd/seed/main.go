// seed inserts the sample beers into an empty catalog. Idempotent: a catalog with
// any product is left untouched. Requires STORE_DRIVER=postgres and DATABASE_URL.
package main

import (
	"context"
	"os"
	"time"

	"craft-beer-store/backend/internal/catalog/repository"
	"craft-beer-store/backend/internal/catalog/seed"
	"craft-beer-store/backend/internal/config"
	"craft-beer-store/backend/internal/db"
	"craft-beer-store/backend/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "console", "seed").Fatal().Err(err).Msg("config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, "seed")
	if cfg.StoreDriver != config.StoreDriverPostgres {
		log.Error().Str("driver", cfg.StoreDriver).Msg("seed needs STORE_DRIVER=postgres")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer sqlDB.Close()

	n, err := seed.Run(ctx, repository.NewPostgresRepository(sqlDB))
	if err != nil {
		log.Fatal().Err(err).Msg("seed catalog")
	}
	if n == 0 {
		log.Info().Msg("catalog already has products; nothing to do")
		return
	}
	log.Info().Int("products", n).Msg("catalog seeded")
}
