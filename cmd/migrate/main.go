// Command migrate manages the craft beer store's Postgres schema (accounts, products,
// orders) and can load the starter beer catalog.
//
//	go run ./cmd/migrate                 # apply all pending migrations
//	go run ./cmd/migrate -seed           # migrate up, then seed an empty catalog
//	go run ./cmd/migrate -direction down # roll every migration back
//
// DATABASE_URL and the LOG_* settings are read from the environment or .env.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	catalogrepo "craft-beer-store/backend/internal/catalog/repository"
	"craft-beer-store/backend/internal/catalog/seed"
	"craft-beer-store/backend/internal/config"
	"craft-beer-store/backend/internal/db"
	"craft-beer-store/backend/internal/db/migrate"
	"craft-beer-store/backend/internal/logging"
)

type options struct {
	direction string
	seed      bool
}

func parseFlags(args []string, out io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&o.direction, "direction", migrate.Up, "up applies pending migrations, down rolls all of them back")
	fs.BoolVar(&o.seed, "seed", false, "insert the starter beers when the products table is empty (up only)")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.direction != migrate.Up && o.direction != migrate.Down {
		return o, errors.New("-direction must be up or down")
	}
	if o.seed && o.direction == migrate.Down {
		return o, errors.New("-seed cannot be combined with -direction down")
	}
	return o, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logging.Component(logging.New(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName), "migrate")
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is not set; create a .env from .env.example or export it")
	}

	if err := migrate.Run(cfg.DatabaseURL, opts.direction); err != nil {
		log.Fatal().Err(err).Str("direction", opts.direction).Msg("schema migration failed")
	}
	log.Info().Str("direction", opts.direction).Msg("schema is current")

	if opts.seed {
		if err := seedCatalog(cfg.DatabaseURL, cfg.StoreCallTimeout(), log); err != nil {
			log.Fatal().Err(err).Msg("catalog seed failed")
		}
	}
}

func seedCatalog(dsn string, timeout time.Duration, log zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.Open(ctx, dsn, timeout)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	n, err := seed.Run(ctx, catalogrepo.NewPostgresRepository(sqlDB))
	if err != nil {
		return err
	}
	if n == 0 {
		log.Info().Msg("catalog already has products; seed skipped")
		return nil
	}
	log.Info().Int("products", n).Msg("catalog seeded")
	return nil
}
