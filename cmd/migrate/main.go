package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"

	"github.com/noah-isme/storefront/internal/obs"
	"github.com/noah-isme/storefront/internal/store"
)

func main() {
	steps := flag.Int("steps", 1, "number of migrations to roll back with down")
	flag.Parse()

	_ = godotenv.Load()
	logger := obs.NewLogger("console", "info")

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "up"
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal().Msg("DATABASE_URL is required")
	}

	m, err := store.NewMigrator(dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("open migrator")
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			logger.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("close migrator")
		}
	}()

	switch cmd {
	case "up":
		err = store.MigrateUp(m)
	case "down":
		err = m.Steps(-*steps)
		if errors.Is(err, migrate.ErrNoChange) {
			err = nil
		}
	case "version":
		version, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied")
			return
		}
		if verr != nil {
			err = verr
			break
		}
		fmt.Printf("version %d dirty=%t\n", version, dirty)
		return
	default:
		logger.Fatal().Str("command", cmd).Msg("unknown command; use up, down or version")
	}
	if err != nil {
		logger.Fatal().Err(err).Str("command", cmd).Msg("migration failed")
	}
	logger.Info().Str("command", cmd).Msg("migration complete")
}
