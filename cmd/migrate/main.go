package main

import (
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/hackgods/vet-consult-scheduling/internal/db"
	"github.com/hackgods/vet-consult-scheduling/internal/logging"
)

func main() {
	_ = godotenv.Load()

	down := flag.Int("down", 0, "roll back this many migrations instead of applying")
	dsn := flag.String("dsn", "", "postgres DSN (defaults to POSTGRES_DSN)")
	flag.Parse()

	logger := logging.New("migrate", "info", "dev")

	if *dsn == "" {
		*dsn = os.Getenv("POSTGRES_DSN")
	}
	if *dsn == "" {
		logger.Fatal().Msg("POSTGRES_DSN is required")
	}

	if *down > 0 {
		if err := db.MigrateDown(*dsn, *down); err != nil {
			logger.Fatal().Err(err).Msg("migrate down failed")
		}
		logger.Info().Int("steps", *down).Msg("migrations rolled back")
		return
	}

	if err := db.Migrate(*dsn); err != nil {
		logger.Fatal().Err(err).Msg("migrate up failed")
	}
	logger.Info().Msg("migrations applied")
}
