package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hackgods/vet-consult-scheduling/internal/auth"
	"github.com/hackgods/vet-consult-scheduling/internal/calendar"
	"github.com/hackgods/vet-consult-scheduling/internal/config"
	"github.com/hackgods/vet-consult-scheduling/internal/db"
	"github.com/hackgods/vet-consult-scheduling/internal/logging"
	"github.com/hackgods/vet-consult-scheduling/internal/schedule"
)

// Person is one seeded user with a ready-to-use bearer token.
type Person struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Role  auth.Role `json:"role"`
	Token string    `json:"token"`
}

// Fixture is what seed writes and simulate reads.
type Fixture struct {
	Vets   []Person `json:"vets"`
	Owners []Person `json:"owners"`
}

var slotDurations = []int{15, 20, 30, 45, 60}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	if cfg.StoreDriver != config.StorePostgres {
		log.Fatal().Msg("seed writes to postgres; set STORE_DRIVER=postgres")
	}
	logger := logging.New("seed", cfg.LogLevel, cfg.Env)

	vetCount := getInt("SEED_VETS", 20)
	ownerCount := getInt("SEED_OWNERS", 200)
	out := getEnv("SEED_OUT", "seed.json")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	rules := schedule.NewService(schedule.NewPgRepository(pool), logger)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	fixture := Fixture{}
	for i := 0; i < vetCount; i++ {
		vet, err := newPerson(tokens, auth.RoleVeterinarian)
		if err != nil {
			logger.Fatal().Err(err).Msg("issue vet token")
		}
		created, err := seedWeek(ctx, rules, vet.ID)
		if err != nil {
			logger.Fatal().Err(err).Str("vet_id", vet.ID.String()).Msg("seed rules")
		}
		logger.Debug().Str("vet", vet.Name).Int("rules", created).Msg("vet seeded")
		fixture.Vets = append(fixture.Vets, vet)
	}
	logger.Info().Int("count", vetCount).Msg("veterinarians seeded")

	for i := 0; i < ownerCount; i++ {
		role := auth.RolePetOwner
		if gofakeit.Bool() {
			role = auth.RoleFarmer
		}
		owner, err := newPerson(tokens, role)
		if err != nil {
			logger.Fatal().Err(err).Msg("issue owner token")
		}
		fixture.Owners = append(fixture.Owners, owner)
	}
	logger.Info().Int("count", ownerCount).Msg("owners generated")

	if err := writeFixture(out, fixture); err != nil {
		logger.Fatal().Err(err).Msg("write fixture")
	}
	logger.Info().Str("path", out).Msg("seed complete")
}

func newPerson(tokens *auth.Manager, role auth.Role) (Person, error) {
	p := Person{ID: uuid.New(), Name: gofakeit.Name(), Role: role}
	tok, err := tokens.NewAccessToken(auth.Actor{UserID: p.ID, Role: role})
	if err != nil {
		return Person{}, err
	}
	p.Token = tok
	return p, nil
}

// seedWeek gives a vet weekday hours and, now and then, a Saturday morning.
func seedWeek(ctx context.Context, rules *schedule.Service, vetID uuid.UUID) (int, error) {
	days := []schedule.DayOfWeek{schedule.Monday, schedule.Tuesday, schedule.Wednesday, schedule.Thursday, schedule.Friday}
	if gofakeit.Number(0, 3) == 0 {
		days = append(days, schedule.Saturday)
	}

	created := 0
	for _, day := range days {
		startHour := gofakeit.Number(7, 10)
		endHour := gofakeit.Number(12, 18)
		if day == schedule.Saturday {
			endHour = startHour + 3
		}
		_, err := rules.CreateRule(ctx, schedule.NewRule{
			VeterinarianID:      vetID,
			DayOfWeek:           day,
			StartTime:           calendar.TimeOfDay(startHour * 60),
			EndTime:             calendar.TimeOfDay(endHour * 60),
			SlotDurationMinutes: slotDurations[gofakeit.Number(0, len(slotDurations)-1)],
			MaxAppointments:     gofakeit.Number(0, 12),
		})
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func writeFixture(path string, f Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write seed fixture: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
