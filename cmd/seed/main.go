package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pageza/profiles/backend/config"
	"github.com/pageza/profiles/backend/internal/database"
	"github.com/pageza/profiles/backend/internal/logctx"
	"github.com/pageza/profiles/backend/internal/metrics"
	"github.com/pageza/profiles/backend/internal/models"
	"github.com/pageza/profiles/backend/internal/service"
	"github.com/pageza/profiles/backend/internal/types"
)

// seedPassword is shared by every demo account.
const seedPassword = "testpassword123"

type seedProfile struct {
	firstName, lastName, gender *string
	birthYear                   int
}

type seedUser struct {
	name, email string
	profiles    []seedProfile
}

func str(s string) *string { return &s }

var seedUsers = []seedUser{
	{
		name:  "John Doe",
		email: "john.doe@example.com",
		profiles: []seedProfile{
			{firstName: str("John"), lastName: str("Doe"), gender: str(models.GenderMale), birthYear: 1980},
			{lastName: str("Doe"), birthYear: 2012},
		},
	},
	{
		name:  "Jane Smith",
		email: "jane.smith@example.com",
		profiles: []seedProfile{
			{firstName: str("Jane"), lastName: str("Smith"), gender: str(models.GenderFemale), birthYear: 1985},
			{firstName: str("Sue"), gender: str(models.GenderFemale), birthYear: 1990},
		},
	},
	{
		name:  "Bob Wilson",
		email: "bob.wilson@example.com",
		profiles: []seedProfile{
			{firstName: str("Bob"), birthYear: 1975},
			// rejected: male named Sue
			{firstName: str("Sue"), gender: str(models.GenderMale), birthYear: 1970},
		},
	},
}

type options struct {
	driver        string
	databaseURL   string
	migrationsDir string
}

type result struct {
	usersCreated     int
	profilesCreated  int
	profilesRejected int
}

func main() {
	var opts options
	flag.StringVar(&opts.driver, "driver", envOr("DB_DRIVER", "postgres"), "database driver: postgres or sqlite")
	flag.StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "database connection URL (default $DATABASE_URL)")
	flag.StringVar(&opts.migrationsDir, "migrations", "migrations", "migrations directory applied before seeding")
	flag.Parse()

	log := logctx.New(config.GetEnvironment(), os.Stdout)
	if err := run(opts, log); err != nil {
		log.Error("seeding failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(opts options, log *slog.Logger) error {
	if opts.databaseURL == "" {
		return errors.New("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logctx.Into(ctx, log)

	db, err := database.Open(ctx, config.DBConfig{
		Driver:          opts.driver,
		URL:             opts.databaseURL,
		MaxOpenConns:    5,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Minute,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(ctx, db, opts.migrationsDir, log); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	res, err := seed(ctx,
		service.NewAuthService(db, "", "seed", time.Hour),
		service.NewProfileService(db, metrics.New(metrics.NewRegistry())),
		seedUsers)
	if err != nil {
		return err
	}

	log.Info("seeding complete",
		slog.Int("users_created", res.usersCreated),
		slog.Int("profiles_created", res.profilesCreated),
		slog.Int("profiles_rejected", res.profilesRejected),
		slog.String("password", seedPassword))
	return nil
}

// seed registers users and their profiles. Existing users are skipped and
// profiles the validator rejects are counted, not treated as failures.
func seed(ctx context.Context, auth service.IAuthService, profiles service.IProfileService, users []seedUser) (result, error) {
	log := logctx.From(ctx)
	var res result

	for _, su := range users {
		user, err := auth.Register(ctx, su.name, su.email, seedPassword)
		if errors.Is(err, service.ErrAlreadyExists) {
			log.Info("user already exists, skipping", slog.String("email", su.email))
			continue
		}
		if err != nil {
			return res, fmt.Errorf("create user %s: %w", su.email, err)
		}
		res.usersCreated++

		for _, sp := range su.profiles {
			_, err := profiles.Create(ctx, user.ID, &types.CreateProfileRequest{
				FirstName: sp.firstName,
				LastName:  sp.lastName,
				Gender:    sp.gender,
				BirthYear: sp.birthYear,
			})
			var verrs models.ValidationErrors
			switch {
			case errors.As(err, &verrs):
				res.profilesRejected++
				log.Info("profile rejected", slog.String("email", su.email), slog.String("reason", verrs.Error()))
			case err != nil:
				return res, fmt.Errorf("create profile for %s: %w", su.email, err)
			default:
				res.profilesCreated++
			}
		}
	}
	return res, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
