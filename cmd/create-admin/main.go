package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/jarvis4everyone/subscription-backend/internal/refreshtokens"
	"github.com/jarvis4everyone/subscription-backend/internal/subscriptions"
	"github.com/jarvis4everyone/subscription-backend/internal/users"
	"github.com/jarvis4everyone/subscription-backend/pkg/auth/session"
	"github.com/jarvis4everyone/subscription-backend/pkg/config"
	"github.com/jarvis4everyone/subscription-backend/pkg/db"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
	"github.com/jarvis4everyone/subscription-backend/pkg/security"
)

const tempPasswordLength = 20

// create-admin creates an admin account, or promotes an existing account with
// the same email.
func main() {
	logg := logger.New(logger.Options{ServiceName: "create-admin"})
	_ = godotenv.Load()

	email := flag.String("email", "", "admin email (required)")
	password := flag.String("password", "", "password for a new account (generated when empty), or a reset for an existing one")
	name := flag.String("name", "Administrator", "display name for a new account")
	contact := flag.String("contact", "0000000000", "contact number for a new account")
	flag.Parse()

	if *email == "" {
		fmt.Fprintln(os.Stderr, "missing -email")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "email": *email})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	svc, repo, err := buildUsers(dbClient, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to build users service", err)
		os.Exit(1)
	}

	existing, err := repo.FindByEmail(ctx, *email)
	if err != nil {
		logg.Error(ctx, "failed to look up user", err)
		os.Exit(1)
	}

	if existing == nil {
		generated := *password == ""
		if generated {
			if *password, err = security.GenerateTempPassword(tempPasswordLength); err != nil {
				logg.Error(ctx, "failed to generate password", err)
				os.Exit(1)
			}
		}
		admin := true
		user, err := svc.Create(ctx, users.CreateUserRequest{
			Name:          *name,
			Email:         *email,
			ContactNumber: *contact,
			Password:      *password,
			IsAdmin:       &admin,
		})
		if err != nil {
			logg.Error(ctx, "failed to create admin", err)
			os.Exit(1)
		}
		fmt.Printf("created admin %s (%s)\n", user.Email, user.ID)
		if generated {
			fmt.Printf("temporary password: %s\n", *password)
		}
		return
	}

	admin := true
	if _, err := svc.AdminUpdate(ctx, existing.ID, users.AdminUpdateRequest{IsAdmin: &admin}); err != nil {
		logg.Error(ctx, "failed to promote user", err)
		os.Exit(1)
	}
	if *password != "" {
		if err := svc.ResetPassword(ctx, existing.ID, *password); err != nil {
			logg.Error(ctx, "failed to reset password", err)
			os.Exit(1)
		}
	}
	fmt.Printf("promoted %s (%s) to admin\n", existing.Email, existing.ID)
}

func buildUsers(client *db.Client, cfg *config.Config, logg *logger.Logger) (users.Service, users.Repository, error) {
	conn := client.DB()
	subs, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:              subscriptions.NewRepository(conn),
		TransactionRunner: client,
		Logger:            logg,
	})
	if err != nil {
		return nil, nil, err
	}
	sessions, err := session.NewManager(refreshtokens.NewRepository(conn), cfg.JWT)
	if err != nil {
		return nil, nil, err
	}
	repo := users.NewRepository(conn)
	svc, err := users.NewService(users.ServiceParams{
		Repo:              repo,
		Subscriptions:     subs,
		Sessions:          sessions,
		TransactionRunner: client,
		PasswordConfig:    cfg.Password,
		Logger:            logg,
	})
	return svc, repo, err
}
