package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gorm.io/gorm"

	"bizcards/internal/auth"
	"bizcards/internal/config"
	"bizcards/internal/db"
	"bizcards/internal/model"
	"bizcards/internal/repository"
)

// Creates the administrator account named by ADMIN_EMAIL, or promotes it if
// it already exists. Public registration cannot grant the admin role.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := run(logger); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	admin, err := config.LoadAdmin()
	if err != nil {
		return err
	}

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close(gormDB)
	logger.Info("connected to database", "driver", cfg.DBDriver)

	if err := db.Migrate(gormDB, false, logger); err != nil {
		return err
	}

	users := repository.NewUserRepository(gormDB, logger)
	hasher := auth.NewPasswordHasher(auth.DefaultHashCost)

	created, err := seedAdmin(context.Background(), users, hasher, admin)
	if err != nil {
		return err
	}
	if created {
		logger.Info("administrator created", "email", admin.Email)
	} else {
		logger.Info("administrator already present, role ensured", "email", admin.Email)
	}
	return nil
}

// seedAdmin reports whether a new account was created.
func seedAdmin(ctx context.Context, users repository.UserRepository, hasher *auth.PasswordHasher, admin *config.Admin) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(admin.Email))

	existing, err := users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("check admin %s: %w", email, err)
	}
	if existing != nil {
		if existing.IsAdmin {
			return false, nil
		}
		if err := users.Promote(ctx, existing.ID); err != nil {
			return false, fmt.Errorf("promote admin %s: %w", email, err)
		}
		return false, nil
	}

	hashed, err := hasher.Hash(admin.Password)
	if err != nil {
		return false, err
	}
	user := &model.User{
		Name:         splitName(admin.Name),
		Email:        email,
		PasswordHash: hashed,
		IsAdmin:      true,
		IsBusiness:   true,
	}
	if err := users.Create(ctx, user); err != nil {
		return false, fmt.Errorf("create admin %s: %w", email, err)
	}
	return true, nil
}

func splitName(full string) model.Name {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return model.Name{First: "Admin", Last: "Admin"}
	case 1:
		return model.Name{First: parts[0], Last: parts[0]}
	default:
		return model.Name{First: parts[0], Last: strings.Join(parts[1:], " ")}
	}
}
