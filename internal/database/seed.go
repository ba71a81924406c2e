package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"codewithbrain/internal/models"
)

// Default development credentials created by Seed.
const (
	SeedAdminUsername = "admin"
	SeedAdminPassword = "admin"
)

// AccountCreator creates a user with a plaintext password. The user store
// satisfies it; going through the store lets account-creation listeners
// see the seeded admin.
type AccountCreator interface {
	Create(ctx context.Context, u *models.User, password string) (*models.User, error)
}

// Seed populates the database with initial development data: a default
// admin account and a "General" category, each only when its table is
// empty.
func Seed(ctx context.Context, db *sql.DB, accounts AccountCreator) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count == 0 {
		_, err := accounts.Create(ctx, &models.User{
			Username:    SeedAdminUsername,
			Email:       "admin@codewithbrain.local",
			DisplayName: "Admin",
			Role:        models.RoleAdmin,
		}, SeedAdminPassword)
		if err != nil {
			return fmt.Errorf("seed insert admin: %w", err)
		}
		slog.Info("database seeded with default admin user",
			"username", SeedAdminUsername,
			"password", SeedAdminPassword,
		)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO categories (name, slug, description)
		SELECT 'General', 'general', 'Posts that do not fit anywhere else.'
		WHERE NOT EXISTS (SELECT 1 FROM categories)
	`)
	if err != nil {
		return fmt.Errorf("seed insert category: %w", err)
	}

	return nil
}
