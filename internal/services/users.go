package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/civicsync/civicsync-backend/internal/database"
	"github.com/civicsync/civicsync-backend/internal/models"
)

// GetUserByID loads a user row, or (nil, nil) when it doesn't exist.
func GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at, name, email, password_hash, role,
			banned, banned_until, COALESCE(ban_reason, ''), banned_by, banned_at,
			theme, COALESCE(terms_version, ''), terms_accepted_at
		FROM users WHERE id = $1
	`, id).Scan(
		&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.Banned, &u.BannedUntil, &u.BanReason, &u.BannedBy, &u.BannedAt,
		&u.Theme, &u.TermsVersion, &u.TermsAcceptedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail loads a user row by email, or (nil, nil) when absent.
func GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at, name, email, password_hash, role,
			banned, banned_until, COALESCE(ban_reason, ''), banned_by, banned_at,
			theme, COALESCE(terms_version, ''), terms_accepted_at
		FROM users WHERE LOWER(email) = LOWER($1)
	`, email).Scan(
		&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.Banned, &u.BannedUntil, &u.BanReason, &u.BannedBy, &u.BannedAt,
		&u.Theme, &u.TermsVersion, &u.TermsAcceptedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// ProfileCounty returns the county on a user's profile, "" when the profile
// doesn't exist or has no county yet. A county is required before a user may
// create content.
func ProfileCounty(ctx context.Context, userID uuid.UUID) (string, error) {
	var county string
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT COALESCE(county, '') FROM user_profiles WHERE user_id = $1
	`, userID).Scan(&county)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return county, nil
}
