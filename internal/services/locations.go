package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/civicsync/civicsync-backend/internal/apperr"
	"github.com/civicsync/civicsync-backend/internal/database"
	"github.com/civicsync/civicsync-backend/internal/models"
)

// CountyOwner identifies the admin currently holding a county, with a contact
// identifier for the conflict message.
type CountyOwner struct {
	County     string    `json:"county"`
	AdminID    uuid.UUID `json:"admin_id"`
	AdminEmail string    `json:"admin_email"`
}

// LocationStore is the persistence contract for admin county assignments.
// ReplaceAll must be atomic: it either replaces the admin's whole set or, when
// any requested county is held by a different admin, changes nothing and
// returns the conflicts.
type LocationStore interface {
	ReplaceAll(ctx context.Context, adminID uuid.UUID, counties []string) ([]CountyOwner, error)
	CountiesFor(ctx context.Context, adminID uuid.UUID) ([]string, error)
	AdminForCounty(ctx context.Context, county string) (uuid.UUID, bool, error)
}

// AssignCounties validates and applies a full replacement of an admin's
// county set. The caller must resend counties it wants to keep; nothing is
// preserved implicitly. A county held by another admin fails the whole call
// with COUNTY_CONFLICT and leaves the prior set untouched.
func AssignCounties(ctx context.Context, store LocationStore, adminID uuid.UUID, counties []string) ([]string, *apperr.Error) {
	if len(counties) == 0 {
		return nil, apperr.New(apperr.Validation, "At least one county is required")
	}

	seen := make(map[string]struct{}, len(counties))
	cleaned := make([]string, 0, len(counties))
	for _, c := range counties {
		c = strings.TrimSpace(c)
		if !models.ValidCounty(c) {
			return nil, apperr.New(apperr.Validation, fmt.Sprintf("Unknown county: %q", c))
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		cleaned = append(cleaned, c)
	}

	conflicts, err := store.ReplaceAll(ctx, adminID, cleaned)
	if err != nil {
		return nil, apperr.From(err)
	}
	if len(conflicts) > 0 {
		names := make([]string, len(conflicts))
		for i, c := range conflicts {
			names[i] = c.County
		}
		return nil, apperr.WithDetails(apperr.CountyConflict,
			"Counties already managed by another admin: "+strings.Join(names, ", "),
			conflicts)
	}

	return cleaned, nil
}

// PostgresLocationStore implements LocationStore on the shared PostgreSQL
// connection.
type PostgresLocationStore struct{}

// ReplaceAll runs conflict check, delete and bulk insert in one transaction.
// The UNIQUE(county) constraint remains the last line of defense against a
// concurrent assignment racing past the pre-check.
func (PostgresLocationStore) ReplaceAll(ctx context.Context, adminID uuid.UUID, counties []string) ([]CountyOwner, error) {
	tx, err := database.PostgresDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT al.county, al.admin_id, u.email
		FROM admin_locations al
		JOIN users u ON u.id = al.admin_id
		WHERE al.county = ANY($1) AND al.admin_id <> $2
		ORDER BY al.county
	`, pq.Array(counties), adminID)
	if err != nil {
		return nil, err
	}

	var conflicts []CountyOwner
	for rows.Next() {
		var c CountyOwner
		if err := rows.Scan(&c.County, &c.AdminID, &c.AdminEmail); err != nil {
			rows.Close()
			return nil, err
		}
		conflicts = append(conflicts, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return conflicts, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM admin_locations WHERE admin_id = $1`, adminID); err != nil {
		return nil, err
	}
	for _, county := range counties {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO admin_locations (admin_id, county) VALUES ($1, $2)
		`, adminID, county); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return nil, nil
}

// CountiesFor returns the counties an admin currently manages.
func (PostgresLocationStore) CountiesFor(ctx context.Context, adminID uuid.UUID) ([]string, error) {
	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT county FROM admin_locations WHERE admin_id = $1 ORDER BY county
	`, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counties []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		counties = append(counties, c)
	}
	return counties, rows.Err()
}

// AdminForCounty returns the admin managing a county, if any. Used to route
// admin messages and digests.
func (PostgresLocationStore) AdminForCounty(ctx context.Context, county string) (uuid.UUID, bool, error) {
	var adminID uuid.UUID
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT admin_id FROM admin_locations WHERE county = $1
	`, county).Scan(&adminID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	return adminID, true, nil
}
