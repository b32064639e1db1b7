package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicsync/civicsync-backend/internal/database"
	"github.com/civicsync/civicsync-backend/internal/models"
)

// userRowConnector serves a single users row the way Postgres would: the ban
// columns of an account that has never been banned are NULL, and only a
// COALESCE in the query turns ban_reason into an empty string.
type userRowConnector struct {
	id uuid.UUID
}

func (c userRowConnector) Connect(context.Context) (driver.Conn, error) {
	return userRowConn{id: c.id}, nil
}

func (c userRowConnector) Driver() driver.Driver { return userRowConn{} }

type userRowConn struct {
	id uuid.UUID
}

func (userRowConn) Open(string) (driver.Conn, error)    { return nil, errors.New("unsupported") }
func (userRowConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("unsupported") }
func (userRowConn) Close() error                        { return nil }
func (userRowConn) Begin() (driver.Tx, error)           { return nil, errors.New("unsupported") }

func (c userRowConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	var banReason driver.Value // NULL by default
	if strings.Contains(query, "COALESCE(ban_reason") {
		banReason = ""
	}
	now := time.Now()
	return &userRow{
		cols: []string{
			"id", "created_at", "updated_at", "name", "email", "password_hash", "role",
			"banned", "banned_until", "ban_reason", "banned_by", "banned_at",
			"theme", "terms_version", "terms_accepted_at",
		},
		vals: []driver.Value{
			c.id.String(), now, now, "Aoife Murphy", "aoife@example.com", "x", models.RoleUser,
			false, nil, banReason, nil, nil,
			"light", "", nil,
		},
	}, nil
}

type userRow struct {
	cols []string
	vals []driver.Value
	done bool
}

func (r *userRow) Columns() []string { return r.cols }
func (r *userRow) Close() error      { return nil }

func (r *userRow) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	copy(dest, r.vals)
	r.done = true
	return nil
}

func withUserRowDB(t *testing.T, id uuid.UUID) {
	t.Helper()
	prev := database.PostgresDB
	database.PostgresDB = sql.OpenDB(userRowConnector{id: id})
	t.Cleanup(func() {
		database.PostgresDB.Close()
		database.PostgresDB = prev
	})
}

func TestGetUserByIDNeverBannedAccount(t *testing.T) {
	id := uuid.New()
	withUserRowDB(t, id)

	u, err := GetUserByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, u)

	assert.Equal(t, id, u.ID)
	assert.False(t, u.Banned)
	assert.Empty(t, u.BanReason)
	assert.Nil(t, u.BannedUntil)
	assert.False(t, u.BanActive(time.Now()))
}

func TestGetUserByEmailNeverBannedAccount(t *testing.T) {
	id := uuid.New()
	withUserRowDB(t, id)

	u, err := GetUserByEmail(context.Background(), "aoife@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)

	assert.Equal(t, "aoife@example.com", u.Email)
	assert.Empty(t, u.BanReason)
}
