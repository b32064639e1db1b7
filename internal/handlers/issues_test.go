package handlers

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

	"github.com/civicsync/civicsync-backend/internal/models"
	"github.com/civicsync/civicsync-backend/internal/services"
)

// issueTxRecorder is a scripted sql driver that records the order of
// transaction events during issue creation. It answers the case-ID existence
// check, the issue insert and the image inserts with canned rows, optionally
// rejecting the image insert to exercise the rollback path.
type issueTxRecorder struct {
	events          []string
	failImageInsert bool
}

type issueTxConnector struct{ rec *issueTxRecorder }

func (c issueTxConnector) Connect(context.Context) (driver.Conn, error) {
	return &issueTxConn{rec: c.rec}, nil
}

func (c issueTxConnector) Driver() driver.Driver { return issueTxDriver{} }

type issueTxDriver struct{}

func (issueTxDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("use OpenDB")
}

type issueTxConn struct{ rec *issueTxRecorder }

func (c *issueTxConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not scripted")
}

func (c *issueTxConn) Close() error { return nil }

func (c *issueTxConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *issueTxConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	c.rec.events = append(c.rec.events, "begin")
	return issueTxHandle{rec: c.rec}, nil
}

func (c *issueTxConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	switch {
	case strings.Contains(query, "INSERT INTO issue_images"):
		c.rec.events = append(c.rec.events, "insert image")
		if c.rec.failImageInsert {
			return nil, errors.New("image row rejected")
		}
		return &cannedRows{
			cols: []string{"id", "url", "public_id", "created_at"},
			vals: []driver.Value{uuid.New().String(), "https://cdn.example/road.jpg", "civicsync/issues/road", time.Now()},
		}, nil
	case strings.Contains(query, "INSERT INTO issues"):
		c.rec.events = append(c.rec.events, "insert issue")
		now := time.Now()
		return &cannedRows{
			cols: []string{
				"id", "created_at", "updated_at", "user_id", "title", "description",
				"category", "status", "county", "case_id", "is_public", "latitude",
				"longitude", "view_count", "admin_note", "admin_action_by", "admin_action_at",
			},
			vals: []driver.Value{
				uuid.New().String(), now, now, uuid.New().String(), "Pothole on Shop Street",
				"Deep pothole near the junction", string(models.CategoryRoad),
				models.IssueStatusUnderReview, "Galway", "CIVIC-12AB-34CD", true,
				nil, nil, int64(0), "", nil, nil,
			},
		}, nil
	case strings.Contains(query, "SELECT EXISTS"):
		c.rec.events = append(c.rec.events, "case id check")
		return &cannedRows{cols: []string{"exists"}, vals: []driver.Value{false}}, nil
	}
	return nil, errors.New("unscripted query: " + query)
}

type issueTxHandle struct{ rec *issueTxRecorder }

func (tx issueTxHandle) Commit() error {
	tx.rec.events = append(tx.rec.events, "commit")
	return nil
}

func (tx issueTxHandle) Rollback() error {
	tx.rec.events = append(tx.rec.events, "rollback")
	return nil
}

// cannedRows yields exactly one pre-built row.
type cannedRows struct {
	cols []string
	vals []driver.Value
	done bool
}

func (r *cannedRows) Columns() []string { return r.cols }
func (r *cannedRows) Close() error      { return nil }

func (r *cannedRows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	copy(dest, r.vals)
	r.done = true
	return nil
}

func issueTxDB(t *testing.T, rec *issueTxRecorder) *sql.DB {
	t.Helper()
	db := sql.OpenDB(issueTxConnector{rec: rec})
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInsertIssueWritesImagesInsideCreationTransaction(t *testing.T) {
	rec := &issueTxRecorder{}
	db := issueTxDB(t, rec)

	issue, err := insertIssue(context.Background(), db, issueDraft{
		userID:      uuid.New(),
		title:       "Pothole on Shop Street",
		description: "Deep pothole near the junction",
		category:    models.CategoryRoad,
		isPublic:    true,
		county:      "Galway",
	}, []services.UploadedImage{
		{URL: "https://cdn.example/road.jpg", PublicID: "civicsync/issues/road"},
	})

	require.NoError(t, err)
	require.NotNil(t, issue)
	require.Len(t, issue.Images, 1)
	assert.Equal(t, []string{"begin", "case id check", "insert issue", "insert image", "commit"}, rec.events)
}

func TestInsertIssueRollsBackWhenImageRowFails(t *testing.T) {
	rec := &issueTxRecorder{failImageInsert: true}
	db := issueTxDB(t, rec)

	issue, err := insertIssue(context.Background(), db, issueDraft{
		userID:      uuid.New(),
		title:       "Pothole on Shop Street",
		description: "Deep pothole near the junction",
		category:    models.CategoryRoad,
		isPublic:    true,
		county:      "Galway",
	}, []services.UploadedImage{
		{URL: "https://cdn.example/road.jpg", PublicID: "civicsync/issues/road"},
	})

	require.Error(t, err)
	assert.Nil(t, issue)
	assert.NotContains(t, rec.events, "commit")
	assert.Equal(t, "rollback", rec.events[len(rec.events)-1])
}
