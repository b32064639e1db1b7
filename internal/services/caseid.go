package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	"github.com/civicsync/civicsync-backend/internal/database"
)

// Case IDs are the human-facing reference codes printed on receipts and
// quoted in correspondence: CIVIC-XXXX-XXXX, two blocks of 4 upper-hex chars.
const caseIDAttempts = 10

// GenerateCaseID returns a candidate case ID from a cryptographically strong
// random source. Uniqueness is the caller's problem: use AssignCaseID.
func GenerateCaseID() (string, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return fmt.Sprintf("CIVIC-%02X%02X-%02X%02X", buf[0], buf[1], buf[2], buf[3]), nil
}

// CaseIDExists is satisfied by anything that can answer whether a case ID is
// already taken. Case IDs are unique across issues AND suggestions jointly.
type CaseIDExists func(ctx context.Context, caseID string) (bool, error)

// AssignCaseID returns a case ID that did not exist at check time. It retries
// generation up to 10 times; if every candidate collides it falls back to a
// timestamp-suffixed form (CIVIC-XXXX-<8 hex unix seconds>). The fallback
// trades format purity for guaranteed termination and is a deliberate escape
// hatch, not dead code.
func AssignCaseID(ctx context.Context, exists CaseIDExists) (string, error) {
	for i := 0; i < caseIDAttempts; i++ {
		candidate, err := GenerateCaseID()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}

	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return fmt.Sprintf("CIVIC-%02X%02X-%08X", buf[0], buf[1], uint32(time.Now().Unix())), nil
}

// CaseIDTaken checks both content tables for a case ID. This is the default
// CaseIDExists used by the creation handlers.
func CaseIDTaken(ctx context.Context, caseID string) (bool, error) {
	return caseIDTakenIn(ctx, database.PostgresDB, caseID)
}

// CaseIDTakenTx is CaseIDTaken inside an open transaction so the check and
// insert share one snapshot.
func CaseIDTakenTx(tx *sql.Tx) CaseIDExists {
	return func(ctx context.Context, caseID string) (bool, error) {
		return caseIDTakenIn(ctx, tx, caseID)
	}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func caseIDTakenIn(ctx context.Context, q querier, caseID string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM issues WHERE case_id = $1)
		    OR EXISTS(SELECT 1 FROM suggestions WHERE case_id = $1)
	`, caseID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
