package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/civicsync/civicsync-backend/internal/apperr"
	"github.com/civicsync/civicsync-backend/internal/database"
	"github.com/civicsync/civicsync-backend/internal/models"
)

// TargetRef names one likeable item.
type TargetRef struct {
	Kind string    `json:"type"` // issue | suggestion
	ID   uuid.UUID `json:"id"`
}

// Key is the map key used by batched count lookups: "<type>_<id>".
func (t TargetRef) Key() string { return t.Kind + "_" + t.ID.String() }

// AppraisalStore is the ledger's persistence contract. The partial unique
// indexes on the appraisals table back Insert against concurrent duplicates;
// the Exists pre-check is the fast path.
type AppraisalStore interface {
	TargetPublic(ctx context.Context, target TargetRef) (exists bool, public bool, err error)
	Exists(ctx context.Context, userID uuid.UUID, target TargetRef) (bool, error)
	Insert(ctx context.Context, userID uuid.UUID, target TargetRef) error
	Delete(ctx context.Context, userID uuid.UUID, target TargetRef) error
	Count(ctx context.Context, target TargetRef) (int, error)
}

// ToggleAppraisal likes an item the caller hasn't liked, and unlikes one they
// have. There is no separate like/unlike operation and no "already liked"
// error. The returned count is always recomputed from the ledger after the
// mutation; no cached counter is trusted.
func ToggleAppraisal(ctx context.Context, store AppraisalStore, userID uuid.UUID, target TargetRef) (liked bool, count int, aerr *apperr.Error) {
	if target.Kind != models.TargetIssue && target.Kind != models.TargetSuggestion {
		return false, 0, apperr.New(apperr.Validation, "type must be issue or suggestion")
	}

	exists, public, err := store.TargetPublic(ctx, target)
	if err != nil {
		return false, 0, apperr.From(err)
	}
	if !exists {
		return false, 0, apperr.New(apperr.NotFound, "Item not found")
	}
	if !public {
		return false, 0, apperr.New(apperr.Forbidden, "Only public items can be appraised")
	}

	has, err := store.Exists(ctx, userID, target)
	if err != nil {
		return false, 0, apperr.From(err)
	}

	if has {
		if err := store.Delete(ctx, userID, target); err != nil {
			return false, 0, apperr.From(err)
		}
		liked = false
	} else {
		if err := store.Insert(ctx, userID, target); err != nil {
			return false, 0, apperr.From(err)
		}
		liked = true
	}

	count, err = store.Count(ctx, target)
	if err != nil {
		return false, 0, apperr.From(err)
	}
	return liked, count, nil
}

// AppraisalCounts is the batched read-only lookup behind the public counts
// endpoint. No authentication required. Items nobody has liked are present
// with a zero count rather than omitted.
func AppraisalCounts(ctx context.Context, store AppraisalStore, targets []TargetRef) (map[string]int, *apperr.Error) {
	out := make(map[string]int, len(targets))
	for _, t := range targets {
		if t.Kind != models.TargetIssue && t.Kind != models.TargetSuggestion {
			return nil, apperr.New(apperr.Validation, "type must be issue or suggestion")
		}
		n, err := store.Count(ctx, t)
		if err != nil {
			return nil, apperr.From(err)
		}
		out[t.Key()] = n
	}
	return out, nil
}

// PostgresAppraisalStore implements AppraisalStore on the shared connection.
type PostgresAppraisalStore struct{}

func appraisalColumn(target TargetRef) string {
	if target.Kind == models.TargetIssue {
		return "issue_id"
	}
	return "suggestion_id"
}

func targetTable(target TargetRef) string {
	if target.Kind == models.TargetIssue {
		return "issues"
	}
	return "suggestions"
}

func (PostgresAppraisalStore) TargetPublic(ctx context.Context, target TargetRef) (bool, bool, error) {
	var public bool
	err := database.PostgresDB.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT is_public FROM %s WHERE id = $1`, targetTable(target)),
		target.ID).Scan(&public)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, false, nil
		}
		return false, false, err
	}
	return true, public, nil
}

func (PostgresAppraisalStore) Exists(ctx context.Context, userID uuid.UUID, target TargetRef) (bool, error) {
	var exists bool
	err := database.PostgresDB.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM appraisals WHERE user_id = $1 AND %s = $2)`, appraisalColumn(target)),
		userID, target.ID).Scan(&exists)
	return exists, err
}

func (PostgresAppraisalStore) Insert(ctx context.Context, userID uuid.UUID, target TargetRef) error {
	// ON CONFLICT DO NOTHING keeps a racing double-toggle from erroring out
	_, err := database.PostgresDB.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO appraisals (user_id, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`, appraisalColumn(target)),
		userID, target.ID)
	return err
}

func (PostgresAppraisalStore) Delete(ctx context.Context, userID uuid.UUID, target TargetRef) error {
	_, err := database.PostgresDB.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM appraisals WHERE user_id = $1 AND %s = $2`, appraisalColumn(target)),
		userID, target.ID)
	return err
}

func (PostgresAppraisalStore) Count(ctx context.Context, target TargetRef) (int, error) {
	var n int
	err := database.PostgresDB.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM appraisals WHERE %s = $1`, appraisalColumn(target)),
		target.ID).Scan(&n)
	return n, err
}
