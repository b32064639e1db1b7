package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/civicsync/civicsync-backend/internal/database"
	"github.com/civicsync/civicsync-backend/internal/models"
)

// Admin messages stay "resolved" for this long before the sweep closes them.
const messageAutoCloseAfter = 48 * time.Hour

// CloseStaleAdminMessages closes every message that has been resolved for
// over 48 hours. Runs hourly from the scheduler and opportunistically before
// every admin-message list fetch, so a stale list is never served even if the
// background job fell behind.
func CloseStaleAdminMessages(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-messageAutoCloseAfter)

	res, err := database.PostgresDB.ExecContext(ctx, `
		UPDATE admin_messages
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND resolved_at IS NOT NULL AND resolved_at < $3
	`, models.MessageStatusClosed, models.MessageStatusResolved, cutoff)
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info().Int64("closed", n).Msg("auto-closed stale admin messages")
	}
	return n, nil
}
