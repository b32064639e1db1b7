package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/civicsync/civicsync-backend/internal/database"
)

// Audit event actions
const (
	AuditBanUser         = "ban_user"
	AuditUnbanUser       = "unban_user"
	AuditAcceptContent   = "accept_content"
	AuditRejectContent   = "reject_content"
	AuditAssignCounties  = "assign_counties"
	AuditDeleteIssue     = "delete_issue"
	AuditEditProfile     = "edit_profile"
	AuditMessageResponse = "message_response"
)

// AuditEvent is one append-only record of an admin action. Kept in MongoDB,
// separate from the relational data, and written best-effort: a failed write
// is logged and swallowed, never surfaced to the caller.
type AuditEvent struct {
	AdminID   string                 `bson:"admin_id"`
	Action    string                 `bson:"action"`
	TargetID  string                 `bson:"target_id,omitempty"`
	Detail    map[string]interface{} `bson:"detail,omitempty"`
	CreatedAt time.Time              `bson:"created_at"`
}

// RecordAudit appends an admin-action event. Safe to call with Mongo down.
func RecordAudit(adminID uuid.UUID, action, targetID string, detail map[string]interface{}) {
	if database.MongoDB == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := database.MongoDB.Collection("audit_events").InsertOne(ctx, AuditEvent{
		AdminID:   adminID.String(),
		Action:    action,
		TargetID:  targetID,
		Detail:    detail,
		CreatedAt: time.Now(),
	})
	if err != nil {
		log.Warn().Err(err).Str("action", action).Msg("audit write failed")
	}
}

// RecordView appends a public-read event for engagement analytics. The
// authoritative view_count lives on the Postgres row; this is a side channel.
func RecordView(kind string, id uuid.UUID, viewerIP string) {
	if database.MongoDB == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := database.MongoDB.Collection("view_events").InsertOne(ctx, bson.M{
		"kind":       kind,
		"target_id":  id.String(),
		"viewer_ip":  viewerIP,
		"created_at": time.Now(),
	})
	if err != nil {
		log.Warn().Err(err).Msg("view event write failed")
	}
}

// RecentAuditEvents returns the latest audit events, newest first.
func RecentAuditEvents(ctx context.Context, limit int64) ([]AuditEvent, error) {
	if database.MongoDB == nil {
		return []AuditEvent{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(limit)
	cursor, err := database.MongoDB.Collection("audit_events").Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []AuditEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}
