package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/civicsync/civicsync-backend/internal/database"
)

// CountyDigest is one admin's weekly summary of activity in their counties.
type CountyDigest struct {
	AdminEmail     string
	AdminName      string
	Counties       []string
	NewIssues      int
	NewSuggestions int
	NewAppraisals  int
}

// BuildWeeklyDigests aggregates the past 7 days of activity per admin, one
// digest covering all counties that admin manages. Admins with no assigned
// counties get nothing.
func BuildWeeklyDigests(ctx context.Context) ([]CountyDigest, error) {
	since := time.Now().AddDate(0, 0, -7)

	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT u.id, u.name, u.email, al.county,
			(SELECT COUNT(*) FROM issues i WHERE i.county = al.county AND i.created_at >= $1),
			(SELECT COUNT(*) FROM suggestions s WHERE s.county = al.county AND s.created_at >= $1),
			(SELECT COUNT(*) FROM appraisals a
				LEFT JOIN issues ai ON ai.id = a.issue_id
				LEFT JOIN suggestions asg ON asg.id = a.suggestion_id
				WHERE COALESCE(ai.county, asg.county) = al.county AND a.created_at >= $1)
		FROM admin_locations al
		JOIN users u ON u.id = al.admin_id
		ORDER BY u.id, al.county
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byAdmin := make(map[string]*CountyDigest)
	var order []string
	for rows.Next() {
		var adminID, name, email, county string
		var issues, suggestions, appraisals int
		if err := rows.Scan(&adminID, &name, &email, &county, &issues, &suggestions, &appraisals); err != nil {
			return nil, err
		}
		d, ok := byAdmin[adminID]
		if !ok {
			d = &CountyDigest{AdminEmail: email, AdminName: name}
			byAdmin[adminID] = d
			order = append(order, adminID)
		}
		d.Counties = append(d.Counties, county)
		d.NewIssues += issues
		d.NewSuggestions += suggestions
		d.NewAppraisals += appraisals
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	digests := make([]CountyDigest, 0, len(order))
	for _, id := range order {
		digests = append(digests, *byAdmin[id])
	}
	return digests, nil
}

// DigestBody renders the plain-text email for one digest.
func DigestBody(d CountyDigest) string {
	body := fmt.Sprintf("Hi %s,\n\nYour weekly CivicSync summary", d.AdminName)
	if len(d.Counties) > 0 {
		body += " for "
		for i, c := range d.Counties {
			if i > 0 {
				body += ", "
			}
			body += c
		}
	}
	body += fmt.Sprintf(":\n\n  New issues:      %d\n  New suggestions: %d\n  New appraisals:  %d\n\n", d.NewIssues, d.NewSuggestions, d.NewAppraisals)
	body += "Sign in to the admin console to triage.\n"
	return body
}

// SendWeeklyDigests builds and dispatches all digests. Send failures are
// logged per recipient and do not stop the rest of the batch.
func SendWeeklyDigests(ctx context.Context, notifier Notifier) error {
	digests, err := BuildWeeklyDigests(ctx)
	if err != nil {
		return err
	}

	for _, d := range digests {
		Notify(notifier, d.AdminEmail, "Your weekly CivicSync digest", DigestBody(d))
	}

	log.Info().Int("digests", len(digests)).Msg("weekly digests dispatched")
	return nil
}
