package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBanActive(t *testing.T) {
	now := time.Now()

	notBanned := &User{}
	assert.False(t, notBanned.BanActive(now))

	permanent := &User{Banned: true}
	assert.True(t, permanent.BanActive(now))

	future := now.Add(time.Hour)
	temporary := &User{Banned: true, BannedUntil: &future}
	assert.True(t, temporary.BanActive(now))

	// An expired temporary ban no longer blocks the user even though the
	// banned flag hasn't been cleared yet
	past := now.Add(-time.Hour)
	expired := &User{Banned: true, BannedUntil: &past}
	assert.False(t, expired.BanActive(now))
}

func TestProfileComplete(t *testing.T) {
	dob := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
	full := UserProfile{
		FullName:    "Aoife Murphy",
		DateOfBirth: &dob,
		Address:     "1 Main Street, Cork",
		PPSNumber:   "1234567A",
		County:      "Cork",
	}
	assert.True(t, full.Complete())

	missingPPS := full
	missingPPS.PPSNumber = ""
	assert.False(t, missingPPS.Complete())

	missingDOB := full
	missingDOB.DateOfBirth = nil
	assert.False(t, missingDOB.Complete())

	// Interests are optional and don't gate completeness
	noInterests := full
	noInterests.Interests = nil
	assert.True(t, noInterests.Complete())
}

func TestValidIssueCategory(t *testing.T) {
	assert.True(t, ValidIssueCategory(CategoryRoad))
	assert.True(t, ValidIssueCategory(CategoryOther))
	assert.False(t, ValidIssueCategory("Potholes"))
}

func TestValidIssueStatus(t *testing.T) {
	assert.True(t, ValidIssueStatus(IssueStatusUnderReview))
	assert.True(t, ValidIssueStatus(IssueStatusRejected))
	assert.False(t, ValidIssueStatus("pending"))
}

func TestValidSuggestionStatus(t *testing.T) {
	assert.True(t, ValidSuggestionStatus(SuggestionStatusSubmitted))
	assert.True(t, ValidSuggestionStatus(SuggestionStatusImplemented))
	assert.False(t, ValidSuggestionStatus("accepted")) // issue vocabulary, not suggestion
}

func TestValidMessageTypeAndStatus(t *testing.T) {
	assert.True(t, ValidMessageType(MessageTypeComplaint))
	assert.False(t, ValidMessageType("billing"))

	assert.True(t, ValidMessageStatus(MessageStatusResolved))
	assert.False(t, ValidMessageStatus("done"))
}
