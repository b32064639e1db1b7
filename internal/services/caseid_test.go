package services

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var caseIDPattern = regexp.MustCompile(`^CIVIC-[0-9A-F]{4}-[0-9A-F]{4}$`)

func TestGenerateCaseIDFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		id, err := GenerateCaseID()
		require.NoError(t, err)
		assert.Regexp(t, caseIDPattern, id)
	}
}

func TestAssignCaseIDFirstCandidateFree(t *testing.T) {
	calls := 0
	exists := func(ctx context.Context, caseID string) (bool, error) {
		calls++
		return false, nil
	}

	id, err := AssignCaseID(context.Background(), exists)
	require.NoError(t, err)
	assert.Regexp(t, caseIDPattern, id)
	assert.Equal(t, 1, calls)
}

func TestAssignCaseIDRetriesOnCollision(t *testing.T) {
	calls := 0
	exists := func(ctx context.Context, caseID string) (bool, error) {
		calls++
		return calls < 4, nil
	}

	id, err := AssignCaseID(context.Background(), exists)
	require.NoError(t, err)
	assert.Regexp(t, caseIDPattern, id)
	assert.Equal(t, 4, calls)
}

func TestAssignCaseIDFallsBackAfterExhaustion(t *testing.T) {
	exists := func(ctx context.Context, caseID string) (bool, error) {
		return true, nil
	}

	id, err := AssignCaseID(context.Background(), exists)
	require.NoError(t, err)

	// Past the retry budget the second block becomes 8 hex chars of unix time
	assert.Regexp(t, `^CIVIC-[0-9A-F]{4}-[0-9A-F]{8}$`, id)
	assert.NotRegexp(t, caseIDPattern, id)
}

func TestAssignCaseIDBatchProducesNoDuplicates(t *testing.T) {
	taken := make(map[string]bool)
	exists := func(ctx context.Context, caseID string) (bool, error) {
		return taken[caseID], nil
	}

	// Pre-seed some occupied IDs so collisions are possible, not just fresh draws.
	for i := 0; i < 50; i++ {
		id, err := GenerateCaseID()
		require.NoError(t, err)
		taken[id] = true
	}

	for i := 0; i < 500; i++ {
		id, err := AssignCaseID(context.Background(), exists)
		require.NoError(t, err)
		assert.False(t, taken[id], "case ID %q assigned twice", id)
		taken[id] = true
	}
}

func TestAssignCaseIDPropagatesLookupError(t *testing.T) {
	exists := func(ctx context.Context, caseID string) (bool, error) {
		return false, assert.AnError
	}

	_, err := AssignCaseID(context.Background(), exists)
	assert.Error(t, err)
}
