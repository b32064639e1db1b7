package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicsync/civicsync-backend/internal/apperr"
	"github.com/civicsync/civicsync-backend/internal/models"
)

// fakeAppraisalStore keeps the like ledger in memory.
type fakeAppraisalStore struct {
	targets map[string]bool // key -> public
	likes   map[string]map[uuid.UUID]struct{}
}

func newFakeAppraisalStore() *fakeAppraisalStore {
	return &fakeAppraisalStore{
		targets: make(map[string]bool),
		likes:   make(map[string]map[uuid.UUID]struct{}),
	}
}

func (s *fakeAppraisalStore) addTarget(t TargetRef, public bool) {
	s.targets[t.Key()] = public
}

func (s *fakeAppraisalStore) TargetPublic(_ context.Context, t TargetRef) (bool, bool, error) {
	public, ok := s.targets[t.Key()]
	return ok, public, nil
}

func (s *fakeAppraisalStore) Exists(_ context.Context, userID uuid.UUID, t TargetRef) (bool, error) {
	_, ok := s.likes[t.Key()][userID]
	return ok, nil
}

func (s *fakeAppraisalStore) Insert(_ context.Context, userID uuid.UUID, t TargetRef) error {
	if s.likes[t.Key()] == nil {
		s.likes[t.Key()] = make(map[uuid.UUID]struct{})
	}
	s.likes[t.Key()][userID] = struct{}{}
	return nil
}

func (s *fakeAppraisalStore) Delete(_ context.Context, userID uuid.UUID, t TargetRef) error {
	delete(s.likes[t.Key()], userID)
	return nil
}

func (s *fakeAppraisalStore) Count(_ context.Context, t TargetRef) (int, error) {
	return len(s.likes[t.Key()]), nil
}

func issueTarget() TargetRef {
	return TargetRef{Kind: models.TargetIssue, ID: uuid.New()}
}

func TestToggleAppraisalRoundTrip(t *testing.T) {
	store := newFakeAppraisalStore()
	target := issueTarget()
	store.addTarget(target, true)
	user := uuid.New()

	liked, count, aerr := ToggleAppraisal(context.Background(), store, user, target)
	require.Nil(t, aerr)
	assert.True(t, liked)
	assert.Equal(t, 1, count)

	liked, count, aerr = ToggleAppraisal(context.Background(), store, user, target)
	require.Nil(t, aerr)
	assert.False(t, liked)
	assert.Equal(t, 0, count)
}

func TestToggleAppraisalCountsPerUser(t *testing.T) {
	store := newFakeAppraisalStore()
	target := issueTarget()
	store.addTarget(target, true)

	for i := 0; i < 3; i++ {
		_, count, aerr := ToggleAppraisal(context.Background(), store, uuid.New(), target)
		require.Nil(t, aerr)
		assert.Equal(t, i+1, count)
	}
}

func TestToggleAppraisalMissingTarget(t *testing.T) {
	store := newFakeAppraisalStore()

	_, _, aerr := ToggleAppraisal(context.Background(), store, uuid.New(), issueTarget())
	require.NotNil(t, aerr)
	assert.Equal(t, apperr.NotFound, aerr.Kind)
}

func TestToggleAppraisalPrivateTarget(t *testing.T) {
	store := newFakeAppraisalStore()
	target := issueTarget()
	store.addTarget(target, false)

	_, _, aerr := ToggleAppraisal(context.Background(), store, uuid.New(), target)
	require.NotNil(t, aerr)
	assert.Equal(t, apperr.Forbidden, aerr.Kind)
}

func TestToggleAppraisalRejectsUnknownKind(t *testing.T) {
	store := newFakeAppraisalStore()

	_, _, aerr := ToggleAppraisal(context.Background(), store, uuid.New(),
		TargetRef{Kind: "comment", ID: uuid.New()})
	require.NotNil(t, aerr)
	assert.Equal(t, apperr.Validation, aerr.Kind)
}

func TestAppraisalCountsIncludesZeros(t *testing.T) {
	store := newFakeAppraisalStore()
	liked := issueTarget()
	unliked := TargetRef{Kind: models.TargetSuggestion, ID: uuid.New()}
	store.addTarget(liked, true)

	_, _, aerr := ToggleAppraisal(context.Background(), store, uuid.New(), liked)
	require.Nil(t, aerr)

	counts, aerr := AppraisalCounts(context.Background(), store, []TargetRef{liked, unliked})
	require.Nil(t, aerr)
	assert.Equal(t, 1, counts[liked.Key()])

	// Never-liked items show up with an explicit zero
	zero, present := counts[unliked.Key()]
	assert.True(t, present)
	assert.Equal(t, 0, zero)
}

func TestTargetRefKey(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, "issue_"+id.String(), TargetRef{Kind: models.TargetIssue, ID: id}.Key())
}
