package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicsync/civicsync-backend/internal/apperr"
)

// fakeLocationStore keeps county assignments in a map, enforcing the same
// one-admin-per-county rule as the real table.
type fakeLocationStore struct {
	byCounty map[string]uuid.UUID
	emails   map[uuid.UUID]string
}

func newFakeLocationStore() *fakeLocationStore {
	return &fakeLocationStore{
		byCounty: make(map[string]uuid.UUID),
		emails:   make(map[uuid.UUID]string),
	}
}

func (s *fakeLocationStore) ReplaceAll(_ context.Context, adminID uuid.UUID, counties []string) ([]CountyOwner, error) {
	var conflicts []CountyOwner
	for _, c := range counties {
		if owner, held := s.byCounty[c]; held && owner != adminID {
			conflicts = append(conflicts, CountyOwner{County: c, AdminID: owner, AdminEmail: s.emails[owner]})
		}
	}
	if len(conflicts) > 0 {
		return conflicts, nil
	}

	for c, owner := range s.byCounty {
		if owner == adminID {
			delete(s.byCounty, c)
		}
	}
	for _, c := range counties {
		s.byCounty[c] = adminID
	}
	return nil, nil
}

func (s *fakeLocationStore) CountiesFor(_ context.Context, adminID uuid.UUID) ([]string, error) {
	var out []string
	for c, owner := range s.byCounty {
		if owner == adminID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeLocationStore) AdminForCounty(_ context.Context, county string) (uuid.UUID, bool, error) {
	owner, ok := s.byCounty[county]
	return owner, ok, nil
}

func TestAssignCountiesHappyPath(t *testing.T) {
	store := newFakeLocationStore()
	adminID := uuid.New()

	counties, aerr := AssignCounties(context.Background(), store, adminID, []string{"Cork", "Kerry"})
	require.Nil(t, aerr)
	assert.ElementsMatch(t, []string{"Cork", "Kerry"}, counties)

	got, _ := store.CountiesFor(context.Background(), adminID)
	assert.ElementsMatch(t, []string{"Cork", "Kerry"}, got)
}

func TestAssignCountiesIsFullReplacement(t *testing.T) {
	store := newFakeLocationStore()
	adminID := uuid.New()

	_, aerr := AssignCounties(context.Background(), store, adminID, []string{"Cork", "Kerry"})
	require.Nil(t, aerr)

	// Resending without Kerry drops it
	_, aerr = AssignCounties(context.Background(), store, adminID, []string{"Cork"})
	require.Nil(t, aerr)

	got, _ := store.CountiesFor(context.Background(), adminID)
	assert.Equal(t, []string{"Cork"}, got)
}

func TestAssignCountiesConflictLeavesSetUntouched(t *testing.T) {
	store := newFakeLocationStore()
	holder := uuid.New()
	store.emails[holder] = "holder@example.com"

	_, aerr := AssignCounties(context.Background(), store, holder, []string{"Dublin"})
	require.Nil(t, aerr)

	claimant := uuid.New()
	_, aerr = AssignCounties(context.Background(), store, claimant, []string{"Galway"})
	require.Nil(t, aerr)

	// Dublin is taken, so the whole request fails and Galway survives
	_, aerr = AssignCounties(context.Background(), store, claimant, []string{"Dublin", "Meath"})
	require.NotNil(t, aerr)
	assert.Equal(t, apperr.CountyConflict, aerr.Kind)

	owners, ok := aerr.Details.([]CountyOwner)
	require.True(t, ok)
	require.Len(t, owners, 1)
	assert.Equal(t, "Dublin", owners[0].County)
	assert.Equal(t, "holder@example.com", owners[0].AdminEmail)

	got, _ := store.CountiesFor(context.Background(), claimant)
	assert.Equal(t, []string{"Galway"}, got)
}

func TestAssignCountiesRejectsEmptySet(t *testing.T) {
	store := newFakeLocationStore()

	_, aerr := AssignCounties(context.Background(), store, uuid.New(), nil)
	require.NotNil(t, aerr)
	assert.Equal(t, apperr.Validation, aerr.Kind)
}

func TestAssignCountiesRejectsUnknownCounty(t *testing.T) {
	store := newFakeLocationStore()

	_, aerr := AssignCounties(context.Background(), store, uuid.New(), []string{"Cork", "Narnia"})
	require.NotNil(t, aerr)
	assert.Equal(t, apperr.Validation, aerr.Kind)

	// Nothing was applied
	got, _ := store.CountiesFor(context.Background(), uuid.New())
	assert.Empty(t, got)
}

func TestAssignCountiesDeduplicates(t *testing.T) {
	store := newFakeLocationStore()
	adminID := uuid.New()

	counties, aerr := AssignCounties(context.Background(), store, adminID, []string{"Cork", "Cork", " Kerry "})
	require.Nil(t, aerr)
	assert.Equal(t, []string{"Cork", "Kerry"}, counties)
}

func TestAssignCountiesReassignOwnCountyIsNotAConflict(t *testing.T) {
	store := newFakeLocationStore()
	adminID := uuid.New()

	_, aerr := AssignCounties(context.Background(), store, adminID, []string{"Cork"})
	require.Nil(t, aerr)

	_, aerr = AssignCounties(context.Background(), store, adminID, []string{"Cork", "Clare"})
	require.Nil(t, aerr)
}
