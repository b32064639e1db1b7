package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicsync/civicsync-backend/internal/apperr"
	"github.com/civicsync/civicsync-backend/internal/models"
)

func userPrincipal() Principal {
	return Principal{Authenticated: true, ID: uuid.New(), Role: models.RoleUser}
}

func adminPrincipal(counties ...string) Principal {
	return Principal{Authenticated: true, ID: uuid.New(), Role: models.RoleAdmin, Counties: counties}
}

func TestCanViewPublicIsOpenToEveryone(t *testing.T) {
	ref := ContentRef{OwnerID: uuid.New(), County: "Cork", IsPublic: true}

	assert.Nil(t, CanView(Anonymous(), ref))
	assert.Nil(t, CanView(userPrincipal(), ref))
	assert.Nil(t, CanView(adminPrincipal("Kerry"), ref))
}

func TestCanViewPrivateAnonymous(t *testing.T) {
	ref := ContentRef{OwnerID: uuid.New(), County: "Cork", IsPublic: false}

	err := CanView(Anonymous(), ref)
	require.NotNil(t, err)
	assert.Equal(t, apperr.Unauthorized, err.Kind)
}

func TestCanViewPrivateOwner(t *testing.T) {
	p := userPrincipal()
	ref := ContentRef{OwnerID: p.ID, County: "Cork", IsPublic: false}

	assert.Nil(t, CanView(p, ref))
}

func TestCanViewPrivateStranger(t *testing.T) {
	ref := ContentRef{OwnerID: uuid.New(), County: "Cork", IsPublic: false}

	err := CanView(userPrincipal(), ref)
	require.NotNil(t, err)
	assert.Equal(t, apperr.Forbidden, err.Kind)
}

func TestCanViewPrivateAdminCountyScoped(t *testing.T) {
	ref := ContentRef{OwnerID: uuid.New(), County: "Cork", IsPublic: false}

	assert.Nil(t, CanView(adminPrincipal("Cork"), ref))

	err := CanView(adminPrincipal("Kerry"), ref)
	require.NotNil(t, err)
	assert.Equal(t, apperr.Forbidden, err.Kind)
}

func TestCanModifyMirrorsOwnershipRegardlessOfVisibility(t *testing.T) {
	owner := userPrincipal()
	ref := ContentRef{OwnerID: owner.ID, County: "Mayo", IsPublic: true}

	assert.Nil(t, CanModify(owner, ref))
	assert.Nil(t, CanModify(adminPrincipal("Mayo"), ref))

	err := CanModify(userPrincipal(), ref)
	require.NotNil(t, err)
	assert.Equal(t, apperr.Forbidden, err.Kind)

	err = CanModify(Anonymous(), ref)
	require.NotNil(t, err)
	assert.Equal(t, apperr.Unauthorized, err.Kind)
}

func TestCountsViewOnlyPublic(t *testing.T) {
	assert.True(t, CountsView(ContentRef{IsPublic: true}))
	assert.False(t, CountsView(ContentRef{IsPublic: false}))
}

func TestManagesCounty(t *testing.T) {
	admin := adminPrincipal("Cork", "Kerry")
	assert.True(t, admin.ManagesCounty("Kerry"))
	assert.False(t, admin.ManagesCounty("Dublin"))

	// A plain user never manages a county
	u := userPrincipal()
	u.Counties = []string{"Cork"}
	assert.False(t, u.ManagesCounty("Cork"))
}
