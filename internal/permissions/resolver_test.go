package permissions

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"docuvault/document-portal/document-portal-backend/internal/auth"
)

type fakeStore struct {
	perms []FolderPermission
	err   error
}

func (s *fakeStore) ListFolderPermissions(ctx context.Context, tenantID, folderID uuid.UUID, roles []string) ([]FolderPermission, error) {
	return s.perms, s.err
}

func TestAccessLevelSatisfies(t *testing.T) {
	assert.True(t, LevelWrite.Satisfies(LevelRead))
	assert.True(t, LevelWrite.Satisfies(LevelReview))
	assert.True(t, LevelReview.Satisfies(LevelRead))
	assert.False(t, LevelReview.Satisfies(LevelWrite))
	assert.False(t, LevelRead.Satisfies(LevelReview))
	assert.True(t, LevelRead.Satisfies(LevelRead))
}

func TestResolveAccessNoFolderFallsBackToGlobal(t *testing.T) {
	r := NewResolver(&fakeStore{}, zap.NewNop())
	actor := auth.Actor{ID: uuid.New(), TenantID: uuid.New(), Permissions: []string{PermDocumentsApprove}}

	allowed, err := r.ResolveAccess(context.Background(), actor, nil, LevelReview, PermDocumentsApprove)
	assert.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = r.ResolveAccess(context.Background(), actor, nil, LevelWrite, PermDocumentsEdit)
	assert.NoError(t, err)
	assert.False(t, allowed)
}

func TestResolveAccessUnrestrictedWithoutFallback(t *testing.T) {
	r := NewResolver(&fakeStore{}, zap.NewNop())
	actor := auth.Actor{ID: uuid.New(), TenantID: uuid.New()}

	allowed, err := r.ResolveAccess(context.Background(), actor, nil, LevelRead, "")
	assert.NoError(t, err)
	assert.True(t, allowed)
}

func TestResolveAccessEmptyACLFallsBackToGlobal(t *testing.T) {
	r := NewResolver(&fakeStore{}, zap.NewNop())
	folderID := uuid.New()
	actor := auth.Actor{
		ID:          uuid.New(),
		TenantID:    uuid.New(),
		Roles:       []string{"author"},
		Permissions: []string{PermDocumentsEdit},
	}

	allowed, err := r.ResolveAccess(context.Background(), actor, &folderID, LevelWrite, PermDocumentsEdit)
	assert.NoError(t, err)
	assert.True(t, allowed)
}

func TestResolveAccessACLOverridesGlobal(t *testing.T) {
	folderID := uuid.New()
	tenantID := uuid.New()
	store := &fakeStore{perms: []FolderPermission{
		{TenantID: tenantID, FolderID: folderID, Role: "author", Level: LevelRead},
	}}
	r := NewResolver(store, zap.NewNop())

	// The actor's global edit permission does not help once the folder
	// carries an ACL row for their role.
	actor := auth.Actor{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Roles:       []string{"author"},
		Permissions: []string{PermDocumentsEdit},
	}
	allowed, err := r.ResolveAccess(context.Background(), actor, &folderID, LevelWrite, PermDocumentsEdit)
	assert.NoError(t, err)
	assert.False(t, allowed)
}

func TestResolveAccessHierarchicalGrant(t *testing.T) {
	folderID := uuid.New()
	tenantID := uuid.New()
	store := &fakeStore{perms: []FolderPermission{
		{TenantID: tenantID, FolderID: folderID, Role: "qa", Level: LevelWrite},
	}}
	r := NewResolver(store, zap.NewNop())
	actor := auth.Actor{ID: uuid.New(), TenantID: tenantID, Roles: []string{"qa"}}

	for _, required := range []AccessLevel{LevelRead, LevelReview, LevelWrite} {
		allowed, err := r.ResolveAccess(context.Background(), actor, &folderID, required, PermDocumentsEdit)
		assert.NoError(t, err)
		assert.True(t, allowed, string(required))
	}
}

func TestEffectivePermissionSetMapsACLLevel(t *testing.T) {
	folderID := uuid.New()
	tenantID := uuid.New()
	store := &fakeStore{perms: []FolderPermission{
		{TenantID: tenantID, FolderID: folderID, Role: "qa", Level: LevelRead},
		{TenantID: tenantID, FolderID: folderID, Role: "reviewer", Level: LevelReview},
	}}
	r := NewResolver(store, zap.NewNop())
	actor := auth.Actor{ID: uuid.New(), TenantID: tenantID, Roles: []string{"qa", "reviewer"}}

	// The highest level across the actor's roles wins.
	set, err := r.EffectivePermissionSet(context.Background(), actor, &folderID)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{PermDocumentsRead, PermDocumentsApprove, PermDocumentsReject}, set)
}

func TestEffectivePermissionSetWithoutACLReturnsGlobal(t *testing.T) {
	r := NewResolver(&fakeStore{}, zap.NewNop())
	folderID := uuid.New()
	actor := auth.Actor{
		ID:          uuid.New(),
		TenantID:    uuid.New(),
		Permissions: []string{PermDocumentsRead, PermDocumentsEdit},
	}

	set, err := r.EffectivePermissionSet(context.Background(), actor, &folderID)
	assert.NoError(t, err)
	assert.ElementsMatch(t, actor.Permissions, set)
}
