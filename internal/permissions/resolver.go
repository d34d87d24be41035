package permissions

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docuvault/document-portal/document-portal-backend/internal/auth"
)

// Store looks up folder ACL rows for a set of roles. The workflow repository
// implements it so authorization reads run on the same transaction as the
// transition they gate.
type Store interface {
	ListFolderPermissions(ctx context.Context, tenantID, folderID uuid.UUID, roles []string) ([]FolderPermission, error)
}

// Resolver overlays folder-scoped ACLs on the actor's global permission set.
type Resolver struct {
	store  Store
	logger *zap.Logger
}

// NewResolver creates a folder permission resolver.
func NewResolver(store Store, logger *zap.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// ResolveAccess decides whether the actor may perform an operation that needs
// the given folder access level. When the folder carries no ACL rows for the
// actor's roles, authorization falls back to the global permission code; an
// empty fallback means the operation is unrestricted.
func (r *Resolver) ResolveAccess(ctx context.Context, actor auth.Actor, folderID *uuid.UUID, required AccessLevel, fallbackPermission string) (bool, error) {
	if folderID == nil {
		return r.fallback(actor, fallbackPermission), nil
	}

	perms, err := r.store.ListFolderPermissions(ctx, actor.TenantID, *folderID, actor.Roles)
	if err != nil {
		return false, err
	}
	if len(perms) == 0 {
		return r.fallback(actor, fallbackPermission), nil
	}

	for _, p := range perms {
		if p.Level.Satisfies(required) {
			return true, nil
		}
	}
	r.logger.Debug("Folder ACL denied access",
		zap.String("actor_id", actor.ID.String()),
		zap.String("folder_id", folderID.String()),
		zap.String("required_level", string(required)))
	return false, nil
}

func (r *Resolver) fallback(actor auth.Actor, fallbackPermission string) bool {
	if fallbackPermission == "" {
		return true
	}
	return actor.HasPermission(fallbackPermission)
}

// EffectivePermissionSet maps the actor's highest ACL level on a folder to the
// concrete permission codes it implies. Without any ACL row the actor's global
// permission set is returned unchanged.
func (r *Resolver) EffectivePermissionSet(ctx context.Context, actor auth.Actor, folderID *uuid.UUID) ([]string, error) {
	if folderID == nil {
		return append([]string(nil), actor.Permissions...), nil
	}

	perms, err := r.store.ListFolderPermissions(ctx, actor.TenantID, *folderID, actor.Roles)
	if err != nil {
		return nil, err
	}
	if len(perms) == 0 {
		return append([]string(nil), actor.Permissions...), nil
	}

	highest := perms[0].Level
	for _, p := range perms[1:] {
		if p.Level.Satisfies(highest) {
			highest = p.Level
		}
	}
	return append([]string(nil), permissionSetByLevel[highest]...), nil
}
