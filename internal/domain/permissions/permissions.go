// Package permissions answers "can this actor perform this action on this
// resource". Reads are open to everyone, so only write-path checks live here.
package permissions

import "yamdb/proj/internal/domain/models"

// CanManageContent gates writes to categories, genres and titles, and the
// user-administration endpoints. Admin role or the superuser override only.
func CanManageContent(u *models.User) bool {
	if u.IsAnonymous() {
		return false
	}
	return u.EffectiveRole().AtLeast(models.RoleAdmin)
}

// CanCreateAuthored gates review/comment creation: any authenticated user.
func CanCreateAuthored(u *models.User) bool {
	return !u.IsAnonymous()
}

// CanEditAuthored gates update/delete on a review or comment: the author
// themselves, or anyone at moderator level and above.
func CanEditAuthored(u *models.User, authorID int64) bool {
	if u.IsAnonymous() {
		return false
	}
	if u.ID == authorID {
		return true
	}
	return u.EffectiveRole().AtLeast(models.RoleModerator)
}

// SanitizeRoleChange implements the silent downgrade on self-service profile
// updates: a plain user may not grant themselves a privileged role, the
// requested value is replaced with "user" rather than rejected.
func SanitizeRoleChange(u *models.User, requested models.Role) models.Role {
	if u.Role == models.RoleUser && !u.IsSuperuser {
		return models.RoleUser
	}
	return requested
}
