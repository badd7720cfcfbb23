package devapi

import "github.com/existflow/ironboard/internal/model"

// Server-side permission names. The server's table is a superset of the
// client's gating table in model.
const (
	permChangeRoles         = "change_roles"
	permViewProjectSettings = "view_project_settings"
	permDeleteProject       = "delete_project"
	permTransferAdmin       = "transfer_admin"
	permDeleteAnyComment    = "delete_any_comment"
)

var roleDefs = map[model.Role][]string{
	model.RoleAdmin: {
		string(model.CapViewTasks), string(model.CapCreateTask),
		string(model.CapEditAnyTask), string(model.CapEditOwnTask),
		string(model.CapDeleteAnyTask), string(model.CapDeleteOwnTask),
		string(model.CapManageProject), string(model.CapAddRemoveMembers),
		permChangeRoles, permViewProjectSettings, permDeleteProject, permTransferAdmin,
		string(model.CapAddComment), string(model.CapEditAnyComment), string(model.CapEditOwnComment),
		permDeleteAnyComment,
	},
	model.RoleManager: {
		string(model.CapViewTasks), string(model.CapCreateTask),
		string(model.CapEditAnyTask), string(model.CapEditOwnTask),
		string(model.CapDeleteAnyTask), string(model.CapDeleteOwnTask),
		string(model.CapManageProject), string(model.CapAddRemoveMembers),
		permChangeRoles, permViewProjectSettings,
		string(model.CapAddComment), string(model.CapEditAnyComment), string(model.CapEditOwnComment),
		permDeleteAnyComment,
	},
	model.RoleMember: {
		string(model.CapViewTasks), string(model.CapCreateTask),
		string(model.CapEditOwnTask), string(model.CapDeleteOwnTask),
		permViewProjectSettings,
		string(model.CapAddComment), string(model.CapEditOwnComment),
	},
	model.RoleVisitor: {
		string(model.CapViewTasks), permViewProjectSettings,
	},
}

func roleHas(r model.Role, perm string) bool {
	for _, p := range roleDefs[r] {
		if p == perm {
			return true
		}
	}
	return false
}

// roleLocked returns the caller's role in a project, ok is false for
// non-members. s.mu must be held.
func (s *Server) roleLocked(projectID, userID int64) (model.Role, bool) {
	r, ok := s.members[projectID][userID]
	return r, ok
}

func (s *Server) allowedLocked(projectID, userID int64, perm string) bool {
	r, ok := s.roleLocked(projectID, userID)
	return ok && roleHas(r, perm)
}

// allowOwnLocked grants anyPerm outright, or ownPerm when the caller
// reported or is assigned the item
func (s *Server) allowOwnLocked(it *model.Item, userID int64, anyPerm, ownPerm string) bool {
	r, ok := s.roleLocked(it.ProjectID, userID)
	if !ok {
		return false
	}
	if roleHas(r, anyPerm) {
		return true
	}
	return roleHas(r, ownPerm) && (it.ReporterID == userID || it.IsAssignee(userID))
}
