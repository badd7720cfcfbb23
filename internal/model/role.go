package model

import (
	"fmt"
	"strings"
)

// Role is a user's permission level within one project
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleMember  Role = "member"
	RoleVisitor Role = "visitor"
)

// Roles lists roles from most to least privileged
var Roles = []Role{RoleAdmin, RoleManager, RoleMember, RoleVisitor}

// ParseRole validates a role name
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleAdmin, RoleManager, RoleMember, RoleVisitor:
		return r, nil
	}
	return "", fmt.Errorf("invalid role: %q", s)
}

// Capability names an action gated by role
type Capability string

const (
	CapViewTasks        Capability = "view_tasks"
	CapCreateTask       Capability = "create_task"
	CapEditAnyTask      Capability = "edit_any_task"
	CapEditOwnTask      Capability = "edit_own_task"
	CapDeleteAnyTask    Capability = "delete_any_task"
	CapDeleteOwnTask    Capability = "delete_own_task"
	CapManageProject    Capability = "manage_project"
	CapAddRemoveMembers Capability = "add_remove_members"
	CapAddComment       Capability = "add_comment"
	CapEditAnyComment   Capability = "edit_any_comment"
	CapEditOwnComment   Capability = "edit_own_comment"
)

var fullCapabilities = []Capability{
	CapViewTasks, CapCreateTask, CapEditAnyTask, CapDeleteAnyTask,
	CapManageProject, CapAddRemoveMembers, CapAddComment, CapEditAnyComment,
}

// capabilityTable mirrors the server's policy for UI gating only.
// The server makes the real decision.
var capabilityTable = map[Role][]Capability{
	RoleAdmin:   fullCapabilities,
	RoleManager: fullCapabilities,
	RoleMember: {
		CapViewTasks, CapCreateTask, CapEditOwnTask, CapDeleteOwnTask,
		CapAddComment, CapEditOwnComment,
	},
	RoleVisitor: {CapViewTasks},
}

// Capabilities returns a copy of the role's capability set
func Capabilities(r Role) []Capability {
	return append([]Capability(nil), capabilityTable[r]...)
}

// Can reports whether the role's capability set contains c
func (r Role) Can(c Capability) bool {
	for _, have := range capabilityTable[r] {
		if have == c {
			return true
		}
	}
	return false
}

// CanMoveItems reports whether the role may move items it does not own
func (r Role) CanMoveItems() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleMember
}
