package devapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/existflow/ironboard/internal/logger"
	"github.com/existflow/ironboard/internal/model"
	"github.com/labstack/echo/v4"
)

// projectParam loads the :id project and checks the caller's permission.
// It writes the error response itself when ok is false.
func (s *Server) projectParam(c echo.Context, perm string) (int64, bool, error) {
	pid, err := paramID(c, "id")
	if err != nil {
		return 0, false, errorJSON(c, http.StatusBadRequest, "invalid project id")
	}
	s.mu.Lock()
	_, exists := s.projects[pid]
	allowed := s.allowedLocked(pid, currentUser(c), perm)
	s.mu.Unlock()
	if !exists {
		return 0, false, errorJSON(c, http.StatusNotFound, "Project not found")
	}
	if !allowed {
		return 0, false, errorJSON(c, http.StatusForbidden, "Permission denied")
	}
	return pid, true, nil
}

func (s *Server) handleListProjects(c echo.Context) error {
	uid := currentUser(c)
	s.mu.Lock()
	out := make([]model.Project, 0)
	for pid, p := range s.projects {
		if _, ok := s.members[pid][uid]; ok {
			out = append(out, *p)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return c.JSON(http.StatusOK, map[string]interface{}{"projects": out})
}

func (s *Server) handleGetProject(c echo.Context) error {
	pid, ok, err := s.projectParam(c, string(model.CapViewTasks))
	if !ok {
		return err
	}
	s.mu.Lock()
	p := *s.projects[pid]
	s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]interface{}{"project": p})
}

func (s *Server) handleCreateProject(c echo.Context) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Name) == "" {
		return errorJSON(c, http.StatusBadRequest, "Project name is required")
	}

	s.mu.Lock()
	p := s.createProjectLocked(req.Name, req.Description, currentUser(c))
	s.mu.Unlock()

	s.log.Info("Project created", logger.F("project", p.ID), logger.F("name", p.Name))
	return c.JSON(http.StatusCreated, map[string]interface{}{"project": p})
}

func (s *Server) handleProjectProgress(c echo.Context) error {
	pid, ok, err := s.projectParam(c, string(model.CapViewTasks))
	if !ok {
		return err
	}
	var progress struct {
		Total      int `json:"total"`
		Completed  int `json:"completed"`
		InProgress int `json:"in_progress"`
		Todo       int `json:"todo"`
	}
	s.mu.Lock()
	for _, it := range s.items {
		if it.ProjectID != pid {
			continue
		}
		progress.Total++
		switch it.Status {
		case model.StatusDone:
			progress.Completed++
		case model.StatusInProgress, model.StatusInReview:
			progress.InProgress++
		default:
			progress.Todo++
		}
	}
	s.mu.Unlock()
	return c.JSON(http.StatusOK, progress)
}

func (s *Server) handleProjectReport(c echo.Context) error {
	pid, ok, err := s.projectParam(c, string(model.CapViewTasks))
	if !ok {
		return err
	}
	var report model.Report
	s.mu.Lock()
	report.Project.ID = pid
	report.Project.Name = s.projects[pid].Name
	report.Members = s.rosterLocked(pid)
	for _, it := range s.items {
		if it.ProjectID != pid {
			continue
		}
		report.Stats.Total++
		if it.Status == model.StatusDone {
			report.Stats.Done++
		}
	}
	s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]interface{}{"report": report})
}

func (s *Server) rosterLocked(pid int64) []model.Member {
	out := make([]model.Member, 0, len(s.members[pid]))
	for uid, role := range s.members[pid] {
		m := model.Member{UserID: uid, Role: role}
		if u := s.users[uid]; u != nil {
			m.Username = u.Username
			m.Email = u.Email
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

func (s *Server) handleListMembers(c echo.Context) error {
	pid, ok, err := s.projectParam(c, permViewProjectSettings)
	if !ok {
		return err
	}
	s.mu.Lock()
	members := s.rosterLocked(pid)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]interface{}{"members": members})
}

func (s *Server) handleAddMember(c echo.Context) error {
	pid, ok, err := s.projectParam(c, string(model.CapAddRemoveMembers))
	if !ok {
		return err
	}
	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}
	role := model.RoleMember
	if req.Role != "" {
		r, err := model.ParseRole(req.Role)
		if err != nil {
			return errorJSON(c, http.StatusBadRequest, "Invalid role")
		}
		role = r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	target := s.accountByEmailLocked(req.Email)
	if target == nil {
		return errorJSON(c, http.StatusNotFound, "User not found")
	}
	if _, exists := s.members[pid][target.ID]; exists {
		return errorJSON(c, http.StatusConflict, "User is already a member")
	}
	s.members[pid][target.ID] = role
	s.notifyLocked(target.ID, "You were added to project "+s.projects[pid].Name)
	return c.JSON(http.StatusCreated, map[string]string{"message": "Member added"})
}

func (s *Server) handleUpdateMemberRole(c echo.Context) error {
	pid, ok, err := s.projectParam(c, permChangeRoles)
	if !ok {
		return err
	}
	uid, err := paramID(c, "userId")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid user id")
	}
	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid role")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.members[pid][uid]; !exists {
		return errorJSON(c, http.StatusNotFound, "Member not found")
	}
	if uid == s.projects[pid].AdminID && role != model.RoleAdmin {
		return errorJSON(c, http.StatusBadRequest, "Cannot demote the project admin")
	}
	s.members[pid][uid] = role
	return c.JSON(http.StatusOK, map[string]string{"message": "Role updated"})
}

func (s *Server) handleRemoveMember(c echo.Context) error {
	pid, ok, err := s.projectParam(c, string(model.CapAddRemoveMembers))
	if !ok {
		return err
	}
	uid, err := paramID(c, "userId")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid user id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.members[pid][uid]; !exists {
		return errorJSON(c, http.StatusNotFound, "Member not found")
	}
	if uid == s.projects[pid].AdminID {
		return errorJSON(c, http.StatusBadRequest, "Cannot remove the project admin")
	}
	delete(s.members[pid], uid)
	return c.JSON(http.StatusOK, map[string]string{"message": "Member removed"})
}

func (s *Server) handleListColumns(c echo.Context) error {
	pid, ok, err := s.projectParam(c, string(model.CapViewTasks))
	if !ok {
		return err
	}
	s.mu.Lock()
	cols := s.sortedColumnsLocked(pid)
	s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]interface{}{"columns": cols})
}

func (s *Server) handleCreateColumn(c echo.Context) error {
	pid, ok, err := s.projectParam(c, string(model.CapManageProject))
	if !ok {
		return err
	}
	var req struct {
		Name  string `json:"name"`
		Order int    `json:"order"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Name) == "" {
		return errorJSON(c, http.StatusBadRequest, "Column name is required")
	}

	s.mu.Lock()
	col := model.Column{ID: s.newID(), Name: req.Name, Order: req.Order}
	s.columns[pid] = append(s.columns[pid], col)
	s.mu.Unlock()

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"column": map[string]interface{}{"id": col.ID, "name": col.Name},
	})
}
