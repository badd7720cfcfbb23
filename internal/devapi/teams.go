package devapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/existflow/ironboard/internal/logger"
	"github.com/existflow/ironboard/internal/model"
	"github.com/labstack/echo/v4"
)

func (s *Server) accountByEmailLocked(email string) *account {
	email = strings.TrimSpace(email)
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

// teamParam loads the :id team. When admin is set only the team admin
// passes. It writes the error response itself when ok is false.
func (s *Server) teamParam(c echo.Context, admin bool) (int64, bool, error) {
	tid, err := paramID(c, "id")
	if err != nil {
		return 0, false, errorJSON(c, http.StatusBadRequest, "invalid team id")
	}
	s.mu.Lock()
	team, exists := s.teams[tid]
	isAdmin := exists && team.AdminID == currentUser(c)
	s.mu.Unlock()
	if !exists {
		return 0, false, errorJSON(c, http.StatusNotFound, "Team not found")
	}
	if admin && !isAdmin {
		return 0, false, errorJSON(c, http.StatusForbidden, "Forbidden: You are not the admin of this team.")
	}
	return tid, true, nil
}

func (s *Server) sortedTeamsLocked(keep func(tid int64) bool) []model.Team {
	out := make([]model.Team, 0, len(s.teams))
	for tid, t := range s.teams {
		if keep(tid) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) handleListTeams(c echo.Context) error {
	s.mu.Lock()
	teams := s.sortedTeamsLocked(func(int64) bool { return true })
	s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]interface{}{"teams": teams})
}

func (s *Server) handleMyTeams(c echo.Context) error {
	uid := currentUser(c)
	s.mu.Lock()
	teams := s.sortedTeamsLocked(func(tid int64) bool { return s.teamMembers[tid][uid] })
	s.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]interface{}{"teams": teams})
}

func (s *Server) handleCreateTeam(c echo.Context) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}
	if strings.TrimSpace(req.Name) == "" {
		return errorJSON(c, http.StatusBadRequest, "Team name is required")
	}

	uid := currentUser(c)
	s.mu.Lock()
	t := &model.Team{ID: s.newID(), Name: strings.TrimSpace(req.Name), Description: req.Description, AdminID: uid, CreatedAt: now()}
	s.teams[t.ID] = t
	s.teamMembers[t.ID] = map[int64]bool{uid: true}
	s.teamProjects[t.ID] = make(map[int64]bool)
	team := *t
	s.mu.Unlock()

	s.log.Info("Team created", logger.F("team", team.ID), logger.F("admin", uid))
	return c.JSON(http.StatusCreated, map[string]interface{}{"message": "Team created", "team": team})
}

func (s *Server) handleGetTeam(c echo.Context) error {
	tid, ok, err := s.teamParam(c, false)
	if !ok {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	team := s.teams[tid]
	detail := model.TeamDetail{Team: *team, Members: []model.TeamMember{}, Projects: []model.Project{}}
	for uid := range s.teamMembers[tid] {
		u := s.users[uid]
		if u == nil {
			continue
		}
		detail.Members = append(detail.Members, model.TeamMember{
			ID:       u.ID,
			Username: u.Username,
			Email:    u.Email,
			IsAdmin:  u.ID == team.AdminID,
		})
	}
	for pid := range s.teamProjects[tid] {
		if p := s.projects[pid]; p != nil {
			detail.Projects = append(detail.Projects, model.Project{ID: p.ID, Name: p.Name, Description: p.Description})
		}
	}
	sort.Slice(detail.Members, func(i, j int) bool { return detail.Members[i].ID < detail.Members[j].ID })
	sort.Slice(detail.Projects, func(i, j int) bool { return detail.Projects[i].ID < detail.Projects[j].ID })
	return c.JSON(http.StatusOK, detail)
}

func (s *Server) handleAddTeamMember(c echo.Context) error {
	tid, ok, err := s.teamParam(c, true)
	if !ok {
		return err
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return errorJSON(c, http.StatusBadRequest, "Email required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	target := s.accountByEmailLocked(req.Email)
	if target == nil {
		return errorJSON(c, http.StatusNotFound, "User not found")
	}
	if s.teamMembers[tid][target.ID] {
		return errorJSON(c, http.StatusConflict, "User already a member")
	}
	s.teamMembers[tid][target.ID] = true
	for pid := range s.teamProjects[tid] {
		s.grantLocked(pid, target.ID)
	}
	s.notifyLocked(target.ID, "You were added to team "+s.teams[tid].Name)
	return c.JSON(http.StatusOK, map[string]string{"message": "Member added"})
}

func (s *Server) handleRemoveTeamMember(c echo.Context) error {
	tid, ok, err := s.teamParam(c, true)
	if !ok {
		return err
	}
	uid, err := paramID(c, "userId")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid user id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.teamMembers[tid][uid] {
		return errorJSON(c, http.StatusNotFound, "Member not found")
	}
	if uid == s.teams[tid].AdminID {
		return errorJSON(c, http.StatusBadRequest, "Cannot remove the team admin")
	}
	for pid := range s.teamProjects[tid] {
		s.revokeLocked(pid, uid, tid)
	}
	delete(s.teamMembers[tid], uid)
	return c.JSON(http.StatusOK, map[string]string{"message": "Member removed"})
}

func (s *Server) handleLinkTeamProject(c echo.Context) error {
	tid, ok, err := s.teamParam(c, true)
	if !ok {
		return err
	}
	var req struct {
		ProjectID int64 `json:"project_id"`
	}
	if err := c.Bind(&req); err != nil || req.ProjectID == 0 {
		return errorJSON(c, http.StatusBadRequest, "Project ID required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.projects[req.ProjectID]
	if p == nil {
		return errorJSON(c, http.StatusNotFound, "Project not found")
	}
	if !s.allowedLocked(p.ID, currentUser(c), string(model.CapAddRemoveMembers)) {
		return errorJSON(c, http.StatusForbidden, "Permission denied")
	}
	if s.teamProjects[tid][p.ID] {
		return errorJSON(c, http.StatusConflict, "Project already associated")
	}
	s.teamProjects[tid][p.ID] = true
	if p.OwnerTeam == nil {
		t := s.teams[tid]
		p.OwnerTeam = &model.Team{ID: t.ID, Name: t.Name}
	}
	for uid := range s.teamMembers[tid] {
		s.grantLocked(p.ID, uid)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Project associated"})
}

func (s *Server) handleUnlinkTeamProject(c echo.Context) error {
	tid, ok, err := s.teamParam(c, true)
	if !ok {
		return err
	}
	pid, err := paramID(c, "projectId")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid project id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.teamProjects[tid][pid] {
		return errorJSON(c, http.StatusNotFound, "Project association not found")
	}
	for uid := range s.teamMembers[tid] {
		s.revokeLocked(pid, uid, tid)
	}
	delete(s.teamProjects[tid], pid)
	if p := s.projects[pid]; p != nil && p.OwnerTeam != nil && p.OwnerTeam.ID == tid {
		p.OwnerTeam = nil
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Project disassociated"})
}

// grantLocked adds uid to the project as a member unless already on it
func (s *Server) grantLocked(pid, uid int64) {
	if s.members[pid] == nil {
		s.members[pid] = make(map[int64]model.Role)
	}
	if _, ok := s.members[pid][uid]; !ok {
		s.members[pid][uid] = model.RoleMember
	}
}

// revokeLocked drops uid from the project unless another linked team
// still grants access or uid administers the project
func (s *Server) revokeLocked(pid, uid, leavingTeam int64) {
	if p := s.projects[pid]; p != nil && p.AdminID == uid {
		return
	}
	for tid, linked := range s.teamProjects {
		if tid != leavingTeam && linked[pid] && s.teamMembers[tid][uid] {
			return
		}
	}
	delete(s.members[pid], uid)
}
