package devapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/existflow/ironboard/internal/logger"
	"github.com/existflow/ironboard/internal/model"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(WithSecret([]byte("test-secret")), WithLogger(logger.Nop()))
}

func call(t *testing.T, s *Server, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func seedToken(t *testing.T, s *Server, name string) (model.User, string) {
	t.Helper()
	u, err := s.SeedUser(name, name+"@example.com", "password123")
	require.NoError(t, err)
	tok, err := s.IssueToken(u.ID, time.Hour)
	require.NoError(t, err)
	return u, tok
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	rec, _ := call(t, s, http.MethodPost, "/register", "", map[string]string{
		"username": "ana", "email": "ana@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = call(t, s, http.MethodPost, "/register", "", map[string]string{
		"username": "ana", "email": "ana@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec, body := call(t, s, http.MethodPost, "/login", "", map[string]string{
		"email": "ana@example.com", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid email or password", body["error"])

	rec, body = call(t, s, http.MethodPost, "/login", "", map[string]string{
		"email": "ana@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	rec, body = call(t, s, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ana", body["username"])
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	rec, _ := call(t, s, http.MethodGet, "/projects", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = call(t, s, http.MethodGet, "/projects", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	u, _ := seedToken(t, s, "bo")
	expired, err := s.IssueToken(u.ID, -time.Minute)
	require.NoError(t, err)
	rec, _ = call(t, s, http.MethodGet, "/projects", expired, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateProjectBootstrapsColumns(t *testing.T) {
	s := newTestServer(t)
	u, tok := seedToken(t, s, "cy")

	rec, body := call(t, s, http.MethodPost, "/projects", tok, map[string]string{"name": "Apollo"})
	require.Equal(t, http.StatusCreated, rec.Code)
	p := body["project"].(map[string]interface{})
	pid := int64(p["id"].(float64))
	require.Equal(t, float64(u.ID), p["admin_id"])

	cols := s.Columns(pid)
	require.Len(t, cols, 4)
	require.Equal(t, "To Do", cols[0].Name)
	require.Equal(t, model.StatusInReview, cols[2].Key())

	rec, body = call(t, s, http.MethodGet, fmt.Sprintf("/projects/%d/members", pid), tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	members := body["members"].([]interface{})
	require.Len(t, members, 1)
	require.Equal(t, "admin", members[0].(map[string]interface{})["role"])
}

func TestItemPermissions(t *testing.T) {
	s := newTestServer(t)
	admin, _ := seedToken(t, s, "admin")
	member, memberTok := seedToken(t, s, "member")
	visitor, visitorTok := seedToken(t, s, "visitor")

	p := s.SeedProject("P", admin.ID)
	s.AddMember(p.ID, member.ID, model.RoleMember)
	s.AddMember(p.ID, visitor.ID, model.RoleVisitor)

	mine := s.SeedItem(p.ID, model.Item{Title: "mine", ReporterID: member.ID})
	theirs := s.SeedItem(p.ID, model.Item{Title: "theirs", ReporterID: admin.ID})
	move := model.MovePatch(model.StatusDone, s.Columns(p.ID)[3].ID)

	rec, _ := call(t, s, http.MethodPatch, fmt.Sprintf("/items/%d", mine.ID), memberTok, move)
	require.Equal(t, http.StatusOK, rec.Code)
	got, _ := s.Item(mine.ID)
	require.Equal(t, model.StatusDone, got.Status)

	rec, _ = call(t, s, http.MethodPatch, fmt.Sprintf("/items/%d", theirs.ID), memberTok, move)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = call(t, s, http.MethodPatch, fmt.Sprintf("/items/%d", mine.ID), visitorTok, move)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = call(t, s, http.MethodGet, fmt.Sprintf("/projects/%d/members", p.ID), visitorTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestListItemsPaginates(t *testing.T) {
	s := newTestServer(t)
	u, tok := seedToken(t, s, "dee")
	p := s.SeedProject("P", u.ID)
	for i := 0; i < 5; i++ {
		s.SeedItem(p.ID, model.Item{Title: fmt.Sprintf("t%d", i), ReporterID: u.ID})
	}

	rec, body := call(t, s, http.MethodGet, fmt.Sprintf("/items/projects/%d/items?limit=2&offset=4", p.ID), tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(5), body["total"])
	require.Len(t, body["items"].([]interface{}), 1)

	rec, body = call(t, s, http.MethodGet, fmt.Sprintf("/items/projects/%d/items", p.ID), tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(defaultPageSize), body["limit"])
}

func TestCommentNotifiesAssigneeAndReporter(t *testing.T) {
	s := newTestServer(t)
	admin, adminTok := seedToken(t, s, "admin")
	worker, workerTok := seedToken(t, s, "worker")
	p := s.SeedProject("P", admin.ID)
	s.AddMember(p.ID, worker.ID, model.RoleMember)

	assignee := worker.ID
	it := s.SeedItem(p.ID, model.Item{Title: "thing", ReporterID: admin.ID, AssigneeID: &assignee})

	rec, body := call(t, s, http.MethodPost, fmt.Sprintf("/items/%d/comments", it.ID), adminTok, map[string]string{"content": "hi"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "admin", body["comment"].(map[string]interface{})["author_name"])

	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+workerTok)
	out := httptest.NewRecorder()
	s.Handler().ServeHTTP(out, req)
	var notes []model.Notification
	require.NoError(t, json.Unmarshal(out.Body.Bytes(), &notes))
	require.Len(t, notes, 1)
	require.Contains(t, notes[0].Message, "commented on thing")
}

func TestFailNext(t *testing.T) {
	s := newTestServer(t)
	u, tok := seedToken(t, s, "eve")
	p := s.SeedProject("P", u.ID)

	s.FailNext(http.MethodGet, "/projects", http.StatusInternalServerError)
	path := fmt.Sprintf("/projects/%d", p.ID)

	rec, body := call(t, s, http.MethodGet, path, tok, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "injected failure", body["error"])

	rec, _ = call(t, s, http.MethodGet, path, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, s.CountRequests(http.MethodGet, path))
}

func TestTeamMembershipFollowsLinkedProjects(t *testing.T) {
	s := newTestServer(t)
	ana, anaTok := seedToken(t, s, "ana")
	bo, boTok := seedToken(t, s, "bo")
	p := s.SeedProject("P", ana.ID)

	rec, body := call(t, s, http.MethodPost, "/teams", anaTok, map[string]string{"name": "Core"})
	require.Equal(t, http.StatusCreated, rec.Code)
	core := int64(body["team"].(map[string]interface{})["id"].(float64))
	_, body = call(t, s, http.MethodPost, "/teams", anaTok, map[string]string{"name": "Ops"})
	ops := int64(body["team"].(map[string]interface{})["id"].(float64))

	// Only the team admin manages the roster
	rec, _ = call(t, s, http.MethodPost, fmt.Sprintf("/teams/%d/members", core), boTok, map[string]string{"email": "bo@example.com"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	for _, tid := range []int64{core, ops} {
		rec, _ = call(t, s, http.MethodPost, fmt.Sprintf("/teams/%d/members", tid), anaTok, map[string]string{"email": "bo@example.com"})
		require.Equal(t, http.StatusOK, rec.Code)
		rec, _ = call(t, s, http.MethodPost, fmt.Sprintf("/teams/%d/projects", tid), anaTok, map[string]int64{"project_id": p.ID})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, _ = call(t, s, http.MethodPost, fmt.Sprintf("/teams/%d/projects", core), anaTok, map[string]int64{"project_id": p.ID})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = call(t, s, http.MethodGet, fmt.Sprintf("/projects/%d", p.ID), boTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Still reachable through the other team
	rec, _ = call(t, s, http.MethodDelete, fmt.Sprintf("/teams/%d/projects/%d", core, p.ID), anaTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = call(t, s, http.MethodGet, fmt.Sprintf("/projects/%d", p.ID), boTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = call(t, s, http.MethodDelete, fmt.Sprintf("/teams/%d/members/%d", ops, bo.ID), anaTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = call(t, s, http.MethodGet, fmt.Sprintf("/projects/%d", p.ID), boTok, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// The project admin keeps the project
	rec, _ = call(t, s, http.MethodDelete, fmt.Sprintf("/teams/%d/projects/%d", ops, p.ID), anaTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = call(t, s, http.MethodGet, fmt.Sprintf("/projects/%d", p.ID), anaTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = call(t, s, http.MethodGet, "/dashboard/stats", boTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(1), body["teamCount"])
}

func TestLinkingNeedsProjectRights(t *testing.T) {
	s := newTestServer(t)
	ana, _ := seedToken(t, s, "ana")
	_, boTok := seedToken(t, s, "bo")
	p := s.SeedProject("P", ana.ID)

	_, body := call(t, s, http.MethodPost, "/teams", boTok, map[string]string{"name": "Raiders"})
	tid := int64(body["team"].(map[string]interface{})["id"].(float64))

	rec, _ := call(t, s, http.MethodPost, fmt.Sprintf("/teams/%d/projects", tid), boTok, map[string]int64{"project_id": p.ID})
	require.Equal(t, http.StatusForbidden, rec.Code)
}
