package devapi

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/existflow/ironboard/internal/logger"
	"github.com/existflow/ironboard/internal/model"
	"github.com/labstack/echo/v4"
)

const defaultPageSize = 50

// itemParam loads the :id item. It writes the error response itself
// when ok is false.
func (s *Server) itemParam(c echo.Context) (model.Item, bool, error) {
	id, err := paramID(c, "id")
	if err != nil {
		return model.Item{}, false, errorJSON(c, http.StatusBadRequest, "invalid item id")
	}
	s.mu.Lock()
	it, exists := s.items[id]
	var snapshot model.Item
	if exists {
		snapshot = it.Clone()
	}
	s.mu.Unlock()
	if !exists {
		return model.Item{}, false, errorJSON(c, http.StatusNotFound, "Item not found")
	}
	return snapshot, true, nil
}

func now() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05")
}

func (s *Server) handleListItems(c echo.Context) error {
	pid, ok, err := s.projectParam(c, string(model.CapViewTasks))
	if !ok {
		return err
	}
	limit := defaultPageSize
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
		offset = v
	}

	s.mu.Lock()
	all := make([]model.Item, 0)
	for _, it := range s.items {
		if it.ProjectID != pid {
			continue
		}
		row := it.Clone()
		row.Comments = nil
		row.Subtasks = nil
		row.ParentEpic = nil
		s.fillNamesLocked(&row)
		all = append(all, row)
	}
	s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	page := []model.Item{}
	if offset < total {
		end := offset + limit
		if end > total {
			end = total
		}
		page = all[offset:end]
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"items":  page,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) fillNamesLocked(it *model.Item) {
	if it.AssigneeID != nil {
		if u := s.users[*it.AssigneeID]; u != nil {
			it.AssigneeName = u.Username
		}
	}
	if u := s.users[it.ReporterID]; u != nil {
		it.ReporterName = u.Username
	}
}

func validateDraft(d model.ItemDraft) error {
	if err := model.ValidateTitle(d.Title); err != nil {
		return err
	}
	if !d.Status.Valid() {
		return fmt.Errorf("Invalid status")
	}
	if _, err := model.ParseItemType(string(d.Type)); err != nil {
		return fmt.Errorf("Invalid type")
	}
	if d.Priority != "" && d.Priority.Rank() == 0 {
		return fmt.Errorf("Invalid priority")
	}
	return nil
}

func (s *Server) handleCreateItem(c echo.Context) error {
	pid, ok, err := s.projectParam(c, string(model.CapCreateTask))
	if !ok {
		return err
	}
	var d model.ItemDraft
	if err := c.Bind(&d); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}
	if d.Type == "" {
		d.Type = model.TypeTask
	}
	if d.Status == "" {
		d.Status = model.StatusTodo
	}
	if err := validateDraft(d); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	uid := currentUser(c)
	s.mu.Lock()
	it := &model.Item{
		ID:          s.newID(),
		Title:       d.Title,
		Description: d.Description,
		Type:        d.Type,
		Status:      d.Status,
		Priority:    d.Priority,
		ColumnID:    d.ColumnID,
		ProjectID:   pid,
		AssigneeID:  d.AssigneeID,
		ReporterID:  uid,
		DueDate:     d.DueDate,
		ParentID:    d.ParentID,
		CreatedAt:   now(),
	}
	if it.ColumnID == 0 {
		it.ColumnID = s.columnForLocked(pid, it.Status)
	}
	it.UpdatedAt = it.CreatedAt
	s.items[it.ID] = it
	if it.AssigneeID != nil && *it.AssigneeID != uid {
		s.notifyLocked(*it.AssigneeID, "You were assigned to "+it.Title)
	}
	s.mu.Unlock()

	s.log.Info("Item created", logger.F("item", it.ID), logger.F("project", pid))
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"item": map[string]interface{}{"id": it.ID, "title": it.Title},
	})
}

func (s *Server) handleGetItem(c echo.Context) error {
	it, ok, err := s.itemParam(c)
	if !ok {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.allowedLocked(it.ProjectID, currentUser(c), string(model.CapViewTasks)) {
		return errorJSON(c, http.StatusForbidden, "Permission denied")
	}
	s.fillNamesLocked(&it)
	it.Subtasks = []model.ItemRef{}
	for _, other := range s.items {
		if other.ParentID != nil && *other.ParentID == it.ID {
			it.Subtasks = append(it.Subtasks, model.ItemRef{
				ID: other.ID, Title: other.Title, Status: other.Status,
				Priority: other.Priority, DueDate: other.DueDate,
			})
		}
	}
	sort.Slice(it.Subtasks, func(i, j int) bool { return it.Subtasks[i].ID < it.Subtasks[j].ID })
	if it.ParentID != nil {
		if parent := s.items[*it.ParentID]; parent != nil {
			it.ParentEpic = &model.ItemRef{ID: parent.ID, Title: parent.Title, Status: parent.Status}
		}
	}
	if it.Comments == nil {
		it.Comments = []model.Comment{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"item": it})
}

func (s *Server) handleUpdateItem(c echo.Context) error {
	it, ok, err := s.itemParam(c)
	if !ok {
		return err
	}
	var p model.ItemPatch
	if err := c.Bind(&p); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request")
	}
	if err := p.Validate(); err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	uid := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.allowOwnLocked(&it, uid, string(model.CapEditAnyTask), string(model.CapEditOwnTask)) {
		return errorJSON(c, http.StatusForbidden, "Permission denied")
	}

	stored := s.items[it.ID]
	if stored == nil {
		return errorJSON(c, http.StatusNotFound, "Item not found")
	}
	if p.Title != nil {
		stored.Title = *p.Title
	}
	if p.Description != nil {
		stored.Description = *p.Description
	}
	if p.Type != nil {
		stored.Type = *p.Type
	}
	if p.Status != nil {
		stored.Status = *p.Status
	}
	if p.ColumnID != nil {
		stored.ColumnID = *p.ColumnID
	}
	if p.Priority != nil {
		stored.Priority = *p.Priority
	}
	if p.AssigneeID != nil {
		v := *p.AssigneeID
		stored.AssigneeID = &v
		if v != uid {
			s.notifyLocked(v, "You were assigned to "+stored.Title)
		}
	}
	if p.DueDate != nil {
		stored.DueDate = *p.DueDate
	}
	stored.UpdatedAt = now()
	return c.JSON(http.StatusOK, map[string]string{"message": "Item updated"})
}

func (s *Server) handleDeleteItem(c echo.Context) error {
	it, ok, err := s.itemParam(c)
	if !ok {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.allowOwnLocked(&it, currentUser(c), string(model.CapDeleteAnyTask), string(model.CapDeleteOwnTask)) {
		return errorJSON(c, http.StatusForbidden, "Permission denied")
	}
	delete(s.items, it.ID)
	return c.JSON(http.StatusOK, map[string]string{"message": "Item deleted"})
}

func (s *Server) handleAddComment(c echo.Context) error {
	it, ok, err := s.itemParam(c)
	if !ok {
		return err
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil || req.Content == "" {
		return errorJSON(c, http.StatusBadRequest, "Content required")
	}

	uid := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.allowedLocked(it.ProjectID, uid, string(model.CapAddComment)) {
		return errorJSON(c, http.StatusForbidden, "Permission denied")
	}
	stored := s.items[it.ID]
	if stored == nil {
		return errorJSON(c, http.StatusNotFound, "Item not found")
	}
	author := s.users[uid]
	comment := model.Comment{
		ID:         s.newID(),
		UserID:     uid,
		AuthorName: author.Username,
		Content:    req.Content,
		CreatedAt:  now(),
	}
	stored.Comments = append(stored.Comments, comment)

	msg := author.Username + " commented on " + stored.Title
	if stored.AssigneeID != nil && *stored.AssigneeID != uid {
		s.notifyLocked(*stored.AssigneeID, msg)
	}
	if stored.ReporterID != uid && !stored.IsAssignee(stored.ReporterID) {
		s.notifyLocked(stored.ReporterID, msg)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"comment": comment})
}
