package model

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestColumnKey(t *testing.T) {
	require.Equal(t, StatusInProgress, Column{Name: "In Progress"}.Key())
	require.Equal(t, StatusTodo, Column{Name: "To Do"}.Key())
	require.Equal(t, StatusDone, Column{Name: "Whatever", Status: StatusDone}.Key())
	require.False(t, Column{Name: "Backlog"}.Key().Valid())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("In Review")
	require.NoError(t, err)
	require.Equal(t, StatusInReview, s)

	_, err = ParseStatus("blocked")
	require.Error(t, err)
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("critical")
	require.NoError(t, err)
	require.Equal(t, PriorityCritical, p)
	require.Greater(t, PriorityHigh.Rank(), PriorityLow.Rank())
	require.Zero(t, Priority("").Rank())
}

func TestValidateTitle(t *testing.T) {
	require.Error(t, ValidateTitle("   "))
	require.NoError(t, ValidateTitle(strings.Repeat("é", MaxTitleLength)))
	require.Error(t, ValidateTitle(strings.Repeat("x", MaxTitleLength+1)))
}

func TestItemDraftValidate(t *testing.T) {
	d := ItemDraft{Title: "Write docs", Type: TypeTask, Status: StatusTodo, ColumnID: 3}
	require.NoError(t, d.Validate())

	d.DueDate = "next week"
	require.Error(t, d.Validate())

	d.DueDate = ""
	d.ColumnID = 0
	require.Error(t, d.Validate())
}

func TestMovePatch(t *testing.T) {
	p := MovePatch(StatusDone, 9)
	require.False(t, p.Empty())
	require.Equal(t, StatusDone, *p.Status)
	require.Equal(t, int64(9), *p.ColumnID)
	require.NoError(t, p.Validate())
	require.True(t, ItemPatch{}.Empty())
}

func TestItemClone(t *testing.T) {
	a := int64(4)
	it := Item{ID: 1, AssigneeID: &a, Comments: []Comment{{ID: 1, Content: "hi"}}}
	c := it.Clone()
	*c.AssigneeID = 5
	c.Comments[0].Content = "changed"
	require.Equal(t, int64(4), *it.AssigneeID)
	require.Equal(t, "hi", it.Comments[0].Content)
}

func TestItemOverdue(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.Local)
	it := Item{Status: StatusTodo, DueDate: "2024-03-09"}
	require.True(t, it.IsOverdue(now))

	it.DueDate = "2024-03-10T00:00:00"
	require.False(t, it.IsOverdue(now))

	it.DueDate = "2024-03-01"
	it.Status = StatusDone
	require.False(t, it.IsOverdue(now))
}

func TestRoleCapabilities(t *testing.T) {
	require.True(t, RoleAdmin.Can(CapAddRemoveMembers))
	require.True(t, RoleManager.Can(CapDeleteAnyTask))
	require.True(t, RoleMember.Can(CapEditOwnTask))
	require.False(t, RoleMember.Can(CapEditAnyTask))
	require.Equal(t, []Capability{CapViewTasks}, Capabilities(RoleVisitor))
	require.False(t, Role("").Can(CapViewTasks))
	require.False(t, RoleVisitor.CanMoveItems())

	caps := Capabilities(RoleAdmin)
	caps[0] = "mutated"
	require.True(t, RoleAdmin.Can(CapViewTasks))
}
