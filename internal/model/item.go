package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Status is the board lane key an item belongs to
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "inprogress"
	StatusInReview   Status = "inreview"
	StatusDone       Status = "done"
)

// Statuses lists every status key in board order
var Statuses = []Status{StatusTodo, StatusInProgress, StatusInReview, StatusDone}

// Valid reports whether s is one of the known status keys
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusInReview, StatusDone:
		return true
	}
	return false
}

// Label returns the display name for the status
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusInReview:
		return "In Review"
	case StatusDone:
		return "Done"
	default:
		return string(s)
	}
}

// ParseStatus converts user input into a status key
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.Join(strings.Fields(s), "")))
	if !st.Valid() {
		return "", fmt.Errorf("invalid status: %q", s)
	}
	return st, nil
}

// ItemType is the kind of work item
type ItemType string

const (
	TypeTask    ItemType = "task"
	TypeBug     ItemType = "bug"
	TypeFeature ItemType = "feature"
	TypeEpic    ItemType = "epic"
)

// ParseItemType validates an item type
func ParseItemType(s string) (ItemType, error) {
	t := ItemType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TypeTask, TypeBug, TypeFeature, TypeEpic:
		return t, nil
	}
	return "", fmt.Errorf("invalid type: %q", s)
}

// Priority levels, as the API spells them
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// Priorities lists priorities from lowest to highest
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// ParsePriority accepts any casing of a priority name
func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("invalid priority: %q", s)
}

// Rank orders priorities, higher is more urgent. Unset ranks 0.
func (p Priority) Rank() int {
	for i, q := range Priorities {
		if p == q {
			return i + 1
		}
	}
	return 0
}

// MaxTitleLength is the server's limit on item titles
const MaxTitleLength = 120

// ValidateTitle checks an item title before it is sent
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return fmt.Errorf("title too long (max %d chars)", MaxTitleLength)
	}
	return nil
}

// DateLayout is the wire format for due dates
const DateLayout = "2006-01-02"

// Comment is a note attached to an item
type Comment struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"user_id"`
	AuthorName string `json:"author_name,omitempty"`
	Content    string `json:"content"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// ItemRef is the short form used for subtasks and parent epics
type ItemRef struct {
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	Status   Status   `json:"status"`
	Priority Priority `json:"priority,omitempty"`
	DueDate  string   `json:"due_date,omitempty"`
}

// Item is a task, bug, feature or epic as served by the API
type Item struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Type         ItemType  `json:"type"`
	Status       Status    `json:"status"`
	Priority     Priority  `json:"priority,omitempty"`
	ColumnID     int64     `json:"column_id,omitempty"`
	ProjectID    int64     `json:"project_id,omitempty"`
	AssigneeID   *int64    `json:"assignee_id,omitempty"`
	AssigneeName string    `json:"assignee_name,omitempty"`
	ReporterID   int64     `json:"reporter_id,omitempty"`
	ReporterName string    `json:"reporter_name,omitempty"`
	DueDate      string    `json:"due_date,omitempty"`
	ParentID     *int64    `json:"parent_id,omitempty"`
	ParentEpic   *ItemRef  `json:"parent_epic,omitempty"`
	Subtasks     []ItemRef `json:"subtasks,omitempty"`
	Comments     []Comment `json:"comments,omitempty"`
	CreatedAt    string    `json:"created_at,omitempty"`
	UpdatedAt    string    `json:"updated_at,omitempty"`
}

// Clone returns a copy that shares no pointers or slices with i
func (i Item) Clone() Item {
	c := i
	if i.AssigneeID != nil {
		v := *i.AssigneeID
		c.AssigneeID = &v
	}
	if i.ParentID != nil {
		v := *i.ParentID
		c.ParentID = &v
	}
	if i.ParentEpic != nil {
		v := *i.ParentEpic
		c.ParentEpic = &v
	}
	if i.Subtasks != nil {
		c.Subtasks = append([]ItemRef(nil), i.Subtasks...)
	}
	if i.Comments != nil {
		c.Comments = append([]Comment(nil), i.Comments...)
	}
	return c
}

// IsAssignee reports whether userID is assigned to the item
func (i *Item) IsAssignee(userID int64) bool {
	return i.AssigneeID != nil && *i.AssigneeID == userID
}

// Due parses the due date, ok is false when unset or malformed
func (i *Item) Due() (time.Time, bool) {
	if i.DueDate == "" {
		return time.Time{}, false
	}
	// The detail endpoint may send a full timestamp
	s := i.DueDate
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsOverdue returns true if the item is unfinished and past its due date
func (i *Item) IsOverdue(now time.Time) bool {
	due, ok := i.Due()
	if !ok || i.Status == StatusDone {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return due.Before(today)
}

// ItemDraft is the body of a create request
type ItemDraft struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Type        ItemType `json:"type"`
	Status      Status   `json:"status"`
	ColumnID    int64    `json:"column_id"`
	Priority    Priority `json:"priority,omitempty"`
	AssigneeID  *int64   `json:"assignee_id,omitempty"`
	DueDate     string   `json:"due_date,omitempty"`
	ParentID    *int64   `json:"parent_id,omitempty"`
}

// Validate mirrors the server's create checks
func (d ItemDraft) Validate() error {
	if err := ValidateTitle(d.Title); err != nil {
		return err
	}
	if d.ColumnID == 0 {
		return fmt.Errorf("column required")
	}
	if !d.Status.Valid() {
		return fmt.Errorf("invalid status: %q", d.Status)
	}
	if _, err := ParseItemType(string(d.Type)); err != nil {
		return err
	}
	if d.Priority != "" {
		if _, err := ParsePriority(string(d.Priority)); err != nil {
			return err
		}
	}
	if d.DueDate != "" {
		if _, err := time.Parse(DateLayout, d.DueDate); err != nil {
			return fmt.Errorf("invalid due date %q, want YYYY-MM-DD", d.DueDate)
		}
	}
	return nil
}

// ItemPatch is a partial update; nil fields are left untouched
type ItemPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Type        *ItemType `json:"type,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	ColumnID    *int64    `json:"column_id,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	AssigneeID  *int64    `json:"assignee_id,omitempty"`
	DueDate     *string   `json:"due_date,omitempty"`
}

// MovePatch builds the update sent when an item changes lane
func MovePatch(status Status, columnID int64) ItemPatch {
	return ItemPatch{Status: &status, ColumnID: &columnID}
}

// Empty reports whether the patch changes nothing
func (p ItemPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Type == nil && p.Status == nil &&
		p.ColumnID == nil && p.Priority == nil && p.AssigneeID == nil && p.DueDate == nil
}

// Validate mirrors the server's update checks
func (p ItemPatch) Validate() error {
	if p.Title != nil {
		if err := ValidateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("invalid status: %q", *p.Status)
	}
	if p.Type != nil {
		if _, err := ParseItemType(string(*p.Type)); err != nil {
			return err
		}
	}
	if p.Priority != nil {
		if _, err := ParsePriority(string(*p.Priority)); err != nil {
			return err
		}
	}
	if p.DueDate != nil && *p.DueDate != "" {
		if _, err := time.Parse(DateLayout, *p.DueDate); err != nil {
			return fmt.Errorf("invalid due date %q, want YYYY-MM-DD", *p.DueDate)
		}
	}
	return nil
}
