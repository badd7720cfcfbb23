package model

import "strings"

// Project groups items and has a membership roster
type Project struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AdminID     int64  `json:"admin_id,omitempty"`
	OwnerTeam   *Team  `json:"owner_team,omitempty"`
}

// Team groups users; its members join every project linked to it
type Team struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AdminID     int64  `json:"admin_id,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// TeamMember is one user on a team roster
type TeamMember struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
}

// TeamDetail is a team with its roster and linked projects
type TeamDetail struct {
	Team
	Members  []TeamMember `json:"members"`
	Projects []Project    `json:"projects"`
}

// Member pairs a user with their role in one project
type Member struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role"`
}

// Column is a server-side board lane
type Column struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Order  int    `json:"order"`
	Status Status `json:"status,omitempty"`
}

// Key maps the column to a status key. An explicit status wins,
// otherwise the name is lower-cased with whitespace removed.
func (c Column) Key() Status {
	if c.Status != "" {
		return c.Status
	}
	return Status(strings.ToLower(strings.Join(strings.Fields(c.Name), "")))
}

// DefaultColumns are created for projects that lack them
func DefaultColumns() []Column {
	return []Column{
		{Name: "To Do", Order: 1, Status: StatusTodo},
		{Name: "In Progress", Order: 2, Status: StatusInProgress},
		{Name: "In Review", Order: 3, Status: StatusInReview},
		{Name: "Done", Order: 4, Status: StatusDone},
	}
}

// ReportStats are the item counts in a project report
type ReportStats struct {
	Total int `json:"total"`
	Done  int `json:"done"`
}

// Report summarises one project
type Report struct {
	Project struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"project"`
	Members []Member    `json:"members"`
	Stats   ReportStats `json:"stats"`
}

// DashboardStats are the caller's counts across projects
type DashboardStats struct {
	ProjectCount int `json:"projectCount"`
	TaskCount    int `json:"taskCount"`
	TeamCount    int `json:"teamCount"`
}

// Notification is a message addressed to the caller
type Notification struct {
	ID        int64  `json:"id"`
	Message   string `json:"message"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}
