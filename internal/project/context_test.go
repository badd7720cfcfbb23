package project

import (
	"context"
	"errors"
	"testing"

	"github.com/existflow/ironboard/internal/logger"
	"github.com/existflow/ironboard/internal/model"
	"github.com/stretchr/testify/require"
)

// gatedLister serves rosters from a map, optionally blocking until
// release is closed
type gatedLister struct {
	rosters map[int64][]model.Member
	started chan int64
	release chan struct{}
	err     error
}

func (g *gatedLister) ListMembers(ctx context.Context, projectID int64) ([]model.Member, error) {
	if g.started != nil {
		g.started <- projectID
	}
	if g.release != nil {
		<-g.release
	}
	if g.err != nil {
		return nil, g.err
	}
	return g.rosters[projectID], nil
}

var (
	alice = &model.User{ID: 1, Username: "alice"}
	p1    = &model.Project{ID: 10, Name: "P1", AdminID: 1}
	p2    = &model.Project{ID: 20, Name: "P2", AdminID: 99}
)

func allCapabilities() []model.Capability {
	return model.Capabilities(model.RoleAdmin)
}

func newContext(l MemberLister) *Context {
	c := New(l)
	c.SetLogger(logger.Nop())
	return c
}

func TestResolveRole(t *testing.T) {
	lister := &gatedLister{rosters: map[int64][]model.Member{
		10: {{UserID: 1, Role: model.RoleMember}, {UserID: 2, Role: model.RoleAdmin}},
	}}
	c := newContext(lister)
	c.SetUser(alice)
	c.Select(p1)

	require.False(t, c.HasPermission(model.CapViewTasks))
	require.NoError(t, c.Resolve(context.Background()))

	require.Equal(t, model.RoleMember, c.Role())
	require.True(t, c.HasPermission(model.CapCreateTask))
	require.True(t, c.HasPermission(model.CapEditOwnTask))
	require.False(t, c.HasPermission(model.CapEditAnyTask))
	require.False(t, c.HasPermission(model.CapAddRemoveMembers))
	require.Len(t, c.Members(), 2)
}

func TestSwitchProjectClearsRole(t *testing.T) {
	lister := &gatedLister{rosters: map[int64][]model.Member{
		10: {{UserID: 1, Role: model.RoleAdmin}},
		20: {{UserID: 7, Role: model.RoleAdmin}},
	}}
	c := newContext(lister)
	c.SetUser(alice)
	c.Select(p1)
	require.NoError(t, c.Resolve(context.Background()))
	for _, capability := range allCapabilities() {
		require.True(t, c.HasPermission(capability), capability)
	}

	lister.started = make(chan int64, 1)
	lister.release = make(chan struct{})
	c.Select(p2)

	done := make(chan error, 1)
	go func() { done <- c.Resolve(context.Background()) }()
	require.Equal(t, int64(20), <-lister.started)

	require.True(t, c.Loading())
	for _, capability := range allCapabilities() {
		require.False(t, c.HasPermission(capability), capability)
	}

	close(lister.release)
	require.NoError(t, <-done)
	require.Equal(t, model.Role(""), c.Role())
	for _, capability := range allCapabilities() {
		require.False(t, c.HasPermission(capability), capability)
	}
}

func TestStaleRosterIsDiscarded(t *testing.T) {
	lister := &gatedLister{
		rosters: map[int64][]model.Member{10: {{UserID: 1, Role: model.RoleAdmin}}},
		started: make(chan int64, 1),
		release: make(chan struct{}),
	}
	c := newContext(lister)
	c.SetUser(alice)
	c.Select(p1)

	done := make(chan error, 1)
	go func() { done <- c.Resolve(context.Background()) }()
	<-lister.started

	// The user switches away before the P1 roster lands
	c.Select(p2)
	close(lister.release)
	require.NoError(t, <-done)

	require.Equal(t, model.Role(""), c.Role())
	require.False(t, c.HasPermission(model.CapViewTasks))
	require.Equal(t, int64(20), c.Project().ID)
}

func TestUserChangeClearsRole(t *testing.T) {
	lister := &gatedLister{rosters: map[int64][]model.Member{10: {{UserID: 1, Role: model.RoleManager}}}}
	c := newContext(lister)
	c.SetUser(alice)
	c.Select(p1)
	require.NoError(t, c.Resolve(context.Background()))
	require.True(t, c.HasPermission(model.CapManageProject))

	c.SetUser(nil)
	require.False(t, c.HasPermission(model.CapViewTasks))
	require.NoError(t, c.Resolve(context.Background()))
	require.Nil(t, c.User())
}

func TestResolveError(t *testing.T) {
	boom := errors.New("boom")
	c := newContext(&gatedLister{err: boom})
	c.SetUser(alice)
	c.Select(p1)

	err := c.Resolve(context.Background())
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, c.Err(), boom)
	require.False(t, c.Loading())
	require.False(t, c.HasPermission(model.CapViewTasks))
}

func TestCanMove(t *testing.T) {
	bob := int64(2)
	lister := &gatedLister{rosters: map[int64][]model.Member{
		10: {{UserID: 1, Role: model.RoleVisitor}},
		20: {{UserID: 1, Role: model.RoleVisitor}},
	}}
	c := newContext(lister)
	c.SetUser(alice)

	c.Select(p2)
	require.NoError(t, c.Resolve(context.Background()))
	require.False(t, c.CanMove(&model.Item{ID: 1, ReporterID: 3, AssigneeID: &bob}))
	require.True(t, c.CanMove(&model.Item{ID: 2, ReporterID: 1}))

	own := int64(1)
	require.True(t, c.CanMove(&model.Item{ID: 3, ReporterID: 3, AssigneeID: &own}))

	// Visitor who administers the project
	c.Select(p1)
	require.NoError(t, c.Resolve(context.Background()))
	require.True(t, c.CanMove(&model.Item{ID: 4, ReporterID: 3}))
}

func TestOnChangeFires(t *testing.T) {
	n := 0
	c := newContext(&gatedLister{rosters: map[int64][]model.Member{}})
	c.SetOnChange(func() { n++ })
	c.SetUser(alice)
	c.Select(p1)
	require.NoError(t, c.Resolve(context.Background()))
	require.GreaterOrEqual(t, n, 4)
}
