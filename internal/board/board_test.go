package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/existflow/ironboard/internal/api"
	"github.com/existflow/ironboard/internal/logger"
	"github.com/existflow/ironboard/internal/model"
	"github.com/existflow/ironboard/internal/notify"
	"github.com/stretchr/testify/require"
)

type patchCall struct {
	id    int64
	patch model.ItemPatch
}

// fakeService is an in-memory ItemService. When applyPatches is set,
// successful updates are written back to items.
type fakeService struct {
	mu           sync.Mutex
	columns      []model.Column
	items        []model.Item
	updateErr    error
	applyPatches bool
	patches      []patchCall
	lists        int
	created      []model.Column

	// listGates are handed out one per ListItems call; a gated call
	// blocks until its channel delivers the items to return
	listGates []chan []model.Item
}

func (f *fakeService) ListColumns(ctx context.Context, projectID int64) ([]model.Column, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Column(nil), f.columns...), nil
}

func (f *fakeService) CreateColumn(ctx context.Context, projectID int64, col model.Column) (*model.Column, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	col.ID = int64(100 + len(f.columns))
	f.columns = append(f.columns, col)
	f.created = append(f.created, col)
	return &col, nil
}

func (f *fakeService) ListItems(ctx context.Context, projectID int64) ([]model.Item, error) {
	f.mu.Lock()
	f.lists++
	var gate chan []model.Item
	if len(f.listGates) > 0 {
		gate = f.listGates[0]
		f.listGates = f.listGates[1:]
	}
	f.mu.Unlock()
	if gate != nil {
		return <-gate, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneItems(f.items), nil
}

func (f *fakeService) UpdateItem(ctx context.Context, id int64, patch model.ItemPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = append(f.patches, patchCall{id: id, patch: patch})
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.applyPatches {
		for i := range f.items {
			if f.items[i].ID == id {
				f.items[i].Status = *patch.Status
				f.items[i].ColumnID = *patch.ColumnID
			}
		}
	}
	return nil
}

func (f *fakeService) patchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.patches)
}

type gateFunc func(*model.Item) bool

func (g gateFunc) CanMove(it *model.Item) bool { return g(it) }

var defaultCols = []model.Column{
	{ID: 1, Name: "To Do", Order: 1},
	{ID: 2, Name: "In Progress", Order: 2},
	{ID: 3, Name: "In Review", Order: 3},
	{ID: 4, Name: "Done", Order: 4},
}

func newFake() *fakeService {
	return &fakeService{
		columns: append([]model.Column(nil), defaultCols...),
		items: []model.Item{
			{ID: 10, Title: "T", Status: model.StatusTodo, ColumnID: 1},
			{ID: 11, Title: "U", Status: model.StatusTodo, ColumnID: 1},
			{ID: 12, Title: "V", Status: model.StatusInProgress, ColumnID: 2},
		},
		applyPatches: true,
	}
}

func newBoard(t *testing.T, svc ItemService, opts ...Option) *Board {
	t.Helper()
	opts = append([]Option{WithLogger(logger.Nop())}, opts...)
	b := New(7, svc, opts...)
	t.Cleanup(b.Close)
	require.NoError(t, b.Load(context.Background()))
	return b
}

// ids renders the displayed board as status -> item ids
func ids(b *Board) map[model.Status][]int64 {
	out := make(map[model.Status][]int64)
	for _, lane := range b.Display() {
		out[lane.Status] = []int64{}
		for _, it := range lane.Items {
			out[lane.Status] = append(out[lane.Status], it.ID)
		}
	}
	return out
}

func TestLoadGroupsByStatus(t *testing.T) {
	b := newBoard(t, newFake())
	got := ids(b)
	require.Equal(t, []int64{10, 11}, got[model.StatusTodo])
	require.Equal(t, []int64{12}, got[model.StatusInProgress])
	require.Empty(t, got[model.StatusInReview])
	require.Empty(t, got[model.StatusDone])

	lanes := b.Display()
	require.Len(t, lanes, 4)
	require.Equal(t, int64(2), lanes[1].Column.ID)
	require.True(t, b.Loaded())
}

func TestColumnsDedupedAndOrdered(t *testing.T) {
	svc := newFake()
	svc.columns = []model.Column{
		{ID: 9, Name: "Done", Order: 4},
		{ID: 5, Name: "To Do", Order: 1},
		{ID: 6, Name: "todo", Order: 2},
		{ID: 7, Name: "Backlog", Order: 0},
	}
	b := newBoard(t, svc)

	lanes := b.Display()
	require.Equal(t, int64(5), lanes[0].Column.ID)
	require.Zero(t, lanes[1].Column.ID)
	require.Equal(t, int64(9), lanes[3].Column.ID)
	require.Equal(t, []model.Status{model.StatusInProgress, model.StatusInReview}, b.MissingColumns())
}

func TestEnsureColumnsCreatesMissing(t *testing.T) {
	svc := newFake()
	svc.columns = []model.Column{{ID: 1, Name: "To Do", Order: 1}}
	b := newBoard(t, svc)

	n, err := b.EnsureColumns(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Len(t, svc.created, 3)
	require.Equal(t, "In Progress", svc.created[0].Name)
	require.Empty(t, b.MissingColumns())

	n, err = b.EnsureColumns(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestUnknownStatusOmitted(t *testing.T) {
	svc := newFake()
	svc.items = append(svc.items, model.Item{ID: 99, Status: "archived"})
	b := newBoard(t, svc)
	_, ok := b.Item(99)
	require.False(t, ok)
}

func TestMoveScenario(t *testing.T) {
	svc := newFake()
	svc.updateErr = &api.Error{Status: 500, Message: "boom"}
	center := notify.NewCenter(time.Hour)
	t.Cleanup(center.Stop)
	b := newBoard(t, svc, WithRevertDelay(30*time.Millisecond), WithNotifier(center))
	before := ids(b)

	require.NoError(t, b.BeginDrag(10))
	mv, outcome := b.Drop(model.StatusInProgress)
	require.Equal(t, Moved, outcome)

	// (a) optimistic: gone from todo, head of inprogress with new status
	got := ids(b)
	require.Equal(t, []int64{11}, got[model.StatusTodo])
	require.Equal(t, []int64{10, 12}, got[model.StatusInProgress])
	moved, ok := b.Item(10)
	require.True(t, ok)
	require.Equal(t, model.StatusInProgress, moved.Status)
	require.Equal(t, int64(2), moved.ColumnID)

	// (b) the PATCH carries status and destination column
	err := b.Commit(context.Background(), mv)
	require.Error(t, err)
	require.Len(t, svc.patches, 1)
	require.Equal(t, int64(10), svc.patches[0].id)
	require.Equal(t, model.StatusInProgress, *svc.patches[0].patch.Status)
	require.Equal(t, int64(2), *svc.patches[0].patch.ColumnID)

	// (c) reverted at once, overlay dropped after the delay
	require.Equal(t, before, ids(b))
	require.True(t, b.HasOverlay())
	n, ok := center.Latest()
	require.True(t, ok)
	require.Equal(t, "Failed to move task: boom", n.Message)

	require.Eventually(t, func() bool { return !b.HasOverlay() }, time.Second, 5*time.Millisecond)
	require.Equal(t, before, ids(b))
}

func TestRollbackOnTransportError(t *testing.T) {
	svc := newFake()
	svc.updateErr = api.ErrTransport
	b := newBoard(t, svc, WithRevertDelay(10*time.Millisecond))
	before := ids(b)

	outcome, err := b.MoveItem(context.Background(), 12, model.StatusDone)
	require.Equal(t, Moved, outcome)
	require.ErrorIs(t, err, api.ErrTransport)
	require.Eventually(t, func() bool { return !b.HasOverlay() }, time.Second, 5*time.Millisecond)
	require.Equal(t, before, ids(b))
	// Never retried
	require.Equal(t, 1, svc.patchCount())
}

func TestSuccessReplacesOverlayWithServerState(t *testing.T) {
	svc := newFake()
	svc.applyPatches = false
	b := newBoard(t, svc)

	require.NoError(t, b.BeginDrag(10))
	mv, _ := b.Drop(model.StatusDone)

	// The server reports something other than the optimistic guess
	svc.mu.Lock()
	svc.items = []model.Item{
		{ID: 10, Status: model.StatusInReview, ColumnID: 3},
		{ID: 12, Status: model.StatusInProgress, ColumnID: 2},
	}
	svc.mu.Unlock()

	require.NoError(t, b.Commit(context.Background(), mv))
	require.False(t, b.HasOverlay())
	require.False(t, b.Syncing())

	got := ids(b)
	require.Empty(t, got[model.StatusTodo])
	require.Equal(t, []int64{12}, got[model.StatusInProgress])
	require.Equal(t, []int64{10}, got[model.StatusInReview])
	require.Empty(t, got[model.StatusDone])
}

func TestSameColumnDropIsNoop(t *testing.T) {
	svc := newFake()
	b := newBoard(t, svc)
	before := ids(b)
	lists := svc.lists

	require.NoError(t, b.BeginDrag(10))
	mv, outcome := b.Drop(model.StatusTodo)
	require.Nil(t, mv)
	require.Equal(t, Noop, outcome)

	mv, outcome = b.Drop(model.StatusDone)
	require.Nil(t, mv)
	require.Equal(t, Noop, outcome, "no gesture is live")

	require.NoError(t, b.BeginDrag(11))
	mv, outcome = b.Drop("nowhere")
	require.Nil(t, mv)
	require.Equal(t, Noop, outcome)

	require.Equal(t, before, ids(b))
	require.False(t, b.HasOverlay())
	require.Zero(t, svc.patchCount())
	require.Equal(t, lists, svc.lists)
}

func TestVisitorGateDenies(t *testing.T) {
	svc := newFake()
	visitor := gateFunc(func(*model.Item) bool { return false })
	b := newBoard(t, svc, WithGate(visitor))
	before := ids(b)

	outcome, err := b.MoveItem(context.Background(), 10, model.StatusDone)
	require.NoError(t, err)
	require.Equal(t, Denied, outcome)
	require.Zero(t, svc.patchCount())
	require.False(t, b.HasOverlay())
	require.Equal(t, before, ids(b))
	_, dragging := b.Dragged()
	require.False(t, dragging)
}

func TestDropOnMissingColumn(t *testing.T) {
	svc := newFake()
	svc.columns = defaultCols[:2]
	b := newBoard(t, svc)

	outcome, err := b.MoveItem(context.Background(), 10, model.StatusDone)
	require.NoError(t, err)
	require.Equal(t, NoColumn, outcome)
	require.Zero(t, svc.patchCount())
}

func TestOneGestureAtATime(t *testing.T) {
	b := newBoard(t, newFake())
	require.NoError(t, b.BeginDrag(10))
	require.ErrorIs(t, b.BeginDrag(11), ErrDragActive)

	d, ok := b.Dragged()
	require.True(t, ok)
	require.Equal(t, int64(10), d.Item.ID)
	require.Equal(t, model.StatusTodo, d.From)

	b.SetTarget(model.StatusInReview)
	d, _ = b.Dragged()
	require.Equal(t, model.StatusInReview, d.Target)

	b.CancelDrag()
	require.ErrorIs(t, b.BeginDrag(404), ErrUnknownItem)
	require.NoError(t, b.BeginDrag(11))
}

func TestStaleRefetchKeepsNewerOverlay(t *testing.T) {
	svc := newFake()
	b := newBoard(t, svc)
	ctx := context.Background()

	// Gesture 1 succeeds; its re-fetch is held open
	require.NoError(t, b.BeginDrag(10))
	mv1, _ := b.Drop(model.StatusDone)
	gate := make(chan []model.Item)
	svc.mu.Lock()
	svc.listGates = append(svc.listGates, gate)
	svc.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- b.Commit(ctx, mv1) }()
	require.Eventually(t, b.Syncing, time.Second, time.Millisecond)

	// Gesture 2 drops before the re-fetch lands
	require.NoError(t, b.BeginDrag(11))
	_, outcome := b.Drop(model.StatusInReview)
	require.Equal(t, Moved, outcome)

	// The server state the first re-fetch saw: 10 moved, 11 not yet
	gate <- []model.Item{
		{ID: 10, Status: model.StatusDone, ColumnID: 4},
		{ID: 11, Status: model.StatusTodo, ColumnID: 1},
		{ID: 12, Status: model.StatusInProgress, ColumnID: 2},
	}
	require.NoError(t, <-done)

	require.True(t, b.HasOverlay())
	got := ids(b)
	require.Equal(t, []int64{11}, got[model.StatusInReview])
	require.Equal(t, []int64{10}, got[model.StatusDone])
}

func TestOlderFetchResultDropped(t *testing.T) {
	svc := newFake()
	b := newBoard(t, svc)
	ctx := context.Background()

	older, newer := make(chan []model.Item), make(chan []model.Item)
	svc.mu.Lock()
	svc.listGates = append(svc.listGates, older, newer)
	svc.mu.Unlock()

	first := make(chan error, 1)
	go func() { first <- b.Refresh(ctx) }()
	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return len(svc.listGates) == 1
	}, time.Second, time.Millisecond)

	second := make(chan error, 1)
	go func() { second <- b.Refresh(ctx) }()

	// The later fetch resolves first, then the earlier one straggles in
	newer <- []model.Item{{ID: 10, Status: model.StatusDone}}
	require.NoError(t, <-second)
	older <- []model.Item{{ID: 10, Status: model.StatusTodo}}
	require.NoError(t, <-first)

	it, ok := b.Item(10)
	require.True(t, ok)
	require.Equal(t, model.StatusDone, it.Status)
}

func TestRollbackUnderNewerGesture(t *testing.T) {
	svc := newFake()
	svc.applyPatches = false
	b := newBoard(t, svc, WithRevertDelay(time.Hour))

	require.NoError(t, b.BeginDrag(10))
	mv1, _ := b.Drop(model.StatusDone)
	require.NoError(t, b.BeginDrag(12))
	_, outcome := b.Drop(model.StatusInReview)
	require.Equal(t, Moved, outcome)

	svc.mu.Lock()
	svc.updateErr = errors.New("nope")
	svc.mu.Unlock()
	require.Error(t, b.Commit(context.Background(), mv1))

	got := ids(b)
	require.Equal(t, []int64{10, 11}, got[model.StatusTodo])
	require.Equal(t, []int64{12}, got[model.StatusInReview])
	require.Empty(t, got[model.StatusDone])
}

func TestOlderFailureKeepsNewerMoveOfSameItem(t *testing.T) {
	svc := newFake()
	svc.applyPatches = false
	b := newBoard(t, svc, WithRevertDelay(time.Hour))

	require.NoError(t, b.BeginDrag(10))
	mv1, _ := b.Drop(model.StatusInProgress)
	require.NoError(t, b.BeginDrag(10))
	_, outcome := b.Drop(model.StatusDone)
	require.Equal(t, Moved, outcome)

	svc.mu.Lock()
	svc.updateErr = errors.New("nope")
	svc.mu.Unlock()
	require.Error(t, b.Commit(context.Background(), mv1))

	got := ids(b)
	require.Equal(t, []int64{11}, got[model.StatusTodo])
	require.Equal(t, []int64{12}, got[model.StatusInProgress])
	require.Equal(t, []int64{10}, got[model.StatusDone])
	it, ok := b.Item(10)
	require.True(t, ok)
	require.Equal(t, model.StatusDone, it.Status)
}

func TestConfirmedMoveNotifies(t *testing.T) {
	svc := newFake()
	center := notify.NewCenter(time.Hour)
	t.Cleanup(center.Stop)
	b := newBoard(t, svc, WithNotifier(center))

	outcome, err := b.MoveItem(context.Background(), 10, model.StatusInReview)
	require.NoError(t, err)
	require.Equal(t, Moved, outcome)

	n, ok := center.Latest()
	require.True(t, ok)
	require.Equal(t, notify.Success, n.Level)
	require.Equal(t, `Moved "T" to In Review`, n.Message)
}
