// Package board is the kanban board state: columns, the confirmed item
// grouping last fetched from the server, and the optimistic overlay shown
// while a move is in flight or being rolled back.
package board

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/existflow/ironboard/internal/logger"
	"github.com/existflow/ironboard/internal/model"
	"github.com/existflow/ironboard/internal/notify"
)

// DefaultRevertDelay is how long a rolled-back overlay stays up
const DefaultRevertDelay = time.Second

// ItemService is the part of the API the board needs
type ItemService interface {
	ListColumns(ctx context.Context, projectID int64) ([]model.Column, error)
	CreateColumn(ctx context.Context, projectID int64, col model.Column) (*model.Column, error)
	ListItems(ctx context.Context, projectID int64) ([]model.Item, error)
	UpdateItem(ctx context.Context, id int64, patch model.ItemPatch) error
}

// Gate decides whether the caller may move an item
type Gate interface {
	CanMove(it *model.Item) bool
}

// Notifier shows transient messages
type Notifier interface {
	Push(level notify.Level, msg string) int64
}

// Lane is one column of the displayed board
type Lane struct {
	Status model.Status
	Column model.Column // zero ID when the server has no column for Status
	Items  []model.Item
}

// Board holds one project's board
type Board struct {
	projectID   int64
	svc         ItemService
	gate        Gate
	notifier    Notifier
	log         *logger.Logger
	revertDelay time.Duration
	onChange    func()

	mu        sync.Mutex
	columns   map[model.Status]model.Column
	confirmed Snapshot
	loaded    bool
	err       error

	overlay    Snapshot
	overlaySeq uint64 // gesture that published the overlay
	seq        uint64 // last gesture issued
	inflight   map[uint64]bool
	timers     map[uint64]*time.Timer

	fetchSeq     uint64 // last fetch started
	appliedFetch uint64 // last fetch whose result was applied
	syncing      bool

	drag   *Drag
	closed bool
}

// Option configures a Board
type Option func(*Board)

// WithRevertDelay sets how long a failed move's rollback is shown
func WithRevertDelay(d time.Duration) Option {
	return func(b *Board) { b.revertDelay = d }
}

// WithGate sets the move permission check
func WithGate(g Gate) Option {
	return func(b *Board) { b.gate = g }
}

// WithNotifier sets where failure notices go
func WithNotifier(n Notifier) Option {
	return func(b *Board) { b.notifier = n }
}

// WithLogger sets the board's logger
func WithLogger(l *logger.Logger) Option {
	return func(b *Board) { b.log = l }
}

// WithOnChange sets a callback fired after every visible change
func WithOnChange(fn func()) Option {
	return func(b *Board) { b.onChange = fn }
}

// New creates an empty board for a project
func New(projectID int64, svc ItemService, opts ...Option) *Board {
	b := &Board{
		projectID:   projectID,
		svc:         svc,
		log:         logger.Default(),
		revertDelay: DefaultRevertDelay,
		columns:     make(map[model.Status]model.Column),
		confirmed:   NewSnapshot(),
		inflight:    make(map[uint64]bool),
		timers:      make(map[uint64]*time.Timer),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.WithFields(logger.F("project", projectID))
	return b
}

// ProjectID returns the project the board shows
func (b *Board) ProjectID() int64 {
	return b.projectID
}

func (b *Board) changed() {
	if b.onChange != nil {
		b.onChange()
	}
}

func (b *Board) notice(level notify.Level, msg string) {
	if b.notifier != nil {
		b.notifier.Push(level, msg)
	}
}

// Load fetches columns and items
func (b *Board) Load(ctx context.Context) error {
	if err := b.LoadColumns(ctx); err != nil {
		return err
	}
	return b.Refresh(ctx)
}

// LoadColumns fetches the server's columns. Only the first column per
// status key is kept; columns with an unknown key are ignored.
func (b *Board) LoadColumns(ctx context.Context) error {
	cols, err := b.svc.ListColumns(ctx, b.projectID)
	if err != nil {
		b.setErr(err)
		return fmt.Errorf("failed to load columns: %w", err)
	}

	byKey := dedupeColumns(cols)

	b.mu.Lock()
	b.columns = byKey
	b.mu.Unlock()

	b.log.Debug("Columns loaded", logger.F("count", len(byKey)))
	b.changed()
	return nil
}

func dedupeColumns(cols []model.Column) map[model.Status]model.Column {
	sorted := append([]model.Column(nil), cols...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	byKey := make(map[model.Status]model.Column)
	for _, col := range sorted {
		key := col.Key()
		if !key.Valid() {
			continue
		}
		if _, dup := byKey[key]; dup {
			continue
		}
		col.Status = key
		byKey[key] = col
	}
	return byKey
}

// MissingColumns lists the statuses that have no server column
func (b *Board) MissingColumns() []model.Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	var missing []model.Status
	for _, st := range model.Statuses {
		if _, ok := b.columns[st]; !ok {
			missing = append(missing, st)
		}
	}
	return missing
}

// EnsureColumns creates the default columns the project lacks. Callers
// check the manage_project capability first.
func (b *Board) EnsureColumns(ctx context.Context) (int, error) {
	missing := make(map[model.Status]bool)
	for _, st := range b.MissingColumns() {
		missing[st] = true
	}
	if len(missing) == 0 {
		return 0, nil
	}

	created := 0
	for _, col := range model.DefaultColumns() {
		if !missing[col.Status] {
			continue
		}
		c, err := b.svc.CreateColumn(ctx, b.projectID, col)
		if err != nil {
			return created, fmt.Errorf("failed to create column %q: %w", col.Name, err)
		}
		created++
		b.log.Info("Created default column", logger.F("column", c.ID), logger.F("name", c.Name))
	}
	return created, b.LoadColumns(ctx)
}

// Refresh re-fetches items and replaces the confirmed grouping. It also
// drops an overlay whose move has already settled.
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.Lock()
	upTo := b.seq
	b.mu.Unlock()
	return b.refresh(ctx, upTo)
}

// refresh fetches items. On success the overlay is cleared if it was
// published by gesture upTo or earlier and that gesture is not in flight.
func (b *Board) refresh(ctx context.Context, upTo uint64) error {
	b.mu.Lock()
	b.fetchSeq++
	mine := b.fetchSeq
	b.mu.Unlock()

	items, err := b.svc.ListItems(ctx, b.projectID)

	b.mu.Lock()
	if mine < b.appliedFetch {
		b.mu.Unlock()
		b.log.Debug("Dropping stale fetch", logger.F("fetch", mine))
		return nil
	}
	if mine == b.fetchSeq {
		b.syncing = false
	}
	if err != nil {
		b.err = err
		b.mu.Unlock()
		b.changed()
		return fmt.Errorf("failed to load items: %w", err)
	}

	b.appliedFetch = mine
	b.confirmed = Group(items)
	b.loaded = true
	b.err = nil
	if b.overlay != nil && b.overlaySeq <= upTo && !b.inflight[b.overlaySeq] {
		b.clearOverlayLocked()
	}
	b.mu.Unlock()

	b.changed()
	return nil
}

func (b *Board) clearOverlayLocked() {
	if t, ok := b.timers[b.overlaySeq]; ok {
		t.Stop()
		delete(b.timers, b.overlaySeq)
	}
	b.overlay = nil
}

func (b *Board) setErr(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
	b.changed()
}

// Display returns the lanes as they should render: the overlay when one
// is active, otherwise the confirmed grouping
func (b *Board) Display() []Lane {
	b.mu.Lock()
	defer b.mu.Unlock()
	snap := b.displayLocked()
	lanes := make([]Lane, 0, len(model.Statuses))
	for _, st := range model.Statuses {
		lanes = append(lanes, Lane{
			Status: st,
			Column: b.columns[st],
			Items:  cloneItems(snap[st]),
		})
	}
	return lanes
}

func (b *Board) displayLocked() Snapshot {
	if b.overlay != nil {
		return b.overlay
	}
	return b.confirmed
}

// Item finds an item on the displayed board
func (b *Board) Item(id int64) (model.Item, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, _, it, ok := b.displayLocked().find(id)
	if !ok {
		return model.Item{}, false
	}
	return it.Clone(), true
}

// Loaded reports whether an item fetch has succeeded
func (b *Board) Loaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

// Syncing reports whether a post-move re-fetch is in flight
func (b *Board) Syncing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.syncing
}

// HasOverlay reports whether an optimistic arrangement is displayed
func (b *Board) HasOverlay() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.overlay != nil
}

// Err returns the last load error
func (b *Board) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Close stops pending revert timers
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for seq, t := range b.timers {
		t.Stop()
		delete(b.timers, seq)
	}
}

func cloneItems(items []model.Item) []model.Item {
	out := make([]model.Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}
