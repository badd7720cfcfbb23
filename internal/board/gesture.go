package board

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/existflow/ironboard/internal/api"
	"github.com/existflow/ironboard/internal/logger"
	"github.com/existflow/ironboard/internal/model"
	"github.com/existflow/ironboard/internal/notify"
	"github.com/google/uuid"
)

var (
	// ErrDragActive is returned when a gesture starts while another is live
	ErrDragActive = errors.New("another item is being moved")
	// ErrUnknownItem is returned when a gesture names an item not on the board
	ErrUnknownItem = errors.New("item not on board")
)

// Drag is the live gesture. Nothing on the board changes until Drop.
type Drag struct {
	Item   model.Item
	From   model.Status
	Target model.Status
}

// Outcome says what a drop did
type Outcome int

const (
	// Noop: no gesture, same lane, or no valid target
	Noop Outcome = iota
	// Denied: the caller may not move the item
	Denied
	// NoColumn: the target lane has no server column to move into
	NoColumn
	// Moved: the overlay was published and a Move must be committed
	Moved
)

func (o Outcome) String() string {
	switch o {
	case Denied:
		return "denied"
	case NoColumn:
		return "no column"
	case Moved:
		return "moved"
	default:
		return "noop"
	}
}

// Move is a dropped gesture awaiting Commit
type Move struct {
	ID       string // correlates log lines for one gesture
	Seq      uint64
	ItemID   int64
	Title    string
	From     model.Status
	To       model.Status
	ColumnID int64
	prev     Snapshot
}

// BeginDrag picks up an item from the displayed board
func (b *Board) BeginDrag(itemID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.drag != nil {
		return ErrDragActive
	}
	from, _, it, ok := b.displayLocked().find(itemID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownItem, itemID)
	}
	b.drag = &Drag{Item: it.Clone(), From: from, Target: from}
	return nil
}

// SetTarget moves the drop target of the live gesture
func (b *Board) SetTarget(target model.Status) {
	b.mu.Lock()
	if b.drag != nil {
		b.drag.Target = target
	}
	b.mu.Unlock()
	b.changed()
}

// Dragged returns the live gesture for rendering a preview
func (b *Board) Dragged() (Drag, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.drag == nil {
		return Drag{}, false
	}
	d := *b.drag
	d.Item = d.Item.Clone()
	return d, true
}

// CancelDrag abandons the live gesture
func (b *Board) CancelDrag() {
	b.mu.Lock()
	b.drag = nil
	b.mu.Unlock()
	b.changed()
}

// Drop ends the live gesture over target. When the outcome is Moved the
// optimistic overlay is already published and the returned Move must be
// passed to Commit.
func (b *Board) Drop(target model.Status) (*Move, Outcome) {
	b.mu.Lock()
	drag := b.drag
	b.drag = nil
	if drag == nil {
		b.mu.Unlock()
		return nil, Noop
	}

	display := b.displayLocked()
	from, _, it, ok := display.find(drag.Item.ID)
	if !ok || !target.Valid() || target == from {
		b.mu.Unlock()
		b.changed()
		return nil, Noop
	}

	if b.gate != nil && !b.gate.CanMove(&it) {
		b.mu.Unlock()
		b.log.Info("Move denied", logger.F("item", it.ID), logger.F("to", string(target)))
		b.changed()
		return nil, Denied
	}

	col, ok := b.columns[target]
	if !ok || col.ID == 0 {
		b.mu.Unlock()
		b.notice(notify.Error, fmt.Sprintf("No %s column on this board", target.Label()))
		b.changed()
		return nil, NoColumn
	}

	b.seq++
	mv := &Move{
		ID:       uuid.NewString(),
		Seq:      b.seq,
		ItemID:   it.ID,
		Title:    it.Title,
		From:     from,
		To:       target,
		ColumnID: col.ID,
		prev:     display.Clone(),
	}
	if t, ok := b.timers[b.overlaySeq]; ok {
		t.Stop()
		delete(b.timers, b.overlaySeq)
	}
	b.overlay = display.moved(it.ID, target, col.ID)
	b.overlaySeq = mv.Seq
	b.inflight[mv.Seq] = true
	b.mu.Unlock()

	b.log.Info("Move issued",
		logger.F("gesture", mv.ID),
		logger.F("item", mv.ItemID),
		logger.F("from", string(mv.From)),
		logger.F("to", string(mv.To)))
	b.changed()
	return mv, Moved
}

// Commit sends the move to the server. On success the board re-fetches
// and the fetch result replaces the overlay. On failure the pre-drag
// arrangement is shown for the revert delay and then dropped.
func (b *Board) Commit(ctx context.Context, mv *Move) error {
	err := b.svc.UpdateItem(ctx, mv.ItemID, model.MovePatch(mv.To, mv.ColumnID))
	if err != nil {
		b.rollback(mv, err)
		return fmt.Errorf("failed to move item %d: %w", mv.ItemID, err)
	}

	b.mu.Lock()
	delete(b.inflight, mv.Seq)
	b.syncing = true
	b.mu.Unlock()
	b.log.Info("Move confirmed", logger.F("gesture", mv.ID), logger.F("item", mv.ItemID))
	b.notice(notify.Success, fmt.Sprintf("Moved %q to %s", mv.Title, mv.To.Label()))
	b.changed()

	return b.refresh(ctx, mv.Seq)
}

func (b *Board) rollback(mv *Move, cause error) {
	b.mu.Lock()
	delete(b.inflight, mv.Seq)
	if b.overlaySeq == mv.Seq && b.overlay != nil {
		b.overlay = mv.prev.Clone()
		if !b.closed {
			b.timers[mv.Seq] = time.AfterFunc(b.revertDelay, func() { b.expire(mv.Seq) })
		}
	} else if b.overlay != nil {
		// A newer gesture owns the overlay; put just this item back unless
		// that gesture has moved it on
		if lane, _, _, ok := b.overlay.find(mv.ItemID); ok && lane == mv.To {
			b.overlay = b.overlay.restored(mv.prev, mv.ItemID)
		}
	}
	b.mu.Unlock()

	b.log.Warn("Move reverted",
		logger.F("gesture", mv.ID),
		logger.F("item", mv.ItemID),
		logger.F("error", cause))
	b.notice(notify.Error, "Failed to move task: "+api.UserMessage(cause))
	b.changed()
}

// expire drops the rollback overlay of gesture seq if it is still shown
func (b *Board) expire(seq uint64) {
	b.mu.Lock()
	delete(b.timers, seq)
	if b.overlaySeq != seq || b.overlay == nil {
		b.mu.Unlock()
		return
	}
	b.overlay = nil
	b.mu.Unlock()
	b.changed()
}

// MoveItem runs a whole gesture: pick up, drop on target, commit
func (b *Board) MoveItem(ctx context.Context, itemID int64, target model.Status) (Outcome, error) {
	if err := b.BeginDrag(itemID); err != nil {
		return Noop, err
	}
	b.SetTarget(target)
	mv, outcome := b.Drop(target)
	if mv == nil {
		return outcome, nil
	}
	return outcome, b.Commit(ctx, mv)
}
