// Package notify keeps short-lived user-facing notices
package notify

import (
	"sort"
	"sync"
	"time"
)

// Level is the notice severity
type Level int

const (
	Info Level = iota
	Success
	Error
)

// String returns the lower-case level name
func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// DefaultTTL is how long a notice stays visible
const DefaultTTL = 3 * time.Second

// Notice is one message shown to the user
type Notice struct {
	ID      int64
	Level   Level
	Message string
	Created time.Time
}

// Center holds live notices and expires them after a TTL
type Center struct {
	ttl time.Duration

	mu       sync.Mutex
	nextID   int64
	notices  map[int64]Notice
	timers   map[int64]*time.Timer
	onChange func()
	stopped  bool
}

// NewCenter creates a center. A ttl of zero uses DefaultTTL.
func NewCenter(ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{
		ttl:     ttl,
		notices: make(map[int64]Notice),
		timers:  make(map[int64]*time.Timer),
	}
}

// SetOnChange sets a callback fired when a notice is added or removed
func (c *Center) SetOnChange(callback func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = callback
}

// Push adds a notice and returns its id
func (c *Center) Push(level Level, msg string) int64 {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return 0
	}
	c.nextID++
	id := c.nextID
	c.notices[id] = Notice{ID: id, Level: level, Message: msg, Created: time.Now()}
	c.timers[id] = time.AfterFunc(c.ttl, func() { c.remove(id) })
	c.mu.Unlock()

	c.changed()
	return id
}

// Dismiss removes a notice before its TTL runs out
func (c *Center) Dismiss(id int64) {
	c.mu.Lock()
	if t, ok := c.timers[id]; ok {
		t.Stop()
	}
	c.mu.Unlock()
	c.remove(id)
}

func (c *Center) remove(id int64) {
	c.mu.Lock()
	_, ok := c.notices[id]
	delete(c.notices, id)
	delete(c.timers, id)
	c.mu.Unlock()

	if ok {
		c.changed()
	}
}

func (c *Center) changed() {
	c.mu.Lock()
	callback := c.onChange
	c.mu.Unlock()

	if callback != nil {
		callback()
	}
}

// Active returns live notices, oldest first
func (c *Center) Active() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notice, 0, len(c.notices))
	for _, n := range c.notices {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Latest returns the newest live notice
func (c *Center) Latest() (Notice, bool) {
	active := c.Active()
	if len(active) == 0 {
		return Notice{}, false
	}
	return active[len(active)-1], true
}

// Stop cancels pending expiries and ignores further pushes
func (c *Center) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}
