package notify

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPushAndExpire(t *testing.T) {
	c := NewCenter(20 * time.Millisecond)
	var changes int32
	c.SetOnChange(func() { atomic.AddInt32(&changes, 1) })

	id := c.Push(Error, "Failed to move task")
	require.NotZero(t, id)
	n, ok := c.Latest()
	require.True(t, ok)
	require.Equal(t, "Failed to move task", n.Message)
	require.Equal(t, "error", n.Level.String())

	require.Eventually(t, func() bool { return len(c.Active()) == 0 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&changes) == 2 }, time.Second, 5*time.Millisecond)
}

func TestDismiss(t *testing.T) {
	c := NewCenter(time.Hour)
	t.Cleanup(c.Stop)

	a := c.Push(Info, "a")
	b := c.Push(Success, "b")
	require.Len(t, c.Active(), 2)

	c.Dismiss(a)
	active := c.Active()
	require.Len(t, active, 1)
	require.Equal(t, b, active[0].ID)

	// Dismissing twice is harmless
	c.Dismiss(a)
	require.Len(t, c.Active(), 1)
}

func TestStopIgnoresPush(t *testing.T) {
	c := NewCenter(0)
	c.Stop()
	require.Zero(t, c.Push(Info, "late"))
	require.Empty(t, c.Active())
}
