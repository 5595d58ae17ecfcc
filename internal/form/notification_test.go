package form

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNotifierHidesAfterTTL(t *testing.T) {
	var expired atomic.Int32
	n := newNotifier(30*time.Millisecond, func() { expired.Add(1) })

	note := n.show("saved", NotificationSuccess)
	require.True(t, note.Visible)
	require.NotEmpty(t, note.ID)
	require.Equal(t, note, n.snapshot())

	require.Eventually(t, func() bool { return !n.snapshot().Visible }, time.Second, 5*time.Millisecond)
	require.Equal(t, int32(1), expired.Load())
	require.Equal(t, "saved", n.snapshot().Message)
}

func TestNotifierReplacementCancelsPreviousHide(t *testing.T) {
	n := newNotifier(200*time.Millisecond, nil)

	first := n.show("first", NotificationSuccess)
	time.Sleep(120 * time.Millisecond)
	second := n.show("second", NotificationError)
	require.NotEqual(t, first.ID, second.ID)

	// Past the first notification's deadline, before the second's.
	time.Sleep(130 * time.Millisecond)
	current := n.snapshot()
	require.True(t, current.Visible)
	require.Equal(t, second.ID, current.ID)

	require.Eventually(t, func() bool { return !n.snapshot().Visible }, time.Second, 5*time.Millisecond)
}

func TestNotifierDismiss(t *testing.T) {
	n := newNotifier(time.Minute, nil)

	require.False(t, n.dismiss(""))

	note := n.show("hello", NotificationSuccess)
	require.False(t, n.dismiss("other-id"))
	require.True(t, n.dismiss(note.ID))
	require.False(t, n.snapshot().Visible)
	require.False(t, n.hide.pending())
}
