package form

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// NotificationKind classifies a notification.
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is the transient message shown after form actions.
type Notification struct {
	ID      string           `json:"id,omitempty"`
	Visible bool             `json:"visible"`
	Message string           `json:"message"`
	Kind    NotificationKind `json:"kind,omitempty"`
	ShownAt time.Time        `json:"shown_at,omitempty"`
}

// notifier keeps the current notification and hides it after ttl. A new
// notification replaces the pending hide of the previous one.
type notifier struct {
	mu       sync.Mutex
	ttl      time.Duration
	current  Notification
	hide     timerSlot
	onExpire func()
	now      func() time.Time
}

func newNotifier(ttl time.Duration, onExpire func()) *notifier {
	return &notifier{ttl: ttl, onExpire: onExpire, now: time.Now}
}

func (n *notifier) show(message string, kind NotificationKind) Notification {
	n.mu.Lock()
	note := Notification{
		ID:      uuid.NewString(),
		Visible: true,
		Message: message,
		Kind:    kind,
		ShownAt: n.now(),
	}
	n.current = note
	n.mu.Unlock()

	id := note.ID
	n.hide.schedule(n.ttl, func() {
		if n.expire(id) && n.onExpire != nil {
			n.onExpire()
		}
	})
	return note
}

// dismiss hides the notification early. An empty id targets the current one.
func (n *notifier) dismiss(id string) bool {
	n.mu.Lock()
	if !n.current.Visible || (id != "" && id != n.current.ID) {
		n.mu.Unlock()
		return false
	}
	n.current.Visible = false
	n.mu.Unlock()

	n.hide.stop()
	return true
}

func (n *notifier) expire(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.current.ID != id || !n.current.Visible {
		return false
	}
	n.current.Visible = false
	return true
}

func (n *notifier) snapshot() Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *notifier) stop() {
	n.hide.stop()
}
