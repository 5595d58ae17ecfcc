package form

import (
	"sync"
	"time"
)

// timerSlot holds at most one pending delayed callback. Scheduling a new
// callback cancels the previous one.
type timerSlot struct {
	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

func (s *timerSlot) schedule(delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.seq++
	seq := s.seq
	s.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.seq != seq {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()
		fn()
	})
}

func (s *timerSlot) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.seq++
}

func (s *timerSlot) pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}
