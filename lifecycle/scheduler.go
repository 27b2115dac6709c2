package lifecycle

import (
	"sync"
	"time"
)

// Scheduler runs timed callbacks through a post function, normally Loop.Post.
//
// It has one settle slot: scheduling a settle task cancels the one already
// pending, so at most one can ever run per burst of triggers.
type Scheduler struct {
	clock Clock
	post  func(func())

	mu        sync.Mutex
	nextID    int
	timers    map[int]Timer
	settleID  int // id of the pending settle task, 0 when none
	settleGen int
	stopped   bool
}

// NewScheduler returns a scheduler that hands callbacks to post.
func NewScheduler(clock Clock, post func(func())) *Scheduler {
	if clock == nil {
		clock = RealClock
	}
	return &Scheduler{
		clock:  clock,
		post:   post,
		timers: make(map[int]Timer),
	}
}

// After runs f once after d.
func (s *Scheduler) After(d time.Duration, f func()) {
	s.schedule(d, func(id int) {
		if s.release(id) {
			f()
		}
	})
}

// Every runs f every d until Stop.
func (s *Scheduler) Every(d time.Duration, f func()) {
	var arm func()
	arm = func() {
		s.schedule(d, func(id int) {
			if !s.release(id) {
				return
			}
			f()
			arm()
		})
	}
	arm()
}

// Settle runs f after d, replacing any settle task still pending.
func (s *Scheduler) Settle(d time.Duration, f func()) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if t, ok := s.timers[s.settleID]; ok {
		t.Stop()
		delete(s.timers, s.settleID)
	}
	s.settleGen++
	gen := s.settleGen
	s.mu.Unlock()

	id := s.schedule(d, func(id int) {
		if !s.release(id) {
			return
		}
		s.mu.Lock()
		current := gen == s.settleGen
		if current {
			s.settleID = 0
		}
		s.mu.Unlock()
		// A superseded task may already have been queued before it was stopped.
		if current {
			f()
		}
	})

	s.mu.Lock()
	if gen == s.settleGen && id != 0 {
		s.settleID = id
	}
	s.mu.Unlock()
}

// SettlePending reports whether a settle task is waiting to run.
func (s *Scheduler) SettlePending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settleID != 0
}

// Stop cancels every pending callback. Later scheduling is ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.settleID = 0
}

// schedule arms a timer whose expiry posts run(id). It returns 0 when stopped.
func (s *Scheduler) schedule(d time.Duration, run func(id int)) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0
	}
	s.nextID++
	id := s.nextID
	s.timers[id] = s.clock.AfterFunc(d, func() {
		s.post(func() { run(id) })
	})
	return id
}

// release forgets a fired timer and reports whether its callback should run.
func (s *Scheduler) release(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	_, ok := s.timers[id]
	delete(s.timers, id)
	return ok
}
