// Package lifecycle keeps the item set fresh while the host page changes.
//
// All engine work runs on a single Loop goroutine. Timers and external signals
// never touch the controller directly; they post callbacks to the loop, so a
// discovery pass or an input event always runs to completion before the next
// one starts.
package lifecycle

import (
	"context"
	"sync"
)

// Loop runs posted callbacks one at a time, in order.
type Loop struct {
	tasks chan func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLoop creates a loop with room for buffer queued callbacks.
func NewLoop(buffer int) *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{
		tasks:  make(chan func(), buffer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins running callbacks.
func (l *Loop) Start() {
	l.wg.Add(1)
	go l.run()
}

// Stop discards queued callbacks and waits for the running one to finish.
func (l *Loop) Stop() {
	l.cancel()
	l.wg.Wait()
}

// Done is closed once the loop is stopped.
func (l *Loop) Done() <-chan struct{} {
	return l.ctx.Done()
}

// Post queues f. It reports false if the loop has stopped.
func (l *Loop) Post(f func()) bool {
	select {
	case <-l.ctx.Done():
		return false
	default:
	}
	select {
	case l.tasks <- f:
		return true
	case <-l.ctx.Done():
		return false
	}
}

// TryPost queues f without blocking. It reports false if the loop has stopped
// or its queue is full.
func (l *Loop) TryPost(f func()) bool {
	select {
	case <-l.ctx.Done():
		return false
	default:
	}
	select {
	case l.tasks <- f:
		return true
	default:
		return false
	}
}

// Do runs f on the loop and waits for it.
func (l *Loop) Do(f func()) bool {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		f()
	}) {
		return false
	}
	select {
	case <-done:
		return true
	case <-l.ctx.Done():
		return false
	}
}

func (l *Loop) run() {
	defer l.wg.Done()
	for {
		select {
		case <-l.ctx.Done():
			return
		case f := <-l.tasks:
			f()
		}
	}
}
