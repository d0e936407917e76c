package main

import (
	"errors"
	"sync"

	"github.com/mitranim/gg"
)

var ErrQueueClosed = errors.New(`event queue closed`)

/*
Multi-producer, single-consumer event queue shared by every `Watcher`.
Buffering is unbounded: `Send` never blocks and never drops. Events from one
sender are delivered in the order they were sent. Across senders, the order
is the order in which `Send` calls acquire the lock.

The consumer waits on `Ready` and then drains with `Pop` until empty. The
ready channel has capacity 1, so any number of sends between two drains
collapse into a single wakeup.
*/
type Queue struct {
	sync.Mutex
	buf    []Event
	ready  gg.Chan[struct{}]
	closed bool
}

func (self *Queue) Init() {
	defer gg.Lock(self).Unlock()
	self.ready.InitCap(1)
}

func (self *Queue) Send(val Event) error {
	defer gg.Lock(self).Unlock()
	if self.closed {
		return ErrQueueClosed
	}
	self.buf = append(self.buf, val)
	self.ready.SendZeroOpt()
	return nil
}

func (self *Queue) Pop() (_ Event, _ bool) {
	defer gg.Lock(self).Unlock()
	if len(self.buf) <= 0 {
		return
	}
	val := self.buf[0]
	self.buf[0] = Event{}
	self.buf = self.buf[1:]
	return val, true
}

func (self *Queue) Ready() <-chan struct{} { return self.ready }

func (self *Queue) Len() int {
	defer gg.Lock(self).Unlock()
	return len(self.buf)
}

// Subsequent sends fail with `ErrQueueClosed`. Pending events remain poppable.
func (self *Queue) Close() {
	defer gg.Lock(self).Unlock()
	self.closed = true
}
