package main

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mitranim/gg"
)

// A tracked file and its last known modification time.
type Target struct {
	Path     string
	Kind     Kind
	Baseline time.Time
}

/*
Polls a single target and reports changes to the queue. The target, including
its baseline, is owned by the watcher's goroutine and never shared.
*/
type Watcher struct {
	Target   Target
	Queue    *Queue
	Interval time.Duration
	Verb     bool
	OnFatal  func(error)
}

/*
Runs until the context is cancelled or a fatal error occurs. Failure to probe
the assigned file or to deliver an event is fatal for the watcher and is
reported through `OnFatal`; there is no silent skip.
*/
func (self Watcher) Run(ctx context.Context) {
	tar := self.Target
	interval := self.Interval
	if interval <= 0 {
		interval = DEFAULT_INTERVAL
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		changed, next, err := Probe(tar.Path, tar.Baseline)
		if err != nil {
			self.fatal(err)
			return
		}

		if changed {
			tar.Baseline = next
			if self.Verb {
				log.Printf(`detected change in %q`, tar.Path)
			}
			err := self.Queue.Send(Event{Kind: tar.Kind, Path: tar.Path})
			if err != nil {
				self.fatal(gg.Wrapf(err, `unable to deliver event for %q`, tar.Path))
				return
			}
		}

		timer.Reset(interval)
	}
}

func (self Watcher) fatal(err error) {
	if self.OnFatal != nil {
		self.OnFatal(FatalError{err})
	}
}

/*
Supervisor set of running watchers, keyed by absolute path. Watchers are never
removed while the program runs; every watcher nevertheless holds its own
cancellation func, and `Deinit` cancels and joins all of them.
*/
type Registry struct {
	sync.Mutex
	Queue    *Queue
	Interval time.Duration
	Verb     bool
	OnFatal  func(error)

	ctx     context.Context
	cancel  context.CancelFunc
	group   sync.WaitGroup
	cancels map[string]context.CancelFunc
	closed  bool
}

func (self *Registry) Init() {
	defer gg.Lock(self).Unlock()
	self.ctx, self.cancel = context.WithCancel(context.Background())
	self.cancels = map[string]context.CancelFunc{}
}

/*
Starts a watcher for the target unless its path is already watched. Returns
true if a new watcher was started. Never disturbs existing watchers.
*/
func (self *Registry) Add(tar Target) bool {
	tar.Path = toAbsPath(tar.Path)

	defer gg.Lock(self).Unlock()
	if self.cancels == nil {
		panic(gg.Errf(`registry used before initialization`))
	}
	if self.closed {
		return false
	}
	if _, ok := self.cancels[tar.Path]; ok {
		return false
	}

	ctx, cancel := context.WithCancel(self.ctx)
	self.cancels[tar.Path] = cancel

	wat := Watcher{
		Target:   tar,
		Queue:    self.Queue,
		Interval: self.Interval,
		Verb:     self.Verb,
		OnFatal:  self.OnFatal,
	}

	self.group.Add(1)
	go func() {
		defer self.group.Done()
		wat.Run(ctx)
	}()
	return true
}

func (self *Registry) Has(path string) bool {
	path = toAbsPath(path)
	defer gg.Lock(self).Unlock()
	_, ok := self.cancels[path]
	return ok
}

func (self *Registry) Len() int {
	defer gg.Lock(self).Unlock()
	return len(self.cancels)
}

func (self *Registry) Paths() []string {
	defer gg.Lock(self).Unlock()
	out := gg.MapKeys(self.cancels)
	sort.Strings(out)
	return out
}

// Cancels every watcher and waits for all of them to return.
func (self *Registry) Deinit() {
	self.Lock()
	self.closed = true
	if self.cancel != nil {
		self.cancel()
	}
	self.Unlock()
	self.group.Wait()
}
