package main

import (
	"os"
	"os/signal"
	"time"

	"github.com/mitranim/gg"
	"golang.org/x/sys/unix"
)

/*
Intercepts kill signals so that `Main` can stop the watchers and forward the
signal to the running compiler before the process dies. Compilers have no
timeout, so a hung one would otherwise keep us alive; a second kill signal
within a second kills the compiler's process group and exits immediately.
*/
type Sig struct {
	Mained
	Chan     gg.Chan[os.Signal]
	LastInst time.Time

	// Replaces `os.Exit` when non-nil.
	Exit func(int)
}

// Must match the signals handled in `OnSignal`.
func (self *Sig) Init(main *Main) {
	self.Mained.Init(main)
	self.Chan.InitCap(1)
	signal.Notify(self.Chan, KILL_SIGS_OS...)
}

// Restores the default runtime behavior. The `Run` goroutine is left to die
// with the process.
func (self *Sig) Deinit() {
	if self.Chan != nil {
		signal.Stop(self.Chan)
	}
}

func (self *Sig) Run() {
	for val := range self.Chan {
		self.OnSignal(val.(unix.Signal))
	}
}

func (self *Sig) OnSignal(sig unix.Signal) {
	main := self.Main()

	if !KILL_SIG_SET.Has(sig) {
		if main.Opt.Verb {
			log.Println(`ignoring signal:`, sig)
		}
		return
	}

	if self.IsRepeated() {
		log.Printf(`received %v twice, killing compiler and exiting`, sig)
		main.Tool.Broadcast(unix.SIGKILL)
		self.exit(1)
		return
	}
	self.LastInst = time.Now()

	if main.Opt.Verb {
		log.Printf(`received %v, shutting down; repeat within 1s to force`, sig)
	}
	main.Kill(sig)
}

func (self *Sig) IsRepeated() bool {
	return !self.LastInst.IsZero() && time.Since(self.LastInst) < time.Second
}

func (self *Sig) exit(code int) {
	if self.Exit != nil {
		self.Exit(code)
		return
	}
	os.Exit(code)
}
