/*
TeX Watch: recompiles a document tree whenever its sources change. Polls every
tracked source file, and reruns the primary compiler and the bibliography tool
as required by the kind of file that changed.
*/
package main

import (
	"context"
	"errors"
	l "log"
	"os"

	"github.com/mitranim/gg"
	"golang.org/x/sys/unix"
)

var log = l.New(os.Stderr, `[texw] `, 0)

func main() {
	var main Main
	defer main.Exit()
	defer main.Deinit()
	main.Init()
	main.Run()
}

type Main struct {
	Opt      Opt
	Tool     Tool
	Queue    Queue
	Registry Registry
	Orch     Orch
	Stdio    Stdio
	Sig      Sig
	Notify   *WatchNotify
	Ctx      context.Context
	Cancel   context.CancelCauseFunc
}

// Returned from `Orch.Run` when the process was asked to die.
type KillError struct{ Sig unix.Signal }

func (self KillError) Error() string { return `killed by ` + self.Sig.String() }

func (self *Main) Init() {
	self.Opt.Init(os.Args[1:])
	self.Ctx, self.Cancel = context.WithCancelCause(context.Background())
	self.Queue.Init()

	self.Tool.Layout = self.Opt.Layout
	self.Tool.Primary = self.Opt.PrimaryTool
	self.Tool.Bib = self.Opt.BibTool
	self.Tool.Verb = self.Opt.Verb

	self.Registry.Queue = &self.Queue
	self.Registry.Interval = self.Opt.Interval
	self.Registry.Verb = self.Opt.Verb
	self.Registry.OnFatal = self.Fatal
	self.Registry.Init()

	self.Orch = Orch{
		Compiler:    &self.Tool,
		HasBib:      self.Opt.Layout.HasBib(),
		Verb:        self.Opt.Verb,
		Color:       self.Opt.Color(),
		Sep:         string(self.Opt.Sep),
		BeforeEvent: self.Opt.TermClear,
	}

	self.Sig.Init(self)
	self.Stdio.Init(self)
	if self.Opt.AutoRegister {
		self.NotifyInit()
	}
}

/*
Must be safe to call more than once: it's deferred in `main`, and also called
right before re-raising a kill signal against ourselves, which terminates the
process bypassing `defer`.
*/
func (self *Main) Deinit() {
	self.Stdio.Deinit()
	self.NotifyDeinit()
	self.Registry.Deinit()
	self.Queue.Close()
	self.Sig.Deinit()
	self.Tool.Broadcast(unix.SIGTERM)
}

func (self *Main) Run() {
	go self.Sig.Run()

	targets, err := InitialTargets(&self.Opt)
	gg.Try(err)

	err = self.Orch.Startup(self.Ctx)
	self.OnErr(err)

	for _, tar := range targets {
		if self.Registry.Add(tar) && self.Opt.Verb {
			log.Printf(`watching %v %q`, tar.Kind, tar.Path)
		}
	}
	log.Printf(`watching %v files in %q`, self.Registry.Len(), self.Opt.Layout.Dir)

	go self.Stdio.Run()
	if self.Notify != nil {
		go self.Notify.Run()
	}

	self.OnErr(self.Orch.Run(self.Ctx, &self.Queue))
}

func (self *Main) OnErr(err error) {
	var kill KillError
	if errors.As(err, &kill) {
		self.Deinit()
		gg.Nop1(unix.Kill(os.Getpid(), kill.Sig))
		// Suicide just in case.
		os.Exit(1)
	}
	gg.Try(err)
}

func (self *Main) NotifyInit() {
	wat := new(WatchNotify)
	wat.Init(self)
	self.Notify = wat
}

func (self *Main) NotifyDeinit() {
	if self.Notify != nil {
		self.Notify.Deinit()
		self.Notify = nil
	}
}

// Must be deferred.
func (self *Main) Exit() {
	err := gg.AnyErrTraced(recover())
	if err != nil {
		if self.Opt.Verb {
			log.Printf(`%+v`, err)
		} else {
			log.Println(err)
		}
		os.Exit(1)
	}
	os.Exit(0)
}

// Stops event processing. `Run` then terminates the process with the error.
func (self *Main) Fatal(err error) {
	if err != nil {
		self.Cancel(err)
	}
}

/*
Forwards the signal to the running compiler so that a pending invocation
returns, then stops event processing.
*/
func (self *Main) Kill(sig unix.Signal) {
	self.Tool.Broadcast(sig)
	self.Cancel(KillError{sig})
}

func (self *Main) Registrar() Registrar {
	return Registrar{
		Dir:      self.Opt.Layout.Dir,
		Registry: &self.Registry,
		Verb:     self.Opt.Verb,
	}
}
