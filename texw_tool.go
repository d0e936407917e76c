package main

import (
	"errors"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/mitranim/gg"
	"golang.org/x/sys/unix"
)

/*
Runs the external compilers and returns their captured stdout. A returned
error means the tool could not be run at all, which is unrecoverable.
Compiler-reported failures are conveyed only through the output text.

Implemented by `Tool`. Tests use fakes.
*/
type Compiler interface {
	CompilePrimary() (string, error)
	CompileBib() (string, error)
}

/*
Exec-backed `Compiler`. Invocations are serialized by the caller; the mutex
only guards `Cmd` against concurrent `Broadcast` from the signal goroutine.
*/
type Tool struct {
	sync.Mutex
	Layout  Layout
	Primary string
	Bib     string
	Verb    bool
	Cmd     *exec.Cmd
}

func (self *Tool) CompilePrimary() (string, error) {
	return self.Run(self.Primary, self.Layout.Main)
}

func (self *Tool) CompileBib() (string, error) {
	return self.Run(self.Bib, self.Layout.BibBase())
}

/*
Runs the program in the layout directory and waits for it. A non-zero exit
status is logged in verbose mode and otherwise ignored. Problems are reported
through marker lines in the output; see `Classify`.
*/
func (self *Tool) Run(name string, args ...string) (string, error) {
	cmd := self.MakeCmd(name, args...)
	var buf gg.Buf
	cmd.Stdout = &buf

	if self.Verb {
		log.Printf(`running %q`, cmd.Args)
	}

	err := self.start(cmd)
	if err != nil {
		return ``, gg.Wrapf(err, `unable to start %q`, name)
	}

	err = cmd.Wait()
	self.clear(cmd)

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return buf.String(), gg.Wrapf(err, `unable to run %q`, name)
	}
	if err != nil && self.Verb {
		log.Printf(`%q: %v`, name, err)
	}
	return buf.String(), nil
}

func (self *Tool) MakeCmd(name string, args ...string) *exec.Cmd {
	cmd := exec.Command(name, args...)
	cmd.Dir = self.Layout.Dir

	// Causes the OS to assign process group ID = `cmd.Process.Pid`.
	// We use this to broadcast signals to the entire subprocess group.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	cmd.Stderr = os.Stderr
	return cmd
}

func (self *Tool) start(cmd *exec.Cmd) error {
	defer gg.Lock(self).Unlock()

	// Starting the subprocess populates its `.Process`,
	// which allows us to kill the subprocess group on demand.
	err := cmd.Start()
	if err != nil {
		return err
	}
	self.Cmd = cmd
	return nil
}

func (self *Tool) clear(cmd *exec.Cmd) {
	defer gg.Lock(self).Unlock()
	if self.Cmd == cmd {
		self.Cmd = nil
	}
}

func (self *Tool) IsRunning() bool {
	defer gg.Lock(self).Unlock()
	return self.Cmd != nil
}

/*
Sends the signal to the subprocess group, denoted by the negative sign on the
PID. Requires `syscall.SysProcAttr{Setpgid: true}`.
*/
func (self *Tool) Broadcast(sig unix.Signal) {
	defer gg.Lock(self).Unlock()

	cmd := self.Cmd
	if cmd == nil || cmd.Process == nil {
		return
	}
	gg.Nop1(unix.Kill(-cmd.Process.Pid, sig))
}
