package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mitranim/gg"
)

/*
Unrecoverable condition. Propagated to `Main`, which terminates the process.
Orchestration code never exits by itself.
*/
type FatalError struct{ Cause error }

func (self FatalError) Error() string {
	if self.Cause == nil {
		return `fatal error`
	}
	return `fatal: ` + self.Cause.Error()
}

func (self FatalError) Unwrap() error { return self.Cause }

func IsFatal(err error) bool {
	var tar FatalError
	return errors.As(err, &tar)
}

/*
Consumes change events and drives compilation. Exactly one compiler
invocation runs at any time, which keeps the tools from clobbering each
other's auxiliary files.
*/
type Orch struct {
	Compiler Compiler
	HasBib   bool
	Verb     bool
	Color    bool
	Sep      string
	Out      io.Writer

	// Called before handling each event. Used for clearing the terminal.
	BeforeEvent func()
}

/*
Initial pass before any event is consumed. The second primary pass inlines
citation data resolved by the bibliography tool. The context is checked
between steps.
*/
func (self *Orch) Startup(ctx context.Context) error {
	err := self.primary()
	if err != nil || !self.HasBib {
		return errOr(ctx, err)
	}

	err = errOr(ctx, nil)
	if err != nil {
		return err
	}
	_, err = self.bib()
	if err != nil {
		return err
	}

	err = errOr(ctx, nil)
	if err != nil {
		return err
	}
	return errOr(ctx, self.primary())
}

/*
Drains the queue strictly in order, one event at a time. Returns the first
error from `OnEvent`, or the cancellation cause of the context.
*/
func (self *Orch) Run(ctx context.Context, queue *Queue) error {
	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case <-queue.Ready():
		}

		for {
			err := errOr(ctx, nil)
			if err != nil {
				return err
			}

			event, ok := queue.Pop()
			if !ok {
				break
			}

			err = self.OnEvent(event)
			if err != nil {
				return err
			}
		}
	}
}

// Returns the given error, or the cancellation cause of the context.
func errOr(ctx context.Context, err error) error {
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	return nil
}

func (self *Orch) OnEvent(event Event) error {
	if self.BeforeEvent != nil {
		self.BeforeEvent()
	}
	defer self.sep()

	log.Printf(`detected modification in %q at %v`, event.Path, timestamp())

	switch event.Kind {
	case KindPrimary:
		return self.primary()
	case KindBib:
		return self.OnBib()
	default:
		return gg.Errf(`unrecognized event kind %v for %q`, event.Kind, event.Path)
	}
}

/*
Bibliography recompilation with a single recovery attempt: on failure, one
primary pass regenerates the auxiliary data and the bibliography is retried
once. A second consecutive failure is fatal. After success, one more primary
and bibliography pass bring both artifacts to the resolved state.
*/
func (self *Orch) OnBib() error {
	rep, err := self.bib()
	if err != nil {
		return err
	}

	if rep.Failed() {
		log.Println(`bibliography compilation failed, recompiling primary source and retrying`)

		err = self.primary()
		if err != nil {
			return err
		}

		rep, err = self.bib()
		if err != nil {
			return err
		}
		if rep.Failed() {
			return FatalError{gg.Errf(
				`bibliography compilation failed twice: %v`, rep.Errors[0],
			)}
		}
	}

	err = self.primary()
	if err != nil {
		return err
	}
	_, err = self.bib()
	return err
}

func (self *Orch) primary() error {
	if self.Verb {
		log.Println(`compiling primary source`)
	}
	out, err := self.Compiler.CompilePrimary()
	if err != nil {
		return FatalError{err}
	}
	self.report(Classify(KindPrimary, out))
	return nil
}

func (self *Orch) bib() (Report, error) {
	if self.Verb {
		log.Println(`compiling bibliography`)
	}
	out, err := self.Compiler.CompileBib()
	if err != nil {
		return Report{}, FatalError{err}
	}
	rep := Classify(KindBib, out)
	self.report(rep)
	return rep, nil
}

func (self *Orch) report(rep Report) {
	for _, line := range rep.Errors {
		self.warn(line)
	}
	for _, line := range rep.Warnings {
		self.warn(line)
	}
}

func (self *Orch) warn(line string) {
	if self.Color {
		gg.Nop2(fmt.Fprintln(self.out(), COLOR_RED+line+COLOR_OFF))
	} else {
		gg.Nop2(fmt.Fprintln(self.out(), `warning: `+line))
	}
}

func (self *Orch) sep() {
	if self.Sep != `` {
		gg.Nop2(io.WriteString(self.out(), self.Sep))
	}
}

func (self *Orch) out() io.Writer {
	if self.Out != nil {
		return self.Out
	}
	return os.Stdout
}
