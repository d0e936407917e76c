package main

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/mitranim/gg/gtest"
)

const (
	CALL_PRIMARY = `primary`
	CALL_BIB     = `bib`

	BIB_OK   = "INFO - done\n"
	BIB_WARN = "WARN - duplicate entry\n"
	BIB_FAIL = "ERROR - cannot find main.bcf\n"
)

/*
Records invocations in order. Bibliography outputs are consumed from `BibOut`
in order; once exhausted, bibliography runs succeed.
*/
type FakeCompiler struct {
	Calls  []string
	BibOut []string
	Err    error
}

func (self *FakeCompiler) CompilePrimary() (string, error) {
	self.Calls = append(self.Calls, CALL_PRIMARY)
	return "This is hilatex\n", self.Err
}

func (self *FakeCompiler) CompileBib() (string, error) {
	self.Calls = append(self.Calls, CALL_BIB)
	if len(self.BibOut) > 0 {
		out := self.BibOut[0]
		self.BibOut = self.BibOut[1:]
		return out, self.Err
	}
	return BIB_OK, self.Err
}

func testOrch(comp *FakeCompiler, hasBib bool) *Orch {
	return &Orch{Compiler: comp, HasBib: hasBib, Out: io.Discard}
}

func TestOrch_Startup(t *testing.T) {
	defer gtest.Catch(t)

	t.Run(`without bibliography`, func(t *testing.T) {
		defer gtest.Catch(t)

		var comp FakeCompiler
		gtest.NoErr(testOrch(&comp, false).Startup(context.Background()))
		gtest.Equal(comp.Calls, []string{CALL_PRIMARY})
	})

	t.Run(`with bibliography`, func(t *testing.T) {
		defer gtest.Catch(t)

		var comp FakeCompiler
		gtest.NoErr(testOrch(&comp, true).Startup(context.Background()))
		gtest.Equal(comp.Calls, []string{CALL_PRIMARY, CALL_BIB, CALL_PRIMARY})
	})

	t.Run(`bibliography failure is not recovered at startup`, func(t *testing.T) {
		defer gtest.Catch(t)

		comp := FakeCompiler{BibOut: []string{BIB_FAIL}}
		gtest.NoErr(testOrch(&comp, true).Startup(context.Background()))
		gtest.Equal(comp.Calls, []string{CALL_PRIMARY, CALL_BIB, CALL_PRIMARY})
	})

	t.Run(`cancelled`, func(t *testing.T) {
		defer gtest.Catch(t)

		cause := errors.New(`stop`)
		ctx, cancel := context.WithCancelCause(context.Background())
		cancel(cause)

		var comp FakeCompiler
		err := testOrch(&comp, true).Startup(ctx)
		gtest.True(errors.Is(err, cause))
		gtest.Equal(comp.Calls, []string{CALL_PRIMARY})
	})
}

func TestOrch_OnEvent_primary(t *testing.T) {
	defer gtest.Catch(t)

	var comp FakeCompiler
	var out strings.Builder
	orch := testOrch(&comp, true)
	orch.Out = &out
	orch.Sep = "---\n"

	gtest.NoErr(orch.OnEvent(Event{KindPrimary, `/doc/main.tex`}))
	gtest.Equal(comp.Calls, []string{CALL_PRIMARY})
	gtest.Eq(out.String(), "---\n")
}

func TestOrch_OnEvent_primary_errors_are_not_fatal(t *testing.T) {
	defer gtest.Catch(t)

	comp := &PrimaryFailCompiler{}
	var out strings.Builder
	orch := &Orch{Compiler: comp, Out: &out}

	gtest.NoErr(orch.OnEvent(Event{KindPrimary, `/doc/main.tex`}))
	gtest.NoErr(orch.OnEvent(Event{KindPrimary, `/doc/main.tex`}))
	gtest.Eq(comp.Count, 2)
	gtest.Eq(out.String(), "warning: ! Undefined control sequence.\nwarning: ! Undefined control sequence.\n")
}

type PrimaryFailCompiler struct{ Count int }

func (self *PrimaryFailCompiler) CompilePrimary() (string, error) {
	self.Count++
	return "! Undefined control sequence.\nl.3 \\foo\n", nil
}

func (*PrimaryFailCompiler) CompileBib() (string, error) { return ``, nil }

func TestOrch_OnEvent_bib(t *testing.T) {
	defer gtest.Catch(t)

	event := Event{KindBib, `/doc/refs.bib`}

	t.Run(`first attempt succeeds`, func(t *testing.T) {
		defer gtest.Catch(t)

		var comp FakeCompiler
		gtest.NoErr(testOrch(&comp, true).OnEvent(event))
		gtest.Equal(comp.Calls, []string{CALL_BIB, CALL_PRIMARY, CALL_BIB})
	})

	t.Run(`warnings are not failures`, func(t *testing.T) {
		defer gtest.Catch(t)

		comp := FakeCompiler{BibOut: []string{BIB_WARN}}
		var out strings.Builder
		orch := testOrch(&comp, true)
		orch.Out = &out

		gtest.NoErr(orch.OnEvent(event))
		gtest.Equal(comp.Calls, []string{CALL_BIB, CALL_PRIMARY, CALL_BIB})
		gtest.Eq(out.String(), "warning: WARN - duplicate entry\n")
	})

	t.Run(`recovers after one failure`, func(t *testing.T) {
		defer gtest.Catch(t)

		comp := FakeCompiler{BibOut: []string{BIB_FAIL, BIB_OK}}
		gtest.NoErr(testOrch(&comp, true).OnEvent(event))
		gtest.Equal(comp.Calls, []string{
			CALL_BIB, CALL_PRIMARY, CALL_BIB, CALL_PRIMARY, CALL_BIB,
		})
	})

	t.Run(`second failure is fatal`, func(t *testing.T) {
		defer gtest.Catch(t)

		comp := FakeCompiler{BibOut: []string{BIB_FAIL, BIB_FAIL}}
		err := testOrch(&comp, true).OnEvent(event)
		gtest.True(IsFatal(err))
		gtest.Equal(comp.Calls, []string{CALL_BIB, CALL_PRIMARY, CALL_BIB})
	})
}

func TestOrch_OnEvent_compiler_error_is_fatal(t *testing.T) {
	defer gtest.Catch(t)

	cause := errors.New(`exec: "hilatex": executable file not found in $PATH`)
	comp := FakeCompiler{Err: cause}

	err := testOrch(&comp, false).OnEvent(Event{KindPrimary, `/doc/main.tex`})
	gtest.True(IsFatal(err))
	gtest.True(errors.Is(err, cause))
}

func TestOrch_Run_order(t *testing.T) {
	defer gtest.Catch(t)

	queue := testQueue()
	kinds := []Kind{KindPrimary, KindBib, KindPrimary, KindPrimary, KindBib}
	for _, kind := range kinds {
		gtest.NoErr(queue.Send(Event{Kind: kind, Path: `/doc/` + kind.String()}))
	}

	var comp FakeCompiler
	orch := testOrch(&comp, true)

	done := errors.New(`done`)
	ctx, cancel := context.WithCancelCause(context.Background())
	orch.BeforeEvent = func() {
		if queue.Len() == 0 {
			cancel(done)
		}
	}

	err := orch.Run(ctx, queue)
	gtest.True(errors.Is(err, done))
	gtest.Equal(comp.Calls, []string{
		CALL_PRIMARY,
		CALL_BIB, CALL_PRIMARY, CALL_BIB,
		CALL_PRIMARY,
		CALL_PRIMARY,
		CALL_BIB, CALL_PRIMARY, CALL_BIB,
	})
}

func TestOrch_Run_stops_on_fatal(t *testing.T) {
	defer gtest.Catch(t)

	queue := testQueue()
	gtest.NoErr(queue.Send(Event{KindBib, `/doc/refs.bib`}))
	gtest.NoErr(queue.Send(Event{KindPrimary, `/doc/main.tex`}))

	comp := FakeCompiler{BibOut: []string{BIB_FAIL, BIB_FAIL}}
	err := testOrch(&comp, true).Run(context.Background(), queue)

	gtest.True(IsFatal(err))
	gtest.Equal(comp.Calls, []string{CALL_BIB, CALL_PRIMARY, CALL_BIB})
	gtest.Eq(queue.Len(), 1)
}

func TestOrch_Run_cancelled(t *testing.T) {
	defer gtest.Catch(t)

	queue := testQueue()
	gtest.NoErr(queue.Send(Event{KindPrimary, `/doc/main.tex`}))

	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(KillError{KILL_SIGS[1]})

	var comp FakeCompiler
	err := testOrch(&comp, false).Run(ctx, queue)

	var kill KillError
	gtest.True(errors.As(err, &kill))
	gtest.Eq(len(comp.Calls), 0)
}
