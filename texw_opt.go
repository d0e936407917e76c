package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/mitranim/gg"
	"golang.org/x/term"
)

type Opt struct {
	flag.FlagSet
	Layout       Layout
	PrimaryTool  string
	BibTool      string
	Interval     time.Duration
	Verb         bool
	ClearHard    bool
	ClearSoft    bool
	Prompt       bool
	AutoRegister bool
	Sep          FlagStrMultiline
	Extensions   FlagExtensions
	IgnoredPaths FlagIgnoredPaths
}

func (self *Opt) Init(src []string) {
	self.FlagSet.Init(os.Args[0], flag.ExitOnError)
	self.Usage = self.PrintHelp

	self.BoolVar(&self.Verb, `v`, false, ``)
	self.StringVar(&self.PrimaryTool, `t`, DEFAULT_PRIMARY_TOOL, ``)
	self.StringVar(&self.BibTool, `b`, DEFAULT_BIB_TOOL, ``)
	self.StringVar(&self.Layout.Main, `m`, DEFAULT_MAIN, ``)
	self.StringVar(&self.Layout.Bib, `B`, ``, ``)
	self.DurationVar(&self.Interval, `i`, DEFAULT_INTERVAL, ``)
	self.BoolVar(&self.Prompt, `p`, DEFAULT_PROMPT, ``)
	self.BoolVar(&self.AutoRegister, `n`, false, ``)
	self.BoolVar(&self.ClearHard, `c`, false, ``)
	self.BoolVar(&self.ClearSoft, `s`, false, ``)
	self.Var(&self.Sep, `S`, ``)
	self.Var(&self.Extensions, `e`, ``)
	self.Var(&self.IgnoredPaths, `I`, ``)

	gg.Try(self.FlagSet.Parse(src))
	self.Extensions.Default()

	args := self.FlagSet.Args()
	switch len(args) {
	case 0:
		self.Layout.Dir = DEFAULT_DIR
	case 1:
		self.Layout.Dir = args[0]
	default:
		self.Usage()
		os.Exit(1)
	}
	self.Layout.Dir = toAbsPath(self.Layout.Dir)

	gg.Try(self.Validate())
}

// Reports every problem at once rather than stopping at the first.
func (self Opt) Validate() error {
	var out *multierror.Error

	info, err := os.Stat(self.Layout.Dir)
	if err != nil {
		out = multierror.Append(out, gg.Wrapf(err, `invalid directory %q`, self.Layout.Dir))
	} else if !info.IsDir() {
		out = multierror.Append(out, gg.Errf(`%q is not a directory`, self.Layout.Dir))
	}

	if self.Layout.Main == `` {
		out = multierror.Append(out, gg.Errf(`main document name must be non-empty`))
	} else if filepath.Ext(self.Layout.Main) == `` {
		out = multierror.Append(out, gg.Errf(`main document %q has no extension`, self.Layout.Main))
	}

	if self.Interval <= 0 {
		out = multierror.Append(out, gg.Errf(`polling interval must be positive, got %v`, self.Interval))
	}

	if self.PrimaryTool == `` {
		out = multierror.Append(out, gg.Errf(`primary compiler must be non-empty`))
	}
	if self.Layout.HasBib() && self.BibTool == `` {
		out = multierror.Append(out, gg.Errf(`bibliography tool must be non-empty when a bibliography is configured`))
	}

	return out.ErrorOrNil()
}

func (self *Opt) PrintHelp() {
	gg.Nop2(fmt.Fprintf(self.Output(), `"texw" recompiles a document tree whenever its sources change.
Polls every source file, and reruns the primary compiler and, when configured,
the bibliography tool. Type a base name on stdin to start watching a new file,
creating it if needed.

Usage:

	texw <flags> [dir]

Examples:

	texw
	texw -v -B=refs.bib        paper
	texw -t=pdflatex -m=thesis.tex -B=thesis.bib -c
	texw -e=tex -e=sty -I=build -n

Flags:

	-h    Print help and exit.
	-v    Verbose logging.
	-t    Primary compiler; default: %[1]q.
	-b    Bibliography tool; default: %[2]q.
	-m    Main document, relative to dir; default: %[3]q.
	-B    Bibliography data file, relative to dir; default: none.
	-i    Polling interval; default: %[4]v.
	-e    Extensions to watch; multi; default: %[5]q.
	-I    Ignored paths, relative to CWD; multi.
	-p    Read base names of new files to watch from stdin; default: %[6]v.
	-n    Also start watching newly created source files automatically.
	      Deleting a watched file is fatal, including auto-registered ones.
	-c    Clear terminal on recompile.
	-s    Soft-clear terminal, keeping scrollback.
	-S    Separator string printed after each recompile; supports "\n".

"Multi" flags can be passed multiple times.
In addition, they support comma-separated parsing.
`,
		DEFAULT_PRIMARY_TOOL,
		DEFAULT_BIB_TOOL,
		DEFAULT_MAIN,
		DEFAULT_INTERVAL,
		DEFAULT_EXTENSIONS,
		DEFAULT_PROMPT,
	))
}

func (self Opt) TermClear() {
	if self.ClearHard {
		gg.Nop2(os.Stdout.WriteString(TERM_CLEAR_HARD))
	} else if self.ClearSoft {
		gg.Nop2(os.Stdout.WriteString(TERM_CLEAR_SOFT))
	}
}

// Warnings are colored only when they go to a terminal.
func (self Opt) Color() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

func (self Opt) AllowPath(path string) bool {
	return !hasIgnoredSegment(path) &&
		self.IgnoredPaths.Allow(path) &&
		self.Extensions.Allow(path)
}
