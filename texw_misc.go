package main

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mitranim/gg"
	"golang.org/x/sys/unix"
)

const (
	DEFAULT_PRIMARY_TOOL = `hilatex`
	DEFAULT_BIB_TOOL     = `biber`
	DEFAULT_MAIN         = `main.tex`
	DEFAULT_DIR          = `.`
	DEFAULT_INTERVAL     = 100 * time.Millisecond
	DEFAULT_PROMPT       = true

	// Line-prefix markers printed by the external tools.
	MARKER_PRIMARY_ERROR = `!`
	MARKER_BIB_ERROR     = `ERROR`
	MARKER_BIB_WARN      = `WARN`

	EXT_SOURCE = `tex`

	ESC                   = "\x1b"
	TERM_CLEAR_SOFT       = ESC + `c`
	TERM_CLEAR_SCROLLBACK = ESC + `[3J`
	TERM_CLEAR_HARD       = TERM_CLEAR_SOFT + TERM_CLEAR_SCROLLBACK
	COLOR_RED             = ESC + `[31m`
	COLOR_OFF             = ESC + `[0m`
)

var (
	DEFAULT_EXTENSIONS = []string{EXT_SOURCE}
	DEFAULT_IGNORED    = []string{`.git`, `.hg`, `.svn`}

	KILL_SIGS    = []unix.Signal{unix.SIGHUP, unix.SIGINT, unix.SIGQUIT, unix.SIGTERM}
	KILL_SIGS_OS = gg.Map(KILL_SIGS, toOsSignal[unix.Signal])
	KILL_SIG_SET = gg.SetOf(KILL_SIGS...)
	RE_WORD      = regexp.MustCompile(`^\w+$`)
	PATH_SEP     = string([]rune{os.PathSeparator})
)

/*
Making `.main` private reduces the chance of accidental cyclic walking by
reflection tools such as pretty printers.
*/
type Mained struct{ main *Main }

func (self *Mained) Init(val *Main) { self.main = val }
func (self *Mained) Main() *Main    { return self.main }

// Which compilation procedure a change should trigger.
type Kind byte

const (
	KindPrimary Kind = iota
	KindBib
)

func (self Kind) String() string {
	switch self {
	case KindPrimary:
		return `primary`
	case KindBib:
		return `bibliography`
	default:
		return `unknown`
	}
}

/*
Immutable notification produced by a `Watcher`. Consumed exactly once by
`Orch`.
*/
type Event struct {
	Kind Kind
	Path string
}

func (self Event) String() string { return self.Kind.String() + ` ` + self.Path }

/*
Working directory and well-known artifact names shared by all compiler
invocations. Never modified after `(*Opt).Parse`.
*/
type Layout struct {
	Dir  string
	Main string
	Bib  string
}

func (self Layout) HasBib() bool { return self.Bib != `` }

// Base document name passed to the bibliography resolver.
func (self Layout) BibBase() string {
	return strings.TrimSuffix(self.Main, filepath.Ext(self.Main))
}

func (self Layout) BibPath() string { return self.Path(self.Bib) }

func (self Layout) Path(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return toAbsPath(filepath.Join(self.Dir, name))
}

func commaSplit(val string) []string {
	if len(val) <= 0 {
		return nil
	}
	return strings.Split(val, `,`)
}

func cleanExtension(val string) string {
	ext := filepath.Ext(val)
	if len(ext) > 0 && ext[0] == '.' {
		return ext[1:]
	}
	return ext
}

func validateExtension(val string) {
	if !RE_WORD.MatchString(val) {
		panic(gg.Errf(`invalid extension %q`, val))
	}
}

func toAbsPath(val string) string {
	if !filepath.IsAbs(val) {
		val = filepath.Join(gg.Cwd(), val)
	}
	return filepath.Clean(val)
}

func toDirPath(val string) string {
	if val == `` || strings.HasSuffix(val, PATH_SEP) {
		return val
	}
	return val + PATH_SEP
}

func toAbsDirPath(val string) string { return toDirPath(toAbsPath(val)) }

// True if any segment of the path is a version control directory.
func hasIgnoredSegment(path string) bool {
	return gg.Some(strings.Split(filepath.ToSlash(path), `/`), func(val string) bool {
		return gg.Has(DEFAULT_IGNORED, val)
	})
}

func toOsSignal[A os.Signal](src A) os.Signal { return src }

func recLog() {
	val := recover()
	if val != nil {
		log.Println(val)
	}
}

func withNewline[A ~string](val A) A {
	if gg.HasNewlineSuffix(val) {
		return val
	}
	return val + A(gg.Newline)
}

func timestamp() string { return time.Now().Format(time.TimeOnly) }

/*
Implemented by `notify.EventInfo`.
Path must be an absolute filesystem path.
*/
type FsEvent interface{ Path() string }
