package main

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitranim/gg"
	"golang.org/x/term"
)

/*
Adds watch targets after startup. Safe for concurrent use: the registry
serializes additions, and a new target never affects existing ones.
*/
type Registrar struct {
	Dir      string
	Registry *Registry
	Verb     bool
}

/*
Starts watching `<dir>/<name>.tex`, creating an empty file if it doesn't exist
yet. Only regular files are watched; anything else produces a warning and no
watcher. Returns true if a new watcher was started.
*/
func (self Registrar) RegisterName(name string) bool {
	name = strings.TrimSpace(name)
	if name == `` {
		return false
	}

	path := self.PathFor(name)

	err := ensureFile(path)
	if err != nil {
		log.Printf(`warning: %v`, err)
		return false
	}
	return self.RegisterPath(path)
}

// Like `RegisterName` but takes a complete path and never creates files.
func (self Registrar) RegisterPath(path string) bool {
	path = toAbsPath(path)

	info, err := os.Stat(path)
	if err != nil {
		log.Printf(`warning: unable to watch %q: %v`, path, err)
		return false
	}
	if !info.Mode().IsRegular() {
		log.Printf(`warning: %q is not a regular file, not watching`, path)
		return false
	}

	if self.Registry.Has(path) {
		if self.Verb {
			log.Printf(`already watching %q`, path)
		}
		return false
	}

	// The file was just stat'ed, so its current mtime is the baseline.
	tar := Target{Path: path, Kind: KindPrimary, Baseline: info.ModTime()}
	if !self.Registry.Add(tar) {
		return false
	}
	log.Printf(`watching %q`, path)
	return true
}

// Source path for a base name typed by the user.
func (self Registrar) PathFor(name string) string {
	if cleanExtension(name) != EXT_SOURCE {
		name += `.` + EXT_SOURCE
	}
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return toAbsPath(filepath.Join(self.Dir, name))
}

/*
Creates an empty file if nothing exists at the path. Existing entries of any
type are left alone; the caller decides whether they are watchable.
*/
func ensureFile(path string) error {
	_, err := os.Lstat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return gg.Wrapf(err, `unable to stat %q`, path)
	}

	log.Printf(`file %q not found, creating`, path)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return gg.Wrapf(err, `unable to create %q`, path)
	}
	err = file.Close()
	if err != nil {
		return gg.Wrapf(err, `unable to close %q`, path)
	}
	return nil
}

/*
Reads base names of new watch targets from stdin, one per line. Blocks only
while waiting for input. On EOF the loop ends and nothing else is affected.
*/
type Stdio struct {
	Mained
	In     io.Reader
	Prompt bool
}

func (self *Stdio) Init(main *Main) {
	self.Mained.Init(main)
	self.In = os.Stdin
	self.Prompt = term.IsTerminal(int(os.Stdin.Fd()))
}

// Doesn't require special cleanup. We run only one stdio loop.
func (*Stdio) Deinit() {}

func (self *Stdio) Run() {
	main := self.Main()
	if !main.Opt.Prompt {
		return
	}
	self.Loop(main.Registrar())
}

func (self *Stdio) Loop(reg Registrar) {
	scan := bufio.NewScanner(self.In)
	for {
		self.ShowPrompt()
		if !scan.Scan() {
			break
		}
		self.OnLine(reg, scan.Text())
	}

	err := scan.Err()
	if err != nil {
		log.Println(`stopped reading stdin:`, err)
	}
}

func (self *Stdio) OnLine(reg Registrar, line string) {
	defer recLog()
	reg.RegisterName(line)
}

func (self *Stdio) ShowPrompt() {
	if self.Prompt {
		gg.Nop2(os.Stderr.WriteString(`watch new file: `))
	}
}
