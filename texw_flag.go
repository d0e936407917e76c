package main

import (
	"strings"

	"github.com/mitranim/gg"
)

type FlagStrMultiline string

func (self *FlagStrMultiline) String() string {
	return strings.ReplaceAll(string(gg.PtrGet(self)), gg.Newline, `\n`)
}

func (self *FlagStrMultiline) Set(src string) error {
	src = strings.ReplaceAll(src, `\n`, gg.Newline)
	if len(src) > 0 {
		src = withNewline(src)
	}
	*self = FlagStrMultiline(src)
	return nil
}

// Allowed source extensions, without the leading dot.
type FlagExtensions []string

func (self *FlagExtensions) Default() {
	if gg.IsEmpty(*self) {
		gg.Append(self, DEFAULT_EXTENSIONS...)
	}
}

func (self *FlagExtensions) String() string {
	return strings.Join(gg.PtrGet(self), `,`)
}

func (self *FlagExtensions) Set(src string) (err error) {
	defer gg.Rec(&err)
	vals := commaSplit(src)
	gg.Each(vals, validateExtension)
	gg.Append(self, vals...)
	return
}

func (self FlagExtensions) Allow(path string) bool {
	return gg.Has(self, cleanExtension(path))
}

/*
Ignored paths, normalized to absolute directory paths. A path is ignored if it
has any of them as a prefix.
*/
type FlagIgnoredPaths []string

func (self *FlagIgnoredPaths) String() string {
	return strings.Join(gg.PtrGet(self), `,`)
}

func (self *FlagIgnoredPaths) Set(src string) error {
	gg.Append(self, commaSplit(src)...)
	self.Norm()
	return nil
}

func (self FlagIgnoredPaths) Norm() {
	for ind := range self {
		self[ind] = toAbsDirPath(self[ind])
	}
}

func (self FlagIgnoredPaths) Allow(path string) bool {
	return !self.Ignore(path)
}

// Assumes that the input is an absolute path.
func (self FlagIgnoredPaths) Ignore(path string) bool {
	path = toDirPath(path)
	return gg.Some(self, func(val string) bool {
		return strings.HasPrefix(path, val)
	})
}
