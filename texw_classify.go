package main

import (
	"strings"

	"github.com/mitranim/gg"
)

// Classified output of one external tool invocation.
type Report struct {
	Errors   []string
	Warnings []string
}

func (self Report) Failed() bool { return len(self.Errors) > 0 }

/*
Scans tool output line by line for the severity markers of the given tool.
This is the only place coupled to the tools' output format. Localized or
reformatted output is not recognized and classifies as clean.

	primary:      "!"     -> error
	bibliography: "ERROR" -> error
	              "WARN"  -> warning
*/
func Classify(kind Kind, src string) (out Report) {
	for _, line := range gg.SplitLines(src) {
		switch kind {
		case KindPrimary:
			if strings.HasPrefix(line, MARKER_PRIMARY_ERROR) {
				out.Errors = append(out.Errors, line)
			}

		case KindBib:
			if strings.HasPrefix(line, MARKER_BIB_ERROR) {
				out.Errors = append(out.Errors, line)
			} else if strings.HasPrefix(line, MARKER_BIB_WARN) {
				out.Warnings = append(out.Warnings, line)
			}
		}
	}
	return
}
