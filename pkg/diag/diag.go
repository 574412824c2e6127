// Package diag carries the recoverable diagnostics produced by each stage of
// the toolchain. Fatal problems are returned as errors; everything that still
// lets a stage produce its artifact ends up here.
package diag

import (
	"fmt"
	"strings"
)

type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Stage names the component that raised a diagnostic.
type Stage string

const (
	StageCompile  Stage = "compile"
	StageAssemble Stage = "assemble"
	StageExecute  Stage = "execute"
)

// Diagnostic is a single reported condition. Line is 1-based; 0 means the
// condition is not tied to a source line.
type Diagnostic struct {
	Stage    Stage
	Severity Severity
	Line     int
	Message  string
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s: %s: line %d: %s", d.Stage, d.Severity, d.Line, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Stage, d.Severity, d.Message)
}

// List is an ordered collection of diagnostics.
type List []Diagnostic

func (l *List) Add(stage Stage, sev Severity, line int, format string, args ...any) {
	*l = append(*l, Diagnostic{
		Stage:    stage,
		Severity: sev,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	})
}

// HasErrors reports whether any entry has Error severity.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Filter returns the entries with the given severity.
func (l List) Filter(sev Severity) List {
	var out List
	for _, d := range l {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

func (l List) String() string {
	var sb strings.Builder
	for _, d := range l {
		sb.WriteString(d.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
