package engine

import (
	"log/slog"
	"strings"
)

// Diagnostic is one condition reported during a pass. Diagnostics are
// observational: they never change how the pass proceeds.
type Diagnostic struct {
	Severity slog.Level
	Code     DiagnosticCode

	// Line is the 1-based input line number. End-of-input conditions carry
	// the number of the last line read.
	Line int

	// Text is the offending line with surrounding whitespace removed.
	Text string

	Message string
}

// SeverityName returns the lowercase level name: "debug", "info", "warn" or
// "error".
func (d Diagnostic) SeverityName() string {
	return strings.ToLower(d.Severity.String())
}

// Reporter receives diagnostics as they are raised.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(d Diagnostic)

// Report calls f(d).
func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// MultiReporter fans a diagnostic out to several reporters in order.
type MultiReporter []Reporter

// Report forwards d to every reporter.
func (m MultiReporter) Report(d Diagnostic) {
	for _, r := range m {
		if r != nil {
			r.Report(d)
		}
	}
}

// Collector keeps reported diagnostics in memory.
//
// Max bounds how many are kept; zero means unbounded. Diagnostics past the
// bound are counted in Overflow but not stored.
type Collector struct {
	Max         int
	Diagnostics []Diagnostic
	Overflow    int
}

// Report stores d unless the collector is full.
func (c *Collector) Report(d Diagnostic) {
	if c.Max > 0 && len(c.Diagnostics) >= c.Max {
		c.Overflow++
		return
	}
	c.Diagnostics = append(c.Diagnostics, d)
}

// Count returns how many stored diagnostics carry code.
func (c *Collector) Count(code DiagnosticCode) int {
	n := 0
	for _, d := range c.Diagnostics {
		if d.Code == code {
			n++
		}
	}
	return n
}
