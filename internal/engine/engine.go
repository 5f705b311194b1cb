package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/roach88/dumpsplit/internal/classify"
	"github.com/roach88/dumpsplit/internal/sink"
)

// DefaultDatabase receives tables that start before any USE statement.
const DefaultDatabase = "default"

// readBufferSize is the initial input buffer. Lines longer than this are
// still read whole; extended INSERTs routinely run to megabytes.
const readBufferSize = 1 << 20

// ArtifactKind distinguishes database artifacts from table artifacts.
type ArtifactKind string

const (
	ArtifactDatabase ArtifactKind = "database"
	ArtifactTable    ArtifactKind = "table"
)

// Artifact describes one output file written during a pass.
type Artifact struct {
	Kind     ArtifactKind
	Database string
	Table    string // empty for database artifacts

	// Path is relative to the output root, without codec suffix.
	Path string

	// Location is what the opener reported, typically an absolute path.
	Location string

	Lines int
	Bytes int64

	// HeaderLines is how many header lines were replayed at the start of a
	// table artifact. The header can still grow after a table opened before
	// any USE has closed.
	HeaderLines int
}

// Stats summarizes a pass.
type Stats struct {
	Lines        int `json:"lines"`         // lines read
	HeaderLines  int `json:"header_lines"`  // lines captured into the header
	DroppedLines int `json:"dropped_lines"` // blank and comment lines
	Databases    int `json:"databases"`     // database artifacts written
	Tables       int `json:"tables"`        // table artifacts written
	Unattributed int `json:"unattributed"`  // statements outside any table
	Errors       int `json:"errors"`
	Warnings     int `json:"warnings"`
	Notices      int `json:"notices"` // debug-severity diagnostics
}

// Result is the outcome of a pass.
type Result struct {
	Artifacts []Artifact
	Stats     Stats

	// Header holds the captured header lines, in input order.
	Header []string
}

// Options configures an Engine.
type Options struct {
	// DefaultDatabase names the directory for tables seen before any USE.
	// Empty means DefaultDatabase.
	DefaultDatabase string

	// Rules overrides the classification table. Nil means classify.Rules.
	Rules []classify.Rule

	// Logger receives debug traces and every diagnostic. Nil discards.
	Logger *slog.Logger

	// Reporter additionally receives every diagnostic.
	Reporter Reporter
}

// Engine splits dump streams into per-database and per-table artifacts.
// An Engine may run several passes, one at a time.
type Engine struct {
	opener   sink.Opener
	rules    []classify.Rule
	defaultD string
	logger   *slog.Logger
	reporter Reporter
}

// New creates an Engine writing through opener.
func New(opener sink.Opener, opts Options) *Engine {
	e := &Engine{
		opener:   opener,
		rules:    opts.Rules,
		defaultD: opts.DefaultDatabase,
		logger:   opts.Logger,
		reporter: opts.Reporter,
	}
	if e.rules == nil {
		e.rules = classify.Rules
	}
	if e.defaultD == "" {
		e.defaultD = DefaultDatabase
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return e
}

// pass is the owned mutable state of a single run.
type pass struct {
	*Engine

	header   []string
	database string
	inDB     bool
	table    *tableSink
	lineno   int
	result   Result
}

// tableSink is the open table artifact. A nil *tableSink means no table is
// open.
type tableSink struct {
	out      sink.Sink
	artifact Artifact
}

// Run consumes r to the end and writes artifacts through the opener.
//
// Structural problems in the input are reported as diagnostics and never
// returned. The returned error is a *SinkError when an artifact could not be
// created or written (the pass stops there) or a *ReadError when r failed
// before EOF. In both cases the partial Result is returned alongside it and
// no sink is left open.
func (e *Engine) Run(r io.Reader) (*Result, error) {
	p := &pass{Engine: e}
	br := bufio.NewReaderSize(r, readBufferSize)

	var readErr error
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			if stepErr := p.step(line); stepErr != nil {
				p.abort()
				return p.finish(), stepErr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			readErr = &ReadError{Line: p.lineno, Err: err}
			break
		}
	}

	if p.table != nil {
		p.report(slog.LevelError, CodeUnterminatedTable, p.lineno, "",
			fmt.Sprintf("end of input inside table %s", p.table.artifact.Path))
		if err := p.closeTable(); err != nil {
			return p.finish(), errors.Join(err, readErr)
		}
	}
	return p.finish(), readErr
}

func (p *pass) finish() *Result {
	p.result.Header = p.header
	return &p.result
}

// headerEligible reports whether header rules apply at the current position.
func (p *pass) headerEligible() bool {
	return !p.inDB && p.table == nil
}

// step applies the transition for one raw line.
func (p *pass) step(line string) error {
	p.lineno++
	p.result.Stats.Lines++

	res := classify.ClassifyWith(p.rules, line, p.headerEligible())
	text := strings.TrimSpace(line)

	switch res.Tag {
	case classify.TagHeader:
		p.logger.Debug("[HEADER]", "line", p.lineno, "text", text)
		p.header = append(p.header, line)
		p.result.Stats.HeaderLines++
		return nil

	case classify.TagWorthless:
		p.result.Stats.DroppedLines++
		return nil

	case classify.TagDatabaseCreate:
		p.logger.Debug("[CREATE DATABASE]", "line", p.lineno, "text", text)
		return p.writeDatabase(res.Name, line)

	case classify.TagDatabaseSwitch:
		p.logger.Debug("[USE]", "line", p.lineno, "text", text)
		if p.table != nil {
			p.report(slog.LevelError, CodeDatabaseSwitchInTable, p.lineno, text,
				"database change encountered within table")
			if err := p.closeTable(); err != nil {
				return err
			}
		}
		p.database = res.Name
		p.inDB = true
		return nil

	case classify.TagTableStart:
		if p.table != nil {
			p.report(slog.LevelError, CodeNestedTable, p.lineno, text,
				"table creation encountered within table")
			if err := p.closeTable(); err != nil {
				return err
			}
		}
		p.logger.Debug("[CREATE TABLE]", "line", p.lineno, "text", text)
		if err := p.openTable(res.Name, text); err != nil {
			return err
		}
		return p.attribute(res.Tag, line, text)

	case classify.TagTableEnd:
		p.logger.Debug("[UNLOCK TABLES]", "line", p.lineno, "text", text)
		if p.table == nil {
			p.report(slog.LevelError, CodeUnlockOutsideTable, p.lineno, text,
				"unlock tables encountered outside of table")
			return nil
		}
		if err := p.attribute(res.Tag, line, text); err != nil {
			return err
		}
		return p.closeTable()

	default:
		return p.attribute(res.Tag, line, text)
	}
}

// attribute writes line to the open table, or reports it as bare SQL.
func (p *pass) attribute(tag classify.Tag, line, text string) error {
	if p.table != nil {
		return p.write(line)
	}

	p.result.Stats.Unattributed++
	level := slog.LevelWarn
	if tag == classify.TagLowImportance {
		level = slog.LevelDebug
	}
	p.report(level, CodeBareSQL, p.lineno, text, "ignoring bare SQL outside of table")
	return nil
}

// write appends line to the open table sink.
func (p *pass) write(line string) error {
	t := p.table
	n, err := io.WriteString(t.out, line)
	t.artifact.Bytes += int64(n)
	if err != nil {
		return &SinkError{Op: "write", Path: t.artifact.Path, Line: p.lineno, Err: err}
	}
	t.artifact.Lines++
	return nil
}

// writeDatabase creates the database directory and its one-line artifact.
func (p *pass) writeDatabase(name, line string) error {
	dir := artifactName(name)
	if err := p.opener.EnsureDir(dir); err != nil {
		return &SinkError{Op: "mkdir", Path: dir, Line: p.lineno, Err: err}
	}

	rel := dir + ".sql"
	out, err := p.opener.Open(rel)
	if err != nil {
		return &SinkError{Op: "open", Path: rel, Line: p.lineno, Err: err}
	}
	n, werr := io.WriteString(out, line)
	cerr := out.Close()
	if werr != nil {
		return &SinkError{Op: "write", Path: rel, Line: p.lineno, Err: werr}
	}
	if cerr != nil {
		return &SinkError{Op: "close", Path: rel, Line: p.lineno, Err: cerr}
	}

	p.result.Stats.Databases++
	p.result.Artifacts = append(p.result.Artifacts, Artifact{
		Kind:     ArtifactDatabase,
		Database: name,
		Path:     rel,
		Location: out.Path(),
		Lines:    1,
		Bytes:    int64(n),
	})
	return nil
}

// openTable opens the sink for name in the current database and replays the
// header into it. The caller guarantees no table is open.
func (p *pass) openTable(name, text string) error {
	database := p.database
	if !p.inDB {
		database = p.defaultD
		p.report(slog.LevelWarn, CodeTableWithoutDatabase, p.lineno, text,
			fmt.Sprintf("table outside of any database, using %q", database))
	}

	rel := path.Join(artifactName(database), artifactName(name)+".sql")
	out, err := p.opener.Open(rel)
	if err != nil {
		return &SinkError{Op: "open", Path: rel, Line: p.lineno, Err: err}
	}
	p.table = &tableSink{
		out: out,
		artifact: Artifact{
			Kind:        ArtifactTable,
			Database:    database,
			Table:       name,
			Path:        rel,
			Location:    out.Path(),
			HeaderLines: len(p.header),
		},
	}

	for _, h := range p.header {
		if err := p.write(h); err != nil {
			return err
		}
	}
	return nil
}

// closeTable closes the open sink and records its artifact. The table is
// cleared even when Close fails, so the state stays consistent.
func (p *pass) closeTable() error {
	t := p.table
	p.table = nil

	err := t.out.Close()
	p.result.Stats.Tables++
	p.result.Artifacts = append(p.result.Artifacts, t.artifact)
	if err != nil {
		return &SinkError{Op: "close", Path: t.artifact.Path, Line: p.lineno, Err: err}
	}
	return nil
}

// abort releases the open sink after a sink failure. Its own close error is
// logged; the failure that caused the abort is what the caller returns.
func (p *pass) abort() {
	if p.table == nil {
		return
	}
	if err := p.closeTable(); err != nil {
		p.logger.Error("closing table after failure", "error", err)
	}
}

func (p *pass) report(level slog.Level, code DiagnosticCode, line int, text, msg string) {
	switch {
	case level >= slog.LevelError:
		p.result.Stats.Errors++
	case level >= slog.LevelWarn:
		p.result.Stats.Warnings++
	default:
		p.result.Stats.Notices++
	}

	attrs := []any{"code", string(code)}
	if line > 0 {
		attrs = append(attrs, "line", line)
	}
	if text != "" {
		attrs = append(attrs, "text", text)
	}
	p.logger.Log(context.Background(), level, msg, attrs...)

	if p.reporter != nil {
		p.reporter.Report(Diagnostic{
			Severity: level,
			Code:     code,
			Line:     line,
			Text:     text,
			Message:  msg,
		})
	}
}

// artifactName makes an identifier safe to use as one path element.
func artifactName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "_" + name
	}
	return name
}
