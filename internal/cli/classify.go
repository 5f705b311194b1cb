package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/dumpsplit/internal/classify"
	"github.com/roach88/dumpsplit/internal/input"
)

// ClassifyOptions holds flags for the classify command.
type ClassifyOptions struct {
	*RootOptions
	Encoding string
	Tags     []string // only print lines with these tags
}

// ClassifiedLine is one line of classify output.
type ClassifiedLine struct {
	Line int    `json:"line"`
	Tag  string `json:"tag"`
	Name string `json:"name,omitempty"`
}

// NewClassifyCommand creates the classify command.
func NewClassifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClassifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "classify [dump.sql]",
		Short: "Print the tag of every dump line without writing files",
		Long: `Classify every line of a dump the way split does and print
"line<TAB>tag<TAB>name". Header rules are applied only while no database or
table is open, exactly as during a split.

Tags: header, worthless, database-create, database-switch, table-start,
table-end, low-importance, statement.

Examples:
  dumpsplit classify dump.sql
  dumpsplit classify --tags header,table-start dump.sql
  zcat dump.sql.gz | dumpsplit classify --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := input.Stdin
			if len(args) == 1 {
				path = args[0]
			}
			return runClassify(opts, path, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Encoding, "encoding", "", "input charset, e.g. latin1 (default utf-8)")
	cmd.Flags().StringSliceVar(&opts.Tags, "tags", nil, "only print lines with these tags")

	return cmd
}

func runClassify(opts *ClassifyOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	for _, tag := range opts.Tags {
		if !validTag(tag) {
			return fail(f, CodeConfigFailed, NewExitError(ExitCommandError, fmt.Sprintf("unknown tag %q", tag)))
		}
	}

	stream, err := openInput(cmd, path, opts.Encoding)
	if err != nil {
		return fail(f, CodeReadFailed, WrapExitError(ExitCommandError, "failed to open input", err))
	}
	defer stream.Close()

	var (
		lines []ClassifiedLine
		w     = f.Writer
	)
	readErr := classifyStream(stream, func(cl ClassifiedLine) {
		if len(opts.Tags) > 0 && !slices.Contains(opts.Tags, cl.Tag) {
			return
		}
		if f.Format == "json" {
			lines = append(lines, cl)
			return
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", cl.Line, cl.Tag, cl.Name)
	})

	if f.Format == "json" {
		if lines == nil {
			lines = []ClassifiedLine{}
		}
		resp := CLIResponse{Status: "ok", Data: lines}
		if readErr != nil {
			resp.Status = "error"
			resp.Error = &CLIError{Code: CodeReadFailed, Message: readErr.Error()}
		}
		if err := f.JSON(resp); err != nil {
			return err
		}
	}
	if readErr != nil {
		return WrapExitError(ExitFailure, "failed to read input", readErr)
	}
	return nil
}

// classifyStream tags each line of r. It tracks database and table context
// the same way the engine does, so header rules match what a split sees.
func classifyStream(r io.Reader, emit func(ClassifiedLine)) error {
	var (
		inDB    bool
		inTable bool
		lineno  int
	)
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			lineno++
			res := classify.Classify(line, !inDB && !inTable)
			switch res.Tag {
			case classify.TagDatabaseSwitch:
				inDB, inTable = true, false
			case classify.TagTableStart:
				inTable = true
			case classify.TagTableEnd:
				inTable = false
			}
			emit(ClassifiedLine{Line: lineno, Tag: res.Tag.String(), Name: res.Name})
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input after line %d: %w", lineno, err)
		}
	}
}

func validTag(name string) bool {
	for t := classify.TagStatement; t <= classify.TagLowImportance; t++ {
		if t.String() == name {
			return true
		}
	}
	return false
}
