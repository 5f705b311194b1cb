package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the artifacts and diagnostics of a recorded run",
		Long: `Show one run recorded by "split --manifest": its settings, every
artifact in the order it was closed, and every stored diagnostic.

Exit codes:
  0 - Run found
  1 - No run with that ID
  2 - Command error (no manifest, unreadable manifest)

Examples:
  dumpsplit show --manifest runs.db 0190a5c4-7f7e-7cc1-9e0b-3f1d2a8c4b11
  dumpsplit show --manifest runs.db --format json <run-id>`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}

	cmd.Flags().String("manifest", "", "SQLite manifest to read")

	return cmd
}

func runShow(opts *RootOptions, runID string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	st, exitErr := openManifest(opts, cmd)
	if exitErr != nil {
		return fail(f, CodeManifestFailed, exitErr)
	}
	defer closeManifest(st)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	detail, err := st.ReadRun(ctx, runID)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(f, CodeRunNotFound, NewExitError(ExitFailure, fmt.Sprintf("run not found: %s", runID)))
	}
	if err != nil {
		return fail(f, CodeManifestFailed, WrapExitError(ExitCommandError, "failed to read run", err))
	}

	if f.Format == "json" {
		return f.JSON(CLIResponse{Status: "ok", Data: detail, RunID: detail.Run.ID})
	}

	w := f.Writer
	r := detail.Run
	fmt.Fprintf(w, "Run:         %s\n", r.ID)
	fmt.Fprintf(w, "Started:     %s\n", formatStarted(r.StartedAt))
	fmt.Fprintf(w, "Duration:    %s\n", r.FinishedAt.Sub(r.StartedAt))
	fmt.Fprintf(w, "Input:       %s\n", r.Input)
	fmt.Fprintf(w, "Root:        %s\n", r.Root)
	fmt.Fprintf(w, "Compression: %s\n", r.Compression)
	fmt.Fprintf(w, "Lines:       %d\n", r.Lines)
	fmt.Fprintf(w, "Status:      %s\n", r.Status)
	if r.Error != "" {
		fmt.Fprintf(w, "Error:       %s\n", r.Error)
	}

	fmt.Fprintln(w)
	if len(detail.Artifacts) == 0 {
		fmt.Fprintln(w, "No artifacts.")
	} else {
		writeArtifactTable(w, detail.Artifacts)
	}

	fmt.Fprintln(w)
	if len(detail.Diagnostics) == 0 {
		fmt.Fprintln(w, "No diagnostics.")
		return nil
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Line", "Severity", "Code", "Message"})
	for _, d := range detail.Diagnostics {
		t.AppendRow(table.Row{d.Seq, d.Line, d.Severity, d.Code, d.Message})
	}
	t.Render()
	return nil
}
