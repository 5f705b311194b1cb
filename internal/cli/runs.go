package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/dumpsplit/internal/config"
	"github.com/roach88/dumpsplit/internal/store"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List split runs recorded in a manifest",
		Long: `List the runs recorded by "split --manifest", oldest first.

The manifest comes from --manifest, DUMPSPLIT_MANIFEST or the config file.

Examples:
  dumpsplit runs --manifest runs.db
  dumpsplit runs --manifest runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(rootOpts, cmd)
		},
	}

	cmd.Flags().String("manifest", "", "SQLite manifest to read")

	return cmd
}

func runRuns(opts *RootOptions, cmd *cobra.Command) error {
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
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return fail(f, CodeManifestFailed, WrapExitError(ExitCommandError, "failed to list runs", err))
	}

	if f.Format == "json" {
		return f.Success(runs)
	}

	w := f.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Started", "Input", "Status", "Lines", "Artifacts", "Diagnostics"})
	for _, r := range runs {
		t.AppendRow(table.Row{r.ID, formatStarted(r.StartedAt), r.Input, r.Status, r.Lines, r.Artifacts, r.Diagnostics})
	}
	t.Render()
	return nil
}

// openManifest opens the configured manifest. A missing file is an error;
// only split creates manifests.
func openManifest(opts *RootOptions, cmd *cobra.Command) (*store.Store, *ExitError) {
	cfg, err := config.Load(opts.ConfigFile, cmd.Flags())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if cfg.Manifest == "" {
		return nil, NewExitError(ExitCommandError, "no manifest given (use --manifest)")
	}
	if _, err := os.Stat(cfg.Manifest); err != nil {
		return nil, WrapExitError(ExitCommandError, "manifest not found", err)
	}
	st, err := store.Open(cfg.Manifest)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open manifest", err)
	}
	return st, nil
}

func closeManifest(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing manifest", "error", err)
	}
}

func formatStarted(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func writeArtifactTable(w io.Writer, artifacts []store.ArtifactRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Kind", "Path", "Lines", "Bytes"})
	for _, a := range artifacts {
		t.AppendRow(table.Row{a.Seq, a.Kind, a.Path, a.Lines, a.Bytes})
	}
	t.Render()
}
