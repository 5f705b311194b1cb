package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/dumpsplit/internal/config"
	"github.com/roach88/dumpsplit/internal/engine"
	"github.com/roach88/dumpsplit/internal/input"
	"github.com/roach88/dumpsplit/internal/sink"
	"github.com/roach88/dumpsplit/internal/store"
)

// SplitOptions holds flags for the split command.
type SplitOptions struct {
	*RootOptions

	// IDGenerator allows overriding the run ID generator (for testing).
	// If nil, defaults to store.UUIDv7Generator.
	IDGenerator store.IDGenerator

	// Now allows overriding the wall clock recorded in the manifest.
	Now func() time.Time
}

// SplitSummary is the payload printed after a split run.
type SplitSummary struct {
	Input       string                   `json:"input"`
	Root        string                   `json:"root"`
	Compression string                   `json:"compression"`
	Stats       engine.Stats             `json:"stats"`
	Artifacts   []store.ArtifactRecord   `json:"artifacts"`
	Diagnostics []store.DiagnosticRecord `json:"diagnostics"`

	// Unstored counts diagnostics past --max-diagnostics.
	Unstored int `json:"unstored_diagnostics,omitempty"`
}

// NewSplitCommand creates the split command.
func NewSplitCommand(rootOpts *RootOptions) *cobra.Command {
	return newSplitCommand(&SplitOptions{RootOptions: rootOpts})
}

func newSplitCommand(opts *SplitOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split [dump.sql]",
		Short: "Split a dump into per-database and per-table files",
		Long: `Split a mysqldump stream into one file per database and one per table.

The dump is read from the given path, or from standard input when the path
is omitted or "-". Gzip and zstd compressed dumps are detected automatically.
Files are written below --root as <db>.sql and <db>/<table>.sql.

Structural problems in the dump are reported and skipped; they do not change
the exit code unless --strict is set.

Exit codes:
  0 - Dump fully split
  1 - Input could not be read to the end, or --strict and errors were reported
  2 - Command error (bad configuration, output not writable)

Examples:
  dumpsplit split --root ./out dump.sql
  mysqldump --all-databases | dumpsplit split --root ./out --compress zstd
  dumpsplit split --root ./out --manifest runs.db --format json dump.sql.gz`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := input.Stdin
			if len(args) == 1 {
				path = args[0]
			}
			return runSplit(opts, path, cmd)
		},
	}

	// Flag defaults are for help output only; config.Load applies a flag
	// when it was set explicitly.
	flags := cmd.Flags()
	flags.String("root", config.DefaultRoot, "output directory")
	flags.String("compress", config.DefaultCompress, "compress artifacts (none|gzip|zstd)")
	flags.Int("level", 0, "compression level (0 picks the codec default)")
	flags.String("encoding", "", "input charset, e.g. latin1 (default utf-8)")
	flags.String("default-database", config.DefaultDatabase, "database for tables that appear before any USE")
	flags.String("manifest", "", "record the run in this SQLite manifest")
	flags.String("log-format", config.DefaultLogFormat, "log format (text|json)")
	flags.Bool("strict", false, "exit 1 when any structural error was reported")
	flags.Int("max-diagnostics", config.DefaultMaxDiagnostics, "diagnostics kept for the summary and manifest (0 = unlimited)")

	return cmd
}

func runSplit(opts *SplitOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	cfg, err := config.Load(opts.ConfigFile, cmd.Flags())
	if err != nil {
		return fail(f, CodeConfigFailed, WrapExitError(ExitCommandError, "failed to load configuration", err))
	}
	compression, err := sink.ParseCompression(cfg.Compress)
	if err != nil {
		return fail(f, CodeConfigFailed, WrapExitError(ExitCommandError, "failed to load configuration", err))
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.LogFormat, cfg.Verbose || opts.Verbose)

	if err := os.MkdirAll(cfg.Root, 0755); err != nil {
		return fail(f, CodeSinkFailed, WrapExitError(ExitCommandError, "failed to create output root", err))
	}

	stream, err := openInput(cmd, path, cfg.Encoding)
	if err != nil {
		return fail(f, CodeReadFailed, WrapExitError(ExitCommandError, "failed to open input", err))
	}
	defer func() {
		if closeErr := stream.Close(); closeErr != nil {
			logger.Warn("error closing input", "error", closeErr)
		}
	}()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			// A second signal gets the default behavior and kills the process,
			// which matters when a stdin read is blocked.
			signal.Stop(sigChan)
			logger.Info("received signal, stopping at the next read", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	collector := &engine.Collector{Max: cfg.MaxDiagnostics}
	eng := engine.New(sink.NewFileOpener(cfg.Root, compression, cfg.Level), engine.Options{
		DefaultDatabase: cfg.DefaultDatabase,
		Logger:          logger,
		Reporter:        collector,
	})

	logger.Info("splitting", "input", stream.Name, "codec", stream.Codec, "root", cfg.Root, "compress", string(compression))
	started := now()
	result, runErr := eng.Run(&ctxReader{ctx: ctx, r: stream})
	finished := now()
	logger.Info("split finished",
		"lines", result.Stats.Lines,
		"databases", result.Stats.Databases,
		"tables", result.Stats.Tables,
		"errors", result.Stats.Errors,
		"duration", finished.Sub(started))

	summary := SplitSummary{
		Input:       stream.Name,
		Root:        cfg.Root,
		Compression: string(compression),
		Stats:       result.Stats,
		Artifacts:   store.ArtifactRecords(result.Artifacts),
		Diagnostics: store.DiagnosticRecords(collector.Diagnostics),
		Unstored:    collector.Overflow,
	}

	exitErr, code := splitOutcome(ctx, cfg, result, runErr)

	var runID string
	if cfg.Manifest != "" {
		ids := opts.IDGenerator
		if ids == nil {
			ids = store.UUIDv7Generator{}
		}
		run := store.RunRecord{
			ID:          ids.Generate(),
			StartedAt:   started,
			FinishedAt:  finished,
			Input:       stream.Name,
			Root:        cfg.Root,
			Compression: string(compression),
			Lines:       result.Stats.Lines,
			Status:      store.StatusOK,
		}
		if runErr != nil {
			run.Status = store.StatusFailed
			run.Error = runErr.Error()
		}
		// The run is recorded even after an interrupt.
		if err := recordRun(context.WithoutCancel(ctx), cfg.Manifest, run, summary); err != nil {
			logger.Error("failed to record run", "manifest", cfg.Manifest, "error", err)
			if exitErr == nil {
				exitErr, code = WrapExitError(ExitCommandError, "failed to record run", err), CodeManifestFailed
			}
		} else {
			runID = run.ID
			logger.Debug("run recorded", "manifest", cfg.Manifest, "run_id", runID)
		}
	}

	if f.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: summary, RunID: runID}
		if exitErr != nil {
			resp.Status = "error"
			resp.Error = &CLIError{Code: code, Message: exitErr.Error()}
		}
		if err := f.JSON(resp); err != nil {
			return err
		}
		if exitErr != nil {
			return exitErr
		}
		return nil
	}

	writeSplitText(f.Writer, summary, runID)
	if exitErr != nil {
		return exitErr
	}
	return nil
}

// splitOutcome maps the end of a pass to an exit error and its response
// code. A nil error means exit 0.
func splitOutcome(ctx context.Context, cfg *config.Config, result *engine.Result, runErr error) (*ExitError, string) {
	switch {
	case engine.IsSinkError(runErr):
		return WrapExitError(ExitCommandError, "failed to write artifact", runErr), CodeSinkFailed
	case errors.Is(runErr, context.Canceled) && ctx.Err() != nil:
		return NewExitError(ExitFailure, fmt.Sprintf("interrupted after %d lines", result.Stats.Lines)), CodeInterrupted
	case runErr != nil:
		return WrapExitError(ExitFailure, "failed to read input", runErr), CodeReadFailed
	case cfg.Strict && result.Stats.Errors > 0:
		return NewExitError(ExitFailure, fmt.Sprintf("%d structural error(s) reported", result.Stats.Errors)), CodeStrict
	}
	return nil, ""
}

// openInput opens the dump. Standard input comes from the command so tests
// can supply it.
func openInput(cmd *cobra.Command, path, charset string) (*input.Stream, error) {
	if path != "" && path != input.Stdin {
		return input.Open(path, charset)
	}
	enc, err := input.Lookup(charset)
	if err != nil {
		return nil, err
	}
	s, err := input.Wrap(io.NopCloser(cmd.InOrStdin()), enc)
	if err != nil {
		return nil, fmt.Errorf("open input stdin: %w", err)
	}
	s.Name = "stdin"
	return s, nil
}

// ctxReader stops returning data once ctx is done. The engine sees the
// context error as a read error and closes the open table.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func recordRun(ctx context.Context, manifest string, run store.RunRecord, summary SplitSummary) error {
	st, err := store.Open(manifest)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing manifest", "error", closeErr)
		}
	}()
	return st.RecordRun(ctx, run, summary.Artifacts, summary.Diagnostics)
}

// fail prints err as a JSON error response when JSON output is selected.
// In text mode the caller's error is printed by main.
func fail(f *OutputFormatter, code string, err *ExitError) error {
	if f.Format == "json" {
		if outErr := f.Error(code, err.Error(), nil); outErr != nil {
			return outErr
		}
	}
	return err
}

func writeSplitText(w io.Writer, s SplitSummary, runID string) {
	if len(s.Artifacts) > 0 {
		writeArtifactTable(w, s.Artifacts)
	}

	st := s.Stats
	fmt.Fprintf(w, "Input: %s -> %s (compression: %s)\n", s.Input, s.Root, s.Compression)
	fmt.Fprintf(w, "Lines: %d read, %d header, %d dropped, %d unattributed\n",
		st.Lines, st.HeaderLines, st.DroppedLines, st.Unattributed)
	fmt.Fprintf(w, "Artifacts: %d databases, %d tables\n", st.Databases, st.Tables)
	fmt.Fprintf(w, "Diagnostics: %d errors, %d warnings, %d notices\n", st.Errors, st.Warnings, st.Notices)
	if s.Unstored > 0 {
		fmt.Fprintf(w, "  (%d diagnostics past the limit were not kept)\n", s.Unstored)
	}
	if runID != "" {
		fmt.Fprintf(w, "Run: %s\n", runID)
	}
}
