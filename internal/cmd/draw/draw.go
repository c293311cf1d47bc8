// Package draw parses draw command flags and runs a winner selection from a
// contest export.
package draw

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/fairdraw/internal/blockhash"
	"github.com/louisbranch/fairdraw/internal/contest"
	coredraw "github.com/louisbranch/fairdraw/internal/core/draw"
	entrypoint "github.com/louisbranch/fairdraw/internal/platform/cmd"
	"github.com/louisbranch/fairdraw/internal/report"
	"github.com/louisbranch/fairdraw/internal/storage"
	"github.com/louisbranch/fairdraw/internal/storage/sqlite"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/fairdraw/internal/cmd/draw"

// Output file names written under Config.OutputDir.
const (
	EligibleFile = "valid-accounts.json"
	AccountsFile = "shuffled-accounts.csv"
	ResultsFile  = "shuffled-results.json"
	WorkbookFile = "shuffled-results.xlsx"
)

// Config holds draw command configuration.
type Config struct {
	BlockHash string `env:"FAIRDRAW_BLOCK_HASH"`
	InputPath string `env:"FAIRDRAW_INPUT" envDefault:"contest-results.csv"`
	OutputDir string `env:"FAIRDRAW_OUTPUT_DIR" envDefault:"."`
	Winners   int    `env:"FAIRDRAW_WINNERS" envDefault:"660"`
	MinPoints int    `env:"FAIRDRAW_MIN_POINTS" envDefault:"65"`
	MaxDraws  uint64 `env:"FAIRDRAW_MAX_DRAWS" envDefault:"0"`
	DBPath    string `env:"FAIRDRAW_DB_PATH"`
	Workbook  bool   `env:"FAIRDRAW_WORKBOOK"`
	Verbose   bool   `env:"FAIRDRAW_VERBOSE"`
}

// ParseConfig parses environment and flags into a Config. Flags override
// environment values.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	fs.StringVar(&cfg.BlockHash, "hash", "", "Block hash used as the draw seed (hex, optional 0x prefix)")
	fs.StringVar(&cfg.InputPath, "input", "", "Contest export (.csv or .xlsx)")
	fs.StringVar(&cfg.OutputDir, "out", "", "Directory for result files")
	fs.IntVar(&cfg.Winners, "winners", 0, "Number of winners to draw")
	fs.IntVar(&cfg.MinPoints, "min-points", 0, "Minimum contest points to be eligible")
	fs.Uint64Var(&cfg.MaxDraws, "max-draws", 0, "Abort after this many raw draws (0 = unbounded)")
	fs.StringVar(&cfg.DBPath, "db", "", "SQLite ledger path (empty disables recording)")
	fs.BoolVar(&cfg.Workbook, "xlsx", false, "Also write "+WorkbookFile)
	fs.BoolVar(&cfg.Verbose, "v", false, "Report every rejected row")
	if err := entrypoint.ParseConfigFromArgs(&cfg, fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes a draw with telemetry configured from the environment.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceDraw, func(ctx context.Context) error {
		_, err := Execute(ctx, cfg, out, errOut)
		return err
	})
}

// Outcome is what a completed draw produced.
type Outcome struct {
	Eligible []contest.Candidate
	Results  report.Results
	Summary  report.Summary
	// RunID is set when the run was recorded in the ledger.
	RunID string
}

// Execute runs the draw pipeline: load and filter the export, select winners
// from the block hash seed, write result files, and optionally record the run.
func Execute(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) (Outcome, error) {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if strings.TrimSpace(cfg.BlockHash) == "" {
		return Outcome{}, errors.New("block hash is required")
	}
	if strings.TrimSpace(cfg.InputPath) == "" {
		return Outcome{}, errors.New("input path is required")
	}

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "draw.Execute")
	defer span.End()

	hash, err := blockhash.Parse(cfg.BlockHash)
	if err != nil {
		span.RecordError(err)
		return Outcome{}, err
	}
	span.SetAttributes(attribute.String("draw.block_hash", hash.String()))

	eligible, err := loadCandidates(ctx, tracer, cfg, errOut)
	if err != nil {
		span.RecordError(err)
		return Outcome{}, err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return Outcome{}, fmt.Errorf("create output dir: %w", err)
	}
	if err := writeFile(filepath.Join(cfg.OutputDir, EligibleFile), func(w io.Writer) error {
		return report.WriteEligibleJSON(w, eligible)
	}); err != nil {
		return Outcome{}, err
	}

	results, err := selectWinners(ctx, tracer, hash, eligible, cfg)
	if err != nil {
		span.RecordError(err)
		return Outcome{}, err
	}
	summary := report.Summarize(eligible, results)

	if err := writeResults(ctx, tracer, cfg, results, summary); err != nil {
		span.RecordError(err)
		return Outcome{}, err
	}

	outcome := Outcome{Eligible: eligible, Results: results, Summary: summary}
	if cfg.DBPath != "" {
		outcome.RunID, err = recordRun(ctx, tracer, cfg, eligible, results)
		if err != nil {
			span.RecordError(err)
			return Outcome{}, err
		}
	}

	summary.Print(out)
	if outcome.RunID != "" {
		fmt.Fprintf(out, "Ledger run:        %s\n", outcome.RunID)
	}
	return outcome, nil
}

func loadCandidates(ctx context.Context, tracer trace.Tracer, cfg Config, errOut io.Writer) ([]contest.Candidate, error) {
	_, span := tracer.Start(ctx, "draw.LoadCandidates")
	defer span.End()

	rows, err := contest.Load(cfg.InputPath)
	if err != nil {
		return nil, err
	}
	eligible, rejected := contest.Filter(rows, contest.Rules{MinPoints: cfg.MinPoints})
	span.SetAttributes(
		attribute.Int("contest.rows", len(rows)),
		attribute.Int("contest.eligible", len(eligible)),
		attribute.Int("contest.rejected", len(rejected)),
	)
	if cfg.Verbose {
		for _, r := range rejected {
			fmt.Fprintf(errOut, "line %d: %s\n", r.Line, r.Reason)
		}
	}
	return eligible, nil
}

func selectWinners(ctx context.Context, tracer trace.Tracer, hash blockhash.Hash, eligible []contest.Candidate, cfg Config) (report.Results, error) {
	_, span := tracer.Start(ctx, "draw.Select")
	defer span.End()

	gen, err := hash.Generator()
	if err != nil {
		return report.Results{}, err
	}
	var opts []coredraw.Option
	if cfg.MaxDraws > 0 {
		opts = append(opts, coredraw.WithMaxDraws(cfg.MaxDraws))
	}
	result, err := coredraw.Select(gen, eligible, cfg.Winners, opts...)
	if err != nil {
		return report.Results{}, fmt.Errorf("select %d winners from %d candidates: %w", cfg.Winners, len(eligible), err)
	}
	span.SetAttributes(
		attribute.Int("draw.winners", len(result.Entries)),
		attribute.Int64("draw.raw_draws", int64(result.Draws)),
	)
	return report.Results{BlockHash: hash.String(), Draw: result}, nil
}

func writeResults(ctx context.Context, tracer trace.Tracer, cfg Config, results report.Results, summary report.Summary) error {
	_, span := tracer.Start(ctx, "draw.WriteResults")
	defer span.End()

	if err := writeFile(filepath.Join(cfg.OutputDir, AccountsFile), func(w io.Writer) error {
		return report.WriteAccounts(w, results.Draw.Records())
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(cfg.OutputDir, ResultsFile), func(w io.Writer) error {
		return report.WriteResultsJSON(w, results)
	}); err != nil {
		return err
	}
	if cfg.Workbook {
		if err := report.WriteWorkbook(filepath.Join(cfg.OutputDir, WorkbookFile), results, summary); err != nil {
			return err
		}
	}
	return nil
}

func recordRun(ctx context.Context, tracer trace.Tracer, cfg Config, eligible []contest.Candidate, results report.Results) (string, error) {
	ctx, span := tracer.Start(ctx, "draw.RecordRun")
	defer span.End()

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return "", err
	}
	defer store.Close()

	run := storage.NewRunRecord(results.BlockHash, contest.Rules{MinPoints: cfg.MinPoints}, eligible, results.Draw, time.Now())
	if err := store.PutRun(ctx, run); err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	span.SetAttributes(attribute.String("run.id", run.ID))
	return run.ID, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	return nil
}
