// Command wellobs-check loads the well catalog, reports wells whose
// observation spec cannot be built, and optionally assembles the update
// batch for one ensemble member at a report step. It can also upload,
// remove and list spec blobs, and import or export history records.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"wellobs/internal/blob"
	"wellobs/internal/core"
	"wellobs/internal/platform/config"
	"wellobs/pkg/domain"
	"wellobs/pkg/wellobs"
)

var exitFunc = os.Exit

// listFlag collects a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type options struct {
	catalog       string
	step          int
	member        string
	history       string
	exportHistory string
	list          string
	listSet       bool
	put           listFlag
	remove        listFlag
	trace         bool
	metrics       bool
}

func main() {
	code := cli(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("wellobs-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.StringVar(&opts.catalog, "catalog", "", "catalog blob key (defaults to WELLOBS_CATALOG)")
	fs.IntVar(&opts.step, "step", 0, "report step to assimilate")
	fs.StringVar(&opts.member, "member", "", "path to a member state JSON file")
	fs.StringVar(&opts.history, "history", "", "path to a JSON array of history records to import first")
	fs.StringVar(&opts.exportHistory, "export-history", "", "write all history records as JSON to this path")
	fs.StringVar(&opts.list, "list", "", "list blobs under this key prefix")
	fs.Var(&opts.put, "put", "upload key=path before loading (repeatable)")
	fs.Var(&opts.remove, "rm", "remove a blob key before loading (repeatable)")
	fs.BoolVar(&opts.trace, "trace", false, "write JSON trace spans to stderr")
	fs.BoolVar(&opts.metrics, "metrics", false, "print metrics after the run (format per WELLOBS_METRICS)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "list" {
			opts.listSet = true
		}
	})
	code, err := run(ctx, opts, stdout, stderr)
	if err != nil {
		if _, writeErr := fmt.Fprintf(stderr, "wellobs-check failed: %v\n", err); writeErr != nil {
			return 1
		}
		return 1
	}
	return code
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) (code int, err error) {
	cfg, err := config.Load()
	if err != nil {
		return 1, err
	}
	if opts.catalog == "" {
		opts.catalog = cfg.Catalog
	}
	logger := log.New(stderr, "wellobs ", log.LstdFlags)

	store, err := blob.Open(ctx, core.BlobConfig(cfg))
	if err != nil {
		return 1, fmt.Errorf("open blob store: %w", err)
	}
	if err := manageBlobs(ctx, store, opts, stdout); err != nil {
		return 1, err
	}

	hist, err := core.OpenHistoryStore(ctx, cfg)
	if err != nil {
		return 1, fmt.Errorf("open history store: %w", err)
	}
	defer func() {
		if cerr := hist.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close history store: %w", cerr)
		}
	}()
	if opts.history != "" {
		if err := importHistory(ctx, hist, opts.history); err != nil {
			return 1, err
		}
	}
	steps := hist.ReportSteps()
	fmt.Fprintf(stdout, "history: %d records, report steps %v\n", hist.Len(), steps)
	if opts.exportHistory != "" {
		if err := exportHistory(hist, opts.exportHistory); err != nil {
			return 1, err
		}
	}

	metrics, err := core.OpenMetrics(cfg.Metrics)
	if err != nil {
		return 1, err
	}
	svcOpts := []core.ServiceOption{
		core.WithLogger(logger),
		core.WithMetricsRecorder(metrics),
		core.WithWellMetrics(metrics),
		core.WithWorkers(cfg.Workers),
	}
	if cfg.DerivedStd {
		svcOpts = append(svcOpts, core.WithSetOptions(wellobs.WithDerivedStd()))
	}
	if opts.trace {
		svcOpts = append(svcOpts, core.WithTracer(core.NewJSONTracer(stderr)))
	}
	svc := core.NewService(hist, svcOpts...)
	defer func() { _ = svc.Close() }()

	report, err := svc.LoadCatalog(ctx, store, opts.catalog)
	if err != nil {
		return 1, err
	}
	for _, well := range report.Loaded {
		fmt.Fprintf(stdout, "loaded  %s\n", well)
	}
	for _, skip := range report.Skipped {
		fmt.Fprintf(stdout, "skipped %s: %v\n", skip.Well, skip.Err)
	}

	if opts.member != "" {
		if !containsStep(steps, opts.step) {
			logger.Printf("no history recorded at report step %d; every variable will be deactivated", opts.step)
		}
		member, err := readMember(opts.member)
		if err != nil {
			return 1, err
		}
		batch, err := svc.Assimilate(ctx, opts.step, member)
		if err != nil {
			return 1, err
		}
		writeBatch(stdout, batch)
	}

	if opts.metrics {
		if err := metrics.Export(stdout); err != nil {
			return 1, err
		}
	}
	if len(report.Skipped) > 0 {
		return 1, nil
	}
	return 0, nil
}

// manageBlobs applies -rm, then -put, then -list.
func manageBlobs(ctx context.Context, store blob.Store, opts options, stdout io.Writer) error {
	for _, key := range opts.remove {
		deleted, err := store.Delete(ctx, key)
		if err != nil {
			return fmt.Errorf("remove %s: %w", key, err)
		}
		if deleted {
			fmt.Fprintf(stdout, "removed %s\n", key)
		} else {
			fmt.Fprintf(stdout, "absent  %s\n", key)
		}
	}
	for _, spec := range opts.put {
		key, path, ok := strings.Cut(spec, "=")
		if !ok || key == "" || path == "" {
			return fmt.Errorf("put %q: want key=path", spec)
		}
		data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- operator supplied path
		if err != nil {
			return fmt.Errorf("put %s: %w", key, err)
		}
		contentType := blob.ContentTypeObsSpec
		if strings.HasSuffix(key, ".json") {
			contentType = blob.ContentTypeCatalog
		}
		info, err := blob.PutBytes(ctx, store, key, contentType, data)
		if err != nil {
			return fmt.Errorf("put %s: %w", key, err)
		}
		fmt.Fprintf(stdout, "stored  %s (%d bytes)\n", info.Key, info.Size)
	}
	if opts.listSet {
		infos, err := store.List(ctx, opts.list)
		if err != nil {
			return fmt.Errorf("list %q: %w", opts.list, err)
		}
		for _, info := range infos {
			fmt.Fprintf(stdout, "blob    %-32s %8d %s\n", info.Key, info.Size, info.ContentType)
		}
	}
	return nil
}

func importHistory(ctx context.Context, hist core.HistoryBackend, path string) error {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- operator supplied path
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	var records []domain.HistoryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("decode history: %w", err)
	}
	if len(records) == 0 {
		return errors.New("history file holds no records")
	}
	return hist.Put(ctx, records...)
}

func exportHistory(hist core.HistoryBackend, path string) error {
	data, err := json.MarshalIndent(hist.Records(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := os.WriteFile(filepath.Clean(path), append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

func containsStep(steps []int, step int) bool {
	for _, s := range steps {
		if s == step {
			return true
		}
	}
	return false
}

func readMember(path string) (*core.MemberState, error) {
	f, err := os.Open(filepath.Clean(path)) // #nosec G304 -- operator supplied path
	if err != nil {
		return nil, fmt.Errorf("read member: %w", err)
	}
	defer func() { _ = f.Close() }()
	return core.DecodeMemberState(f)
}

func writeBatch(w io.Writer, batch core.Batch) {
	keys := batch.Obs.Keys()
	obs := batch.Obs.Values()
	stds := batch.Obs.Stds()
	sim := batch.Meas.Values()
	res := batch.Residuals()
	fmt.Fprintf(w, "report step %d: %d observations\n", batch.ReportStep, len(keys))
	fmt.Fprintf(w, "%-16s %14s %10s %14s %14s\n", "KEY", "OBSERVED", "STD", "SIMULATED", "RESIDUAL")
	for i, key := range keys {
		fmt.Fprintf(w, "%-16s %14.4f %10.4f %14.4f %14.4f\n", key, obs[i], stds[i], sim[i], res[i])
	}
	var deactivated []string
	for _, ws := range batch.Wells {
		if ws.Deactivated > 0 {
			deactivated = append(deactivated, fmt.Sprintf("%s(%d)", ws.Well, ws.Deactivated))
		}
	}
	if len(deactivated) > 0 {
		fmt.Fprintf(w, "deactivated: %s\n", strings.Join(deactivated, " "))
	}
}
