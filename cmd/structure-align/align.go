package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/banshee-data/structure.align/internal/align/pipeline"
	"github.com/banshee-data/structure.align/internal/config"
	"github.com/banshee-data/structure.align/internal/db"
	"github.com/banshee-data/structure.align/internal/report"
	"github.com/banshee-data/structure.align/internal/structure"
)

// errValidationFailed is returned after the report is written when a run
// failed validation. Nothing is persisted in that case.
var errValidationFailed = errors.New("alignment validation failed")

type alignOptions struct {
	mode       pipeline.Mode
	dbPath     string
	outPath    string
	reportPath string
	chartPath  string
	plotDir    string
	dryRun     bool
	params     config.AlignmentParams
}

func handleAlign(name string, args []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	dbPath := fs.String("db", "", "Input database (required)")
	outPath := fs.String("out", "", "Output database (default: <input>_aligned_<timestamp>.db)")
	reportPath := fs.String("report", "", "JSON run report (default: alignment_report_<timestamp>.json next to the input)")
	chartPath := fs.String("chart", "", "HTML displacement chart")
	plotDir := fs.String("plot-dir", "", "Directory for per-axis PNG coordinate plots")
	dryRun := fs.Bool("dry-run", false, "Compute and report without writing an output database")
	tuning := registerTuningFlags(fs)
	fs.Parse(args)

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -db flag is required")
		fs.Usage()
		os.Exit(1)
	}
	params, err := tuning.resolve(fs)
	if err != nil {
		log.Fatalf("Failed to load parameters: %v", err)
	}

	mode := pipeline.ModeThreads
	if name == "align-elements" {
		mode = pipeline.ModeElements
	}
	opts := alignOptions{
		mode:       mode,
		dbPath:     *dbPath,
		outPath:    *outPath,
		reportPath: *reportPath,
		chartPath:  *chartPath,
		plotDir:    *plotDir,
		dryRun:     *dryRun,
		params:     params,
	}
	opts.setDefaultPaths(time.Now())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rep, err := runAlign(ctx, opts)
	if err != nil {
		log.Fatalf("Alignment failed: %v", err)
	}
	log.Printf("Run %s: %d/%d vertices aligned (%.1f%%), report %s",
		rep.Metadata.RunID, rep.Statistics.AlignedVertices, rep.Statistics.TotalVertices,
		rep.Statistics.AlignmentRatePercent, opts.reportPath)
	if !opts.dryRun {
		log.Printf("Output database: %s", opts.outPath)
	}
}

// setDefaultPaths fills the output database and report paths next to the
// input when they were not given.
func (o *alignOptions) setDefaultPaths(now time.Time) {
	stamp := now.Format("20060102_150405")
	dir := filepath.Dir(o.dbPath)
	if o.outPath == "" && !o.dryRun {
		stem := strings.TrimSuffix(filepath.Base(o.dbPath), filepath.Ext(o.dbPath))
		o.outPath = filepath.Join(dir, fmt.Sprintf("%s_aligned_%s.db", stem, stamp))
	}
	if o.reportPath == "" {
		o.reportPath = filepath.Join(dir, fmt.Sprintf("alignment_report_%s.json", stamp))
	}
}

// runAlign loads the input database, runs the pipeline and writes the
// report. Unless this is a dry run or validation failed, the aligned
// coordinates go to a copy of the input at o.outPath together with a run
// record.
func runAlign(ctx context.Context, o alignOptions) (*report.RunReport, error) {
	in, err := db.OpenExisting(o.dbPath)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	var res *pipeline.Result
	switch o.mode {
	case pipeline.ModeElements:
		vertices, elements, err := in.LoadVerticesWithElements()
		if err != nil {
			return nil, err
		}
		res, err = pipeline.RunElements(ctx, vertices, elements, o.params)
		if err != nil {
			return nil, err
		}
	default:
		vertices, err := in.LoadVertices()
		if err != nil {
			return nil, err
		}
		res, err = pipeline.RunThreads(ctx, vertices, o.params)
		if err != nil {
			return nil, err
		}
	}

	persist := !o.dryRun && res.Validation.Passed
	meta := report.Metadata{
		RunID:         db.NewRunID(),
		InputDatabase: o.dbPath,
		DryRun:        o.dryRun,
	}
	if persist {
		meta.OutputDatabase = o.outPath
	}
	rep := report.Build(res, meta)
	if err := report.WriteJSON(o.reportPath, rep); err != nil {
		return nil, err
	}
	if err := writeFigures(o, res); err != nil {
		return nil, err
	}

	if !res.Validation.Passed {
		for _, c := range res.Validation.Checks {
			log.Printf("  %-28s %-7s %s", c.Name, c.Status, c.Detail)
		}
		return &rep, errValidationFailed
	}
	if o.dryRun {
		log.Printf("Dry run: no output database written")
		return &rep, nil
	}
	if err := persistRun(in, o.outPath, res, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// persistRun copies in to outPath, brings the copy's schema up to date and
// writes the aligned vertices and the run record into it.
func persistRun(in *db.DB, outPath string, res *pipeline.Result, rep *report.RunReport) error {
	if err := in.Snapshot(outPath); err != nil {
		return err
	}
	out, err := db.OpenExisting(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := out.EnsureSchema(); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", outPath, err)
	}
	if err := out.PersistAligned(res.Aligned); err != nil {
		return err
	}

	paramsJSON, err := json.Marshal(res.Params)
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}
	reportJSON, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return out.InsertRun(&db.Run{
		RunID:            rep.Metadata.RunID,
		Strategy:         res.Strategy,
		InputPath:        in.Path(),
		VertexCount:      len(res.Aligned),
		AlignedCount:     res.AlignedCount(),
		AlignmentRate:    res.AlignmentRate(),
		ValidationPassed: res.Validation.Passed,
		ParamsJSON:       paramsJSON,
		ReportJSON:       reportJSON,
		DurationMs:       res.Duration.Milliseconds(),
	})
}

func writeFigures(o alignOptions, res *pipeline.Result) error {
	if o.chartPath != "" {
		if err := report.WriteDisplacementChart(o.chartPath, res); err != nil {
			return err
		}
	}
	if o.plotDir == "" {
		return nil
	}
	for _, a := range structure.AllAxes {
		if len(res.Lines[a]) == 0 {
			continue
		}
		coords := make([]float64, len(res.Aligned))
		for i, av := range res.Aligned {
			coords[i] = av.Original(a)
		}
		path := filepath.Join(o.plotDir, fmt.Sprintf("axis_%s.png", a))
		if err := report.WriteAxisPlot(path, coords, res.Lines[a], a); err != nil {
			return err
		}
	}
	return nil
}
