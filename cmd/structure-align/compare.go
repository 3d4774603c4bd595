package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/structure.align/internal/align/compare"
	"github.com/banshee-data/structure.align/internal/align/pipeline"
	"github.com/banshee-data/structure.align/internal/config"
	"github.com/banshee-data/structure.align/internal/geomodel"
	"github.com/banshee-data/structure.align/internal/report"
	"github.com/banshee-data/structure.align/internal/structure"
)

type compareOptions struct {
	outPath        string
	refPath        string
	tolerance      float64
	minVertexCount int
	details        bool
	params         config.AlignmentParams
}

func handleCompare(args []string) {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	outPath := fs.String("out", "", "Output model JSON (required)")
	refPath := fs.String("ref", "", "Reference model JSON (required)")
	tolerance := fs.Float64("tolerance", 0.005, "Position match tolerance (m)")
	minVertexCount := fs.Int("min-vertex-count", 5, "Vertices needed at a reference position to count as an axis line")
	details := fs.Bool("details", false, "Include per-object results")
	reportPath := fs.String("report", "", "Write the comparison as JSON")
	tuning := registerTuningFlags(fs)
	fs.Parse(args)

	if *outPath == "" || *refPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -out and -ref flags are required")
		fs.Usage()
		os.Exit(1)
	}
	params, err := tuning.resolve(fs)
	if err != nil {
		log.Fatalf("Failed to load parameters: %v", err)
	}

	rep, err := runCompare(compareOptions{
		outPath:        *outPath,
		refPath:        *refPath,
		tolerance:      *tolerance,
		minVertexCount: *minVertexCount,
		details:        *details,
		params:         params,
	})
	if err != nil {
		log.Fatalf("Compare failed: %v", err)
	}

	o := rep.Objects
	log.Printf("Objects: %d output, %d reference, %d common", o.OutputObjectCount, o.ReferenceObjectCount, o.CommonObjects)
	log.Printf("Vertices: %d/%d within %.3fm (%.1f%%)", o.VerticesMatched, o.TotalVerticesCompared, o.Tolerance, o.OverallMatchRate)
	for _, a := range rep.Axes {
		log.Printf("Axis %s: recall %.1f%% precision %.1f%% (%d discovered, %d reference)",
			a.Axis, a.Recall*100, a.Precision*100, a.DiscoveredCount, a.ReferenceCount)
	}
	if *reportPath != "" {
		if err := report.WriteJSON(*reportPath, rep); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
	}
}

// runCompare matches the output model against the reference object by
// object, then checks the axis lines discovered in the output model against
// the positions where the reference model's vertices concentrate.
func runCompare(o compareOptions) (*report.CompareReport, error) {
	out, err := geomodel.ReadModel(o.outPath)
	if err != nil {
		return nil, err
	}
	ref, err := geomodel.ReadModel(o.refPath)
	if err != nil {
		return nil, err
	}

	rep := &report.CompareReport{
		OutputModel:    o.outPath,
		ReferenceModel: o.refPath,
		Objects:        compare.CompareObjects(out.CompareObjects(), ref.CompareObjects(), o.tolerance, o.details),
	}

	ext, err := geomodel.Extract(out)
	if err != nil {
		return nil, err
	}
	if len(ext.Vertices) == 0 {
		return rep, nil
	}
	disc, err := pipeline.NewDiscoverer(o.params)
	if err != nil {
		return nil, err
	}
	refObjects := ref.CompareObjects()
	for _, a := range structure.PlanAxes {
		lines, err := disc.Discover(ext.Vertices, a)
		if err != nil {
			return nil, fmt.Errorf("axis %s: %w", a, err)
		}
		var coords []float64
		for _, obj := range refObjects {
			for _, p := range obj.Points {
				coords = append(coords, p[a])
			}
		}
		refPositions := compare.ReferencePositions(coords, o.tolerance, o.minVertexCount)
		rep.Axes = append(rep.Axes, compare.CompareAxis(a, compare.LinePositions(lines), refPositions, o.tolerance))
	}
	return rep, nil
}
