package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/structure.align/internal/db"
	"github.com/banshee-data/structure.align/internal/geomodel"
	"github.com/banshee-data/structure.align/internal/report"
)

func handleExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dbPath := fs.String("db", "", "Aligned database (required)")
	modelPath := fs.String("model", "", "Template model JSON (required)")
	outPath := fs.String("out", "", "Output model JSON (default: <db>.json)")
	reportPath := fs.String("report", "", "Reverse report JSON (default: <out>.reverse_report.json)")
	fs.Parse(args)

	if *dbPath == "" || *modelPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -db and -model flags are required")
		fs.Usage()
		os.Exit(1)
	}
	if *outPath == "" {
		*outPath = strings.TrimSuffix(*dbPath, filepath.Ext(*dbPath)) + ".json"
	}
	if *reportPath == "" {
		*reportPath = strings.TrimSuffix(*outPath, filepath.Ext(*outPath)) + ".reverse_report.json"
	}

	rep, err := runExport(*dbPath, *modelPath, *outPath, *reportPath)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	s := rep.Statistics
	log.Printf("Updated %d/%d objects (%d vertices); %d not in database, %d unsupported, %d mismatched",
		s.UpdatedObjects, s.TotalObjects, s.UpdatedVertices,
		s.SkippedNotInDB, s.SkippedUnsupportedGeometry, s.VertexCountMismatches)
	if rep.BrepEdgeDesync.BrepsWithResidual > 0 {
		log.Printf("Warning: %d breps with edge residual up to %.3f mm",
			rep.BrepEdgeDesync.BrepsWithResidual, rep.BrepEdgeDesync.MaxResidualMM)
	}
}

// runExport applies the aligned coordinates stored in dbPath to the model
// at modelPath and writes the updated model and its reverse report.
func runExport(dbPath, modelPath, outPath, reportPath string) (*report.ReverseReport, error) {
	database, err := db.OpenExisting(dbPath)
	if err != nil {
		return nil, err
	}
	defer database.Close()

	aligned, err := database.ReadAlignedElements()
	if err != nil {
		return nil, err
	}
	m, err := geomodel.ReadModel(modelPath)
	if err != nil {
		return nil, err
	}

	applied := geomodel.ApplyAligned(m, aligned)
	if err := geomodel.WriteModel(outPath, m); err != nil {
		return nil, err
	}
	rep := report.BuildReverse(applied, report.ReverseMetadata{
		TemplateModel:   modelPath,
		OutputModel:     outPath,
		AlignedDatabase: dbPath,
	})
	if err := report.WriteJSON(reportPath, rep); err != nil {
		return nil, err
	}
	return &rep, nil
}
