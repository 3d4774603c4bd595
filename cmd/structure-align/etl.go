package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/structure.align/internal/db"
	"github.com/banshee-data/structure.align/internal/geomodel"
)

func handleETL(args []string) {
	fs := flag.NewFlagSet("etl", flag.ExitOnError)
	modelPath := fs.String("model", "", "Input model JSON (required)")
	dbPath := fs.String("db", "", "Output database, must not exist (required)")
	fs.Parse(args)

	if *modelPath == "" || *dbPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -model and -db flags are required")
		fs.Usage()
		os.Exit(1)
	}

	ext, err := runETL(*modelPath, *dbPath)
	if err != nil {
		log.Fatalf("ETL failed: %v", err)
	}
	log.Printf("Extracted %d elements, %d vertices from %d objects (%d skipped) into %s",
		len(ext.Elements), len(ext.Vertices), ext.TotalObjects, len(ext.Skipped), *dbPath)
}

// runETL extracts the named objects of a model into a freshly migrated
// database.
func runETL(modelPath, dbPath string) (*geomodel.Extraction, error) {
	if _, err := os.Stat(dbPath); err == nil {
		return nil, fmt.Errorf("output already exists: %s", dbPath)
	}
	m, err := geomodel.ReadModel(modelPath)
	if err != nil {
		return nil, err
	}
	ext, err := geomodel.Extract(m)
	if err != nil {
		return nil, err
	}

	database, err := db.OpenDB(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	defer database.Close()
	if err := database.MigrateUp(); err != nil {
		return nil, err
	}
	if err := database.InsertGeometry(ext.Elements, ext.Vertices); err != nil {
		return nil, err
	}
	return ext, nil
}
