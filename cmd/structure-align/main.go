package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/banshee-data/structure.align/internal/monitoring"
	"github.com/banshee-data/structure.align/internal/version"
)

var verbose = flag.Bool("v", false, "Enable debug logging")

func main() {
	flag.Usage = printUsage
	flag.Parse()
	monitoring.SetVerbose(*verbose)

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "etl":
		handleETL(args)
	case "align":
		handleAlign("align", args)
	case "align-elements":
		handleAlign("align-elements", args)
	case "export":
		handleExport(args)
	case "compare":
		handleCompare(args)
	case "migrate":
		handleMigrate(args)
	case "inspect":
		handleInspect(args)
	case "version":
		fmt.Printf("structure-align version %s\n", version.String())
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`structure-align - snap structural model vertices onto canonical axis lines

Usage: structure-align [-v] <command> [options]

Commands:
  etl             Extract elements and vertices from a model file into a new database
  align           Cluster coordinates into threads and snap vertices to them
  align-elements  Discover axis lines and snap element endpoints to them
  export          Write aligned coordinates from a database back into a model file
  compare         Compare an output model against a reference model
  migrate         Manage database schema migrations
  inspect         Serve a SQL debug UI for a database
  version         Show structure-align version
  help            Show this help message

Alignment Flags:
  -db <file>           Input database (required)
  -out <file>          Output database (default: <input>_aligned_<timestamp>.db)
  -config <file>       Tuning config JSON; explicit flags override its values
  -report <file>       JSON run report (default: alignment_report_<timestamp>.json)
  -chart <file>        HTML displacement chart
  -plot-dir <dir>      PNG coordinate plots, one per axis
  -dry-run             Compute and report without writing an output database

Examples:
  structure-align etl -model before.json -db geometry.db
  structure-align align-elements -db geometry.db -strategy floors
  structure-align export -db geometry_aligned.db -model before.json -out after.json
  structure-align compare -out after.json -ref reference.json
  structure-align migrate -db geometry.db status`)
}
