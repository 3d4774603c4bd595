package db

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

// RunMigrateCommand handles the 'migrate' subcommand dispatching.
func RunMigrateCommand(args []string, dbPath string) {
	if len(args) < 1 {
		PrintMigrateHelp()
		os.Exit(1)
	}

	database, err := OpenDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	action := args[0]
	switch action {
	case "up":
		log.Printf("Running migrations...")
		if err := database.EnsureSchema(); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
		printVersion(database)

	case "down":
		log.Printf("Rolling back one migration...")
		if err := database.MigrateDown(); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
		printVersion(database)

	case "status":
		handleMigrateStatus(database)

	case "version":
		v := requireVersionArg(args)
		if err := database.MigrateTo(uint(v)); err != nil {
			log.Fatalf("Migration to version %d failed: %v", v, err)
		}
		printVersion(database)

	case "force":
		v := requireVersionArg(args)
		if err := database.MigrateForce(v); err != nil {
			log.Fatalf("Force migration failed: %v", err)
		}
		log.Printf("Migration version forced to %d", v)

	case "baseline":
		v := requireVersionArg(args)
		if err := database.BaselineAtVersion(uint(v)); err != nil {
			log.Fatalf("Baseline failed: %v", err)
		}
		log.Printf("Database baselined at version %d", v)

	case "help":
		PrintMigrateHelp()

	default:
		fmt.Printf("Unknown migrate action: %s\n\n", action)
		PrintMigrateHelp()
		os.Exit(1)
	}
}

func requireVersionArg(args []string) int {
	if len(args) < 2 {
		log.Fatalf("Usage: structure-align migrate -db <file> %s <version_number>", args[0])
	}
	v, err := strconv.Atoi(args[1])
	if err != nil || v < 0 {
		log.Fatalf("Invalid version number: %s", args[1])
	}
	return v
}

func printVersion(database *DB) {
	version, dirty, err := database.MigrateVersion()
	if err != nil {
		log.Fatalf("Failed to read migration version: %v", err)
	}
	log.Printf("Current version: %d (dirty: %v)", version, dirty)
}

func handleMigrateStatus(database *DB) {
	tracked, err := database.HasTable("schema_migrations")
	if err != nil {
		log.Fatalf("Failed to inspect database: %v", err)
	}
	latest, err := LatestMigrationVersion()
	if err != nil {
		log.Fatalf("Failed to get latest migration version: %v", err)
	}

	fmt.Println("=== Migration Status ===")
	if !tracked {
		detected, err := database.DetectSchemaVersion()
		if err != nil {
			log.Fatalf("Schema detection failed: %v", err)
		}
		fmt.Println("No schema_migrations table found")
		fmt.Printf("Detected version: %d\n", detected)
		fmt.Printf("Latest available: %d\n", latest)
		if detected > 0 {
			fmt.Printf("Run 'structure-align migrate -db <file> up' to baseline at %d and upgrade.\n", detected)
		}
		return
	}

	version, dirty, err := database.MigrateVersion()
	if err != nil {
		log.Fatalf("Failed to get migration status: %v", err)
	}
	fmt.Printf("Current version: %d\n", version)
	fmt.Printf("Latest available: %d\n", latest)
	fmt.Printf("Dirty: %v\n", dirty)
	if dirty {
		fmt.Println("\nWARNING: a migration failed mid-execution.")
		fmt.Println("Inspect the database, then run: structure-align migrate -db <file> force <version>")
	}
}

// PrintMigrateHelp displays the help message for the migrate command.
func PrintMigrateHelp() {
	fmt.Println("Database Migration Commands")
	fmt.Println()
	fmt.Println("Usage: structure-align migrate -db <file> <command> [version]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  up              Apply all pending migrations (baselines untracked geometry databases)")
	fmt.Println("  down            Rollback one migration")
	fmt.Println("  status          Show current or detected version")
	fmt.Println("  version <N>     Migrate to specific version N")
	fmt.Println("  force <N>       Force migration version to N (recovery only)")
	fmt.Println("  baseline <N>    Set migration version to N without running migrations")
	fmt.Println("  help            Show this help message")
}
