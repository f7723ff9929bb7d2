package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/banshee-data/trackdqm/internal/config"
	"github.com/banshee-data/trackdqm/internal/db"
	"github.com/banshee-data/trackdqm/internal/version"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	var err error
	switch command {
	case "replay":
		err = handleReplay(args)
	case "migrate":
		err = handleMigrate(args)
	case "version":
		fmt.Println(version.String())
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("%s: %v", command, err)
	}
}

func printUsage() {
	fmt.Println(`trackdqm - road-search track candidates and luminosity DQM

Usage: trackdqm <command> [options]

Commands:
  replay     Replay a JSON fixture through the candidate maker and lumi monitor
  migrate    Manage the database schema (up, down, version)
  version    Show trackdqm version
  help       Show this help message

Replay Flags:
  --config <file>      Configuration JSON (default: built-in defaults)
  --input <file>       Fixture JSON (required)
  --db <path>          SQLite database (default: from config)
  --report-dir <dir>   Directory for the HTML and PNG report (default: from config)
  --listen <addr>      Serve /metrics, /report and /debug/ after the replay

Examples:
  trackdqm replay --input fixture.json --report-dir out
  trackdqm migrate version --db trackdqm.db`)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Empty(), nil
	}
	return config.Load(path)
}

func handleReplay(args []string) error {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	configPath := fs.String("config", "", "Configuration JSON file")
	input := fs.String("input", "", "Fixture JSON file (required)")
	dbPath := fs.String("db", "", "SQLite database path (overrides config)")
	reportDir := fs.String("report-dir", "", "Report output directory (overrides config)")
	listen := fs.String("listen", "", "Serve metrics and reports on this address after the replay")
	fs.Parse(args)

	if *input == "" {
		fs.Usage()
		return fmt.Errorf("--input is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *dbPath == "" {
		*dbPath = cfg.GetDBPath()
	}
	if *reportDir == "" {
		*reportDir = cfg.GetReportDir()
	}

	fixture, err := LoadFixture(*input)
	if err != nil {
		return err
	}

	store, err := db.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	res, err := NewReplayer(cfg, nil, reg, store).Replay(*input, fixture)
	if err != nil {
		return err
	}
	log.Printf("run %s: %d slices, %d events with candidates", res.RunID, len(res.Slices), len(res.Candidates))
	for _, s := range res.Summaries {
		log.Printf("run %d: %d LS, integrated lumi %.3f, %d clusters", s.Run, s.Slices, s.IntegratedLumi, s.Clusters)
	}

	files, err := WriteReport(*reportDir, res.Runs)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	log.Printf("wrote %d report files to %s", len(files), *reportDir)

	if *listen == "" {
		return nil
	}
	return serve(*listen, reg, store, res.Runs)
}

func handleMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dbPath := fs.String("db", "trackdqm.db", "SQLite database path")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: trackdqm migrate [--db path] up|down|version")
	}

	store, err := db.OpenDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	switch fs.Arg(0) {
	case "up":
		if err := store.MigrateUp(); err != nil {
			return err
		}
	case "down":
		if err := store.MigrateDown(); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("unknown migrate action %q", fs.Arg(0))
	}

	v, dirty, err := store.MigrateVersion()
	if err != nil {
		return err
	}
	fmt.Printf("schema version %d (dirty: %v)\n", v, dirty)
	return nil
}
