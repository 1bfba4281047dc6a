// Package cliapp implements the janus operator CLI: ingest, query, and
// stats subcommands against a segmented storage engine instance. It does
// not implement the JanusQL/SPARQL query language surface.
package cliapp

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"janus/internal/config"
	"janus/internal/engine"
	"janus/internal/logger"
	"janus/internal/statestore"
)

// Execute dispatches CLI subcommands and returns a process exit code.
func Execute(args []string) int {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("[janus] ")

	if len(args) == 0 {
		printUsage()
		return 1
	}

	switch args[0] {
	case "ingest":
		return runIngest(args[1:])
	case "query":
		return runQuery(args[1:])
	case "stats":
		return runStats(args[1:])
	case "help", "-h", "--help":
		printUsage()
		return 0
	case "version", "--version", "-v":
		fmt.Println("janus 0.1.0-dev")
		return 0
	default:
		log.Printf("Unknown subcommand: %s", args[0])
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Println(`janus: a streaming segmented storage engine for RDF quads

Usage:
  janus ingest --config <path> [--file <path>]
  janus query  --config <path> --start <ts> --end <ts>
  janus stats  --config <path>

Flags:
  --config   Path to the YAML configuration file (required)
  --file     File of "ts subject predicate object graph" lines to ingest (default: stdin)
  --start    Inclusive range start, epoch milliseconds
  --end      Inclusive range end, epoch milliseconds`)
}

func loadEngine(configPath string) (*engine.Engine, *config.Config, error) {
	if configPath == "" {
		return nil, nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.LogDir, logger.ParseLevel(cfg.LogLevel), "janus"); err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	e, err := engine.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("start engine: %w", err)
	}
	return e, cfg, nil
}

func runIngest(args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)
	var configPath, filePath string
	fs.StringVar(&configPath, "config", "", "Configuration file path (YAML)")
	fs.StringVar(&filePath, "file", "", `File of "ts subject predicate object graph" lines (default: stdin)`)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	e, _, err := loadEngine(configPath)
	if err != nil {
		log.Printf("%v", err)
		return 2
	}
	e.StartBackgroundFlushing()
	defer func() {
		if err := e.Shutdown(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	input := os.Stdin
	if filePath != "" {
		f, err := os.Open(filePath)
		if err != nil {
			log.Printf("open %s: %v", filePath, err)
			return 1
		}
		defer f.Close()
		input = f
	}

	count, err := ingestQuads(e, input)
	if err != nil {
		log.Printf("ingest failed after %d records: %v", count, err)
		return 1
	}
	log.Printf("ingested %d records", count)
	return 0
}

// ingestQuads reads one quad per line, each a whitespace-separated
// "ts subject predicate object graph" tuple, and writes it through e.
func ingestQuads(e *engine.Engine, input *os.File) (int, error) {
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	count := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ts, s, p, o, g, err := parseQuadLine(line)
		if err != nil {
			return count, fmt.Errorf("line %d: %w", count+1, err)
		}
		if err := e.WriteRDF(ts, s, p, o, g); err != nil {
			return count, fmt.Errorf("line %d: %w", count+1, err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, err
	}
	return count, nil
}

func runQuery(args []string) int {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)
	var configPath string
	var start, end uint64
	fs.StringVar(&configPath, "config", "", "Configuration file path (YAML)")
	fs.Uint64Var(&start, "start", 0, "Inclusive range start, epoch milliseconds")
	fs.Uint64Var(&end, "end", 0, "Inclusive range end, epoch milliseconds")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	e, _, err := loadEngine(configPath)
	if err != nil {
		log.Printf("%v", err)
		return 2
	}
	defer e.Shutdown()

	events, err := e.QueryRDF(start, end)
	if err != nil {
		log.Printf("query failed: %v", err)
		return 1
	}
	for _, ev := range events {
		fmt.Printf("%d\t%s\t%s\t%s\t%s\n", ev.Timestamp, ev.Subject, ev.Predicate, ev.Object, ev.Graph)
	}
	return 0
}

func runStats(args []string) int {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)
	var configPath string
	fs.StringVar(&configPath, "config", "", "Configuration file path (YAML)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 1
	}

	e, cfg, err := loadEngine(configPath)
	if err != nil {
		log.Printf("%v", err)
		return 2
	}
	defer e.Shutdown()

	snap := engine.Snapshot(e)
	fmt.Printf("dictionary terms: %d\n", snap.DictionaryTerms)
	fmt.Printf("segments:         %d\n", snap.SegmentCount)
	fmt.Printf("records on disk:  %d\n", snap.TotalRecords)
	if snap.SegmentCount > 0 {
		fmt.Printf("time range:       [%d, %d]\n", snap.EarliestTS, snap.LatestTS)
	}

	store := statestore.NewStore(cfg.StatsSnapshotPath)
	if err := store.Capture(e); err != nil {
		log.Printf("warning: failed to persist stats snapshot: %v", err)
	}
	return 0
}

func parseQuadLine(line string) (ts uint64, s, p, o, g string, err error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return 0, "", "", "", "", fmt.Errorf("expected 5 whitespace-separated fields (ts subject predicate object graph), got %d", len(fields))
	}
	var n int
	n, err = fmt.Sscanf(fields[0], "%d", &ts)
	if err != nil || n != 1 {
		return 0, "", "", "", "", fmt.Errorf("invalid timestamp %q: %w", fields[0], err)
	}
	return ts, fields[1], fields[2], fields[3], fields[4], nil
}
