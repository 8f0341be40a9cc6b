/*
main.go - One-shot import tool

PURPOSE:
  Loads HR files into the configured store without running the server.

USAGE:
  import schedule    -file roster.xlsx -year 2025 [-sheet Escala] [-config c.yaml] [-db attendance.db]
  import identifiers -file nifs.csv [-config c.yaml] [-db attendance.db]

  schedule:     Upserts one daily record per recognised code cell, creating
                employees that are not in the store yet
  identifiers:  Updates NIF / NISS numbers from a ';'-separated CSV

OUTPUT:
  The import summary as JSON on stdout; logs on stderr.

SEE ALSO:
  - importer/: Spreadsheet and CSV parsing
  - cmd/server/main.go: Same configuration and store selection
*/
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/attendance-engine/config"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/importer"
	"github.com/warp/attendance-engine/store"
	"go.uber.org/zap"
)

var errUsage = errors.New("usage: import <schedule|identifiers> -file PATH [flags]")

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// run returns instead of exiting so the deferred store close and signal
// stop happen on every path.
func run(args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	cmd := args[0]
	if cmd != "schedule" && cmd != "identifiers" {
		return errUsage
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file")
	dbPath := fs.String("db", "", "SQLite database path (overrides config)")
	file := fs.String("file", "", "File to import")
	year := fs.Int("year", time.Now().Year(), "Year of the schedule (schedule only)")
	sheet := fs.String("sheet", "", "Sheet name, first sheet when empty (schedule only)")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *file == "" {
		return errUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *dbPath != "" {
		cfg.Store.Driver = config.DriverSQLite
		cfg.Store.SQLitePath = *dbPath
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	f, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	var summary any
	switch cmd {
	case "schedule":
		if cfg.Store.SeedOccurrenceTypes {
			of := factory.NewOccurrenceFactory()
			if _, err := of.Seed(ctx, st.OccurrenceTypes(), of.DefaultOccurrenceTypes()); err != nil {
				return fmt.Errorf("seed occurrence types: %w", err)
			}
		}
		layout := importer.DefaultScheduleLayout(*year)
		layout.Sheet = *sheet
		summary, err = importer.NewScheduleImporter(st, logger).Import(ctx, f, layout)
	case "identifiers":
		summary, err = importer.NewIdentifierImporter(st, logger).Import(ctx, f)
	}
	if err != nil {
		logger.Error("import failed", zap.String("command", cmd), zap.String("file", *file), zap.Error(err))
		return fmt.Errorf("import %s: %w", cmd, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
