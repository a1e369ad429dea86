// ABOUTME: Schema migration utility for the leadengine SQLite database
// ABOUTME: Applies, rolls back, or reports migrations with an optional file backup first

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/leadengine/config"
	"github.com/harperreed/leadengine/db"
)

func main() {
	dbPath := flag.String("db", config.DefaultDBPath(), "Path to database file")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Create backup before changing the schema")
	steps := flag.Int("steps", 1, "Number of migrations to roll back with 'down'")
	flag.Usage = func() {
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), "Usage: migrate [flags] up|down|version\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "migrate"})

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	if err := run(logger, command, *dbPath, *dryRun, *backup, *steps); err != nil {
		logger.Fatal("migration failed", "err", err)
	}
}

func run(logger *log.Logger, command, dbPath string, dryRun, createBackup bool, steps int) error {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) && command != "up" {
		return fmt.Errorf("database file does not exist: %s", dbPath)
	}

	version, dirty, err := db.SchemaVersion(dbPath)
	if err != nil {
		return err
	}
	logger.Info("current schema", "version", version, "dirty", dirty)

	switch command {
	case "version":
		return nil
	case "up", "down":
	default:
		return fmt.Errorf("unknown command %q (want up, down, or version)", command)
	}

	if command == "down" && steps < 1 {
		return fmt.Errorf("-steps must be at least 1")
	}

	if dryRun {
		if command == "up" {
			logger.Info("[DRY RUN] would apply all pending migrations")
		} else {
			logger.Info("[DRY RUN] would roll back migrations", "steps", steps)
		}
		return nil
	}

	if createBackup && version > 0 {
		backupPath, err := backupFile(dbPath, time.Now())
		if err != nil {
			return err
		}
		logger.Info("backup created", "path", backupPath)
	}

	if command == "up" {
		err = db.RunMigrations(dbPath)
	} else {
		err = db.RollbackMigrations(dbPath, steps)
	}
	if err != nil {
		return err
	}

	version, dirty, err = db.SchemaVersion(dbPath)
	if err != nil {
		return err
	}
	logger.Info("migration completed", "version", version, "dirty", dirty)
	return nil
}

// backupFile copies the database next to itself with a timestamp suffix.
func backupFile(dbPath string, now time.Time) (string, error) {
	backupPath := fmt.Sprintf("%s.backup.%s", dbPath, now.Format("20060102-150405"))

	in, err := os.Open(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to read database: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(backupPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	return backupPath, nil
}
