// ABOUTME: Wiring for CLI commands: config, logger, database, and service
// ABOUTME: Opened lazily by the commands that need storage and closed after they run
package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/harperreed/leadengine/charm"
	"github.com/harperreed/leadengine/config"
	"github.com/harperreed/leadengine/db"
	"github.com/harperreed/leadengine/service"
)

var errAmbiguousID = errors.New("ambiguous id prefix")

type globalFlags struct {
	configPath string
	dbPath     string
	logLevel   string
}

type app struct {
	flags      globalFlags
	cfg        *config.Config
	configPath string
	logger     *log.Logger
	db         *sql.DB
	charm      *charm.Client
	svc        *service.Service
	stderr     io.Writer
	clock      service.Clock
}

func newApp(stderr io.Writer) *app {
	return &app{stderr: stderr, clock: service.SystemClock{}}
}

// loadConfig reads config and applies the global flag overrides.
func (a *app) loadConfig() error {
	if a.cfg != nil {
		return nil
	}
	path := a.flags.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(viper.New(), path)
	if err != nil {
		return err
	}
	if a.flags.dbPath != "" {
		cfg.DBPath = a.flags.dbPath
	}
	if a.flags.logLevel != "" {
		cfg.LogLevel = a.flags.logLevel
	}
	a.cfg = cfg
	a.configPath = path

	a.logger = log.NewWithOptions(a.stderr, log.Options{ReportTimestamp: true, Prefix: config.AppName})
	level, err := log.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = log.InfoLevel
		a.logger.Warn("unknown log level, using info", "level", cfg.LogLevel)
	}
	a.logger.SetLevel(level)
	return nil
}

// open loads config, makes sure an owner id exists, and opens storage.
func (a *app) open() error {
	if a.svc != nil {
		return nil
	}
	if err := a.loadConfig(); err != nil {
		return err
	}

	generated, err := a.cfg.EnsureOwnerID(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to save owner id: %w", err)
	}
	if generated {
		a.logger.Info("generated owner id", "owner", a.cfg.OwnerID, "config", a.configPath)
	}

	database, err := db.OpenDatabase(a.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.db = database
	a.logger.Debug("opened database", "path", a.cfg.DBPath)

	stores := service.Stores{
		Leads:        db.NewLeadRepository(database),
		Tasks:        db.NewTaskRepository(database),
		Transactions: db.NewTransactionRepository(database),
		Exclusions:   db.NewExclusionRepository(database),
	}
	if a.cfg.ExclusionBackend == config.BackendCharm {
		client, err := a.openCharm()
		if err != nil {
			return err
		}
		stores.Exclusions = charm.NewExclusionStore(client)
	}

	a.svc = service.New(a.cfg.OwnerID, stores,
		service.WithLogger(a.logger),
		service.WithClock(a.clock),
	)
	return nil
}

func (a *app) openCharm() (*charm.Client, error) {
	if a.charm != nil {
		return a.charm, nil
	}
	if err := a.loadConfig(); err != nil {
		return nil, err
	}
	cfg := charm.DefaultConfig()
	cfg.Host = a.cfg.Charm.Host
	cfg.AutoSync = a.cfg.Charm.AutoSync
	client, err := charm.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	a.charm = client
	return client, nil
}

func (a *app) close() error {
	var errs []error
	if a.db != nil {
		errs = append(errs, a.db.Close())
		a.db = nil
	}
	if a.charm != nil {
		errs = append(errs, a.charm.Close())
		a.charm = nil
	}
	a.svc = nil
	return errors.Join(errs...)
}

// resolveID accepts a full UUID or a unique prefix of one of the candidates.
func resolveID(arg string, candidates []uuid.UUID) (uuid.UUID, error) {
	if id, err := uuid.Parse(arg); err == nil {
		return id, nil
	}
	prefix := strings.ToLower(strings.TrimSpace(arg))
	if prefix == "" {
		return uuid.Nil, fmt.Errorf("empty id")
	}

	var found []uuid.UUID
	for _, c := range candidates {
		if strings.HasPrefix(c.String(), prefix) {
			found = append(found, c)
		}
	}
	switch len(found) {
	case 0:
		return uuid.Nil, fmt.Errorf("no record matches %q", arg)
	case 1:
		return found[0], nil
	default:
		return uuid.Nil, fmt.Errorf("%w: %q matches %d records", errAmbiguousID, arg, len(found))
	}
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
