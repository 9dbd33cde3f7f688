package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MBrOssss/RESTApi/core/schema"
	"github.com/MBrOssss/RESTApi/internal/config"
	"github.com/MBrOssss/RESTApi/internal/logging"
	"github.com/MBrOssss/RESTApi/sqlstore"
)

// app carries the state shared by all subcommands once the root command has
// resolved configuration.
type app struct {
	envFile string
	flags   config.Config
	cfg     *config.Config
	logger  *zap.Logger
	cleanup func() error
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "restquery",
		Short: "Create, seed and search SQL tables with prefix-keyed filters",
		Long: `restquery manages SQL tables described by YAML schemas and searches them with
the prefix-keyed filter language (string_, equal_, in_, date_between_ ...).

Settings come from RESTQUERY_* environment variables, an optional .env file and
the flags below, in increasing order of precedence.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file to load")
	pf.StringVar(&a.flags.Driver, "driver", "", "database driver: sqlite3 or pgx")
	pf.StringVar(&a.flags.DSN, "dsn", "", "data source name")
	pf.StringVar(&a.flags.SchemaDir, "schema-dir", "", "directory of YAML schema definitions")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.flags.LogFile, "log-file", "", "also write JSON logs to this rotating file")
	pf.IntVar(&a.flags.PlanCacheSize, "plan-cache-size", 0, "compiled filter cache size, 0 disables")

	root.AddCommand(newCreateTableCmd(a), newSeedCmd(a), newSearchCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.Driver = a.flags.Driver
	}
	if flags.Changed("dsn") {
		cfg.DSN = a.flags.DSN
	}
	if flags.Changed("schema-dir") {
		cfg.SchemaDir = a.flags.SchemaDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.flags.LogLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = a.flags.LogFile
	}
	if flags.Changed("plan-cache-size") {
		cfg.PlanCacheSize = a.flags.PlanCacheSize
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.FilePath = cfg.LogFile
	logger, cleanup, err := logging.New(logCfg)
	if err != nil {
		return err
	}
	for _, warning := range cfg.Warnings {
		logger.Warn("Invalid configuration value", zap.String("detail", warning))
	}

	a.cfg = cfg
	a.logger = logger
	a.cleanup = cleanup
	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) error {
	if a.cleanup == nil {
		return nil
	}
	return a.cleanup()
}

// openStore opens and pings the configured database.
func (a *app) openStore(ctx context.Context) (*sql.DB, sqlstore.Dialect, error) {
	dialect, err := sqlstore.ParseDialect(a.cfg.Driver)
	if err != nil {
		return nil, "", err
	}
	db, err := sql.Open(dialect.DriverName(), a.cfg.DSN)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to connect to database: %w", err)
	}
	a.logger.Debug("Connected to database", zap.String("driver", dialect.DriverName()))
	return db, dialect, nil
}

// loadSchema returns the schema definition with the given name from the schema directory.
func (a *app) loadSchema(name string) (*schema.SchemaDefinition, error) {
	defs, err := schema.LoadSchemaDir(a.cfg.SchemaDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load schemas from %s: %w", a.cfg.SchemaDir, err)
	}
	def, ok := defs[name]
	if !ok {
		return nil, fmt.Errorf("schema '%s' not found in %s", name, a.cfg.SchemaDir)
	}
	return def, nil
}
