// Command dyntable-server serves the dynamic table HTTP API.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"dyntable/internal/app"
	"dyntable/internal/config"
	internaldb "dyntable/internal/db"
	"dyntable/internal/db/repository"
	"dyntable/internal/domain"
	"dyntable/internal/service/table"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// serverFlags are the command-line overrides for the env configuration.
type serverFlags struct {
	listen      string
	metaDB      string
	storeDriver string
	storePath   string
	logLevel    string
	envFile     string
}

func (f *serverFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.listen, "listen", "", "HTTP listen address (env LISTEN_ADDR)")
	fs.StringVar(&f.metaDB, "meta-db", "", "SQLite catalog file (env META_DB_PATH)")
	fs.StringVar(&f.storeDriver, "store-driver", "", "physical store: sqlite or duckdb (env STORE_DRIVER)")
	fs.StringVar(&f.storePath, "store-path", "", "physical store location (env STORE_PATH)")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (env LOG_LEVEL)")
	fs.StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
}

// load reads .env and the environment, then applies explicitly set flags.
func (f *serverFlags) load(fs *pflag.FlagSet) (*config.Config, error) {
	if err := config.LoadDotEnv(f.envFile); err != nil {
		return nil, err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if fs.Changed("listen") {
		cfg.ListenAddr = f.listen
	}
	if fs.Changed("meta-db") {
		cfg.MetaDBPath = f.metaDB
	}
	if fs.Changed("store-driver") {
		cfg.StoreDriver = strings.ToLower(f.storeDriver)
	}
	if fs.Changed("store-path") {
		cfg.StorePath = f.storePath
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	flags := &serverFlags{}

	root := &cobra.Command{
		Use:           "dyntable-server",
		Short:         "Dynamic table HTTP server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags)
		},
	}
	flags.register(root.PersistentFlags())

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, flags)
		},
	})
	root.AddCommand(newMigrateCmd(flags))
	root.AddCommand(newReconcileCmd(flags))
	return root
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// resources are the open database handles shared by every subcommand.
type resources struct {
	writeDB *sql.DB
	readDB  *sql.DB
	store   *internaldb.Store
}

func (r *resources) Close() {
	if r.store != nil {
		_ = r.store.Close()
	}
	if r.readDB != nil {
		_ = r.readDB.Close()
	}
	if r.writeDB != nil {
		_ = r.writeDB.Close()
	}
}

// openResources opens the catalog pools, migrates them and opens the store.
func openResources(cfg *config.Config, logger *slog.Logger) (*resources, error) {
	res := &resources{}
	var err error

	res.writeDB, res.readDB, err = internaldb.OpenSQLitePair(cfg.MetaDBPath, 0)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if err := internaldb.RunMigrations(res.writeDB); err != nil {
		res.Close()
		return nil, fmt.Errorf("migrate catalog: %w", err)
	}

	res.store, err = internaldb.OpenStore(cfg.StoreDriver, cfg.EffectiveStorePath())
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Info("databases ready",
		"catalog", cfg.MetaDBPath,
		"store_driver", cfg.StoreDriver,
		"store_path", cfg.EffectiveStorePath())
	return res, nil
}

func runServe(cmd *cobra.Command, flags *serverFlags) error {
	cfg, err := flags.load(cmd.Flags())
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := openResources(cfg, logger)
	if err != nil {
		return err
	}
	defer res.Close()

	setupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	application, err := app.New(setupCtx, app.Deps{
		Cfg:     cfg,
		WriteDB: res.writeDB,
		ReadDB:  res.readDB,
		Store:   res.store,
		Logger:  logger,
	})
	cancel()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           application.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP API listening", "addr", cfg.ListenAddr, "version", version)
		logger.Info("try: curl http://" + curlHostForListenAddr(cfg.ListenAddr) + "/table")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return application.RateLimiter.Run(gctx) })
	if application.Scheduler != nil {
		g.Go(func() error { return application.Scheduler.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func newMigrateCmd(flags *serverFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply catalog migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd.Flags())
			if err != nil {
				return err
			}
			writeDB, err := internaldb.OpenSQLite(cfg.MetaDBPath, "write", 0)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer writeDB.Close() //nolint:errcheck

			if err := internaldb.RunMigrations(writeDB); err != nil {
				return err
			}
			v, err := internaldb.MigrationVersion(writeDB)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "catalog %s at migration version %d\n", cfg.MetaDBPath, v)
			return nil
		},
	}
}

func newReconcileCmd(flags *serverFlags) *cobra.Command {
	var repair bool
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare the catalog with the physical tables",
		Long: "Reports catalog entries without a physical table and physical tables without a catalog entry.\n" +
			"With --repair, unregistered tables are added to the catalog. Catalog entries are never deleted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd.Flags())
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr())
			res, err := openResources(cfg, logger)
			if err != nil {
				return err
			}
			defer res.Close()

			reconciler := table.NewReconciler(
				repository.NewCatalogRepo(res.writeDB, res.readDB),
				repository.NewStoreRepo(res.store.DB, res.store.Dialect),
				logger,
			)
			report, err := reconciler.Reconcile(cmd.Context(), repair)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().BoolVar(&repair, "repair", false, "register physical tables missing from the catalog")
	return cmd
}

type reportEntry struct {
	TableID   int64  `json:"table_id"`
	TableName string `json:"table_name"`
}

func entriesJSON(entries []domain.CatalogEntry) []reportEntry {
	out := make([]reportEntry, len(entries))
	for i, e := range entries {
		out[i] = reportEntry{TableID: e.ID, TableName: e.LogicalName}
	}
	return out
}

func printReport(w io.Writer, report domain.ReconcileReport) error {
	unregistered := report.Unregistered
	if unregistered == nil {
		unregistered = []string{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"orphaned":     entriesJSON(report.Orphaned),
		"unregistered": unregistered,
		"registered":   entriesJSON(report.Registered),
	})
}

// curlHostForListenAddr turns a listen address into a host usable in a URL.
func curlHostForListenAddr(listenAddr string) string {
	addr := strings.TrimSpace(listenAddr)
	if addr == "" {
		return "localhost:8080"
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
