// Command weldsql renders the SQL of queries declared in a YAML file, for
// one or every dialect. It can print the DDL of the declared tables,
// re-render when the files change, and run the queries against a database.
//
//	weldsql -config weld.yaml
//	weldsql -config weld.yaml -dialect all
//	weldsql -config weld.yaml -ddl
//	weldsql -config weld.yaml -watch
//	weldsql -config weld.yaml -exec -dsn "file:shop.db"
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/syssam/weld/dialect"
	"github.com/syssam/weld/dialect/sql"
	ddl "github.com/syssam/weld/dialect/sql/schema"
	"github.com/syssam/weld/schema"
)

type options struct {
	config  string
	dialect string
	dsn     string
	ddl     bool
	watch   bool
	exec    bool
	verbose bool
}

func main() {
	var opts options
	flag.StringVar(&opts.config, "config", "weld.yaml", "config file")
	flag.StringVar(&opts.dialect, "dialect", "", `dialect overriding the config, or "all"`)
	flag.StringVar(&opts.dsn, "dsn", "", "data source name overriding the config")
	flag.BoolVar(&opts.ddl, "ddl", false, "print the CREATE TABLE statements of the schema")
	flag.BoolVar(&opts.watch, "watch", false, "render again when the config or schema changes")
	flag.BoolVar(&opts.exec, "exec", false, "run the queries against the database")
	flag.BoolVar(&opts.verbose, "v", false, "log debug messages")
	flag.Parse()

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Stdout, logger, opts); err != nil {
		logger.Error("weldsql failed", "err", err)
		os.Exit(1)
	}
}

var errFailed = errors.New("some statements failed to build")

func run(ctx context.Context, w io.Writer, logger *slog.Logger, opts options) error {
	if !opts.watch {
		return once(ctx, w, logger, opts)
	}
	cfg, err := loadConfig(opts.config)
	if err != nil {
		return err
	}
	if err := once(ctx, w, logger, opts); err != nil {
		logger.Warn("render failed", "err", err)
	}
	return watch(ctx, logger, []string{opts.config, cfg.SchemaPath()}, func(path string) {
		logger.Info("changed", "file", path)
		if err := once(ctx, w, logger, opts); err != nil {
			logger.Warn("render failed", "err", err)
		}
	})
}

// once loads the files and renders, or executes, every query.
func once(ctx context.Context, w io.Writer, logger *slog.Logger, opts options) error {
	cfg, err := loadConfig(opts.config)
	if err != nil {
		return err
	}
	sch, err := schema.Load(cfg.SchemaPath())
	if err != nil {
		return err
	}
	result := ddl.ValidateSchema(sch.Tables)
	for _, e := range result.Warnings {
		logger.Warn("schema", "issue", e.Error())
	}
	if result.HasErrors() {
		return fmt.Errorf("invalid schema:\n%s", result)
	}
	syntaxes, err := targets(cfg, opts.dialect)
	if err != nil {
		return err
	}
	if opts.exec {
		return runQueries(ctx, w, logger, cfg, syntaxes[0], opts.dsn, sch)
	}
	failed := 0
	for _, s := range syntaxes {
		if opts.ddl {
			if err := printDDL(ctx, w, s, sch); err != nil {
				logger.Warn("ddl", "dialect", s, "err", err)
				failed++
			}
			continue
		}
		failed += render(w, cfg, s, sch)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d", errFailed, failed)
	}
	return nil
}

func targets(cfg *Config, override string) ([]dialect.Syntax, error) {
	if strings.EqualFold(override, "all") {
		return dialect.All, nil
	}
	s, err := cfg.Syntax(override)
	if err != nil {
		return nil, err
	}
	return []dialect.Syntax{s}, nil
}

func printDDL(ctx context.Context, w io.Writer, s dialect.Syntax, sch *schema.Schema) error {
	stmts, err := ddl.CreateStatements(ctx, s, sch.Tables...)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "-- %s\n", s)
	for _, stmt := range stmts {
		fmt.Fprintln(w, stmt+";")
	}
	fmt.Fprintln(w)
	return nil
}

func runQueries(ctx context.Context, w io.Writer, logger *slog.Logger, cfg *Config, s dialect.Syntax, dsn string, sch *schema.Schema) error {
	if dsn == "" {
		dsn = cfg.DSN
	}
	if dsn == "" {
		return fmt.Errorf("-exec needs a dsn")
	}
	drv, err := sql.Connect(ctx, s, dsn)
	if err != nil {
		return err
	}
	defer drv.Close()
	sd := sql.NewStatsDriver(drv, sql.WithLogger(logger), sql.WithDebug())
	if err := execute(ctx, w, sd, cfg, sch); err != nil {
		return err
	}
	logger.Info("done", "stats", sd.Stats().Snapshot().String())
	return nil
}
