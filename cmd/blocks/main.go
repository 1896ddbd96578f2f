// Command blocks manages the tables of a Blocks installation.
//
//	blocks [-config blocks.yaml] [-v] install
//	blocks uninstall
//	blocks probe
//	blocks tables
//	blocks rules User
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/blockscms/blocks"
	"github.com/blockscms/blocks/config"
	"github.com/blockscms/blocks/dialect/sql"
	"github.com/blockscms/blocks/dialect/sql/schema"
	"github.com/blockscms/blocks/migrate"
	"github.com/blockscms/blocks/models"
	"github.com/blockscms/blocks/validate"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "blocks:", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage: blocks [-config path] [-v] install|uninstall|probe|tables|rules <model>")

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("blocks", flag.ContinueOnError)
	fs.SetOutput(stderr)
	path := fs.String("config", "", "config file (default $"+config.EnvPath+" or ./"+config.DefaultPath+")")
	verbose := fs.Bool("v", false, "log queries and debug messages")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(*path)
	if err != nil {
		return err
	}
	reg := blocks.NewRegistry()
	if err := models.Register(reg); err != nil {
		return err
	}

	// Commands that only inspect the models do not open the database.
	switch cmd := fs.Arg(0); cmd {
	case "tables":
		return printTables(stdout, cfg, reg)
	case "rules":
		if fs.NArg() != 2 {
			return errUsage
		}
		return printRules(stdout, reg, fs.Arg(1))
	case "install", "uninstall", "probe":
		drv, err := cfg.Open(sql.WithSlowQueryLog(logger))
		if err != nil {
			return err
		}
		defer drv.Close()
		defer func() {
			logger.DebugContext(ctx, "query stats",
				"stats", drv.QueryStats().Stats().String(),
				"slow_threshold", drv.SlowThreshold())
		}()
		m := migrate.New(drv, reg, migrate.WithPrefix(cfg.TablePrefix), migrate.WithLogger(logger))
		switch cmd {
		case "install":
			return m.Install(ctx)
		case "uninstall":
			return m.Uninstall(ctx)
		default:
			installed, err := m.Probe(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "installed: %t\n", installed)
			return nil
		}
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

// printTables writes the CREATE statements of every registered model.
func printTables(w io.Writer, cfg *config.Config, reg *blocks.Registry) error {
	ddl := schema.NewDDL(cfg.Dialect)
	seen := make(map[string]bool)
	for _, m := range reg.Models() {
		plan, err := migrate.Plan(reg, m, cfg.TablePrefix)
		if err != nil {
			return err
		}
		for _, t := range plan.All() {
			if seen[t.Name] {
				continue
			}
			seen[t.Name] = true
			fmt.Fprintf(w, "%s;\n", ddl.CreateTable(t))
			for _, idx := range t.Indexes {
				fmt.Fprintf(w, "%s;\n", ddl.CreateIndex(t, idx))
			}
			for _, fk := range t.ForeignKeys {
				if stmt, ok := ddl.AddForeignKey(t, fk); ok {
					fmt.Fprintf(w, "%s;\n", stmt)
				}
			}
		}
	}
	return nil
}

// printRules writes the validation rules of the named model.
func printRules(w io.Writer, reg *blocks.Registry, name string) error {
	m, err := reg.Lookup(name)
	if err != nil {
		return err
	}
	for _, r := range validate.Rules(m) {
		fmt.Fprintln(w, r)
	}
	return nil
}
