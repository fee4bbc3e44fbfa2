package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tordrt/erdsql"
	"github.com/tordrt/erdsql/internal/cli"
	"github.com/tordrt/erdsql/internal/diagram"
	"github.com/tordrt/erdsql/internal/dialect"
	"github.com/tordrt/erdsql/internal/diff"
	"github.com/tordrt/erdsql/internal/schema"
)

func newDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff [BEFORE] AFTER",
		Short: "Emit the migration from one diagram to another",
		Long: `Diff compares two diagrams and prints the SQL that turns BEFORE into AFTER.
With --before-db the current schema of a live database replaces BEFORE.
Either file may be "-" to read from stdin.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runDiff,
	}

	cmd.Flags().StringP("format", "f", "sql", "Output format: sql, text or markdown")
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringP("output-dir", "d", "", "Write a migration directory (up/down scripts and overview)")
	cmd.Flags().String("name", "migration", "Migration name used with --output-dir")
	cmd.Flags().Bool("strict", false, "Fail when the migration contains breaking changes")
	cmd.Flags().String("before-db", "", "Database URL to use as the BEFORE schema")
	addTableFlags(cmd)
	return cmd
}

func runDiff(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	beforeDB := cli.String(cmd, "before-db")
	var beforePath, afterPath string
	switch {
	case beforeDB != "" && len(args) == 1:
		afterPath = args[0]
	case beforeDB == "" && len(args) == 2:
		beforePath, afterPath = args[0], args[1]
	default:
		return fmt.Errorf("expected BEFORE and AFTER diagrams, or --before-db and AFTER")
	}
	if beforePath == "-" && afterPath == "-" {
		return fmt.Errorf("only one of BEFORE and AFTER can be read from stdin")
	}

	// Both sides are independent; load them concurrently.
	var before, after *schema.Schema
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if beforeDB != "" {
			s, err := erdsql.Introspect(gctx, beforeDB, dbOptions(cmd))
			if err != nil {
				return fmt.Errorf("failed to introspect database: %w", err)
			}
			before = s
			return nil
		}
		text, err := readDiagram(cmd, beforePath)
		if err != nil {
			return err
		}
		before = diagram.Parse(text)
		return nil
	})
	g.Go(func() error {
		text, err := readDiagram(cmd, afterPath)
		if err != nil {
			return err
		}
		after = diagram.Parse(text)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Debug("schemas loaded", "before_tables", len(before.Tables), "after_tables", len(after.Tables))

	if err := checkStrict(cmd, diff.Diff(before, after)); err != nil {
		return err
	}

	ddlOpts, err := ddlOptions(cmd, cli.String(cmd, "dialect"))
	if err != nil {
		return err
	}

	if outputDir := cli.String(cmd, "output-dir"); outputDir != "" {
		if cli.String(cmd, "output") != "" {
			return fmt.Errorf("cannot use both --output-dir and --output flags")
		}
		if err := erdsql.FormatChanges(before, after, &erdsql.OutputOptions{
			OutputDir: outputDir,
			Name:      cli.String(cmd, "name"),
			DDL:       ddlOpts,
		}); err != nil {
			return fmt.Errorf("failed to write migration: %w", err)
		}
		logger.Info("migration written", "dir", outputDir)
		return nil
	}

	return withOutput(cmd, func(w io.Writer) error {
		err := erdsql.FormatChanges(before, after, &erdsql.OutputOptions{
			Writer: w,
			Format: cli.String(cmd, "format"),
			DDL:    ddlOpts,
		})
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		return nil
	})
}

// checkStrict logs validation findings and, under --strict, rejects breaking changes.
func checkStrict(cmd *cobra.Command, cs *diff.ChangeSet) error {
	result := diff.Validate(cs)
	for _, w := range result.Warnings {
		logger.Warn("migration warning", "finding", w.Error())
	}
	if !result.HasErrors() {
		return nil
	}
	if cli.Bool(cmd, "strict") {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), result.String())
		return diff.ErrBreakingChanges
	}
	for _, e := range result.Errors {
		logger.Warn("breaking change", "finding", e.Error())
	}
	return nil
}

func newDDLCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ddl DIAGRAM",
		Short: "Emit CREATE TABLE statements for a whole diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readDiagram(cmd, args[0])
			if err != nil {
				return err
			}
			opts, err := ddlOptions(cmd, cli.String(cmd, "dialect"))
			if err != nil {
				return err
			}
			script := erdsql.CreateScript(diagram.Parse(text), opts)
			return withOutput(cmd, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, script)
				return err
			})
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newIntrospectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "introspect",
		Short: "Write the schema of a live database as a diagram",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbURL := cli.String(cmd, "db-url")
			if dbURL == "" {
				return fmt.Errorf("--db-url must be specified")
			}
			s, err := erdsql.Introspect(cmd.Context(), dbURL, dbOptions(cmd))
			if err != nil {
				return fmt.Errorf("failed to extract schema: %w", err)
			}
			logger.Debug("schema extracted", "tables", len(s.Tables))
			return withOutput(cmd, func(w io.Writer) error {
				return diagram.NewWriter(w).Format(s)
			})
		},
	}
	cmd.Flags().String("db-url", "", "Database URL (postgres://, mysql:// or sqlite://)")
	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	addTableFlags(cmd)
	return cmd
}

func newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply AFTER",
		Short: "Migrate a live database to match a diagram",
		Long: `Apply introspects the database, diffs it against AFTER and executes the
resulting statements in one transaction. The dialect follows the URL scheme.`,
		Args: cobra.ExactArgs(1),
		RunE: runApply,
	}
	cmd.Flags().String("db-url", "", "Database URL (postgres://, mysql:// or sqlite://)")
	cmd.Flags().Bool("dry-run", false, "Print the migration instead of executing it")
	cmd.Flags().Bool("strict", false, "Refuse to apply breaking changes")
	addTableFlags(cmd)
	return cmd
}

func runApply(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	dbURL := cli.String(cmd, "db-url")
	if dbURL == "" {
		return fmt.Errorf("--db-url must be specified")
	}
	dialectTag, err := erdsql.DialectForURL(dbURL)
	if err != nil {
		return err
	}

	text, err := readDiagram(cmd, args[0])
	if err != nil {
		return err
	}
	after := diagram.Parse(text)

	before, err := erdsql.Introspect(ctx, dbURL, dbOptions(cmd))
	if err != nil {
		return fmt.Errorf("failed to extract schema: %w", err)
	}

	cs := diff.Diff(before, after)
	if cs.IsEmpty() {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "-- No changes detected")
		return nil
	}
	if err := checkStrict(cmd, cs); err != nil {
		return err
	}

	opts, err := ddlOptions(cmd, dialectTag)
	if err != nil {
		return err
	}

	if cli.Bool(cmd, "dry-run") {
		return erdsql.FormatChanges(before, after, &erdsql.OutputOptions{Writer: cmd.OutOrStdout(), DDL: opts})
	}

	stmts := erdsql.MigrationStatements(before, after, opts)
	if err := erdsql.ApplyMigration(ctx, dbURL, stmts, &erdsql.Options{Logger: logger}); err != nil {
		return fmt.Errorf("failed to apply migration: %w", err)
	}
	logger.Info("migration applied", "statements", len(stmts), "dialect", dialectTag)
	return nil
}

func newMapTypeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map-type TYPE...",
		Short: "Show the SQL type a canonical diagram type maps to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var targets []dialect.Dialect
			if cli.Bool(cmd, "all") {
				targets = dialect.All
			} else {
				targets = []dialect.Dialect{dialect.Parse(cli.String(cmd, "dialect"))}
			}

			var overrides map[string]string
			if path := cli.String(cmd, "type-map"); path != "" {
				var err error
				if overrides, err = erdsql.LoadTypeOverrides(path); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			for _, typ := range args {
				for _, d := range targets {
					mapped := dialect.NewMapper(d, overrides).Map(typ)
					if len(targets) == 1 {
						_, _ = fmt.Fprintf(out, "%s\t%s\n", typ, mapped)
					} else {
						_, _ = fmt.Fprintf(out, "%s\t%s\t%s\n", typ, d, mapped)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("all", false, "Show the mapping for every dialect")
	return cmd
}

// exitCode distinguishes breaking-change refusals from other failures.
func exitCode(err error) int {
	if errors.Is(err, diff.ErrBreakingChanges) {
		return 2
	}
	return 1
}
