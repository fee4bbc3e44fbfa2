package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tordrt/erdsql"
	"github.com/tordrt/erdsql/internal/cli"
)

// logger is replaced in PersistentPreRunE once --verbose is known.
var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "erdsql",
		Short: "Generate SQL migrations from entity-relationship diagrams",
		Long: `erdsql parses Mermaid erDiagram documents, diffs two versions of a diagram
(or a live database against a diagram) and emits dialect-aware SQL for
ANSI SQL, MySQL, PostgreSQL, T-SQL and SQLite.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.Init(cmd, cli.DefaultConfig()); err != nil {
				return err
			}
			level := slog.LevelInfo
			if cli.Bool(cmd, "verbose") {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default: ./erdsql.yaml or ~/.config/erdsql/erdsql.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("dialect", "ansi", "SQL dialect: ansi, mysql, postgres, tsql or sqlite")
	rootCmd.PersistentFlags().String("type-map", "", "YAML or JSON file overriding canonical type -> SQL type")

	rootCmd.AddCommand(
		newDiffCmd(),
		newDDLCmd(),
		newIntrospectCmd(),
		newApplyCmd(),
		newMapTypeCmd(),
	)
	return rootCmd
}

// readDiagram reads a diagram file, or stdin when path is "-".
func readDiagram(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read diagram: %w", err)
	}
	return string(data), nil
}

// ddlOptions builds generation options from --dialect and --type-map.
func ddlOptions(cmd *cobra.Command, dialectTag string) (*erdsql.DDLOptions, error) {
	opts := &erdsql.DDLOptions{Dialect: dialectTag}
	if path := cli.String(cmd, "type-map"); path != "" {
		overrides, err := erdsql.LoadTypeOverrides(path)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded type overrides", "path", path, "count", len(overrides))
		opts.TypeOverrides = overrides
	}
	return opts, nil
}

// dbOptions builds introspection options from the table and schema flags.
func dbOptions(cmd *cobra.Command) *erdsql.Options {
	return &erdsql.Options{
		Tables:        cli.StringSlice(cmd, "tables"),
		ExcludeTables: cli.StringSlice(cmd, "exclude-tables"),
		SchemaName:    cli.String(cmd, "schema"),
		Logger:        logger,
	}
}

func addTableFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceP("tables", "t", nil, "Specific tables (comma-separated, optional)")
	cmd.Flags().StringSlice("exclude-tables", nil, "Tables to skip (comma-separated, optional)")
	cmd.Flags().StringP("schema", "s", "", "Database schema name (default: public for PostgreSQL, URL database for MySQL)")
}

// withOutput runs write against the --output file, or stdout when unset.
func withOutput(cmd *cobra.Command, write func(io.Writer) error) error {
	outputFile := cli.String(cmd, "output")
	if outputFile == "" {
		return write(cmd.OutOrStdout())
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close output file: %v\n", err)
		}
	}()
	return write(f)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}
