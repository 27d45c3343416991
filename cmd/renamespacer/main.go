package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dejo1307/renamespacer/internal/config"
)

var (
	// Global flags
	cfgPath string
	verbose bool

	// Run flags
	project       string
	clients       []string
	exclude       []string
	dryRun        bool
	rootNamespace string
	showDiff      bool
	verify        bool
	indexOut      string

	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "renamespacer",
	Short: "Move the files of a C++ project into per-file namespaces",
	Long: `renamespacer rewrites a C++ project so that the declarations of every file
live in a namespace named after the file, nested in a namespace named after the
project. Using-declarations in the project and in its clients are rewritten to
refer to the new namespaces.

By default the rewritten files are staged next to the originals (file.hpp.new)
and the originals are left alone. Pass --dry-run=false to replace them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Logs go to stderr, stdout is reserved for output and JSON-RPC
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Renamespace a project and fix its clients",
	Args:  cobra.NoArgs,
	RunE:  runRenamespace,
}

var treeCmd = &cobra.Command{
	Use:   "tree FILE",
	Short: "Print the namespace tree of a C++ file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTree,
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Print the declaration index of a project as JSONL",
	Args:  cobra.NoArgs,
	RunE:  runIndex,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the renamespacer over MCP on stdio",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "renamespacer.yaml", "Configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	runCmd.Flags().StringVarP(&project, "project", "p", "", "Directory of the project to renamespace")
	runCmd.Flags().StringArrayVar(&clients, "client", nil, "Directory of a project using it (repeatable)")
	runCmd.Flags().StringArrayVar(&exclude, "exclude", nil, "File name to leave alone (repeatable)")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", true, "Stage the rewritten files without replacing the originals")
	runCmd.Flags().StringVar(&rootNamespace, "root-namespace", "", "Namespace enclosing all projects")
	runCmd.Flags().BoolVar(&showDiff, "diff", false, "Print a unified diff of every changed file")
	runCmd.Flags().BoolVar(&verify, "verify", false, "Check tree invariants after every pass")
	runCmd.Flags().StringVar(&indexOut, "index-out", "", "Write the declaration index as JSONL")

	indexCmd.Flags().StringVarP(&project, "project", "p", "", "Directory of the project to index")

	rootCmd.AddCommand(runCmd, treeCmd, indexCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration file, falling back to defaults when it
// cannot be read.
func loadConfig() *config.Config {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("using default configuration", zap.Error(err))
		cfg = config.Default()
	}
	return cfg
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
