package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dejo1307/renamespacer/internal/config"
	"github.com/dejo1307/renamespacer/internal/engine"
	"github.com/dejo1307/renamespacer/internal/parser"
	"github.com/dejo1307/renamespacer/internal/server"
)

// applyRunFlags overrides the configuration with the flags set on cmd.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("project") {
		cfg.Project = project
	}
	if flags.Changed("client") {
		cfg.Clients = clients
	}
	if flags.Changed("exclude") {
		cfg.Exclude = exclude
	}
	if flags.Changed("dry-run") {
		cfg.DryRun = dryRun
	}
	if flags.Changed("root-namespace") {
		cfg.RootNamespace = rootNamespace
	}
	if flags.Changed("diff") {
		cfg.Output.Diff = showDiff
	}
	if flags.Changed("verify") {
		cfg.Verify = verify
	}
	if flags.Changed("index-out") {
		cfg.Output.IndexPath = indexOut
	}
}

func runRenamespace(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg := loadConfig()
	applyRunFlags(cmd, cfg)

	eng, err := engine.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	report, err := eng.Run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, f := range report.Files {
		if f.Diff != "" {
			fmt.Fprint(out, f.Diff)
		}
	}
	fmt.Fprintf(out, "\nRenamespace complete:\n")
	fmt.Fprintf(out, "  Project:       %s\n", report.Project)
	fmt.Fprintf(out, "  Clients:       %d\n", len(report.Clients))
	fmt.Fprintf(out, "  Declarations:  %d\n", report.Declarations)
	fmt.Fprintf(out, "  Files:         %d\n", len(report.Files))
	fmt.Fprintf(out, "  Changed:       %d\n", report.ChangedCount())
	fmt.Fprintf(out, "  Dry run:       %t\n", report.DryRun)
	fmt.Fprintf(out, "  Duration:      %s\n", report.Duration)
	return nil
}

func runTree(cmd *cobra.Command, args []string) error {
	t, err := parser.ParseFile(args[0])
	if err != nil {
		return err
	}
	return t.Dump(cmd.OutOrStdout())
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg := loadConfig()
	if cmd.Flags().Changed("project") {
		cfg.Project = project
	}
	eng, err := engine.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	idx, err := eng.BuildIndex(ctx)
	if err != nil {
		return err
	}
	return idx.WriteJSONL(cmd.OutOrStdout())
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	srv, err := server.New(loadConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
		return err
	}
	return nil
}
