package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/termfx/gdtk/analyzer"
	"github.com/termfx/gdtk/core"
	"github.com/termfx/gdtk/db"
	"github.com/termfx/gdtk/internal/config"
)

func lintCmd() *cobra.Command {
	var (
		jsonOut       bool
		failOnWarning bool
		failOnHint    bool
		checkArgTypes bool
		noCache       bool
		exclude       []string
	)
	cmd := &cobra.Command{
		Use:   "lint [directory]",
		Short: "Analyze every .gd file and report diagnostics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot(args)
			if err != nil {
				return err
			}
			cfg, err := config.Load(root)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("fail-on-warning") {
				cfg.FailOnWarning = failOnWarning
			}
			if cmd.Flags().Changed("fail-on-hint") {
				cfg.FailOnHint = failOnHint
			}
			if checkArgTypes {
				cfg.CheckArgumentTypes = true
			}

			project := analyzer.NewProject()

			// The persisted cache is best-effort: a broken cache file
			// never blocks a lint run.
			var persist func(*analyzer.Report)
			if !noCache {
				dsn := cfg.CacheDSN
				if dsn == "" {
					dsn = config.DefaultCacheDSN(root)
				}
				if gdb, err := db.Connect(dsn, cfg.Debug); err == nil {
					if err := analyzer.LoadState(gdb, root, project); err != nil && cfg.Debug {
						fmt.Fprintf(os.Stderr, "cache load: %v\n", err)
					}
					persist = func(report *analyzer.Report) {
						if err := analyzer.SaveState(gdb, root, project, report); err != nil && cfg.Debug {
							fmt.Fprintf(os.Stderr, "cache save: %v\n", err)
						}
					}
				} else if cfg.Debug {
					fmt.Fprintf(os.Stderr, "cache open: %v\n", err)
				}
			}

			scope := core.DefaultScope(root)
			if len(exclude) > 0 {
				scope.Exclude = append(scope.Exclude, exclude...)
			}
			scope.Exclude = append(scope.Exclude, cfg.Exclude...)

			acfg := analyzer.DefaultConfig()
			if cfg.MaxParallelism > 0 {
				acfg.MaxParallelism = cfg.MaxParallelism
			}
			acfg.FileTimeout = cfg.FileTimeout
			acfg.CheckIndentation = cfg.CheckIndentation
			acfg.CheckScope = cfg.CheckScope
			acfg.CheckArgumentTypes = cfg.CheckArgumentTypes

			processor := core.NewProcessor(project)
			report, err := processor.Lint(context.Background(), scope, acfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}
			if persist != nil {
				persist(report)
			}

			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printReport(report)
			}

			errs, warns, hints := report.Counts()
			switch {
			case errs > 0:
				os.Exit(1)
			case cfg.FailOnWarning && warns > 0:
				os.Exit(1)
			case cfg.FailOnHint && hints > 0:
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the report as JSON")
	cmd.Flags().BoolVar(&failOnWarning, "fail-on-warning", false, "Exit non-zero on warnings")
	cmd.Flags().BoolVar(&failOnHint, "fail-on-hint", false, "Exit non-zero on hints")
	cmd.Flags().BoolVar(&checkArgTypes, "check-argument-types", false, "Enable the argument-type pass")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip the persisted cache")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Additional exclude globs")
	return cmd
}

// printReport renders the human-readable diagnostic stream.
func printReport(report *analyzer.Report) {
	for _, file := range report.Files {
		for _, d := range file.Diagnostics {
			fmt.Printf("%s:%d:%d: %s %s: %s\n",
				file.Path, d.StartLine, d.StartColumn, d.Severity, d.Code, d.Message)
		}
	}
	for _, path := range report.TimedOut {
		fmt.Fprintf(os.Stderr, "%s: analysis timed out\n", path)
	}
	for _, path := range report.Failed {
		fmt.Fprintf(os.Stderr, "%s: analysis failed\n", path)
	}
	errs, warns, hints := report.Counts()
	fmt.Printf("%d file(s), %d error(s), %d warning(s), %d hint(s), %d from cache\n",
		len(report.Files), errs, warns, hints, report.FromCache)
}
