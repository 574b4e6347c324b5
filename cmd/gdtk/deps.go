package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/termfx/gdtk/analyzer"
	"github.com/termfx/gdtk/core"
	"github.com/termfx/gdtk/internal/config"
)

func depsCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "deps [directory]",
		Short: "Print the script dependency graph",
		Long: `Analyzes the project and prints each script's dependencies: its
extends target and every preload/load with a statically known .gd
path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot(args)
			if err != nil {
				return err
			}
			cfg, err := config.Load(root)
			if err != nil {
				return err
			}

			project := analyzer.NewProject()
			processor := core.NewProcessor(project)
			scope := core.DefaultScope(root)
			scope.Exclude = append(scope.Exclude, cfg.Exclude...)

			acfg := analyzer.DefaultConfig()
			acfg.CheckScope = false
			acfg.CheckIndentation = false
			if _, err := processor.Lint(context.Background(), scope, acfg); err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}

			edges := project.Graph.Edges()
			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(edges)
			}
			paths := make([]string, 0, len(edges))
			for path := range edges {
				paths = append(paths, path)
			}
			sort.Strings(paths)
			for _, path := range paths {
				deps := edges[path]
				sort.Strings(deps)
				fmt.Println(path)
				for _, dep := range deps {
					fmt.Printf("  -> %s\n", dep)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the graph as JSON")
	return cmd
}
