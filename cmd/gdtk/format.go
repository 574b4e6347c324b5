package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/termfx/gdtk/analyzer"
	"github.com/termfx/gdtk/core"
	"github.com/termfx/gdtk/format"
	"github.com/termfx/gdtk/internal/config"
	"github.com/termfx/gdtk/lexis"
)

func formatCmd() *cobra.Command {
	var (
		check       bool
		indentStyle string
		indentSize  int
		lineEnding  string
		exclude     []string
	)
	cmd := &cobra.Command{
		Use:   "format [directory]",
		Short: "Rewrite .gd files with the formatting pipeline",
		Long: `Formats every script under the directory. With --check nothing is
written; changed files are listed with unified diffs and the exit code
reports whether anything would change.`,
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
			if !cmd.Flags().Changed("indent-style") {
				indentStyle = cfg.IndentStyle
			}
			if !cmd.Flags().Changed("indent-size") && cfg.IndentSize > 0 {
				indentSize = cfg.IndentSize
			}
			if !cmd.Flags().Changed("line-ending") {
				lineEnding = cfg.LineEnding
			}

			opts := format.DefaultOptions()
			switch indentStyle {
			case "spaces":
				opts.IndentStyle = lexis.IndentSpaces
			case "tabs", "":
				opts.IndentStyle = lexis.IndentTabs
			default:
				return fmt.Errorf("invalid indent style %q (tabs or spaces)", indentStyle)
			}
			if indentSize > 0 {
				opts.IndentSize = indentSize
			}
			switch lineEnding {
			case "crlf":
				opts.LineEnding = format.LineEndingCRLF
			case "platform":
				opts.LineEnding = format.LineEndingPlatform
			case "lf", "":
				opts.LineEnding = format.LineEndingLF
			default:
				return fmt.Errorf("invalid line ending %q (lf, crlf or platform)", lineEnding)
			}

			scope := core.DefaultScope(root)
			scope.Exclude = append(scope.Exclude, exclude...)
			scope.Exclude = append(scope.Exclude, cfg.Exclude...)

			processor := core.NewProcessor(analyzer.NewProject())
			result, err := processor.Format(context.Background(), scope, opts, !check)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}

			for _, change := range result.Changes {
				if check {
					fmt.Println(change.Diff)
				} else {
					fmt.Printf("formatted %s\n", change.Path)
				}
			}
			fmt.Printf("%d file(s) checked, %d changed\n", result.Checked, len(result.Changes))
			if check && len(result.Changes) > 0 {
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Report diffs without writing")
	cmd.Flags().StringVar(&indentStyle, "indent-style", "tabs", "Indentation style: tabs or spaces")
	cmd.Flags().IntVar(&indentSize, "indent-size", 4, "Spaces per level in spaces mode")
	cmd.Flags().StringVar(&lineEnding, "line-ending", "lf", "Line endings: lf, crlf or platform")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Additional exclude globs")
	return cmd
}
