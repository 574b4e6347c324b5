// Command gdtk is the GDScript toolkit CLI: lint, format and
// dependency inspection over a project directory.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gdtk",
	Short: "GDScript source toolkit",
	Long: `gdtk parses, validates and formats GDScript projects.

The parser is lossless: every byte of every script survives the round
trip, so formatting only ever changes what it intends to.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// A .env in the working directory can supply GDTK_* variables.
	_ = godotenv.Load()

	rootCmd.AddCommand(lintCmd())
	rootCmd.AddCommand(formatCmd())
	rootCmd.AddCommand(depsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveRoot normalizes the positional project directory argument.
func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	abs, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("cannot access %s: %w", root, err)
	}
	if !abs.IsDir() {
		return "", fmt.Errorf("%s is not a directory", root)
	}
	return root, nil
}
