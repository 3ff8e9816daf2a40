// Command shockplay is the host binary around the runtime package: load a
// movie file, play it on a tempo clock, or inspect/debug it from the
// command line — grounded on the teacher's cmd/barn/main.go, which
// assembles the same db/server/trace wiring behind one flag set and a set
// of read-only inspection subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	movieArg string
)

var rootCmd = &cobra.Command{
	Use:   "shockplay",
	Short: "A legacy authoring-system movie player",
	Long:  `shockplay loads and drives chunked movie files through a stack-based bytecode VM.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is the platform config dir's shockplay.yaml)")
	rootCmd.PersistentFlags().StringVar(&movieArg, "movie", "", "path to the movie file to load")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func requireMovieArg(cmd *cobra.Command, args []string) (string, error) {
	if movieArg != "" {
		return movieArg, nil
	}
	if len(args) > 0 {
		return args[0], nil
	}
	return "", fmt.Errorf("movie path required: pass --movie or a positional argument")
}
