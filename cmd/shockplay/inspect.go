package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/quackster/libreshockwave/runtime"
)

var (
	inspectCastLib string
	inspectHandler string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [movie]",
	Short: "Load a movie without playing it and print its cast/score/handler layout",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().StringVar(&inspectCastLib, "cast-members", "", "list the members of a cast lib by number (e.g. 1)")
	inspectCmd.Flags().StringVar(&inspectHandler, "find-handler", "", "show where a handler name resolves across every installed cast")
}

func runInspect(cmd *cobra.Command, args []string) error {
	path, err := requireMovieArg(cmd, args)
	if err != nil {
		return err
	}

	cfg, err := runtime.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	m := runtime.New(cfg, nil, nil)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read movie: %w", err)
	}
	if err := m.Load(data); err != nil {
		return fmt.Errorf("load movie: %w", err)
	}

	bold := color.New(color.Bold)
	bold.Printf("=== %s ===\n", path)
	fmt.Printf("tempo:       %d\n", m.Score.Tempo())
	fmt.Printf("frame count: %d\n", m.Score.FrameCount())

	if inspectCastLib != "" {
		return dumpCastLib(m, inspectCastLib)
	}
	if inspectHandler != "" {
		return dumpHandlerLookup(m, inspectHandler)
	}
	return nil
}

func dumpCastLib(m *runtime.Movie, spec string) error {
	n, err := strconv.ParseUint(spec, 10, 16)
	if err != nil {
		return fmt.Errorf("invalid cast lib number %q: %w", spec, err)
	}
	lib, ok := m.Manager.CastLibByNumber(uint16(n))
	if !ok {
		return fmt.Errorf("cast lib %d not found", n)
	}

	bold := color.New(color.FgCyan, color.Bold)
	bold.Printf("\n=== Cast lib %d (%s) ===\n", lib.Number(), lib.Name())
	fmt.Printf("external: %v  state: %s\n", lib.IsExternal(), lib.State())

	scripts := lib.Scripts()
	names := lib.NameTable()
	sort.Slice(scripts, func(i, j int) bool { return scripts[i].ID < scripts[j].ID })
	for _, s := range scripts {
		fmt.Printf("  script #%d (%s)\n", s.ID, s.Kind)
		for _, h := range s.Handlers {
			name, _ := names.Name(h.NameID)
			fmt.Printf("    handler %-20s %d instructions\n", name, len(h.Instructions))
		}
	}
	return nil
}

func dumpHandlerLookup(m *runtime.Movie, name string) error {
	loc, ok := m.Manager.FindHandler(name)
	if !ok {
		fmt.Printf("handler %q not found in any installed cast\n", name)
		return nil
	}
	fmt.Printf("handler %q found: cast lib %d, script %d, %d instructions\n",
		name, loc.CastLib, loc.Script, len(loc.Handler.Instructions))
	return nil
}
