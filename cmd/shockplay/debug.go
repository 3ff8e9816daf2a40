package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/quackster/libreshockwave/runtime"
	"github.com/quackster/libreshockwave/trace"
)

var debugCmd = &cobra.Command{
	Use:   "debug [movie]",
	Short: "Load a movie and step it under an interactive breakpoint/watch REPL",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDebug,
}

func runDebug(cmd *cobra.Command, args []string) error {
	path, err := requireMovieArg(cmd, args)
	if err != nil {
		return err
	}

	cfg, err := runtime.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	m := runtime.New(cfg, nil, nil)
	ctrl := trace.NewDebugController(m.VM)
	m.VM.Trace = ctrl

	prompt := color.New(color.FgGreen, color.Bold).Sprint("(shockplay) ")
	rl, err := readline.New(prompt)
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	ctrl.OnPause = func(ev trace.PauseEvent) {
		fmt.Fprintf(rl.Stdout(), "\npaused: %s at script %d offset %d (handler %s)\n",
			ev.Reason, ev.ScriptID, ev.Offset, ev.Frame.HandlerName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read movie: %w", err)
	}
	if err := m.Load(data); err != nil {
		return fmt.Errorf("load movie: %w", err)
	}

	fmt.Fprintf(rl.Stdout(), "loaded %s (tempo %d, %d frames). Type 'help' for commands.\n", path, m.Score.Tempo(), m.Score.FrameCount())

	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			return nil
		}
		if err != nil {
			return err
		}
		if err := dispatchDebugCommand(m, ctrl, rl, strings.TrimSpace(line)); err != nil {
			fmt.Fprintf(rl.Stdout(), "error: %v\n", err)
		}
	}
}

func dispatchDebugCommand(m *runtime.Movie, ctrl *trace.DebugController, rl *readline.Instance, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	out := rl.Stdout()

	switch fields[0] {
	case "help":
		fmt.Fprintln(out, "break <scriptID> <offset> [cond]   set a breakpoint")
		fmt.Fprintln(out, "clear <scriptID> <offset>          clear a breakpoint")
		fmt.Fprintln(out, "list                               list breakpoints")
		fmt.Fprintln(out, "watch <expr>                       evaluate a watch expression (global:x, local:N, arg:N, prop:x)")
		fmt.Fprintln(out, "resume | step-in | step-over | step-out")
		fmt.Fprintln(out, "tick                               advance one frame")
		fmt.Fprintln(out, "goto <frame>                       jump to a frame")
		fmt.Fprintln(out, "play | stop                        start/stop the tick loop")
		fmt.Fprintln(out, "quit")
	case "break":
		if len(fields) < 3 {
			return fmt.Errorf("usage: break <scriptID> <offset> [cond]")
		}
		scriptID, offset, err := parseLocation(fields[1], fields[2])
		if err != nil {
			return err
		}
		cond := ""
		if len(fields) > 3 {
			cond = strings.Join(fields[3:], " ")
		}
		ctrl.SetBreakpoint(trace.Breakpoint{ScriptID: scriptID, Offset: offset, Condition: cond})
	case "clear":
		if len(fields) < 3 {
			return fmt.Errorf("usage: clear <scriptID> <offset>")
		}
		scriptID, offset, err := parseLocation(fields[1], fields[2])
		if err != nil {
			return err
		}
		ctrl.ClearBreakpoint(scriptID, offset)
	case "list":
		for _, bp := range ctrl.Breakpoints() {
			fmt.Fprintf(out, "  script %d offset %d cond=%q logpoint=%v\n", bp.ScriptID, bp.Offset, bp.Condition, bp.LogPoint)
		}
	case "watch":
		if len(fields) < 2 {
			return fmt.Errorf("usage: watch <expr>")
		}
		fmt.Fprintln(out, ctrl.EvalWatch(fields[1]).String())
	case "resume":
		ctrl.Resume()
	case "step-in":
		ctrl.StepIn()
	case "step-over":
		ctrl.StepOver()
	case "step-out":
		ctrl.StepOut()
	case "tick":
		m.StepFrame()
		fmt.Fprintf(out, "frame %d\n", m.Dispatcher.CurrentFrame())
	case "goto":
		if len(fields) < 2 {
			return fmt.Errorf("usage: goto <frame>")
		}
		frame, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("invalid frame %q: %w", fields[1], err)
		}
		m.GoToFrame(int32(frame))
	case "play":
		m.Play()
	case "stop":
		m.Stop()
	case "quit", "exit":
		m.Stop()
		os.Exit(0)
	default:
		return fmt.Errorf("unknown command %q (try 'help')", fields[0])
	}
	return nil
}

func parseLocation(scriptArg, offsetArg string) (uint32, uint32, error) {
	scriptID, err := strconv.ParseUint(scriptArg, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid script id %q: %w", scriptArg, err)
	}
	offset, err := strconv.ParseUint(offsetArg, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid offset %q: %w", offsetArg, err)
	}
	return uint32(scriptID), uint32(offset), nil
}
