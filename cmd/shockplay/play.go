package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quackster/libreshockwave/runtime"
	"github.com/quackster/libreshockwave/trace"
	"github.com/quackster/libreshockwave/trace/debugserver"
	"github.com/quackster/libreshockwave/vm"
)

var (
	traceEnabled bool
	traceFilter  string
	debugListen  string
	baseURL      string
	localRoots   []string
)

var playCmd = &cobra.Command{
	Use:   "play [movie]",
	Short: "Load a movie and run its tick loop until interrupted",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&traceEnabled, "trace", false, "log every handler enter/exit and instruction")
	playCmd.Flags().StringVar(&traceFilter, "trace-filter", "", "comma-separated glob patterns restricting --trace to matching handler names")
	playCmd.Flags().StringVar(&debugListen, "debug-listen", "", "address to serve the remote debugger protocol on (e.g. :7778); empty disables it")
	playCmd.Flags().StringVar(&baseURL, "base-url", "", "base URL external casts are fetched relative to")
	playCmd.Flags().StringArrayVar(&localRoots, "local-root", nil, "prefix=dir mapping an external-cast URL prefix to a local filesystem directory; repeatable")
}

func runPlay(cmd *cobra.Command, args []string) error {
	path, err := requireMovieArg(cmd, args)
	if err != nil {
		return err
	}

	cfg, err := runtime.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if traceEnabled {
		cfg.TraceEnabled = true
	}
	if traceFilter != "" {
		cfg.TraceFilters = strings.Split(traceFilter, ",")
		for i := range cfg.TraceFilters {
			cfg.TraceFilters[i] = strings.TrimSpace(cfg.TraceFilters[i])
		}
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()
	sugar := log.Sugar()

	fetcher := runtime.NewHTTPFetcher(cfg.BaseURL, time.Duration(cfg.FetchTimeoutSeconds)*time.Second)
	for _, mapping := range localRoots {
		prefix, dir, ok := strings.Cut(mapping, "=")
		if !ok {
			return fmt.Errorf("--local-root %q must be prefix=dir", mapping)
		}
		fetcher.MapRoot(prefix, dir)
	}

	var listeners []vm.TraceListener
	if cfg.TraceEnabled {
		listeners = append(listeners, trace.NewTracer(log, cfg.TraceFilters...))
	}

	m := runtime.New(cfg, fetcher, nil, listeners...)

	var debugSrv *http.Server
	if debugListen != "" {
		ctrl := trace.NewDebugController(m.VM)
		m.VM.Trace = appendListener(m.VM.Trace, ctrl)
		srv := debugserver.New(ctrl, log)
		debugSrv = &http.Server{Addr: debugListen, Handler: srv}
		go func() {
			sugar.Infow("debug server listening", "addr", debugListen)
			if err := debugSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				sugar.Errorw("debug server stopped", "error", err)
			}
		}()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read movie: %w", err)
	}
	if err := m.Load(data); err != nil {
		return fmt.Errorf("load movie: %w", err)
	}

	ctx := context.Background()
	started := m.PreloadAllExternals(ctx)
	sugar.Infow("movie loaded", "path", path, "tempo", m.Score.Tempo(), "frames", m.Score.FrameCount(), "externals_preloading", started)

	m.Play()
	defer m.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	sugar.Info("shutting down")
	if debugSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = debugSrv.Shutdown(shutdownCtx)
	}
	return nil
}

// appendListener folds an additional listener into whatever v.Trace
// currently holds, so --trace and --debug-listen can be combined without
// either clobbering the other's hook.
func appendListener(existing vm.TraceListener, add vm.TraceListener) vm.TraceListener {
	if existing == nil {
		return add
	}
	if m, ok := existing.(trace.Multi); ok {
		return append(m, add)
	}
	return trace.Multi{existing, add}
}
