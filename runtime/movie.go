package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quackster/libreshockwave/builtins"
	"github.com/quackster/libreshockwave/castlib"
	"github.com/quackster/libreshockwave/chunks"
	"github.com/quackster/libreshockwave/dispatcher"
	"github.com/quackster/libreshockwave/dispatcher/score"
	"github.com/quackster/libreshockwave/timeout"
	"github.com/quackster/libreshockwave/trace"
	"github.com/quackster/libreshockwave/vm"
)

// CastLibProvider is the host's narrow view of the cast-library manager
// (spec.md §6): the lookups a presenter or debugger needs without
// reaching into castlib's internals directly.
type CastLibProvider interface {
	CastLibByNumber(number uint16) (*castlib.CastLib, bool)
	Member(castLib, number uint16) (chunks.CastMember, bool)
}

// Movie is the control surface a host embeds: load once, then
// play/pause/resume/stop, step a single frame, jump to a frame, or
// change tempo. It owns the wiring between the cast manager, the VM,
// the frame dispatcher, the timeout manager, and the built-in registry
// — the pieces spec.md §4 keeps as independently testable packages are
// assembled here into one movie-shaped whole, the way the teacher's
// cmd/barn/main.go assembles its db store, VM, and scheduler behind one
// process.
type Movie struct {
	cfg *Config

	Manager    *castlib.Manager
	VM         *vm.VM
	Dispatcher *dispatcher.Dispatcher
	Score      *score.Score
	Timeouts   *timeout.Manager
	Registry   *builtins.Registry
	Props      *builtins.MovieProperties

	presenter dispatcher.Presenter

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds an unloaded Movie. fetcher may be nil for movies with no
// external casts; presenter may be nil to discard frame snapshots
// (useful for headless conformance runs); listeners are attached to the
// VM's trace hook before any code runs.
func New(cfg *Config, fetcher castlib.Fetcher, presenter dispatcher.Presenter, listeners ...vm.TraceListener) *Movie {
	if cfg == nil {
		cfg = Default()
	}

	manager := castlib.NewManager(fetcher)
	registry := builtins.NewRegistry(nil, nil, netFetcherOf(fetcher))

	vmInst := vm.NewVM(manager, registry, nil)
	vmInst.StepLimit = cfg.StepLimit
	vmInst.UnknownOpcodeTolerance = cfg.UnknownOpcodeTolerance

	props := builtins.NewMovieProperties(vmInst)
	vmInst.Props = props

	sc := score.New(nil, nil, 0)
	disp := dispatcher.New(vmInst, sc, presenter)
	registry.Score = disp

	timeouts := timeout.NewManager(vmInst)
	registry.Timeouts = timeouts

	if len(listeners) == 1 {
		vmInst.Trace = listeners[0]
	} else if len(listeners) > 1 {
		vmInst.Trace = trace.Multi(listeners)
	}

	return &Movie{
		cfg:        cfg,
		Manager:    manager,
		VM:         vmInst,
		Dispatcher: disp,
		Score:      sc,
		Timeouts:   timeouts,
		Registry:   registry,
		Props:      props,
		presenter:  presenter,
	}
}

// netFetcherOf adapts a castlib.Fetcher to builtins.NetFetcher — the two
// interfaces have the identical shape by design (spec.md §6's single
// fetcher collaborator backs both the cast-loading path and
// preloadNetThing), so a nil Fetcher becomes a nil NetFetcher rather
// than a typed-nil interface value.
func netFetcherOf(f castlib.Fetcher) builtins.NetFetcher {
	if f == nil {
		return nil
	}
	return f
}

// Load parses data as a movie container, installs its cast libraries,
// and rebuilds the frame dispatcher's score/label/tempo state from the
// movie's own Score/Frame-Labels/Config chunks. It does not start the
// tick loop — call Play for that.
func (m *Movie) Load(data []byte) error {
	parsed, err := castlib.ParseCastBundle(data)
	if err != nil {
		return fmt.Errorf("parse movie: %w", err)
	}
	if _, err := m.Manager.LoadMovie(data); err != nil {
		return fmt.Errorf("load movie: %w", err)
	}

	channels := make([]score.Channel, 0, len(parsed.Score.Channels))
	for _, ch := range parsed.Score.Channels {
		for _, iv := range ch.Intervals {
			channels = append(channels, score.Channel{
				Number:     int32(ch.Channel),
				StartFrame: int32(iv.StartFrame),
				EndFrame:   int32(iv.EndFrame),
			})
		}
	}
	labels := make(map[string]int32, len(parsed.FrameLabels.Labels))
	for _, l := range parsed.FrameLabels.Labels {
		labels[l.Label] = int32(l.FrameNumber)
	}
	m.Score = score.New(channels, labels, int32(parsed.Score.FrameCount))
	m.Dispatcher = dispatcher.New(m.VM, m.Score, m.presenter)
	m.Registry.Score = m.Dispatcher

	tempo := parsed.Config.Tempo
	if tempo <= 0 {
		tempo = m.cfg.DefaultTempo
	}
	m.Score.SetTempo(tempo)

	m.Props.SetStageBounds(0, 0, parsed.Config.StageWidth, parsed.Config.StageHeight)
	return nil
}

// PreloadAllExternals kicks off fetch/parse/install for every external
// cast marked to preload in the movie's cast list, returning the count
// of casts it started (spec.md §4.3 "preload_all_externals").
func (m *Movie) PreloadAllExternals(ctx context.Context) int {
	return m.Manager.PreloadAllExternals(ctx)
}

// PreloadAndWait fetches and installs the named cast libraries
// synchronously, ignoring their own preload setting.
func (m *Movie) PreloadAndWait(ctx context.Context, numbers []uint16) error {
	return m.Manager.PreloadAndWait(ctx, numbers)
}

// Play fires prepareMovie then startMovie once, then starts the tick
// loop at the score's current tempo. Calling Play while already running
// is a no-op.
func (m *Movie) Play() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.mu.Unlock()

	m.VM.CallMovieHandler("prepareMovie", nil)
	m.VM.CallMovieHandler("startMovie", nil)

	m.wg.Add(1)
	go m.runLoop(ctx)
}

// runLoop drives the tick loop until ctx is canceled, re-reading the
// score's tempo every cycle so puppetTempo calls made from script code
// take effect on the very next tick.
func (m *Movie) runLoop(ctx context.Context) {
	defer m.wg.Done()
	for {
		tempo := m.Score.Tempo()
		if tempo <= 0 {
			tempo = 1
		}
		period := time.Second / time.Duration(tempo)

		select {
		case <-ctx.Done():
			return
		case <-time.After(period):
			m.Dispatcher.Tick()
			m.Timeouts.Tick()
		}
	}
}

// Pause stops the tick loop without firing stopMovie, so Resume can
// continue from the same frame.
func (m *Movie) Pause() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

// Resume restarts the tick loop after a Pause, without re-firing
// prepareMovie/startMovie.
func (m *Movie) Resume() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go m.runLoop(ctx)
}

// Stop halts the tick loop and fires stopMovie once.
func (m *Movie) Stop() {
	m.Pause()
	m.VM.CallMovieHandler("stopMovie", nil)
}

// StepFrame executes exactly one Tick, for a paused movie driven frame-
// by-frame (e.g. from a debugger or a conformance test).
func (m *Movie) StepFrame() {
	m.Dispatcher.Tick()
	m.Timeouts.Tick()
}

// GoToFrame implements `go to frame n` from outside script code.
func (m *Movie) GoToFrame(frame int32) {
	m.Dispatcher.GoToFrame(frame)
}

// SetTempo implements `puppetTempo` from outside script code.
func (m *Movie) SetTempo(t int32) {
	m.Score.SetTempo(t)
}

// IsRunning reports whether the tick loop is currently active.
func (m *Movie) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
