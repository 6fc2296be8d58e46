package scripting

import (
	"fmt"
	"os"
	"sync"

	"github.com/itsmostafa/kvscript/internal/command"
	"github.com/itsmostafa/kvscript/internal/logging"
)

// Dispatcher resolves and runs store commands.
type Dispatcher interface {
	Lookup(name string) (*command.Descriptor, bool)
	Dispatch(c command.Client, d *command.Descriptor)
}

// KeyReader reads string values for scripts stored under a key.
type KeyReader interface {
	GetString(key string) (string, error)
}

// State is the lifecycle state of the current (or last) script run.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSyntaxError
	StateLoaded
	StateRunning
	StateRuntimeError
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateSyntaxError:
		return "syntax error"
	case StateLoaded:
		return "loaded"
	case StateRunning:
		return "running"
	case StateRuntimeError:
		return "runtime error"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Stats accounts for the work a host has done.
type Stats struct {
	Runs       int
	Failures   int
	Calls      int
	ArgBytes   int
	ReplyBytes int
	Returned   int
	Skipped    int
}

// Host owns the embedded interpreter and the synthetic execution context.
// Build one per process with NewHost, call Initialize once, and share it.
type Host struct {
	cfg        Config
	dispatcher Dispatcher
	keys       KeyReader
	logger     logging.Logger
	onFatal    func(error)

	// runMu serializes script runs; the interpreter and the execution
	// context are not safe for concurrent use.
	runMu       sync.Mutex
	initialized bool
	eng         engine
	ctx         *execContext
	runCalls    int

	mu    sync.Mutex
	state State
	stats Stats
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger (default: discard).
func WithLogger(l logging.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithKeyReader enables RunKey.
func WithKeyReader(kr KeyReader) Option {
	return func(h *Host) { h.keys = kr }
}

// WithFatalHandler replaces the handler invoked on unrecoverable interpreter
// errors. The default prints the error and exits the process.
func WithFatalHandler(fn func(error)) Option {
	return func(h *Host) {
		if fn != nil {
			h.onFatal = fn
		}
	}
}

// NewHost creates a host that dispatches commands through d.
func NewHost(cfg Config, d Dispatcher, opts ...Option) *Host {
	h := &Host{
		cfg:        cfg,
		dispatcher: d,
		logger:     logging.NoOpLogger{},
		onFatal:    exitOnFatal,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func exitOnFatal(err error) {
	fmt.Fprintf(os.Stderr, "PANIC: %v\n", err)
	os.Exit(1)
}

// Initialize creates the interpreter and registers the command bridge.
// It may only be called once.
func (h *Host) Initialize() error {
	h.runMu.Lock()
	defer h.runMu.Unlock()

	if h.initialized {
		return ErrAlreadyInitialized
	}
	eng, err := newEngine(h.cfg)
	if err != nil {
		return err
	}
	if err := eng.open(h.call, hooks{fatal: h.fatal, skip: h.skipReturn}); err != nil {
		return fmt.Errorf("failed to open %s interpreter: %w", h.cfg.Engine, err)
	}

	h.eng = eng
	h.ctx = newExecContext()
	h.initialized = true
	h.logger.Debug("scripting host initialized", "engine", string(h.cfg.Engine))
	return nil
}

// Close releases the interpreter.
func (h *Host) Close() {
	h.runMu.Lock()
	defer h.runMu.Unlock()
	if h.eng != nil {
		h.eng.close()
		h.eng = nil
	}
}

// Engine returns the configured engine.
func (h *Host) Engine() Engine { return h.cfg.Engine }

// State returns the state of the current or last run.
func (h *Host) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Host) setState(s State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

// Stats returns a copy of the accounting counters.
func (h *Host) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// Snapshot reports the execution context. It takes no lock and is meant for
// use between runs or from the goroutine running the script.
func (h *Host) Snapshot() ContextSnapshot {
	if h.ctx == nil {
		return ContextSnapshot{}
	}
	return h.ctx.snapshot()
}

// skipReturn accounts for a value a script returned that has no text form.
func (h *Host) skipReturn(kind string) {
	h.logger.Warn("skipping returned value the host cannot represent", "engine", string(h.cfg.Engine), "kind", kind)
	h.mu.Lock()
	h.stats.Skipped++
	h.mu.Unlock()
}

// fatal reports an error the interpreter cannot recover from.
func (h *Host) fatal(err error) {
	h.logger.Error("unrecoverable interpreter error", "engine", string(h.cfg.Engine), "error", err)
	h.onFatal(err)
}
