package scripting

import (
	"context"
	"fmt"
)

// Names scripts use to reach the command bridge.
const (
	callName   = "redis_call"
	pcallName  = "redis_pcall"
	objectName = "redis"
)

// callFunc runs one store command for a script. With protected set, command
// errors come back as values instead of an error.
type callFunc func(args []string, protected bool) ([]string, error)

// runFunc executes a compiled script and returns its values as text.
type runFunc func(ctx context.Context) ([]string, error)

// hooks are the host callbacks an engine reports through.
type hooks struct {
	// fatal reports an error the interpreter cannot recover from
	fatal func(error)
	// skip reports a returned value the host cannot represent as text
	skip func(kind string)
}

// engine adapts one embedded interpreter to the host.
type engine interface {
	// open creates the interpreter and registers the bridge callables.
	open(call callFunc, hk hooks) error
	// compile loads src without running it. Load failures wrap ErrSyntax
	// or ErrOutOfMemory.
	compile(src string) (runFunc, error)
	close()
}

func newEngine(cfg Config) (engine, error) {
	switch cfg.Engine {
	case EngineLua, "":
		return &luaEngine{cfg: cfg}, nil
	case EngineJS:
		return &jsEngine{cfg: cfg}, nil
	case EngineTengo:
		return &tengoEngine{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("unknown engine: %q", cfg.Engine)
	}
}

func syntaxError(detail string) error {
	return fmt.Errorf("%w: %s", ErrSyntax, detail)
}
