package scripting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/itsmostafa/kvscript/internal/command"
	"github.com/itsmostafa/kvscript/internal/store"
)

// Run loads and executes source and returns exactly one Result. Store
// effects made before a runtime error are kept.
func (h *Host) Run(ctx context.Context, source string) Result {
	h.runMu.Lock()
	defer h.runMu.Unlock()

	start := time.Now()
	runID := uuid.NewString()
	h.runCalls = 0
	h.logger.Debug("script run started", "run_id", runID, "engine", string(h.cfg.Engine), "bytes", len(source))

	res := h.run(ctx, source)
	res.RunID = runID
	res.Commands = h.runCalls
	res.Duration = time.Since(start)

	h.mu.Lock()
	h.stats.Runs++
	if !res.OK() {
		h.stats.Failures++
	}
	h.mu.Unlock()

	h.logger.Debug("script run finished",
		"run_id", runID,
		"class", res.Class.String(),
		"commands", res.Commands,
		"duration", res.Duration,
	)
	return res
}

func (h *Host) run(ctx context.Context, source string) Result {
	if !h.initialized || h.eng == nil {
		return failure(ClassRuntimeError, runtimePrefix+ErrNotInitialized.Error())
	}

	h.setState(StateLoading)
	if h.cfg.MaxScriptBytes > 0 && len(source) > h.cfg.MaxScriptBytes {
		h.setState(StateSyntaxError)
		return failure(ClassOutOfMemory, oomPayload)
	}
	exec, err := h.eng.compile(source)
	if err != nil {
		// a failed load lands in the syntax error state whatever the cause
		h.setState(StateSyntaxError)
		if errors.Is(err, ErrOutOfMemory) {
			return failure(ClassOutOfMemory, oomPayload)
		}
		return failure(ClassSyntaxError, "ERR "+err.Error())
	}
	h.setState(StateLoaded)

	h.setState(StateRunning)
	values, err := h.exec(ctx, exec)
	if err != nil {
		h.setState(StateRuntimeError)
		if errors.Is(err, ErrOutOfMemory) {
			return failure(ClassOutOfMemory, oomPayload)
		}
		h.logger.Info("script raised an error", "error", err)
		return failure(ClassRuntimeError, runtimePrefix+err.Error())
	}
	h.setState(StateCompleted)
	return success(values)
}

// exec runs a compiled script. Panics that escape the interpreter are not
// script errors; they go to the fatal handler.
func (h *Host) exec(ctx context.Context, run runFunc) (values []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			perr := fmt.Errorf("interpreter panic: %v", r)
			h.fatal(perr)
			values, err = nil, &runtimeError{msg: perr.Error()}
		}
	}()
	return run(ctx)
}

// RunKey runs the script stored as a string under key.
func (h *Host) RunKey(ctx context.Context, key string) Result {
	if h.keys == nil {
		return failure(ClassRuntimeError, runtimePrefix+"no key reader configured")
	}
	source, err := h.keys.GetString(key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.logger.Debug("script key not found", "key", key)
		return h.keyFailure(ClassKeyNotFound, command.NilText)
	case errors.Is(err, store.ErrWrongType):
		return h.keyFailure(ClassWrongType, command.MsgWrongType)
	case err != nil:
		return h.keyFailure(ClassRuntimeError, runtimePrefix+err.Error())
	}
	return h.Run(ctx, source)
}

func (h *Host) keyFailure(class Class, payload string) Result {
	res := failure(class, payload)
	res.RunID = uuid.NewString()
	h.mu.Lock()
	h.stats.Runs++
	h.stats.Failures++
	h.mu.Unlock()
	return res
}
