package scripting

import (
	"fmt"
	"time"

	"github.com/itsmostafa/kvscript/internal/command"
)

// Class classifies the outcome of a script run.
type Class int

const (
	ClassSuccess Class = iota
	ClassSyntaxError
	ClassOutOfMemory
	ClassRuntimeError
	ClassKeyNotFound
	ClassWrongType
)

func (c Class) String() string {
	switch c {
	case ClassSuccess:
		return "success"
	case ClassSyntaxError:
		return "syntax error"
	case ClassOutOfMemory:
		return "out of memory"
	case ClassRuntimeError:
		return "runtime error"
	case ClassKeyNotFound:
		return "key not found"
	case ClassWrongType:
		return "wrong type"
	default:
		return "unknown"
	}
}

// Reply payload prefixes and fixed texts.
const (
	runtimePrefix = "ERR script error: "
	oomPayload    = "ERR interpreter out of memory"
)

// Result is the single outcome of a script run.
type Result struct {
	// Class classifies the outcome
	Class Class

	// Payload is the first returned value on success, the error text otherwise
	Payload string

	// Values holds every value the script returned, in order
	Values []string

	// RunID identifies the run in logs
	RunID string

	// Commands is the number of bridge calls the script made
	Commands int

	// Duration is the wall time of the run
	Duration time.Duration
}

// OK reports whether the script completed.
func (r Result) OK() bool { return r.Class == ClassSuccess }

// Err returns nil on success and a *ScriptError otherwise.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &ScriptError{Class: r.Class, Msg: r.Payload}
}

// Reply maps the result onto a store reply, the form EVAL answers with.
func (r Result) Reply() command.Reply {
	switch r.Class {
	case ClassSuccess:
		switch len(r.Values) {
		case 0:
			return command.Nil()
		case 1:
			return command.Bulk(r.Values[0])
		default:
			return command.BulkStrings(r.Values)
		}
	case ClassKeyNotFound:
		return command.Nil()
	default:
		return command.Error(r.Payload)
	}
}

// ScriptError is the error form of a failed Result.
type ScriptError struct {
	Class Class
	Msg   string
}

func (e *ScriptError) Error() string { return fmt.Sprintf("%s: %s", e.Class, e.Msg) }

func success(values []string) Result {
	payload := command.NilText
	if len(values) > 0 {
		payload = values[0]
	}
	return Result{Class: ClassSuccess, Payload: payload, Values: values}
}

func failure(class Class, payload string) Result {
	return Result{Class: class, Payload: payload}
}
