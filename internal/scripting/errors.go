package scripting

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyInitialized is returned by a second Host.Initialize.
	ErrAlreadyInitialized = errors.New("scripting: host already initialized")
	// ErrNotInitialized is reported when running on a host that was never initialized.
	ErrNotInitialized = errors.New("scripting: host not initialized")
	// ErrContextBusy reports a bridge call while another one is in flight.
	ErrContextBusy = errors.New("scripting: execution context already in use")
	// ErrContextDirty reports leftover arguments or replies from a previous call.
	ErrContextDirty = errors.New("scripting: execution context not cleared")
	// ErrSyntax wraps compile failures.
	ErrSyntax = errors.New("bad script syntax")
	// ErrOutOfMemory reports a script that does not fit the memory budget.
	ErrOutOfMemory = errors.New("interpreter out of memory")
)

// CallErrorKind classifies a failed bridge call.
type CallErrorKind int

const (
	// UnknownCommand means no descriptor matched the command name.
	UnknownCommand CallErrorKind = iota
	// WrongArity means the argument count did not match the descriptor.
	WrongArity
	// NotAllowed means the command may not run from a script.
	NotAllowed
	// BadArgument means an argument could not be marshalled.
	BadArgument
	// CommandError means the command itself replied with an error.
	CommandError
)

func (k CallErrorKind) String() string {
	switch k {
	case UnknownCommand:
		return "unknown command"
	case WrongArity:
		return "wrong arity"
	case NotAllowed:
		return "not allowed"
	case BadArgument:
		return "bad argument"
	case CommandError:
		return "command error"
	default:
		return "unknown"
	}
}

// CallError is returned by the command bridge. Engines raise it as a
// script-level error the script may catch.
type CallError struct {
	Kind    CallErrorKind
	Command string
	Msg     string
}

func (e *CallError) Error() string { return e.Msg }

// Is matches another *CallError of the same kind, so callers can write
// errors.Is(err, &CallError{Kind: WrongArity}).
func (e *CallError) Is(target error) bool {
	t, ok := target.(*CallError)
	return ok && t.Kind == e.Kind
}

func unknownCommand(name string) *CallError {
	return &CallError{Kind: UnknownCommand, Command: name, Msg: fmt.Sprintf("unknown command '%s'", name)}
}

func wrongArity(name string) *CallError {
	return &CallError{Kind: WrongArity, Command: name, Msg: "incorrect number of arguments"}
}

func notAllowed(name string) *CallError {
	return &CallError{Kind: NotAllowed, Command: name, Msg: fmt.Sprintf("command '%s' is not allowed from scripts", name)}
}

func badArgument(msg string) *CallError {
	return &CallError{Kind: BadArgument, Msg: msg}
}

// errArgumentType is raised when a script passes a value that is neither a
// string nor a number.
var errArgumentType = badArgument("command arguments must be strings or numbers")

// runtimeError carries the text of an error raised while a script ran.
type runtimeError struct {
	msg string
}

func (e *runtimeError) Error() string { return e.msg }
