// Package scripting runs user scripts inside an embedded interpreter and lets
// them call the store's command set through a synthetic client.
//
// A Host owns one interpreter and one execution context for its lifetime.
// Scripts call redis_call(name, args...) (or redis.call / redis_pcall) to run
// a command; the replies come back as interpreter values and the script's
// return value becomes a single Result.
package scripting

import "fmt"

// Engine names an embedded interpreter.
type Engine string

const (
	// EngineLua runs scripts with gopher-lua (the default).
	EngineLua Engine = "lua"
	// EngineJS runs scripts with goja.
	EngineJS Engine = "js"
	// EngineTengo runs scripts with tengo.
	EngineTengo Engine = "tengo"
)

// Engines lists every supported engine.
func Engines() []Engine {
	return []Engine{EngineLua, EngineJS, EngineTengo}
}

// ValidateEngine checks if the given engine name is valid and returns the Engine
func ValidateEngine(name string) (Engine, error) {
	switch Engine(name) {
	case EngineLua, "":
		return EngineLua, nil
	case EngineJS, "javascript":
		return EngineJS, nil
	case EngineTengo:
		return EngineTengo, nil
	default:
		return "", fmt.Errorf("unknown engine: %q (valid options: lua, js, tengo)", name)
	}
}

// Config holds the interpreter host configuration.
type Config struct {
	// Engine selects the interpreter (default: lua)
	Engine Engine

	// MaxScriptBytes is the largest source the host will load; bigger
	// scripts fail with an out-of-memory result (default: 1 MiB, 0 = no limit)
	MaxScriptBytes int

	// MaxAllocs caps object allocations per run for engines that can
	// account for them (tengo) (default: 5,000,000, 0 = no limit)
	MaxAllocs int64

	// CallStackSize bounds nested calls inside the lua interpreter (default: 256)
	CallStackSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Engine:         EngineLua,
		MaxScriptBytes: 1 << 20,
		MaxAllocs:      5_000_000,
		CallStackSize:  256,
	}
}
