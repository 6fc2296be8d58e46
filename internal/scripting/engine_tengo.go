package scripting

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/itsmostafa/kvscript/internal/command"
)

// resultVar receives the value the wrapped script body returns.
const resultVar = "__result"

// tengoEngine runs scripts with tengo. Every script is compiled fresh with
// the bridge functions and the math, text and json modules available.
type tengoEngine struct {
	cfg     Config
	call    callFunc
	hooks   hooks
	modules *tengo.ModuleMap
}

func (e *tengoEngine) open(call callFunc, hk hooks) error {
	e.call = call
	e.hooks = hk
	e.modules = stdlib.GetModuleMap("math", "text", "json")
	return nil
}

func (e *tengoEngine) bridge(name string, protected bool) *tengo.UserFunction {
	return &tengo.UserFunction{
		Name: name,
		Value: func(args ...tengo.Object) (tengo.Object, error) {
			argv := make([]string, 0, len(args))
			for i, a := range args {
				s, ok := tengoArg(a)
				if !ok {
					if protected {
						return &tengo.String{Value: "ERR " + errArgumentType.Error()}, nil
					}
					return nil, tengo.ErrInvalidArgumentType{
						Name:     "argument " + strconv.Itoa(i+1),
						Expected: "string or number",
						Found:    a.TypeName(),
					}
				}
				argv = append(argv, s)
			}

			values, err := e.call(argv, protected)
			if err != nil {
				return nil, err
			}
			switch len(values) {
			case 0:
				return tengo.UndefinedValue, nil
			case 1:
				return &tengo.String{Value: values[0]}, nil
			default:
				arr := make([]tengo.Object, len(values))
				for i, v := range values {
					arr[i] = &tengo.String{Value: v}
				}
				return &tengo.Array{Value: arr}, nil
			}
		},
	}
}

func tengoArg(o tengo.Object) (string, bool) {
	switch v := o.(type) {
	case *tengo.String:
		return v.Value, true
	case *tengo.Int:
		return strconv.FormatInt(v.Value, 10), true
	case *tengo.Float:
		return strconv.FormatFloat(v.Value, 'f', -1, 64), true
	default:
		return "", false
	}
}

func (e *tengoEngine) compile(src string) (runFunc, error) {
	script := tengo.NewScript([]byte(resultVar + " := (func() {\n" + src + "\n})()"))
	script.SetImports(e.modules)
	if e.cfg.MaxAllocs > 0 {
		script.SetMaxAllocs(e.cfg.MaxAllocs)
	}

	callFn := e.bridge(callName, false)
	pcallFn := e.bridge(pcallName, true)
	redis := &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"call":  callFn,
		"pcall": pcallFn,
	}}
	for name, obj := range map[string]tengo.Object{
		callName:   callFn,
		pcallName:  pcallFn,
		objectName: redis,
	} {
		if err := script.Add(name, obj); err != nil {
			return nil, fmt.Errorf("failed to add %s: %w", name, err)
		}
	}

	compiled, err := script.Compile()
	if err != nil {
		return nil, syntaxError(err.Error())
	}

	return func(ctx context.Context) ([]string, error) {
		if err := compiled.RunContext(ctx); err != nil {
			if errors.Is(err, tengo.ErrObjectAllocLimit) ||
				strings.Contains(err.Error(), tengo.ErrObjectAllocLimit.Error()) {
				return nil, fmt.Errorf("%w: %s", ErrOutOfMemory, err)
			}
			return nil, &runtimeError{msg: tengoErrorText(err)}
		}
		return e.values(compiled.Get(resultVar).Object())
	}, nil
}

// tengoErrorText keeps the first line of a runtime error, without the
// "Runtime Error: " prefix tengo adds.
func tengoErrorText(err error) string {
	msg, _, _ := strings.Cut(err.Error(), "\n")
	return strings.TrimPrefix(msg, "Runtime Error: ")
}

// values converts the returned object. Returning an error object raises
// it; arrays are flattened one level.
func (e *tengoEngine) values(o tengo.Object) ([]string, error) {
	switch v := o.(type) {
	case nil, *tengo.Undefined:
		return nil, nil
	case *tengo.Error:
		return nil, &runtimeError{msg: tengoText(v.Value)}
	case *tengo.Array:
		return e.elems(v.Value), nil
	case *tengo.ImmutableArray:
		return e.elems(v.Value), nil
	default:
		return []string{tengoText(v)}, nil
	}
}

func (e *tengoEngine) elems(elems []tengo.Object) []string {
	values := make([]string, 0, len(elems))
	for _, el := range elems {
		switch el.(type) {
		case *tengo.Array, *tengo.ImmutableArray, *tengo.Map, *tengo.ImmutableMap:
			e.hooks.skip(el.TypeName())
			continue
		}
		values = append(values, tengoText(el))
	}
	return values
}

// tengoText is the textual form of a scalar; undefined reads as nil.
func tengoText(o tengo.Object) string {
	if s, ok := tengo.ToString(o); ok {
		return s
	}
	return command.NilText
}

func (e *tengoEngine) close() {
	e.call = nil
}
