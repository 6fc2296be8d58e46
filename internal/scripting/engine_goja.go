package scripting

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/dop251/goja"

	"github.com/itsmostafa/kvscript/internal/command"
)

// jsEngine runs scripts with goja. The body is wrapped in a function so a
// top-level return ends the script.
type jsEngine struct {
	cfg   Config
	call  callFunc
	hooks hooks
}

func (e *jsEngine) open(call callFunc, hk hooks) error {
	e.call = call
	e.hooks = hk
	// fail at startup rather than on the first run
	_, err := e.newRuntime()
	return err
}

// newRuntime creates the runtime for one run. Every run gets its own, so
// globals a script defines or overwrites never reach the next one.
func (e *jsEngine) newRuntime() (*goja.Runtime, error) {
	vm := goja.New()

	callFn := jsBridge(vm, e.call, false)
	pcallFn := jsBridge(vm, e.call, true)
	if err := vm.Set(callName, callFn); err != nil {
		return nil, fmt.Errorf("failed to set %s: %w", callName, err)
	}
	if err := vm.Set(pcallName, pcallFn); err != nil {
		return nil, fmt.Errorf("failed to set %s: %w", pcallName, err)
	}

	obj := vm.NewObject()
	if err := obj.Set("call", callFn); err != nil {
		return nil, err
	}
	if err := obj.Set("pcall", pcallFn); err != nil {
		return nil, err
	}
	if err := vm.Set(objectName, obj); err != nil {
		return nil, fmt.Errorf("failed to set %s: %w", objectName, err)
	}
	return vm, nil
}

func jsBridge(vm *goja.Runtime, call callFunc, protected bool) func(goja.FunctionCall) goja.Value {
	return func(fc goja.FunctionCall) goja.Value {
		args, err := jsArgs(fc.Arguments)
		var values []string
		if err != nil {
			values, err = reject(err, protected)
		} else {
			values, err = call(args, protected)
		}
		if err != nil {
			panic(vm.NewGoError(err))
		}

		switch len(values) {
		case 0:
			return goja.Null()
		case 1:
			return vm.ToValue(values[0])
		default:
			items := make([]any, len(values))
			for i, v := range values {
				items[i] = v
			}
			return vm.NewArray(items...)
		}
	}
}

func jsArgs(in []goja.Value) ([]string, error) {
	args := make([]string, 0, len(in))
	for _, v := range in {
		switch x := v.Export().(type) {
		case string:
			args = append(args, x)
		case int64:
			args = append(args, strconv.FormatInt(x, 10))
		case float64:
			args = append(args, strconv.FormatFloat(x, 'f', -1, 64))
		default:
			return nil, errArgumentType
		}
	}
	return args, nil
}

func (e *jsEngine) compile(src string) (runFunc, error) {
	prg, err := goja.Compile("script", "(function() {\n"+src+"\n})()", false)
	if err != nil {
		return nil, syntaxError(err.Error())
	}
	return func(ctx context.Context) ([]string, error) {
		return e.exec(ctx, prg)
	}, nil
}

func (e *jsEngine) exec(ctx context.Context, prg *goja.Program) ([]string, error) {
	vm, err := e.newRuntime()
	if err != nil {
		return nil, err
	}

	// Interrupt the VM when ctx is cancelled
	if ctx.Done() != nil {
		stop := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case <-ctx.Done():
				vm.Interrupt(ctx.Err().Error())
			case <-stop:
			}
		}()
		defer func() {
			close(stop)
			wg.Wait()
			vm.ClearInterrupt()
		}()
	}

	val, err := vm.RunProgram(prg)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, &runtimeError{msg: fmt.Sprintf("execution interrupted: %v", interrupted.Value())}
		}
		var exc *goja.Exception
		if errors.As(err, &exc) {
			return nil, &runtimeError{msg: exc.Value().String()}
		}
		return nil, &runtimeError{msg: err.Error()}
	}
	return e.values(val), nil
}

// values converts the script's return value. undefined means nothing was
// returned; arrays are flattened one level.
func (e *jsEngine) values(val goja.Value) []string {
	if val == nil || goja.IsUndefined(val) {
		return nil
	}
	if goja.IsNull(val) {
		return []string{command.NilText}
	}
	if items, ok := val.Export().([]any); ok {
		values := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := jsScalar(item)
			if !ok {
				e.hooks.skip(fmt.Sprintf("%T", item))
				continue
			}
			values = append(values, s)
		}
		return values
	}
	if s, ok := jsScalar(val.Export()); ok {
		return []string{s}
	}
	return []string{val.String()}
}

func jsScalar(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return command.NilText, true
	case string:
		return x, true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

func (e *jsEngine) close() {
	e.call = nil
}
