package scripting

import (
	"context"
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/itsmostafa/kvscript/internal/command"
)

// luaEngine runs scripts with gopher-lua. Only the base, table, string and
// math libraries are opened.
type luaEngine struct {
	cfg   Config
	L     *lua.LState
	call  callFunc
	hooks hooks
}

func (e *luaEngine) open(call callFunc, hk hooks) error {
	L := lua.NewState(lua.Options{
		CallStackSize: e.cfg.CallStackSize,
		SkipOpenLibs:  true,
	})
	L.Panic = func(L *lua.LState) {
		err := &lua.ApiError{Type: lua.ApiErrorPanic, Object: L.Get(-1)}
		hk.fatal(fmt.Errorf("unprotected error in call to Lua API (%s)", err.Object.String()))
		panic(err)
	}

	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return fmt.Errorf("failed to open lua library %q: %w", lib.name, err)
		}
	}

	e.L = L
	e.call = call
	e.hooks = hk
	e.register()
	return nil
}

// register (re)installs the bridge globals. It runs before every script so
// one script cannot replace them for the next.
func (e *luaEngine) register() {
	L := e.L
	callFn := L.NewFunction(luaBridge(e.call, false))
	pcallFn := L.NewFunction(luaBridge(e.call, true))
	L.SetGlobal(callName, callFn)
	L.SetGlobal(pcallName, pcallFn)

	// redis.call / redis.pcall, and redis(...) as a shorthand for redis.call
	obj := L.NewTable()
	L.SetField(obj, "call", callFn)
	L.SetField(obj, "pcall", pcallFn)
	raise := luaBridge(e.call, false)
	mt := L.NewTable()
	L.SetField(mt, "__call", L.NewFunction(func(L *lua.LState) int {
		L.Remove(1)
		return raise(L)
	}))
	L.SetMetatable(obj, mt)
	L.SetGlobal(objectName, obj)
}

func luaBridge(call callFunc, protected bool) lua.LGFunction {
	return func(L *lua.LState) int {
		n := L.GetTop()
		args := make([]string, 0, n)
		var argErr error
		for i := 1; i <= n; i++ {
			switch v := L.Get(i).(type) {
			case lua.LString:
				args = append(args, string(v))
			case lua.LNumber:
				args = append(args, v.String())
			default:
				argErr = errArgumentType
			}
			if argErr != nil {
				break
			}
		}

		var (
			values []string
			err    error
		)
		if argErr != nil {
			values, err = reject(argErr, protected)
		} else {
			values, err = call(args, protected)
		}
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		for _, v := range values {
			L.Push(lua.LString(v))
		}
		return len(values)
	}
}

func (e *luaEngine) compile(src string) (runFunc, error) {
	fn, err := e.L.LoadString(src)
	if err != nil {
		return nil, syntaxError(err.Error())
	}
	return func(ctx context.Context) ([]string, error) {
		return e.exec(ctx, fn)
	}, nil
}

func (e *luaEngine) exec(ctx context.Context, fn *lua.LFunction) ([]string, error) {
	L := e.L
	if ctx.Done() != nil {
		L.SetContext(ctx)
		defer L.RemoveContext()
	}

	base := L.GetTop()
	defer L.SetTop(base)

	// Globals the script assigns land in a per-run table; reads fall
	// through to the shared globals.
	e.register()
	env := L.NewTable()
	mt := L.NewTable()
	L.SetField(mt, "__index", L.Get(lua.GlobalsIndex))
	L.SetMetatable(env, mt)
	L.SetFEnv(fn, env)

	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		var apiErr *lua.ApiError
		if errors.As(err, &apiErr) {
			if apiErr.Type == lua.ApiErrorPanic {
				e.hooks.fatal(fmt.Errorf("lua interpreter panic: %s", apiErr.Object.String()))
			}
			return nil, &runtimeError{msg: apiErr.Object.String()}
		}
		return nil, &runtimeError{msg: err.Error()}
	}

	top := L.GetTop()
	values := make([]string, 0, top-base)
	for i := base + 1; i <= top; i++ {
		values = e.appendValue(values, L.Get(i), true)
	}
	return values, nil
}

// appendValue converts one returned value to text. The array part of a
// top-level table is flattened; nested tables are dropped.
func (e *luaEngine) appendValue(values []string, lv lua.LValue, top bool) []string {
	switch v := lv.(type) {
	case lua.LString:
		return append(values, string(v))
	case lua.LNumber:
		return append(values, v.String())
	case lua.LBool:
		return append(values, v.String())
	case *lua.LNilType:
		return append(values, command.NilText)
	case *lua.LTable:
		if !top {
			e.hooks.skip(lv.Type().String())
			return values
		}
		for i := 1; i <= v.Len(); i++ {
			values = e.appendValue(values, v.RawGetInt(i), false)
		}
		return values
	default:
		if !top {
			e.hooks.skip(lv.Type().String())
			return values
		}
		return append(values, lv.String())
	}
}

func (e *luaEngine) close() {
	if e.L != nil {
		e.L.Close()
		e.L = nil
	}
}
