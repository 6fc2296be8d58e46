package scripting

import "github.com/itsmostafa/kvscript/internal/command"

// call is the command bridge every engine registers. It resolves the
// command, runs it against the execution context and converts the replies
// into text values. The execution lock is already held by the running script.
func (h *Host) call(args []string, protected bool) ([]string, error) {
	values, err := h.dispatch(args, protected)
	if err != nil {
		return reject(err, protected)
	}
	return values, nil
}

// reject reports a failed call the way the calling variant expects:
// redis_call raises, redis_pcall hands the error text back as a value.
func reject(err error, protected bool) ([]string, error) {
	if !protected {
		return nil, err
	}
	return []string{"ERR " + err.Error()}, nil
}

func (h *Host) dispatch(args []string, protected bool) ([]string, error) {
	if len(args) == 0 {
		return nil, badArgument("please specify at least one argument")
	}
	name := args[0]
	d, ok := h.dispatcher.Lookup(name)
	if !ok {
		return nil, unknownCommand(name)
	}
	if d.Has(command.FlagNoScript) {
		return nil, notAllowed(d.Name)
	}
	if !d.CheckArity(len(args)) {
		return nil, wrongArity(d.Name)
	}

	if err := h.ctx.acquire(args); err != nil {
		return nil, err
	}
	defer h.ctx.release()

	argBytes := 0
	for _, a := range args {
		argBytes += len(a)
	}
	h.mu.Lock()
	h.stats.Calls++
	h.stats.ArgBytes += argBytes
	h.mu.Unlock()
	h.runCalls++

	h.logger.Debug("script command", "command", d.Name, "args", len(args)-1)
	h.dispatcher.Dispatch(h.ctx, d)

	return h.drain(d.Name, protected)
}

// drain empties the reply queue in order. Scalars become their text, arrays
// are flattened one level and anything else is skipped. Unless protected, the
// first error reply fails the call.
func (h *Host) drain(name string, protected bool) ([]string, error) {
	var (
		values   []string
		firstErr error
		bytes    int
		skipped  int
	)
	add := func(r command.Reply) {
		s, ok := r.Text()
		if !ok {
			skipped++
			h.logger.Warn("skipping reply the script cannot receive", "command", name, "kind", r.Kind.String())
			return
		}
		bytes += len(s)
		values = append(values, s)
	}

	for r, ok := h.ctx.next(); ok; r, ok = h.ctx.next() {
		h.ctx.returned++
		switch {
		case r.IsError() && !protected:
			if firstErr == nil {
				firstErr = &CallError{Kind: CommandError, Command: name, Msg: r.Str}
			}
		case r.Kind == command.KindArray:
			for _, e := range r.Elems {
				add(e)
			}
		default:
			add(r)
		}
	}

	h.mu.Lock()
	h.stats.Returned += h.ctx.returned
	h.stats.ReplyBytes += bytes
	h.stats.Skipped += skipped
	h.mu.Unlock()

	if firstErr != nil {
		return nil, firstErr
	}
	return values, nil
}
