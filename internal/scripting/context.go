package scripting

import "github.com/itsmostafa/kvscript/internal/command"

// execContext is the synthetic client commands run against when called from
// a script. It is reused for every call and holds at most one call at a time.
type execContext struct {
	argv     []string
	replies  []command.Reply
	returned int
	inFlight bool
}

var _ command.Client = (*execContext)(nil)

func newExecContext() *execContext {
	return &execContext{}
}

func (c *execContext) Args() []string { return c.argv }

func (c *execContext) AddReply(r command.Reply) {
	c.replies = append(c.replies, r)
}

// acquire installs a fresh copy of args for one call.
func (c *execContext) acquire(args []string) error {
	if c.inFlight {
		return ErrContextBusy
	}
	if len(c.argv) != 0 || len(c.replies) != 0 {
		return ErrContextDirty
	}
	c.argv = make([]string, len(args))
	copy(c.argv, args)
	c.returned = 0
	c.inFlight = true
	return nil
}

// next pops the oldest queued reply.
func (c *execContext) next() (command.Reply, bool) {
	if len(c.replies) == 0 {
		return command.Reply{}, false
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	return r, true
}

// release drops the argument vector and any undrained replies.
func (c *execContext) release() {
	c.argv = nil
	c.replies = nil
	c.inFlight = false
}

// ContextSnapshot describes the execution context between calls.
type ContextSnapshot struct {
	Args     int
	Replies  int
	Returned int
	InFlight bool
}

// Clean reports whether no call state is left behind.
func (s ContextSnapshot) Clean() bool {
	return s.Args == 0 && s.Replies == 0 && !s.InFlight
}

func (c *execContext) snapshot() ContextSnapshot {
	return ContextSnapshot{
		Args:     len(c.argv),
		Replies:  len(c.replies),
		Returned: c.returned,
		InFlight: c.inFlight,
	}
}
