package scripting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/itsmostafa/kvscript/internal/command"
	"github.com/itsmostafa/kvscript/internal/store"
)

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Lookup(name string) (*command.Descriptor, bool) {
	args := m.Called(name)
	d, _ := args.Get(0).(*command.Descriptor)
	return d, args.Bool(1)
}

func (m *mockDispatcher) Dispatch(c command.Client, d *command.Descriptor) {
	m.Called(c, d)
}

func newMockHost(t *testing.T, d Dispatcher) *Host {
	t.Helper()
	h := NewHost(DefaultConfig(), d)
	require.NoError(t, h.Initialize())
	t.Cleanup(h.Close)
	return h
}

func TestNoDispatchOnRejectedCalls(t *testing.T) {
	get := &command.Descriptor{Name: "GET", Arity: 2, Handler: func(command.Client) {}}

	tests := []struct {
		name  string
		src   string
		setup func(m *mockDispatcher)
		class Class
	}{
		{
			name:  "syntax error",
			src:   `return redis_call("GET", "a"`,
			setup: func(*mockDispatcher) {},
			class: ClassSyntaxError,
		},
		{
			name: "unknown command",
			src:  `return redis_call("NOPE")`,
			setup: func(m *mockDispatcher) {
				m.On("Lookup", "NOPE").Return((*command.Descriptor)(nil), false)
			},
			class: ClassRuntimeError,
		},
		{
			name: "wrong arity",
			src:  `return redis_call("GET")`,
			setup: func(m *mockDispatcher) {
				m.On("Lookup", "GET").Return(get, true)
			},
			class: ClassRuntimeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockDispatcher{}
			tt.setup(m)
			h := newMockHost(t, m)

			res := h.Run(context.Background(), tt.src)
			assert.Equal(t, tt.class, res.Class)
			m.AssertExpectations(t)
			m.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
			assert.True(t, h.Snapshot().Clean())
		})
	}
}

func TestDispatchSeesFreshArguments(t *testing.T) {
	m := &mockDispatcher{}
	echo := &command.Descriptor{Name: "ECHO", Arity: 2, Handler: func(command.Client) {}}
	m.On("Lookup", "ECHO").Return(echo, true)

	var seen [][]string
	var h *Host
	m.On("Dispatch", mock.Anything, echo).Run(func(args mock.Arguments) {
		c := args.Get(0).(command.Client)
		seen = append(seen, append([]string(nil), c.Args()...))

		snap := h.Snapshot()
		assert.True(t, snap.InFlight)
		assert.Equal(t, 2, snap.Args)
		assert.Equal(t, 0, snap.Replies)

		c.AddReply(command.Bulk(c.Args()[1]))
	})
	h = newMockHost(t, m)

	res := h.Run(context.Background(), `
		local a = redis_call("ECHO", "one")
		local b = redis_call("ECHO", "two")
		return a .. b`)
	require.True(t, res.OK(), res.Payload)
	assert.Equal(t, "onetwo", res.Payload)
	assert.Equal(t, [][]string{{"ECHO", "one"}, {"ECHO", "two"}}, seen)
	assert.True(t, h.Snapshot().Clean())
	m.AssertNumberOfCalls(t, "Dispatch", 2)
}

func TestDrainSkipsNestedReplies(t *testing.T) {
	f := newFixture(t, EngineLua)
	require.NoError(t, f.table.Register(&command.Descriptor{
		Name:  "NESTED",
		Arity: 1,
		Handler: func(c command.Client) {
			c.AddReply(command.Array(
				command.Bulk("a"),
				command.Array(command.Bulk("b")),
				command.Integer(3),
				command.Nil(),
			))
		},
	}))

	res := f.run(`return redis_call("NESTED")`)
	require.True(t, res.OK(), res.Payload)
	assert.Equal(t, []string{"a", "3", command.NilText}, res.Values)
	assert.Equal(t, 1, f.host.Stats().Skipped)
}

func TestDrainKeepsReplyOrder(t *testing.T) {
	f := newFixture(t, EngineJS)
	require.NoError(t, f.table.Register(&command.Descriptor{
		Name:  "MANY",
		Arity: 1,
		Handler: func(c command.Client) {
			c.AddReply(command.Status("first"))
			c.AddReply(command.Integer(2))
			c.AddReply(command.Bulk("third"))
		},
	}))

	res := f.run(`return redis_call("MANY")`)
	require.True(t, res.OK(), res.Payload)
	assert.Equal(t, []string{"first", "2", "third"}, res.Values)
	assert.Equal(t, 3, f.host.Stats().Returned)
}

func TestPanickingCommandIsFatal(t *testing.T) {
	for _, eng := range []Engine{EngineLua, EngineJS} {
		t.Run(string(eng), func(t *testing.T) {
			f := newFixture(t, eng)
			require.NoError(t, f.table.Register(&command.Descriptor{
				Name:    "BOOM",
				Arity:   1,
				Handler: func(command.Client) { panic("boom") },
			}))

			res := f.run(`return redis_call("BOOM")`)
			assert.Equal(t, ClassRuntimeError, res.Class)
			require.Len(t, f.fatals, 1)
			assert.Contains(t, f.fatals[0].Error(), "boom")
			assert.True(t, f.host.Snapshot().Clean())
		})
	}
}

func TestCallErrorIs(t *testing.T) {
	err := error(wrongArity("GET"))
	assert.ErrorIs(t, err, &CallError{Kind: WrongArity})
	assert.NotErrorIs(t, err, &CallError{Kind: UnknownCommand})
}

func TestExecContextRejectsReentry(t *testing.T) {
	c := newExecContext()
	require.NoError(t, c.acquire([]string{"GET", "a"}))
	assert.ErrorIs(t, c.acquire([]string{"GET", "b"}), ErrContextBusy)

	c.AddReply(command.OK)
	c.release()
	assert.True(t, c.snapshot().Clean())

	c.AddReply(command.OK)
	assert.ErrorIs(t, c.acquire([]string{"GET", "a"}), ErrContextDirty)
}

var _ KeyReader = (*store.Store)(nil)
var _ Dispatcher = (*command.Table)(nil)
