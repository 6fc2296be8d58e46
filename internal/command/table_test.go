package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsmostafa/kvscript/internal/store"
)

func run(t *Table, args ...string) Reply {
	rec := NewRecorder(args...)
	t.Execute(rec)
	return rec.Reply()
}

func TestLookupIsCaseInsensitive(t *testing.T) {
	tbl := NewTable(store.New())

	d, ok := tbl.Lookup("get")
	require.True(t, ok)
	assert.Equal(t, "GET", d.Name)

	_, ok = tbl.Lookup("nosuchcommand")
	assert.False(t, ok)
}

func TestCheckArity(t *testing.T) {
	exact := &Descriptor{Name: "GET", Arity: 2}
	atLeast := &Descriptor{Name: "DEL", Arity: -2}

	assert.True(t, exact.CheckArity(2))
	assert.False(t, exact.CheckArity(1))
	assert.False(t, exact.CheckArity(3))
	assert.Equal(t, "2", exact.ArityString())

	assert.False(t, atLeast.CheckArity(1))
	assert.True(t, atLeast.CheckArity(2))
	assert.True(t, atLeast.CheckArity(5))
	assert.Equal(t, ">=2", atLeast.ArityString())
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	tbl := NewTable(store.New())
	noop := func(Client) {}

	err := tbl.Register(&Descriptor{Name: "get", Arity: 2, Handler: noop})
	assert.Error(t, err)

	err = tbl.Register(&Descriptor{Name: "HELLO", Arity: 0, Handler: noop})
	assert.Error(t, err, "zero arity is invalid")

	require.NoError(t, tbl.Register(&Descriptor{Name: "HELLO", Arity: 1, Handler: noop}))
	_, ok := tbl.Lookup("hello")
	assert.True(t, ok)
}

func TestExecute(t *testing.T) {
	tbl := NewTable(store.New())

	tests := []struct {
		name string
		args []string
		want Reply
	}{
		{"ping", []string{"PING"}, Status("PONG")},
		{"set", []string{"SET", "k", "v"}, OK},
		{"get", []string{"GET", "k"}, Bulk("v")},
		{"get missing", []string{"GET", "missing"}, Nil()},
		{"incr on string", []string{"INCR", "k"}, Error(MsgNotInteger)},
		{"incrby", []string{"INCRBY", "n", "10"}, Integer(10)},
		{"decr", []string{"DECR", "n"}, Integer(9)},
		{"rpush", []string{"RPUSH", "l", "a", "b"}, Integer(2)},
		{"lrange", []string{"LRANGE", "l", "0", "-1"}, BulkStrings([]string{"a", "b"})},
		{"wrong type", []string{"GET", "l"}, Error(MsgWrongType)},
		{"mget", []string{"MGET", "k", "missing"}, Array(Bulk("v"), Nil())},
		{"type", []string{"TYPE", "l"}, Status("list")},
		{"unknown", []string{"NOPE"}, Error("ERR unknown command 'NOPE'")},
		{"arity", []string{"GET"}, Error("ERR wrong number of arguments for 'get' command")},
		{"mset odd", []string{"MSET", "a", "1", "b"}, Error("ERR wrong number of arguments for 'mset' command")},
		{"ttl no expiry", []string{"TTL", "k"}, Integer(-1)},
		{"ttl missing", []string{"TTL", "missing"}, Integer(-2)},
		{"hset", []string{"HSET", "h", "f", "v"}, Integer(1)},
		{"hgetall", []string{"HGETALL", "h"}, BulkStrings([]string{"f", "v"})},
		{"sadd", []string{"SADD", "s", "x", "x"}, Integer(1)},
		{"del", []string{"DEL", "k", "h", "missing"}, Integer(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, run(tbl, tt.args...))
		})
	}
}

func TestReplyText(t *testing.T) {
	tests := []struct {
		reply Reply
		text  string
		ok    bool
	}{
		{Status("OK"), "OK", true},
		{Bulk("hello"), "hello", true},
		{Integer(-3), "-3", true},
		{Nil(), NilText, true},
		{Error("ERR boom"), "ERR boom", true},
		{Array(Bulk("a")), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.reply.Kind.String(), func(t *testing.T) {
			text, ok := tt.reply.Text()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.text, text)
		})
	}
}

func TestReplyString(t *testing.T) {
	assert.Equal(t, `"v"`, Bulk("v").String())
	assert.Equal(t, "(integer) 2", Integer(2).String())
	assert.Equal(t, "(empty array)", Array().String())
	assert.Equal(t, "1) \"a\"\n2) (nil)", Array(Bulk("a"), Nil()).String())
}

func TestExpireRejectsOverflowingSeconds(t *testing.T) {
	tbl := NewTable(store.New())
	run(tbl, "SET", "k", "v")

	tests := []struct {
		name string
		args []string
		want Reply
	}{
		{"expire too large", []string{"EXPIRE", "k", "9300000000"}, Error("ERR invalid expire time in 'expire' command")},
		{"expire too small", []string{"EXPIRE", "k", "-9300000000"}, Error("ERR invalid expire time in 'expire' command")},
		{"setex too large", []string{"SETEX", "k", "9300000000", "v"}, Error("ERR invalid expire time in 'setex' command")},
		{"key kept", []string{"GET", "k"}, Bulk("v")},
		{"expire in range", []string{"EXPIRE", "k", "100"}, Integer(1)},
		{"ttl", []string{"TTL", "k"}, Integer(100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, run(tbl, tt.args...))
		})
	}
}
