package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/itsmostafa/kvscript/internal/command"
	"github.com/itsmostafa/kvscript/internal/scripting"
)

func TestEncodeRESP(t *testing.T) {
	tests := []struct {
		name  string
		reply command.Reply
		want  string
	}{
		{"status", command.OK, "+OK\r\n"},
		{"error", command.Error("ERR boom"), "-ERR boom\r\n"},
		{"integer", command.Integer(-3), ":-3\r\n"},
		{"bulk", command.Bulk("héllo"), "$6\r\nhéllo\r\n"},
		{"nil", command.Nil(), "$-1\r\n"},
		{"array", command.Array(command.Bulk("a"), command.Integer(1)), "*2\r\n$1\r\na\r\n:1\r\n"},
		{"empty array", command.Array(), "*0\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeRESP(tt.reply))
		})
	}
}

func TestEncodeResultRESP(t *testing.T) {
	assert.Equal(t, "+ok\r\n", EncodeResultRESP(scripting.Result{Class: scripting.ClassSuccess, Payload: "ok"}))
	assert.Equal(t, "$-1\r\n", EncodeResultRESP(scripting.Result{Class: scripting.ClassKeyNotFound, Payload: command.NilText}))
	assert.Equal(t, "-ERR interpreter out of memory\r\n",
		EncodeResultRESP(scripting.Result{Class: scripting.ClassOutOfMemory, Payload: "ERR interpreter out of memory"}))
}

func TestFormatStatsUsesSeparators(t *testing.T) {
	var buf bytes.Buffer
	FormatStats(&buf, scripting.Stats{Runs: 1234567, Calls: 2})
	assert.Contains(t, buf.String(), "1,234,567")
}

func TestFormatResult(t *testing.T) {
	var buf bytes.Buffer
	FormatResult(&buf, scripting.Result{Class: scripting.ClassSuccess, Payload: "ok", Values: []string{"ok"}}, false)
	assert.Equal(t, "\"ok\"\n", buf.String())

	buf.Reset()
	FormatResult(&buf, scripting.Result{Class: scripting.ClassRuntimeError, Payload: "ERR script error: x"}, false)
	assert.Contains(t, buf.String(), "ERR script error: x")
}

func TestFormatCommands(t *testing.T) {
	var buf bytes.Buffer
	FormatCommands(&buf, []*command.Descriptor{
		{Name: "GET", Arity: 2, Flags: command.FlagReadOnly, Summary: "Get a string"},
		{Name: "DEL", Arity: -2, Flags: command.FlagWrite, Summary: "Delete keys"},
	})
	out := buf.String()
	assert.Contains(t, out, "GET")
	assert.Contains(t, out, ">=2")
	assert.Contains(t, out, "Delete keys")
}
