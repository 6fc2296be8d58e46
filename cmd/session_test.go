package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsmostafa/kvscript/internal/command"
	"github.com/itsmostafa/kvscript/internal/scripting"
)

func testSession(t *testing.T, engine string) (*session, *bytes.Buffer) {
	t.Helper()
	engineName, logLevel, logFormat, seedFile, maxScriptBytes, respOutput = engine, "error", "text", "", 1<<20, false

	var out bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&out)
	c.SetErr(&out)

	s, err := newSession(c)
	require.NoError(t, err)
	t.Cleanup(s.close)
	return s, &out
}

func TestSessionEvalAndCall(t *testing.T) {
	s, _ := testSession(t, "js")

	res := s.eval(context.Background(), `redis_call("SET", "a", "1"); return redis_call("GET", "a")`)
	require.True(t, res.OK(), res.Payload)
	assert.Equal(t, "1", res.Payload)

	assert.Equal(t, command.Bulk("1"), s.call([]string{"GET", "a"}))
	assert.Equal(t, command.Bulk("2"), s.call([]string{"EVAL", `return redis_call("INCR", "a")`}))
}

func TestSessionSeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- key: greet
  value: return "hello"
- key: queue
  type: list
  value: [a, b]
`), 0o644))

	engineName, logLevel, logFormat, seedFile, respOutput = "lua", "error", "text", path, false
	t.Cleanup(func() { seedFile = "" })
	c := &cobra.Command{}
	s, err := newSession(c)
	require.NoError(t, err)
	defer s.close()

	res := s.evalKey(context.Background(), "greet")
	require.True(t, res.OK(), res.Payload)
	assert.Equal(t, "hello", res.Payload)

	res = s.evalKey(context.Background(), "queue")
	assert.Equal(t, scripting.ClassWrongType, res.Class)
}

func TestSessionRejectsUnknownEngine(t *testing.T) {
	engineName, logLevel = "cobol", "warn"
	t.Cleanup(func() { engineName = "lua" })
	_, err := newSession(&cobra.Command{})
	assert.Error(t, err)
}

func TestPrintResultRESP(t *testing.T) {
	s, out := testSession(t, "lua")
	respOutput = true
	t.Cleanup(func() { respOutput = false })

	s.printResult(s.eval(context.Background(), `return "ok"`), false)
	assert.Equal(t, "+ok\r\n", out.String())
}
