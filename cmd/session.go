package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/itsmostafa/kvscript/internal/cli"
	"github.com/itsmostafa/kvscript/internal/command"
	"github.com/itsmostafa/kvscript/internal/logging"
	"github.com/itsmostafa/kvscript/internal/scripting"
	"github.com/itsmostafa/kvscript/internal/store"
)

// session wires the store, the command table and the scripting host for one
// invocation of the CLI.
type session struct {
	db     *store.Store
	table  *command.Table
	host   *scripting.Host
	logger logging.Logger
	out    io.Writer
}

func newSession(cmd *cobra.Command) (*session, error) {
	engine, err := scripting.ValidateEngine(engineName)
	if err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.Config{
		Level:  level,
		Format: logFormat,
		Output: cmd.ErrOrStderr(),
	})

	db := store.New()
	if seedFile != "" {
		entries, err := store.LoadSeedFile(seedFile)
		if err != nil {
			return nil, err
		}
		if err := db.Seed(entries); err != nil {
			return nil, fmt.Errorf("failed to seed store from %s: %w", seedFile, err)
		}
		logger.Info("store seeded", "file", seedFile, "keys", len(entries))
	}

	cfg := scripting.DefaultConfig()
	cfg.Engine = engine
	cfg.MaxScriptBytes = maxScriptBytes

	table := command.NewTable(db)
	host := scripting.NewHost(cfg, table,
		scripting.WithLogger(logger),
		scripting.WithKeyReader(db),
	)
	if err := table.Register(scripting.Commands(host)...); err != nil {
		return nil, err
	}
	if err := host.Initialize(); err != nil {
		return nil, err
	}

	return &session{
		db:     db,
		table:  table,
		host:   host,
		logger: logger,
		out:    cmd.OutOrStdout(),
	}, nil
}

func (s *session) close() {
	s.host.Close()
}

// runContext bounds one script run by --timeout.
func (s *session) runContext(parent context.Context) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}

func (s *session) eval(ctx context.Context, source string) scripting.Result {
	ctx, cancel := s.runContext(ctx)
	defer cancel()
	return s.host.Run(ctx, source)
}

func (s *session) evalKey(ctx context.Context, key string) scripting.Result {
	ctx, cancel := s.runContext(ctx)
	defer cancel()
	return s.host.RunKey(ctx, key)
}

// call runs a command directly, outside any script.
func (s *session) call(args []string) command.Reply {
	rec := command.NewRecorder(args...)
	s.table.Execute(rec)
	return rec.Reply()
}

func (s *session) printResult(res scripting.Result, verbose bool) {
	if respOutput {
		fmt.Fprint(s.out, cli.EncodeResultRESP(res))
		return
	}
	cli.FormatResult(s.out, res, verbose)
}

func (s *session) printReply(r command.Reply) {
	if respOutput {
		fmt.Fprint(s.out, cli.EncodeRESP(r))
		return
	}
	cli.FormatReply(s.out, r)
}
