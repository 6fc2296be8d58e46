package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/itsmostafa/kvscript/internal/cli"
)

const (
	historyFile = ".kvscript_history"
	promptMain  = "kvscript> "
	promptCont  = "     ...> "
)

const replHelp = `  <script>         run a script; end a line with \ to continue it
  !CMD arg...      run a store command directly (arguments split on spaces)
  :stats           show session statistics
  :help            show this help
  :quit            leave`

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive session against one store",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.close()

		cli.FormatBanner(s.out, s.host.Engine())

		ln := liner.NewLiner()
		defer ln.Close()
		ln.SetCtrlCAborts(true)

		home, _ := os.UserHomeDir()
		histPath := filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()

		for {
			line, ok := readContinued(ln)
			if !ok {
				fmt.Fprintln(s.out)
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			ln.AppendHistory(strings.ReplaceAll(line, "\n", " "))

			switch {
			case strings.HasPrefix(line, ":"):
				switch strings.ToLower(line) {
				case ":quit", ":q", ":exit":
					return nil
				case ":help":
					fmt.Fprintln(s.out, replHelp)
				case ":stats":
					cli.FormatStats(s.out, s.host.Stats())
				default:
					fmt.Fprintln(s.out, "unknown command. Type :help for help.")
				}
			case strings.HasPrefix(line, "!"):
				s.printReply(s.call(strings.Fields(line[1:])))
			default:
				s.printResult(s.eval(cmd.Context(), line), false)
			}
		}
	},
}

// readContinued reads one entry, joining lines that end with a backslash.
func readContinued(ln *liner.State) (string, bool) {
	var b strings.Builder
	prompt := promptMain
	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return "", false
		}
		if err != nil {
			return "", true
		}
		if rest, more := strings.CutSuffix(line, `\`); more {
			b.WriteString(rest)
			b.WriteByte('\n')
			prompt = promptCont
			continue
		}
		b.WriteString(line)
		return b.String(), true
	}
}

func init() {
	rootCmd.AddCommand(replCmd)
}
