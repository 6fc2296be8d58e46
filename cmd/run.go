package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/itsmostafa/kvscript/internal/cli"
)

var runKeepGoing bool
var runStats bool

var runCmd = &cobra.Command{
	Use:   "run <file>...",
	Short: "Run script files in order against one store",
	Long: `Run each script file in order against the same store, so later scripts see
the effects of earlier ones. Stops at the first failing script unless
--keep-going is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.close()

		if !respOutput {
			cli.FormatHeader(s.out, s.host.Engine(), seedFile, s.db.Len())
		}

		var failed int
		for _, file := range args {
			src, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			res := s.eval(cmd.Context(), string(src))
			if !respOutput {
				fmt.Fprintln(s.out, file)
			}
			s.printResult(res, true)
			if !res.OK() {
				failed++
				if !runKeepGoing {
					break
				}
			}
		}

		if runStats && !respOutput {
			cli.FormatStats(s.out, s.host.Stats())
		}
		if failed > 0 {
			return fmt.Errorf("%d script(s) failed", failed)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runKeepGoing, "keep-going", false, "Run remaining scripts after a failure")
	runCmd.Flags().BoolVar(&runStats, "stats", false, "Print session statistics at the end")
	rootCmd.AddCommand(runCmd)
}
