package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var evalKey string
var evalFile string
var evalVerbose bool

var evalCmd = &cobra.Command{
	Use:   "eval [script]",
	Short: "Run one script",
	Long: `Run one script against a fresh store and print its result.

The script comes from the argument, from --file, or from the key named by
--key (the key must hold a string, usually loaded with --seed).`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.close()

		ctx := cmd.Context()
		switch {
		case evalKey != "":
			s.printResult(s.evalKey(ctx, evalKey), evalVerbose)
		case evalFile != "":
			src, err := os.ReadFile(evalFile)
			if err != nil {
				return err
			}
			s.printResult(s.eval(ctx, string(src)), evalVerbose)
		case len(args) == 1:
			s.printResult(s.eval(ctx, args[0]), evalVerbose)
		default:
			return errors.New("no script given: pass it as an argument, with --file or with --key")
		}
		return nil
	},
}

func init() {
	evalCmd.Flags().StringVarP(&evalKey, "key", "k", "", "Run the script stored at this key")
	evalCmd.Flags().StringVarP(&evalFile, "file", "f", "", "Read the script from a file")
	evalCmd.Flags().BoolVarP(&evalVerbose, "verbose", "v", false, "Print run id, command count and duration")
	rootCmd.AddCommand(evalCmd)
}
