package cmd

import (
	"github.com/spf13/cobra"
)

var callCmd = &cobra.Command{
	Use:   "call <command> [args...]",
	Short: "Run one store command directly",
	Long:  `Run one store command against a fresh (optionally seeded) store and print the reply.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.close()

		s.printReply(s.call(args))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(callCmd)
}
