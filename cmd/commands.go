package cmd

import (
	"github.com/spf13/cobra"

	"github.com/itsmostafa/kvscript/internal/cli"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List the store commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		defer s.close()

		cli.FormatCommands(s.out, s.table.Descriptors())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(commandsCmd)
}
