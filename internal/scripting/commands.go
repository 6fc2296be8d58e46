package scripting

import (
	"context"

	"github.com/itsmostafa/kvscript/internal/command"
)

// Commands returns the EVAL and EVALKEY descriptors backed by host. Both are
// refused from inside scripts, so a script can never re-enter the host.
func Commands(host *Host) []*command.Descriptor {
	return []*command.Descriptor{
		{
			Name:    "EVAL",
			Arity:   2,
			Flags:   command.FlagWrite | command.FlagNoScript,
			Summary: "Run a script",
			Handler: func(c command.Client) {
				c.AddReply(host.Run(context.Background(), c.Args()[1]).Reply())
			},
		},
		{
			Name:    "EVALKEY",
			Arity:   2,
			Flags:   command.FlagWrite | command.FlagNoScript,
			Summary: "Run the script stored at key",
			Handler: func(c command.Client) {
				c.AddReply(host.RunKey(context.Background(), c.Args()[1]).Reply())
			},
		},
	}
}
