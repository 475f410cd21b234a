package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/dutyctl"
)

func importMembersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import-members FILE",
		Short: "Add members from a CSV of name,cumbra_id,role[,full_name] (- reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			return withEnv(cmd, func(ctx context.Context, env *dutyctl.Env) error {
				res, err := dutyctl.ImportMembers(ctx, env.Members, env.Audit, dutyctl.Actor, in)
				if err != nil {
					return err
				}
				return render(cmd, res)
			})
		},
	}
}
