package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/app/system/attendance"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/dutyctl"
)

type statsSummary struct {
	Year    int                `json:"year"`
	Events  []string           `json:"events"`
	Average float64            `json:"average"`
	Ranking []attendance.Stats `json:"ranking"`
}

func statsCommand() *cobra.Command {
	var (
		year     int
		memberID string
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print attendance ranking for a year, or one member's figures",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, env *dutyctl.Env) error {
				if memberID != "" {
					s, err := env.Ledger.MemberStats(ctx, year, memberID)
					if err != nil {
						return err
					}
					return render(cmd, s)
				}
				d, err := env.Ledger.Dashboard(ctx, year)
				if err != nil {
					return err
				}
				return render(cmd, statsSummary{
					Year:    d.Year,
					Events:  d.Events,
					Average: d.Average,
					Ranking: d.Ranking,
				})
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "calendar year")
	cmd.Flags().StringVar(&memberID, "member", "", "member id")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}
