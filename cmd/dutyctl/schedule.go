package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/domain/models"
	"github.com/vasconcelosjoey-hue/cbmc-comando-central/internal/dutyctl"
)

// monthFlags holds --year and a 1-based --month.
type monthFlags struct {
	year  int
	month int
}

func (f *monthFlags) bind(cmd *cobra.Command, monthRequired bool) {
	cmd.Flags().IntVar(&f.year, "year", 0, "calendar year")
	cmd.Flags().IntVar(&f.month, "month", 0, "month, 1-12")
	_ = cmd.MarkFlagRequired("year")
	if monthRequired {
		_ = cmd.MarkFlagRequired("month")
	}
}

func (f *monthFlags) month0() (int, error) {
	if f.month < 1 || f.month > models.MonthsInYear {
		return 0, fmt.Errorf("--month must be 1-12, got %d", f.month)
	}
	return f.month - 1, nil
}

func generateCommand() *cobra.Command {
	var f monthFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a month's duty schedule if it does not exist yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			month0, err := f.month0()
			if err != nil {
				return err
			}
			return withEnv(cmd, func(ctx context.Context, env *dutyctl.Env) error {
				m, err := env.Service.Generate(ctx, dutyctl.Actor, f.year, month0)
				if err != nil {
					return err
				}
				return render(cmd, m)
			})
		},
	}
	f.bind(cmd, true)
	return cmd
}

func regenerateCommand() *cobra.Command {
	var (
		f   monthFlags
		yes bool
	)
	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Rebuild a month from the current roster, discarding its overrides",
		RunE: func(cmd *cobra.Command, args []string) error {
			month0, err := f.month0()
			if err != nil {
				return err
			}
			if !yes {
				return errors.New("regenerate discards manual changes; pass --yes to confirm")
			}
			return withEnv(cmd, func(ctx context.Context, env *dutyctl.Env) error {
				m, err := env.Service.Regenerate(ctx, dutyctl.Actor, f.year, month0)
				if err != nil {
					return err
				}
				return render(cmd, m)
			})
		},
	}
	f.bind(cmd, true)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the regeneration")
	return cmd
}

func showCommand() *cobra.Command {
	var f monthFlags
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a stored month, or every stored month of a year",
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.month == 0 {
				return withEnv(cmd, func(ctx context.Context, env *dutyctl.Env) error {
					months, err := env.Schedules.ListYear(ctx, f.year)
					if err != nil {
						return err
					}
					return render(cmd, months)
				})
			}
			month0, err := f.month0()
			if err != nil {
				return err
			}
			return withEnv(cmd, func(ctx context.Context, env *dutyctl.Env) error {
				m, err := env.Service.Get(ctx, f.year, month0)
				if err != nil {
					return err
				}
				return render(cmd, m)
			})
		},
	}
	f.bind(cmd, false)
	return cmd
}

func rosterCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Print the ordered rotation roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, env *dutyctl.Env) error {
				var (
					members []models.Member
					err     error
				)
				if all {
					members, err = env.Service.FullRoster(ctx)
				} else {
					members, err = env.Service.Roster(ctx)
				}
				if err != nil {
					return err
				}
				return render(cmd, members)
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include inactive members")
	return cmd
}
