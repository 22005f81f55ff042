package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"absence-assistant/internal/apperr"
	"absence-assistant/internal/models"
)

func weekCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "week YEAR WEEK",
		Short: "Show the absences and submission state of an ISO week",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, week, err := parseWeekArgs(args)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, env *Env) error {
				result, err := env.Service.GetWeekAbsences(ctx, opts.userID, year, week)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				return opts.print(w, result, func() {
					fmt.Fprintf(w, "%d-W%02d  %s..%s  %s\n", year, week, result.StartDate, result.EndDate, stateColor(result.State))
					printAbsences(w, result.Absences)
				})
			})
		},
	}
}

func submitCmd(opts *options) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "submit YEAR WEEK",
		Short: "Submit an ISO week timesheet",
		Long: `Submit an ISO week timesheet.

A week that holds absences is only submitted with --confirm; without it the
absences are listed for review and nothing is sent.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, week, err := parseWeekArgs(args)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, env *Env) error {
				result, err := env.Service.SubmitWeek(ctx, opts.userID, year, week, confirm)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				return opts.print(w, result, func() {
					fmt.Fprintf(w, "%d-W%02d  %s\n", year, week, stateColor(result.State))
					switch {
					case result.State == models.StateReviewRequired:
						printAbsences(w, result.Absences)
						fmt.Fprintln(w, warnColor.Sprint("Re-run with --confirm to submit with these absences."))
					case result.AlreadySubmitted:
						fmt.Fprintf(w, "  already submitted, reference %s\n", result.Reference)
					default:
						fmt.Fprintf(w, "  reference %s\n", result.Reference)
					}
				})
			})
		},
	}

	cmd.Flags().BoolVar(&confirm, "confirm", false, "acknowledge the week's absences and submit")
	return cmd
}

func parseWeekArgs(args []string) (int, int, error) {
	year, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, apperr.Validation("year", "must be a number, got %q", args[0])
	}
	week, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, apperr.Validation("week_no", "must be a number, got %q", args[1])
	}
	return year, week, nil
}
