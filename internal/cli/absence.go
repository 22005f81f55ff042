package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"absence-assistant/internal/calendar"
	"absence-assistant/internal/models"
)

func fillCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "fill DATE REASON...",
		Short: "Record an absence; the reason is free text",
		Example: `  absencectl fill 2025-03-10 feeling unwell
  absencectl -u jdoe fill 2025-03-11 worked from home`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, env *Env) error {
				absence, err := env.Service.FillAbsence(ctx, opts.userID, args[0], strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				return opts.print(w, absence, func() {
					fmt.Fprintf(w, "%s %s %s: %s (%s, confidence %.0f)\n",
						okColor.Sprint("✓"), absence.UserID, absence.Date,
						absence.Reason, justifiedColor(absence.Justified), absence.Confidence)
					if absence.LowConfidence {
						fmt.Fprintln(w, warnColor.Sprint("  reason not recognized, filed with the default"))
					}
				})
			})
		},
	}
}

func checkCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check DATE",
		Short: "Show whether the user is absent on a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, env *Env) error {
				status, err := env.Service.IsAbsent(ctx, opts.userID, args[0])
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				return opts.print(w, status, func() {
					if !status.IsAbsent {
						fmt.Fprintf(w, "%s is not absent on %s\n", status.UserID, status.Date)
						return
					}
					fmt.Fprintf(w, "%s is absent on %s: %s (%s)\n",
						status.UserID, status.Date, *status.Reason, justifiedColor(*status.Justified))
				})
			})
		},
	}
}

func listCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list START END",
		Short: "List absences between two dates, inclusive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := calendar.ParseDateRange(args[0], args[1])
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, env *Env) error {
				absences, err := env.Service.GetAbsences(ctx, opts.userID, r)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				return opts.print(w, absences, func() {
					fmt.Fprintf(w, "Absences of %s, %s\n", opts.userID, r)
					printAbsences(w, absences)
				})
			})
		},
	}
}

func countCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "count START END",
		Short: "Count absences between two dates by justification and reason",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := calendar.ParseDateRange(args[0], args[1])
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, env *Env) error {
				count, err := env.Service.CountAbsences(ctx, opts.userID, r)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				return opts.print(w, count, func() {
					fmt.Fprintf(w, "Absences of %s, %s\n", opts.userID, r)
					fmt.Fprintf(w, "  total        %d\n", count.Total)
					fmt.Fprintf(w, "  justified    %d\n", count.Justified)
					fmt.Fprintf(w, "  unjustified  %d\n", count.Unjustified)
					fmt.Fprintf(w, "  ratio        %s\n", count.JustifiedRatio.StringFixed(2))
					for _, reason := range models.Reasons {
						fmt.Fprintf(w, "  %-18s %d\n", reason, count.ByReason[reason])
					}
				})
			})
		},
	}
}
