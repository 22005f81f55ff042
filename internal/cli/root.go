// Package cli implements absencectl, the operator command line for the
// absence service.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"absence-assistant/internal/models"
	"absence-assistant/internal/tools"
)

// Env is an opened service for one command run.
type Env struct {
	Service  tools.Service
	Registry *tools.Registry
	Close    func() error
}

// Opener builds the Env; main wires it to the configured storage.
type Opener func(ctx context.Context) (*Env, error)

type options struct {
	open   Opener
	userID string
	asJSON bool
}

func NewRootCmd(open Opener) *cobra.Command {
	opts := &options{open: open}

	rootCmd := &cobra.Command{
		Use:           "absencectl",
		Short:         "Record, query and submit employee absences",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultUser := os.Getenv("ABSENCE_USER")
	if defaultUser == "" {
		defaultUser = os.Getenv("USER")
	}
	rootCmd.PersistentFlags().StringVarP(&opts.userID, "user", "u", defaultUser, "user ID to act on (env ABSENCE_USER)")
	rootCmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print results as JSON")

	rootCmd.AddCommand(fillCmd(opts))
	rootCmd.AddCommand(checkCmd(opts))
	rootCmd.AddCommand(listCmd(opts))
	rootCmd.AddCommand(countCmd(opts))
	rootCmd.AddCommand(weekCmd(opts))
	rootCmd.AddCommand(submitCmd(opts))
	rootCmd.AddCommand(toolsCmd(opts))

	return rootCmd
}

// run opens the service, executes fn and closes the service again.
func (o *options) run(cmd *cobra.Command, fn func(ctx context.Context, env *Env) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	env, err := o.open(ctx)
	if err != nil {
		return fmt.Errorf("open absence service: %w", err)
	}
	if env.Close != nil {
		defer env.Close()
	}
	return fn(ctx, env)
}

// print writes v as JSON when --json is set, otherwise calls human.
func (o *options) print(w io.Writer, v any, human func()) error {
	if !o.asJSON {
		human()
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	dimColor  = color.New(color.FgHiBlack)
)

func stateColor(state models.SubmissionState) string {
	switch state {
	case models.StateSubmitted:
		return okColor.Sprint(state)
	case models.StateReviewRequired:
		return warnColor.Sprint(state)
	default:
		return dimColor.Sprint(state)
	}
}

func justifiedColor(justified bool) string {
	if justified {
		return okColor.Sprint("justified")
	}
	return warnColor.Sprint("unjustified")
}

func printAbsences(w io.Writer, absences []models.Absence) {
	if len(absences) == 0 {
		fmt.Fprintln(w, dimColor.Sprint("  (no absences)"))
		return
	}
	for _, a := range absences {
		fmt.Fprintf(w, "  %s  %-18s %s\n", a.Date, a.Reason, justifiedColor(a.Justified))
	}
}
