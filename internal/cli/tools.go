package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func toolsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List or call agent tools",
	}
	cmd.AddCommand(toolsListCmd(opts))
	cmd.AddCommand(toolsCallCmd(opts))
	return cmd
}

func toolsListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the agent tools and their arguments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, env *Env) error {
				infos := env.Registry.Describe()
				w := cmd.OutOrStdout()
				return opts.print(w, infos, func() {
					for _, info := range infos {
						fmt.Fprintf(w, "%s(%s)\n", okColor.Sprint(info.Name), strings.Join(info.Arguments, ", "))
						fmt.Fprintf(w, "    %s\n", info.Description)
					}
				})
			})
		},
	}
}

func toolsCallCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "call NAME [JSON]",
		Short:   "Invoke a tool with a JSON argument object",
		Example: `  absencectl tools call is_absent '{"user_id":"jdoe","date":"2025-03-10"}'`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := []byte(`{}`)
			if len(args) == 2 {
				raw = []byte(args[1])
			}
			return opts.run(cmd, func(ctx context.Context, env *Env) error {
				res := env.Registry.InvokeJSON(ctx, args[0], raw)

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
				if !res.OK() {
					return errors.New(res.Error)
				}
				return nil
			})
		},
	}
}
