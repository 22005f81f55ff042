package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"

	"absence-assistant/internal/app"
	"absence-assistant/internal/cli"
	"absence-assistant/internal/config"
)

func main() {
	open := func(ctx context.Context) (*cli.Env, error) {
		cfg := config.GetConfig()
		a, err := app.New(ctx, cfg, cfg.NewLogger())
		if err != nil {
			return nil, err
		}
		return &cli.Env{
			Service:  a.Service,
			Registry: a.Registry,
			Close:    func() error { return a.Close(context.Background()) },
		}, nil
	}

	if err := cli.NewRootCmd(open).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %s", err))
		os.Exit(1)
	}
}
