package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arbitengine/shellcaster/internal/app"
	"github.com/arbitengine/shellcaster/internal/config"
)

var authCmd = &cobra.Command{
	Use:   "auth <platform>",
	Short: "Run the interactive consent flow for a platform",
	Long: `Run the OAuth consent flow ahead of time so publishing does not
have to stop for it. Supported platforms: blogger, x, linkedin.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"blogger", "x", "linkedin"},
	RunE:      runAuth,
}

func init() {
	rootCmd.AddCommand(authCmd)
}

// authorizable is implemented by adapters with an interactive consent flow.
type authorizable interface {
	Authorize(ctx context.Context) error
}

func runAuth(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if args[0] == "blogger" {
		if err := cfg.ValidateForBlogger(); err != nil {
			return err
		}
	}

	a := app.New(cfg)
	pub := a.Publisher(args[0])
	if pub == nil {
		return fmt.Errorf("unknown platform: %s", args[0])
	}
	flow, ok := pub.(authorizable)
	if !ok {
		return fmt.Errorf("%s does not use an interactive consent flow", args[0])
	}

	if err := flow.Authorize(context.Background()); err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("Authorized with %s.", capitalize(args[0]))))
	return nil
}
