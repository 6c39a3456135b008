package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fjod/go_cart/storefront/internal/app"
	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// options carries what the persistent pre-run resolves for subcommands.
type options struct {
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront client: session, cart and checkout against the shop backend",
		Long: `storefront keeps a customer session and a shopping cart on this device and
mirrors the cart to the shop backend while signed in.

Run "storefront serve" for the local HTTP surface, or use the subcommands
to drive the same stores from the shell.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if path == "" {
				path = os.Getenv("STOREFRONT_CONFIG")
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if opts.verbose {
				cfg.LogLevel = "debug"
			}
			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (or set STOREFRONT_CONFIG)")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newLoginCmd(opts))
	root.AddCommand(newLogoutCmd(opts))
	root.AddCommand(newRegisterCmd(opts))
	root.AddCommand(newWhoamiCmd(opts))
	root.AddCommand(newCartCmd(opts))
	root.AddCommand(newProductsCmd())
	root.AddCommand(newOrdersCmd(opts))
	root.AddCommand(newCheckoutCmd(opts))
	root.AddCommand(newPostalCmd(opts))
	root.AddCommand(newShippingCmd(opts))

	return root
}

// withApp restores the session, runs fn and closes the app, waiting for
// pending cart mirror writes.
func withApp(cmd *cobra.Command, opts *options, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, opts.cfg, opts.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			opts.logger.Warn("close app", zap.Error(err))
		}
	}()

	a.Start(ctx)
	return fn(ctx, a)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
