package cmd

import (
	"fmt"

	"storefront/internal/config"
	"storefront/pkg/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile string
	logLevel   string
}

// Execute runs the storefront command line.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront is a small shop: catalog, accounts, session cart and checkout",
		Example: `storefront serve --config storefront.yaml
  storefront create-admin --username alice --password s3cret`,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Path to config file (default: search for storefront.yaml in ., ~/.storefront, /etc/storefront)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error); overrides LOG_LEVEL")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newCreateAdminCmd(opts))
	return root
}

// load reads the configuration and builds the logger.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	log := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: cmd.ErrOrStderr(),
	})
	return cfg, log, nil
}
