// Command filterctl runs facet maintenance outside the HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Modeva-Ecommerce/modeva-catalog-filters/config"
	"github.com/Modeva-Ecommerce/modeva-catalog-filters/logger"
)

func init() {
	_ = godotenv.Load()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "filterctl",
		Short:         "Maintain Modeva catalog filters",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", os.Getenv("CONFIG_FILE"), "config file path")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		logger.Setup(cfg.Log.Level, cfg.Log.Format)
		return cfg, nil
	}

	root.AddCommand(newSyncCmd(load), newWorkerCmd(load), newTokenCmd(load))
	return root
}

type configLoader func() (*config.Config, error)
