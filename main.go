package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"shopfront/internal/config"
	"shopfront/internal/logging"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "shopfront",
	Short: "Product catalog and shopping cart backed by a remote products API",
	Long: `shopfront keeps a local copy of a remote product catalog, lets you
create, edit and delete products through that API, and maintains a
shopping cart that can be persisted between runs.

Configuration is read from the environment (APP_PORT, PRODUCTS_API_URL,
CART_PERSISTENCE, ...).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		if offline, _ := cmd.Flags().GetBool("offline"); offline {
			cfg.Offline = true
		}
		logger, err = logging.New(cfg.LogLevel)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("offline", false, "use an in-memory catalog instead of the products API")
	rootCmd.AddCommand(serveCmd, productsCmd, eventsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
