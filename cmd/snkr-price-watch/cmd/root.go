// Package cmd implements the CLI commands for snkr-price-watch.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "snkr-price-watch",
	Short: "Monitor sneaker marketplace prices",
	Long: "An API-first service that tracks sneaker marketplace listings, " +
		"watches per-size prices on a schedule, and pushes notifications " +
		"to LINE, Discord, and Chatwork when configured price rules fire.",
}

func init() {
	rootCmd.PersistentFlags().String("config", "config.yaml", "config file path")

	cobra.CheckErr(viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")))

	viper.SetEnvPrefix("SPW")
	viper.AutomaticEnv()
}

// configPath resolves the config file location from the --config flag or
// the SPW_CONFIG environment variable.
func configPath() string {
	return viper.GetString("config")
}

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
