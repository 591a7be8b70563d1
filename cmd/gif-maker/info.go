package main

import (
	"fmt"

	"github.com/fpang/gif-maker/internal/config"
	"github.com/spf13/cobra"
)

var animationsCmd = &cobra.Command{
	Use:   "animations",
	Short: "List the animation effects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		for _, a := range cfg.Animations {
			fmt.Fprintln(cmd.OutOrStdout(), a)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as TOML",
	Long: `Config prints the configuration after defaults, the config file,
environment variables and flags have been applied. The output is a valid
config file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := config.Encode(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(animationsCmd, configCmd)
}
