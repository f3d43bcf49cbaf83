package main

import (
	"fmt"

	"github.com/jrsteele09/go-session-manager/internal/config"
	"github.com/spf13/cobra"
)

var BuildVersion = "dev"

var rootCmd = &cobra.Command{
	Use:   "session-manager",
	Short: "GOAT session token manager",
	Long:  "Signs users in against a Keycloak realm and keeps their session token fresh.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	})

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the environment configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load()
			if err != nil {
				return err
			}
			cmd.Printf("configuration ok: provider=%s issuer=%s base_url=%s env=%s\n",
				c.GetProviderID(), c.GetIssuer(), c.GetBaseURL(), c.GetEnv())
			return nil
		},
	})
	rootCmd.AddCommand(configCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("%s\n", BuildVersion)
		},
	})
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("session-manager: %w", err)
	}
	return nil
}
