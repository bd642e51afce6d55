package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/bytescookies/cookievault/internal/interfaces/cli/client"
	"github.com/bytescookies/cookievault/internal/interfaces/cli/migrate"
	"github.com/bytescookies/cookievault/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cookievault",
		Short: "CookieVault - encrypted cookie sync backend",
		Long:  `CookieVault is the sync backend for the CookieVault browser extension, providing authentication, device tracking and encrypted cookie storage.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		client.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
