package main

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/fathomhq/fathom-cli/internal/api"
	"github.com/fathomhq/fathom-cli/internal/auth"
	"github.com/fathomhq/fathom-cli/internal/config"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an API key for the Fathom service",
	Long: `Store an API key in the OS keyring.

The key is validated against the service before it is stored. Pass it with
--api-key or FATHOM_API_KEY, or enter it at the prompt.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key := firstNonEmpty(flagAPIKey, os.Getenv("FATHOM_API_KEY"))
		if key == "" {
			if !isTTY(os.Stdin) {
				return fmt.Errorf("API key required. Pass --api-key or set FATHOM_API_KEY")
			}
			var err error
			key, err = promptLine("API key: ")
			if err != nil {
				return err
			}
		}
		if key == "" {
			return fmt.Errorf("API key cannot be empty")
		}

		settings, err := config.Load()
		if err != nil {
			return err
		}
		apiURL := firstNonEmpty(flagAPIURL, os.Getenv("FATHOM_API_URL"), settings.APIURL, config.DefaultAPIURL)

		// Validate before storing. /v1/me answers 401 for a bad key.
		client := api.New(apiURL, key, "")
		var me struct {
			ID      string `json:"id"`
			Email   string `json:"email,omitempty"`
			OrgName string `json:"org_name,omitempty"`
		}
		if err := client.Get(cmd.Context(), "/v1/me", &me); err != nil {
			pterm.Error.Println("Failed to validate API key")
			return err
		}

		if err := auth.StoreAPIKey(key); err != nil {
			return err
		}

		// Remember the org the key belongs to so queries are scoped
		// without requiring --org every time.
		if me.OrgName != "" && settings.OrgName == "" {
			settings.OrgName = me.OrgName
			if err := config.Save(settings); err != nil {
				return err
			}
		}

		pterm.Success.Println("Logged in")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := auth.ClearAPIKey(); err != nil {
			return err
		}
		pterm.Success.Println("Logged out")
		return nil
	},
}
