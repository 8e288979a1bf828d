package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fathomhq/fathom-cli/internal/api"
	"github.com/fathomhq/fathom-cli/internal/auth"
	"github.com/fathomhq/fathom-cli/internal/config"
	"github.com/fathomhq/fathom-cli/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fathom",
	Short: "Fathom CLI - query and manage the Fathom analytics service",
	Long: `Fathom CLI runs FQL queries against the Fathom service and manages
workspaces and credentials.

Run 'fathom query' without arguments to start the interactive query terminal.

Examples:
  fathom login                             # Store an API key
  fathom query                             # Interactive query terminal
  fathom query "select * from events"      # One-shot query, table output
  fathom query "select 1" -o json          # One-shot query, JSON output
  fathom workspaces list                   # List workspaces
  fathom self update --check               # Check for a newer release`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Persistent flags, each overriding the matching env var and setting.
var (
	flagAPIKey string
	flagAPIURL string
	flagAppURL string
	flagOrg    string
	flagJSON   bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "API key (env FATHOM_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "API base URL (env FATHOM_API_URL)")
	rootCmd.PersistentFlags().StringVar(&flagAppURL, "app-url", "", "Web app base URL (env FATHOM_APP_URL)")
	rootCmd.PersistentFlags().StringVar(&flagOrg, "org", "", "Organization name (env FATHOM_ORG_NAME)")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Output JSON instead of tables")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(workspacesCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(selfCmd)
	rootCmd.AddCommand(versionCmd)
}

// session is everything a command needs to talk to the service.
type session struct {
	APIURL string
	AppURL string
	Org    string
	APIKey string
}

// resolveSession layers flag > env > settings file > default for each
// connection parameter, then resolves the API key.
func resolveSession() (*session, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}

	s := &session{
		APIURL: firstNonEmpty(flagAPIURL, os.Getenv("FATHOM_API_URL"), settings.APIURL, config.DefaultAPIURL),
		Org:    firstNonEmpty(flagOrg, os.Getenv("FATHOM_ORG_NAME"), settings.OrgName),
	}
	s.AppURL = firstNonEmpty(flagAppURL, os.Getenv("FATHOM_APP_URL"), settings.AppURL, config.DeriveAppURL(s.APIURL))

	key, err := auth.ResolveAPIKey(firstNonEmpty(flagAPIKey, os.Getenv("FATHOM_API_KEY")))
	if err != nil {
		return nil, err
	}
	s.APIKey = key
	return s, nil
}

func (s *session) client() *api.Client {
	return api.New(s.APIURL, s.APIKey, s.Org)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// isTTY reports whether f is an interactive terminal. Confirmation prompts
// are skipped when it is not.
func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("fathom %s\n", version.Version)

		available, latest, url, err := version.CheckForUpdate(version.Version)
		if err != nil {
			// Offline or rate-limited; the local version already printed.
			return nil
		}
		if available {
			fmt.Printf("update available: %s (%s)\n", latest, url)
		}
		return nil
	},
}
