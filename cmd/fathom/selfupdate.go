package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fathomhq/fathom-cli/internal/version"
)

var (
	flagUpdateCheck   bool
	flagUpdateChannel string
)

var selfCmd = &cobra.Command{
	Use:   "self",
	Short: "Manage this installation",
}

var selfUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update fathom in-place (installer-managed installs only)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		channel, err := version.ParseChannel(flagUpdateChannel)
		if err != nil {
			return err
		}

		if err := version.EnsureInstallerManaged(); err != nil {
			return err
		}

		if flagUpdateCheck {
			msg, err := version.CheckChannel(channel, version.Version)
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		}

		return version.RunInstaller(channel)
	},
}

func init() {
	selfUpdateCmd.Flags().BoolVar(&flagUpdateCheck, "check", false, "Check for updates without installing")
	selfUpdateCmd.Flags().StringVar(&flagUpdateChannel, "channel", "stable", "Update channel (stable/canary)")
	selfCmd.AddCommand(selfUpdateCmd)
}
