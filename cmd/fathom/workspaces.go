package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/fathomhq/fathom-cli/internal/api"
	"github.com/fathomhq/fathom-cli/internal/workspaces"
)

var workspacesCmd = &cobra.Command{
	Use:     "workspaces",
	Aliases: []string{"workspace", "ws"},
	Short:   "Manage workspaces",
}

func init() {
	workspacesCmd.AddCommand(workspacesListCmd)
	workspacesCmd.AddCommand(workspacesCreateCmd)
	workspacesCmd.AddCommand(workspacesViewCmd)
	workspacesCmd.AddCommand(workspacesDeleteCmd)
	workspacesCmd.AddCommand(workspacesSwitchCmd)
}

var workspacesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspaces in the organization",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := resolveSession()
		if err != nil {
			return err
		}

		list, err := workspaces.List(cmd.Context(), sess.client())
		if err != nil {
			return err
		}

		if flagJSON {
			out, err := json.Marshal(list)
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		fmt.Println(lipgloss.NewStyle().Bold(true).Render("Workspaces"))
		for _, ws := range list {
			fmt.Println(ws.Name)
		}
		return nil
	},
}

var workspacesCreateCmd = &cobra.Command{
	Use:   "create [NAME]",
	Short: "Create a workspace",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := resolveSession()
		if err != nil {
			return err
		}
		client := sess.client()

		var name string
		if len(args) > 0 {
			name = args[0]
		}
		if name == "" {
			if !isTTY(os.Stdin) {
				return fmt.Errorf("workspace name required. Use: fathom workspaces create <name>")
			}
			name, err = promptLine("Workspace name: ")
			if err != nil {
				return err
			}
		}
		if name == "" {
			return fmt.Errorf("workspace name cannot be empty")
		}

		existing, err := workspaces.GetByName(cmd.Context(), client, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("workspace %q already exists", name)
		}

		if _, err := workspaces.Create(cmd.Context(), client, name); err != nil {
			pterm.Error.Printfln("Failed to create %q", name)
			return err
		}
		pterm.Success.Printfln("Created %q", name)
		return nil
	},
}

var workspacesViewCmd = &cobra.Command{
	Use:   "view [NAME]",
	Short: "Open a workspace in the browser",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := resolveSession()
		if err != nil {
			return err
		}
		client := sess.client()

		name, err := workspaceNameFromArgsOrPicker(cmd, client, args)
		if err != nil {
			return err
		}

		ws, err := workspaces.GetByName(cmd.Context(), client, name)
		if err != nil {
			return err
		}
		if ws == nil {
			return fmt.Errorf("workspace %q not found", name)
		}

		url := workspaces.AppURL(sess.AppURL, sess.Org, ws.Name)
		if err := workspaces.OpenInBrowser(url); err != nil {
			return err
		}
		pterm.Success.Printfln("Opened %s in browser", url)
		return nil
	},
}

var workspacesDeleteCmd = &cobra.Command{
	Use:   "delete [NAME]",
	Short: "Delete a workspace",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := resolveSession()
		if err != nil {
			return err
		}
		client := sess.client()

		name, err := workspaceNameFromArgsOrPicker(cmd, client, args)
		if err != nil {
			return err
		}

		ws, err := workspaces.GetByName(cmd.Context(), client, name)
		if err != nil {
			return err
		}
		if ws == nil {
			return fmt.Errorf("workspace %q not found", name)
		}

		if isTTY(os.Stdin) {
			answer, err := promptLine(fmt.Sprintf("Delete workspace %q? [y/N] ", ws.Name))
			if err != nil {
				return err
			}
			if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
				return nil
			}
		}

		if err := workspaces.Delete(cmd.Context(), client, ws.ID); err != nil {
			pterm.Error.Printfln("Failed to delete %q", ws.Name)
			return err
		}
		pterm.Success.Printfln("Deleted %q", ws.Name)
		return nil
	},
}

var workspacesSwitchCmd = &cobra.Command{
	Use:   "switch [NAME]",
	Short: "Switch the active workspace",
	Long: `Switch the active workspace by printing an environment export.

The export line goes to stdout so the command composes with eval:
  eval $(fathom workspaces switch prod)`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := resolveSession()
		if err != nil {
			return err
		}
		client := sess.client()

		var name string
		if len(args) > 0 {
			name = args[0]
			ws, err := workspaces.GetByName(cmd.Context(), client, name)
			if err != nil {
				return err
			}
			if ws == nil {
				if !isTTY(os.Stdin) {
					return fmt.Errorf("workspace %q not found", name)
				}
				answer, err := promptLine(fmt.Sprintf("Workspace %q not found. Create it? [y/N] ", name))
				if err != nil {
					return err
				}
				if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
					return fmt.Errorf("workspace %q not found", name)
				}
				if _, err := workspaces.Create(cmd.Context(), client, name); err != nil {
					return err
				}
			}
		} else {
			name, err = pickWorkspace(cmd, client)
			if err != nil {
				return err
			}
		}

		printEnvExport("FATHOM_ORG_WORKSPACE", name, fmt.Sprintf("Switched to %s", name))
		return nil
	},
}

// workspaceNameFromArgsOrPicker takes the name from args, falling back to
// the interactive picker on a TTY.
func workspaceNameFromArgsOrPicker(cmd *cobra.Command, client *api.Client, args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if !isTTY(os.Stdin) {
		return "", fmt.Errorf("workspace name required in non-interactive mode")
	}
	return pickWorkspace(cmd, client)
}

func pickWorkspace(cmd *cobra.Command, client *api.Client) (string, error) {
	list, err := workspaces.List(cmd.Context(), client)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", fmt.Errorf("no workspaces found")
	}

	names := make([]string, 0, len(list))
	for _, ws := range list {
		names = append(names, ws.Name)
	}
	sort.Strings(names)

	return workspaces.Pick("Select workspace", names)
}

func promptLine(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// printEnvExport writes the export line to stdout and the shell hint to
// stderr, so `eval $(...)` picks up only the export.
func printEnvExport(name, value, contextMsg string) {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	fmt.Printf("export %s=\"%s\"\n", name, escaped)
	fmt.Fprintln(os.Stderr, contextMsg)

	if strings.Contains(os.Getenv("SHELL"), "fish") {
		fmt.Fprintln(os.Stderr, "Tip: fathom workspaces switch | source")
	} else {
		fmt.Fprintln(os.Stderr, "Tip: eval $(fathom workspaces switch)")
	}
}
