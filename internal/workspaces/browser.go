package workspaces

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// AppURL builds the web app URL for a workspace.
func AppURL(appBase, orgName, workspace string) string {
	return fmt.Sprintf("%s/app/%s/w/%s",
		strings.TrimRight(appBase, "/"),
		url.PathEscape(orgName),
		url.PathEscape(workspace))
}

// OpenInBrowser opens a URL with the platform's default browser.
func OpenInBrowser(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
