package version

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fathomhq/fathom-cli/internal/config"
)

// Channel selects which release stream self-update follows.
type Channel string

const (
	ChannelStable Channel = "stable"
	ChannelCanary Channel = "canary"
)

// ParseChannel validates a --channel flag value.
func ParseChannel(s string) (Channel, error) {
	switch Channel(strings.ToLower(s)) {
	case ChannelStable:
		return ChannelStable, nil
	case ChannelCanary:
		return ChannelCanary, nil
	default:
		return "", fmt.Errorf("unknown channel %q (expected stable or canary)", s)
	}
}

func (c Channel) installerURL() string {
	if runtime.GOOS == "windows" {
		if c == ChannelCanary {
			return "https://github.com/fathomhq/fathom-cli/releases/download/canary/fathom-installer.ps1"
		}
		return "https://github.com/fathomhq/fathom-cli/releases/latest/download/fathom-installer.ps1"
	}
	if c == ChannelCanary {
		return "https://github.com/fathomhq/fathom-cli/releases/download/canary/fathom-installer.sh"
	}
	return "https://github.com/fathomhq/fathom-cli/releases/latest/download/fathom-installer.sh"
}

func (c Channel) releaseAPIURL() string {
	if c == ChannelCanary {
		return githubAPIBase + "/releases/tags/canary"
	}
	return githubAPIBase + "/releases/latest"
}

// EnsureInstallerManaged verifies the running binary came from the
// standalone installer. Package-manager installs must update through
// their package manager instead.
func EnsureInstallerManaged() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to resolve current executable path: %w", err)
	}

	receiptExists := false
	if receipt, err := config.ReceiptPath(); err == nil {
		if _, err := os.Stat(receipt); err == nil {
			receiptExists = true
		}
	}

	if isInstallerManaged(exe, receiptExists, localBinPath()) {
		return nil
	}

	return fmt.Errorf("self-update is only supported for installer-based installs.\ncurrent executable: %s\nif this was installed with Homebrew/apt/choco/etc, update with that package manager", exe)
}

// isInstallerManaged reports whether the binary at exe was placed by the
// installer: either a receipt file exists, or exe sits in the installer's
// bin directory.
func isInstallerManaged(exe string, receiptExists bool, installBin string) bool {
	if receiptExists {
		return true
	}
	if installBin == "" {
		return false
	}
	return pathsEqual(exe, filepath.Join(installBin, binaryName()))
}

func localBinPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "bin")
}

func binaryName() string {
	if runtime.GOOS == "windows" {
		return "fathom.exe"
	}
	return "fathom"
}

func pathsEqual(a, b string) bool {
	left, err := filepath.EvalSymlinks(a)
	if err != nil {
		left = a
	}
	right, err := filepath.EvalSymlinks(b)
	if err != nil {
		right = b
	}
	return left == right
}

// CheckChannel fetches the latest release on the channel and returns a
// human-readable status line.
func CheckChannel(channel Channel, current string) (string, error) {
	release, err := fetchRelease(channel.releaseAPIURL(), current)
	if err != nil {
		return "", fmt.Errorf("failed to check for updates: %w", err)
	}

	if channel == ChannelCanary {
		return canaryCheckMessage(release.TagName), nil
	}
	return stableCheckMessage(current, release.TagName), nil
}

func stableCheckMessage(current, releaseTag string) string {
	latest := strings.TrimPrefix(releaseTag, "v")
	if latest == strings.TrimPrefix(current, "v") {
		return fmt.Sprintf("fathom %s is up to date on the stable channel (%s)", current, releaseTag)
	}
	return fmt.Sprintf("update available on stable channel: current=%s, latest=%s", current, releaseTag)
}

func canaryCheckMessage(releaseTag string) string {
	return fmt.Sprintf("latest canary release tag: %s\nrun `fathom self update --channel canary` to install it", releaseTag)
}

// RunInstaller downloads and executes the installer for the channel,
// replacing the current binary in place.
func RunInstaller(channel Channel) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		script := fmt.Sprintf("irm %s | iex", channel.installerURL())
		cmd = exec.Command("powershell", "-NoProfile", "-ExecutionPolicy", "Bypass", "-Command", script)
	} else {
		script := fmt.Sprintf("curl -fsSL '%s' | sh", channel.installerURL())
		cmd = exec.Command("sh", "-c", script)
	}

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	fmt.Printf("updating fathom from %s channel...\n", channel)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("installer failed: %w", err)
	}
	fmt.Println("update completed")
	return nil
}
