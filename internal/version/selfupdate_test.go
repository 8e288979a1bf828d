package version

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestChannelURLs(t *testing.T) {
	if got := ChannelStable.releaseAPIURL(); got != "https://api.github.com/repos/fathomhq/fathom-cli/releases/latest" {
		t.Errorf("stable release API URL = %q", got)
	}
	if got := ChannelCanary.releaseAPIURL(); got != "https://api.github.com/repos/fathomhq/fathom-cli/releases/tags/canary" {
		t.Errorf("canary release API URL = %q", got)
	}
	if got := ChannelStable.installerURL(); !strings.Contains(got, "releases/latest/download/fathom-installer") {
		t.Errorf("stable installer URL = %q", got)
	}
	if got := ChannelCanary.installerURL(); !strings.Contains(got, "releases/download/canary/fathom-installer") {
		t.Errorf("canary installer URL = %q", got)
	}
}

func TestParseChannel(t *testing.T) {
	tests := []struct {
		in      string
		want    Channel
		wantErr bool
	}{
		{"stable", ChannelStable, false},
		{"canary", ChannelCanary, false},
		{"Stable", ChannelStable, false},
		{"nightly", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseChannel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseChannel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseChannel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInstallerDetectionAcceptsReceipt(t *testing.T) {
	if !isInstallerManaged("/tmp/somewhere-else/fathom", true, "") {
		t.Error("Expected receipt to mark the install as installer-managed")
	}
}

func TestInstallerDetectionAcceptsInstallBin(t *testing.T) {
	bin := t.TempDir()
	exe := filepath.Join(bin, binaryName())
	if !isInstallerManaged(exe, false, bin) {
		t.Error("Expected binary inside the install bin to be installer-managed")
	}
}

func TestInstallerDetectionRejectsOtherLocations(t *testing.T) {
	if isInstallerManaged("/usr/local/bin/fathom", false, "/tmp/install/bin") {
		t.Error("Expected binary outside the install bin to be rejected")
	}
	if isInstallerManaged("/usr/local/bin/fathom", false, "") {
		t.Error("Expected unknown install bin to be rejected")
	}
}

func TestStableCheckMessage(t *testing.T) {
	msg := stableCheckMessage("0.1.0", "v0.1.0")
	if !strings.Contains(msg, "up to date") || !strings.Contains(msg, "v0.1.0") {
		t.Errorf("up-to-date message = %q", msg)
	}

	msg = stableCheckMessage("0.1.0", "v0.2.0")
	if !strings.Contains(msg, "update available") {
		t.Errorf("update message = %q", msg)
	}
	if !strings.Contains(msg, "current=0.1.0") || !strings.Contains(msg, "latest=v0.2.0") {
		t.Errorf("update message = %q", msg)
	}
}

func TestCanaryCheckMessage(t *testing.T) {
	msg := canaryCheckMessage("canary-deadbeef")
	if !strings.Contains(msg, "canary-deadbeef") {
		t.Errorf("canary message = %q", msg)
	}
	if !strings.Contains(msg, "fathom self update --channel canary") {
		t.Errorf("canary message = %q", msg)
	}
}
