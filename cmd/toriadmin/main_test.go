package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/toribox/toriadmin/internal/config"
	"github.com/toribox/toriadmin/internal/services/toribox"
)

func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func setTestEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_DIR", t.TempDir())
	t.Setenv("TORIBOX_API_URL", "http://127.0.0.1:1")
	t.Setenv("ADMIN_EMAIL", "admin@tori-box.com")
	t.Setenv("ADMIN_PASSWORD", "secret")
	t.Setenv("TORIBOX_ADMIN_TOKEN", "tok")
	t.Setenv("LOG_LEVEL", "error")
}

func TestCommandTree(t *testing.T) {
	root := newRootCommand()
	want := []string{
		"serve", "movies", "episodes", "dashboard", "transactions", "transaction",
		"wallet", "topup", "upload-episode", "upload-movie", "uploads",
		"rate", "unrate", "search-query", "bunny", "login", "logout",
	}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("Expected command %q to exist", name)
		}
	}
}

func TestLoginLogout(t *testing.T) {
	setTestEnv(t)

	if _, err := executeCommand(t, "wrong\n", "login", "--email", "admin@tori-box.com"); err == nil {
		t.Fatal("Expected login with a wrong password to fail")
	}

	out, err := executeCommand(t, "secret\n", "login", "--email", "admin@tori-box.com")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !strings.Contains(out, "Logged in as admin@tori-box.com") {
		t.Errorf("Unexpected login output %q", out)
	}

	if _, err := executeCommand(t, "", "logout"); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	_, err = executeCommand(t, "", "wallet")
	if !errors.Is(err, toribox.ErrNotAuthenticated) {
		t.Errorf("Expected ErrNotAuthenticated after logout, got %v", err)
	}
}

func TestRenderTable(t *testing.T) {
	got := renderTable([]column{textCol("Stat"), numCol("Count")}, [][]string{{"Movies", "12", "ignored"}, {"Episodes"}})
	for _, want := range []string{"Stat", "Movies", "12", "Episodes"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected %q in table:\n%s", want, got)
		}
	}
	if strings.Contains(got, "ignored") {
		t.Errorf("Expected cells past the last column to be dropped:\n%s", got)
	}
	if !strings.Contains(renderTable([]column{textCol("ID")}, nil), "no entries") {
		t.Error("Expected a caption for an empty table")
	}
	if renderTable(nil, nil) != "" {
		t.Error("Expected empty output without columns")
	}
}

func TestBunnyTable(t *testing.T) {
	client, err := toribox.NewClient(&config.Config{APIBaseURL: "http://127.0.0.1:1", BunnyCDNURL: "https://cdn.example"}, logrus.New())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	videos := []toribox.BunnyVideo{
		{GUID: "g1", Title: "Episode 1", Length: 60, HasMP4Fallback: true},
		{GUID: "g2", Title: "Episode 2", Length: 90},
	}

	cols, rows := bunnyTable(client, videos, false)
	if len(cols) != 4 || len(rows[0]) != 4 {
		t.Fatalf("Expected 4 columns without thumbnails, got %d", len(cols))
	}
	if rows[0][3] != "https://cdn.example/g1/play_720p.mp4" {
		t.Errorf("Unexpected play URL %q", rows[0][3])
	}
	if rows[1][3] != "-" {
		t.Errorf("Expected no play URL without MP4 fallback, got %q", rows[1][3])
	}

	cols, rows = bunnyTable(client, videos, true)
	if len(cols) != 5 || rows[1][4] != "https://cdn.example/g2/thumbnail.jpg" {
		t.Errorf("Unexpected thumbnail column %v %v", cols, rows[1])
	}
}
