package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subgen/internal/workdir"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func setupCLITestEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv(workdir.EnvOutputsRoot, t.TempDir())
	t.Setenv("GROQ_API_KEY", "test-key")
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	setupCLITestEnv(t)
	target := filepath.Join(t.TempDir(), "subgen.toml")

	out, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected output: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite must fail")
	}
	if _, err := runCLI(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("init with --overwrite: %v", err)
	}
}

func TestConfigShowMasksCredentials(t *testing.T) {
	setupCLITestEnv(t)
	out, err := runCLI(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "test-key") {
		t.Fatal("api key must not be printed")
	}
	if !strings.Contains(out, "[asr]") || !strings.Contains(out, "[subtitles]") {
		t.Fatalf("expected toml sections in output:\n%s", out)
	}
}

func TestConfigPathPrintsResolvedLocation(t *testing.T) {
	setupCLITestEnv(t)
	out, err := runCLI(t, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), "subgen.toml") {
		t.Fatalf("unexpected path output: %q", out)
	}
}

func TestRunWithoutURLFails(t *testing.T) {
	setupCLITestEnv(t)
	_, err := runCLI(t, "run")
	if err == nil {
		t.Fatal("run without a url must fail")
	}
	if !strings.Contains(err.Error(), "url required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHistoryEmptyLedger(t *testing.T) {
	setupCLITestEnv(t)
	out, err := runCLI(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "No runs recorded yet") {
		t.Fatalf("unexpected output: %q", out)
	}
}
