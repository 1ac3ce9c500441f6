package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Tone         string        `split_words:"true" default:"professional"`
	StepInterval time.Duration `split_words:"true" default:"1s"`
	Region       string        `split_words:"true"`
}

func TestNewLoadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "CFGTEST_TONE=friendly\nCFGTEST_STEP_INTERVAL=250ms\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() {
		os.Unsetenv("CFGTEST_TONE")
		os.Unsetenv("CFGTEST_STEP_INTERVAL")
		SetEnvFile("")
	})

	SetEnvFile(path)
	cfg, err := New[testConfig]("CFGTEST")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.Tone != "friendly" {
		t.Fatalf("Tone = %q, want friendly", cfg.Tone)
	}
	if cfg.StepInterval != 250*time.Millisecond {
		t.Fatalf("StepInterval = %v, want 250ms", cfg.StepInterval)
	}
}

func TestNewEnvironmentWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("CFGWIN_REGION=file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CFGWIN_REGION", "env")
	t.Cleanup(func() { SetEnvFile("") })

	SetEnvFile(path)
	cfg, err := New[testConfig]("CFGWIN")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.Region != "env" {
		t.Fatalf("Region = %q, want env", cfg.Region)
	}
}

func TestNewMissingExplicitFile(t *testing.T) {
	t.Cleanup(func() { SetEnvFile("") })

	SetEnvFile(filepath.Join(t.TempDir(), "missing.env"))
	if _, err := New[testConfig]("CFGMISSING"); err == nil {
		t.Fatal("expected error for missing env file")
	}
}

func TestNewDefaults(t *testing.T) {
	t.Cleanup(func() { SetEnvFile("") })
	SetEnvFile("")

	cfg, err := New[testConfig]("CFGDEFAULT")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cfg.Tone != "professional" {
		t.Fatalf("Tone = %q, want professional", cfg.Tone)
	}
	if cfg.StepInterval != time.Second {
		t.Fatalf("StepInterval = %v, want 1s", cfg.StepInterval)
	}
}
