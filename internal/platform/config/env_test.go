package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type envTestConfig struct {
	Winners int `env:"FAIRDRAW_TEST_WINNERS" envDefault:"660"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Winners != 660 {
		t.Fatalf("expected default winners 660, got %d", cfg.Winners)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("FAIRDRAW_TEST_WINNERS", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	body := "FAIRDRAW_TEST_DOTENV_NEW=from-file\nFAIRDRAW_TEST_DOTENV_SET=from-file\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	t.Setenv("FAIRDRAW_TEST_DOTENV_SET", "from-env")
	t.Setenv("FAIRDRAW_TEST_DOTENV_NEW", "")
	os.Unsetenv("FAIRDRAW_TEST_DOTENV_NEW")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if got := os.Getenv("FAIRDRAW_TEST_DOTENV_NEW"); got != "from-file" {
		t.Fatalf("new value = %q, want from-file", got)
	}
	if got := os.Getenv("FAIRDRAW_TEST_DOTENV_SET"); got != "from-env" {
		t.Fatalf("existing value = %q, want from-env", got)
	}
}

func TestLoadDotEnvSkipsMissingFiles(t *testing.T) {
	if err := LoadDotEnv("", filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
}
