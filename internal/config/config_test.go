package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CODEWING_HOME", home)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultProvider != "openai" {
		t.Fatalf("default provider = %q", cfg.DefaultProvider)
	}
	if cfg.RequestTimeout != DefaultRequestTimeout {
		t.Fatalf("timeout = %v", cfg.RequestTimeout)
	}
	if cfg.HomeDir != home {
		t.Fatalf("home = %q", cfg.HomeDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CODEWING_HOME", home)
	writeConfig(t, home, `
request_timeout = "90s"
default_provider = "anthropic"

[placeholders]
project = "codewing"

[providers.anthropic]
base_url = "http://localhost:9999"

[[commands]]
id = "greet"
message = "Say hi to {{project}}"
insertion = "after"
temperature = 0.9
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RequestTimeout != 90*time.Second {
		t.Fatalf("timeout = %v", cfg.RequestTimeout)
	}
	if cfg.DefaultProvider != "anthropic" {
		t.Fatalf("default provider = %q", cfg.DefaultProvider)
	}
	if got := cfg.Provider("anthropic").BaseURL; got != "http://localhost:9999" {
		t.Fatalf("base url = %q", got)
	}
	if cfg.Placeholders["project"] != "codewing" {
		t.Fatalf("placeholders = %v", cfg.Placeholders)
	}
	if len(cfg.Commands) != 1 || cfg.Commands[0].ID != "greet" {
		t.Fatalf("commands = %+v", cfg.Commands)
	}
	if cfg.Commands[0].Temperature == nil || *cfg.Commands[0].Temperature != 0.9 {
		t.Fatalf("temperature = %v", cfg.Commands[0].Temperature)
	}
}

func TestLoadExpandsEnvInStrings(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CODEWING_HOME", home)
	t.Setenv("CODEWING_TEST_KEY", "sekrit")
	writeConfig(t, home, `
[providers.openai]
api_key = "$CODEWING_TEST_KEY"
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.Provider("openai").APIKey; got != "sekrit" {
		t.Fatalf("api key = %q", got)
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CODEWING_HOME", home)
	writeConfig(t, home, "default_provider = [broken")

	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestProviderUnknownReturnsZeroProfile(t *testing.T) {
	cfg := &Config{}
	if got := cfg.Provider("nope"); !reflect.DeepEqual(got, ProviderConfig{}) {
		t.Fatalf("profile = %+v", got)
	}
}

func TestValidateCommands(t *testing.T) {
	cases := []struct {
		name string
		cmd  CommandConfig
		ok   bool
	}{
		{"valid", CommandConfig{ID: "x", Message: "do it"}, true},
		{"label only", CommandConfig{Label: "Do It", Message: "do it"}, true},
		{"missing message", CommandConfig{ID: "x"}, false},
		{"missing id and label", CommandConfig{Message: "do it"}, false},
		{"bad insertion", CommandConfig{ID: "x", Message: "m", Insertion: "sideways"}, false},
		{"good insertion", CommandConfig{ID: "x", Message: "m", Insertion: "replace"}, true},
	}
	for _, tc := range cases {
		err := tc.cmd.Validate()
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestValidateConfig(t *testing.T) {
	cfg := &Config{RequestTimeout: time.Second, DefaultProvider: "openai"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	cfg.RequestTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected timeout error")
	}

	cfg.RequestTimeout = time.Second
	cfg.DefaultProvider = ""
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected provider error")
	}
}
