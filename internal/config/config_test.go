// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"bastion/internal/issue"
	"bastion/internal/testutil"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DefaultNamespace != "core" {
		t.Errorf("expected default namespace to be core, got %s", cfg.DefaultNamespace)
	}

	if len(cfg.SearchPaths) != 0 {
		t.Errorf("expected default search paths to be empty, got %v", cfg.SearchPaths)
	}

	if len(cfg.PackAliases) != 0 {
		t.Errorf("expected default pack aliases to be empty, got %v", cfg.PackAliases)
	}

	if !cfg.Watch.Enabled {
		t.Error("expected watch to be enabled by default")
	}

	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("expected default debounce to be 500ms, got %s", cfg.Watch.Debounce)
	}

	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("expected default color scheme to be auto, got %s", cfg.UI.ColorScheme)
	}

	if cfg.UI.Verbose {
		t.Error("expected default verbose to be false")
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME handling is Linux-specific")
	}

	testXDGPath := "/tmp/test-xdg-config"
	restoreXDG := testutil.MustSetenv(t, "XDG_CONFIG_HOME", testXDGPath)
	defer restoreXDG()

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}

	expected := filepath.Join(testXDGPath, AppName)
	if dir != expected {
		t.Errorf("ConfigDir() = %s, want %s", dir, expected)
	}
}

func TestConfigDirOverride(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	got, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if got != dir {
		t.Errorf("ConfigDir() = %s, want %s", got, dir)
	}
}

func TestPacksDir(t *testing.T) {
	home := t.TempDir()
	t.Cleanup(testutil.SetHomeDir(t, home))

	dir, err := PacksDir()
	if err != nil {
		t.Fatalf("PacksDir() returned error: %v", err)
	}

	expected := filepath.Join(home, ".bastion", "packs")
	if dir != expected {
		t.Errorf("PacksDir() = %s, want %s", dir, expected)
	}
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	cfgDir := t.TempDir()

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: cfgDir})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.DefaultNamespace != "core" {
		t.Errorf("DefaultNamespace = %s, want core", cfg.DefaultNamespace)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Debounce = %s, want 500ms", cfg.Watch.Debounce)
	}
}

func TestLoadFromConfigDir(t *testing.T) {
	cfgDir := t.TempDir()
	content := `
default_namespace: "mods"

search_paths: ["/srv/packs"]

watch: {
	enabled:  true
	debounce: "2s"
}

ui: {
	color_scheme: "dark"
	verbose:      true
}
`
	if err := os.WriteFile(filepath.Join(cfgDir, "config.cue"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: cfgDir})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.DefaultNamespace != "mods" {
		t.Errorf("DefaultNamespace = %s, want mods", cfg.DefaultNamespace)
	}
	if len(cfg.SearchPaths) != 1 || cfg.SearchPaths[0] != "/srv/packs" {
		t.Errorf("SearchPaths = %v, want [/srv/packs]", cfg.SearchPaths)
	}
	if !cfg.Watch.Enabled {
		t.Error("Watch.Enabled = false, want true")
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("Watch.Debounce = %s, want 2s", cfg.Watch.Debounce)
	}
	if cfg.UI.ColorScheme != ColorSchemeDark {
		t.Errorf("ColorScheme = %s, want dark", cfg.UI.ColorScheme)
	}
	if !cfg.UI.Verbose {
		t.Error("Verbose = false, want true")
	}
}

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.cue")
	if err := os.WriteFile(path, []byte("default_namespace: \"custom\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.DefaultNamespace != "custom" {
		t.Errorf("DefaultNamespace = %s, want custom", cfg.DefaultNamespace)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := NewProvider().Load(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue"),
	})
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("expected ActionableError, got %T: %v", err, err)
	}
	if !ae.HasSuggestions() {
		t.Error("expected suggestions on the error")
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bad color scheme",
			content: "ui: {color_scheme: \"neon\"}\n",
			want:    "color_scheme",
		},
		{
			name:    "bad debounce",
			content: "watch: {debounce: \"fast\"}\n",
			want:    "debounce",
		},
		{
			name:    "unknown field",
			content: "bogus: true\n",
			want:    "not allowed",
		},
		{
			name:    "invalid syntax",
			content: "{{{",
			want:    "config.cue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgDir := t.TempDir()
			if err := os.WriteFile(filepath.Join(cfgDir, "config.cue"), []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}

			_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: cfgDir})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadRejectsDuplicateSearchPaths(t *testing.T) {
	cfgDir := t.TempDir()
	content := "search_paths: [\"/srv/packs\", \"/srv/packs/\"]\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.cue"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: cfgDir})
	if err == nil {
		t.Fatal("expected error for duplicate search paths")
	}
	if !strings.Contains(err.Error(), "duplicate path") {
		t.Errorf("error = %v, want duplicate path", err)
	}
}

func TestLoadRejectsDuplicateAliases(t *testing.T) {
	cfgDir := t.TempDir()
	content := "pack_aliases: {\"/a/x.bpack\": \"tools\", \"/b/y.bpack\": \"tools\"}\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.cue"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: cfgDir})
	if err == nil {
		t.Fatal("expected error for duplicate aliases")
	}
	if !strings.Contains(err.Error(), "duplicate alias") {
		t.Errorf("error = %v, want duplicate alias", err)
	}
}

func TestLoadCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()})
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestLoadWatchDisabledOverride(t *testing.T) {
	cfgDir := t.TempDir()
	content := `
watch: {
	enabled: false
}
`
	if err := os.WriteFile(filepath.Join(cfgDir, "config.cue"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: cfgDir})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Watch.Enabled {
		t.Error("Watch.Enabled = true, explicit disable did not override the default")
	}
}

func TestGenerateCUERoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultNamespace = "mods"
	cfg.SearchPaths = []SearchPath{"/srv/packs"}
	cfg.PackAliases = map[string]PackAlias{"/srv/packs/a.bpack": "tools"}
	cfg.Watch.Enabled = true
	cfg.Watch.Debounce = 2 * time.Second
	cfg.UI.Verbose = true

	cfgDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(cfgDir, "config.cue"), []byte(GenerateCUE(cfg)), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: cfgDir})
	if err != nil {
		t.Fatalf("Load() of generated config returned error: %v", err)
	}

	if loaded.DefaultNamespace != cfg.DefaultNamespace {
		t.Errorf("DefaultNamespace = %s, want %s", loaded.DefaultNamespace, cfg.DefaultNamespace)
	}
	if len(loaded.SearchPaths) != 1 || loaded.SearchPaths[0] != cfg.SearchPaths[0] {
		t.Errorf("SearchPaths = %v, want %v", loaded.SearchPaths, cfg.SearchPaths)
	}
	if loaded.PackAliases["/srv/packs/a.bpack"] != "tools" {
		t.Errorf("PackAliases = %v, want alias tools", loaded.PackAliases)
	}
	if !loaded.Watch.Enabled || loaded.Watch.Debounce != 2*time.Second {
		t.Errorf("Watch = %+v, want enabled with 2s debounce", loaded.Watch)
	}
	if !loaded.UI.Verbose {
		t.Error("Verbose = false, want true")
	}
}

func TestSaveAndCreateDefaultConfig(t *testing.T) {
	cfgDir := t.TempDir()
	SetConfigDirOverride(cfgDir)
	t.Cleanup(Reset)

	if err := CreateDefaultConfig(); err != nil {
		t.Fatalf("CreateDefaultConfig() returned error: %v", err)
	}

	cfgPath := filepath.Join(cfgDir, "config.cue")
	if _, err := os.Stat(cfgPath); err != nil {
		t.Fatalf("expected config file at %s: %v", cfgPath, err)
	}

	// A second call must not overwrite.
	cfg := DefaultConfig()
	cfg.DefaultNamespace = "mods"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}
	if err := CreateDefaultConfig(); err != nil {
		t.Fatalf("CreateDefaultConfig() returned error: %v", err)
	}

	loaded, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: cfgDir})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if loaded.DefaultNamespace != "mods" {
		t.Errorf("DefaultNamespace = %s, want mods (CreateDefaultConfig must not overwrite)", loaded.DefaultNamespace)
	}
}
