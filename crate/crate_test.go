package crate

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/forgewasm/wasm-forge/errors"
)

func writeManifest(t *testing.T, dir, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ManifestName), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("manifest_name_wins", func(t *testing.T) {
		dir := t.TempDir()
		writeManifest(t, dir, `
[package]
name = "eplot-demo"
version = "0.1.0"
`)
		c, err := Load(dir)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if c.Name != "eplot-demo" {
			t.Errorf("Name = %q, want eplot-demo", c.Name)
		}
		if c.Version != "0.1.0" {
			t.Errorf("Version = %q, want 0.1.0", c.Version)
		}
	})

	t.Run("missing_manifest_falls_back_to_dir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "demo")
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		c, err := Load(dir)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if c.Name != "demo" {
			t.Errorf("Name = %q, want demo", c.Name)
		}
	})

	t.Run("empty_package_name_falls_back_to_dir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "fallback")
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		writeManifest(t, dir, "[package]\n")
		c, err := Load(dir)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if c.Name != "fallback" {
			t.Errorf("Name = %q, want fallback", c.Name)
		}
	})

	t.Run("malformed_manifest_is_an_error", func(t *testing.T) {
		dir := t.TempDir()
		writeManifest(t, dir, "[package\nname =")
		_, err := Load(dir)
		if err == nil {
			t.Fatal("expected parse error")
		}
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhasePreflight, Kind: errors.KindInvalidConfig}) {
			t.Errorf("error = %v, want invalid_config in preflight phase", err)
		}
	})

	t.Run("lib_name_override", func(t *testing.T) {
		dir := t.TempDir()
		writeManifest(t, dir, `
[package]
name = "my-app"

[lib]
name = "custom_lib"
crate-type = ["cdylib"]
`)
		c, err := Load(dir)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if got := c.ArtifactName(); got != "custom_lib" {
			t.Errorf("ArtifactName = %q, want custom_lib", got)
		}
	})
}

func TestArtifactName(t *testing.T) {
	tests := []struct {
		name, crateName, want string
	}{
		{"plain", "demo", "demo"},
		{"hyphens_normalized", "egui-template", "egui_template"},
		{"multiple_hyphens", "my-web-app", "my_web_app"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := FromName(tt.crateName, "/tmp/x")
			if got := c.ArtifactName(); got != tt.want {
				t.Errorf("ArtifactName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	c := FromName("egui-template", "/work/proj")
	got := c.OutputPath("wasm32-unknown-unknown", "release")
	want := filepath.Join("/work/proj", "target", "wasm32-unknown-unknown", "release", "egui_template.wasm")
	if got != want {
		t.Errorf("OutputPath = %q, want %q", got, want)
	}
}
