package toolchain

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	wasmforge "github.com/forgewasm/wasm-forge"
	"github.com/forgewasm/wasm-forge/errors"
)

// mockRunner fakes tool resolution and invocation for preflight tests.
type mockRunner struct {
	paths  map[string]string
	stdout map[string]string
	runErr map[string]error
	calls  []wasmforge.Command
}

func (m *mockRunner) LookPath(name string) (string, error) {
	if p, ok := m.paths[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
}

func (m *mockRunner) Run(_ context.Context, c wasmforge.Command) error {
	m.calls = append(m.calls, c)
	base := filepath.Base(c.Name)
	if err := m.runErr[base]; err != nil {
		return err
	}
	if out, ok := m.stdout[base]; ok && c.Stdout != nil {
		io.WriteString(c.Stdout, out)
	}
	return nil
}

func allTools() *mockRunner {
	return &mockRunner{
		paths: map[string]string{
			CargoTool:   "/usr/bin/cargo",
			BindgenTool: "/usr/bin/wasm-bindgen",
			RustupTool:  "/usr/bin/rustup",
		},
		stdout: map[string]string{
			CargoTool:   "cargo 1.75.0 (1d8b05cdd 2023-11-20)\n",
			BindgenTool: "wasm-bindgen 0.2.92\n",
			RustupTool:  "wasm32-unknown-unknown\nx86_64-unknown-linux-gnu\n",
		},
	}
}

func TestPreflight(t *testing.T) {
	t.Run("all_tools_present", func(t *testing.T) {
		runner := allTools()
		set, err := Preflight(context.Background(), runner, "wasm32-unknown-unknown")
		if err != nil {
			t.Fatalf("Preflight failed: %v", err)
		}
		if set.Cargo.Path != "/usr/bin/cargo" {
			t.Errorf("Cargo.Path = %q", set.Cargo.Path)
		}
		if set.Cargo.Version == nil || set.Cargo.Version.String() != "1.75.0" {
			t.Errorf("Cargo.Version = %v, want 1.75.0", set.Cargo.Version)
		}
		if set.Bindgen.Version == nil || set.Bindgen.Version.String() != "0.2.92" {
			t.Errorf("Bindgen.Version = %v, want 0.2.92", set.Bindgen.Version)
		}
	})

	t.Run("missing_cargo", func(t *testing.T) {
		runner := allTools()
		delete(runner.paths, CargoTool)
		_, err := Preflight(context.Background(), runner, "wasm32-unknown-unknown")
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhasePreflight, Kind: errors.KindToolNotFound}) {
			t.Fatalf("error = %v, want tool_not_found", err)
		}
	})

	t.Run("missing_bindgen", func(t *testing.T) {
		runner := allTools()
		delete(runner.paths, BindgenTool)
		_, err := Preflight(context.Background(), runner, "wasm32-unknown-unknown")
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhasePreflight, Kind: errors.KindToolNotFound}) {
			t.Fatalf("error = %v, want tool_not_found", err)
		}
	})

	t.Run("target_not_installed", func(t *testing.T) {
		runner := allTools()
		runner.stdout[RustupTool] = "x86_64-unknown-linux-gnu\n"
		_, err := Preflight(context.Background(), runner, "wasm32-unknown-unknown")
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhasePreflight, Kind: errors.KindTargetMissing}) {
			t.Fatalf("error = %v, want target_missing", err)
		}
	})

	t.Run("no_rustup_skips_target_check", func(t *testing.T) {
		runner := allTools()
		delete(runner.paths, RustupTool)
		if _, err := Preflight(context.Background(), runner, "wasm32-unknown-unknown"); err != nil {
			t.Fatalf("Preflight failed: %v", err)
		}
	})

	t.Run("version_below_minimum", func(t *testing.T) {
		runner := allTools()
		runner.stdout[BindgenTool] = "wasm-bindgen 0.2.10\n"
		_, err := Preflight(context.Background(), runner, "wasm32-unknown-unknown")
		if !stderrors.Is(err, &errors.Error{Phase: errors.PhasePreflight, Kind: errors.KindVersionTooOld}) {
			t.Fatalf("error = %v, want version_too_old", err)
		}
	})

	t.Run("version_probe_failure_is_tolerated", func(t *testing.T) {
		runner := allTools()
		runner.runErr = map[string]error{CargoTool: fmt.Errorf("exit status 1")}
		set, err := Preflight(context.Background(), runner, "")
		if err != nil {
			t.Fatalf("Preflight failed: %v", err)
		}
		if set.Cargo.Version != nil {
			t.Errorf("Cargo.Version = %v, want nil", set.Cargo.Version)
		}
	})
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name, output, want string
		wantErr            bool
	}{
		{name: "cargo_stable", output: "cargo 1.75.0 (1d8b05cdd 2023-11-20)\n", want: "1.75.0"},
		{name: "cargo_nightly", output: "cargo 1.77.0-nightly (7bb7b5395 2024-01-20)\n", want: "1.77.0-nightly"},
		{name: "bindgen", output: "wasm-bindgen 0.2.92\n", want: "0.2.92"},
		{name: "v_prefix", output: "tool v1.2.3\n", want: "1.2.3"},
		{name: "multiline_takes_first", output: "cargo 1.75.0\nrelease: 1.75.0\n", want: "1.75.0"},
		{name: "empty", output: "", wantErr: true},
		{name: "no_version_field", output: "cargo\n", wantErr: true},
		{name: "garbage", output: "cargo banana\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseVersion(tt.output)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseVersion(%q) = %v, want error", tt.output, v)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVersion failed: %v", err)
			}
			if v.String() != tt.want {
				t.Errorf("version = %q, want %q", v.String(), tt.want)
			}
		})
	}
}
