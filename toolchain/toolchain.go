package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-semver/semver"
	"go.uber.org/zap"

	wasmforge "github.com/forgewasm/wasm-forge"
	"github.com/forgewasm/wasm-forge/errors"
)

// External tool names resolved against PATH.
const (
	CargoTool   = "cargo"
	BindgenTool = "wasm-bindgen"
	RustupTool  = "rustup"
)

// Minimum supported tool versions. cargo grew `--target` wasm support long
// ago; the bindgen floor is where `--target no-modules` stabilized.
var minVersions = map[string]semver.Version{
	CargoTool:   *semver.New("1.30.0"),
	BindgenTool: *semver.New("0.2.40"),
}

// Tool is a resolved external tool.
type Tool struct {
	Name    string
	Path    string
	Version *semver.Version // nil when the version output was unparseable
}

// Set holds the tools the build pipeline invokes.
type Set struct {
	Cargo   Tool
	Bindgen Tool
}

// Preflight resolves and version-checks every tool the pipeline needs, and
// verifies the compilation target is installed when rustup is available.
// It makes the original's "assume setup already ran" contract explicit: a
// missing tool or target fails here, before any build work starts.
func Preflight(ctx context.Context, runner wasmforge.Runner, target string) (*Set, error) {
	cargo, err := lookup(ctx, runner, CargoTool)
	if err != nil {
		return nil, err
	}

	bindgen, err := lookup(ctx, runner, BindgenTool)
	if err != nil {
		return nil, err
	}

	if err := checkTarget(ctx, runner, target); err != nil {
		return nil, err
	}

	return &Set{Cargo: cargo, Bindgen: bindgen}, nil
}

// lookup resolves a tool on PATH, probes its version, and enforces the
// minimum when one is registered.
func lookup(ctx context.Context, runner wasmforge.Runner, name string) (Tool, error) {
	path, err := runner.LookPath(name)
	if err != nil {
		return Tool{}, errors.ToolNotFound(name, err)
	}

	tool := Tool{Name: name, Path: path}

	var out bytes.Buffer
	err = runner.Run(ctx, wasmforge.Command{
		Name:   path,
		Args:   []string{"--version"},
		Stdout: &out,
	})
	if err != nil {
		// A tool that cannot report its version is still usable; the build
		// step will surface any real breakage.
		Logger().Warn("version probe failed",
			zap.String("tool", name),
			zap.Error(err))
		return tool, nil
	}

	v, err := ParseVersion(out.String())
	if err != nil {
		Logger().Debug("unparseable version output",
			zap.String("tool", name),
			zap.String("output", strings.TrimSpace(out.String())))
		return tool, nil
	}
	tool.Version = v

	if min, ok := minVersions[name]; ok && v.LessThan(min) {
		return Tool{}, errors.VersionTooOld(name, v.String(), min.String())
	}

	Logger().Debug("resolved tool",
		zap.String("tool", name),
		zap.String("path", path),
		zap.String("version", v.String()))

	return tool, nil
}

// ParseVersion extracts a semantic version from `tool --version` output,
// e.g. "cargo 1.75.0 (1d8b05cdd 2023-11-20)" or "wasm-bindgen 0.2.92".
func ParseVersion(output string) (*semver.Version, error) {
	line, _, _ := strings.Cut(strings.TrimSpace(output), "\n")
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, fmt.Errorf("no version field in %q", line)
	}

	raw := strings.TrimPrefix(fields[1], "v")
	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("parse version %q: %w", raw, err)
	}
	return v, nil
}

// checkTarget verifies the wasm compilation target is installed. Without
// rustup on PATH the check is skipped; non-rustup toolchains manage targets
// themselves and the compile step will still fail loudly if one is missing.
func checkTarget(ctx context.Context, runner wasmforge.Runner, target string) error {
	if target == "" {
		return nil
	}

	path, err := runner.LookPath(RustupTool)
	if err != nil {
		Logger().Debug("rustup not found, skipping target check",
			zap.String("target", target))
		return nil
	}

	var out bytes.Buffer
	err = runner.Run(ctx, wasmforge.Command{
		Name:   path,
		Args:   []string{"target", "list", "--installed"},
		Stdout: &out,
	})
	if err != nil {
		Logger().Warn("target listing failed", zap.Error(err))
		return nil
	}

	for _, line := range strings.Split(out.String(), "\n") {
		if strings.TrimSpace(line) == target {
			return nil
		}
	}
	return errors.TargetMissing(target)
}
