package builder

import (
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	wasmforge "github.com/forgewasm/wasm-forge"
	"github.com/forgewasm/wasm-forge/crate"
	"github.com/forgewasm/wasm-forge/errors"
	"github.com/forgewasm/wasm-forge/inspect"
	"github.com/forgewasm/wasm-forge/toolchain"
)

// Defaults for the build pipeline.
const (
	// DefaultTarget is the compilation target triple for browser wasm.
	DefaultTarget = "wasm32-unknown-unknown"

	// DefaultOutDir is where artifacts land, chosen for static hosting.
	DefaultOutDir = "docs"

	// DefaultBindgenTarget emits bindings without a module wrapper.
	DefaultBindgenTarget = "no-modules"

	// unstableAPIsCfg opts the compile into unstable web-sys APIs. It is
	// passed as an environment override on the cargo subprocess only.
	unstableAPIsCfg = "--cfg=web_sys_unstable_apis"
)

// Profile selects the cargo optimization profile.
type Profile string

const (
	ProfileRelease Profile = "release"
	ProfileDebug   Profile = "debug"
)

// Options configures a build.
type Options struct {
	// Crate is the buildable unit. Required.
	Crate *crate.Crate

	// OutDir receives the generated artifacts. Relative paths are resolved
	// against the crate dir. Defaults to DefaultOutDir.
	OutDir string

	// Profile is the optimization profile. Defaults to ProfileRelease.
	Profile Profile

	// Target is the compilation target triple. Defaults to DefaultTarget.
	Target string

	// BindgenTarget is the wasm-bindgen emission mode. Defaults to
	// DefaultBindgenTarget.
	BindgenTarget string

	// Typescript enables .d.ts sidecar emission. Off by default.
	Typescript bool

	// DisableUnstableWebAPIs turns off the web-sys unstable API opt-in.
	// The zero value keeps the opt-in active, which eframe-style crates
	// need to compile.
	DisableUnstableWebAPIs bool

	// SkipVerify disables post-build artifact validation.
	SkipVerify bool
}

// Step identifies a pipeline stage for progress reporting.
type Step string

const (
	StepClean   Step = "clean"
	StepCompile Step = "compile"
	StepLocate  Step = "locate"
	StepBindgen Step = "bindgen"
	StepVerify  Step = "verify"
)

// Event reports progress through the pipeline.
type Event struct {
	Step    Step
	Done    bool
	Err     error
	Elapsed time.Duration
}

// Result describes a completed build.
type Result struct {
	// ArtifactPath is the generated wasm binary in the output directory.
	ArtifactPath string
	// BindingsPath is the generated JavaScript glue file.
	BindingsPath string
	// OutDir is the resolved output directory.
	OutDir string
	// Report holds validation results, nil when verification was skipped.
	Report *inspect.Report
	// Elapsed is the total pipeline duration.
	Elapsed time.Duration
}

// Builder runs the artifact pipeline. The pipeline is strictly sequential:
// each step must succeed before the next begins, and the first failure
// aborts the build.
type Builder struct {
	runner wasmforge.Runner
	tools  *toolchain.Set
	opts   Options

	// OnEvent, when set, receives progress events around each step.
	OnEvent func(Event)

	// Stdout and Stderr receive the wrapped tools' output streams so their
	// diagnostics surface verbatim. Default to os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
}

// New creates a Builder, applying option defaults.
func New(runner wasmforge.Runner, tools *toolchain.Set, opts Options) *Builder {
	if opts.OutDir == "" {
		opts.OutDir = DefaultOutDir
	}
	if opts.Profile == "" {
		opts.Profile = ProfileRelease
	}
	if opts.Target == "" {
		opts.Target = DefaultTarget
	}
	if opts.BindgenTarget == "" {
		opts.BindgenTarget = DefaultBindgenTarget
	}
	return &Builder{
		runner: runner,
		tools:  tools,
		opts:   opts,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Run executes the pipeline: clean, compile, locate, bindgen, verify.
func (b *Builder) Run(ctx context.Context) (*Result, error) {
	if b.opts.Crate == nil {
		return nil, errors.InvalidConfig("no crate configured", nil)
	}

	start := time.Now()
	outDir := b.outDir()
	artifact := b.opts.Crate.ArtifactName()

	Logger().Info("building crate",
		zap.String("crate", b.opts.Crate.Name),
		zap.String("profile", string(b.opts.Profile)),
		zap.String("target", b.opts.Target),
		zap.String("out", outDir))

	if err := b.step(StepClean, func() error { return b.clean(outDir, artifact) }); err != nil {
		return nil, err
	}
	if err := b.step(StepCompile, func() error { return b.compile(ctx) }); err != nil {
		return nil, err
	}

	var compiled string
	if err := b.step(StepLocate, func() error {
		var err error
		compiled, err = b.locate()
		return err
	}); err != nil {
		return nil, err
	}

	if err := b.step(StepBindgen, func() error { return b.bindgen(ctx, compiled, outDir) }); err != nil {
		return nil, err
	}

	result := &Result{
		ArtifactPath: filepath.Join(outDir, artifact+"_bg.wasm"),
		BindingsPath: filepath.Join(outDir, artifact+".js"),
		OutDir:       outDir,
	}

	if !b.opts.SkipVerify {
		if err := b.step(StepVerify, func() error {
			report, err := inspect.File(ctx, result.ArtifactPath)
			result.Report = report
			return err
		}); err != nil {
			return nil, err
		}
	}

	result.Elapsed = time.Since(start)
	Logger().Info("build complete",
		zap.String("artifact", result.ArtifactPath),
		zap.Duration("elapsed", result.Elapsed))

	return result, nil
}

// step wraps a pipeline stage with event reporting.
func (b *Builder) step(s Step, fn func() error) error {
	if b.OnEvent != nil {
		b.OnEvent(Event{Step: s})
	}
	start := time.Now()
	err := fn()
	if b.OnEvent != nil {
		b.OnEvent(Event{Step: s, Done: true, Err: err, Elapsed: time.Since(start)})
	}
	return err
}

// clean removes the stale artifact from a previous build. Absence is not an
// error: the step exists so an interrupted earlier run can never leave a
// stale binary masquerading as fresh output.
func (b *Builder) clean(outDir, artifact string) error {
	stale := filepath.Join(outDir, artifact+"_bg.wasm")
	err := os.Remove(stale)
	switch {
	case err == nil:
		Logger().Debug("removed stale artifact", zap.String("path", stale))
	case stderrors.Is(err, fs.ErrNotExist):
		Logger().Debug("no stale artifact", zap.String("path", stale))
	default:
		return errors.IO(errors.PhaseClean, "remove stale artifact", err)
	}
	return nil
}

// compile invokes cargo for the wasm target. The unstable-API opt-in is
// passed as an env override scoped to this subprocess; the parent process
// environment is never mutated.
func (b *Builder) compile(ctx context.Context) error {
	args := []string{"build", "--lib", "--target", b.opts.Target}
	if b.opts.Profile == ProfileRelease {
		args = append(args, "--release")
	}

	var env []string
	if !b.opts.DisableUnstableWebAPIs {
		flags := os.Getenv("RUSTFLAGS")
		if flags != "" {
			flags += " "
		}
		env = append(env, "RUSTFLAGS="+flags+unstableAPIsCfg)
	}

	err := b.runner.Run(ctx, wasmforge.Command{
		Name:   b.tools.Cargo.Path,
		Args:   args,
		Dir:    b.opts.Crate.Dir,
		Env:    env,
		Stdout: b.Stdout,
		Stderr: b.Stderr,
	})
	if err != nil {
		return errors.ToolFailed(errors.PhaseCompile, toolchain.CargoTool, exitCode(err), err)
	}
	return nil
}

// locate resolves the compiler's output binary at its deterministic path.
func (b *Builder) locate() (string, error) {
	path := b.opts.Crate.OutputPath(b.opts.Target, string(b.opts.Profile))
	if _, err := os.Stat(path); err != nil {
		return "", errors.New(errors.PhaseLocate, errors.KindIO).
			Detail("compiler produced no artifact at %s", path).
			Cause(err).
			Build()
	}
	return path, nil
}

// bindgen invokes wasm-bindgen over the compiled binary.
func (b *Builder) bindgen(ctx context.Context, compiled, outDir string) error {
	args := []string{compiled, "--out-dir", outDir, "--target", b.opts.BindgenTarget}
	if !b.opts.Typescript {
		args = append(args, "--no-typescript")
	}

	err := b.runner.Run(ctx, wasmforge.Command{
		Name:   b.tools.Bindgen.Path,
		Args:   args,
		Dir:    b.opts.Crate.Dir,
		Stdout: b.Stdout,
		Stderr: b.Stderr,
	})
	if err != nil {
		return errors.ToolFailed(errors.PhaseBindgen, toolchain.BindgenTool, exitCode(err), err)
	}
	return nil
}

// outDir resolves the output directory against the crate dir.
func (b *Builder) outDir() string {
	if filepath.IsAbs(b.opts.OutDir) {
		return b.opts.OutDir
	}
	return filepath.Join(b.opts.Crate.Dir, b.opts.OutDir)
}

// exitCode maps a runner error to a subprocess status, clamping the
// not-a-status sentinel to zero for the structured error.
func exitCode(err error) int {
	if code := wasmforge.ExitCode(err); code > 0 {
		return code
	}
	return 0
}
