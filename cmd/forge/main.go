package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	wasmforge "github.com/forgewasm/wasm-forge"
	"github.com/forgewasm/wasm-forge/builder"
	"github.com/forgewasm/wasm-forge/crate"
	forgeerrors "github.com/forgewasm/wasm-forge/errors"
	"github.com/forgewasm/wasm-forge/inspect"
	"github.com/forgewasm/wasm-forge/serve"
	"github.com/forgewasm/wasm-forge/toolchain"
	"github.com/forgewasm/wasm-forge/watch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		if ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(forgeerrors.ExitStatus(err))
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:           "forge",
		Usage:          "build Rust crates into WebAssembly artifacts for static hosting",
		DefaultCommand: "build",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"C"},
				Value:   ".",
				Usage:   "project root containing the crate",
			},
			&cli.StringFlag{
				Name:  "crate",
				Usage: "crate name (default: Cargo.toml package name, then directory name)",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Value:   builder.DefaultOutDir,
				Usage:   "output directory for generated artifacts",
			},
			&cli.StringFlag{
				Name:  "target",
				Value: builder.DefaultTarget,
				Usage: "compilation target triple",
			},
			&cli.StringFlag{
				Name:  "bindgen-target",
				Value: builder.DefaultBindgenTarget,
				Usage: "wasm-bindgen emission mode",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "build with the debug profile instead of release",
			},
			&cli.BoolFlag{
				Name:  "typescript",
				Usage: "emit TypeScript declaration files",
			},
			&cli.BoolFlag{
				Name:  "stable-web-apis",
				Usage: "do not opt into unstable web-sys APIs",
			},
			&cli.BoolFlag{
				Name:  "skip-verify",
				Usage: "skip post-build artifact validation",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "compile the crate and generate bindings",
				Action: runBuild,
			},
			{
				Name:   "check",
				Usage:  "preflight the toolchain and validate the existing artifact",
				Action: runCheck,
			},
			{
				Name:  "watch",
				Usage: "rebuild whenever crate sources change",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "debounce",
						Value: watch.DefaultDebounce,
						Usage: "delay used to coalesce change bursts",
					},
					&cli.BoolFlag{
						Name:  "plain",
						Usage: "log-based output instead of the TUI",
					},
				},
				Action: runWatch,
			},
			{
				Name:  "serve",
				Usage: "serve the output directory over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Value: serve.DefaultAddr,
						Usage: "listen address",
					},
				},
				Action: runServe,
			},
		},
	}
}

// setupLogging builds the process logger and installs it in every package.
func setupLogging(c *cli.Context) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	if c.Bool("verbose") {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}

	builder.SetLogger(logger)
	toolchain.SetLogger(logger)
	inspect.SetLogger(logger)
	watch.SetLogger(logger)
	serve.SetLogger(logger)
	return logger
}

// resolveCrate applies the identifier precedence: explicit flag, manifest,
// directory basename.
func resolveCrate(c *cli.Context) (*crate.Crate, error) {
	dir := c.String("dir")
	if name := c.String("crate"); name != "" {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, forgeerrors.InvalidConfig("resolve project root", err)
		}
		return crate.FromName(name, abs), nil
	}
	return crate.Load(dir)
}

func buildOptions(c *cli.Context, cr *crate.Crate) builder.Options {
	profile := builder.ProfileRelease
	if c.Bool("debug") {
		profile = builder.ProfileDebug
	}
	return builder.Options{
		Crate:                  cr,
		OutDir:                 c.String("out"),
		Profile:                profile,
		Target:                 c.String("target"),
		BindgenTarget:          c.String("bindgen-target"),
		Typescript:             c.Bool("typescript"),
		DisableUnstableWebAPIs: c.Bool("stable-web-apis"),
		SkipVerify:             c.Bool("skip-verify"),
	}
}

func newBuilder(c *cli.Context) (*builder.Builder, *crate.Crate, error) {
	cr, err := resolveCrate(c)
	if err != nil {
		return nil, nil, err
	}
	tools, err := toolchain.Preflight(c.Context, wasmforge.ExecRunner{}, c.String("target"))
	if err != nil {
		return nil, nil, err
	}
	return builder.New(wasmforge.ExecRunner{}, tools, buildOptions(c, cr)), cr, nil
}

func runBuild(c *cli.Context) error {
	logger := setupLogging(c)
	defer logger.Sync()

	b, cr, err := newBuilder(c)
	if err != nil {
		return err
	}

	styled := term.IsTerminal(int(os.Stdout.Fd()))
	b.OnEvent = func(e builder.Event) {
		if e.Done {
			return
		}
		fmt.Println(stepLine(styled, e.Step, cr.Name))
	}

	result, err := b.Run(c.Context)
	if err != nil {
		return err
	}

	fmt.Println(successLine(styled, result))
	return nil
}

func runCheck(c *cli.Context) error {
	logger := setupLogging(c)
	defer logger.Sync()

	cr, err := resolveCrate(c)
	if err != nil {
		return err
	}
	tools, err := toolchain.Preflight(c.Context, wasmforge.ExecRunner{}, c.String("target"))
	if err != nil {
		return err
	}

	fmt.Printf("cargo        %s (%s)\n", versionString(tools.Cargo), tools.Cargo.Path)
	fmt.Printf("wasm-bindgen %s (%s)\n", versionString(tools.Bindgen), tools.Bindgen.Path)

	artifact := filepath.Join(resolveOut(c, cr), cr.ArtifactName()+"_bg.wasm")
	report, err := inspect.File(c.Context, artifact)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			fmt.Printf("artifact     %s (not built yet)\n", artifact)
			return nil
		}
		return err
	}
	fmt.Printf("artifact     %s (%d bytes, %d exports)\n", artifact, report.Size, len(report.Exports))
	return nil
}

func runWatch(c *cli.Context) error {
	logger := setupLogging(c)
	defer logger.Sync()

	b, cr, err := newBuilder(c)
	if err != nil {
		return err
	}

	w, err := watch.New(cr, c.Duration("debounce"))
	if err != nil {
		return err
	}
	defer w.Close()

	if !c.Bool("plain") && term.IsTerminal(int(os.Stdout.Fd())) {
		return runWatchTUI(c.Context, w, b, cr)
	}
	return runWatchPlain(c.Context, w, b)
}

// runWatchPlain is the non-TTY watch loop: one styled-free status line per
// build, tool diagnostics passed through untouched.
func runWatchPlain(ctx context.Context, w *watch.Watcher, b *builder.Builder) error {
	rebuild := func(ctx context.Context) error {
		result, err := b.Run(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
			return err
		}
		fmt.Println(successLine(false, result))
		return nil
	}

	// Initial build; a failure is reported but watching continues so the
	// next save can fix it.
	rebuild(ctx)

	err := w.Run(ctx, rebuild)
	if err == context.Canceled {
		return nil
	}
	return err
}

func runServe(c *cli.Context) error {
	logger := setupLogging(c)
	defer logger.Sync()

	cr, err := resolveCrate(c)
	if err != nil {
		return err
	}

	dir := resolveOut(c, cr)
	fmt.Printf("Serving %s at http://%s\n", dir, c.String("addr"))
	return (&serve.Server{Dir: dir, Addr: c.String("addr")}).ListenAndServe(c.Context)
}

// resolveOut mirrors the builder's output directory resolution.
func resolveOut(c *cli.Context, cr *crate.Crate) string {
	out := c.String("out")
	if filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(cr.Dir, out)
}

func versionString(t toolchain.Tool) string {
	if t.Version == nil {
		return "unknown"
	}
	return t.Version.String()
}

func stepDescription(s builder.Step, crateName string) string {
	switch s {
	case builder.StepClean:
		return "Removing stale artifact"
	case builder.StepCompile:
		return "Compiling " + crateName + " to WebAssembly"
	case builder.StepLocate:
		return "Locating compiled binary"
	case builder.StepBindgen:
		return "Generating JavaScript bindings"
	case builder.StepVerify:
		return "Validating artifact"
	default:
		return string(s)
	}
}

func formatResult(result *builder.Result) string {
	msg := fmt.Sprintf("Wrote %s", result.ArtifactPath)
	if result.Report != nil {
		msg += fmt.Sprintf(" (%d bytes, %d exports)", result.Report.Size, len(result.Report.Exports))
	}
	return msg + fmt.Sprintf(" in %s", result.Elapsed.Round(time.Millisecond))
}
