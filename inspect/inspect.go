package inspect

import (
	"context"
	"encoding/binary"
	"os"
	"sort"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/forgewasm/wasm-forge/errors"
)

// WebAssembly binary format magic number and version.
const (
	// Magic is the WebAssembly binary magic number ("\0asm" in little-endian).
	Magic uint32 = 0x6D736100

	// Version is the supported WebAssembly binary format version.
	Version uint32 = 0x01

	headerSize = 8
)

// Report summarizes a validated artifact.
type Report struct {
	// Size is the artifact size in bytes.
	Size int64
	// Exports lists the exported function names, sorted.
	Exports []string
}

// Validate checks that data is a loadable core WebAssembly module. The
// header is checked first for a cheap, specific diagnostic; the module is
// then compiled with wazero, which performs full structural validation.
func Validate(ctx context.Context, data []byte) (*Report, error) {
	if len(data) < headerSize {
		return nil, errors.InvalidArtifact("artifact shorter than wasm header", nil)
	}
	if binary.LittleEndian.Uint32(data[0:4]) != Magic {
		return nil, errors.InvalidArtifact("invalid wasm magic number", nil)
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != Version {
		return nil, errors.New(errors.PhaseVerify, errors.KindInvalidArtifact).
			Detail("unsupported wasm binary version %d", v).
			Build()
	}

	r := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	defer r.Close(ctx)

	compiled, err := r.CompileModule(ctx, data)
	if err != nil {
		return nil, errors.InvalidArtifact("module failed validation", err)
	}
	defer compiled.Close(ctx)

	var exports []string
	for name := range compiled.ExportedFunctions() {
		exports = append(exports, name)
	}
	sort.Strings(exports)

	Logger().Debug("artifact validated",
		zap.Int("size", len(data)),
		zap.Int("exports", len(exports)))

	return &Report{Size: int64(len(data)), Exports: exports}, nil
}

// File reads and validates the artifact at path.
func File(ctx context.Context, path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(errors.PhaseVerify, "read artifact", err)
	}
	return Validate(ctx, data)
}
