// Package toolchain wraps the two external programs the compiler shells
// out to once the core has produced textual IR: llvm-link (merges the
// generated core module with the runtime module) and llvm-as (assembles
// the merged textual IR into bitcode). This sits entirely outside the
// core: the core never touches the filesystem or forks a process, it
// only returns a string.
package toolchain

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Guard owns a scoped temporary directory and releases it on every exit
// path — the intermediate .ll the linker needs but the caller never
// asked to keep.
type Guard struct {
	dir string
}

// NewGuard creates a fresh scoped temp directory under the OS default,
// named after the module being compiled so concurrent compilations
// (tests, batch runs) never collide.
func NewGuard(stem string) (*Guard, error) {
	dir, err := os.MkdirTemp("", "latc-"+stem+"-*")
	if err != nil {
		return nil, fmt.Errorf("toolchain: create scratch dir: %w", err)
	}
	return &Guard{dir: dir}, nil
}

// Path joins name onto the guard's scratch directory.
func (g *Guard) Path(name string) string {
	return filepath.Join(g.dir, name)
}

// Close removes the scratch directory and everything under it. Safe to
// call multiple times; callers defer it immediately after NewGuard so
// it runs on every return path, including a failed Assemble/Link.
func (g *Guard) Close() error {
	return os.RemoveAll(g.dir)
}

// Toolchain invokes llvm-as/llvm-link for one compilation.
type Toolchain struct {
	Guard   *Guard
	Verbose bool

	// LLVMAsPath / LLVMLinkPath override the binaries looked up on PATH.
	LLVMAsPath   string
	LLVMLinkPath string
}

// NewToolchain builds a Toolchain scratching into guard.
func NewToolchain(guard *Guard) *Toolchain {
	return &Toolchain{Guard: guard}
}

// LinkRuntime merges the generator's core module with the runtime
// module's textual IR and writes the result, still as text, to
// outPath. This is what ends up as the compiler's <stem>.ll output:
// the core module's textual IR linked together with the runtime.
func (tc *Toolchain) LinkRuntime(ctx context.Context, corePath, runtimePath, outPath string) error {
	bin := tc.llvmLinkBin()
	cmd := exec.CommandContext(ctx, bin, "-S", "-o", outPath, corePath, runtimePath)
	return tc.run(cmd, "llvm-link")
}

// Assemble invokes llvm-as on the linked textual IR to produce the
// final bitcode file, the compiler's <stem>.bc output.
func (tc *Toolchain) Assemble(ctx context.Context, linkedLLPath, outPath string) error {
	bin := tc.llvmAsBin()
	cmd := exec.CommandContext(ctx, bin, "-o", outPath, linkedLLPath)
	return tc.run(cmd, "llvm-as")
}

func (tc *Toolchain) llvmAsBin() string {
	if tc.LLVMAsPath != "" {
		return tc.LLVMAsPath
	}
	return "llvm-as"
}

func (tc *Toolchain) llvmLinkBin() string {
	if tc.LLVMLinkPath != "" {
		return tc.LLVMLinkPath
	}
	return "llvm-link"
}

func (tc *Toolchain) run(cmd *exec.Cmd, stage string) error {
	if tc.Verbose {
		fmt.Fprintf(os.Stderr, "[toolchain] %s: %s\n", stage, strings.Join(cmd.Args, " "))
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w\n%s", stage, err, stderr.String())
	}
	return nil
}

// Detect reports every external tool this package needs that cannot be
// found on PATH (or at its overridden path), so the CLI can fail with
// one clear diagnostic instead of a raw exec.ErrNotFound deep inside a
// Run call.
func Detect(llvmAsPath, llvmLinkPath string) []string {
	var missing []string
	check := func(override, name string) {
		if override != "" {
			if _, err := os.Stat(override); err != nil {
				missing = append(missing, name)
			}
			return
		}
		if _, err := exec.LookPath(name); err != nil {
			missing = append(missing, name)
		}
	}
	check(llvmAsPath, "llvm-as")
	check(llvmLinkPath, "llvm-link")
	return missing
}
