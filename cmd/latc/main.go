// Package main is the latc command: the Latte whole-program compiler's
// CLI wrapper around internal/driver. It reads one source file, runs
// every compile phase, and on success writes <stem>.ll and <stem>.bc.
// The literal "ERROR"/"OK" lines and "line:col: message" diagnostics on
// stderr are a fixed wire contract; timing and the colorized success
// banner are purely informational and always stay on stdout, never
// interleaved with those stderr lines.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"

	"latte/internal/driver"
	"latte/internal/errors"
	"latte/internal/ir"
	"latte/internal/toolchain"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: latc <file.lat>")
		os.Exit(1)
	}
	os.Exit(run(os.Args[1]))
}

func run(path string) int {
	start := time.Now()

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR")
		fmt.Fprintf(os.Stderr, "0:0: failed to read %s: %v\n", path, err)
		return 1
	}

	prog, errs := driver.Compile(path, string(source))
	if len(errs) > 0 {
		reportErrors(path, string(source), errs)
		return 1
	}

	stem := strings.TrimSuffix(path, filepath.Ext(path))
	if err := emit(prog, stem, path); err != nil {
		fmt.Fprintln(os.Stderr, "ERROR")
		fmt.Fprintf(os.Stderr, "0:0: %s\n", err)
		return 1
	}

	fmt.Fprintln(os.Stderr, "OK")
	color.Green("compiled %s in %s", path, time.Since(start).Round(time.Microsecond))
	return 0
}

func reportErrors(path, source string, errs []errors.CompilerError) {
	fmt.Fprintln(os.Stderr, "ERROR")
	reporter := errors.NewReporter(source)
	for _, line := range reporter.Format(errs) {
		fmt.Fprintln(os.Stderr, line)
	}
}

// emit prints prog's textual IR to <stem>.ll and assembles <stem>.bc
// from it. When a sibling runtime module is present next to the source
// file it is linked in first, so <stem>.ll ends up core IR linked with
// the runtime; otherwise the core module alone is written, since
// shipping the runtime module itself is outside this compiler's scope.
func emit(prog *ir.Program, stem, sourcePath string) error {
	coreIR := ir.Print(prog)

	guard, err := toolchain.NewGuard(filepath.Base(stem))
	if err != nil {
		return err
	}
	defer guard.Close()

	corePath := guard.Path("core.ll")
	if err := os.WriteFile(corePath, []byte(coreIR), 0o644); err != nil {
		return fmt.Errorf("write core IR: %w", err)
	}

	linkedPath := stem + ".ll"
	runtimePath := filepath.Join(filepath.Dir(sourcePath), "runtime.ll")
	tc := toolchain.NewToolchain(guard)

	ctx := context.Background()
	if _, statErr := os.Stat(runtimePath); statErr == nil {
		if err := tc.LinkRuntime(ctx, corePath, runtimePath, linkedPath); err != nil {
			return err
		}
	} else {
		if err := os.WriteFile(linkedPath, []byte(coreIR), 0o644); err != nil {
			return fmt.Errorf("write linked IR: %w", err)
		}
	}

	return tc.Assemble(ctx, linkedPath, stem+".bc")
}
