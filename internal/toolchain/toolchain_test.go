package toolchain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardPathJoinsScratchDir(t *testing.T) {
	g, err := NewGuard("sample")
	require.NoError(t, err)
	defer g.Close()

	_, err = os.Stat(g.dir)
	require.NoError(t, err, "scratch dir should exist right after NewGuard")

	got := g.Path("core.ll")
	assert.Equal(t, filepath.Join(g.dir, "core.ll"), got)
}

func TestGuardCloseRemovesScratchDir(t *testing.T) {
	g, err := NewGuard("sample")
	require.NoError(t, err)

	require.NoError(t, g.Close())
	_, err = os.Stat(g.dir)
	assert.True(t, os.IsNotExist(err), "scratch dir should be gone after Close")

	assert.NoError(t, g.Close(), "Close should be idempotent")
}

func TestToolchainUsesOverriddenBinaryPaths(t *testing.T) {
	tc := &Toolchain{LLVMAsPath: "/opt/llvm/bin/llvm-as", LLVMLinkPath: "/opt/llvm/bin/llvm-link"}
	assert.Equal(t, "/opt/llvm/bin/llvm-as", tc.llvmAsBin())
	assert.Equal(t, "/opt/llvm/bin/llvm-link", tc.llvmLinkBin())
}

func TestToolchainDefaultsToPathLookupNames(t *testing.T) {
	tc := &Toolchain{}
	assert.Equal(t, "llvm-as", tc.llvmAsBin())
	assert.Equal(t, "llvm-link", tc.llvmLinkBin())
}

func TestDetectReportsMissingOverriddenPath(t *testing.T) {
	missing := Detect("/does/not/exist/llvm-as", "/does/not/exist/llvm-link")
	assert.Contains(t, missing, "llvm-as")
	assert.Contains(t, missing, "llvm-link")
}
