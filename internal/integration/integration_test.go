// Package integration runs the tshost binary end to end: TestMain builds it
// with coverage instrumentation and the tests exercise the CLI surface as a
// subprocess.
package integration

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	binaryPath  string
	coverageDir string
)

func TestMain(m *testing.M) {
	// Build the binary once before running tests
	tmpDir, err := os.MkdirTemp("", "tshost-test")
	if err != nil {
		panic(err)
	}

	binaryPath = filepath.Join(tmpDir, "tshost")

	// Create coverage directory in project root for persistent coverage data
	// If GOCOVERDIR is set externally, use that; otherwise use "./coverage"
	coverageDir = os.Getenv("GOCOVERDIR")
	if coverageDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			_ = os.RemoveAll(tmpDir)
			panic("failed to get working directory: " + err.Error())
		}
		coverageDir = filepath.Join(wd, "..", "..", "coverage")
	}
	coverageDir, err = filepath.Abs(coverageDir)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		panic("failed to get absolute coverage directory path: " + err.Error())
	}
	if err := os.MkdirAll(coverageDir, 0o750); err != nil {
		_ = os.RemoveAll(tmpDir)
		panic("failed to create coverage directory: " + err.Error())
	}

	// Build the module's main package with coverage instrumentation
	cmd := exec.Command("go", "build", "-cover", "-o", binaryPath, "github.com/jbarket/atom-typescript/cmd/tshost")
	if out, err := cmd.CombinedOutput(); err != nil {
		_ = os.RemoveAll(tmpDir)
		panic("failed to build binary: " + string(out))
	}

	code := m.Run()

	_ = os.RemoveAll(tmpDir)
	os.Exit(code)
}

func run(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "GOCOVERDIR="+coverageDir)
	return cmd.CombinedOutput()
}

// writeProject lays out a small TypeScript project in a temp directory.
func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules", "pkg"), 0o750))

	files := map[string]string{
		"tsconfig.json":           `{"compilerOptions":{"target":"es2020"},"include":["src/**/*.ts"]}`,
		"src/a.ts":                "export const a = 1;\n",
		"src/b.ts":                "export const b = 2;\n",
		"src/types.d.ts":          "declare const t: number;\n",
		"README.md":               "not a source file\n",
		"node_modules/pkg/idx.ts": "export {};\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, filepath.FromSlash(name)), []byte(content), 0o600))
	}
	return dir
}

func TestFilesJSON(t *testing.T) {
	dir := writeProject(t)

	output, err := run(t, "files", "--config", filepath.Join(dir, "tsconfig.json"), "--format", "json")
	require.NoError(t, err, "output: %s", output)

	var entries []struct {
		Path    string `json:"path"`
		Version string `json:"version"`
		Open    bool   `json:"open"`
	}
	require.NoError(t, json.Unmarshal(output, &entries))

	require.Len(t, entries, 2)
	assert.Equal(t, filepath.Join(dir, "src", "a.ts"), entries[0].Path)
	assert.Equal(t, filepath.Join(dir, "src", "b.ts"), entries[1].Path)
	for _, e := range entries {
		assert.Equal(t, "1", e.Version)
		assert.False(t, e.Open)
	}
}

func TestFilesText(t *testing.T) {
	dir := writeProject(t)

	output, err := run(t, "files", "--config", filepath.Join(dir, "tsconfig.json"))
	require.NoError(t, err, "output: %s", output)

	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], filepath.Join("src", "a.ts"))
	assert.Contains(t, lines[0], "\tv1")
}

func TestFilesMissingConfig(t *testing.T) {
	output, err := run(t, "files", "--config", filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err, "output: %s", output)
}

func TestVersion(t *testing.T) {
	output, err := run(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v\noutput: %s", err, output)
	}

	// Version output contains "dev" in tests
	if len(output) == 0 {
		t.Error("expected version output, got empty")
	}
	assert.Contains(t, string(output), "tshost version")
}

func TestVersionJSON(t *testing.T) {
	output, err := run(t, "version", "--json")
	require.NoError(t, err, "output: %s", output)

	var info map[string]any
	require.NoError(t, json.Unmarshal(output, &info))
	assert.NotEmpty(t, info["version"])
}
