//go:build integration

package integration_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ferrite-labs/ferrite/internal/config"
	"github.com/ferrite-labs/ferrite/internal/platform"
	"github.com/spf13/viper"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	HomeDir    string // fake $HOME — contains .ferrite/
	ScratchDir string // FERRITE_TMPDIR
	WorkDir    string // where fetched and copied trees land
}

// setupTestEnv points $HOME and the scratch dir at temp directories so the
// whole run is sandboxed, and resets the viper global around the test.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		HomeDir:    t.TempDir(),
		ScratchDir: t.TempDir(),
		WorkDir:    t.TempDir(),
	}
	t.Setenv("HOME", env.HomeDir)
	t.Setenv("FERRITE_TMPDIR", env.ScratchDir)

	viper.Reset()
	t.Cleanup(viper.Reset)
	return env
}

// writeConfig writes ~/.ferrite/config.yaml with the given content and
// returns its path.
func writeConfig(t *testing.T, env *testEnv, content string) string {
	t.Helper()

	dir := filepath.Join(env.HomeDir, ".ferrite")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("creating config dir: %v", err)
	}
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

// loadAndResolve runs the host startup sequence: load config, validate,
// snapshot settings, build the registry, resolve.
func loadAndResolve(t *testing.T) *platform.Registry {
	t.Helper()

	config.Load()
	result, err := config.ValidateFile(config.FilePath())
	if err != nil {
		t.Fatalf("validating config: %v", err)
	}
	if !result.Valid {
		t.Fatalf("config invalid: %+v", result.Issues)
	}

	r := platform.New(config.Current())
	if err := r.Resolve(); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	return r
}

func assertFileContent(t *testing.T, path, want string) {
	t.Helper()
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if string(got) != want {
		t.Errorf("%s content = %q, want %q", path, got, want)
	}
}
