package toolchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_UsesEnvOverride(t *testing.T) {
	r := &Resolver{lookPath: func(string) (string, error) {
		t.Fatal("lookPath should not be called when MRUSTC_PATH is set")
		return "", nil
	}}
	env, err := r.Resolve("/opt/mrustc/bin/mrustc", "")
	require.NoError(t, err)
	assert.Equal(t, "/opt/mrustc/bin/mrustc", env.CompilerPath)
	assert.Equal(t, env.HostTriple, env.TargetTriple, "target triple defaults to host when --target is absent")
}

func TestResolve_FallsBackToLookPath(t *testing.T) {
	r := &Resolver{lookPath: func(name string) (string, error) {
		assert.Equal(t, "mrustc", name)
		return "/usr/bin/mrustc", nil
	}}
	env, err := r.Resolve("", "")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/mrustc", env.CompilerPath)
}

func TestResolve_ErrorsWhenCompilerMissing(t *testing.T) {
	r := &Resolver{lookPath: func(string) (string, error) {
		return "", assert.AnError
	}}
	_, err := r.Resolve("", "")
	require.Error(t, err)
}

func TestResolve_CrossCompilingSetsDistinctTargetTriple(t *testing.T) {
	r := &Resolver{lookPath: func(string) (string, error) { return "/usr/bin/mrustc", nil }}
	env, err := r.Resolve("", "aarch64-unknown-linux-gnu")
	require.NoError(t, err)
	assert.Equal(t, "aarch64-unknown-linux-gnu", env.TargetTriple)
	assert.NotEqual(t, env.HostTriple, env.TargetTriple)
}
