package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/cottarelease/internal/foundation/errors"
)

const dist = "/project/build/dist"

func releaseNames(plan []Artifact) []string {
	names := make([]string, len(plan))
	for i, a := range plan {
		names[i] = a.ReleaseName()
	}
	return names
}

func TestPlanNames(t *testing.T) {
	plan := Plan(dist, "1.3b42")
	require.Len(t, plan, 6)
	assert.Equal(t, []string{
		"cotta-1.3b42.jar",
		"cotta-1.3b42-src.zip",
		"cotta-testbase-1.3b42.jar",
		"cotta-testbase-1.3b42-src.zip",
		"cotta-asserts-1.3b42.jar",
		"cotta-asserts-1.3b42-src.zip",
	}, releaseNames(plan))

	assert.Equal(t, filepath.Join(dist, "cotta-testbase-src.zip"), plan[3].Source)
	assert.Equal(t, filepath.Join(dist, "cotta-testbase-1.3b42-src.zip"), plan[3].Release)
	assert.Equal(t, "cotta.jar -> cotta-1.3b42.jar", plan[0].String())
}

func TestCustomLayout(t *testing.T) {
	plan := Layout{Product: "widget", Variants: []string{"", "extras"}}.Plan(dist, "2.0b1")
	assert.Equal(t, []string{
		"widget-2.0b1.jar",
		"widget-2.0b1-src.zip",
		"widget-extras-2.0b1.jar",
		"widget-extras-2.0b1-src.zip",
	}, releaseNames(plan))
}

func seed(t *testing.T, fs afero.Fs, plan []Artifact) map[string][]byte {
	t.Helper()
	contents := make(map[string][]byte)
	require.NoError(t, fs.MkdirAll(dist, 0o755))
	for i, a := range plan {
		data := []byte{byte(i), 0x00, 0xff, 'P', 'K', byte(i * 7)}
		require.NoError(t, afero.WriteFile(fs, a.Source, data, 0o644))
		contents[a.Release] = data
	}
	return contents
}

func TestCopyAllIsByteIdentical(t *testing.T) {
	fs := afero.NewMemMapFs()
	plan := Plan(dist, "1.0b6")
	want := seed(t, fs, plan)

	c := NewCopier(fs)
	assert.Empty(t, c.Missing(plan))
	var copied []string
	require.NoError(t, c.CopyAll(context.Background(), plan, func(a Artifact) { copied = append(copied, a.ReleaseName()) }))
	assert.Equal(t, releaseNames(plan), copied)

	for _, a := range plan {
		got, err := afero.ReadFile(fs, a.Release)
		require.NoError(t, err)
		assert.Equal(t, want[a.Release], got, a.ReleaseName())

		// Sources stay in place.
		ok, err := afero.Exists(fs, a.Source)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestCopyToOverwritesAndKeepsMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "cotta.jar")
	dst := filepath.Join(dir, "cotta-1.0b6.jar")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o640))
	require.NoError(t, os.WriteFile(dst, []byte("stale and longer"), 0o600))

	require.NoError(t, NewCopier(afero.NewOsFs()).CopyTo(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestCopyAllStopsAtMissingSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	plan := Plan(dist, "1.0b6")
	seed(t, fs, plan)
	require.NoError(t, fs.Remove(plan[2].Source))

	c := NewCopier(fs)
	missing := c.Missing(plan)
	require.Len(t, missing, 1)
	assert.Equal(t, "cotta-testbase.jar", missing[0].Name)

	var copied []Artifact
	err := c.CopyAll(context.Background(), plan, func(a Artifact) { copied = append(copied, a) })
	require.Error(t, err)
	assert.Equal(t, plan[:2], copied)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileCopy))

	for i, a := range plan {
		ok, _ := afero.Exists(fs, a.Release)
		assert.Equal(t, i < 2, ok, a.ReleaseName())
	}
}

func TestCopyToUnwritableDestination(t *testing.T) {
	base := afero.NewMemMapFs()
	plan := Plan(dist, "1.0b6")
	seed(t, base, plan)

	err := NewCopier(afero.NewReadOnlyFs(base)).CopyTo(plan[0].Source, plan[0].Release)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileCopy))
}

func TestCopyAllHonoursCancellation(t *testing.T) {
	fs := afero.NewMemMapFs()
	plan := Plan(dist, "1.0b6")
	seed(t, fs, plan)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewCopier(fs).CopyAll(ctx, plan, nil)
	require.ErrorIs(t, err, context.Canceled)
}
