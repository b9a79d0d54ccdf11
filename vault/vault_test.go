package vault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/clipd/errors"
	"github.com/teranos/clipd/media"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	return v
}

func TestResolveValidNames(t *testing.T) {
	v := newTestVault(t)

	for _, name := range []string{
		"clip_abcd1234.mp4",
		"My Video #2.webm",
		"Fête_de_la_musique_0a1b2c3d.mp4",
		"a-b.c",
	} {
		path, err := v.Resolve(name)
		require.NoError(t, err, "name %q", name)
		assert.Equal(t, filepath.Join(v.Root(), name), path)
	}
}

func TestResolveAcceptsSanitizedTitles(t *testing.T) {
	v := newTestVault(t)

	// Every filename the pipeline hands out must be retrievable, whatever
	// the source title looked like.
	for _, title := range []string{
		"Part 1.. the beginning",
		"Ep. 2... the end",
		"Test 🔥 Video",
		"v1.0.1 release notes",
		"..hidden..",
	} {
		name := media.Sanitize(title) + "_abcd1234.mp4"
		_, err := v.Resolve(name)
		require.NoError(t, err, "title %q -> name %q", title, name)
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	v := newTestVault(t)

	for _, name := range []string{
		"",
		"..",
		"../etc/passwd",
		"..\\windows\\system32",
		"a/b.mp4",
		"a\\b.mp4",
		"/etc/passwd",
		"..%2F..%2Fetc%2Fpasswd",
		"clip..mp4",
		"clip\x00.mp4",
	} {
		_, err := v.Resolve(name)
		require.Error(t, err, "name %q", name)
		assert.True(t, errors.Is(err, errors.ErrPathTraversal), "name %q", name)
	}
}

func TestOpen(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, os.WriteFile(filepath.Join(v.Root(), "clip.mp4"), []byte("media"), 0o644))

	f, info, err := v.Open("clip.mp4")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, int64(5), info.Size())
}

func TestOpenMissing(t *testing.T) {
	v := newTestVault(t)

	_, _, err := v.Open("absent.mp4")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestOpenEmptyArtifact(t *testing.T) {
	v := newTestVault(t)
	require.NoError(t, os.WriteFile(filepath.Join(v.Root(), "empty.mp4"), nil, 0o644))

	_, _, err := v.Open("empty.mp4")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEmptyArtifact))
}

func TestRemoveMissingIsNoop(t *testing.T) {
	v := newTestVault(t)
	assert.NoError(t, v.Remove("never-existed.mp4"))
}
