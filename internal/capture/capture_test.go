package capture

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"texclip/internal/fault"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	return img
}

func TestFileName(t *testing.T) {
	ts := time.Unix(1724140800, 123456789)
	assert.Equal(t, "1724140800.123456.png", FileName(ts))
	assert.Equal(t, "1724140800.000001.png", FileName(time.Unix(1724140800, 1000)))
}

func TestPersistWritesLosslessPNG(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "captures")
	p := NewPersister(dir)

	src := testImage()
	path, err := p.Persist(src)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Equal(t, ".png", filepath.Ext(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, src.Bounds(), decoded.Bounds())
	r, g, b, a := decoded.At(1, 1).RGBA()
	assert.Equal(t, [4]uint32{0xffff, 0, 0, 0xffff}, [4]uint32{r, g, b, a})
}

func TestPersistNeverReusesNames(t *testing.T) {
	dir := t.TempDir()
	fixed := time.Unix(1724140800, 5000)
	p := &Persister{dir: dir, now: func() time.Time { return fixed }}

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		path, err := p.Persist(testImage())
		require.NoError(t, err)
		require.False(t, seen[path], "path %s reused", path)
		seen[path] = true
	}

	assert.True(t, seen[filepath.Join(dir, "1724140800.000005.png")])
	assert.True(t, seen[filepath.Join(dir, "1724140800.000009.png")])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestPersistUnwritableDir(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	p := NewPersister(filepath.Join(blocker, "captures"))
	_, err := p.Persist(testImage())
	require.Error(t, err)
	assert.Equal(t, fault.Persistence, fault.KindOf(err))
}

func TestPersistNilImage(t *testing.T) {
	_, err := NewPersister(t.TempDir()).Persist(nil)
	assert.ErrorIs(t, err, fault.Persistence)
}

func TestImageLazyPersistence(t *testing.T) {
	dir := t.TempDir()
	c := NewImage(testImage(), NewPersister(dir), false)

	assert.False(t, c.Persisted())
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries, "nothing is written until a path is requested")

	path, err := c.Path()
	require.NoError(t, err)
	again, err := c.Path()
	require.NoError(t, err)
	assert.Equal(t, path, again, "the image is persisted once")
	assert.True(t, c.Persisted())

	require.NoError(t, c.Cleanup())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, c.Cleanup(), "cleanup is idempotent")
}

func TestImageKeep(t *testing.T) {
	c := NewImage(testImage(), NewPersister(t.TempDir()), true)
	path, err := c.Path()
	require.NoError(t, err)

	require.NoError(t, c.Cleanup())
	_, err = os.Stat(path)
	assert.NoError(t, err, "kept captures survive cleanup")
}

func TestImageCleanupWithoutPersist(t *testing.T) {
	c := NewImage(testImage(), NewPersister(t.TempDir()), false)
	assert.NoError(t, c.Cleanup())
}
