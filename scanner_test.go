package pngss

import (
	"crypto/sha1"
	"fmt"
	"image"
	stdpng "image/png"
	"io"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/pngss/png"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, file string) string {
	t.Helper()
	m := image.NewNRGBA(image.Rect(0, 0, 48, 32))
	rand.New(rand.NewSource(1)).Read(m.Pix)

	f, err := os.Create(file)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, stdpng.Encode(f, m))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	return fmt.Sprintf("%X", sha1.Sum(data))
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	key := writeTestPNG(t, filepath.Join(dir, "test.png"))

	// Files the walker should ignore.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bogus.png"), []byte("not a png"), 0o644))

	s, err := New(filepath.Join(t.TempDir(), "test.db"), log.New(io.Discard, "", 0))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Scan(dir))

	e, err := s.db.FindBySHA1(key)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, 48, e.Width)
	assert.Equal(t, 32, e.Height)
	assert.Equal(t, png.RGBA, e.ColorType)
	assert.Equal(t, uint8(8), e.BitDepth)
	assert.NotEmpty(t, e.Thumb)

	tn := new(Thumbnail)
	require.NoError(t, tn.UnmarshalBinary(e.Thumb))

	// A second scan of the same tree is a no-op.
	require.NoError(t, s.Scan(dir))
}
