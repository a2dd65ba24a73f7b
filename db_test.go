package pngss

import (
	"path/filepath"
	"testing"

	"github.com/bodgit/pngss/png"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	c, err := NewCatalog(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer c.Close()

	e, err := c.FindBySHA1("DEADBEEF")
	require.NoError(t, err)
	assert.Nil(t, e)

	want := &Entry{
		Path:      "images/test.png",
		Width:     320,
		Height:    200,
		ColorType: png.RGB,
		BitDepth:  8,
		Thumb:     []byte{1, 2, 3},
	}
	require.NoError(t, c.Put("DEADBEEF", want))

	e, err = c.FindBySHA1("DEADBEEF")
	require.NoError(t, err)
	assert.Equal(t, want, e)

	// Replacing an existing hash keeps a single row.
	want.Path = "images/renamed.png"
	require.NoError(t, c.Put("DEADBEEF", want))

	e, err = c.FindBySHA1("DEADBEEF")
	require.NoError(t, err)
	assert.Equal(t, "images/renamed.png", e.Path)
}
