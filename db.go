package pngss

import (
	"database/sql"
	"fmt"

	"github.com/bodgit/pngss/png"
	_ "github.com/mattn/go-sqlite3"
)

// Catalog is the SQLite database of scanned images, keyed by the SHA-1 of
// the file contents.
type Catalog struct {
	db *sql.DB
}

// Entry is one catalogued image.
type Entry struct {
	Path      string
	Width     int
	Height    int
	ColorType png.ColorType
	BitDepth  uint8
	Thumb     []byte
}

// NewCatalog opens the catalog database at file, creating the schema if
// necessary.
func NewCatalog(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS image (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL UNIQUE, path TEXT NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, color_type INTEGER NOT NULL, bit_depth INTEGER NOT NULL, thumb BLOB)"); err != nil {
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close closes the catalog.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Put inserts or replaces the entry for the given content hash.
func (c *Catalog) Put(sha1 string, e *Entry) error {
	_, err := c.db.Exec("INSERT OR REPLACE INTO image (sha1, path, width, height, color_type, bit_depth, thumb) VALUES (?, ?, ?, ?, ?, ?, ?)",
		sha1, e.Path, e.Width, e.Height, int(e.ColorType), int(e.BitDepth), e.Thumb)
	return err
}

// FindBySHA1 returns the entry for the given content hash, or nil if the
// image has not been catalogued.
func (c *Catalog) FindBySHA1(sha1 string) (*Entry, error) {
	e := new(Entry)
	var colorType, bitDepth int
	err := c.db.QueryRow("SELECT path, width, height, color_type, bit_depth, thumb FROM image WHERE sha1 = ?", sha1).
		Scan(&e.Path, &e.Width, &e.Height, &colorType, &bitDepth, &e.Thumb)
	switch {
	case err == sql.ErrNoRows:
		return nil, nil
	case err != nil:
		return nil, err
	}
	e.ColorType = png.ColorType(colorType)
	e.BitDepth = uint8(bitDepth)
	return e, nil
}
