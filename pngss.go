/*
Package pngss is a library for decoding a constrained subset of the PNG
image format and for maintaining a catalog of scanned images.

The decoder itself lives in the png and flate subpackages; this package
provides the filesystem scanner that walks a directory tree, decodes
every PNG it finds and records the image metadata and a small paletted
thumbnail in a SQLite catalog.
*/
package pngss

import "log"

type Scanner struct {
	db     *Catalog
	logger *log.Logger
}

// New returns a Scanner backed by the catalog database at file, creating
// it if necessary.
func New(file string, logger *log.Logger) (*Scanner, error) {
	db, err := NewCatalog(file)
	if err != nil {
		return nil, err
	}
	return &Scanner{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the underlying catalog.
func (s *Scanner) Close() error {
	return s.db.Close()
}
