package pngss

import (
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bodgit/pngss/flate"
	"github.com/bodgit/pngss/png"
)

func (s *Scanner) findFiles(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal file
			if !info.Mode().IsRegular() {
				return nil
			}

			// Ignore any file greater than 16 MB
			if info.Size() > 16<<(10*2) {
				return nil
			}

			if !strings.EqualFold(filepath.Ext(file), ".png") {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

// decodeError reports whether err means the file itself is not a
// decodable PNG, as opposed to an I/O or database failure.
func decodeError(err error) bool {
	var formatErr png.FormatError
	var unsupportedErr png.UnsupportedError
	var corruptErr flate.CorruptInputError
	return errors.As(err, &formatErr) || errors.As(err, &unsupportedErr) || errors.As(err, &corruptErr)
}

func (s *Scanner) scanFile(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("%X", sha1.Sum(data))

	entry, err := s.db.FindBySHA1(key)
	if err != nil {
		return err
	}
	if entry != nil {
		return nil
	}

	d := png.NewDecoder()
	d.Feed(data)
	hdr, err := d.Header()
	if err == png.ErrNeedMoreInput {
		err = png.FormatError("truncated file")
	}
	if err != nil {
		return err
	}

	m, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}

	thumb, err := NewThumbnail(m).MarshalBinary()
	if err != nil {
		return err
	}

	return s.db.Put(key, &Entry{
		Path:      file,
		Width:     hdr.Width,
		Height:    hdr.Height,
		ColorType: hdr.ColorType,
		BitDepth:  hdr.BitDepth,
		Thumb:     thumb,
	})
}

func (s *Scanner) fileWorker(ctx context.Context, in <-chan string) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			if err := s.scanFile(file); err != nil {
				if decodeError(err) {
					s.logger.Printf("Skipping \"%s\": %v\n", file, err)
					continue
				}
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks the directory tree rooted at path and catalogs every PNG
// image found, decoding each one to record its metadata and thumbnail.
// Files that fail to decode are logged and skipped.
func (s *Scanner) Scan(path string) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := s.findFiles(ctx, dir)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < 4; i++ {
		errc, err := s.fileWorker(ctx, files)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
