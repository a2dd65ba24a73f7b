package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/bodgit/pngss"
	"github.com/bodgit/pngss/png"
	"github.com/urfave/cli/v2"
)

const defaultDB = "pngss.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version, V",
		Usage: "print the version",
	}
}

func readHeader(r io.Reader, d *png.Decoder) (png.Header, error) {
	buf := make([]byte, 4096)
	for {
		hdr, err := d.Header()
		if err == nil {
			return hdr, nil
		}
		if err != png.ErrNeedMoreInput {
			return png.Header{}, err
		}
		n, rerr := r.Read(buf)
		if n > 0 {
			d.Feed(buf[:n])
		}
		if rerr == io.EOF && n == 0 {
			return png.Header{}, io.ErrUnexpectedEOF
		}
		if rerr != nil && rerr != io.EOF {
			return png.Header{}, rerr
		}
	}
}

// dump streams the decoded image to w as a binary PPM, writing each row
// as it completes rather than buffering the image.
func dump(r io.Reader, w io.Writer) error {
	d := png.NewDecoder()
	bw := bufio.NewWriter(w)
	buf := make([]byte, 32*1024)

	var rgb []byte
	for {
		row, err := d.NextRow()
		switch err {
		case nil:
		case png.ErrNeedMoreInput:
			n, rerr := r.Read(buf)
			if n > 0 {
				d.Feed(buf[:n])
			}
			if rerr == io.EOF && n == 0 {
				return io.ErrUnexpectedEOF
			}
			if rerr != nil && rerr != io.EOF {
				return rerr
			}
			continue
		case io.EOF:
			return bw.Flush()
		default:
			return err
		}

		if rgb == nil {
			hdr, err := d.Header()
			if err != nil {
				return err
			}
			fmt.Fprintf(bw, "P6\n%d %d\n255\n", hdr.Width, hdr.Height)
			rgb = make([]byte, 3*hdr.Width)
		}

		p, err := row.RGB(rgb)
		if err != nil {
			return err
		}
		if _, err := bw.Write(p); err != nil {
			return err
		}
	}
}

func main() {
	app := cli.NewApp()

	app.Name = "pngss"
	app.Usage = "Streaming PNG subset decoder and image catalog"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"PNGSS_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to catalog database",
		},
		&cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "info",
			Usage:       "Print image metadata",
			Description: "",
			ArgsUsage:   "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				f, err := os.Open(c.Args().First())
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer f.Close()

				d := png.NewDecoder()
				hdr, err := readHeader(f, d)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				fmt.Printf("%s: %dx%d %s, %d-bit\n", c.Args().First(), hdr.Width, hdr.Height, hdr.ColorType, hdr.BitDepth)

				return nil
			},
		},
		{
			Name:        "dump",
			Usage:       "Decode to a binary PPM on standard output",
			Description: "",
			ArgsUsage:   "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				f, err := os.Open(c.Args().First())
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer f.Close()

				if err := dump(f, os.Stdout); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "scan",
			Usage:       "Scan filesystem and catalog PNG images",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				logger := log.New(io.Discard, "", 0)
				if c.Bool("verbose") {
					logger.SetOutput(os.Stderr)
				}

				s, err := pngss.New(c.String("db"), logger)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer s.Close()

				if err := s.Scan(c.Args().First()); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
