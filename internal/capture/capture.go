// Package capture persists clipboard images to the save directory.
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"texclip/internal/fault"
)

// maxNameAttempts bounds the search for a free file name when several
// captures land on the same microsecond.
const maxNameAttempts = 1000

var errNilImage = errors.New("capture: nil image")

// Persister writes images as PNG files named after a high-resolution timestamp.
// Every call creates a new file; existing files are never overwritten.
type Persister struct {
	dir string
	now func() time.Time
}

// NewPersister creates a Persister writing into dir.
func NewPersister(dir string) *Persister {
	return &Persister{dir: dir, now: time.Now}
}

// Dir returns the save directory.
func (p *Persister) Dir() string {
	return p.dir
}

// FileName returns the capture file name for t: <seconds>.<microseconds>.png.
func FileName(t time.Time) string {
	return fmt.Sprintf("%d.%06d.png", t.Unix(), t.Nanosecond()/int(time.Microsecond))
}

// Persist encodes img as PNG into a new file and returns its path.
// All failures are reported as fault.Persistence.
func (p *Persister) Persist(img image.Image) (string, error) {
	if img == nil {
		return "", fault.New(fault.Persistence, "persist", errNilImage)
	}
	if err := os.MkdirAll(p.dir, 0700); err != nil {
		return "", fault.New(fault.Persistence, "create save dir", err)
	}

	f, path, err := p.create()
	if err != nil {
		return "", err
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return "", fault.New(fault.Persistence, "encode png", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fault.New(fault.Persistence, "close capture", err)
	}
	return path, nil
}

// create opens a fresh file, stepping the timestamp forward one microsecond
// per collision.
func (p *Persister) create() (*os.File, string, error) {
	t := p.now()
	for i := 0; i < maxNameAttempts; i++ {
		path := filepath.Join(p.dir, FileName(t))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err == nil {
			return f, path, nil
		}
		if !os.IsExist(err) {
			return nil, "", fault.New(fault.Persistence, "create capture", err)
		}
		t = t.Add(time.Microsecond)
	}
	return nil, "", fault.Errorf(fault.Persistence, "create capture", "no free file name after %d attempts", maxNameAttempts)
}

// Image is one captured clipboard image. The on-disk copy is written lazily,
// only when a strategy asks for a path.
type Image struct {
	img       image.Image
	persister *Persister
	keep      bool
	path      string
}

// NewImage wraps img. When keep is false Cleanup deletes the persisted file.
func NewImage(img image.Image, persister *Persister, keep bool) *Image {
	return &Image{img: img, persister: persister, keep: keep}
}

// Image returns the in-memory raster.
func (c *Image) Image() image.Image {
	return c.img
}

// Path persists the image on first use and returns the file path.
func (c *Image) Path() (string, error) {
	if c.path != "" {
		return c.path, nil
	}
	path, err := c.persister.Persist(c.img)
	if err != nil {
		return "", err
	}
	c.path = path
	return path, nil
}

// Persisted reports whether a file has been written.
func (c *Image) Persisted() bool {
	return c.path != ""
}

// Cleanup removes the persisted file unless the image is configured to be
// kept. It is safe to call when nothing was persisted.
func (c *Image) Cleanup() error {
	if c.keep || c.path == "" {
		return nil
	}
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove capture: %w", err)
	}
	c.path = ""
	return nil
}
