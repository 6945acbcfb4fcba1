// Package clipboard reads raster images from and writes text to the OS clipboard.
package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os/exec"
	"strings"

	// Decoders for the formats screenshot tools and browsers put on the clipboard.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	atotto "github.com/atotto/clipboard"
	"github.com/h2non/filetype"
)

// Errors
var (
	ErrNoImage     = errors.New("clipboard: no image on clipboard")
	ErrUnsupported = errors.New("clipboard: no clipboard tool available")
)

// Reader exposes the current clipboard image.
type Reader interface {
	// ReadImage returns the clipboard image, or ErrNoImage when the clipboard
	// holds anything else (text, files, nothing).
	ReadImage(ctx context.Context) (image.Image, error)
}

// Writer replaces the clipboard content with text.
type Writer interface {
	WriteText(text string) error
}

// Clipboard is both a Reader and a Writer.
type Clipboard interface {
	Reader
	Writer
}

// Decode sniffs raw clipboard bytes and decodes them if they are a raster image.
// It returns the decoded image and its MIME type.
func Decode(data []byte) (image.Image, string, error) {
	if len(data) == 0 || !filetype.IsImage(data) {
		return nil, "", ErrNoImage
	}

	kind, err := filetype.Match(data)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrNoImage, err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, kind.MIME.Value, fmt.Errorf("%w: decode %s: %v", ErrNoImage, kind.MIME.Value, err)
	}
	return img, kind.MIME.Value, nil
}

// runner executes a clipboard tool and returns its stdout.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// grabber fetches raw image bytes with one platform tool. It returns
// (nil, nil) when the tool ran but the clipboard holds no image.
type grabber struct {
	tool string
	grab func(ctx context.Context, run runner) ([]byte, error)
}

// System is the OS clipboard. Images are read through platform tools
// (wl-paste, xclip, pngpaste, PowerShell); text is written through atotto/clipboard.
type System struct {
	grabbers []grabber
	run      runner
	lookPath func(string) (string, error)
	write    func(string) error
}

// NewSystem returns the clipboard for the current platform.
func NewSystem() *System {
	return &System{
		grabbers: platformGrabbers(),
		run:      execRunner,
		lookPath: exec.LookPath,
		write:    atotto.WriteAll,
	}
}

// Tools lists the external programs the OS clipboard reader can use, in the
// order they are tried.
func Tools() []string {
	gs := platformGrabbers()
	names := make([]string, 0, len(gs))
	for _, g := range gs {
		names = append(names, g.tool)
	}
	return names
}

// ReadImage implements Reader.
func (s *System) ReadImage(ctx context.Context) (image.Image, error) {
	ran := false
	var lastErr error

	for _, g := range s.grabbers {
		if _, err := s.lookPath(g.tool); err != nil {
			continue
		}
		ran = true

		data, err := g.grab(ctx, s.run)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		if len(data) == 0 {
			continue
		}

		img, _, err := Decode(data)
		if err != nil {
			lastErr = err
			continue
		}
		return img, nil
	}

	if !ran {
		return nil, ErrUnsupported
	}
	if lastErr != nil && !errors.Is(lastErr, ErrNoImage) {
		// The tools exit non-zero when the requested type is absent; that is
		// indistinguishable from "no image" without parsing their stderr.
		return nil, fmt.Errorf("%w: %v", ErrNoImage, lastErr)
	}
	return nil, ErrNoImage
}

// WriteText implements Writer.
func (s *System) WriteText(text string) error {
	if atotto.Unsupported {
		return ErrUnsupported
	}
	if err := s.write(text); err != nil {
		return fmt.Errorf("clipboard: write text: %w", err)
	}
	return nil
}

// pickImageType chooses the MIME type to request from a newline-separated
// list of clipboard targets, preferring PNG.
func pickImageType(targets string) string {
	var first string
	for _, line := range strings.Split(targets, "\n") {
		t := strings.TrimSpace(line)
		if !strings.HasPrefix(t, "image/") {
			continue
		}
		if t == "image/png" {
			return t
		}
		if first == "" {
			first = t
		}
	}
	return first
}
