// Package ocr defines the local text recognition capability.
package ocr

import (
	"context"
	"errors"
	"image"
	"strings"
)

// DefaultLanguage is the recognition profile used when none is configured.
const DefaultLanguage = "chi_sim"

// Errors
var (
	ErrNoText      = errors.New("ocr: no text recognized")
	ErrUnavailable = errors.New("ocr: no engine available")
)

// Engine recognizes text in an image.
type Engine interface {
	// Recognize returns the text found in img. language is a profile name or
	// several joined with '+', e.g. "chi_sim+eng".
	Recognize(ctx context.Context, img image.Image, language string) (string, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, img image.Image, language string) (string, error)

// Recognize implements Engine.
func (f EngineFunc) Recognize(ctx context.Context, img image.Image, language string) (string, error) {
	return f(ctx, img, language)
}

// Unavailable is the engine used when the binary was built without OCR support.
type Unavailable struct{}

// Recognize implements Engine.
func (Unavailable) Recognize(context.Context, image.Image, string) (string, error) {
	return "", ErrUnavailable
}

// Languages splits a '+'-joined profile into its parts, dropping empties.
// An empty profile yields DefaultLanguage.
func Languages(profile string) []string {
	var langs []string
	for _, l := range strings.Split(profile, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	if len(langs) == 0 {
		return []string{DefaultLanguage}
	}
	return langs
}

// Normalize trims recognizer output and collapses runs of blank lines.
// It returns ErrNoText when nothing but whitespace remains.
func Normalize(text string) (string, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}

	s := strings.TrimSpace(strings.Join(out, "\n"))
	if s == "" {
		return "", ErrNoText
	}
	return s, nil
}
