// Package tesseract implements ocr.Engine with the Tesseract library.
package tesseract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"texclip/internal/ocr"
)

// Engine runs Tesseract through gosseract. A fresh client is created per call,
// so Engine is safe for concurrent use.
type Engine struct {
	dataPath      string
	clientFactory func() *gosseract.Client
}

// New creates an Engine. dataPath, when non-empty, overrides the tessdata
// directory the language profiles are loaded from.
func New(dataPath string) *Engine {
	return &Engine{dataPath: dataPath, clientFactory: gosseract.NewClient}
}

// Name identifies the engine in logs.
func (e *Engine) Name() string { return "tesseract" }

// Version reports the linked Tesseract library version.
func (e *Engine) Version() string {
	return gosseract.Version()
}

// Recognize implements ocr.Engine.
func (e *Engine) Recognize(ctx context.Context, img image.Image, language string) (string, error) {
	if img == nil {
		return "", errors.New("tesseract: nil image")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}

	c := e.clientFactory()
	defer c.Close()

	if e.dataPath != "" {
		if err := c.SetTessdataPrefix(e.dataPath); err != nil {
			return "", fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := c.SetLanguage(ocr.Languages(language)...); err != nil {
		return "", fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	// The library call cannot be interrupted; honor cancellation afterwards.
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return ocr.Normalize(text)
}
