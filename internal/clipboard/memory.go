package clipboard

import (
	"context"
	"image"
	"sync"
)

// Memory is an in-process clipboard for tests and dry runs.
// Like a real clipboard it holds a single item: writing text drops the image.
type Memory struct {
	mu     sync.Mutex
	img    image.Image
	text   string
	writes int

	// ReadErr and WriteErr, when set, are returned by ReadImage and WriteText.
	ReadErr  error
	WriteErr error
}

// NewMemory returns an empty Memory clipboard.
func NewMemory() *Memory {
	return &Memory{}
}

// SetImage places img on the clipboard, replacing any text.
func (m *Memory) SetImage(img image.Image) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.img = img
	m.text = ""
}

// SetText places text on the clipboard without counting it as a write.
func (m *Memory) SetText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.img = nil
	m.text = text
}

// Text returns the current clipboard text.
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// Writes returns how many times WriteText succeeded.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// ReadImage implements Reader.
func (m *Memory) ReadImage(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	if m.img == nil {
		return nil, ErrNoImage
	}
	return m.img, nil
}

// WriteText implements Writer.
func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.img = nil
	m.text = text
	m.writes++
	return nil
}
