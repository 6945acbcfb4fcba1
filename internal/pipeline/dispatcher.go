// Package pipeline turns a clipboard image into text and puts the text back
// on the clipboard.
//
// One invocation reads the clipboard, runs the strategy of the selected mode
// (remote LaTeX recognition, local OCR or base64 encoding), writes the result
// to the clipboard on success and always reports a status string. Failures
// never escape as errors or panics.
package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"texclip/internal/capture"
	"texclip/internal/clipboard"
	"texclip/internal/config"
	"texclip/internal/fault"
	"texclip/internal/logging"
	"texclip/internal/metrics"
	"texclip/internal/notify"
	"texclip/internal/ocr"
	"texclip/internal/recognition"
)

// NotificationTitle heads every desktop notification.
const NotificationTitle = "texclip"

// RemoteRecognizer turns an image file into markup.
type RemoteRecognizer interface {
	Recognize(ctx context.Context, path string) (recognition.Result, error)
}

// Outcome is the result of one invocation.
type Outcome struct {
	Mode   Mode
	Status string
	// Text is what was written to the clipboard. Empty unless Status is StatusSuccess.
	Text string
	// Err is the cause of a failure, nil on success.
	Err error
	// InvocationID correlates the outcome with its log records.
	InvocationID string
	Duration     time.Duration
}

// OK reports whether the invocation succeeded.
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess
}

// Deps are the collaborators of a Dispatcher.
type Deps struct {
	Config    *config.Config
	Clipboard clipboard.Reader
	Writer    clipboard.Writer
	Remote    RemoteRecognizer
	Local     ocr.Engine
	// Persister overrides the one built from Config.Storage.SaveDir.
	Persister *capture.Persister
	// Notifier, when set, receives the status of every invocation.
	Notifier notify.Notifier
	// Metrics, when set, counts invocations by mode and status.
	Metrics *metrics.Invocations
	Logger  *logging.Logger
}

// Dispatcher runs invocations one at a time.
type Dispatcher struct {
	mu        sync.Mutex
	cfg       *config.Config
	reader    clipboard.Reader
	writer    clipboard.Writer
	remote    RemoteRecognizer
	local     ocr.Engine
	persister *capture.Persister
	notifier  notify.Notifier
	metrics   *metrics.Invocations
	log       *logging.Logger
}

// New creates a Dispatcher. Config, Clipboard and Writer are required; a
// missing Local engine behaves as ocr.Unavailable and a missing Remote
// recognizer fails every remote invocation.
func New(deps Deps) (*Dispatcher, error) {
	if deps.Config == nil {
		return nil, errors.New("pipeline: config is required")
	}
	if deps.Clipboard == nil || deps.Writer == nil {
		return nil, errors.New("pipeline: clipboard reader and writer are required")
	}

	d := &Dispatcher{
		cfg:       deps.Config,
		reader:    deps.Clipboard,
		writer:    deps.Writer,
		remote:    deps.Remote,
		local:     deps.Local,
		persister: deps.Persister,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		log:       deps.Logger,
	}
	if d.local == nil {
		d.local = ocr.Unavailable{}
	}
	if d.persister == nil {
		d.persister = capture.NewPersister(d.cfg.Storage.SaveDir)
	}
	if d.notifier == nil {
		d.notifier = notify.Nop{}
	}
	if d.log == nil {
		d.log = logging.Discard()
	}
	return d, nil
}

// RecognizeRemote converts the clipboard image to LaTeX with the recognition service.
func (d *Dispatcher) RecognizeRemote(ctx context.Context) Outcome {
	return d.Run(ctx, ModeRemote)
}

// RecognizeLocal converts the clipboard image to text with the local OCR engine.
func (d *Dispatcher) RecognizeLocal(ctx context.Context) Outcome {
	return d.Run(ctx, ModeLocal)
}

// EncodeBase64 replaces the clipboard image with the base64 text of its PNG file.
func (d *Dispatcher) EncodeBase64(ctx context.Context) Outcome {
	return d.Run(ctx, ModeEncode)
}

// Run performs one invocation in mode. Concurrent calls are serialized.
func (d *Dispatcher) Run(ctx context.Context, mode Mode) (out Outcome) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := logging.NewInvocationID()
	ctx = logging.ContextWithInvocation(ctx, id)
	log := d.log.WithInvocation(id).With(slog.String("mode", mode.String()))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic recovered", "panic", fmt.Sprintf("%v", r), "stack", string(debug.Stack()))
			out = Outcome{Mode: mode, Status: mode.FailureStatus(), Err: fmt.Errorf("panic: %v", r)}
		}
		out.InvocationID = id
		out.Duration = time.Since(start)
		d.report(log, out)
	}()

	log.Debug("invocation started")

	if !mode.Valid() {
		err := fmt.Errorf("unknown mode %d", int(mode))
		return Outcome{Mode: mode, Status: mode.FailureStatus(), Err: err}
	}

	text, err := d.invoke(ctx, log, mode)
	if err != nil {
		return Outcome{Mode: mode, Status: StatusFor(mode, err), Err: err}
	}
	return Outcome{Mode: mode, Status: StatusSuccess, Text: text}
}

func (d *Dispatcher) invoke(ctx context.Context, log *slog.Logger, mode Mode) (string, error) {
	img, err := d.reader.ReadImage(ctx)
	if err != nil {
		if errors.Is(err, clipboard.ErrNoImage) {
			return "", fault.New(fault.NoImage, "read clipboard", err)
		}
		return "", fmt.Errorf("read clipboard: %w", err)
	}

	c := capture.NewImage(img, d.persister, d.cfg.Storage.KeepImages)
	defer func() {
		if err := c.Cleanup(); err != nil {
			log.Warn("capture cleanup failed", "error", err)
		}
	}()

	var text string
	switch mode {
	case ModeRemote:
		text, err = d.recognizeRemote(ctx, c)
	case ModeLocal:
		text, err = d.recognizeLocal(ctx, c)
	case ModeEncode:
		text, err = encodeFile(c)
	}
	if c.Persisted() {
		p, _ := c.Path()
		log.Debug("capture persisted", "path", p, "keep", d.cfg.Storage.KeepImages)
	}
	if err != nil {
		return "", err
	}

	if err := d.writer.WriteText(text); err != nil {
		return "", fmt.Errorf("write clipboard: %w", err)
	}
	return text, nil
}

func (d *Dispatcher) recognizeRemote(ctx context.Context, c *capture.Image) (string, error) {
	if d.remote == nil {
		return "", fault.Errorf(fault.Transport, "recognize", "remote recognition is not configured")
	}

	path, err := c.Path()
	if err != nil {
		return "", err
	}

	res, err := d.remote.Recognize(ctx, path)
	if err != nil {
		return "", err
	}
	return res.Markup, nil
}

func (d *Dispatcher) recognizeLocal(ctx context.Context, c *capture.Image) (string, error) {
	text, err := d.local.Recognize(ctx, c.Image(), d.cfg.OCR.Language)
	if err != nil {
		return "", fault.New(fault.Recognition, "ocr", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fault.New(fault.Recognition, "ocr", ocr.ErrNoText)
	}
	return text, nil
}

// encodeFile returns the standard base64 encoding of the persisted PNG file.
func encodeFile(c *capture.Image) (string, error) {
	path, err := c.Path()
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fault.New(fault.Encoding, "read capture", err)
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	if encoded == "" {
		return "", fault.Errorf(fault.Encoding, "encode", "empty capture file %s", path)
	}
	return encoded, nil
}

func (d *Dispatcher) report(log *slog.Logger, out Outcome) {
	attrs := []any{
		"status", out.Status,
		"duration_ms", out.Duration.Milliseconds(),
	}
	switch {
	case out.OK():
		log.Info("invocation finished", append(attrs, "chars", len(out.Text))...)
	case fault.KindOf(out.Err) == fault.NoImage:
		log.Info("invocation finished", attrs...)
	default:
		log.Warn("invocation failed", append(attrs, "kind", fault.KindOf(out.Err).String(), "error", out.Err)...)
	}

	if d.metrics != nil {
		d.metrics.Record(out.Mode.String(), out.Status, out.Duration)
	}
	if err := d.notifier.Notify(NotificationTitle, out.Status); err != nil {
		log.Debug("notification failed", "error", err)
	}
}
