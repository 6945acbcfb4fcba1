// Package app assembles a Dispatcher from a loaded configuration. It is the
// wiring shared by the command-line and desktop front-ends.
package app

import (
	"fmt"
	"io"

	"texclip/internal/clipboard"
	"texclip/internal/config"
	"texclip/internal/logging"
	"texclip/internal/metrics"
	"texclip/internal/notify"
	"texclip/internal/ocr"
	"texclip/internal/ocr/tesseract"
	"texclip/internal/pipeline"
	"texclip/internal/recognition"
	"texclip/internal/signer"
)

// Options adjust how New wires the application.
type Options struct {
	// Component tags every log record, e.g. "cli" or "gui".
	Component string
	// Notify enables desktop notifications regardless of the config.
	Notify bool
	// LogWriter replaces the configured log output.
	LogWriter io.Writer

	// Clipboard defaults to the OS clipboard.
	Clipboard clipboard.Clipboard
	// Local defaults to the Tesseract engine.
	Local ocr.Engine
	// Remote defaults to a recognition client for Config.Service.
	Remote pipeline.RemoteRecognizer
}

// App is a wired texclip instance.
type App struct {
	Config     *config.Config
	Dispatcher *pipeline.Dispatcher
	Metrics    *metrics.Invocations
	Logger     *logging.Logger
}

// New validates cfg and builds the dispatcher and its collaborators.
func New(cfg *config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lc, err := logging.FromSettings(cfg.Logging, opts.Component)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	if opts.LogWriter != nil {
		lc.Writer = opts.LogWriter
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	logger, err := logging.New(lc)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	remote := opts.Remote
	if remote == nil {
		s, err := signer.New(signer.Credentials{AppID: cfg.App.ID, Secret: cfg.App.Secret})
		if err != nil {
			logger.Close()
			return nil, err
		}
		client, err := recognition.New(recognition.Options{
			Endpoint: cfg.Service.URL,
			Timeout:  cfg.Timeout(),
			Signer:   s,
			Params:   cfg.Service.Params,
		})
		if err != nil {
			logger.Close()
			return nil, err
		}
		remote = client
	}

	clip := opts.Clipboard
	if clip == nil {
		clip = clipboard.NewSystem()
	}
	local := opts.Local
	if local == nil {
		local = tesseract.New(cfg.OCR.DataPath)
	}

	inv := metrics.NewInvocations(metrics.NewRegistry("texclip"))

	d, err := pipeline.New(pipeline.Deps{
		Config:    cfg,
		Clipboard: clip,
		Writer:    clip,
		Remote:    remote,
		Local:     local,
		Notifier:  notify.New(cfg.Notify.Enabled || opts.Notify),
		Metrics:   inv,
		Logger:    logger,
	})
	if err != nil {
		logger.Close()
		return nil, err
	}

	logger.Debug("texclip ready",
		"endpoint", cfg.Service.URL,
		"save_dir", cfg.Storage.SaveDir,
		"keep_images", cfg.Storage.KeepImages,
		"ocr_language", cfg.OCR.Language,
	)

	return &App{Config: cfg, Dispatcher: d, Metrics: inv, Logger: logger}, nil
}

// Close logs the session summary and releases the log file, if any.
func (a *App) Close() error {
	if a.Metrics.Total.Total() > 0 {
		a.Logger.Info("session summary", a.Metrics.Summary()...)
	}
	return a.Logger.Close()
}
