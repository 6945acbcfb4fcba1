// texclip-gui is the desktop front-end of texclip: pick a mode and convert
// the clipboard image with one click.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"texclip/cmd/texclip-gui/internal/theme"
	"texclip/cmd/texclip-gui/internal/ui"
	texclip "texclip/internal/app"
	"texclip/internal/config"
	"texclip/internal/pipeline"
)

var configPath = flag.String("config", "", "path to config file")

func main() {
	flag.Parse()

	go func() {
		w := new(app.Window)
		w.Option(app.Title("texclip"))
		w.Option(app.Size(unit.Dp(420), unit.Dp(240)))

		if err := loop(w); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}()
	app.Main()
}

// setup loads the configuration and wires the dispatcher. The window has no
// terminal to report to, so logs go to the log file unless configured otherwise.
func setup() (*texclip.App, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Logging.Output == "stderr" {
		cfg.Logging.Output = "file"
	}
	return texclip.New(cfg, texclip.Options{Component: "gui"})
}

func configError(err error) string {
	var verrs config.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fields := make([]string, 0, len(verrs))
		for _, e := range verrs {
			fields = append(fields, e.Field)
		}
		return fmt.Sprintf("Invalid configuration: %s", strings.Join(fields, ", "))
	}
	return fmt.Sprintf("Configuration error: %v", err)
}

func loop(w *app.Window) error {
	t := theme.NewTheme(material.NewTheme())

	a, err := setup()
	var run ui.Runner
	if err == nil {
		defer a.Close()
		run = func(ctx context.Context, mode pipeline.Mode) pipeline.Outcome {
			defer a.Logger.Recover("invocation")
			return a.Dispatcher.Run(ctx, mode)
		}
	}

	panel := ui.NewPanel(t, run, w.Invalidate)
	if err != nil {
		log.Printf("texclip: %v", err)
		panel.Disable(configError(err))
	}

	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			panel.Layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}
