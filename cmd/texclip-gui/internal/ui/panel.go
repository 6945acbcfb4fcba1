package ui

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"gioui.org/layout"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"texclip/cmd/texclip-gui/internal/theme"
	"texclip/internal/pipeline"
)

const previewRunes = 80

// Runner performs one invocation.
type Runner func(ctx context.Context, mode pipeline.Mode) pipeline.Outcome

// Panel is the single window of the desktop front-end: a mode selector, a
// trigger button and the status of the last invocation.
type Panel struct {
	theme      *theme.Theme
	run        Runner
	invalidate func()

	modes   widget.Enum
	trigger widget.Clickable

	mu       sync.Mutex
	busy     bool
	status   string
	detail   string
	disabled string
}

// NewPanel creates the panel. invalidate is called from the invocation
// goroutine when a result is ready to be drawn.
func NewPanel(t *theme.Theme, run Runner, invalidate func()) *Panel {
	p := &Panel{
		theme:      t,
		run:        run,
		invalidate: invalidate,
	}
	p.modes.Value = pipeline.ModeRemote.String()
	return p
}

// Disable keeps the trigger inactive and shows reason instead of a status.
func (p *Panel) Disable(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disabled = reason
}

// Mode returns the selected mode.
func (p *Panel) Mode() pipeline.Mode {
	m, err := pipeline.ParseMode(p.modes.Value)
	if err != nil {
		return pipeline.ModeRemote
	}
	return m
}

// SetMode selects m.
func (p *Panel) SetMode(m pipeline.Mode) {
	p.modes.Value = m.String()
}

// Trigger starts an invocation in the selected mode. The mode is read now, so
// changing the selection while the invocation runs does not affect it.
// Trigger returns false when an invocation is already running.
func (p *Panel) Trigger() bool {
	p.mu.Lock()
	if p.busy || p.run == nil || p.disabled != "" {
		p.mu.Unlock()
		return false
	}
	p.busy = true
	p.mu.Unlock()

	mode := p.Mode()
	go func() {
		out := p.run(context.Background(), mode)

		p.mu.Lock()
		p.busy = false
		p.status = out.Status
		p.detail = ""
		if out.OK() {
			p.detail = preview(out.Text)
		}
		p.mu.Unlock()

		if p.invalidate != nil {
			p.invalidate()
		}
	}()
	return true
}

// State reports the last status, its detail line and whether an invocation is running.
func (p *Panel) State() (status, detail string, busy bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status, p.detail, p.busy
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	r := []rune(text)
	return string(r[:previewRunes-1]) + "…"
}

// Layout renders the panel.
func (p *Panel) Layout(gtx layout.Context) layout.Dimensions {
	for p.trigger.Clicked(gtx) {
		p.Trigger()
	}
	p.modes.Update(gtx)

	p.mu.Lock()
	status, detail, busy, disabled := p.status, p.detail, p.busy, p.disabled
	p.mu.Unlock()

	paint.Fill(gtx.Ops, p.theme.Palette.Background)

	return layout.UniformInset(p.theme.Config.Padding).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				title := material.H6(p.theme.Theme, "Clipboard image to")
				title.Color = p.theme.Palette.Text
				title.TextSize = p.theme.Config.FontTitle
				return title.Layout(gtx)
			}),
			layout.Rigid(layout.Spacer{Height: p.theme.Config.Spacing}.Layout),
			layout.Rigid(p.layoutModes),
			layout.Rigid(layout.Spacer{Height: unit.Dp(16)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				if busy || disabled != "" {
					gtx = gtx.Disabled()
				}
				btn := material.Button(p.theme.Theme, &p.trigger, "Recognize")
				btn.Background = p.theme.Palette.Primary
				btn.CornerRadius = p.theme.Config.CornerRadius
				return btn.Layout(gtx)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(16)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return p.layoutStatus(gtx, status, busy, disabled)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(4)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				if detail == "" || busy {
					return layout.Dimensions{}
				}
				l := material.Caption(p.theme.Theme, detail)
				l.Color = p.theme.Palette.TextMuted
				l.TextSize = p.theme.Config.FontCaption
				l.MaxLines = 2
				return l.Layout(gtx)
			}),
		)
	})
}

func (p *Panel) layoutModes(gtx layout.Context) layout.Dimensions {
	modes := pipeline.Modes()
	children := make([]layout.FlexChild, 0, 2*len(modes))
	for i, m := range modes {
		if i > 0 {
			children = append(children, layout.Rigid(layout.Spacer{Width: p.theme.Config.Spacing}.Layout))
		}
		m := m
		children = append(children, layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			rb := material.RadioButton(p.theme.Theme, &p.modes, m.String(), m.Label())
			rb.Color = p.theme.Palette.Text
			rb.IconColor = p.theme.Palette.Primary
			return rb.Layout(gtx)
		}))
	}
	return layout.Flex{Axis: layout.Horizontal}.Layout(gtx, children...)
}

func (p *Panel) layoutStatus(gtx layout.Context, status string, busy bool, disabled string) layout.Dimensions {
	text, color := status, p.theme.StatusColor(status)
	switch {
	case disabled != "":
		text, color = disabled, p.theme.Palette.Error
	case busy:
		text, color = "Working…", p.theme.Palette.TextMuted
	case status == "":
		text = "Copy an image, pick a mode and press Recognize."
	}

	l := material.Body1(p.theme.Theme, text)
	l.Color = color
	l.TextSize = p.theme.Config.FontBody
	return l.Layout(gtx)
}
