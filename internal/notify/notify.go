// Package notify shows desktop notifications for finished invocations.
package notify

import (
	"sync"

	"github.com/gen2brain/beeep"
)

// Notifier delivers a short user-facing message.
type Notifier interface {
	Notify(title, message string) error
}

// Desktop sends notifications through the OS notification center.
type Desktop struct {
	send func(title, message string, icon any) error
}

// NewDesktop returns a Notifier backed by beeep.
func NewDesktop() *Desktop {
	return &Desktop{send: beeep.Notify}
}

// Notify implements Notifier.
func (d *Desktop) Notify(title, message string) error {
	return d.send(title, message, "")
}

// Nop discards notifications.
type Nop struct{}

// Notify implements Notifier.
func (Nop) Notify(string, string) error { return nil }

// Recorder keeps notifications in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Message is one recorded notification.
type Message struct {
	Title string
	Body  string
}

// Notify implements Notifier.
func (r *Recorder) Notify(title, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Title: title, Body: message})
	return nil
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// New returns a Desktop notifier when enabled and Nop otherwise.
func New(enabled bool) Notifier {
	if enabled {
		return NewDesktop()
	}
	return Nop{}
}
