package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDesktopPassesThrough(t *testing.T) {
	var got []string
	d := &Desktop{send: func(title, message string, icon any) error {
		got = append(got, title, message)
		assert.Equal(t, "", icon)
		return nil
	}}

	assert.NoError(t, d.Notify("texclip", "success"))
	assert.Equal(t, []string{"texclip", "success"}, got)

	d.send = func(string, string, any) error { return errors.New("no notification daemon") }
	assert.Error(t, d.Notify("texclip", "success"))
}

func TestNew(t *testing.T) {
	assert.IsType(t, Nop{}, New(false))
	assert.IsType(t, &Desktop{}, New(true))
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	assert.NoError(t, r.Notify("a", "b"))
	assert.NoError(t, r.Notify("c", "d"))
	assert.Equal(t, []Message{{"a", "b"}, {"c", "d"}}, r.Messages())
	assert.NoError(t, Nop{}.Notify("x", "y"))
}
