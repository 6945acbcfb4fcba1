package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"texclip/internal/pipeline"
)

func TestStatusColor(t *testing.T) {
	th := NewTheme(nil)

	assert.Equal(t, th.Palette.TextMuted, th.StatusColor(""))
	assert.Equal(t, th.Palette.Success, th.StatusColor(pipeline.StatusSuccess))
	assert.Equal(t, th.Palette.Warning, th.StatusColor(pipeline.StatusNoImage))
	assert.Equal(t, th.Palette.Error, th.StatusColor(pipeline.StatusCallFailed))
	assert.Equal(t, th.Palette.Error, th.StatusColor(pipeline.StatusEncodingFailed))
}

func TestPlatformMetrics(t *testing.T) {
	th := NewTheme(nil)
	assert.NotZero(t, th.Config.Padding)
	assert.NotZero(t, th.Config.FontBody)
	assert.NotEqual(t, th.Palette.Background, th.Palette.Text)
}
