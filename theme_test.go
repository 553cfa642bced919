package voicechat_test

import (
	"testing"

	"github.com/cosap/voicechat"
	"github.com/stretchr/testify/assert"
)

func TestDefaultTheme(t *testing.T) {
	t.Parallel()

	theme := voicechat.DefaultTheme()

	t.Run("speakers are distinguishable", func(t *testing.T) {
		t.Parallel()
		assert.NotEqual(t, theme.UserMsg, theme.Assistant)
	})

	t.Run("recording indicator stands out", func(t *testing.T) {
		t.Parallel()
		assert.NotEqual(t, theme.Muted, theme.Recording)
		assert.Equal(t, theme.Error, theme.Recording)
	})

	t.Run("colors are basic ANSI indices", func(t *testing.T) {
		t.Parallel()
		for name, c := range map[string]int{
			"user":      theme.UserMsg,
			"assistant": theme.Assistant,
			"recording": theme.Recording,
			"error":     theme.Error,
			"success":   theme.Success,
			"muted":     theme.Muted,
			"code":      theme.CodeBg,
			"accent":    theme.Accent,
		} {
			assert.GreaterOrEqual(t, c, 0, name)
			assert.Less(t, c, 16, name)
		}
	})
}
