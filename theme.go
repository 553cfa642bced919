package voicechat

// Theme maps semantic roles to ANSI color indices (0-15), so the terminal's
// own palette decides the actual colors.
type Theme struct {
	UserMsg   int // User message accent
	Assistant int // Assistant message accent
	Recording int // Microphone indicator while recording
	Error     int // Error messages
	Success   int // Success indicators
	Muted     int // Status bar, placeholders, typing indicator
	CodeBg    int // Code block background
	Accent    int // Headings, links, titles
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		UserMsg:   4,
		Assistant: 6,
		Recording: 1,
		Error:     1,
		Success:   2,
		Muted:     8,
		CodeBg:    0,
		Accent:    5,
	}
}
