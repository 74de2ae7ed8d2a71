package tui

import (
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// Theme captures the styles applied to messages printed through the driver.
type Theme struct {
	Title       lipgloss.Style
	Muted       lipgloss.Style
	Error       lipgloss.Style
	Success     lipgloss.Style
	Panel       lipgloss.Style
	ErrorPrefix string
}

// DefaultTheme is the coloured theme used by the CLI.
func DefaultTheme() Theme {
	return Theme{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#20B9B4")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#5C7A84")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#2CD7C7")),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#16858E")).
			Padding(0, 1),
		ErrorPrefix: "✗ ",
	}
}

// PlainTheme renders text unchanged.
func PlainTheme() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Title:       plain,
		Muted:       plain,
		Error:       plain,
		Success:     plain,
		Panel:       plain,
		ErrorPrefix: "! ",
	}
}

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the prompt driver used by the session.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithTheme applies message styles.
func WithTheme(theme Theme) Option {
	return func(s *Session) {
		s.theme = theme
	}
}

// WithLogger attaches a logger. Defaults to zap.L().
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}
