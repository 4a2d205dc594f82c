package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/five82/shelf/internal/logtail"
)

const logFetchLimit = 2000

// logLevels is the filter cycle, most verbose last.
var logLevels = []logrus.Level{logrus.InfoLevel, logrus.WarnLevel, logrus.DebugLevel}

type logsState struct {
	lines []string
	err   error
	// scroll counts entries hidden below the bottom of the view.
	scroll   int
	levelIdx int
}

type logsMsg struct {
	lines []string
	err   error
}

func (s *logsState) apply(msg logsMsg) {
	s.lines = msg.lines
	s.err = msg.err
}

func (s logsState) minLevel() logrus.Level {
	return logLevels[s.levelIdx%len(logLevels)]
}

func (s logsState) entries() []logtail.Entry {
	return logtail.ParseLines(s.lines, s.minLevel())
}

func readLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, logFetchLimit)
		return logsMsg{lines: lines, err: err}
	}
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	total := len(m.logs.entries())
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Logs):
		back := m.previous
		if back == ScreenLogs || back == ScreenLoading {
			back = ScreenLibrary
		}
		return m.enter(back)
	case key.Matches(msg, m.keys.Up):
		if m.logs.scroll < total-1 {
			m.logs.scroll++
		}
	case key.Matches(msg, m.keys.Down):
		if m.logs.scroll > 0 {
			m.logs.scroll--
		}
	case key.Matches(msg, m.keys.Top):
		m.logs.scroll = max(total-1, 0)
	case key.Matches(msg, m.keys.Bottom):
		m.logs.scroll = 0
	case key.Matches(msg, m.keys.LevelFilter):
		m.logs.levelIdx = (m.logs.levelIdx + 1) % len(logLevels)
		m.logs.scroll = 0
	case key.Matches(msg, m.keys.Reload):
		return m, readLogsCmd(m.logFile)
	}
	return m, nil
}

func (m Model) renderLogs(height int) string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.FaintText.Render(fmt.Sprintf("%s · level %s and above", truncateMiddle(m.logFile, m.width/2), m.logs.minLevel())))
	b.WriteString("\n")
	if m.logs.err != nil {
		b.WriteString(styles.DangerText.Render(m.logs.err.Error()))
		return b.String()
	}

	entries := m.logs.entries()
	if len(entries) == 0 {
		b.WriteString(styles.MutedText.Render("No log entries"))
		return b.String()
	}

	visible := max(height-1, 1)
	end := len(entries) - m.logs.scroll
	start := max(end-visible, 0)
	width := m.width - 4
	for _, e := range entries[start:end] {
		line := truncate(e.String(), width)
		switch {
		case e.Level <= logrus.ErrorLevel:
			line = styles.DangerText.Render(line)
		case e.Level == logrus.WarnLevel:
			line = styles.WarningText.Render(line)
		case e.Level >= logrus.DebugLevel:
			line = styles.FaintText.Render(line)
		default:
			line = styles.Text.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
