package main

import (
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"voicemeeterctl/binding"
	"voicemeeterctl/display"
)

// TUI message types
type ActionMsg struct{ Note display.Notification }
type PausedMsg struct{ Paused bool }
type ConnMsg struct{ Connected bool }
type ChannelsMsg struct{ Names []string }
type ChannelStateMsg struct {
	Name  string
	Gain  float64
	Muted bool
}
type LogMsg struct{ Text string }

const actionFeedLen = 8

type channelRow struct {
	name  string
	gain  float64
	muted bool
	known bool
}

type tuiModel struct {
	channels  []channelRow
	feed      []string
	paused    bool
	connected bool
	width     int
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	pausedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
)

func NewTUIProgram(channels []string) *tea.Program {
	m := tuiModel{connected: true}
	for _, name := range channels {
		m.channels = append(m.channels, channelRow{name: name})
	}
	return tea.NewProgram(m, tea.WithAltScreen())
}

// tuiSend delivers a message without blocking; safe before the TUI exists.
func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		go p.Send(msg)
	}
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

	case ActionMsg:
		m = m.applyAction(msg.Note)

	case PausedMsg:
		m.paused = msg.Paused

	case ConnMsg:
		m.connected = msg.Connected

	case ChannelsMsg:
		var rows []channelRow
		for _, name := range msg.Names {
			rows = append(rows, channelRow{name: name})
		}
		m.channels = rows

	case ChannelStateMsg:
		for i := range m.channels {
			if m.channels[i].name == msg.Name {
				m.channels[i].gain = msg.Gain
				m.channels[i].muted = msg.Muted
				m.channels[i].known = true
			}
		}

	case LogMsg:
		m = m.pushFeed(dimStyle.Render(msg.Text))
	}
	return m, nil
}

func (m tuiModel) applyAction(n display.Notification) tuiModel {
	stamp := time.Now().Format("15:04:05")
	if n.Err != nil {
		m.connected = false
		return m.pushFeed(fmt.Sprintf("%s  %s", stamp, errStyle.Render(n.Text())))
	}
	m.connected = true
	for i := range m.channels {
		if m.channels[i].name != n.Channel {
			continue
		}
		m.channels[i].known = true
		if n.Kind == binding.MuteToggle {
			m.channels[i].muted = n.Muted
		} else {
			m.channels[i].gain = n.Value
		}
	}
	return m.pushFeed(fmt.Sprintf("%s  %s", stamp, n.Text()))
}

func (m tuiModel) pushFeed(line string) tuiModel {
	m.feed = append(m.feed, line)
	if len(m.feed) > actionFeedLen {
		m.feed = m.feed[len(m.feed)-actionFeedLen:]
	}
	return m
}

func (m tuiModel) View() string {
	var s string

	header := titleStyle.Render("voicemeeterctl")
	switch {
	case m.paused:
		header += "  " + pausedStyle.Render("[paused]")
	case !m.connected:
		header += "  " + errStyle.Render("[disconnected]")
	}
	s += header + "\n\n"

	for _, ch := range m.channels {
		s += m.renderChannel(ch) + "\n"
	}

	if len(m.feed) > 0 {
		s += "\n" + dimStyle.Render("recent actions") + "\n"
		for _, line := range m.feed {
			s += "  " + line + "\n"
		}
	}

	s += "\n" + dimStyle.Render("q: quit") + "\n"
	return s
}

// renderChannel draws one fader line: name, gain bar and value, mute flag.
func (m tuiModel) renderChannel(ch channelRow) string {
	if !ch.known {
		return fmt.Sprintf("  %-14s %s", ch.name, dimStyle.Render("--"))
	}
	label := fmt.Sprintf("%6.1f dB", ch.gain)
	if ch.muted {
		return fmt.Sprintf("  %-14s %s %s", ch.name, mutedStyle.Render(label), mutedStyle.Render("[muted]"))
	}
	return fmt.Sprintf("  %-14s %s %s", ch.name, label, barStyle.Render(gainBar(ch.gain)))
}

const barWidth = 24

func gainBar(gain float64) string {
	frac := (gain + 60.0) / 72.0
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * barWidth)
	bar := ""
	for i := 0; i < barWidth; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}
