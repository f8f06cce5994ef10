package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"sprinklex-server/confs"
	"sprinklex-server/device"
	"sprinklex-server/entities"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true).
			PaddingLeft(2)

	normalStyle = lipgloss.NewStyle().
			PaddingLeft(4)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	dryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

type step int

const (
	stepDiscovering step = iota
	stepControlling
	stepBusy
	stepNotFound
)

type model struct {
	step       step
	candidates []string
	token      string
	opts       []device.Option
	commandTTL time.Duration

	client  *device.Client
	info    *entities.DeviceInfo
	state   *entities.DeviceState
	reading *entities.SensorReading
	sources []entities.WaterSource
	cursor  int

	message  string
	quitting bool
}

type discoveredMsg struct{ found *device.Discovery }
type stateMsg struct {
	state   *entities.DeviceState
	reading *entities.SensorReading
}
type rotatedMsg struct{ result *entities.RotateResult }
type toggledMsg struct{ reply string }
type calibratedMsg struct{ result *entities.CalibrationResult }
type pollTickMsg struct{}
type refreshFailedMsg struct{ err error }
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func initialModel(candidates []string, token string, timeout time.Duration, sources []entities.WaterSource) model {
	return model{
		step:       stepDiscovering,
		candidates: candidates,
		token:      token,
		opts:       []device.Option{device.WithTimeout(timeout), device.WithWaterSources(sources)},
		commandTTL: 4 * timeout,
		sources:    sources,
		message:    "Looking for the SprinkleX controller...",
	}
}

func (m model) Init() tea.Cmd {
	return m.discover()
}

func (m model) discover() tea.Cmd {
	candidates, token, opts, ttl := m.candidates, m.token, m.opts, m.commandTTL
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ttl*time.Duration(len(candidates)+1))
		defer cancel()
		found, err := device.Discover(ctx, candidates, token, opts...)
		if err != nil {
			return errMsg{err}
		}
		return discoveredMsg{found}
	}
}

func tickPoll() tea.Cmd {
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

func (m model) withDevice(fn func(ctx context.Context, c *device.Client) tea.Msg) tea.Cmd {
	client, ttl := m.client, m.commandTTL
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ttl)
		defer cancel()
		return fn(ctx, client)
	}
}

func refreshState(ctx context.Context, c *device.Client) tea.Msg {
	state, err := c.State(ctx)
	if err != nil {
		return refreshFailedMsg{fmt.Errorf("refresh failed: %w", err)}
	}
	// Firmware without /data still gets a usable state view.
	reading, _ := c.SensorData(ctx)
	return stateMsg{state: state, reading: reading}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit

		case "up", "k":
			if m.step == stepControlling && m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.step == stepControlling && m.cursor < len(m.sources)-1 {
				m.cursor++
			}

		case "enter":
			if m.step == stepControlling && len(m.sources) > 0 {
				src := m.sources[m.cursor]
				m.step = stepBusy
				m.message = fmt.Sprintf("Switching to %s...", src.Name)
				return m, m.withDevice(func(ctx context.Context, c *device.Client) tea.Msg {
					res, err := c.SetWaterSource(ctx, src.ID)
					if err != nil {
						return errMsg{fmt.Errorf("failed to change water source: %w", err)}
					}
					if !res.Success {
						return errMsg{fmt.Errorf("failed to change water source: %s", res.Error)}
					}
					return rotatedMsg{res}
				})
			}

		case "t":
			if m.step == stepControlling {
				m.step = stepBusy
				m.message = "Toggling valve..."
				return m, m.withDevice(func(ctx context.Context, c *device.Client) tea.Msg {
					reply, err := c.Toggle(ctx)
					if err != nil {
						return errMsg{fmt.Errorf("toggle failed: %w", err)}
					}
					return toggledMsg{reply}
				})
			}

		case "c":
			if m.step == stepControlling {
				m.step = stepBusy
				m.message = "Calibrating..."
				return m, m.withDevice(func(ctx context.Context, c *device.Client) tea.Msg {
					res, err := c.Calibrate(ctx, time.Second)
					if err != nil {
						return errMsg{fmt.Errorf("calibration failed: %w", err)}
					}
					return calibratedMsg{res}
				})
			}

		case "r":
			switch m.step {
			case stepControlling:
				return m, m.withDevice(refreshState)
			case stepNotFound:
				m.step = stepDiscovering
				m.message = "Looking for the SprinkleX controller..."
				return m, m.discover()
			}
		}

	case discoveredMsg:
		m.client = msg.found.Client
		m.info = msg.found.Info
		m.state = msg.found.State
		m.sources = m.client.WaterSources()
		m.cursor = sourceIndex(m.sources, m.state.CurrentSource)
		m.step = stepControlling
		m.message = successStyle.Render("✓ Connected to " + m.client.BaseURL())
		return m, tea.Batch(m.withDevice(refreshState), tickPoll())

	case pollTickMsg:
		if m.step == stepControlling {
			return m, tea.Batch(m.withDevice(refreshState), tickPoll())
		}
		return m, tickPoll()

	case stateMsg:
		m.state = msg.state
		if msg.reading != nil {
			m.reading = msg.reading
		}

	case rotatedMsg:
		m.step = stepControlling
		m.state.CurrentSource = msg.result.SourceID
		m.state.CurrentAngle = msg.result.Angle
		m.message = successStyle.Render("✓ " + msg.result.Message)

	case toggledMsg:
		m.step = stepControlling
		m.message = successStyle.Render("✓ Servo toggled: " + msg.reply)
		return m, m.withDevice(refreshState)

	case calibratedMsg:
		m.step = stepControlling
		if msg.result.Success {
			m.message = successStyle.Render("✓ Calibration complete")
		} else {
			m.message = errorStyle.Render("✗ Calibration finished with errors")
		}
		return m, m.withDevice(refreshState)

	case refreshFailedMsg:
		// Background refreshes never end a running command.
		if m.step != stepBusy {
			m.message = errorStyle.Render("✗ " + msg.err.Error())
		}

	case errMsg:
		m.message = errorStyle.Render("✗ " + msg.err.Error())
		if m.client == nil {
			m.step = stepNotFound
		} else {
			m.step = stepControlling
		}
	}

	return m, nil
}

func sourceIndex(sources []entities.WaterSource, id string) int {
	for i, s := range sources {
		if s.ID == id {
			return i
		}
	}
	return 0
}

func pin(level string) string {
	if level == entities.PinDry {
		return dryStyle.Render(level)
	}
	return level
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("SprinkleX Valve Console"))
	s.WriteString("\n")

	switch m.step {
	case stepDiscovering, stepNotFound:
		s.WriteString(m.message + "\n")
		if m.step == stepNotFound {
			s.WriteString("\nPress r to retry, q to quit\n")
		}

	case stepControlling, stepBusy:
		if m.info != nil {
			s.WriteString(fmt.Sprintf("%s %s (%s)\n", labelStyle.Render("Device:"), m.info.Name, m.info.DeviceID))
		}
		if m.state != nil {
			s.WriteString(fmt.Sprintf("%s %d°\n", labelStyle.Render("Angle:"), m.state.CurrentAngle))
		}
		if m.reading != nil {
			s.WriteString(fmt.Sprintf("%s %s %s %s   %s %s\n",
				labelStyle.Render("Soil:"), pin(m.reading.Deep1), pin(m.reading.Deep2), pin(m.reading.Deep3),
				labelStyle.Render("Valve:"), m.reading.Valve))
		}
		s.WriteString("\n")

		for i, src := range m.sources {
			cursor := " "
			style := normalStyle
			if m.cursor == i {
				cursor = ">"
				style = selectedStyle
			}
			current := ""
			if m.state != nil && m.state.CurrentSource == src.ID {
				current = " ●"
			}
			s.WriteString(fmt.Sprintf("%s %s (%d°)%s\n", cursor, style.Render(src.Name), src.ServoPosition, current))
		}

		s.WriteString("\n" + m.message + "\n")
		if m.step == stepControlling {
			s.WriteString("\n↑/↓ select, Enter switch source, t toggle, c calibrate, r refresh, q quit\n")
		}
	}

	return s.String()
}

func main() {
	cfg, err := confs.LoadConfig()
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}

	url := flag.String("url", "", "controller URL to try before the configured discovery list")
	token := flag.String("token", os.Getenv("DEVICE_TOKEN"), "bearer token for the controller")
	flag.Parse()

	candidates := device.Candidates(*url, append([]string{cfg.ESPURL}, cfg.DiscoveryURLs...))
	p := tea.NewProgram(initialModel(candidates, *token, cfg.DeviceTimeout, cfg.WaterSources))
	if _, err := p.Run(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
