package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sprinklex-server/entities"

	tea "github.com/charmbracelet/bubbletea"
)

func controller() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/status":
			_, _ = w.Write([]byte(`{"deviceId":"SX-9","name":"Field valve","angle":0}`))
		case "/rotate":
			_, _ = w.Write([]byte("moved"))
		case "/data":
			_, _ = w.Write([]byte(`{"deep1":"WET","deep2":"WET","deep3":"DRY","valve":"OPEN"}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestConsoleFlow(t *testing.T) {
	ctrl := controller()
	defer ctrl.Close()

	m := initialModel([]string{ctrl.URL}, "", time.Second, entities.DefaultWaterSources())
	msg := m.Init()()
	found, ok := msg.(discoveredMsg)
	if !ok {
		t.Fatalf("expected discovery, got %#v", msg)
	}

	next, _ := m.Update(found)
	m = next.(model)
	if m.step != stepControlling || m.cursor != 0 {
		t.Fatalf("expected controlling at borewell, got step %d cursor %d", m.step, m.cursor)
	}
	if !strings.Contains(m.View(), "Field valve (SX-9)") {
		t.Errorf("expected device line in view:\n%s", m.View())
	}

	next, _ = m.Update(key("down"))
	m = next.(model)
	next, cmd := m.Update(key("enter"))
	m = next.(model)
	if m.step != stepBusy || cmd == nil {
		t.Fatalf("expected a rotate command, got step %d", m.step)
	}
	rotated, ok := cmd().(rotatedMsg)
	if !ok || rotated.result.SourceID != "rainwater" {
		t.Fatalf("expected rainwater rotation, got %#v", rotated)
	}
	next, _ = m.Update(rotated)
	m = next.(model)
	if m.state.CurrentSource != "rainwater" || m.state.CurrentAngle != 90 {
		t.Errorf("unexpected state %+v", m.state)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	state, ok := refreshState(ctx, m.client).(stateMsg)
	if !ok {
		t.Fatal("expected state refresh to succeed")
	}
	next, _ = m.Update(state)
	m = next.(model)
	if m.reading == nil || m.reading.Deep3 != entities.PinDry {
		t.Errorf("expected sensor reading, got %+v", m.reading)
	}
}

func TestConsoleNotFound(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL
	dead.Close()

	m := initialModel([]string{url}, "", 200*time.Millisecond, entities.DefaultWaterSources())
	next, _ := m.Update(m.Init()())
	m = next.(model)
	if m.step != stepNotFound || !strings.Contains(m.View(), "Press r to retry") {
		t.Errorf("expected not-found view, got step %d:\n%s", m.step, m.View())
	}

	next, cmd := m.Update(key("r"))
	if next.(model).step != stepDiscovering || cmd == nil {
		t.Errorf("expected r to restart discovery")
	}

	_, cmd = m.Update(key("q"))
	if cmd == nil {
		t.Errorf("expected q to quit")
	}
}

func TestConsoleRefreshFailureKeepsCommandRunning(t *testing.T) {
	ctrl := controller()
	defer ctrl.Close()

	m := initialModel([]string{ctrl.URL}, "", time.Second, entities.DefaultWaterSources())
	next, _ := m.Update(m.Init()())
	m = next.(model)

	next, rotate := m.Update(key("enter"))
	m = next.(model)
	if m.step != stepBusy {
		t.Fatalf("expected busy while rotating, got step %d", m.step)
	}

	next, _ = m.Update(refreshFailedMsg{errors.New("HTTP 503: Busy")})
	m = next.(model)
	if m.step != stepBusy || !strings.Contains(m.message, "Switching to") {
		t.Errorf("expected the rotation to stay in progress, got step %d %q", m.step, m.message)
	}
	if _, cmd := m.Update(key("t")); cmd != nil {
		t.Errorf("expected command keys to stay disabled while busy")
	}

	next, _ = m.Update(rotate())
	m = next.(model)
	if m.step != stepControlling {
		t.Errorf("expected the rotation reply to end the busy step, got %d", m.step)
	}

	next, _ = m.Update(refreshFailedMsg{errors.New("HTTP 503: Busy")})
	m = next.(model)
	if m.step != stepControlling || !strings.Contains(m.message, "HTTP 503: Busy") {
		t.Errorf("expected an idle refresh failure to be shown, got step %d %q", m.step, m.message)
	}
}
