package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"sprinklex-server/device"
	"sprinklex-server/entities"
	"sprinklex-server/repositories"
)

var (
	ErrNotConnected       = errors.New("device not connected")
	ErrNoWaterSource      = errors.New("water source id is required")
	ErrUnknownWaterSource = errors.New("unknown water source")
	ErrChangeInProgress   = errors.New("a water source change is already in progress")
)

// Broadcaster pushes a payload to every live dashboard.
type Broadcaster interface {
	Broadcast(payload []byte) int
}

type MonitorConfig struct {
	Candidates      []string
	Timeout         time.Duration
	WaterSources    []entities.WaterSource
	RefreshInterval time.Duration
	SensorInterval  time.Duration
	CalibratePause  time.Duration
	HTTPClient      *http.Client
}

// DeviceMonitor owns the connection to the valve controller: discovery,
// periodic state refresh, sensor polling and command dispatch.
type DeviceMonitor struct {
	cfg       MonitorConfig
	records   repositories.RecordRepository
	commands  repositories.CommandLogRepository
	processor *DataProcessor
	hub       Broadcaster

	mu            sync.RWMutex
	client        *device.Client
	deviceURL     string
	token         string
	info          *entities.DeviceInfo
	status        entities.ConnectionStatus
	currentSource string
	currentAngle  int
	changing      bool
	lastError     string
}

func NewDeviceMonitor(cfg MonitorConfig, records repositories.RecordRepository, commands repositories.CommandLogRepository, processor *DataProcessor, hub Broadcaster) *DeviceMonitor {
	if len(cfg.WaterSources) == 0 {
		cfg.WaterSources = entities.DefaultWaterSources()
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 30 * time.Second
	}
	if cfg.SensorInterval <= 0 {
		cfg.SensorInterval = 2 * time.Second
	}
	m := &DeviceMonitor{
		cfg:       cfg,
		records:   records,
		commands:  commands,
		processor: processor,
		hub:       hub,
		status:    entities.StatusUnknown,
	}
	m.deviceURL = m.loadSystemString(entities.KeyDeviceURL)
	m.token = m.loadSystemString(entities.KeyDeviceToken)
	return m
}

func (m *DeviceMonitor) clientOptions() []device.Option {
	return []device.Option{
		device.WithTimeout(m.cfg.Timeout),
		device.WithWaterSources(m.cfg.WaterSources),
		device.WithHTTPClient(m.cfg.HTTPClient),
	}
}

// Snapshot returns a copy of the current device view.
func (m *DeviceMonitor) Snapshot() entities.DeviceSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked()
}

func (m *DeviceMonitor) snapshotLocked() entities.DeviceSnapshot {
	var info *entities.DeviceInfo
	if m.info != nil {
		c := *m.info
		info = &c
	}
	sources := make([]entities.WaterSource, len(m.cfg.WaterSources))
	copy(sources, m.cfg.WaterSources)
	return entities.DeviceSnapshot{
		DeviceURL:          m.deviceURL,
		DeviceInfo:         info,
		ConnectionStatus:   m.status,
		LastError:          m.lastError,
		WaterSources:       sources,
		CurrentWaterSource: m.currentSource,
		CurrentAngle:       m.currentAngle,
		IsChangingSource:   m.changing,
		IsConnected:        m.status == entities.StatusConnected,
		IsDiscovering:      m.status == entities.StatusDiscovering,
		HasError:           m.status == entities.StatusError,
	}
}

func (m *DeviceMonitor) Status() entities.ConnectionStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *DeviceMonitor) WaterSources() []entities.WaterSource {
	return m.Snapshot().WaterSources
}

// Discover scans the cached URL and the configured candidates and connects
// to the first controller that answers.
func (m *DeviceMonitor) Discover(ctx context.Context) error {
	m.mu.Lock()
	m.status = entities.StatusDiscovering
	m.lastError = ""
	cached, token := m.deviceURL, m.token
	m.mu.Unlock()
	m.publishState()

	found, err := device.Discover(ctx, device.Candidates(cached, m.cfg.Candidates), token, m.clientOptions()...)

	m.mu.Lock()
	if err != nil {
		m.status = entities.StatusError
		m.lastError = device.ErrDeviceNotFound.Error()
		if !errors.Is(err, device.ErrDeviceNotFound) {
			m.lastError = err.Error()
		}
		m.mu.Unlock()
		m.publishState()
		return err
	}
	m.client = found.Client
	m.deviceURL = found.Client.BaseURL()
	m.info = found.Info
	m.currentSource = found.State.CurrentSource
	m.currentAngle = found.State.CurrentAngle
	m.status = entities.StatusConnected
	url := m.deviceURL
	m.mu.Unlock()

	log.Printf("controller found at %s", url)
	m.saveSystemString(entities.KeyDeviceURL, url)
	m.publishState()
	return nil
}

// ChangeWaterSource rotates the valve to sourceID. Only one change runs at
// a time; a second call while one is in flight gets ErrChangeInProgress.
func (m *DeviceMonitor) ChangeWaterSource(ctx context.Context, sourceID string) (*entities.RotateResult, error) {
	if sourceID == "" {
		return nil, ErrNoWaterSource
	}
	if _, ok := entities.FindSourceByID(m.cfg.WaterSources, sourceID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWaterSource, sourceID)
	}
	m.mu.Lock()
	client := m.client
	if client == nil {
		m.mu.Unlock()
		return nil, ErrNotConnected
	}
	if m.changing {
		m.mu.Unlock()
		return nil, ErrChangeInProgress
	}
	m.changing = true
	m.lastError = ""
	m.mu.Unlock()
	m.publishState()

	result, err := client.SetWaterSource(ctx, sourceID)
	if err == nil && !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "Failed to change water source"
		}
		err = errors.New(msg)
	}

	m.mu.Lock()
	m.changing = false
	if err != nil {
		m.lastError = "Failed to change water source: " + err.Error()
	} else {
		m.currentSource = sourceID
		m.currentAngle = result.Angle
		log.Printf("Water source changed to: %s", sourceID)
	}
	m.mu.Unlock()

	m.logCommand(client.BaseURL(), "rotate", map[string]string{"sourceId": sourceID}, result, err)
	m.publishState()
	return result, err
}

// Refresh re-reads the valve position.
func (m *DeviceMonitor) Refresh(ctx context.Context) error {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()
	if client == nil {
		return ErrNotConnected
	}

	state, err := client.State(ctx)

	m.mu.Lock()
	if err != nil {
		m.status = entities.StatusError
		m.lastError = "Failed to refresh device state: " + err.Error()
	} else {
		m.status = entities.StatusConnected
		m.lastError = ""
		m.currentSource = state.CurrentSource
		m.currentAngle = state.CurrentAngle
	}
	m.mu.Unlock()

	m.publishState()
	return err
}

// Calibrate sweeps the valve through every configured source.
func (m *DeviceMonitor) Calibrate(ctx context.Context) (*entities.CalibrationResult, error) {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()
	if client == nil {
		return nil, ErrNotConnected
	}
	result, err := client.Calibrate(ctx, m.cfg.CalibratePause)
	m.logCommand(client.BaseURL(), "calibrate", nil, result, err)
	return result, err
}

// SetToken stores the controller bearer token and rebuilds the client.
func (m *DeviceMonitor) SetToken(token string) {
	m.mu.Lock()
	m.token = token
	if m.client != nil {
		m.client = device.NewClient(m.client.BaseURL(), token, m.clientOptions()...)
	}
	m.mu.Unlock()
	m.saveSystemString(entities.KeyDeviceToken, token)
}

// PollSensors reads /data from the connected controller into the cache.
func (m *DeviceMonitor) PollSensors(ctx context.Context) (*entities.SensorReading, error) {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()
	if client == nil {
		return nil, ErrNotConnected
	}
	reading, err := client.SensorData(ctx)
	if err != nil {
		return nil, err
	}
	if m.processor != nil {
		m.processor.AddReading(*reading)
	}
	m.publish(map[string]interface{}{"type": "sensor_data", "reading": reading})
	return reading, nil
}

// KnownURL reports whether u is the connected controller or a configured
// discovery candidate.
func (m *DeviceMonitor) KnownURL(u string) bool {
	m.mu.RLock()
	current := m.deviceURL
	m.mu.RUnlock()
	for _, c := range device.Candidates(current, m.cfg.Candidates) {
		if c == u {
			return true
		}
	}
	return false
}

// ClientFor returns the live client when u is the connected controller,
// otherwise a fresh client for u.
func (m *DeviceMonitor) ClientFor(u string) *device.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client != nil && m.client.BaseURL() == u {
		return m.client
	}
	return device.NewClient(u, m.token, m.clientOptions()...)
}

// Start runs discovery if nothing is known yet, then keeps the state and
// sensor readings fresh while connected.
func (m *DeviceMonitor) Start(ctx context.Context) {
	go func() {
		if m.Status() == entities.StatusUnknown {
			if err := m.Discover(ctx); err != nil {
				log.Printf("initial discovery: %v", err)
			}
		}

		refresh := time.NewTicker(m.cfg.RefreshInterval)
		sensors := time.NewTicker(m.cfg.SensorInterval)
		defer refresh.Stop()
		defer sensors.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-refresh.C:
				if m.Status() == entities.StatusConnected {
					if err := m.Refresh(ctx); err != nil {
						log.Printf("refresh: %v", err)
					}
				}
			case <-sensors.C:
				if m.Status() == entities.StatusConnected {
					if _, err := m.PollSensors(ctx); err != nil {
						log.Printf("sensor poll: %v", err)
					}
				}
			}
		}
	}()
}

func (m *DeviceMonitor) publishState() {
	m.publish(map[string]interface{}{"type": "device_state", "state": m.Snapshot()})
}

func (m *DeviceMonitor) publish(envelope map[string]interface{}) {
	if m.hub == nil {
		return
	}
	envelope["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	b, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("encode %v envelope: %v", envelope["type"], err)
		return
	}
	m.hub.Broadcast(b)
}

func (m *DeviceMonitor) logCommand(url, command string, params interface{}, result interface{}, cmdErr error) {
	if m.commands == nil {
		return
	}
	entry := &entities.CommandLog{DeviceURL: url, Command: command, Success: cmdErr == nil}
	if params != nil {
		b, _ := json.Marshal(params)
		entry.Params = string(b)
	}
	if cmdErr != nil {
		entry.Response = cmdErr.Error()
	} else if result != nil {
		b, _ := json.Marshal(result)
		entry.Response = string(b)
	}
	if err := m.commands.Create(entry); err != nil {
		log.Printf("store %s command: %v", command, err)
	}
}

func (m *DeviceMonitor) loadSystemString(key string) string {
	if m.records == nil {
		return ""
	}
	rec, err := m.records.Get(entities.SystemOwner, key)
	if err != nil {
		return ""
	}
	var s string
	if err := json.Unmarshal([]byte(rec.Value), &s); err != nil {
		log.Printf("ignoring stored %s: %v", key, err)
		return ""
	}
	return s
}

func (m *DeviceMonitor) saveSystemString(key, value string) {
	if m.records == nil {
		return
	}
	b, _ := json.Marshal(value)
	if err := m.records.Put(&entities.Record{OwnerID: entities.SystemOwner, Key: key, Value: string(b)}); err != nil {
		log.Printf("store %s: %v", key, err)
	}
}
