package device

import (
	"context"
	"regexp"
	"strconv"

	"sprinklex-server/entities"
)

const (
	defaultDeviceID   = "ESP8266-Servo"
	defaultDeviceName = "ESP8266 Servo Controller"
)

var angleInText = regexp.MustCompile(`(?i)angle[:\s]*(\d+)`)

// DeviceInfo reads GET /status and maps it onto entities.DeviceInfo.
func (c *Client) DeviceInfo(ctx context.Context) (*entities.DeviceInfo, error) {
	res, err := c.Fetch(ctx, "/status")
	if err != nil {
		return nil, err
	}

	if res.PlainText {
		return &entities.DeviceInfo{
			DeviceID:         defaultDeviceID,
			Name:             defaultDeviceName,
			IP:               c.Host(),
			WiFi:             "Unknown",
			Uptime:           "Unknown",
			RawResponse:      res.Raw,
			AvailableSources: c.WaterSources(),
		}, nil
	}

	f := res.Fields
	uptime, ok := firstValue(f, "uptime", "upTime", "runtime")
	if !ok {
		uptime = 0
	}
	return &entities.DeviceInfo{
		DeviceID:         firstString(f, defaultDeviceID, "deviceId", "device_id"),
		Name:             firstString(f, defaultDeviceName, "name", "deviceName"),
		IP:               firstString(f, c.Host(), "ip", "IP", "address"),
		WiFi:             firstString(f, "Connected", "wifi", "ssid", "network"),
		Uptime:           uptime,
		AvailableSources: c.WaterSources(),
	}, nil
}

// State reads the current valve angle from GET /status.
func (c *Client) State(ctx context.Context) (*entities.DeviceState, error) {
	res, err := c.Fetch(ctx, "/status")
	if err != nil {
		return nil, err
	}

	state := &entities.DeviceState{Status: string(entities.StatusConnected)}
	if res.PlainText {
		if m := angleInText.FindStringSubmatch(res.Raw); m != nil {
			state.CurrentAngle, _ = strconv.Atoi(m[1])
		}
	} else {
		state.CurrentAngle, _ = firstInt(res.Fields, "currentAngle", "current_angle", "angle", "position")
		state.Status = firstString(res.Fields, state.Status, "status", "state")
	}

	if src, ok := entities.FindSourceByAngle(c.sources, state.CurrentAngle, entities.AngleTolerance); ok {
		state.CurrentSource = src.ID
	}
	return state, nil
}
