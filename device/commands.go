package device

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"sprinklex-server/entities"
)

// SetWaterSource rotates the valve to the source with the given id.
func (c *Client) SetWaterSource(ctx context.Context, sourceID string) (*entities.RotateResult, error) {
	src, ok := entities.FindSourceByID(c.sources, sourceID)
	if !ok {
		return nil, fmt.Errorf("unknown water source: %s", sourceID)
	}

	res, err := c.Fetch(ctx, fmt.Sprintf("/rotate?angle=%d", src.ServoPosition))
	if err != nil {
		return nil, err
	}

	moved := "Moved to " + src.Name
	if res.PlainText {
		msg := res.Raw
		if msg == "" {
			msg = moved
		}
		return &entities.RotateResult{Success: true, Angle: src.ServoPosition, SourceID: sourceID, Message: msg}, nil
	}

	f := res.Fields
	success := true
	if v, ok := f["success"].(bool); ok && !v {
		success = false
	}
	angle, ok := firstInt(f, "angle", "position")
	if !ok {
		angle = src.ServoPosition
	}
	return &entities.RotateResult{
		Success:  success,
		Angle:    angle,
		SourceID: sourceID,
		Message:  firstString(f, moved, "message", "msg"),
		Error:    firstString(f, "", "error"),
	}, nil
}

// Calibrate sweeps the valve through every source, pausing between moves.
// Individual move failures are reported per step, not as an error.
func (c *Client) Calibrate(ctx context.Context, pause time.Duration) (*entities.CalibrationResult, error) {
	steps := make([]entities.CalibrationStep, 0, len(c.sources))
	for i, src := range c.sources {
		if i > 0 && pause > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(pause):
			}
		}
		step := entities.CalibrationStep{Position: src.ServoPosition}
		res, err := c.SetWaterSource(ctx, src.ID)
		if err != nil {
			step.Error = err.Error()
		} else {
			step.Success = res.Success
		}
		steps = append(steps, step)
	}
	return &entities.CalibrationResult{Success: true, CalibrationResults: steps}, nil
}

// Toggle flips the servo through GET /toggle and returns the reply body
// unchanged.
func (c *Client) Toggle(ctx context.Context) (string, error) {
	res, err := c.Fetch(ctx, "/toggle")
	if err != nil {
		return "", err
	}
	return res.Body, nil
}

var levelInText = regexp.MustCompile(`(?i)\b(deep[123]|valve)\b\s*[:=]?\s*([a-z]+)`)

// SensorData reads the moisture probe and valve from GET /data.
func (c *Client) SensorData(ctx context.Context) (*entities.SensorReading, error) {
	res, err := c.Fetch(ctx, "/data")
	if err != nil {
		return nil, err
	}

	raw := map[string]string{}
	if res.PlainText {
		for _, m := range levelInText.FindAllStringSubmatch(res.Raw, -1) {
			raw[strings.ToLower(m[1])] = m[2]
		}
	} else {
		for _, k := range []string{"deep1", "deep2", "deep3", "valve"} {
			raw[k] = firstString(res.Fields, "", k)
		}
	}

	return &entities.SensorReading{
		DeviceURL: c.baseURL,
		Deep1:     pinLevel(raw["deep1"]),
		Deep2:     pinLevel(raw["deep2"]),
		Deep3:     pinLevel(raw["deep3"]),
		Valve:     valveLevel(raw["valve"]),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func pinLevel(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case entities.PinWet:
		return entities.PinWet
	case entities.PinDry:
		return entities.PinDry
	}
	return entities.Unknown
}

func valveLevel(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case entities.ValveOpen:
		return entities.ValveOpen
	case entities.ValveClosed, "CLOSE":
		return entities.ValveClosed
	}
	return entities.Unknown
}
