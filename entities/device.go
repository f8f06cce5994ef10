package entities

// ConnectionStatus tracks where the server is in talking to the controller.
type ConnectionStatus string

const (
	StatusUnknown     ConnectionStatus = "unknown"
	StatusDiscovering ConnectionStatus = "discovering"
	StatusConnected   ConnectionStatus = "connected"
	StatusError       ConnectionStatus = "error"
)

// DeviceInfo describes the controller as reported by GET /status.
type DeviceInfo struct {
	DeviceID         string        `json:"deviceId"`
	Name             string        `json:"name"`
	IP               string        `json:"ip"`
	WiFi             string        `json:"wifi"`
	Uptime           interface{}   `json:"uptime"`
	RawResponse      string        `json:"rawResponse,omitempty"`
	AvailableSources []WaterSource `json:"availableSources"`
}

// DeviceState is the valve position read back from the controller.
type DeviceState struct {
	CurrentSource string `json:"currentSource"`
	CurrentAngle  int    `json:"currentAngle"`
	Status        string `json:"status"`
}

// RotateResult is the outcome of moving the valve to a water source.
type RotateResult struct {
	Success  bool   `json:"success"`
	Angle    int    `json:"angle"`
	SourceID string `json:"sourceId"`
	Message  string `json:"message"`
	Error    string `json:"error,omitempty"`
}

// CalibrationStep is one move of a calibration sweep.
type CalibrationStep struct {
	Position int    `json:"position"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

type CalibrationResult struct {
	Success            bool              `json:"success"`
	CalibrationResults []CalibrationStep `json:"calibrationResults"`
}

// DeviceSnapshot is the server's view of the controller, pushed to dashboards.
type DeviceSnapshot struct {
	DeviceURL          string           `json:"deviceUrl"`
	DeviceInfo         *DeviceInfo      `json:"deviceInfo"`
	ConnectionStatus   ConnectionStatus `json:"connectionStatus"`
	LastError          string           `json:"lastError,omitempty"`
	WaterSources       []WaterSource    `json:"waterSources"`
	CurrentWaterSource string           `json:"currentWaterSource"`
	CurrentAngle       int              `json:"currentAngle"`
	IsChangingSource   bool             `json:"isChangingSource"`
	IsConnected        bool             `json:"isConnected"`
	IsDiscovering      bool             `json:"isDiscovering"`
	HasError           bool             `json:"hasError"`
}
