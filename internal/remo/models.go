package remo

import "time"

// Sensor event keys reported in Device.NewestEvents
const (
	SensorTemperature = "te"
	SensorHumidity    = "hu"
	SensorIlluminance = "il"
	SensorMovement    = "mo"
)

// Aircon buttons
const (
	ButtonPowerOn  = "power-on"
	ButtonPowerOff = "power-off"
)

// Device is a Remo hub with its built-in sensors
type Device struct {
	ID                string                 `json:"id"`
	Name              string                 `json:"name"`
	FirmwareVersion   string                 `json:"firmware_version"`
	TemperatureOffset float64                `json:"temperature_offset"`
	HumidityOffset    float64                `json:"humidity_offset"`
	NewestEvents      map[string]SensorValue `json:"newest_events"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

// SensorValue is the latest reading of one sensor
type SensorValue struct {
	Value     float64   `json:"val"`
	CreatedAt time.Time `json:"created_at"`
}

// Appliance is a controllable appliance registered on a device
type Appliance struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Nickname string          `json:"nickname"`
	Image    string          `json:"image"`
	Device   *Device         `json:"device,omitempty"`
	Settings *AirconSettings `json:"settings"` // nil for non-aircon appliances
}

// AirconSettings is the last known aircon settings block.
// Temperature is textual; it is empty or relative in auto mode on some models.
type AirconSettings struct {
	Temperature  string    `json:"temp"`
	Mode         string    `json:"mode"`
	AirVolume    string    `json:"vol"`
	AirDirection string    `json:"dir"`
	Button       string    `json:"button"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AirconSettingsRequest is the form body of an aircon settings update.
// Empty fields are omitted from the request.
type AirconSettingsRequest struct {
	Button        string
	OperationMode string
	Temperature   string
}
