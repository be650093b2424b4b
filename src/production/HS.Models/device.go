package hsmodels

import "time"

// Device represents a networked water-quality sensor unit
type Device struct {
	ID                 string     `json:"id" db:"id"`
	Name               string     `json:"name" db:"name"`
	DeviceModel        string     `json:"device_model" db:"device_model"`
	Status             string     `json:"status" db:"status"`
	IsActive           bool       `json:"is_active" db:"is_active"`
	FirmwareVersion    string     `json:"firmware_version" db:"firmware_version"`
	BatteryLevel       *float64   `json:"battery_level,omitempty" db:"battery_level"`
	WifiSignalStrength *float64   `json:"wifi_signal_strength,omitempty" db:"wifi_signal_strength"`
	LastSeen           *time.Time `json:"last_seen,omitempty" db:"last_seen"`
	LastHeartbeat      *time.Time `json:"last_heartbeat,omitempty" db:"last_heartbeat"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
}

// Device status values reported over heartbeat/status topics
const (
	DeviceStatusOnline      = "online"
	DeviceStatusOffline     = "offline"
	DeviceStatusMaintenance = "maintenance"
)

// DeviceHeartbeat is a single health report from a device
type DeviceHeartbeat struct {
	ID              string                 `json:"id" db:"id"`
	DeviceID        string                 `json:"device_id" db:"device_id"`
	Status          string                 `json:"status" db:"status"`
	SignalStrength  *float64               `json:"signal_strength,omitempty" db:"signal_strength"`
	BatteryLevel    *float64               `json:"battery_level,omitempty" db:"battery_level"`
	MemoryUsage     *float64               `json:"memory_usage,omitempty" db:"memory_usage"`
	CPUUsage        *float64               `json:"cpu_usage,omitempty" db:"cpu_usage"`
	Uptime          *int64                 `json:"uptime,omitempty" db:"uptime"`
	FirmwareVersion string                 `json:"firmware_version,omitempty" db:"firmware_version"`
	IPAddress       string                 `json:"ip_address,omitempty" db:"ip_address"`
	SensorStatus    map[string]interface{} `json:"sensor_status,omitempty" db:"sensor_status"`
	ReceivedAt      time.Time              `json:"received_at" db:"received_at"`
}
