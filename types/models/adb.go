package models

import (
	"strconv"
	"strings"
	"time"
)

type Device struct {
	Serial  string      `json:"device_id"`
	State   DeviceState `json:"status"`
	Model   string      `json:"model"`
	Product string      `json:"product"`
	Usb     string      `json:"usb"`
}

// IsWired reports whether the device is attached directly rather than through a
// network relay on the loopback interface.
func (d Device) IsWired() bool {
	return d.Serial != "" && !strings.HasPrefix(d.Serial, "127.0.0.1")
}

type DeviceState string

const (
	DeviceStateOffline      DeviceState = "offline"
	DeviceStateUnauthorized DeviceState = "unauthorized"
	DeviceStateOnline       DeviceState = "online"
	DeviceStateUnknown      DeviceState = "unknown"
)

type DeviceStateChange struct {
	Serial    string      `json:"serial"`
	OldState  DeviceState `json:"old_state"`
	NewState  DeviceState `json:"new_state"`
	Timestamp time.Time   `json:"timestamp"`
}

// ForwardRule is one line of `adb forward --list`.
type ForwardRule struct {
	Serial string `json:"serial"`
	Local  string `json:"local"`
	Remote string `json:"remote"`
}

// LocalPort returns the host port of a tcp forward. Other socket kinds
// (localabstract, jdwp, ...) have no port.
func (f ForwardRule) LocalPort() (uint16, bool) {
	raw, ok := strings.CutPrefix(f.Local, "tcp:")
	if !ok {
		return 0, false
	}
	port, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, false
	}
	return uint16(port), true
}
