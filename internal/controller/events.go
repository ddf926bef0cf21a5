package controller

// BatteryLevel is the bucketed charge state reported outward. Buckets,
// not raw values, so consumers only hear about meaningful transitions.
type BatteryLevel int

const (
	BatteryEmpty BatteryLevel = iota
	BatteryCritical
	BatteryLow
	BatteryMedium
	BatteryFull
)

func (l BatteryLevel) String() string {
	switch l {
	case BatteryEmpty:
		return "empty"
	case BatteryCritical:
		return "critical"
	case BatteryLow:
		return "low"
	case BatteryMedium:
		return "medium"
	default:
		return "full"
	}
}

// ConvertBattery buckets a raw 0-100 battery value. One canonical table
// for both controller families.
func ConvertBattery(raw byte) BatteryLevel {
	switch {
	case raw <= 10:
		return BatteryEmpty
	case raw <= 20:
		return BatteryCritical
	case raw <= 40:
		return BatteryLow
	case raw <= 70:
		return BatteryMedium
	default:
		return BatteryFull
	}
}

// DesignType identifies the physical controller variant for consumers
// that render a matching picture.
type DesignType string

const (
	DesignWiimote           DesignType = "wiimote"
	DesignWiimotePlus       DesignType = "wiimote-plus"
	DesignWiimoteMotionPlus DesignType = "wiimote-motionplus"
	DesignJoyConLeft        DesignType = "joycon-left"
	DesignJoyConRight       DesignType = "joycon-right"
	DesignProController     DesignType = "pro-controller"
)

// Design is the capability metadata carried by a Connected event.
type Design struct {
	Color string     `json:"color"`
	Type  DesignType `json:"type"`
}

// MotionSample is one calibrated, axis-remapped motion reading:
// acceleration in multiples of g, angular rate in degrees per second.
type MotionSample struct {
	AccelX float64 `json:"accel_x"`
	AccelY float64 `json:"accel_y"`
	AccelZ float64 `json:"accel_z"`
	GyroX  float64 `json:"gyro_x"`
	GyroY  float64 `json:"gyro_y"`
	GyroZ  float64 `json:"gyro_z"`
}

// Event is one item on the outbound stream, keyed by the serial number
// of the controller it concerns.
type Event struct {
	Serial string
	Info   EventInfo
}

// EventInfo is the closed set of event payloads.
type EventInfo interface{ eventInfo() }

// Connected announces a device entering its streaming loop. Always
// precedes any Motion event for that serial.
type Connected struct{ Design Design }

// Disconnected announces permanent link loss; the handle waits for
// reconnection.
type Disconnected struct{}

// Battery announces a bucket transition, debounced per device.
type Battery struct{ Level BatteryLevel }

// Motion carries one calibrated sample.
type Motion struct{ Sample MotionSample }

// Reset is the user's request to re-center downstream consumers.
type Reset struct{}

func (Connected) eventInfo()    {}
func (Disconnected) eventInfo() {}
func (Battery) eventInfo()      {}
func (Motion) eventInfo()       {}
func (Reset) eventInfo()        {}
