package sensor

import "errors"

// Kind is the stable identity of one logical sensor behind the hub.
// Values follow the full-build declaration order and never change;
// the per-build numeric identifier is a Handle.
type Kind uint8

const (
	KindMin Kind = iota
	Accelerometer
	Gyroscope
	UncalibratedGyroscope
	GameRotationVector
	Gravity
	LinearAcceleration
	Light
	Proximity
	DisplayRotate
	FlatUp
	FlatDown
	Stowed
	CameraActivate
	SecondaryAccelerometer
	Magnetometer
	UncalibratedMagnetometer
	Orientation
	ChopChop
	Lift
	RearProximity
	StepDetector
	StepCounter
	Glance
	MotoGlance
	KindMax
)

var kindNames = [...]string{
	KindMin:                  "min",
	Accelerometer:            "accelerometer",
	Gyroscope:                "gyroscope",
	UncalibratedGyroscope:    "uncalibrated_gyroscope",
	GameRotationVector:       "game_rotation_vector",
	Gravity:                  "gravity",
	LinearAcceleration:       "linear_acceleration",
	Light:                    "light",
	Proximity:                "proximity",
	DisplayRotate:            "display_rotate",
	FlatUp:                   "flat_up",
	FlatDown:                 "flat_down",
	Stowed:                   "stowed",
	CameraActivate:           "camera_activate",
	SecondaryAccelerometer:   "secondary_accelerometer",
	Magnetometer:             "magnetometer",
	UncalibratedMagnetometer: "uncalibrated_magnetometer",
	Orientation:              "orientation",
	ChopChop:                 "chopchop",
	Lift:                     "lift",
	RearProximity:            "rear_proximity",
	StepDetector:             "step_detector",
	StepCounter:              "step_counter",
	Glance:                   "glance",
	MotoGlance:               "moto_glance",
	KindMax:                  "max",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind resolves a name produced by Kind.String. Sentinels are rejected.
func ParseKind(name string) (Kind, error) {
	for k := KindMin + 1; k < KindMax; k++ {
		if kindNames[k] == name {
			return k, nil
		}
	}
	return KindMin, &DecodeError{Err: ErrUnknownSensor, Slot: -1, Msg: "no sensor named " + name}
}

// Handle is the dense identifier a build assigns to each compiled-in sensor.
type Handle int

// HandleMin is the lower sentinel of every build; real handles start at 1.
const HandleMin Handle = 0

// Shape is the closed set of value shapes a reading can take.
type Shape uint8

const (
	ShapeVector Shape = iota + 1
	ShapeUncalibrated
	ShapeQuaternion
	ShapeScalar
	ShapeState
)

func (s Shape) String() string {
	switch s {
	case ShapeVector:
		return "vector"
	case ShapeUncalibrated:
		return "uncalibrated"
	case ShapeQuaternion:
		return "quaternion"
	case ShapeScalar:
		return "scalar"
	case ShapeState:
		return "state"
	}
	return "unknown"
}

// Components is the number of decoded axis or payload values the shape carries.
func (s Shape) Components() int {
	switch s {
	case ShapeVector, ShapeUncalibrated:
		return 3
	case ShapeQuaternion:
		return 4
	case ShapeScalar, ShapeState:
		return 1
	}
	return 0
}

// ShapeOf reports the value shape every reading of kind k has.
func ShapeOf(k Kind) Shape {
	switch k {
	case Accelerometer, SecondaryAccelerometer, Gravity, LinearAcceleration,
		Gyroscope, Magnetometer, Orientation:
		return ShapeVector
	case UncalibratedGyroscope, UncalibratedMagnetometer:
		return ShapeUncalibrated
	case GameRotationVector:
		return ShapeQuaternion
	case Light, StepCounter:
		return ShapeScalar
	case Proximity, RearProximity, DisplayRotate, FlatUp, FlatDown, Stowed,
		CameraActivate, ChopChop, Lift, Glance, MotoGlance, StepDetector:
		return ShapeState
	}
	return 0
}

// State is a discrete device state decoded from an enumerated sensor.
type State int8

const (
	StateNone State = iota
	StateUnknown
	StateUncovered
	StateCovered
	StateSaturated
	StateRotation0
	StateRotation90
	StateRotation180
	StateRotation270
	StateFlat
	StateNotDetected
	StateDetected
	StateFired
)

var stateNames = [...]string{
	StateNone:        "none",
	StateUnknown:     "unknown",
	StateUncovered:   "uncovered",
	StateCovered:     "covered",
	StateSaturated:   "saturated",
	StateRotation0:   "rotation_0",
	StateRotation90:  "rotation_90",
	StateRotation180: "rotation_180",
	StateRotation270: "rotation_270",
	StateFlat:        "flat",
	StateNotDetected: "not_detected",
	StateDetected:    "detected",
	StateFired:       "fired",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "invalid"
}

// Accuracy mirrors the hub status column of calibrated vector sensors.
type Accuracy int8

const (
	AccuracyNoContact  Accuracy = -1
	AccuracyUnreliable Accuracy = 0
	AccuracyLow        Accuracy = 1
	AccuracyMedium     Accuracy = 2
	AccuracyHigh       Accuracy = 3
)

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// MaxFields is the number of generic channel slots in one hub record.
const MaxFields = 4

// RawEvent is one hub-delivered sample. Slot meaning depends on Kind.
type RawEvent struct {
	Kind      Kind
	Fields    [MaxFields]int32
	NFields   int
	Timestamp int64
}

// NewRawEvent copies at most MaxFields values into a record.
func NewRawEvent(kind Kind, timestamp int64, fields ...int32) RawEvent {
	ev := RawEvent{Kind: kind, Timestamp: timestamp}
	ev.NFields = copy(ev.Fields[:], fields)
	return ev
}

// Reading is a calibrated sample. Only the members matching Shape are set,
// which keeps the struct comparable so identical decodes compare equal.
type Reading struct {
	Kind      Kind     `json:"kind"`
	Handle    Handle   `json:"handle"`
	Timestamp int64    `json:"timestamp"`
	Shape     Shape    `json:"shape"`
	Vector    Vec3     `json:"vector"`
	Bias      Vec3     `json:"bias"`
	Quat      Quat     `json:"quat"`
	Scalar    float64  `json:"scalar"`
	State     State    `json:"state"`
	Payload   int32    `json:"payload"`
	Accuracy  Accuracy `json:"accuracy"`
	NoData    bool     `json:"no_data"`
}

// Decoder turns raw hub records into calibrated readings.
type Decoder interface {
	Decode(RawEvent) (Reading, error)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

func (s Shape) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Shape) UnmarshalText(b []byte) error {
	for v := ShapeVector; v <= ShapeState; v++ {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return errors.New("unknown shape " + string(b))
}

func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return errors.New("unknown state " + string(b))
}
