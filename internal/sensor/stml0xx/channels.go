package stml0xx

import (
	"strconv"

	"sensorhub/internal/sensor"
)

// FieldRole is the meaning of one raw channel slot for a given sensor.
type FieldRole uint8

const (
	AxisX FieldRole = iota + 1
	AxisY
	AxisZ
	Status
	Auxiliary
)

func (r FieldRole) String() string {
	switch r {
	case AxisX:
		return "axis_x"
	case AxisY:
		return "axis_y"
	case AxisZ:
		return "axis_z"
	case Status:
		return "status"
	case Auxiliary:
		return "auxiliary"
	}
	return "unknown"
}

func (r FieldRole) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r FieldRole) isComponent() bool { return r != Status }

// Linux input ABS codes used by the hub's shared input device.
const (
	absX         = 0x00
	absY         = 0x01
	absZ         = 0x02
	absRX        = 0x03
	absRY        = 0x04
	absRZ        = 0x05
	absThrottle  = 0x06
	absRudder    = 0x07
	absWheel     = 0x08
	absGas       = 0x09
	absBrake     = 0x0a
	absHat0Y     = 0x11
	absHat1X     = 0x12
	absHat1Y     = 0x13
	absTiltX     = 0x1a
	absTiltY     = 0x1b
	absToolWidth = 0x1c
	absVolume    = 0x20

	// NoCode marks a field that only travels in hub packets.
	NoCode = -1
)

// Field is one slot of a channel map entry.
type Field struct {
	Role FieldRole `json:"role"`
	Code int       `json:"code"`
}

func pkt(role FieldRole) Field { return Field{Role: role, Code: NoCode} }

func abs(role FieldRole, code int) Field { return Field{Role: role, Code: code} }

var xyz = []Field{pkt(AxisX), pkt(AxisY), pkt(AxisZ)}

var single = []Field{pkt(Auxiliary)}

// channelTable is the slot layout of every sensor of a full build.
var channelTable = map[sensor.Kind][]Field{
	sensor.Accelerometer:            {abs(AxisX, absX), abs(AxisY, absY), abs(AxisZ, absZ), abs(Status, absRX)},
	sensor.Gyroscope:                xyz,
	sensor.UncalibratedGyroscope:    xyz,
	sensor.GameRotationVector:       {abs(AxisX, absTiltX), abs(AxisY, absTiltY), abs(AxisZ, absToolWidth), abs(Auxiliary, absVolume)},
	sensor.Gravity:                  xyz,
	sensor.LinearAcceleration:       xyz,
	sensor.Light:                    {pkt(Auxiliary), pkt(Status)},
	sensor.Proximity:                single,
	sensor.DisplayRotate:            single,
	sensor.FlatUp:                   single,
	sensor.FlatDown:                 single,
	sensor.Stowed:                   single,
	sensor.CameraActivate:           single,
	sensor.SecondaryAccelerometer:   xyz,
	sensor.Magnetometer:             {abs(AxisX, absRY), abs(AxisY, absRZ), abs(AxisZ, absThrottle), abs(Status, absRudder)},
	sensor.UncalibratedMagnetometer: {abs(AxisX, absWheel), abs(AxisY, absGas), abs(AxisZ, absBrake)},
	sensor.Orientation:              {abs(AxisX, absHat0Y), abs(AxisY, absHat1X), abs(AxisZ, absHat1Y)},
	sensor.ChopChop:                 single,
	sensor.Lift:                     single,
	sensor.RearProximity:            single,
	sensor.StepDetector:             single,
	sensor.StepCounter:              single,
	sensor.Glance:                   single,
	sensor.MotoGlance:               single,
}

type entry struct {
	fields []Field
	slot   [Auxiliary + 1]int
}

type codeRef struct {
	kind sensor.Kind
	slot int
}

// ChannelMap resolves which raw slot carries which field for each compiled
// sensor. It is immutable after construction and safe for concurrent use.
type ChannelMap struct {
	reg     *sensor.Registry
	entries [sensor.KindMax]*entry
	codes   map[int]codeRef
}

// NewChannelMap builds the map for the registry's compiled set.
func NewChannelMap(reg *sensor.Registry) (*ChannelMap, error) {
	return buildChannelMap(reg, channelTable)
}

func buildChannelMap(reg *sensor.Registry, table map[sensor.Kind][]Field) (*ChannelMap, error) {
	m := &ChannelMap{reg: reg, codes: make(map[int]codeRef)}
	for _, k := range reg.Kinds() {
		fields, ok := table[k]
		if !ok || len(fields) == 0 {
			return nil, conflict(k, "no channel entry")
		}
		if len(fields) > sensor.MaxFields {
			return nil, conflict(k, "more fields than channel slots")
		}
		e := &entry{fields: fields}
		for i := range e.slot {
			e.slot[i] = -1
		}
		components := 0
		for i, fd := range fields {
			if fd.Role < AxisX || fd.Role > Auxiliary {
				return nil, conflict(k, "invalid role in slot "+strconv.Itoa(i))
			}
			if e.slot[fd.Role] >= 0 {
				return nil, conflict(k, fd.Role.String()+" assigned twice")
			}
			e.slot[fd.Role] = i
			if fd.Role.isComponent() {
				components++
			}
			if fd.Code == NoCode {
				continue
			}
			if prev, dup := m.codes[fd.Code]; dup {
				return nil, conflict(k, "input code "+strconv.Itoa(fd.Code)+" already carries "+prev.kind.String())
			}
			m.codes[fd.Code] = codeRef{kind: k, slot: i}
		}
		if want := sensor.ShapeOf(k).Components(); components != want {
			return nil, conflict(k, "has "+strconv.Itoa(components)+" value fields, shape needs "+strconv.Itoa(want))
		}
		m.entries[k] = e
	}
	return m, nil
}

func conflict(k sensor.Kind, msg string) error {
	return &sensor.DecodeError{Err: sensor.ErrChannelConflict, Kind: k, Slot: -1, Msg: msg}
}

func (m *ChannelMap) Registry() *sensor.Registry { return m.reg }

func (m *ChannelMap) lookup(k sensor.Kind) (*entry, error) {
	if !m.reg.IsValid(k) {
		return nil, &sensor.DecodeError{Err: sensor.ErrUnknownSensor, Kind: k, Slot: -1}
	}
	return m.entries[k], nil
}

// FieldsFor returns the ordered slot roles of kind k.
func (m *ChannelMap) FieldsFor(k sensor.Kind) ([]FieldRole, error) {
	e, err := m.lookup(k)
	if err != nil {
		return nil, err
	}
	out := make([]FieldRole, len(e.fields))
	for i, fd := range e.fields {
		out[i] = fd.Role
	}
	return out, nil
}

// Fields returns the full slot layout of kind k, input codes included.
func (m *ChannelMap) Fields(k sensor.Kind) ([]Field, error) {
	e, err := m.lookup(k)
	if err != nil {
		return nil, err
	}
	out := make([]Field, len(e.fields))
	copy(out, e.fields)
	return out, nil
}

// Slot returns the raw slot index that carries role for kind k.
func (m *ChannelMap) Slot(k sensor.Kind, role FieldRole) (int, bool) {
	e, err := m.lookup(k)
	if err != nil || role < AxisX || role > Auxiliary {
		return -1, false
	}
	i := e.slot[role]
	return i, i >= 0
}

// LookupCode maps an input ABS code back to the sensor and slot it carries.
func (m *ChannelMap) LookupCode(code int) (sensor.Kind, int, bool) {
	ref, ok := m.codes[code]
	return ref.kind, ref.slot, ok
}
