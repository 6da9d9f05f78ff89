package stml0xx

import (
	"math"

	"sensorhub/internal/sensor"
)

const (
	ProxUncovered = 100
	ProxCovered   = 3
	ProxSaturated = 1

	DispFlat    = 0x10
	DispUnknown = -1

	FlatNotDetected = 0
	FlatDetected    = 1
	FlatUnknown     = -1
)

// Raw is one record resolved through the channel map: values and slot
// indices are indexed by FieldRole. Unmapped roles have slot -1.
type Raw struct {
	Kind  sensor.Kind
	Value [Auxiliary + 1]int32
	Slot  [Auxiliary + 1]int
}

func (r *Raw) has(role FieldRole) bool { return r.Slot[role] >= 0 }

func (r *Raw) reject(role FieldRole, err error, msg string) error {
	return &sensor.DecodeError{Err: err, Kind: r.Kind, Slot: r.Slot[role], Raw: r.Value[role], Msg: msg}
}

func (r *Raw) within(role FieldRole, lo, hi int32) error {
	if v := r.Value[role]; v < lo || v > hi {
		return r.reject(role, sensor.ErrOutOfDomain, "outside full scale")
	}
	return nil
}

func (r *Raw) axes(lo, hi int32) error {
	for _, role := range [...]FieldRole{AxisX, AxisY, AxisZ} {
		if err := r.within(role, lo, hi); err != nil {
			return err
		}
	}
	return nil
}

func (r *Raw) scaled(s float64) sensor.Vec3 {
	return sensor.Vec3{
		X: float64(r.Value[AxisX]) * s,
		Y: float64(r.Value[AxisY]) * s,
		Z: float64(r.Value[AxisZ]) * s,
	}
}

func (r *Raw) accuracy(out *sensor.Reading) error {
	if !r.has(Status) {
		return nil
	}
	if v := r.Value[Status]; v < int32(sensor.AccuracyNoContact) || v > int32(sensor.AccuracyHigh) {
		return r.reject(Status, sensor.ErrOutOfDomain, "not an accuracy level")
	}
	out.Accuracy = sensor.Accuracy(r.Value[Status])
	return nil
}

// Bias is a per-axis offset in raw counts, taken from the calibration store.
type Bias [3]int32

func (b Bias) scaled(s float64) sensor.Vec3 {
	return sensor.Vec3{X: float64(b[0]) * s, Y: float64(b[1]) * s, Z: float64(b[2]) * s}
}

// Convert dispatches r to the conversion family of its kind.
func Convert(r *Raw, v Variant, bias Bias) (sensor.Reading, error) {
	switch r.Kind {
	case sensor.Accelerometer, sensor.SecondaryAccelerometer, sensor.Gravity, sensor.LinearAcceleration:
		return ConvertAcceleration(r, v)
	case sensor.Gyroscope, sensor.UncalibratedGyroscope:
		return ConvertAngularRate(r, v, bias)
	case sensor.Magnetometer, sensor.UncalibratedMagnetometer:
		return ConvertMagnetic(r, bias)
	case sensor.Orientation:
		return ConvertOrientation(r)
	case sensor.GameRotationVector:
		return ConvertRotationVector(r)
	case sensor.Light:
		return ConvertLight(r)
	case sensor.Proximity, sensor.RearProximity:
		return ConvertProximity(r)
	case sensor.DisplayRotate:
		return ConvertDisplayRotate(r)
	case sensor.FlatUp, sensor.FlatDown, sensor.Stowed:
		return ConvertFlat(r)
	case sensor.CameraActivate, sensor.ChopChop, sensor.Lift, sensor.Glance, sensor.MotoGlance:
		return ConvertGesture(r)
	case sensor.StepDetector:
		return ConvertStepDetector(r)
	case sensor.StepCounter:
		return ConvertStepCounter(r)
	}
	return sensor.Reading{}, &sensor.DecodeError{Err: sensor.ErrUnknownSensor, Kind: r.Kind, Slot: -1}
}

// ConvertAcceleration scales every acceleration-class sensor by g/LSB of the variant.
func ConvertAcceleration(r *Raw, v Variant) (sensor.Reading, error) {
	out := sensor.Reading{Kind: r.Kind, Shape: sensor.ShapeVector}
	if err := r.axes(v.AccelLimits()); err != nil {
		return sensor.Reading{}, err
	}
	if err := r.accuracy(&out); err != nil {
		return sensor.Reading{}, err
	}
	out.Vector = r.scaled(v.AccelScale())
	return out, nil
}

// ConvertAngularRate produces rad/s; the uncalibrated sensor also reports
// the stored bias through the same scale.
func ConvertAngularRate(r *Raw, v Variant, bias Bias) (sensor.Reading, error) {
	if !v.HasGyro {
		return sensor.Reading{}, &sensor.DecodeError{Err: sensor.ErrUnknownSensor, Kind: r.Kind, Slot: -1, Msg: v.Name + " has no gyroscope"}
	}
	if err := r.axes(math.MinInt16, math.MaxInt16); err != nil {
		return sensor.Reading{}, err
	}
	out := sensor.Reading{Kind: r.Kind, Shape: sensor.ShapeOf(r.Kind), Vector: r.scaled(v.AngularRate)}
	if out.Shape == sensor.ShapeUncalibrated {
		out.Bias = bias.scaled(v.AngularRate)
	}
	return out, nil
}

// ConvertMagnetic produces uT at a fixed 0.06 uT/LSB.
func ConvertMagnetic(r *Raw, bias Bias) (sensor.Reading, error) {
	if err := r.axes(math.MinInt16, math.MaxInt16); err != nil {
		return sensor.Reading{}, err
	}
	out := sensor.Reading{Kind: r.Kind, Shape: sensor.ShapeOf(r.Kind), Vector: r.scaled(ScaleMagnetometer)}
	if err := r.accuracy(&out); err != nil {
		return sensor.Reading{}, err
	}
	if out.Shape == sensor.ShapeUncalibrated {
		out.Bias = bias.scaled(ScaleMagnetometer)
	}
	return out, nil
}

// ConvertOrientation decodes Q6 yaw, pitch and roll into degrees. Yaw is a
// heading in [0, 360], pitch spans [-180, 180] and roll [-90, 90].
func ConvertOrientation(r *Raw) (sensor.Reading, error) {
	const deg = 64
	if err := r.within(AxisX, 0, 360*deg); err != nil {
		return sensor.Reading{}, err
	}
	if err := r.within(AxisY, -180*deg, 180*deg); err != nil {
		return sensor.Reading{}, err
	}
	if err := r.within(AxisZ, -90*deg, 90*deg); err != nil {
		return sensor.Reading{}, err
	}
	return sensor.Reading{Kind: r.Kind, Shape: sensor.ShapeVector, Vector: r.scaled(ScaleOrientation)}, nil
}

// ConvertRotationVector decodes the Q14 quaternion computed by the hub.
func ConvertRotationVector(r *Raw) (sensor.Reading, error) {
	const one = 1 << 14
	for _, role := range [...]FieldRole{AxisX, AxisY, AxisZ, Auxiliary} {
		if err := r.within(role, -one, one); err != nil {
			return sensor.Reading{}, err
		}
	}
	v := r.scaled(ScaleRotationVector)
	return sensor.Reading{
		Kind:  r.Kind,
		Shape: sensor.ShapeQuaternion,
		Quat:  sensor.Quat{X: v.X, Y: v.Y, Z: v.Z, W: float64(r.Value[Auxiliary]) * ScaleRotationVector},
	}, nil
}

// ConvertLight passes lux through. A nonzero status marks an invalid read.
func ConvertLight(r *Raw) (sensor.Reading, error) {
	out := sensor.Reading{Kind: r.Kind, Shape: sensor.ShapeScalar}
	if r.has(Status) && r.Value[Status] != 0 {
		out.NoData = true
		return out, nil
	}
	if r.Value[Auxiliary] < 0 {
		return sensor.Reading{}, r.reject(Auxiliary, sensor.ErrOutOfDomain, "negative lux")
	}
	out.Scalar = float64(r.Value[Auxiliary])
	return out, nil
}

// ConvertProximity maps the hub distance onto covered, uncovered or saturated.
// Anything between the documented points is rejected rather than bucketed.
func ConvertProximity(r *Raw) (sensor.Reading, error) {
	out := sensor.Reading{Kind: r.Kind, Shape: sensor.ShapeState}
	v := r.Value[Auxiliary]
	switch {
	case v >= ProxUncovered:
		out.State = sensor.StateUncovered
	case v == ProxCovered:
		out.State = sensor.StateCovered
	case v == ProxSaturated:
		out.State = sensor.StateSaturated
	default:
		return sensor.Reading{}, r.reject(Auxiliary, sensor.ErrInvalidProximity, "")
	}
	out.Payload = v
	return out, nil
}

var rotations = [...]sensor.State{sensor.StateRotation0, sensor.StateRotation90, sensor.StateRotation180, sensor.StateRotation270}

func ConvertDisplayRotate(r *Raw) (sensor.Reading, error) {
	out := sensor.Reading{Kind: r.Kind, Shape: sensor.ShapeState}
	v := r.Value[Auxiliary]
	switch {
	case v == DispUnknown:
		out.State = sensor.StateUnknown
	case v == DispFlat:
		out.State = sensor.StateFlat
	case v >= 0 && int(v) < len(rotations):
		out.State = rotations[v]
	default:
		return sensor.Reading{}, r.reject(Auxiliary, sensor.ErrOutOfDomain, "not a display rotation")
	}
	out.Payload = v
	return out, nil
}

// ConvertFlat decodes flat-up, flat-down and stowed detector words.
func ConvertFlat(r *Raw) (sensor.Reading, error) {
	out := sensor.Reading{Kind: r.Kind, Shape: sensor.ShapeState}
	v := r.Value[Auxiliary]
	switch v {
	case FlatUnknown:
		out.State = sensor.StateUnknown
	case FlatNotDetected:
		out.State = sensor.StateNotDetected
	case FlatDetected:
		out.State = sensor.StateDetected
	default:
		return sensor.Reading{}, r.reject(Auxiliary, sensor.ErrOutOfDomain, "not a detector state")
	}
	out.Payload = v
	return out, nil
}

// ConvertGesture reports a one-shot fire. The hub only emits a record on the
// rising edge, so a zero or negative payload is not a valid record.
func ConvertGesture(r *Raw) (sensor.Reading, error) {
	v := r.Value[Auxiliary]
	if v <= 0 {
		return sensor.Reading{}, r.reject(Auxiliary, sensor.ErrOutOfDomain, "gesture without a fire")
	}
	return sensor.Reading{Kind: r.Kind, Shape: sensor.ShapeState, State: sensor.StateFired, Payload: v}, nil
}

func ConvertStepDetector(r *Raw) (sensor.Reading, error) {
	if r.Value[Auxiliary] != 1 {
		return sensor.Reading{}, r.reject(Auxiliary, sensor.ErrOutOfDomain, "step pulse must be 1")
	}
	return sensor.Reading{Kind: r.Kind, Shape: sensor.ShapeState, State: sensor.StateFired, Payload: 1}, nil
}

func ConvertStepCounter(r *Raw) (sensor.Reading, error) {
	v := r.Value[Auxiliary]
	if v < 0 {
		return sensor.Reading{}, r.reject(Auxiliary, sensor.ErrOutOfDomain, "negative step count")
	}
	return sensor.Reading{Kind: r.Kind, Shape: sensor.ShapeScalar, Scalar: float64(v)}, nil
}
