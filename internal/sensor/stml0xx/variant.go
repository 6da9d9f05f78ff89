package stml0xx

import (
	"math"
	"strings"

	"sensorhub/internal/sensor"
)

const (
	StandardGravity = 9.80665 // m/s^2 per g

	// millidegrees/second full scale to rad/s
	ScaleAngularRate = (2000.0 / 32767.0) * (math.Pi / 180.0)

	ScaleMagnetometer   = 0.06           // uT per LSB
	ScaleOrientation    = 1.0 / 64.0     // Q6 degrees
	ScaleRotationVector = 1.0 / 16384.0  // Q14
	AKMAccelLSB         = 720.0          // LSB per g when routed through the AKM library
	ScaleAccelAKM       = StandardGravity / AKMAccelLSB
)

// Variant is the accelerometer/gyroscope chip family of a build.
type Variant struct {
	Name        string
	RangeG      float64
	LSBPerG     float64
	HasGyro     bool
	AngularRate float64 // rad/s per LSB, zero without a gyroscope
}

var (
	// KXCJ9 runs in +/-8g 14-bit mode: -8192..8191, 1024 LSB = 1g.
	KXCJ9 = Variant{Name: "kxcj9", RangeG: 8, LSBPerG: 1024}

	BMI160 = Variant{Name: "bmi160", RangeG: 16, LSBPerG: 2048, HasGyro: true, AngularRate: ScaleAngularRate}
)

var variants = []Variant{KXCJ9, BMI160}

// VariantByName is case-insensitive.
func VariantByName(name string) (Variant, error) {
	for _, v := range variants {
		if strings.EqualFold(v.Name, name) {
			return v, nil
		}
	}
	return Variant{}, &sensor.DecodeError{Err: sensor.ErrVariantMismatch, Slot: -1, Msg: "unknown hardware variant " + name}
}

// VariantNames lists the selectable chip families.
func VariantNames() []string {
	out := make([]string, len(variants))
	for i, v := range variants {
		out[i] = v.Name
	}
	return out
}

// AccelScale converts one raw acceleration count to m/s^2.
func (v Variant) AccelScale() float64 { return StandardGravity / v.LSBPerG }

// AccelLimits is the signed count range of the accelerometer full scale.
func (v Variant) AccelLimits() (lo, hi int32) {
	n := int32(v.RangeG * v.LSBPerG)
	return -n, n - 1
}

// Check rejects a variant that cannot serve the build's feature set.
func (v Variant) Check(f sensor.Features) error {
	if v.LSBPerG <= 0 || v.RangeG <= 0 {
		return &sensor.DecodeError{Err: sensor.ErrVariantMismatch, Slot: -1, Msg: v.Name + " has no acceleration scale"}
	}
	if f.Gyroscope && !v.HasGyro {
		return &sensor.DecodeError{Err: sensor.ErrVariantMismatch, Slot: -1, Msg: v.Name + " has no gyroscope"}
	}
	return nil
}
