package sensor

import "strconv"

// Features selects the optional sensor groups compiled into a hub build.
type Features struct {
	Gyroscope    bool `yaml:"gyroscope" mapstructure:"gyroscope" json:"gyroscope"`
	Magnetometer bool `yaml:"magnetometer" mapstructure:"magnetometer" json:"magnetometer"`
	ChopChop     bool `yaml:"chopchop" mapstructure:"chopchop" json:"chopchop"`
	Lift         bool `yaml:"lift" mapstructure:"lift" json:"lift"`
	RearProx     bool `yaml:"rearprox" mapstructure:"rearprox" json:"rearprox"`
	Pedometer    bool `yaml:"pedometer" mapstructure:"pedometer" json:"pedometer"`
}

// AllFeatures enables every optional group.
func AllFeatures() Features {
	return Features{
		Gyroscope:    true,
		Magnetometer: true,
		ChopChop:     true,
		Lift:         true,
		RearProx:     true,
		Pedometer:    true,
	}
}

// Enables reports whether kind k exists in a build with these features.
func (f Features) Enables(k Kind) bool {
	switch k {
	case Gyroscope, UncalibratedGyroscope, GameRotationVector, Gravity, LinearAcceleration:
		return f.Gyroscope
	case Magnetometer, UncalibratedMagnetometer, Orientation:
		return f.Magnetometer
	case ChopChop:
		return f.ChopChop
	case Lift:
		return f.Lift
	case RearProximity:
		return f.RearProx
	case StepDetector, StepCounter:
		return f.Pedometer
	}
	return k > KindMin && k < KindMax
}

// Registry is the immutable compiled sensor set of one build.
// It is safe for concurrent use.
type Registry struct {
	features Features
	kinds    []Kind
	handles  [KindMax]Handle
}

func NewRegistry(f Features) *Registry {
	r := &Registry{features: f}
	for k := KindMin + 1; k < KindMax; k++ {
		if !f.Enables(k) {
			continue
		}
		r.kinds = append(r.kinds, k)
		r.handles[k] = Handle(len(r.kinds))
	}
	return r
}

func (r *Registry) Features() Features { return r.features }

// Kinds returns the compiled set in handle order.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, len(r.kinds))
	copy(out, r.kinds)
	return out
}

func (r *Registry) Len() int { return len(r.kinds) }

// Max is the upper handle sentinel of this build.
func (r *Registry) Max() Handle { return Handle(len(r.kinds) + 1) }

func (r *Registry) IsValid(k Kind) bool {
	return k > KindMin && k < KindMax && r.handles[k] != HandleMin
}

func (r *Registry) IsValidHandle(h Handle) bool {
	return HandleMin < h && h < r.Max()
}

func (r *Registry) Handle(k Kind) (Handle, error) {
	if !r.IsValid(k) {
		return HandleMin, unknown(k)
	}
	return r.handles[k], nil
}

func (r *Registry) KindOf(h Handle) (Kind, error) {
	if !r.IsValidHandle(h) {
		return KindMin, &DecodeError{Err: ErrUnknownSensor, Slot: -1, Msg: "handle " + strconv.Itoa(int(h)) + " out of range"}
	}
	return r.kinds[h-1], nil
}
