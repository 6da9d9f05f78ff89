package sensor

import (
	"errors"
	"strconv"
)

var (
	// Per-record failures.
	ErrUnknownSensor    = errors.New("unknown_sensor")
	ErrOutOfDomain      = errors.New("out_of_domain_value")
	ErrInvalidProximity = errors.New("invalid_proximity_value")
	ErrDecodeIncomplete = errors.New("decode_incomplete")

	// Startup failures.
	ErrChannelConflict = errors.New("channel_conflict")
	ErrVariantMismatch = errors.New("variant_mismatch")
)

// DecodeError keeps the sensor, slot and raw value that failed alongside
// one of the sentinel errors above.
type DecodeError struct {
	Err  error
	Kind Kind
	Slot int
	Raw  int32
	Msg  string
}

func (e *DecodeError) Error() string {
	s := e.Err.Error()
	if e.Kind != KindMin {
		s += ": " + e.Kind.String()
	}
	if e.Slot >= 0 {
		s += " slot " + strconv.Itoa(e.Slot) + " raw " + strconv.FormatInt(int64(e.Raw), 10)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	return s
}

// Is lets an invalid proximity value also match ErrOutOfDomain.
func (e *DecodeError) Is(target error) bool {
	return e.Err == ErrInvalidProximity && target == ErrOutOfDomain
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Code returns the stable short name of the wrapped error kind.
func Code(err error) string {
	if err == nil {
		return "ok"
	}
	for _, s := range []error{ErrUnknownSensor, ErrInvalidProximity, ErrOutOfDomain, ErrDecodeIncomplete, ErrChannelConflict, ErrVariantMismatch} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "error"
}

func unknown(k Kind) error {
	return &DecodeError{Err: ErrUnknownSensor, Kind: k, Slot: -1}
}
