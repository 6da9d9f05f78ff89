// Package transport adapts the devices that deliver raw hub records.
// Every Source yields sensor.RawEvent values; none of them decode.
package transport

import (
	"fmt"

	"sensorhub/internal/config"
	"sensorhub/internal/sensor"
	"sensorhub/internal/sensor/stml0xx"
)

const MaxEventNum = 100

// Source cannot be accessed by two goroutines at the same time.
type Source interface {
	Read() ([]sensor.RawEvent, error)
	Open() error
	Close() error
	ID() string
}

// FrameCounter is implemented by sources that discard malformed packets
// before they become records. The count covers the life of the source.
type FrameCounter interface {
	FrameErrors() uint64
}

// NewSource builds the transport selected by opt. The channel map is needed
// by transports that address fields by input code.
func NewSource(opt config.SourceOpt, chans *stml0xx.ChannelMap) (Source, error) {
	switch opt.Type {
	case config.SourceSerial:
		return NewSerialSource(opt), nil
	case config.SourceEvdev:
		return NewEvdevSource(opt, chans), nil
	case config.SourceReplay:
		return NewReplaySource(opt), nil
	}
	return nil, fmt.Errorf("unknown source type %q", opt.Type)
}
