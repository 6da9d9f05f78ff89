package manager

import (
	"errors"

	"sensorhub/internal/sensor"
)

var (
	ErrNotReady  = errors.New("not ready")
	ErrNoNewData = errors.New("no new data")
)

// Stats is a point-in-time view of the consumer loop.
type Stats struct {
	Source  string            `json:"source"`
	Running bool              `json:"running"`
	Faulted bool              `json:"faulted"`
	Records uint64            `json:"records"`
	Decoded uint64            `json:"decoded"`
	Dropped map[string]uint64 `json:"dropped"`
	Cursor  int64             `json:"cursor"`
}

type Manager interface {
	Start() error
	Stop() error
	Restart() error
	Read(int64) (int64, []sensor.Reading, error)
	Latest(sensor.Kind) (sensor.Reading, bool)
	LatestAll() []sensor.Reading
	Running() bool
	ManuallyStopped() bool
	Faulted() bool
	Stats() Stats
}
