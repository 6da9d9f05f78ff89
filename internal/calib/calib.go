// Package calib reads per-sensor bias offsets persisted next to the hub
// configuration. The store is read once; callers hand snapshots to the decoder.
package calib

import (
	"errors"
	"fmt"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"sensorhub/internal/sensor"
	"sensorhub/internal/sensor/stml0xx"
)

// Store holds raw-count offsets keyed by sensor kind.
type Store struct {
	lock    sync.RWMutex
	path    string
	offsets stml0xx.Offsets
}

func NewStore() *Store {
	return &Store{offsets: make(stml0xx.Offsets)}
}

// Load reads a yaml document of the form `<sensor name>: [x, y, z]`.
// A missing file yields an empty store.
func Load(path string) (*Store, error) {
	s := NewStore()
	s.path = path
	if path == "" {
		return s, nil
	}
	buf, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warnln("calibration file not found, using zero offsets:", path)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read calibration: %w", err)
	}
	if err := s.parse(buf); err != nil {
		return nil, fmt.Errorf("parse calibration %s: %w", path, err)
	}
	log.Debugf("loaded %d calibration offsets from %s", len(s.offsets), path)
	return s, nil
}

func (s *Store) parse(buf []byte) error {
	doc := map[string][]int32{}
	if err := yaml.Unmarshal(buf, &doc); err != nil {
		return err
	}
	offsets := make(stml0xx.Offsets, len(doc))
	for name, v := range doc {
		k, err := sensor.ParseKind(name)
		if err != nil {
			return err
		}
		if len(v) != 3 {
			return fmt.Errorf("%s: want 3 offsets, got %d", name, len(v))
		}
		offsets[k] = stml0xx.Bias{v[0], v[1], v[2]}
	}
	s.lock.Lock()
	s.offsets = offsets
	s.lock.Unlock()
	return nil
}

func (s *Store) Path() string { return s.path }

// Offset returns the stored bias of kind k.
func (s *Store) Offset(k sensor.Kind) (stml0xx.Bias, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	b, ok := s.offsets[k]
	return b, ok
}

// Snapshot copies the current offsets.
func (s *Store) Snapshot() stml0xx.Offsets {
	s.lock.RLock()
	defer s.lock.RUnlock()
	out := make(stml0xx.Offsets, len(s.offsets))
	for k, v := range s.offsets {
		out[k] = v
	}
	return out
}
