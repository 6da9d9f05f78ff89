package calib

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"sensorhub/internal/sensor"
	"sensorhub/internal/sensor/stml0xx"
)

func write(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "calibration.yaml")
	if err := os.WriteFile(p, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad(t *testing.T) {
	p := write(t, "uncalibrated_gyroscope: [12, -4, 7]\nuncalibrated_magnetometer: [0, 0, 100]\n")
	s, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if b, ok := s.Offset(sensor.UncalibratedGyroscope); !ok || b != (stml0xx.Bias{12, -4, 7}) {
		t.Fatalf("gyro offset = %v, %v", b, ok)
	}
	if _, ok := s.Offset(sensor.Accelerometer); ok {
		t.Fatal("unexpected accelerometer offset")
	}
	if s.Path() != p {
		t.Fatalf("path = %q", s.Path())
	}
}

func TestMissingFileIsEmpty(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Snapshot()) != 0 {
		t.Fatal("expected no offsets")
	}
}

func TestLoadRejectsBadDocuments(t *testing.T) {
	cases := map[string]string{
		"unknown sensor": "barometer: [1, 2, 3]\n",
		"short vector":   "uncalibrated_gyroscope: [1, 2]\n",
		"not yaml":       "uncalibrated_gyroscope: [1, 2\n",
	}
	for name, body := range cases {
		if _, err := Load(write(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	_, err := Load(write(t, "barometer: [1, 2, 3]\n"))
	if !errors.Is(err, sensor.ErrUnknownSensor) {
		t.Fatalf("err = %v", err)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s, err := Load(write(t, "uncalibrated_gyroscope: [1, 2, 3]\n"))
	if err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	snap[sensor.UncalibratedGyroscope] = stml0xx.Bias{}
	if b, _ := s.Offset(sensor.UncalibratedGyroscope); b != (stml0xx.Bias{1, 2, 3}) {
		t.Fatalf("store mutated through snapshot: %v", b)
	}
}
