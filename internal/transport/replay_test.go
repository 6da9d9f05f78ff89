package transport

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sensorhub/internal/config"
	"sensorhub/internal/sensor"
)

const replayFixture = `{"kind":"accelerometer","fields":[1024,0,-1024,3],"timestamp":10}

{"kind":"proximity","fields":[3],"timestamp":11}
{"kind":"step_counter","fields":[120],"timestamp":12}
`

func TestReplaySource(t *testing.T) {
	p := filepath.Join(t.TempDir(), "capture.jsonl")
	if err := os.WriteFile(p, []byte(replayFixture), 0600); err != nil {
		t.Fatal(err)
	}
	src, err := NewSource(config.SourceOpt{Type: config.SourceReplay, Name: p}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := src.Read(); err != ErrNotOpen {
		t.Fatalf("err = %v, want ErrNotOpen", err)
	}
	if err := src.Open(); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = src.Close() }()

	got, err := src.Read()
	if err != nil {
		t.Fatal(err)
	}
	want := []sensor.RawEvent{
		sensor.NewRawEvent(sensor.Accelerometer, 10, 1024, 0, -1024, 3),
		sensor.NewRawEvent(sensor.Proximity, 11, 3),
		sensor.NewRawEvent(sensor.StepCounter, 12, 120),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d records", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if _, err := src.Read(); err != io.EOF {
		t.Fatalf("err = %v, want EOF", err)
	}
}

func TestReplayUnknownKind(t *testing.T) {
	in := `{"kind":"light","fields":[1,0],"timestamp":1}
{"kind":"barometer","fields":[1],"timestamp":2}
{"kind":"proximity","fields":[100],"timestamp":3}
`
	src := NewReaderSource("inline", io.NopCloser(strings.NewReader(in)))
	got, err := src.Read()
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if len(got) != 3 || got[0].Kind != sensor.Light || got[2].Kind != sensor.Proximity {
		t.Fatalf("got %+v", got)
	}
	if got[1].Kind != sensor.KindMax || got[1].Timestamp != 2 || got[1].NFields != 1 {
		t.Fatalf("unknown record = %+v", got[1])
	}
	if sensor.NewRegistry(sensor.AllFeatures()).IsValid(got[1].Kind) {
		t.Fatal("unknown record resolved to a compiled sensor")
	}
}

func TestReplayBadLine(t *testing.T) {
	in := `{"kind":"light","fields":[1,0],"timestamp":1}
{"kind":"light","fields":
`
	src := NewReaderSource("inline", io.NopCloser(strings.NewReader(in)))
	got, err := src.Read()
	if err == nil || !strings.Contains(err.Error(), "inline:2") {
		t.Fatalf("err = %v, want position", err)
	}
	if len(got) != 1 || got[0].Kind != sensor.Light {
		t.Fatalf("got %+v", got)
	}
}

func TestReplayTooManyFields(t *testing.T) {
	if _, err := ParseReplayLine([]byte(`{"kind":"gravity","fields":[1,2,3,4,5]}`)); err == nil {
		t.Fatal("expected error")
	}
}

func TestReplayEncode(t *testing.T) {
	ev := sensor.NewRawEvent(sensor.GameRotationVector, 77, 1, 2, 3, 16384)
	line, err := EncodeReplayLine(ev)
	if err != nil {
		t.Fatal(err)
	}
	if string(line) != `{"kind":"game_rotation_vector","fields":[1,2,3,16384],"timestamp":77}` {
		t.Fatalf("line = %s", line)
	}
	back, err := ParseReplayLine(line)
	if err != nil || back != ev {
		t.Fatalf("back = %+v, %v", back, err)
	}
}

func TestNewSourceUnknown(t *testing.T) {
	if _, err := NewSource(config.SourceOpt{Type: "carrier-pigeon"}, nil); err == nil {
		t.Fatal("expected error")
	}
}
