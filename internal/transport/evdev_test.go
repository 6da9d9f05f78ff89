package transport

import (
	"encoding/binary"
	"testing"

	"sensorhub/internal/sensor"
	"sensorhub/internal/sensor/stml0xx"
)

func inputEvent(sec, usec int64, etype, code uint16, value int32) []byte {
	b := make([]byte, inputEventSize)
	binary.LittleEndian.PutUint64(b[0:], uint64(sec))
	binary.LittleEndian.PutUint64(b[8:], uint64(usec))
	binary.LittleEndian.PutUint16(b[16:], etype)
	binary.LittleEndian.PutUint16(b[18:], code)
	binary.LittleEndian.PutUint32(b[20:], uint32(value))
	return b
}

func fullMap(t *testing.T) *stml0xx.ChannelMap {
	t.Helper()
	chans, err := stml0xx.NewChannelMap(sensor.NewRegistry(sensor.AllFeatures()))
	if err != nil {
		t.Fatal(err)
	}
	return chans
}

func TestEvdevReport(t *testing.T) {
	p := newEvdevParser(fullMap(t))

	var stream []byte
	stream = append(stream, inputEvent(1, 500, evAbs, 0x00, 1024)...)
	stream = append(stream, inputEvent(1, 500, evAbs, 0x01, -5)...)
	stream = append(stream, inputEvent(1, 500, evAbs, 0x02, 7)...)
	stream = append(stream, inputEvent(1, 500, evAbs, 0x03, 3)...)
	stream = append(stream, inputEvent(1, 500, evAbs, 0x04, 11)...) // magnetometer x
	stream = append(stream, inputEvent(1, 500, evAbs, 0x3f, 99)...) // unmapped

	// split mid-event to exercise buffering
	if out := p.feed(stream[:30]); len(out) != 0 {
		t.Fatalf("premature output %+v", out)
	}
	if out := p.feed(stream[30:]); len(out) != 0 {
		t.Fatalf("output before SYN_REPORT %+v", out)
	}

	out := p.feed(inputEvent(1, 500, evSyn, synReport, 0))
	if len(out) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(out), out)
	}
	ts := int64(1e9 + 500e3)
	want := sensor.NewRawEvent(sensor.Accelerometer, ts, 1024, -5, 7, 3)
	if out[0] != want {
		t.Errorf("accel = %+v, want %+v", out[0], want)
	}
	if out[1].Kind != sensor.Magnetometer || out[1].NFields != 4 || out[1].Fields[0] != 11 {
		t.Errorf("mag = %+v", out[1])
	}

	// latched values carry into the next report
	out = p.feed(append(inputEvent(2, 0, evAbs, 0x01, 6), inputEvent(2, 0, evSyn, synReport, 0)...))
	want = sensor.NewRawEvent(sensor.Accelerometer, 2e9, 1024, 6, 7, 3)
	if len(out) != 1 || out[0] != want {
		t.Fatalf("got %+v, want %+v", out, want)
	}
}

func TestEvdevDropped(t *testing.T) {
	p := newEvdevParser(fullMap(t))
	var stream []byte
	stream = append(stream, inputEvent(1, 0, evAbs, 0x00, 1)...)
	stream = append(stream, inputEvent(1, 0, evSyn, synDropped, 0)...)
	stream = append(stream, inputEvent(1, 0, evAbs, 0x01, 2)...)
	stream = append(stream, inputEvent(1, 0, evSyn, synReport, 0)...)
	if out := p.feed(stream); len(out) != 0 {
		t.Fatalf("report after SYN_DROPPED emitted %+v", out)
	}
	out := p.feed(append(inputEvent(2, 0, evAbs, 0x02, 3), inputEvent(2, 0, evSyn, synReport, 0)...))
	if len(out) != 1 || out[0].Kind != sensor.Accelerometer {
		t.Fatalf("got %+v", out)
	}
}

func TestEvdevDisabledFeature(t *testing.T) {
	f := sensor.AllFeatures()
	f.Magnetometer = false
	chans, err := stml0xx.NewChannelMap(sensor.NewRegistry(f))
	if err != nil {
		t.Fatal(err)
	}
	p := newEvdevParser(chans)
	out := p.feed(append(inputEvent(1, 0, evAbs, 0x04, 11), inputEvent(1, 0, evSyn, synReport, 0)...))
	if len(out) != 0 {
		t.Fatalf("disabled sensor emitted %+v", out)
	}
}
