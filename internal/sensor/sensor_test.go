package sensor

import (
	"encoding/json"
	"testing"
)

func TestReadingJSON(t *testing.T) {
	in := Reading{Kind: DisplayRotate, Handle: 9, Timestamp: 5, Shape: ShapeState, State: StateRotation270}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out Reading
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("out = %+v, want %+v", out, in)
	}
	if err := json.Unmarshal([]byte(`{"shape":"cube"}`), &out); err == nil {
		t.Fatal("accepted unknown shape")
	}
	if err := json.Unmarshal([]byte(`{"state":"sideways"}`), &out); err == nil {
		t.Fatal("accepted unknown state")
	}
}

func TestNewRawEventTruncates(t *testing.T) {
	ev := NewRawEvent(Gravity, 1, 1, 2, 3, 4, 5)
	if ev.NFields != MaxFields || ev.Fields[3] != 4 {
		t.Fatalf("ev = %+v", ev)
	}
}
