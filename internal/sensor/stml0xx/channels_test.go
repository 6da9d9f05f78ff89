package stml0xx

import (
	"errors"
	"testing"

	"sensorhub/internal/sensor"
)

func TestChannelMapCoversEveryBuild(t *testing.T) {
	builds := map[string]sensor.Features{
		"full":    sensor.AllFeatures(),
		"minimal": {},
		"mag":     {Magnetometer: true},
		"gyro":    {Gyroscope: true, Pedometer: true},
	}
	for name, f := range builds {
		reg := sensor.NewRegistry(f)
		m, err := NewChannelMap(reg)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		for _, k := range reg.Kinds() {
			roles, err := m.FieldsFor(k)
			if err != nil {
				t.Fatalf("%s: fieldsFor(%v): %v", name, k, err)
			}
			components := 0
			for _, r := range roles {
				if r != Status {
					components++
				}
			}
			if want := sensor.ShapeOf(k).Components(); components != want {
				t.Fatalf("%s: %v has %d components, shape wants %d", name, k, components, want)
			}
		}
	}
}

func TestInputCodesNeverAlias(t *testing.T) {
	reg := sensor.NewRegistry(sensor.AllFeatures())
	m, err := NewChannelMap(reg)
	if err != nil {
		t.Fatal(err)
	}
	kinds := reg.Kinds()
	for i, a := range kinds {
		fa, _ := m.Fields(a)
		for _, b := range kinds[i+1:] {
			fb, _ := m.Fields(b)
			for _, x := range fa {
				for _, y := range fb {
					if x.Code != NoCode && x.Code == y.Code {
						t.Fatalf("%v and %v share input code %d", a, b, x.Code)
					}
				}
			}
		}
	}
}

func TestSlotOverlay(t *testing.T) {
	m, err := NewChannelMap(sensor.NewRegistry(sensor.AllFeatures()))
	if err != nil {
		t.Fatal(err)
	}
	// slot 0 means something different for each sensor.
	for _, k := range []sensor.Kind{sensor.Accelerometer, sensor.Magnetometer} {
		if i, ok := m.Slot(k, AxisX); !ok || i != 0 {
			t.Fatalf("%v axis_x slot = %d, %v", k, i, ok)
		}
	}
	if i, ok := m.Slot(sensor.DisplayRotate, Auxiliary); !ok || i != 0 {
		t.Fatalf("display_rotate auxiliary slot = %d, %v", i, ok)
	}
	if i, ok := m.Slot(sensor.Light, Status); !ok || i != 1 {
		t.Fatalf("light status slot = %d, %v", i, ok)
	}
	if _, ok := m.Slot(sensor.Proximity, AxisX); ok {
		t.Fatal("proximity has no axis")
	}
}

func TestLookupCode(t *testing.T) {
	m, err := NewChannelMap(sensor.NewRegistry(sensor.AllFeatures()))
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		code int
		kind sensor.Kind
		slot int
	}{
		{absX, sensor.Accelerometer, 0},
		{absRX, sensor.Accelerometer, 3},
		{absRY, sensor.Magnetometer, 0},
		{absRudder, sensor.Magnetometer, 3},
		{absBrake, sensor.UncalibratedMagnetometer, 2},
		{absHat0Y, sensor.Orientation, 0},
		{absVolume, sensor.GameRotationVector, 3},
	}
	for _, c := range cases {
		k, slot, ok := m.LookupCode(c.code)
		if !ok || k != c.kind || slot != c.slot {
			t.Fatalf("code %#x = %v/%d/%v, want %v/%d", c.code, k, slot, ok, c.kind, c.slot)
		}
	}
	if _, _, ok := m.LookupCode(0x30); ok {
		t.Fatal("unmapped code resolved")
	}
}

func TestLookupCodeFollowsBuild(t *testing.T) {
	m, err := NewChannelMap(sensor.NewRegistry(sensor.Features{}))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, ok := m.LookupCode(absRY); ok {
		t.Fatal("magnetometer code present without magnetometer")
	}
}

func TestFieldsForUnknownSensor(t *testing.T) {
	m, err := NewChannelMap(sensor.NewRegistry(sensor.Features{}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.FieldsFor(sensor.Gyroscope); !errors.Is(err, sensor.ErrUnknownSensor) {
		t.Fatalf("err = %v", err)
	}
}

func TestChannelConflicts(t *testing.T) {
	reg := sensor.NewRegistry(sensor.Features{})
	base := func() map[sensor.Kind][]Field {
		out := make(map[sensor.Kind][]Field, len(channelTable))
		for k, v := range channelTable {
			out[k] = v
		}
		return out
	}
	cases := map[string]func(map[sensor.Kind][]Field){
		"missing entry": func(tb map[sensor.Kind][]Field) {
			delete(tb, sensor.Stowed)
		},
		"aliased input code": func(tb map[sensor.Kind][]Field) {
			tb[sensor.SecondaryAccelerometer] = []Field{abs(AxisX, absX), pkt(AxisY), pkt(AxisZ)}
		},
		"repeated role": func(tb map[sensor.Kind][]Field) {
			tb[sensor.Light] = []Field{pkt(Auxiliary), pkt(Auxiliary)}
		},
		"shape mismatch": func(tb map[sensor.Kind][]Field) {
			tb[sensor.Accelerometer] = []Field{pkt(AxisX), pkt(AxisY)}
		},
		"too many slots": func(tb map[sensor.Kind][]Field) {
			tb[sensor.Proximity] = []Field{pkt(Auxiliary), pkt(Status), pkt(AxisX), pkt(AxisY), pkt(AxisZ)}
		},
	}
	for name, mutate := range cases {
		tb := base()
		mutate(tb)
		if _, err := buildChannelMap(reg, tb); !errors.Is(err, sensor.ErrChannelConflict) {
			t.Fatalf("%s: err = %v", name, err)
		}
	}
}
