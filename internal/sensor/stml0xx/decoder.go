// Package stml0xx decodes records of the stml0xx sensor hub: it owns the
// channel map, the hardware-variant scale factors and the per-sensor
// conversions that turn raw channel values into calibrated readings.
package stml0xx

import (
	"strconv"

	"sensorhub/internal/sensor"
)

// Offsets is a point-in-time view of per-sensor bias offsets.
type Offsets map[sensor.Kind]Bias

// decoder is stateless after construction and reentrant.
type decoder struct {
	reg     *sensor.Registry
	variant Variant
	chans   *ChannelMap
	offsets Offsets
}

// NewDecoder fails when the variant cannot serve the registry's feature set.
// offsets may be nil; it is copied.
func NewDecoder(chans *ChannelMap, variant Variant, offsets Offsets) (sensor.Decoder, error) {
	reg := chans.Registry()
	if err := variant.Check(reg.Features()); err != nil {
		return nil, err
	}
	snap := make(Offsets, len(offsets))
	for k, b := range offsets {
		snap[k] = b
	}
	return &decoder{reg: reg, variant: variant, chans: chans, offsets: snap}, nil
}

// Resolve places the record's slots under their roles.
func (d *decoder) Resolve(ev sensor.RawEvent) (Raw, error) {
	r := Raw{Kind: ev.Kind}
	e, err := d.chans.lookup(ev.Kind)
	if err != nil {
		return r, err
	}
	if ev.NFields < len(e.fields) {
		return r, &sensor.DecodeError{
			Err:  sensor.ErrDecodeIncomplete,
			Kind: ev.Kind,
			Slot: -1,
			Msg:  "got " + strconv.Itoa(ev.NFields) + " fields, need " + strconv.Itoa(len(e.fields)),
		}
	}
	for i := range r.Slot {
		r.Slot[i] = -1
	}
	for i, fd := range e.fields {
		r.Slot[fd.Role] = i
		r.Value[fd.Role] = ev.Fields[i]
	}
	return r, nil
}

// Decode validates, resolves and converts one record.
func (d *decoder) Decode(ev sensor.RawEvent) (sensor.Reading, error) {
	h, err := d.reg.Handle(ev.Kind)
	if err != nil {
		return sensor.Reading{}, err
	}
	r, err := d.Resolve(ev)
	if err != nil {
		return sensor.Reading{}, err
	}
	out, err := Convert(&r, d.variant, d.offsets[ev.Kind])
	if err != nil {
		return sensor.Reading{}, err
	}
	out.Handle = h
	out.Timestamp = ev.Timestamp
	return out, nil
}
