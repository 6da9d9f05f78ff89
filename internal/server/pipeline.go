package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"sensorhub/internal/calib"
	"sensorhub/internal/config"
	"sensorhub/internal/sensor"
	"sensorhub/internal/sensor/stml0xx"
	"sensorhub/internal/transport"
)

// Pipeline is the decode side of a hub build: identity, slot layout,
// chip family, calibration and the decoder assembled from them.
type Pipeline struct {
	Registry *sensor.Registry
	Channels *stml0xx.ChannelMap
	Variant  stml0xx.Variant
	Calib    *calib.Store
	Decoder  sensor.Decoder
}

// NewPipeline builds the decoder of one build. Channel conflicts and variant
// mismatches are startup errors.
func NewPipeline(opt config.HubOpt) (*Pipeline, error) {
	reg := sensor.NewRegistry(opt.Features)
	chans, err := stml0xx.NewChannelMap(reg)
	if err != nil {
		return nil, fmt.Errorf("channel map: %w", err)
	}
	variant, err := stml0xx.VariantByName(opt.Variant)
	if err != nil {
		return nil, err
	}
	store, err := calib.Load(opt.Calibration)
	if err != nil {
		return nil, err
	}
	dec, err := stml0xx.NewDecoder(chans, variant, store.Snapshot())
	if err != nil {
		return nil, err
	}
	log.Debugf("built %d sensors for %s", reg.Len(), variant.Name)
	return &Pipeline{Registry: reg, Channels: chans, Variant: variant, Calib: store, Decoder: dec}, nil
}

// WriteKinds prints the compiled sensor set of p in handle order, with the
// calibration offset of every sensor that has one.
func WriteKinds(w io.Writer, p *Pipeline) error {
	calibPath := p.Calib.Path()
	if calibPath == "" {
		calibPath = "none"
	}
	if _, err := fmt.Fprintf(w, "variant %s, %d sensors, max handle %d, calibration %s\n",
		p.Variant.Name, p.Registry.Len(), p.Registry.Max(), calibPath); err != nil {
		return err
	}
	for _, k := range p.Registry.Kinds() {
		h, _ := p.Registry.Handle(k)
		fields, _ := p.Channels.Fields(k)
		roles := make([]string, len(fields))
		for i, f := range fields {
			roles[i] = f.Role.String()
			if f.Code >= 0 {
				roles[i] += fmt.Sprintf("(0x%02x)", f.Code)
			}
		}
		line := fmt.Sprintf("%3d  %-26s %-14s %s", h, k, sensor.ShapeOf(k), strings.Join(roles, " "))
		if b, ok := p.Calib.Offset(k); ok {
			line += fmt.Sprintf("  offset %d,%d,%d", b[0], b[1], b[2])
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// DecodeResult is one output line of DecodeStream.
type DecodeResult struct {
	Reading *sensor.Reading `json:"reading,omitempty"`
	Kind    sensor.Kind     `json:"kind,omitempty"`
	Code    string          `json:"code,omitempty"`
	Err     string          `json:"err,omitempty"`
}

// DecodeStream decodes every record of src and writes one JSON line per
// record to w. Failed records are written with their error code.
func DecodeStream(dec sensor.Decoder, src transport.Source, w io.Writer) (decoded, dropped int, err error) {
	if err := src.Open(); err != nil {
		return 0, 0, err
	}
	defer func() { _ = src.Close() }()

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for {
		batch, readErr := src.Read()
		for _, ev := range batch {
			var res DecodeResult
			r, decErr := dec.Decode(ev)
			if decErr != nil {
				dropped++
				res = DecodeResult{Kind: ev.Kind, Code: sensor.Code(decErr), Err: decErr.Error()}
			} else {
				decoded++
				res = DecodeResult{Reading: &r}
			}
			if err := enc.Encode(res); err != nil {
				return decoded, dropped, err
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			_ = bw.Flush()
			return decoded, dropped, readErr
		}
	}
	return decoded, dropped, bw.Flush()
}
