package transport

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"sensorhub/internal/config"
	"sensorhub/internal/sensor"
	"sensorhub/internal/sensor/stml0xx"
)

// Minimal Linux input constants
const (
	evSyn = 0x00
	evAbs = 0x03

	synReport  = 0x00
	synDropped = 0x03

	inputEventSize = 24 // 64-bit timeval

	readTimeout = time.Second
)

// evdevParser turns input_event records of the hub's input device into raw
// hub records. ABS values are latched per sensor and every sensor touched
// since the previous SYN_REPORT is emitted when the report closes.
type evdevParser struct {
	chans   *stml0xx.ChannelMap
	buf     []byte
	last    [sensor.KindMax][sensor.MaxFields]int32
	touched [sensor.KindMax]bool
	skip    bool
}

func newEvdevParser(chans *stml0xx.ChannelMap) *evdevParser {
	return &evdevParser{chans: chans}
}

func (p *evdevParser) feed(chunk []byte) []sensor.RawEvent {
	var out []sensor.RawEvent
	p.buf = append(p.buf, chunk...)
	for len(p.buf) >= inputEventSize {
		ev := p.buf[:inputEventSize]
		p.buf = p.buf[inputEventSize:]
		sec := int64(binary.LittleEndian.Uint64(ev[0:8]))
		usec := int64(binary.LittleEndian.Uint64(ev[8:16]))
		etype := binary.LittleEndian.Uint16(ev[16:18])
		code := binary.LittleEndian.Uint16(ev[18:20])
		value := int32(binary.LittleEndian.Uint32(ev[20:24]))
		out = p.event(out, etype, code, value, sec*1e9+usec*1e3)
	}
	return out
}

func (p *evdevParser) event(out []sensor.RawEvent, etype, code uint16, value int32, ts int64) []sensor.RawEvent {
	switch etype {
	case evAbs:
		if p.skip {
			return out
		}
		k, slot, ok := p.chans.LookupCode(int(code))
		if !ok {
			return out
		}
		p.last[k][slot] = value
		p.touched[k] = true
	case evSyn:
		switch code {
		case synDropped:
			// the kernel buffer overran; discard until the next report
			p.skip = true
			p.touched = [sensor.KindMax]bool{}
		case synReport:
			if p.skip {
				p.skip = false
				return out
			}
			for k := sensor.KindMin + 1; k < sensor.KindMax; k++ {
				if !p.touched[k] {
					continue
				}
				p.touched[k] = false
				fields, err := p.chans.Fields(k)
				if err != nil {
					continue
				}
				out = append(out, sensor.NewRawEvent(k, ts, p.last[k][:len(fields)]...))
			}
		}
	}
	return out
}

// evdevSource reads the hub's shared input device.
type evdevSource struct {
	opt    config.SourceOpt
	chans  *stml0xx.ChannelMap
	dev    io.ReadCloser
	parser *evdevParser
	buf    [inputEventSize * 64]byte
}

func NewEvdevSource(opt config.SourceOpt, chans *stml0xx.ChannelMap) Source {
	return &evdevSource{opt: opt, chans: chans}
}

func (s *evdevSource) ID() string { return s.opt.Name }

func (s *evdevSource) Open() error {
	if s.dev != nil {
		return nil
	}
	dev, err := openInput(s.opt.Name)
	if err != nil {
		log.Warnln(err)
		return err
	}
	s.dev = dev
	s.parser = newEvdevParser(s.chans)
	return nil
}

func (s *evdevSource) Close() error {
	if s.dev == nil {
		return nil
	}
	err := s.dev.Close()
	s.dev = nil
	return err
}

func (s *evdevSource) Read() ([]sensor.RawEvent, error) {
	if s.dev == nil {
		return nil, ErrNotOpen
	}
	for {
		if d, ok := s.dev.(interface{ SetReadDeadline(time.Time) error }); ok {
			_ = d.SetReadDeadline(time.Now().Add(readTimeout))
		}
		n, err := s.dev.Read(s.buf[:])
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, errors.New("input device cannot be read")
		}
		if out := s.parser.feed(s.buf[:n]); len(out) > 0 {
			return out, nil
		}
	}
}
