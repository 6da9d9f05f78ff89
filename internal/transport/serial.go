package transport

import (
	"errors"
	"io"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tarm/serial"

	"sensorhub/internal/config"
	"sensorhub/internal/sensor"
)

const MaxReadNum = 4096
const BufferSize = 4096

var ErrNotOpen = errors.New("port not open")

type serialSource struct {
	opt  config.SourceOpt
	port io.ReadWriteCloser
	dec  frameDecoder
	buf  [BufferSize]byte
	bad  atomic.Uint64
}

func NewSerialSource(opt config.SourceOpt) Source {
	if opt.Baud == 0 {
		opt.Baud = config.DefaultBaudRate
	}
	return &serialSource{opt: opt}
}

func (s *serialSource) ID() string { return s.opt.Name }

// FrameErrors counts packets dropped for a bad length or checksum.
func (s *serialSource) FrameErrors() uint64 { return s.bad.Load() }

// Open opens the serial port
func (s *serialSource) Open() error {
	if s.port != nil {
		return nil
	}
	c := &serial.Config{
		Name:        s.opt.Name,
		Baud:        s.opt.Baud,
		ReadTimeout: time.Second * 5,
	}
	port, err := serial.OpenPort(c)
	if err != nil {
		log.Warnln(err)
		return err
	}
	s.port = port
	s.dec = frameDecoder{}
	return port.Flush()
}

// Close closes the serial port
func (s *serialSource) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// Read returns the records of the packets completed by the next reads.
func (s *serialSource) Read() ([]sensor.RawEvent, error) {
	if s.port == nil {
		return nil, ErrNotOpen
	}
	results := make([]sensor.RawEvent, 0, MaxEventNum)
	count := 0
	for count < MaxReadNum {
		n, err := s.port.Read(s.buf[:])
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, errors.New("port cannot be read")
		}
		count += n
		for i := 0; i < n; i++ {
			ev, rc := s.dec.input(s.buf[i])
			switch rc {
			case 1:
				results = append(results, ev)
			case -1:
				s.bad.Add(1)
			}
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	return nil, errors.New("no complete hub packet")
}
