package transport

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"sensorhub/internal/config"
	"sensorhub/internal/sensor"
)

// ReplayRecord is one line of a replay file.
type ReplayRecord struct {
	Kind      sensor.Kind `json:"kind"`
	Fields    []int32     `json:"fields"`
	Timestamp int64       `json:"timestamp"`
}

// ParseReplayLine decodes one JSON line into a raw hub record. A kind name
// no build knows is kept as sensor.KindMax, so the decoder drops that record
// as an unknown sensor while the rest of the file still plays.
func ParseReplayLine(line []byte) (sensor.RawEvent, error) {
	var rec struct {
		Kind      string  `json:"kind"`
		Fields    []int32 `json:"fields"`
		Timestamp int64   `json:"timestamp"`
	}
	if err := json.Unmarshal(line, &rec); err != nil {
		return sensor.RawEvent{}, err
	}
	if len(rec.Fields) > sensor.MaxFields {
		return sensor.RawEvent{}, fmt.Errorf("%s record has %d fields, at most %d fit", rec.Kind, len(rec.Fields), sensor.MaxFields)
	}
	k, err := sensor.ParseKind(rec.Kind)
	if err != nil {
		log.Debugf("replay record of unknown sensor %q", rec.Kind)
		k = sensor.KindMax
	}
	return sensor.NewRawEvent(k, rec.Timestamp, rec.Fields...), nil
}

// EncodeReplayLine is the inverse of ParseReplayLine.
func EncodeReplayLine(ev sensor.RawEvent) ([]byte, error) {
	return json.Marshal(ReplayRecord{Kind: ev.Kind, Fields: ev.Fields[:ev.NFields], Timestamp: ev.Timestamp})
}

// replaySource plays back a recorded JSON lines file. Read returns io.EOF
// once the file is exhausted.
type replaySource struct {
	opt     config.SourceOpt
	in      io.ReadCloser
	scanner *bufio.Scanner
	line    int
}

func NewReplaySource(opt config.SourceOpt) Source {
	return &replaySource{opt: opt}
}

// NewReaderSource plays back records from an already opened stream.
func NewReaderSource(id string, in io.ReadCloser) Source {
	s := &replaySource{opt: config.SourceOpt{Type: config.SourceReplay, Name: id}}
	s.attach(in)
	return s
}

func (s *replaySource) attach(in io.ReadCloser) {
	s.in = in
	s.scanner = bufio.NewScanner(in)
	s.line = 0
}

func (s *replaySource) ID() string { return s.opt.Name }

func (s *replaySource) Open() error {
	if s.in != nil {
		return nil
	}
	f, err := os.Open(s.opt.Name)
	if err != nil {
		return err
	}
	s.attach(f)
	return nil
}

func (s *replaySource) Close() error {
	if s.in == nil {
		return nil
	}
	err := s.in.Close()
	s.in = nil
	return err
}

func (s *replaySource) Read() ([]sensor.RawEvent, error) {
	if s.in == nil {
		return nil, ErrNotOpen
	}
	results := make([]sensor.RawEvent, 0, MaxEventNum)
	for len(results) < MaxEventNum && s.scanner.Scan() {
		s.line++
		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		ev, err := ParseReplayLine(line)
		if err != nil {
			return results, fmt.Errorf("%s:%d: %w", s.opt.Name, s.line, err)
		}
		results = append(results, ev)
	}
	if err := s.scanner.Err(); err != nil {
		return results, err
	}
	if len(results) == 0 {
		return nil, io.EOF
	}
	return results, nil
}
