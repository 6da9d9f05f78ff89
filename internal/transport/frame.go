package transport

import (
	"encoding/binary"

	log "github.com/sirupsen/logrus"

	"sensorhub/internal/sensor"
)

const (
	Sync1   = 0x5A // hub packet sync code 1
	Sync2   = 0xA5 // hub packet sync code 2
	HdrSize = 0x06 // sync(2) + len(2) + crc(2)

	MaxRawLen = 64 // max payload length

	payloadFixed = 2 + 8 // kind, count, timestamp
)

// frameDecoder reassembles hub packets one byte at a time.
// It is not safe for concurrent use.
type frameDecoder struct {
	nByte int
	len   int
	buf   [HdrSize + MaxRawLen]uint8
}

// input consumes one byte. It returns 1 and the decoded record when a packet
// completes, -1 when a packet is dropped and 0 otherwise.
func (d *frameDecoder) input(data uint8) (sensor.RawEvent, int) {
	if d.nByte == 0 {
		if !d.sync(data) {
			return sensor.RawEvent{}, 0
		}
		d.nByte = 2
		return sensor.RawEvent{}, 0
	}

	d.buf[d.nByte] = data
	d.nByte++

	if d.nByte == 4 {
		if d.len = int(binary.LittleEndian.Uint16(d.buf[2:])); d.len > MaxRawLen || d.len < payloadFixed {
			d.reset()
			return sensor.RawEvent{}, -1
		}
	}

	if d.nByte < HdrSize || d.nByte < d.len+HdrSize {
		return sensor.RawEvent{}, 0
	}

	ev, rc := d.decode(d.buf[:d.nByte])
	d.reset()
	return ev, rc
}

func (d *frameDecoder) reset() {
	d.nByte = 0
	d.buf[0], d.buf[1] = 0, 0
}

func (d *frameDecoder) sync(data uint8) bool {
	d.buf[0] = d.buf[1]
	d.buf[1] = data
	return d.buf[0] == Sync1 && d.buf[1] == Sync2
}

func (d *frameDecoder) decode(frame []uint8) (sensor.RawEvent, int) {
	var crc uint16 = 0
	crc16Update(&crc, frame[:4])
	crc16Update(&crc, frame[HdrSize:])

	if want := binary.LittleEndian.Uint16(frame[4:6]); crc != want {
		log.Debugf("hub checksum error: frame:0x%X calculate:0x%X, len:%d", want, crc, len(frame)-HdrSize)
		return sensor.RawEvent{}, -1
	}

	p := frame[HdrSize:]
	n := int(p[1])
	if n > sensor.MaxFields || len(p) != payloadFixed+4*n {
		log.Debugf("hub packet field count %d does not match length %d", n, len(p))
		return sensor.RawEvent{}, -1
	}
	ev := sensor.RawEvent{Kind: sensor.Kind(p[0]), NFields: n}
	for i := 0; i < n; i++ {
		ev.Fields[i] = int32(binary.LittleEndian.Uint32(p[2+4*i:]))
	}
	ev.Timestamp = int64(binary.LittleEndian.Uint64(p[2+4*n:]))
	return ev, 1
}

// EncodeFrame builds the wire packet of ev.
func EncodeFrame(ev sensor.RawEvent) []byte {
	n := ev.NFields
	size := payloadFixed + 4*n
	frame := make([]byte, HdrSize+size)
	frame[0], frame[1] = Sync1, Sync2
	binary.LittleEndian.PutUint16(frame[2:], uint16(size))
	p := frame[HdrSize:]
	p[0] = uint8(ev.Kind)
	p[1] = uint8(n)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(p[2+4*i:], uint32(ev.Fields[i]))
	}
	binary.LittleEndian.PutUint64(p[2+4*n:], uint64(ev.Timestamp))

	var crc uint16 = 0
	crc16Update(&crc, frame[:4])
	crc16Update(&crc, p)
	binary.LittleEndian.PutUint16(frame[4:], crc)
	return frame
}

// crc16Update runs CRC-16/CCITT (poly 0x1021) over src.
func crc16Update(current *uint16, src []uint8) {
	crc := *current
	for _, b := range src {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			temp := crc << 1
			if (crc & 0x8000) != 0 {
				temp ^= 0x1021
			}
			crc = temp
		}
	}
	*current = crc
}
