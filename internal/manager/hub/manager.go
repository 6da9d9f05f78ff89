package hub

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"sensorhub/internal/manager"
	"sensorhub/internal/sensor"
	"sensorhub/internal/transport"
)

const BufLen = 1024

// maxConsecutiveErrors marks the manager faulted so the daemon reopens the source.
const maxConsecutiveErrors = 10

// DropTransport counts source read failures next to the decode error kinds.
const DropTransport = "transport"

// DropFrame counts packets the source discarded before decoding.
const DropFrame = "frame"

type hubManager struct {
	src     transport.Source
	decoder sensor.Decoder
	reg     *sensor.Registry

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	lock   sync.Mutex

	started         bool
	manuallyStopped atomic.Bool
	faulted         atomic.Bool

	data       sync.RWMutex
	ringBuffer []sensor.Reading
	counter    int64
	latest     map[sensor.Kind]sensor.Reading
	records    uint64
	decoded    uint64
	dropped    map[string]uint64
	lastSteps  float64
	haveSteps  bool
}

func NewManager(src transport.Source, decoder sensor.Decoder, reg *sensor.Registry) manager.Manager {
	m := &hubManager{
		src:     src,
		decoder: decoder,
		reg:     reg,
	}
	m.resetData()
	return m
}

func (m *hubManager) resetData() {
	m.data.Lock()
	defer m.data.Unlock()
	m.ringBuffer = make([]sensor.Reading, BufLen)
	m.counter = 0
	m.latest = make(map[sensor.Kind]sensor.Reading, m.reg.Len())
	m.records = 0
	m.decoded = 0
	m.dropped = make(map[string]uint64)
	m.haveSteps = false
}

func (m *hubManager) Running() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.started && !m.faulted.Load()
}

func (m *hubManager) Faulted() bool {
	return m.faulted.Load()
}

func (m *hubManager) ManuallyStopped() bool {
	return m.manuallyStopped.Load()
}

// ingest decodes one batch. Failed records are dropped and counted by error kind.
func (m *hubManager) ingest(batch []sensor.RawEvent) {
	if len(batch) == 0 {
		return
	}
	m.data.Lock()
	defer m.data.Unlock()
	for _, ev := range batch {
		m.records++
		r, err := m.decoder.Decode(ev)
		if err != nil {
			m.dropped[sensor.Code(err)]++
			log.Debugf("drop %s record at %d: %v", ev.Kind, ev.Timestamp, err)
			continue
		}
		if r.Kind == sensor.StepCounter {
			if m.haveSteps && r.Scalar < m.lastSteps {
				log.Warnf("step counter went backwards: %v -> %v", m.lastSteps, r.Scalar)
			}
			m.lastSteps, m.haveSteps = r.Scalar, true
		}
		m.decoded++
		m.latest[r.Kind] = r
		m.ringBuffer[m.counter%BufLen] = r
		m.counter++
	}
}

func (m *hubManager) updateAll() {
	defer m.wg.Done()

	// diagnose variables
	diagLastCheck := time.Now()
	diagPCounter := 0
	failures := 0

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		res, err := m.src.Read()
		m.ingest(res)
		diagPCounter += len(res)
		if err != nil {
			if errors.Is(err, io.EOF) {
				log.Infof("source %s reached EOF", m.src.ID())
				m.faulted.Store(true)
				return
			}
			log.Debugf("source %s error: %v", m.src.ID(), err)
			m.data.Lock()
			m.dropped[DropTransport]++
			m.data.Unlock()
			failures++
			if failures >= maxConsecutiveErrors {
				log.Warnf("source %s failed %d times in a row", m.src.ID(), failures)
				m.faulted.Store(true)
				return
			}
			continue
		}
		failures = 0

		if d := time.Since(diagLastCheck).Seconds(); d >= 10 {
			log.Debugf("updateAll pps: %3.1f", float64(diagPCounter)/d)
			diagLastCheck = time.Now()
			diagPCounter = 0
		}
	}
}

// Start opens the source and launches the consumer loop
func (m *hubManager) Start() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if !m.started {
		if err := m.src.Open(); err != nil {
			return err
		}
		m.ctx, m.cancel = context.WithCancel(context.Background())
		m.faulted.Store(false)
		m.started = true
		m.wg.Add(1)
		go m.updateAll()
		log.Infof("manager started on %s", m.src.ID())
	}
	m.manuallyStopped.Store(false)
	return nil
}

func (m *hubManager) stop() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if !m.started {
		return nil
	}
	m.cancel()
	m.wg.Wait()
	m.started = false
	log.Infof("manager stopped")
	return m.src.Close()
}

// Stop stops the consumer loop and closes the source. Readings stay
// available until the next Start.
func (m *hubManager) Stop() error {
	m.manuallyStopped.Store(true)
	return m.stop()
}

// Restart reopens the source after a fault
func (m *hubManager) Restart() error {
	if err := m.stop(); err != nil {
		log.Warnln(err)
	}
	m.resetData()
	return m.Start()
}

// Read returns the readings after cursor and the new cursor. A negative
// cursor returns the most recent reading only.
func (m *hubManager) Read(cursor int64) (int64, []sensor.Reading, error) {
	m.data.RLock()
	defer m.data.RUnlock()

	if cursor < 0 {
		cursor = m.counter - 1
		if cursor < 0 {
			return cursor, nil, manager.ErrNotReady
		}
		return cursor, []sensor.Reading{m.ringBuffer[cursor%BufLen]}, nil
	}

	if cursor+1 >= m.counter {
		return cursor, nil, manager.ErrNoNewData
	}
	start := cursor + 1
	if m.counter-start > BufLen {
		start = m.counter - BufLen
	}
	res := make([]sensor.Reading, 0, m.counter-start)
	for i := start; i < m.counter; i++ {
		res = append(res, m.ringBuffer[i%BufLen])
	}
	return m.counter - 1, res, nil
}

func (m *hubManager) Latest(k sensor.Kind) (sensor.Reading, bool) {
	m.data.RLock()
	defer m.data.RUnlock()
	r, ok := m.latest[k]
	return r, ok
}

// LatestAll returns the latest reading of each sensor in handle order.
func (m *hubManager) LatestAll() []sensor.Reading {
	m.data.RLock()
	defer m.data.RUnlock()
	res := make([]sensor.Reading, 0, len(m.latest))
	for _, k := range m.reg.Kinds() {
		if r, ok := m.latest[k]; ok {
			res = append(res, r)
		}
	}
	return res
}

func (m *hubManager) Stats() manager.Stats {
	running := m.Running()
	m.data.RLock()
	defer m.data.RUnlock()
	dropped := make(map[string]uint64, len(m.dropped))
	for k, v := range m.dropped {
		dropped[k] = v
	}
	if fc, ok := m.src.(transport.FrameCounter); ok {
		if n := fc.FrameErrors(); n > 0 {
			dropped[DropFrame] = n
		}
	}
	return manager.Stats{
		Source:  m.src.ID(),
		Running: running,
		Faulted: m.faulted.Load(),
		Records: m.records,
		Decoded: m.decoded,
		Dropped: dropped,
		Cursor:  m.counter - 1,
	}
}

// Daemon restarts the manager whenever it faults, until ctx is done.
func Daemon(ctx context.Context, m manager.Manager, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if m.Faulted() && !m.ManuallyStopped() {
			log.Infoln("status is faulted, restarting")
			if err := m.Restart(); err != nil {
				log.Errorln(err)
			}
		} else if !m.Running() && !m.ManuallyStopped() {
			if err := m.Start(); err != nil {
				log.Errorln(err)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
