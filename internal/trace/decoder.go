package trace

import (
	"time"

	"github.com/muurk/cmtrace/internal/logging"
)

// Sync byte layout
const (
	SyncMask    = 0xFC
	SyncPattern = 0xC0

	FlagCustomData = 0x01
	FlagReserved   = 0x02
)

// Frame field sizes
const (
	addrSize   = 4
	lengthSize = 2

	// FunctionFrameSize is sync + context + PC + LR.
	FunctionFrameSize = 1 + 1 + addrSize + addrSize
	// CustomHeaderSize is sync + address + length.
	CustomHeaderSize = 1 + addrSize + lengthSize
)

// State is the decoder state machine position.
type State int

const (
	StateAwaitSync State = iota
	StateReadContext
	StateReadPC
	StateReadLR
	StateReadCustomAddr
	StateReadCustomLen
	StateReadCustomPayload
)

func (s State) String() string {
	switch s {
	case StateAwaitSync:
		return "await-sync"
	case StateReadContext:
		return "read-context"
	case StateReadPC:
		return "read-pc"
	case StateReadLR:
		return "read-lr"
	case StateReadCustomAddr:
		return "read-custom-addr"
	case StateReadCustomLen:
		return "read-custom-len"
	case StateReadCustomPayload:
		return "read-custom-payload"
	default:
		return "unknown"
	}
}

// Stats counts what a decoder has seen so far.
type Stats struct {
	Bytes        int64
	Transitions  int
	CustomFrames int
	Resyncs      int
	SkippedBytes int64
}

// Decoder is the byte-at-a-time frame state machine.
type Decoder struct {
	now     func() time.Time
	started time.Time

	state  State
	offset int64 // bytes consumed
	idx    int   // bytes accumulated for the current field

	context uint8
	pc      uint32
	lr      uint32

	customAddr    uint32
	customLen     uint16
	customPayload []byte

	inSync  bool
	skipped int

	frameStart int64
	stats      Stats
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithClock sets the time source used to stamp function transitions.
func WithClock(now func() time.Time) Option {
	return func(d *Decoder) {
		d.now = now
	}
}

// NewDecoder returns a decoder waiting for its first sync marker.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		now:    time.Now,
		inSync: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.started = d.now()
	return d
}

// Started returns the decoder clock reading at construction.
func (d *Decoder) Started() time.Time {
	return d.started
}

// State returns the current state machine position.
func (d *Decoder) State() State {
	return d.state
}

// Offset returns the number of bytes consumed.
func (d *Decoder) Offset() int64 {
	return d.offset
}

// Stats returns decoding counters.
func (d *Decoder) Stats() Stats {
	s := d.stats
	s.Bytes = d.offset
	return s
}

// Reset drops any partial frame and waits for the next sync marker.
func (d *Decoder) Reset() {
	d.state = StateAwaitSync
	d.idx = 0
	d.customPayload = nil
}

// Consume feeds one byte to the state machine. It returns the event that
// byte completed, or nil.
func (d *Decoder) Consume(b byte) Event {
	offset := d.offset
	d.offset++

	switch d.state {
	case StateAwaitSync:
		return d.awaitSync(b, offset)

	case StateReadContext:
		d.context = b
		d.startField(StateReadPC)
		d.pc = 0

	case StateReadPC:
		d.pc = d.pc<<8 | uint32(b)
		d.idx++
		if d.idx == addrSize {
			d.startField(StateReadLR)
			d.lr = 0
		}

	case StateReadLR:
		d.lr = d.lr<<8 | uint32(b)
		d.idx++
		if d.idx == addrSize {
			return d.finishTransition()
		}

	case StateReadCustomAddr:
		d.customAddr = d.customAddr<<8 | uint32(b)
		d.idx++
		if d.idx == addrSize {
			d.startField(StateReadCustomLen)
			d.customLen = 0
		}

	case StateReadCustomLen:
		d.customLen = d.customLen<<8 | uint16(b)
		d.idx++
		if d.idx == lengthSize {
			d.customPayload = make([]byte, 0, d.customLen)
			if d.customLen == 0 {
				return d.finishCustom()
			}
			d.startField(StateReadCustomPayload)
		}

	case StateReadCustomPayload:
		d.customPayload = append(d.customPayload, b)
		if len(d.customPayload) == int(d.customLen) {
			return d.finishCustom()
		}
	}

	return nil
}

func (d *Decoder) awaitSync(b byte, offset int64) Event {
	if b&SyncMask != SyncPattern {
		d.skipped++
		d.stats.SkippedBytes++
		if d.inSync {
			d.inSync = false
			logging.LogSyncLost(offset, b)
			return SyncLost{Offset: offset, Byte: b}
		}
		return nil
	}

	d.frameStart = offset
	if b&FlagCustomData != 0 {
		d.startField(StateReadCustomAddr)
		d.customAddr = 0
	} else {
		d.startField(StateReadContext)
	}

	if !d.inSync {
		ev := Resync{Skipped: d.skipped, Offset: offset}
		d.inSync = true
		d.skipped = 0
		d.stats.Resyncs++
		logging.LogResync(offset, ev.Skipped)
		return ev
	}
	return nil
}

func (d *Decoder) startField(s State) {
	d.state = s
	d.idx = 0
}

func (d *Decoder) finishTransition() Event {
	ev := FunctionTransition{
		Context:   d.context,
		PC:        d.pc,
		LR:        d.lr,
		Timestamp: d.now(),
	}
	d.stats.Transitions++
	if logging.DebugEnabled() {
		logging.LogFrameBytes("function", d.frameStart, AppendFunctionTransition(nil, ev.Context, ev.PC, ev.LR))
	}
	d.Reset()
	return ev
}

func (d *Decoder) finishCustom() Event {
	ev := CustomData{
		Address: d.customAddr,
		Length:  d.customLen,
		Payload: d.customPayload,
	}
	d.stats.CustomFrames++
	if logging.DebugEnabled() {
		logging.LogFrameBytes("custom", d.frameStart, AppendCustomData(nil, ev.Address, ev.Payload))
	}
	d.Reset()
	return ev
}
