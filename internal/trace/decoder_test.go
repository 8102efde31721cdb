package trace

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var epoch = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

// fixedClock returns a clock that advances one millisecond per reading.
func fixedClock() func() time.Time {
	tick := 0
	return func() time.Time {
		now := epoch.Add(time.Duration(tick) * time.Millisecond)
		tick++
		return now
	}
}

func decodeAll(d *Decoder, data []byte) []Event {
	var events []Event
	for _, b := range data {
		if ev := d.Consume(b); ev != nil {
			events = append(events, ev)
		}
	}
	return events
}

func TestDecodeFunctionTransitionExample(t *testing.T) {
	d := NewDecoder(WithClock(fixedClock()))
	stream := []byte{0xC0, 0x05, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x02, 0x00}

	got := decodeAll(d, stream)
	want := []Event{
		FunctionTransition{Context: 5, PC: 0x100, LR: 0x200, Timestamp: epoch.Add(time.Millisecond)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if d.State() != StateAwaitSync {
		t.Errorf("State() = %v, want %v", d.State(), StateAwaitSync)
	}
}

func TestDecodeBigEndianFields(t *testing.T) {
	d := NewDecoder()
	got := decodeAll(d, []byte{
		0xC1, 0x20, 0x00, 0x10, 0x04, 0x00, 0x03, 0xAA, 0xBB, 0xCC,
	})
	want := []Event{CustomData{Address: 0x20001004, Length: 3, Payload: []byte{0xAA, 0xBB, 0xCC}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundTrip(t *testing.T) {
	frames := []Event{
		FunctionTransition{Context: 0, PC: 0x08000f21, LR: 0x08009a5b},
		CustomData{Address: 0x20000000, Length: 4, Payload: []byte{1, 2, 3, 4}},
		FunctionTransition{Context: 15, PC: 0xffffffff, LR: 0},
		CustomData{Address: 0xdeadbeef, Length: 0, Payload: []byte{}},
		FunctionTransition{Context: 255, PC: 0x0800cdcd, LR: 0x0801b1fd},
		CustomData{Address: 1, Length: 1, Payload: []byte{0xC0}}, // payload byte looks like a marker
	}

	var stream []byte
	for _, f := range frames {
		var err error
		stream, err = Encode(stream, f)
		if err != nil {
			t.Fatalf("Encode(%v) error = %v", f, err)
		}
	}

	d := NewDecoder()
	got := decodeAll(d, stream)

	ignoreTime := cmp.Comparer(func(a, b time.Time) bool { return true })
	if diff := cmp.Diff(frames, got, ignoreTime); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	stats := d.Stats()
	if stats.Transitions != 3 || stats.CustomFrames != 3 {
		t.Errorf("Stats() = %+v, want 3 transitions and 3 custom frames", stats)
	}
	if stats.Resyncs != 0 || stats.SkippedBytes != 0 {
		t.Errorf("Stats() = %+v, want no resyncs on a clean stream", stats)
	}
	if stats.Bytes != int64(len(stream)) {
		t.Errorf("Stats().Bytes = %d, want %d", stats.Bytes, len(stream))
	}
}

func TestResyncAfterGarbage(t *testing.T) {
	tests := []struct {
		name    string
		garbage []byte
	}{
		{"one byte", []byte{0x00}},
		{"several bytes", []byte{0x01, 0x02, 0x7F, 0xFF, 0x80}},
		{"near-miss markers", []byte{0xC4, 0xD0, 0x40, 0xE0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := append([]byte{}, tt.garbage...)
			stream = AppendFunctionTransition(stream, 3, 0x1000, 0x2000)

			d := NewDecoder()
			got := decodeAll(d, stream)

			if len(got) != 3 {
				t.Fatalf("got %d events (%v), want SyncLost, Resync, FunctionTransition", len(got), got)
			}
			if lost, ok := got[0].(SyncLost); !ok || lost.Offset != 0 || lost.Byte != tt.garbage[0] {
				t.Errorf("first event = %v, want SyncLost at offset 0", got[0])
			}
			resync, ok := got[1].(Resync)
			if !ok {
				t.Fatalf("second event = %v, want Resync", got[1])
			}
			if resync.Skipped != len(tt.garbage) {
				t.Errorf("Resync.Skipped = %d, want %d", resync.Skipped, len(tt.garbage))
			}
			if resync.Offset != int64(len(tt.garbage)) {
				t.Errorf("Resync.Offset = %d, want %d", resync.Offset, len(tt.garbage))
			}
			ft, ok := got[2].(FunctionTransition)
			if !ok || ft.Context != 3 || ft.PC != 0x1000 || ft.LR != 0x2000 {
				t.Errorf("third event = %v, want decoded transition", got[2])
			}
		})
	}
}

func TestSyncLostReportedOncePerLoss(t *testing.T) {
	var stream []byte
	stream = AppendFunctionTransition(stream, 1, 0x10, 0x20)
	stream = append(stream, 0x00, 0x00, 0x00)
	stream = AppendFunctionTransition(stream, 2, 0x30, 0x40)
	stream = append(stream, 0x11)
	stream = AppendFunctionTransition(stream, 3, 0x50, 0x60)

	d := NewDecoder()
	var lost, resyncs []Event
	var transitions int
	for _, ev := range decodeAll(d, stream) {
		switch ev.(type) {
		case SyncLost:
			lost = append(lost, ev)
		case Resync:
			resyncs = append(resyncs, ev)
		case FunctionTransition:
			transitions++
		}
	}

	if len(lost) != 2 {
		t.Errorf("got %d SyncLost events, want 2", len(lost))
	}
	want := []Event{
		Resync{Skipped: 3, Offset: int64(FunctionFrameSize + 3)},
		Resync{Skipped: 1, Offset: int64(2*FunctionFrameSize + 4)},
	}
	if diff := cmp.Diff(want, resyncs); diff != "" {
		t.Errorf("resync events mismatch (-want +got):\n%s", diff)
	}
	if transitions != 3 {
		t.Errorf("got %d transitions, want 3", transitions)
	}
	if got := d.Stats().SkippedBytes; got != 4 {
		t.Errorf("SkippedBytes = %d, want 4", got)
	}
}

func TestEmptyCustomData(t *testing.T) {
	d := NewDecoder()
	got := decodeAll(d, []byte{0xC1, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00})

	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	cd, ok := got[0].(CustomData)
	if !ok {
		t.Fatalf("event = %v, want CustomData", got[0])
	}
	if cd.Address != 0x40 || cd.Length != 0 || len(cd.Payload) != 0 {
		t.Errorf("CustomData = %+v, want empty payload at 0x40", cd)
	}
}

func TestReservedFlagIgnored(t *testing.T) {
	d := NewDecoder()
	stream := []byte{SyncPattern | FlagReserved, 0x07, 0, 0, 0, 1, 0, 0, 0, 2}
	got := decodeAll(d, stream)
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if ft, ok := got[0].(FunctionTransition); !ok || ft.Context != 7 {
		t.Errorf("event = %v, want transition with context 7", got[0])
	}
}

func TestNoEventForPartialFrame(t *testing.T) {
	d := NewDecoder()
	full := AppendCustomData(nil, 0x1000, []byte{1, 2, 3, 4, 5})
	for i := 0; i < len(full)-1; i++ {
		if ev := d.Consume(full[i]); ev != nil {
			t.Fatalf("byte %d produced %v before frame completed", i, ev)
		}
	}
	if d.State() != StateReadCustomPayload {
		t.Errorf("State() = %v, want %v", d.State(), StateReadCustomPayload)
	}

	d.Reset()
	if d.State() != StateAwaitSync {
		t.Errorf("State() after Reset = %v, want %v", d.State(), StateAwaitSync)
	}
	got := decodeAll(d, AppendFunctionTransition(nil, 1, 2, 3))
	if len(got) != 1 {
		t.Errorf("got %v after Reset, want one transition", got)
	}
}

func TestStartedUsesClock(t *testing.T) {
	d := NewDecoder(WithClock(fixedClock()))
	if !d.Started().Equal(epoch) {
		t.Errorf("Started() = %v, want %v", d.Started(), epoch)
	}
}

func TestEncodeErrors(t *testing.T) {
	if _, err := Encode(nil, SyncLost{}); err == nil {
		t.Error("expected error encoding SyncLost")
	}
	if _, err := Encode(nil, CustomData{Length: 2, Payload: []byte{1}}); err == nil {
		t.Error("expected error for mismatched custom data length")
	}
	if _, err := EncodeCustomData(0, make([]byte, 70000)); err == nil {
		t.Error("expected error for oversized payload")
	}
}

func TestStateString(t *testing.T) {
	if got := StateReadCustomLen.String(); got != "read-custom-len" {
		t.Errorf("String() = %q", got)
	}
	if got := State(99).String(); got != "unknown" {
		t.Errorf("String() = %q, want unknown", got)
	}
}
