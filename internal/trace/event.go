package trace

import (
	"fmt"
	"time"
)

// Event is a decoded stream event. The set of implementations is closed:
// FunctionTransition, CustomData, SyncLost and Resync.
type Event interface {
	fmt.Stringer
	isEvent()
}

// FunctionTransition reports entry into a function.
type FunctionTransition struct {
	Context   uint8     // interrupt/exception number active at the transition
	PC        uint32    // current program counter
	LR        uint32    // link register, the caller's return address
	Timestamp time.Time // decoder clock when the frame completed
}

// CustomData is a raw memory dump sent by the firmware.
// len(Payload) always equals Length.
type CustomData struct {
	Address uint32
	Length  uint16
	Payload []byte
}

// SyncLost is reported for the first non-marker byte after a good frame.
type SyncLost struct {
	Offset int64 // stream offset of the offending byte
	Byte   byte
}

// Resync is reported when a sync marker is found after skipped bytes.
type Resync struct {
	Skipped int   // bytes dropped since sync was lost
	Offset  int64 // stream offset of the new marker
}

func (FunctionTransition) isEvent() {}
func (CustomData) isEvent()         {}
func (SyncLost) isEvent()           {}
func (Resync) isEvent()             {}

func (e FunctionTransition) String() string {
	return fmt.Sprintf("FunctionTransition{context=%d, pc=0x%08x, lr=0x%08x}", e.Context, e.PC, e.LR)
}

func (e CustomData) String() string {
	return fmt.Sprintf("CustomData{address=0x%08x, length=%d}", e.Address, e.Length)
}

func (e SyncLost) String() string {
	return fmt.Sprintf("SyncLost{offset=%d, byte=0x%02x}", e.Offset, e.Byte)
}

func (e Resync) String() string {
	return fmt.Sprintf("Resync{skipped=%d, offset=%d}", e.Skipped, e.Offset)
}
