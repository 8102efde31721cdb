package trace

import (
	"encoding/binary"
	"fmt"
	"math"
)

// AppendFunctionTransition appends an encoded function transition frame.
func AppendFunctionTransition(dst []byte, context uint8, pc, lr uint32) []byte {
	dst = append(dst, SyncPattern, context)
	dst = binary.BigEndian.AppendUint32(dst, pc)
	dst = binary.BigEndian.AppendUint32(dst, lr)
	return dst
}

// AppendCustomData appends an encoded custom data frame. It panics if the
// payload does not fit the 16-bit length field; use EncodeCustomData to get
// an error instead.
func AppendCustomData(dst []byte, addr uint32, payload []byte) []byte {
	if len(payload) > math.MaxUint16 {
		panic(fmt.Sprintf("trace: custom payload of %d bytes exceeds %d", len(payload), math.MaxUint16))
	}
	dst = append(dst, SyncPattern|FlagCustomData)
	dst = binary.BigEndian.AppendUint32(dst, addr)
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(payload)))
	return append(dst, payload...)
}

// EncodeCustomData encodes a custom data frame.
func EncodeCustomData(addr uint32, payload []byte) ([]byte, error) {
	if len(payload) > math.MaxUint16 {
		return nil, fmt.Errorf("custom payload of %d bytes exceeds maximum of %d", len(payload), math.MaxUint16)
	}
	return AppendCustomData(make([]byte, 0, CustomHeaderSize+len(payload)), addr, payload), nil
}

// Encode appends the wire form of a FunctionTransition or CustomData event.
// Diagnostic events have no wire form and return an error.
func Encode(dst []byte, ev Event) ([]byte, error) {
	switch e := ev.(type) {
	case FunctionTransition:
		return AppendFunctionTransition(dst, e.Context, e.PC, e.LR), nil
	case CustomData:
		if int(e.Length) != len(e.Payload) {
			return nil, fmt.Errorf("custom data length %d does not match payload size %d", e.Length, len(e.Payload))
		}
		return AppendCustomData(dst, e.Address, e.Payload), nil
	default:
		return nil, fmt.Errorf("event %v has no wire encoding", ev)
	}
}
