// Package trace decodes the function trace stream emitted by instrumented
// Cortex-M firmware.
//
// # Wire Format
//
// The stream has no framing beyond a one-byte sync marker. Every frame
// starts with a sync byte whose top six bits are 110000 (b&0xFC == 0xC0).
// Bit 0 of the sync byte selects the frame type; bit 1 is reserved.
//
// Function transition (bit 0 clear):
//
//	+------+---------+----------------+----------------+
//	| 0xC0 | context | PC (4 bytes BE)| LR (4 bytes BE)|
//	+------+---------+----------------+----------------+
//
// Custom data (bit 0 set):
//
//	+------+---------------------+-------------------+-----------------+
//	| 0xC1 | address (4 bytes BE)| length (2 bytes BE)| payload[length] |
//	+------+---------------------+-------------------+-----------------+
//
// Older firmware only emits function transitions; those streams decode as
// the degenerate case with the custom data bit always clear.
//
// # Resynchronization
//
// A byte that should be a sync marker but is not is skipped. The first
// skipped byte after a good frame produces a SyncLost event; when a marker
// is found again a Resync event reports how many bytes were dropped. Every
// skipped byte is tested as a potential marker, so the decoder cannot get
// stuck on a corrupted stream.
//
// # Usage
//
//	dec := trace.NewDecoder()
//	err := trace.Stream(ctx, os.Stdin, dec, func(ev trace.Event) error {
//	    return renderer.Render(ev)
//	})
//
// A Decoder is not safe for concurrent use. Stream runs the input read on
// a helper goroutine but calls Consume and the handler from the caller's
// goroutine only.
package trace
