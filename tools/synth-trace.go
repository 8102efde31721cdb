//go:build ignore

// Synth-trace writes a synthetic trace stream for a map file, for trying
// the decoder without hardware.
//
//	go run tools/synth-trace.go firmware.map 1000 > capture.bin
//	cmtrace -m firmware.map -f capture.bin
package main

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/muurk/cmtrace/internal/symbols"
	"github.com/muurk/cmtrace/internal/trace"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: go run tools/synth-trace.go MAPFILE [FRAMES]")
		os.Exit(2)
	}

	frames := 100
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil || n <= 0 {
			fmt.Fprintf(os.Stderr, "invalid frame count %q\n", os.Args[2])
			os.Exit(2)
		}
		frames = n
	}

	table, err := symbols.Load(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	funcs := table.Functions()
	if len(funcs) == 0 {
		fmt.Fprintln(os.Stderr, "Error: map has no code entries")
		os.Exit(1)
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	addrIn := func(e symbols.Entry) uint32 {
		if e.Size == 0 {
			return e.Address
		}
		return e.Address + uint32(rand.IntN(int(e.Size)))&^1
	}

	var buf []byte
	prev := funcs[0]
	for i := 0; i < frames; i++ {
		buf = buf[:0]
		switch r := rand.IntN(100); {
		case r < 2:
			// line noise
			for n := rand.IntN(8) + 1; n > 0; n-- {
				buf = append(buf, byte(rand.IntN(0xc0)))
			}
		case r < 10:
			payload := make([]byte, rand.IntN(16))
			for j := range payload {
				payload[j] = byte(rand.IntN(256))
			}
			buf = trace.AppendCustomData(buf, 0x20000000+uint32(rand.IntN(0x1000)), payload)
		default:
			next := funcs[rand.IntN(len(funcs))]
			context := uint8(0)
			if rand.IntN(10) == 0 {
				context = uint8(15 + rand.IntN(8))
			}
			buf = trace.AppendFunctionTransition(buf, context, addrIn(next), addrIn(prev)|1)
			prev = next
		}
		if _, err := w.Write(buf); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}
