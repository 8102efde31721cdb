package trace

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/muurk/cmtrace/internal/logging"
)

// readChunkSize is the largest single read from the input. Reads from a
// live source return as soon as any bytes are available.
const readChunkSize = 4096

type chunk struct {
	data []byte
	err  error
}

// Stream reads r to the end, feeding every byte to d in order and calling
// fn for each event produced. It returns nil at end of input, ctx.Err()
// when ctx is cancelled, or the first error from fn or from the reader.
//
// Reads happen on a helper goroutine so that a read blocked on an idle
// live source does not prevent cancellation. Decoder state and fn are only
// touched from the calling goroutine.
func Stream(ctx context.Context, r io.Reader, d *Decoder, fn func(Event) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks := make(chan chunk)
	free := make(chan []byte, 1)
	free <- make([]byte, readChunkSize)

	go pump(ctx, r, chunks, free)

	for {
		var c chunk
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c = <-chunks:
		}

		if len(c.data) > 0 && logging.DebugEnabled() {
			logging.LogRawBytes("Trace chunk read", c.data)
		}

		for _, b := range c.data {
			ev := d.Consume(b)
			if ev == nil {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ev); err != nil {
				return err
			}
		}

		if c.err != nil {
			if errors.Is(c.err, io.EOF) {
				return nil
			}
			logging.Error("Trace read failed", zap.Int64("offset", d.Offset()), zap.Error(c.err))
			return c.err
		}

		free <- c.data[:cap(c.data)]
	}
}

// pump performs the reads. Buffer ownership alternates between pump and
// Stream through the free channel. It exits on the first read error or
// when ctx is done; a read blocked in r when ctx is cancelled is abandoned.
func pump(ctx context.Context, r io.Reader, out chan<- chunk, free <-chan []byte) {
	for {
		var buf []byte
		select {
		case <-ctx.Done():
			return
		case buf = <-free:
		}

		n, err := r.Read(buf)

		select {
		case out <- chunk{data: buf[:n], err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}
