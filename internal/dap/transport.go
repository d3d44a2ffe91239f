// Package dap implements the IDE-facing side of the bridge: a Debug Adapter
// Protocol server speaking over stdio.
//
// This package provides:
//   - Transport: Low-level message framing and sequence numbering
//   - Session: Request dispatch into the adapter core
//
// The protocol is described at: https://microsoft.github.io/debug-adapter-protocol/
package dap

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/google/go-dap"
)

// Transport frames DAP messages over a byte stream. Writes are serialized so
// events from runtime goroutines interleave safely with responses.
type Transport struct {
	reader *bufio.Reader
	writer *bufio.Writer
	mu     sync.Mutex
	seq    int
}

// NewStdioTransport creates a transport over the given streams, typically
// os.Stdin and os.Stdout.
func NewStdioTransport(r io.Reader, w io.Writer) *Transport {
	return &Transport{
		reader: bufio.NewReader(r),
		writer: bufio.NewWriter(w),
		seq:    1,
	}
}

// NextSeq returns the next outgoing sequence number.
func (t *Transport) NextSeq() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	seq := t.seq
	t.seq++
	return seq
}

// ReadBaseMessage reads one raw DAP message body. Raw bytes are returned so
// custom requests outside the standard schema can still be decoded.
func (t *Transport) ReadBaseMessage() ([]byte, error) {
	data, err := dap.ReadBaseMessage(t.reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read DAP message: %w", err)
	}
	return data, nil
}

// Send writes a DAP message and flushes it.
func (t *Transport) Send(msg dap.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := dap.WriteProtocolMessage(t.writer, msg); err != nil {
		return fmt.Errorf("failed to write DAP message: %w", err)
	}

	if err := t.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush DAP message: %w", err)
	}

	return nil
}
