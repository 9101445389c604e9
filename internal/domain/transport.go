package domain

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// ErrTransportClosed is returned by Start and Send after Close.
var ErrTransportClosed = errors.New("transport is closed")

// Transport defines the interface for message-stream MCP transports.
// Implementations deliver decoded JSON-RPC requests on Receive and
// accept responses on Send, which must be safe for concurrent use.
type Transport interface {
	// Start begins listening for incoming MCP messages.
	Start(ctx context.Context) error

	// Send transmits a JSON-RPC response to the client.
	Send(response *Response) error

	// Receive returns a channel for incoming JSON-RPC requests.
	// The channel is closed when the input stream ends or ctx is cancelled.
	Receive() <-chan *Request

	// Close gracefully shuts down the transport.
	Close() error
}

// maxLineSize bounds a single newline-delimited message.
const maxLineSize = 4 << 20

// StdioTransport implements Transport using stdin/stdout for communication.
// It reads newline-delimited JSON-RPC messages from stdin and writes
// responses to stdout, one JSON document per line.
type StdioTransport struct {
	reader  *bufio.Reader
	writer  *bufio.Writer
	reqChan chan *Request
	mu      sync.Mutex
	closed  bool
	started bool
}

// NewStdioTransport creates a StdioTransport on os.Stdin and os.Stdout.
func NewStdioTransport() *StdioTransport {
	return NewStdioTransportWithIO(os.Stdin, os.Stdout)
}

// NewStdioTransportWithIO creates a new StdioTransport with custom IO streams.
// This is primarily used for testing.
func NewStdioTransportWithIO(reader io.Reader, writer io.Writer) *StdioTransport {
	return &StdioTransport{
		reader:  bufio.NewReaderSize(reader, 64*1024),
		writer:  bufio.NewWriter(writer),
		reqChan: make(chan *Request, 16),
	}
}

// Start spawns the read loop. Calling Start twice is an error.
func (t *StdioTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransportClosed
	}
	if t.started {
		return fmt.Errorf("transport already started")
	}
	t.started = true

	go t.readLoop(ctx)
	return nil
}

func (t *StdioTransport) readLoop(ctx context.Context) {
	defer close(t.reqChan)

	for {
		if ctx.Err() != nil {
			return
		}

		line, err := t.readLine()
		if err != nil && line == "" {
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var req Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			t.sendProtocolError(nil, ParseError, "Parse error", err.Error())
			continue
		}

		if req.JSONRPC != JSONRPCVersion {
			t.sendProtocolError(req.ID, InvalidRequest, "Invalid Request", "invalid jsonrpc version")
			continue
		}

		select {
		case t.reqChan <- &req:
		case <-ctx.Done():
			return
		}
	}
}

// readLine returns the next line. A final line without trailing newline is
// returned together with io.EOF; oversize lines are discarded with an error reply.
func (t *StdioTransport) readLine() (string, error) {
	var sb strings.Builder
	for {
		chunk, isPrefix, err := t.reader.ReadLine()
		if err != nil {
			return sb.String(), err
		}
		if sb.Len()+len(chunk) > maxLineSize {
			t.discardRest(isPrefix)
			t.sendProtocolError(nil, InvalidRequest, "Invalid Request", "message too large")
			sb.Reset()
			continue
		}
		sb.Write(chunk)
		if !isPrefix {
			return sb.String(), nil
		}
	}
}

func (t *StdioTransport) discardRest(isPrefix bool) {
	for isPrefix {
		var err error
		_, isPrefix, err = t.reader.ReadLine()
		if err != nil {
			return
		}
	}
}

// Send writes a JSON-RPC response as a single line and flushes it.
func (t *StdioTransport) Send(response *Response) error {
	if response.JSONRPC == "" {
		response.JSONRPC = JSONRPCVersion
	}

	// encoding/json escapes control characters, so the output has no raw newlines.
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTransportClosed
	}

	if _, err := t.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}

	if err := t.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush response: %w", err)
	}

	return nil
}

// Receive returns the channel for incoming JSON-RPC requests.
func (t *StdioTransport) Receive() <-chan *Request {
	return t.reqChan
}

// Close marks the transport closed. The request channel is closed by the read loop.
func (t *StdioTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	return nil
}

func (t *StdioTransport) sendProtocolError(id interface{}, code int, message string, data interface{}) {
	// Nothing else can be done with a write failure here.
	_ = t.Send(NewErrorMessage(id, code, message, data))
}
