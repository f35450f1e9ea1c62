package protocol

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/wagiedev/mcphost-go/internal/errors"
)

// maxScanTokenSize bounds a single command line. Tool arguments and results
// can be large, so this is well above bufio's 64KB default.
const maxScanTokenSize = 1024 * 1024 // 1MB

// Transport is the message source and sink a Dispatcher serves.
type Transport interface {
	ReadMessages(ctx context.Context) (<-chan map[string]any, <-chan error)
	SendMessage(ctx context.Context, data []byte) error
}

// Stream is a Transport over a pair of byte streams, typically stdin and
// stdout.
type Stream struct {
	log *slog.Logger
	r   io.Reader

	mu sync.Mutex
	w  io.Writer
}

// Compile-time verification that Stream implements Transport.
var _ Transport = (*Stream)(nil)

// NewStream creates a Stream reading from r and writing to w.
func NewStream(log *slog.Logger, r io.Reader, w io.Writer) *Stream {
	return &Stream{
		log: log.With("component", "stream"),
		r:   r,
		w:   w,
	}
}

// ReadMessages starts a goroutine decoding one JSON object per line.
//
// Lines that fail to decode are reported as *errors.MessageDecodeError on
// the error channel and reading continues. Blank lines are skipped. Both
// channels are closed when the reader reaches EOF, fails, or ctx is done.
func (s *Stream) ReadMessages(ctx context.Context) (<-chan map[string]any, <-chan error) {
	messages := make(chan map[string]any)
	errs := make(chan error, 1)

	go func() {
		defer close(messages)
		defer close(errs)
		defer s.log.Debug("ReadMessages goroutine stopped")

		scanner := bufio.NewScanner(s.r)
		buf := make([]byte, 64*1024)
		scanner.Buffer(buf, maxScanTokenSize)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			msg, err := decodeLine(line)
			if err != nil {
				s.log.Debug("Failed to unmarshal JSON message", "error", err, "message", string(line))

				decodeErr := &errors.MessageDecodeError{RawData: string(line), Err: err}

				select {
				case errs <- decodeErr:
				case <-ctx.Done():
					return
				}

				continue
			}

			select {
			case messages <- msg:
			case <-ctx.Done():
				s.log.Debug("Context cancelled during message send", "error", ctx.Err())

				return
			}
		}

		if err := scanner.Err(); err != nil {
			s.log.Error("Scanner error while reading commands", "error", err)

			select {
			case errs <- fmt.Errorf("scanner error: %w", err):
			case <-ctx.Done():
			}
		}
	}()

	return messages, errs
}

// decodeLine decodes one JSON object, keeping numbers as json.Number so
// integers beyond float64 precision reach tool servers unchanged.
func decodeLine(line []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var msg map[string]any
	if err := dec.Decode(&msg); err != nil {
		return nil, err
	}

	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON object")
	}

	return msg, nil
}

// SendMessage writes data followed by a newline. Concurrent calls are
// serialized so lines never interleave.
func (s *Stream) SendMessage(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(data) == 0 || data[len(data)-1] != '\n' {
		line := make([]byte, len(data)+1)
		copy(line, data)
		line[len(data)] = '\n'
		data = line
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	return nil
}
