package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"iter"
)

// DefaultChunkSize is the read size used when pulling from upstream.
const DefaultChunkSize = 64 * 1024

// Splitter reassembles an arbitrary chunked byte stream into newline
// delimited lines and decodes each one as JSON.
type Splitter[T any] struct {
	br   *bufio.Reader
	line int
}

// NewSplitter reads from r with the given chunk size; non-positive sizes use
// DefaultChunkSize.
func NewSplitter[T any](r io.Reader, chunkSize int) *Splitter[T] {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Splitter[T]{br: bufio.NewReaderSize(r, chunkSize)}
}

// Records yields one decoded value per line. Empty and whitespace-only lines
// are skipped rather than parsed, so blank separators and trailing newlines
// never fail a run; line numbers in errors still count them. A trailing line
// without a newline is still decoded. Iteration stops at the first error:
// *ParseError for invalid JSON, or the upstream read error as returned.
func (s *Splitter[T]) Records() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		for {
			raw, err := s.next()
			if raw != nil {
				var v T
				if perr := json.Unmarshal(raw, &v); perr != nil {
					yield(zero, &ParseError{Line: s.line, Err: perr})
					return
				}
				if !yield(v, nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(zero, err)
				return
			}
		}
	}
}

// next returns the next non-blank line without its terminator, buffering
// across as many upstream chunks as the line needs.
func (s *Splitter[T]) next() ([]byte, error) {
	for {
		raw, err := s.br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if len(raw) > 0 {
			s.line++
		}
		raw = bytes.TrimRight(raw, "\r\n")
		if len(bytes.TrimSpace(raw)) > 0 {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			return raw, err
		}
		if err != nil {
			return nil, err
		}
	}
}
