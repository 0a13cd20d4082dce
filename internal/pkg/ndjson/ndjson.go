// Package ndjson writes and reads newline-delimited JSON streams.
package ndjson

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"iter"
	"net/http"
)

// ContentType is the media type for NDJSON bodies.
const ContentType = "application/x-ndjson"

const maxLineBytes = 1 << 20

// Writer encodes one JSON value per line and flushes after each record when
// the underlying writer supports it.
type Writer struct {
	w       io.Writer
	flusher http.Flusher
}

func NewWriter(w io.Writer) *Writer {
	f, _ := w.(http.Flusher)
	return &Writer{w: w, flusher: f}
}

// Encode writes v followed by '\n'.
func (w *Writer) Encode(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(append(b, '\n')); err != nil {
		return err
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}

// Decode yields each non-blank line of r decoded into T. Partial trailing
// lines are buffered until their newline or EOF. Iteration stops after the
// first error. It is the reading side of Writer for Go clients of a
// progress stream; the service itself only writes.
func Decode[T any](r io.Reader) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

		for sc.Scan() {
			line := bytes.TrimSpace(sc.Bytes())
			if len(line) == 0 {
				continue
			}

			var v T
			if err := json.Unmarshal(line, &v); err != nil {
				yield(v, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}

		if err := sc.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}
