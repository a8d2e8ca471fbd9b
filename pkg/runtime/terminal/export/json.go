package export

import (
	"bytes"
	"encoding/json"
	"io"
)

const jsonIndent = "  "

// jsonEncoder writes records as the elements of one pretty-printed array.
// The opening bracket goes out with the first element.
type jsonEncoder[T any] struct {
	w     io.Writer
	buf   bytes.Buffer
	count int
}

func marshalIndent(buf *bytes.Buffer, v any, prefix string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, jsonIndent)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode always terminates with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

func (e *jsonEncoder[T]) Encode(v T) error {
	e.buf.Reset()
	if e.count == 0 {
		e.buf.WriteString("[\n" + jsonIndent)
	} else {
		e.buf.WriteString(",\n" + jsonIndent)
	}
	if err := marshalIndent(&e.buf, v, jsonIndent); err != nil {
		return err
	}
	if _, err := e.w.Write(e.buf.Bytes()); err != nil {
		return err
	}
	e.count++
	return nil
}

func (e *jsonEncoder[T]) Close() error {
	closing := "\n]\n"
	if e.count == 0 {
		closing = "[]\n"
	}
	_, err := io.WriteString(e.w, closing)
	return err
}

func writeJSONObject(w io.Writer, v any) error {
	var buf bytes.Buffer
	if err := marshalIndent(&buf, v, ""); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := w.Write(buf.Bytes())
	return err
}
