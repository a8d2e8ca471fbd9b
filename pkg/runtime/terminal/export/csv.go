package export

import (
	"bytes"
	"encoding/csv"
	"io"

	"github.com/gocarina/gocsv"
)

// csvEncoder writes a header derived from the record's csv tags ahead of the
// first record, then one line per record. Each line is rendered in memory
// first so a failed record never reaches the sink half written.
type csvEncoder[T any] struct {
	w      io.Writer
	buf    bytes.Buffer
	header bool
}

func renderCSV[T any](buf *bytes.Buffer, v T, withHeader bool) error {
	writer := gocsv.NewSafeCSVWriter(csv.NewWriter(buf))
	records := []T{v}

	var err error
	if withHeader {
		err = gocsv.MarshalCSV(records, writer)
	} else {
		err = gocsv.MarshalCSVWithoutHeaders(records, writer)
	}
	if err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func (e *csvEncoder[T]) Encode(v T) error {
	e.buf.Reset()
	if err := renderCSV(&e.buf, v, !e.header); err != nil {
		return err
	}
	if _, err := e.w.Write(e.buf.Bytes()); err != nil {
		return err
	}
	e.header = true
	return nil
}

func (e *csvEncoder[T]) Close() error {
	return nil
}

func writeCSVRecord[T any](w io.Writer, v T) error {
	var buf bytes.Buffer
	if err := renderCSV(&buf, v, true); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
