package export

import (
	"errors"
	"iter"
)

type encoder[T any] interface {
	Encode(v T) error
	Close() error
}

func newEncoder[T any](sink Sink, format Format) encoder[T] {
	if format == FormatCSV {
		return &csvEncoder[T]{w: sink}
	}
	return &jsonEncoder[T]{w: sink}
}

// Write streams records from seq into sink, pulling one record at a time.
// It stops at the first failure from seq, flushes the records already
// written and returns a *SourceError, joined with any flush failure; the output is left without a closing
// bracket. It returns the number of records written.
func Write[T any](sink Sink, format Format, seq iter.Seq2[T, error]) (int, error) {
	enc := newEncoder[T](sink, format)

	written := 0
	for record, err := range seq {
		if err != nil {
			return written, flushAfter(sink, &SourceError{Index: written, Err: err})
		}
		if err := enc.Encode(record); err != nil {
			return written, flushAfter(sink, &EncodeError{Err: err})
		}
		written++
	}

	if err := enc.Close(); err != nil {
		return written, &EncodeError{Err: err}
	}
	if err := sink.Flush(); err != nil {
		return written, &EncodeError{Err: err}
	}
	return written, nil
}

// flushAfter pushes out the records already written before cause is
// returned. A failing flush is reported together with cause.
func flushAfter(sink Sink, cause error) error {
	if err := sink.Flush(); err != nil {
		return errors.Join(cause, &EncodeError{Err: err})
	}
	return cause
}

// WriteOne writes a single aggregate record: a JSON object, or a CSV header
// and one line.
func WriteOne[T any](sink Sink, format Format, v T) error {
	var err error
	if format == FormatCSV {
		err = writeCSVRecord(sink, v)
	} else {
		err = writeJSONObject(sink, v)
	}
	if err != nil {
		return &EncodeError{Err: err}
	}
	if err := sink.Flush(); err != nil {
		return &EncodeError{Err: err}
	}
	return nil
}
