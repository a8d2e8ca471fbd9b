package export

import "fmt"

// SourceError is a failure pulled from the record sequence. Index is the
// position of the failed record, which equals the number of records written.
type SourceError struct {
	Index int
	Err   error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// EncodeError is a failure to encode a record or to write it to the sink.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to write output: %v", e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}
