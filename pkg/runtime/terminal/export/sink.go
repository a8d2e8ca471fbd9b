package export

import (
	"bufio"
	"io"
)

// Sink is a destination that accepts bytes and can be flushed.
type Sink interface {
	io.Writer
	Flush() error
}

// NewSink returns w itself when it can already flush, otherwise a buffered wrapper.
func NewSink(w io.Writer) Sink {
	if s, ok := w.(Sink); ok {
		return s
	}
	return bufio.NewWriter(w)
}
