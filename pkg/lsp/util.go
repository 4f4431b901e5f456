package lsp

import (
	"bufio"
	"io"
	"sync"
)

// ReadWriteCloser combines an io.ReadCloser and io.WriteCloser into a single
// io.ReadWriteCloser, flushing after every write so LSP frames leave
// immediately.
type ReadWriteCloser struct {
	reader *bufio.Reader
	writer *bufio.Writer
	closer multiCloser

	// writeMu serializes writers only. Read is unguarded (jsonrpc2's read
	// loop is the sole reader), and Close must not take any lock so that
	// closing the underlying pipes can unblock a parked Read.
	writeMu sync.Mutex
}

type multiCloser struct {
	closers []io.Closer
}

func (mc multiCloser) Close() error {
	var firstErr error
	for _, c := range mc.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewReadWriteCloser creates a new ReadWriteCloser from separate read and write closers
func NewReadWriteCloser(r io.ReadCloser, w io.WriteCloser) *ReadWriteCloser {
	return &ReadWriteCloser{
		reader: bufio.NewReader(r),
		writer: bufio.NewWriter(w),
		closer: multiCloser{closers: []io.Closer{r, w}},
	}
}

func (rwc *ReadWriteCloser) Read(p []byte) (int, error) {
	return rwc.reader.Read(p)
}

func (rwc *ReadWriteCloser) Write(p []byte) (int, error) {
	rwc.writeMu.Lock()
	defer rwc.writeMu.Unlock()
	n, err := rwc.writer.Write(p)
	if err != nil {
		return n, err
	}
	if err := rwc.writer.Flush(); err != nil {
		return n, err
	}
	return n, nil
}

func (rwc *ReadWriteCloser) Close() error {
	return rwc.closer.Close()
}
