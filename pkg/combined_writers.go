package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter fans out every Write to all writers, e.g. stdout plus
// the rotated log file.
type CombinedWriter struct {
	Writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{Writers: writers}
}

func (cw CombinedWriter) Write(p []byte) (n int, err error) {
	n = 0
	for _, w := range cw.Writers {
		written, werr := w.Write(p)
		if werr != nil {
			err = multierr.Combine(err, werr)
			continue
		}
		n += written
	}
	return n, err
}
