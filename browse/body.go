package browse

import (
	"fmt"
	"io"
)

// readChunkSize is the buffer size for one body read.
const readChunkSize = 32 * 1024

// readBounded consumes r as a sequence of chunks, enforcing a byte ceiling.
// The transfer is aborted the moment the running total plus the next chunk
// would exceed maxBytes; the oversized payload is never buffered first.
func readBounded(r io.Reader, maxBytes int64) ([]byte, error) {
	var (
		buf   []byte
		total int64
		chunk = make([]byte, readChunkSize)
	)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if total+int64(n) > maxBytes {
				return nil, &BodyTooLargeError{Limit: maxBytes}
			}
			total += int64(n)
			buf = append(buf, chunk[:n]...)
		}
		if err == io.EOF {
			return buf, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
	}
}
