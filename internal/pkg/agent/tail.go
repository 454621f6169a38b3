package agent

// stderrTailLimit bounds how much agent stderr is kept for failure reports.
const stderrTailLimit = 4 << 10

// tailBuffer is an io.Writer keeping only the last limit bytes written to it.
type tailBuffer struct {
	limit     int
	data      []byte
	truncated bool
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit, data: make([]byte, 0, limit)}
}

func (buffer *tailBuffer) Write(p []byte) (int, error) {
	written := len(p)

	if len(p) >= buffer.limit {
		buffer.truncated = buffer.truncated || len(p) > buffer.limit || len(buffer.data) > 0
		buffer.data = append(buffer.data[:0], p[len(p)-buffer.limit:]...)
		return written, nil
	}

	if overflow := len(buffer.data) + len(p) - buffer.limit; overflow > 0 {
		buffer.data = append(buffer.data[:0], buffer.data[overflow:]...)
		buffer.truncated = true
	}

	buffer.data = append(buffer.data, p...)

	return written, nil
}

// String returns the kept bytes, marked with a leading ellipsis when earlier output was dropped.
func (buffer *tailBuffer) String() string {
	if buffer.truncated {
		return "..." + string(buffer.data)
	}

	return string(buffer.data)
}
