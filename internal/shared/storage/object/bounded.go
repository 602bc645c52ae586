package object

import "io"

// BoundedReadCloser yields exactly the window [offset, offset+length) of an inner
// reader that is already positioned at offset. Reads past the window return io.EOF
// regardless of what the inner reader would still produce.
type BoundedReadCloser struct {
	inner     io.ReadCloser
	offset    int64
	remaining int64
}

// NewBoundedReadCloser wraps inner, which must already be positioned at offset.
func NewBoundedReadCloser(inner io.ReadCloser, offset, length int64) *BoundedReadCloser {
	if length < 0 {
		length = 0
	}
	return &BoundedReadCloser{inner: inner, offset: offset, remaining: length}
}

// Offset reports where the window starts in the underlying object.
func (b *BoundedReadCloser) Offset() int64 { return b.offset }

// Remaining reports how many bytes the window can still yield.
func (b *BoundedReadCloser) Remaining() int64 { return b.remaining }

func (b *BoundedReadCloser) Read(p []byte) (int, error) {
	if b.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > b.remaining {
		p = p[:b.remaining]
	}
	n, err := b.inner.Read(p)
	b.remaining -= int64(n)
	if err == io.EOF && b.remaining > 0 {
		return n, io.ErrUnexpectedEOF
	}
	return n, err
}

func (b *BoundedReadCloser) Close() error {
	return b.inner.Close()
}
