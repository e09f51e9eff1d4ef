package forms

import (
	"bytes"
	"io"
)

// Upload carries one submitted file: its client-side name, declared content
// type, and content. Content is buffered so save-time processing can re-read
// it after validation.
type Upload struct {
	Name        string
	ContentType string
	Content     []byte
}

// Reader returns a fresh reader over the uploaded content.
func (u *Upload) Reader() io.Reader {
	return bytes.NewReader(u.Content)
}

// Size returns the content length in bytes.
func (u *Upload) Size() int64 {
	return int64(len(u.Content))
}
