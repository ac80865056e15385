// Package picture stores the images attached to sales.
package picture

import (
	"context"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/MrJamesThe3rd/tally/internal/apperr"
)

var (
	ErrEmpty       = apperr.Validation("picture is empty")
	ErrUnsupported = apperr.Validation("picture must be a jpeg, png, gif or webp image")
	ErrTooLarge    = apperr.Validation("picture is too large")
)

var allowed = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Storage persists picture bytes and addresses them by URL.
type Storage interface {
	Save(ctx context.Context, up Upload) (string, error)
	Open(ctx context.Context, url string) (io.ReadCloser, error)
	Delete(ctx context.Context, url string) error
}

// Upload is a picture received from a client.
type Upload struct {
	Filename string
	Data     []byte
}

// Detect sniffs the upload and returns its MIME type and file extension.
func Detect(up Upload) (string, string, error) {
	if len(up.Data) == 0 {
		return "", "", ErrEmpty
	}

	mt := mimetype.Detect(up.Data)
	for _, a := range allowed {
		if mt.Is(a) {
			return a, mt.Extension(), nil
		}
	}

	return "", "", ErrUnsupported
}

// ReadUpload reads at most limit bytes from r.
func ReadUpload(r io.Reader, filename string, limit int64) (Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return Upload{}, err
	}

	if int64(len(data)) > limit {
		return Upload{}, ErrTooLarge
	}

	return Upload{Filename: filename, Data: data}, nil
}

// Name returns the file name part of a stored picture URL.
func Name(url string) string {
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}

	return url
}
