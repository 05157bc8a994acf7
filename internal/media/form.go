// AngelaMos | 2026
// form.go

package media

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/carterperez-dev/storefront-api/internal/core"
)

const formMemory = 8 << 20

// ParseForm parses a multipart body. Requests without a multipart body are
// accepted so that text-only edits can omit file parts.
func ParseForm(r *http.Request) error {
	err := r.ParseMultipartForm(formMemory)
	switch {
	case err == nil, errors.Is(err, http.ErrNotMultipart):
		return nil
	default:
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return core.ValidationError("upload exceeds the request size limit")
		}
		return core.ValidationError("invalid multipart form")
	}
}

func FormFile(r *http.Request, field string) *multipart.FileHeader {
	files := FormFiles(r, field)
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

func FormFiles(r *http.Request, field string) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File[field]
}
