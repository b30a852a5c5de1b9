package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/ZertGraf/cresp/internal/domain"
)

const (
	// multipartOverhead leaves room for boundaries and small form fields
	// on top of the file itself.
	multipartOverhead = 1 << 20
	maxFormMemory     = 1 << 20
)

type formFile struct {
	file   multipart.File
	header *multipart.FileHeader
}

// readFormFile parses a multipart body and opens its "file" part. The caller
// must call cleanup once the file has been consumed.
func readFormFile(w http.ResponseWriter, r *http.Request, maxBytes int64) (*formFile, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, domain.ErrFileTooLarge
		}
		return nil, nil, errors.Join(ErrInvalidBody, err)
	}

	cleanup := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		cleanup()
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil, validation.Errors{"file": errors.New("cannot be blank")}
		}
		return nil, nil, errors.Join(ErrInvalidBody, err)
	}

	return &formFile{file: file, header: header}, func() {
		_ = file.Close()
		cleanup()
	}, nil
}
