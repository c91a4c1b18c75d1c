package validators

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	pkgerrors "github.com/delarosa-dev/shopdeck-backend/pkg/errors"
)

// memory threshold before multipart parts spill to temp files
const multipartMemoryBytes = 4 << 20

// UploadFile is a parsed multipart file part ready for service-level validation.
type UploadFile struct {
	FileName     string
	DeclaredMime string
	SizeBytes    int64
	Data         []byte
}

// ParseUploadFiles extracts every file part under field from a multipart form.
// The request may carry at most maxFiles parts under the field, and each part
// is read fully into memory, capped at maxPerFileBytes.
func ParseUploadFiles(r *http.Request, field string, maxFiles int, maxPerFileBytes int64) ([]UploadFile, error) {
	if err := r.ParseMultipartForm(multipartMemoryBytes); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}
	if r.MultipartForm == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "multipart form is required")
	}

	headers := r.MultipartForm.File[field]
	if maxFiles > 0 && len(headers) > maxFiles {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many files in one request").
			WithDetails(map[string]any{"max_files": maxFiles, "received": len(headers)})
	}
	files := make([]UploadFile, 0, len(headers))
	for _, header := range headers {
		file, err := parseUploadFile(header, maxPerFileBytes)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// FormValue returns a trimmed multipart form value.
func FormValue(r *http.Request, field string) string {
	if r.MultipartForm == nil {
		return ""
	}
	values := r.MultipartForm.Value[field]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

func parseUploadFile(header *multipart.FileHeader, maxPerFileBytes int64) (UploadFile, error) {
	name := strings.TrimSpace(header.Filename)
	if name == "" {
		return UploadFile{}, pkgerrors.New(pkgerrors.CodeValidation, "file name is required")
	}

	part, err := header.Open()
	if err != nil {
		return UploadFile{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "opening uploaded file")
	}
	defer part.Close()

	var buf bytes.Buffer
	limit := maxPerFileBytes
	if limit <= 0 {
		limit = multipartMemoryBytes
	}
	// read one byte past the limit to tell "exactly at cap" from "over cap"
	n, err := io.Copy(&buf, io.LimitReader(part, limit+1))
	if err != nil {
		return UploadFile{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading uploaded file")
	}
	if n > limit {
		return UploadFile{}, pkgerrors.New(pkgerrors.CodeValidation, "file exceeds the maximum allowed size").
			WithDetails(map[string]any{"file": name, "max_bytes": limit})
	}

	return UploadFile{
		FileName:     name,
		DeclaredMime: header.Header.Get("Content-Type"),
		SizeBytes:    n,
		Data:         buf.Bytes(),
	}, nil
}
