package validators

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/delarosa-dev/shopdeck-backend/pkg/errors"
)

func multipartRequest(t *testing.T, files map[string]string, values map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	for key, value := range values {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestParseUploadFiles(t *testing.T) {
	req := multipartRequest(t, map[string]string{
		"one.jpg": "aaa",
		"two.png": "bbbb",
	}, map[string]string{"payload": `{"title":"x"}`})

	files, err := ParseUploadFiles(req, "files", 3, 1024)
	if err != nil {
		t.Fatalf("ParseUploadFiles failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}

	byName := map[string]UploadFile{}
	for _, f := range files {
		byName[f.FileName] = f
	}
	if byName["one.jpg"].SizeBytes != 3 || string(byName["one.jpg"].Data) != "aaa" {
		t.Fatalf("unexpected file payload %+v", byName["one.jpg"])
	}

	if got := FormValue(req, "payload"); got != `{"title":"x"}` {
		t.Fatalf("unexpected form value %q", got)
	}
	if got := FormValue(req, "missing"); got != "" {
		t.Fatalf("expected empty value for missing field, got %q", got)
	}
}

func TestParseUploadFilesEnforcesSizeCap(t *testing.T) {
	req := multipartRequest(t, map[string]string{
		"big.jpg": strings.Repeat("x", 11),
	}, nil)

	_, err := ParseUploadFiles(req, "files", 3, 10)
	if err == nil {
		t.Fatal("expected oversize file to be rejected")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseUploadFilesAcceptsExactCap(t *testing.T) {
	req := multipartRequest(t, map[string]string{
		"exact.jpg": strings.Repeat("x", 10),
	}, nil)

	files, err := ParseUploadFiles(req, "files", 3, 10)
	if err != nil {
		t.Fatalf("expected file at exactly the cap to pass, got %v", err)
	}
	if files[0].SizeBytes != 10 {
		t.Fatalf("unexpected size %d", files[0].SizeBytes)
	}
}

func TestParseUploadFilesEnforcesFileCountCap(t *testing.T) {
	req := multipartRequest(t, map[string]string{
		"a.jpg": "1",
		"b.jpg": "2",
		"c.jpg": "3",
		"d.jpg": "4",
	}, nil)

	_, err := ParseUploadFiles(req, "files", 3, 1024)
	if err == nil {
		t.Fatal("expected a fourth file to be rejected")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok || details["max_files"] != 3 || details["received"] != 4 {
		t.Fatalf("unexpected details %v", typed.Details())
	}
}

func TestParseUploadFilesRejectsNonMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("plain"))
	if _, err := ParseUploadFiles(req, "files", 3, 10); err == nil {
		t.Fatal("expected non-multipart request to fail")
	}
}
