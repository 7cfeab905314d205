// ABOUTME: Image upload endpoint of the Blog Panel API
// ABOUTME: Sniffs type and size locally before sending a multipart body

package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

// AllowedUploadTypes are the image types the backend accepts
var AllowedUploadTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Upload sends a single file as the "file" part of a multipart POST /upload/
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, c.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, &ValidationError{Field: "file", Message: "is empty"}
	}
	if int64(len(data)) > c.maxUploadBytes {
		return nil, &ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("exceeds the %s upload limit", humanize.IBytes(uint64(c.maxUploadBytes))),
		}
	}

	mt := mimetype.Detect(data)
	if !allowedUpload(mt) {
		return nil, &ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("type %s is not allowed (want one of %s)", mt.String(), strings.Join(AllowedUploadTypes, ", ")),
		}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filepath.Base(filename))))
	header.Set("Content-Type", mt.String())
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	var result UploadResult
	if err := c.do(ctx, http.MethodPost, "/upload/", nil, &body, mw.FormDataContentType(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UploadFile opens path and uploads it under its base name
func (c *Client) UploadFile(ctx context.Context, path string) (*UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return c.Upload(ctx, filepath.Base(path), f)
}

func allowedUpload(mt *mimetype.MIME) bool {
	for _, allowed := range AllowedUploadTypes {
		if mt.Is(allowed) {
			return true
		}
	}
	return false
}
